// Package proc implements the multiprocessing worker pool: each dispatched
// operator runs in a separate OS process that re-execs this binary's hidden
// worker entrypoint. The engine and its workers share one registry (both are
// the same binary) and one store (over the store server's unix socket), so a
// task crosses the boundary as nothing more than its operator definition.
package proc

import (
	"encoding/json"
	"fmt"
	"io"

	"opnet/internal/config"
	"opnet/internal/executor"
)

// TaskEnvelope is the JSON document the engine writes to a worker's stdin.
type TaskEnvelope struct {
	Operator *config.Operator `json:"operator"`
	Group    int              `json:"group"`
}

// ResultEnvelope is the JSON document a worker writes to stdout before
// exiting. OK distinguishes operator success; a worker that dies without
// producing one is treated as crashed.
type ResultEnvelope struct {
	OK     bool   `json:"ok"`
	Kind   string `json:"kind,omitempty"`
	Repeat int    `json:"repeat,omitempty"`
	Error  string `json:"error,omitempty"`
}

// WriteTask encodes a task envelope to w.
func WriteTask(w io.Writer, env *TaskEnvelope) error {
	if err := json.NewEncoder(w).Encode(env); err != nil {
		return fmt.Errorf("encoding worker task: %w", err)
	}
	return nil
}

// ReadTask decodes a task envelope from r.
func ReadTask(r io.Reader) (*TaskEnvelope, error) {
	var env TaskEnvelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return nil, fmt.Errorf("decoding worker task: %w", err)
	}
	if env.Operator == nil {
		return nil, fmt.Errorf("worker task carries no operator")
	}
	return &env, nil
}

// decodeResult parses a worker's stdout into a result envelope.
func decodeResult(data []byte) (*ResultEnvelope, error) {
	var env ResultEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decoding worker result: %w", err)
	}
	return &env, nil
}

// resultFromError converts an operator outcome into its wire form.
func resultFromError(err error) *ResultEnvelope {
	if err == nil {
		return &ResultEnvelope{OK: true}
	}
	if oe, ok := err.(*executor.OperatorError); ok {
		return &ResultEnvelope{
			Kind:   string(oe.Kind),
			Repeat: oe.Repeat,
			Error:  oe.Err.Error(),
		}
	}
	return &ResultEnvelope{Kind: string(executor.KindCallable), Error: err.Error()}
}

// errorFromResult rebuilds the typed operator error on the engine side.
func errorFromResult(operatorID string, env *ResultEnvelope) error {
	if env.OK {
		return nil
	}
	kind := executor.ErrorKind(env.Kind)
	if kind == "" {
		kind = executor.KindCallable
	}
	return &executor.OperatorError{
		OperatorID: operatorID,
		Kind:       kind,
		Repeat:     env.Repeat,
		Err:        fmt.Errorf("%s", env.Error),
	}
}
