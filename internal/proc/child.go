package proc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"opnet/internal/ctxlog"
	"opnet/internal/executor"
	"opnet/internal/registry"
	"opnet/internal/store"
)

// RunChild is the body of the worker subprocess. It reads one task from in,
// executes it against the shared store reachable at storeSocket, and writes a
// result envelope to out. Operator failures are reported inside the envelope
// with a zero return; a non-nil error means the worker itself could not run
// and the parent should count the operator as crashed.
func RunChild(ctx context.Context, in io.Reader, out io.Writer, reg *registry.Registry, storeSocket string) error {
	log := ctxlog.FromContext(ctx)

	env, err := ReadTask(in)
	if err != nil {
		return err
	}
	op := env.Operator
	log.Debug("Worker received task", "operator_id", op.ID, "group", env.Group)

	remote, err := store.Dial(storeSocket)
	if err != nil {
		return fmt.Errorf("connecting to shared store: %w", err)
	}
	defer remote.Close()

	var runErr error
	fn, err := reg.Resolve(op.Ref)
	if err != nil {
		runErr = &executor.OperatorError{
			OperatorID: op.ID,
			Kind:       executor.KindCallable,
			Err:        err,
		}
	} else {
		_, runErr = executor.Invoke(ctx, op, fn, remote)
	}

	if runErr != nil {
		log.Debug("Worker task failed", "operator_id", op.ID, "error", runErr)
	}
	if err := json.NewEncoder(out).Encode(resultFromError(runErr)); err != nil {
		return fmt.Errorf("encoding worker result: %w", err)
	}
	return nil
}
