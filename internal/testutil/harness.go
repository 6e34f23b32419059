// Package testutil provides the in-process harness the integration tests
// use to run whole network definitions and inspect the report and the
// captured log output.
package testutil

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"opnet/internal/config"
	"opnet/internal/ctxlog"
	"opnet/internal/driver"
	"opnet/internal/events"
	"opnet/internal/hclcfg"
	"opnet/internal/registry"
	"opnet/internal/yamlcfg"
)

// RunResult holds the outcomes of one harness run.
type RunResult struct {
	Report      *driver.Report
	Transitions []events.Transition
	LogOutput   string
	Err         error
}

// Failed reports whether the run errored or any operator failed.
func (r *RunResult) Failed() bool {
	return r.Err != nil || (r.Report != nil && r.Report.Failed())
}

// RunDefinition writes the definition to a temp file named filename, loads
// it with the loader matching its extension, and drains it in-process with
// the given modules. Logs are captured at debug level.
func RunDefinition(t *testing.T, filename, definition string, modules ...registry.Module) *RunResult {
	t.Helper()

	path := filepath.Join(t.TempDir(), filename)
	require.NoError(t, os.WriteFile(path, []byte(definition), 0o644))

	logBuf := &SafeBuffer{}
	ctx := ctxlog.WithLogger(context.Background(),
		slog.New(slog.NewTextHandler(logBuf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	var loader config.Loader
	if strings.HasSuffix(filename, ".hcl") {
		loader = hclcfg.New()
	} else {
		loader = yamlcfg.New()
	}

	model, err := loader.Load(ctx, path)
	if err != nil {
		return &RunResult{LogOutput: logBuf.String(), Err: err}
	}
	return runModel(ctx, t, model, logBuf, modules...)
}

// RunModel drains an already-built model in-process.
func RunModel(t *testing.T, model *config.Model, modules ...registry.Module) *RunResult {
	t.Helper()

	logBuf := &SafeBuffer{}
	ctx := ctxlog.WithLogger(context.Background(),
		slog.New(slog.NewTextHandler(logBuf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	require.NoError(t, model.Finalize())
	return runModel(ctx, t, model, logBuf, modules...)
}

func runModel(ctx context.Context, t *testing.T, model *config.Model, logBuf *SafeBuffer, modules ...registry.Module) *RunResult {
	t.Helper()

	sink := &CaptureSink{}
	report, err := driver.Run(ctx, model, registry.New(modules...), driver.Options{Sink: sink})
	return &RunResult{
		Report:      report,
		Transitions: sink.Transitions(),
		LogOutput:   logBuf.String(),
		Err:         err,
	}
}

// CaptureSink records every transition it receives.
type CaptureSink struct {
	mu          sync.Mutex
	transitions []events.Transition
}

// Emit implements events.Sink.
func (s *CaptureSink) Emit(tr events.Transition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transitions = append(s.transitions, tr)
}

// Transitions returns a copy of everything recorded so far.
func (s *CaptureSink) Transitions() []events.Transition {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]events.Transition, len(s.transitions))
	copy(out, s.transitions)
	return out
}
