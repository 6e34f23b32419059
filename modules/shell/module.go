// Package shell provides the shell.run operator: it executes a command line
// and captures its output for downstream operators.
package shell

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"opnet/internal/ctxlog"
	"opnet/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the package's operators.
func (m *Module) Register(r *registry.Registry) {
	r.Register("shell", "run", Run)
}

// Run executes the "command" argument through the shell and returns its
// stdout, stderr, and exit code. A non-zero exit fails the operator unless
// "allow_failure" is set.
func Run(ctx context.Context, args map[string]any) (any, error) {
	command, _ := args["command"].(string)
	if command == "" {
		return nil, fmt.Errorf("shell.run requires a non-empty \"command\" argument")
	}
	allowFailure, _ := args["allow_failure"].(bool)

	logger := ctxlog.FromContext(ctx)
	logger.Info("Running shell command.", "command", command)

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	exitCode := cmd.ProcessState.ExitCode()

	logger.Debug("Shell command finished.", "exit_code", exitCode)

	if err != nil && !allowFailure {
		if _, isExit := err.(*exec.ExitError); !isExit {
			return nil, fmt.Errorf("starting command: %w", err)
		}
		return nil, fmt.Errorf("command exited with code %d: %s", exitCode, strings.TrimSpace(stderr.String()))
	}

	return map[string]any{
		"stdout":    stdout.String(),
		"stderr":    stderr.String(),
		"exit_code": float64(exitCode),
	}, nil
}
