// Package envvars provides the envvars.snapshot operator: a map of the
// process environment, optionally filtered by prefix.
package envvars

import (
	"context"
	"os"
	"strings"

	"opnet/internal/ctxlog"
	"opnet/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the package's operators.
func (m *Module) Register(r *registry.Registry) {
	r.Register("envvars", "snapshot", Snapshot)
}

// Snapshot returns the environment as a map. An optional "prefix" argument
// keeps only variables whose name starts with it.
func Snapshot(ctx context.Context, args map[string]any) (any, error) {
	prefix, _ := args["prefix"].(string)

	out := make(map[string]any)
	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		if prefix != "" && !strings.HasPrefix(name, prefix) {
			continue
		}
		out[name] = value
	}

	ctxlog.FromContext(ctx).Debug("Captured environment snapshot.", "variables", len(out), "prefix", prefix)
	return out, nil
}
