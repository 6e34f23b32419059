// Package printer provides the printer.print operator: it renders its
// arguments to stdout, mostly as a tail step in example networks.
package printer

import (
	"context"
	"fmt"
	"sort"

	"opnet/internal/ctxlog"
	"opnet/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the package's operators.
func (m *Module) Register(r *registry.Registry) {
	r.Register("printer", "print", Print)
}

// Print renders every argument on its own line, keys sorted for stable
// output. It returns the number of arguments printed.
func Print(ctx context.Context, args map[string]any) (any, error) {
	ctxlog.FromContext(ctx).Info("Printing arguments.", "count", len(args))

	if len(args) == 0 {
		fmt.Println("      (no arguments)")
		return 0, nil
	}

	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		fmt.Printf("      %s = %v\n", k, args[k])
	}
	return len(keys), nil
}
