// Package registry maps callable references from the network definition onto
// compiled-in Go functions. Registration is an explicit startup-time mapping
// table; there is no runtime reflection or dynamic loading.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"opnet/internal/config"
)

// Callable is the invocable behind an operator: it receives the merged
// argument map and returns a value or an error. The engine never inspects
// what it does.
type Callable func(ctx context.Context, args map[string]any) (any, error)

// Module is the interface operator packages implement to be compiled into
// the binary.
type Module interface {
	Register(r *Registry)
}

// Registry holds the callable mapping for one application instance. Both the
// engine process and its worker processes construct the same registry from
// the same module list, which is what lets a callable reference cross a
// process boundary as a plain (module, name) pair.
type Registry struct {
	callables map[config.Ref]Callable
}

// New creates an empty registry and registers the given modules into it.
func New(modules ...Module) *Registry {
	r := &Registry{callables: make(map[config.Ref]Callable)}
	for _, m := range modules {
		m.Register(r)
	}
	return r
}

// Register adds one callable under (module, name). Duplicate registration is
// a wiring bug and panics, matching the fail-at-startup contract.
func (r *Registry) Register(module, name string, fn Callable) {
	ref := config.Ref{Module: module, Name: name}
	if _, exists := r.callables[ref]; exists {
		panic(fmt.Sprintf("callable %q already registered", ref))
	}
	slog.Debug("Registering callable.", "ref", ref.String())
	r.callables[ref] = fn
}

// Resolve returns the callable for a reference, or an error when the
// definition names something this binary does not carry.
func (r *Registry) Resolve(ref config.Ref) (Callable, error) {
	fn, ok := r.callables[ref]
	if !ok {
		return nil, fmt.Errorf("unknown callable %q (registered: %v)", ref.String(), r.Refs())
	}
	return fn, nil
}

// Refs lists every registered reference in sorted order, for diagnostics.
func (r *Registry) Refs() []string {
	out := make([]string, 0, len(r.callables))
	for ref := range r.callables {
		out = append(out, ref.String())
	}
	sort.Strings(out)
	return out
}
