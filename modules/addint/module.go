// Package addint provides small arithmetic operators used to chain values
// through the shared store in example networks.
package addint

import (
	"context"
	"fmt"

	"opnet/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the package's operators.
func (m *Module) Register(r *registry.Registry) {
	r.Register("addint", "add", Add)
	r.Register("addint", "sum", Sum)
}

// Add returns a + b.
func Add(ctx context.Context, args map[string]any) (any, error) {
	a, err := number(args, "a")
	if err != nil {
		return nil, err
	}
	b, err := number(args, "b")
	if err != nil {
		return nil, err
	}
	return a + b, nil
}

// Sum adds every element of the "values" list argument.
func Sum(ctx context.Context, args map[string]any) (any, error) {
	values, ok := args["values"].([]any)
	if !ok {
		return nil, fmt.Errorf("addint.sum requires a \"values\" list argument")
	}

	total := 0.0
	for i, v := range values {
		n, ok := asNumber(v)
		if !ok {
			return nil, fmt.Errorf("addint.sum: element %d is not a number (%T)", i, v)
		}
		total += n
	}
	return total, nil
}

func number(args map[string]any, key string) (float64, error) {
	n, ok := asNumber(args[key])
	if !ok {
		return 0, fmt.Errorf("addint requires a numeric %q argument, got %T", key, args[key])
	}
	return n, nil
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
