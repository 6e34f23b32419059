// Package rng provides deterministic pseudo-random operators for example
// networks and benchmarks. A fixed "seed" argument makes runs reproducible.
package rng

import (
	"context"
	"fmt"
	"math/rand"

	"opnet/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the package's operators.
func (m *Module) Register(r *registry.Registry) {
	r.Register("rng", "int", Int)
	r.Register("rng", "float", Float)
}

// Int returns a pseudo-random integer in [0, max). max defaults to 100.
func Int(ctx context.Context, args map[string]any) (any, error) {
	max := intArg(args, "max", 100)
	if max <= 0 {
		return nil, fmt.Errorf("rng.int requires max > 0, got %d", max)
	}
	return float64(newSource(args).Intn(max)), nil
}

// Float returns a pseudo-random float in [0, 1).
func Float(ctx context.Context, args map[string]any) (any, error) {
	return newSource(args).Float64(), nil
}

func newSource(args map[string]any) *rand.Rand {
	seed := int64(intArg(args, "seed", 0))
	if seed == 0 {
		return rand.New(rand.NewSource(rand.Int63()))
	}
	return rand.New(rand.NewSource(seed))
}

// intArg reads a numeric argument regardless of whether the definition
// format delivered it as an int or a float.
func intArg(args map[string]any, key string, fallback int) int {
	switch v := args[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return fallback
	}
}
