package integrationtests

import (
	"context"
	"errors"
	"sync"

	"opnet/internal/registry"
)

// traceModule registers deterministic operators that record the order they
// were invoked in, so tests can assert scheduling behavior end to end.
type traceModule struct {
	mu    sync.Mutex
	order []string
}

func (m *traceModule) Register(r *registry.Registry) {
	r.Register("trace", "mark", func(ctx context.Context, args map[string]any) (any, error) {
		label, _ := args["label"].(string)
		m.mu.Lock()
		m.order = append(m.order, label)
		m.mu.Unlock()
		return label, nil
	})
	r.Register("trace", "fail", func(ctx context.Context, args map[string]any) (any, error) {
		return nil, errors.New("intentional failure")
	})
}

func (m *traceModule) calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

func (m *traceModule) indexOf(label string) int {
	for i, l := range m.calls() {
		if l == label {
			return i
		}
	}
	return -1
}
