package executor

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opnet/internal/config"
	"opnet/internal/events"
	"opnet/internal/graph"
)

// recorder is a thread-safe log of operator start order plus optional
// per-operator failures and delays.
type recorder struct {
	mu      sync.Mutex
	order   []string
	fail    map[string]error
	delay   map[string]time.Duration
	started map[string]time.Time
	ended   map[string]time.Time
}

func newRecorder() *recorder {
	return &recorder{
		fail:    map[string]error{},
		delay:   map[string]time.Duration{},
		started: map[string]time.Time{},
		ended:   map[string]time.Time{},
	}
}

func (r *recorder) invoke(_ context.Context, task Task) error {
	r.mu.Lock()
	r.order = append(r.order, task.Op.ID)
	r.started[task.Op.ID] = time.Now()
	d := r.delay[task.Op.ID]
	err := r.fail[task.Op.ID]
	r.mu.Unlock()

	if d > 0 {
		time.Sleep(d)
	}

	r.mu.Lock()
	r.ended[task.Op.ID] = time.Now()
	r.mu.Unlock()
	return err
}

func (r *recorder) index(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, got := range r.order {
		if got == id {
			return i
		}
	}
	return -1
}

func op(id string, deps ...string) *config.Operator {
	if deps == nil {
		deps = []string{}
	}
	return &config.Operator{
		ID:        id,
		Ref:       config.Ref{Module: "test", Name: "noop"},
		DependsOn: deps,
		Repeat:    1,
	}
}

func runGraph(t *testing.T, rec *recorder, workers int, ops ...*config.Operator) *RunResult {
	t.Helper()
	g, err := graph.Build(ops)
	require.NoError(t, err)

	pool := NewLocalPool(workers, g.Len(), rec.invoke)
	return New(g, pool, nil, 1).Run(context.Background())
}

func TestRun_DiamondRespectsDependencyOrder(t *testing.T) {
	rec := newRecorder()
	result := runGraph(t, rec, 4,
		op("a"), op("b"), op("d", "a", "b"), op("f", "d"))

	require.False(t, result.Failed())
	for _, id := range []string{"a", "b", "d", "f"} {
		assert.Equal(t, Completed, result.States[id])
	}

	// Roots first, fan-in after both, tail last.
	assert.Less(t, rec.index("a"), rec.index("d"))
	assert.Less(t, rec.index("b"), rec.index("d"))
	assert.Less(t, rec.index("d"), rec.index("f"))
}

func TestRun_FanInWaitsForSlowestDependency(t *testing.T) {
	rec := newRecorder()
	rec.delay["slow"] = 50 * time.Millisecond

	result := runGraph(t, rec, 4,
		op("slow"), op("fast"), op("join", "slow", "fast"))

	require.False(t, result.Failed())
	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.True(t, rec.started["join"].After(rec.ended["slow"]),
		"join must not start before its slowest dependency finished")
}

func TestRun_FailureIsolatesSubtreeOnly(t *testing.T) {
	rec := newRecorder()
	rec.fail["d"] = errors.New("d exploded")

	// a -> d -> x, y; b -> c is an independent branch.
	result := runGraph(t, rec, 4,
		op("a"), op("d", "a"), op("x", "d"), op("y", "d"),
		op("b"), op("c", "b"))

	assert.True(t, result.Failed())
	assert.Equal(t, Failed, result.States["d"])
	require.Contains(t, result.Errors, "d")
	assert.Equal(t, "d", result.Errors["d"].OperatorID)

	// Dependents of the failed operator never ran and stay Pending.
	assert.Equal(t, Pending, result.States["x"])
	assert.Equal(t, Pending, result.States["y"])
	assert.ElementsMatch(t, []string{"x", "y"}, result.Blocked)
	assert.Equal(t, -1, rec.index("x"))
	assert.Equal(t, -1, rec.index("y"))

	// The independent branch is unaffected.
	assert.Equal(t, Completed, result.States["b"])
	assert.Equal(t, Completed, result.States["c"])
}

func TestRun_BlockedCoversTransitiveDependents(t *testing.T) {
	rec := newRecorder()
	rec.fail["root"] = errors.New("no")

	result := runGraph(t, rec, 2,
		op("root"), op("mid", "root"), op("leaf", "mid"))

	assert.ElementsMatch(t, []string{"mid", "leaf"}, result.Blocked)
	assert.Equal(t, Pending, result.States["leaf"])
}

func TestRun_SequentialPoolStillDrainsWideGraphs(t *testing.T) {
	rec := newRecorder()
	ops := []*config.Operator{op("hub")}
	for i := 0; i < 20; i++ {
		ops = append(ops, op(fmt.Sprintf("leaf-%d", i), "hub"))
	}

	result := runGraph(t, rec, 1, ops...)
	require.False(t, result.Failed())
	rec.mu.Lock()
	assert.Len(t, rec.order, 21)
	rec.mu.Unlock()
}

func TestRun_EmitsTransitions(t *testing.T) {
	rec := newRecorder()
	stream := events.NewStream()
	sub := stream.Subscribe()

	g, err := graph.Build([]*config.Operator{op("only")})
	require.NoError(t, err)
	pool := NewLocalPool(1, 1, rec.invoke)
	result := New(g, pool, stream, 3).Run(context.Background())
	stream.Close()

	require.False(t, result.Failed())

	var seq []string
	for tr := range sub {
		assert.Equal(t, "only", tr.OperatorID)
		assert.Equal(t, 3, tr.Group)
		seq = append(seq, tr.To)
	}
	assert.Equal(t, []string{"ready", "running", "completed"}, seq)
}

func TestRun_TimeoutConvertsToOperatorError(t *testing.T) {
	rec := newRecorder()
	rec.delay["slow"] = 300 * time.Millisecond

	slow := op("slow")
	slow.Timeout = 20 * time.Millisecond

	result := runGraph(t, rec, 1, slow)

	assert.True(t, result.Failed())
	require.Contains(t, result.Errors, "slow")
	assert.Equal(t, KindTimeout, result.Errors["slow"].Kind)
}

func TestRun_RandomDAGsRespectTopologicalOrder(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for trial := 0; trial < 25; trial++ {
		n := 4 + rng.Intn(12)
		ops := make([]*config.Operator, n)
		for i := 0; i < n; i++ {
			var deps []string
			// Edges only point backwards, so the graph is a DAG by
			// construction.
			for j := 0; j < i; j++ {
				if rng.Intn(3) == 0 {
					deps = append(deps, fmt.Sprintf("n%d", j))
				}
			}
			ops[i] = op(fmt.Sprintf("n%d", i), deps...)
		}

		rec := newRecorder()
		result := runGraph(t, rec, 1+rng.Intn(6), ops...)
		require.False(t, result.Failed(), "trial %d", trial)

		for _, o := range ops {
			for _, dep := range o.DependsOn {
				assert.Less(t, rec.index(dep), rec.index(o.ID),
					"trial %d: %s dispatched before its dependency %s", trial, o.ID, dep)
			}
		}
	}
}
