// Package driver runs a full network definition: it builds the graph once,
// then drains it once per repeat group, giving every group a freshly seeded
// shared store so groups cannot observe each other.
package driver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"opnet/internal/config"
	"opnet/internal/ctxlog"
	"opnet/internal/events"
	"opnet/internal/executor"
	"opnet/internal/graph"
	"opnet/internal/proc"
	"opnet/internal/registry"
	"opnet/internal/store"
)

// Options tune a run beyond what the definition itself carries.
type Options struct {
	// Sink receives operator state transitions. May be nil.
	Sink events.Sink
	// BinPath is the executable worker processes re-exec. Empty means the
	// current binary. Only used when the model enables multiprocessing.
	BinPath string
	// SocketDir is where store sockets are created for multiprocessing
	// runs. Empty means the system temp directory.
	SocketDir string
	// Workers overrides the model's worker count when positive.
	Workers int
}

// GroupReport is the outcome of one repeat group.
type GroupReport struct {
	Group   int
	States  map[string]executor.State
	Errors  map[string]*executor.OperatorError
	Blocked []string
	// Shared is the store's content after the group drained.
	Shared  map[string]any
	Elapsed time.Duration
}

// Failed reports whether any operator in the group failed or was blocked.
func (g *GroupReport) Failed() bool {
	return len(g.Errors) > 0 || len(g.Blocked) > 0
}

// Report is the outcome of a whole run, one entry per repeat group.
type Report struct {
	Network string
	Groups  []*GroupReport
	Elapsed time.Duration
}

// Failed reports whether any group failed.
func (r *Report) Failed() bool {
	for _, g := range r.Groups {
		if g.Failed() {
			return true
		}
	}
	return false
}

// Run executes the model. Operator failures are fail-soft and land in the
// report; the returned error covers setup problems only (bad definition,
// unknown refs, socket trouble).
func Run(ctx context.Context, m *config.Model, reg *registry.Registry, opts Options) (*Report, error) {
	logger := ctxlog.FromContext(ctx)

	g, err := graph.Build(m.Operators)
	if err != nil {
		return nil, err
	}

	// Resolve every ref up front so a typo fails the run before any
	// operator has touched the store.
	callables := make(map[string]registry.Callable, len(m.Operators))
	for _, op := range m.Operators {
		fn, err := reg.Resolve(op.Ref)
		if err != nil {
			return nil, fmt.Errorf("operator %q: %w", op.ID, err)
		}
		callables[op.ID] = fn
	}

	logger.Info("Starting run.",
		"network", m.Name,
		"operators", len(m.Operators),
		"repeat_groups", m.RepeatGroups,
		"multiprocessing", m.Multiprocessing)

	start := time.Now()
	report := &Report{Network: m.Name}
	for group := 1; group <= m.RepeatGroups; group++ {
		gr, err := runGroup(ctx, m, g, callables, group, opts)
		if err != nil {
			return report, err
		}
		report.Groups = append(report.Groups, gr)
	}
	report.Elapsed = time.Since(start)

	logger.Info("Run finished.", "network", m.Name, "failed", report.Failed(), "elapsed", report.Elapsed)
	return report, nil
}

func runGroup(ctx context.Context, m *config.Model, g *graph.Graph, callables map[string]registry.Callable, group int, opts Options) (*GroupReport, error) {
	logger := ctxlog.FromContext(ctx).With("group", group)
	logger.Debug("Starting repeat group.")

	st := store.NewMemStore()
	if err := store.Seed(st, m.SharedData); err != nil {
		return nil, fmt.Errorf("seeding shared store: %w", err)
	}

	pool, cleanup, err := buildPool(m, st, callables, group, opts)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	start := time.Now()
	res := executor.New(g, pool, opts.Sink, group).Run(ctx)

	return &GroupReport{
		Group:   group,
		States:  res.States,
		Errors:  res.Errors,
		Blocked: res.Blocked,
		Shared:  st.Snapshot(),
		Elapsed: time.Since(start),
	}, nil
}

// buildPool picks the pool implementation the model asks for. The returned
// cleanup tears down whatever the pool needed (today: the store server for
// multiprocessing runs).
func buildPool(m *config.Model, st *store.MemStore, callables map[string]registry.Callable, group int, opts Options) (executor.Pool, func(), error) {
	capacity := len(m.Operators)
	workers := workerCount(m, opts)

	if !m.Multiprocessing {
		invoke := func(ctx context.Context, t executor.Task) error {
			_, err := executor.Invoke(ctx, t.Op, callables[t.Op.ID], st)
			return err
		}
		return executor.NewLocalPool(workers, capacity, invoke), func() {}, nil
	}

	dir := opts.SocketDir
	if dir == "" {
		dir = os.TempDir()
	}
	socket := filepath.Join(dir, fmt.Sprintf("opnet-%d-%d.sock", os.Getpid(), group))

	srv, err := store.NewServer(st, socket)
	if err != nil {
		return nil, nil, fmt.Errorf("starting store server: %w", err)
	}

	var pool *proc.Pool
	if opts.BinPath != "" {
		pool = proc.NewPool(workers, capacity, opts.BinPath, socket)
	} else {
		pool, err = proc.SelfPool(workers, capacity, socket)
		if err != nil {
			srv.Close()
			return nil, nil, err
		}
	}
	return pool, func() { srv.Close() }, nil
}

func workerCount(m *config.Model, opts Options) int {
	if m.Sequential {
		return 1
	}
	if opts.Workers > 0 {
		return opts.Workers
	}
	if m.Workers > 0 {
		return m.Workers
	}
	return runtime.GOMAXPROCS(0)
}
