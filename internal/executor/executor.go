// Package executor contains the readiness scheduler, the worker pool
// abstraction, and the execution adapter that together drain one operator
// graph. A single control goroutine owns all completion bookkeeping; worker
// code only ever touches the shared store.
package executor

import (
	"context"
	"time"

	"opnet/internal/ctxlog"
	"opnet/internal/events"
	"opnet/internal/graph"
)

// RunResult is the scheduler's account of one drained graph.
type RunResult struct {
	// States holds every operator's final scheduler state. Dependents of a
	// failed operator remain Pending.
	States map[string]State
	// Errors holds the captured failure per failed operator.
	Errors map[string]*OperatorError
	// Blocked lists operators that stayed Pending because an ancestor
	// failed, in no particular order.
	Blocked []string
}

// Failed reports whether any operator failed or was blocked.
func (r *RunResult) Failed() bool {
	return len(r.Errors) > 0 || len(r.Blocked) > 0
}

// Executor drives the dispatch loop for one graph over one worker pool.
type Executor struct {
	graph *graph.Graph
	pool  Pool
	sink  events.Sink
	group int
}

// New builds an executor. sink may be nil.
func New(g *graph.Graph, pool Pool, sink events.Sink, group int) *Executor {
	return &Executor{graph: g, pool: pool, sink: sink, group: group}
}

// Run drains the graph and always returns a complete result: operator
// failures are captured per operator and never surface as an error here.
// The run is fail-soft — a failed operator only removes its dependent
// subtree from eligibility while independent branches continue.
func (e *Executor) Run(ctx context.Context) *RunResult {
	logger := ctxlog.FromContext(ctx).With("group", e.group)

	states := make(map[string]State, e.graph.Len())
	pendingDeps := make(map[string]int, e.graph.Len())
	for _, n := range e.graph.Nodes() {
		states[n.ID()] = Pending
		pendingDeps[n.ID()] = n.DepCount()
	}

	result := &RunResult{
		States: states,
		Errors: make(map[string]*OperatorError),
	}

	transition := func(id string, to State) {
		from := states[id]
		states[id] = to
		events.Emit(e.sink, events.Transition{
			OperatorID: id,
			Group:      e.group,
			From:       from.String(),
			To:         to.String(),
			At:         time.Now(),
		})
	}

	e.pool.Start(ctx)

	outstanding := 0
	dispatch := func(n *graph.Node) {
		transition(n.ID(), Ready)
		transition(n.ID(), Running)
		logger.Debug("Dispatching operator.", "operator", n.ID())
		e.pool.Submit(Task{Op: n.Op, Group: e.group})
		outstanding++
	}

	for _, root := range e.graph.Roots() {
		dispatch(root)
	}

	// Single control loop: process whichever operator completes first to
	// unlock dependents as early as possible.
	for outstanding > 0 {
		res := <-e.pool.Results()
		outstanding--

		if res.Err != nil {
			transition(res.OperatorID, Failed)
			result.Errors[res.OperatorID] = opErr(res.OperatorID, KindCallable, 0, res.Err)
			logger.Error("Operator failed.", "operator", res.OperatorID, "error", res.Err)
			continue
		}

		transition(res.OperatorID, Completed)
		logger.Debug("Operator completed.", "operator", res.OperatorID)

		for _, dep := range e.graph.Dependents(res.OperatorID) {
			pendingDeps[dep.ID()]--
			if pendingDeps[dep.ID()] == 0 {
				dispatch(dep)
			}
		}
	}

	e.pool.Close()
	e.markBlocked(result)

	if result.Failed() {
		logger.Warn("Run drained with failures.",
			"failed", len(result.Errors), "blocked", len(result.Blocked))
	} else {
		logger.Info("Run drained.", "operators", e.graph.Len())
	}
	return result
}

// markBlocked walks forward from every failed operator and records the
// dependents that never became eligible. Their state stays Pending; the
// report needs them distinguishable from operators that simply never
// existed in a branch.
func (e *Executor) markBlocked(result *RunResult) {
	seen := make(map[string]bool)
	var walk func(id string)
	walk = func(id string) {
		for _, dep := range e.graph.Dependents(id) {
			if seen[dep.ID()] {
				continue
			}
			if result.States[dep.ID()] == Pending {
				seen[dep.ID()] = true
				result.Blocked = append(result.Blocked, dep.ID())
				walk(dep.ID())
			}
		}
	}
	for id := range result.Errors {
		walk(id)
	}
}
