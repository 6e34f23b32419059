package executor

import (
	"context"
	"fmt"
	"sync"

	"opnet/internal/config"
	"opnet/internal/ctxlog"
)

// Task is one dispatched operator.
type Task struct {
	Op    *config.Operator
	Group int
}

// Result is a worker's completion report for one task.
type Result struct {
	OperatorID string
	Err        error
}

// Pool executes dispatched operators. Submit never blocks on a slow
// operator; completions arrive on Results in whatever order operators
// finish. Close signals that no further Submit will happen; Results is
// closed once every in-flight task has reported.
type Pool interface {
	Start(ctx context.Context)
	Submit(t Task)
	Results() <-chan Result
	Close()
}

// InvokeFunc runs one operator to completion, including all its repeats.
// The worker pool stays agnostic of stores and registries; the driver binds
// them into this closure.
type InvokeFunc func(ctx context.Context, t Task) error

// LocalPool runs tasks on worker goroutines inside the engine process. One
// worker gives strict sequential execution; N workers give in-process
// parallelism.
type LocalPool struct {
	workers int
	invoke  InvokeFunc

	tasks   chan Task
	results chan Result
	wg      sync.WaitGroup
	once    sync.Once
}

// NewLocalPool builds a pool with the given worker count (minimum 1).
// capacity must be at least the number of tasks the run will submit; both
// channels are sized to it so neither Submit nor a worker's completion send
// can ever block the scheduler's control loop.
func NewLocalPool(workers, capacity int, invoke InvokeFunc) *LocalPool {
	if workers < 1 {
		workers = 1
	}
	if capacity < 1 {
		capacity = 1
	}
	return &LocalPool{
		workers: workers,
		invoke:  invoke,
		tasks:   make(chan Task, capacity),
		results: make(chan Result, capacity),
	}
}

// Start launches the worker goroutines.
func (p *LocalPool) Start(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Starting local worker pool.", "workers", p.workers)

	p.wg.Add(p.workers)
	for i := 0; i < p.workers; i++ {
		go p.worker(ctx, i)
	}
	go func() {
		p.wg.Wait()
		close(p.results)
	}()
}

// Submit implements Pool.
func (p *LocalPool) Submit(t Task) {
	p.tasks <- t
}

// Results implements Pool.
func (p *LocalPool) Results() <-chan Result {
	return p.results
}

// Close implements Pool.
func (p *LocalPool) Close() {
	p.once.Do(func() { close(p.tasks) })
}

func (p *LocalPool) worker(ctx context.Context, id int) {
	defer p.wg.Done()
	logger := ctxlog.FromContext(ctx).With("worker", id)
	logger.Debug("Worker started.")

	for task := range p.tasks {
		logger.Debug("Worker picked up operator.", "operator", task.Op.ID)
		p.results <- Result{
			OperatorID: task.Op.ID,
			Err:        p.runOne(ctx, task),
		}
	}
	logger.Debug("Worker finished.")
}

// runOne applies the per-operator timeout around the invoke closure. An
// in-process callable cannot be force-killed; on timeout its goroutine is
// abandoned with a canceled context and the operator is reported failed.
func (p *LocalPool) runOne(ctx context.Context, task Task) error {
	if task.Op.Timeout <= 0 {
		return p.invoke(ctx, task)
	}

	runCtx, cancel := context.WithTimeout(ctx, task.Op.Timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- p.invoke(runCtx, task)
	}()

	select {
	case err := <-done:
		return err
	case <-runCtx.Done():
		return &OperatorError{
			OperatorID: task.Op.ID,
			Kind:       KindTimeout,
			Err:        fmt.Errorf("exceeded timeout %s", task.Op.Timeout),
		}
	}
}
