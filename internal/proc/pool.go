package proc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"opnet/internal/ctxlog"
	"opnet/internal/executor"
)

// waitDelay bounds how long Wait lingers on open pipes after the worker's
// process group was killed.
const waitDelay = 2 * time.Second

// Pool runs tasks in child processes. It satisfies executor.Pool, so the
// scheduler is oblivious to whether an operator runs in a goroutine or a
// fresh process.
type Pool struct {
	bin         string
	storeSocket string
	workers     int

	tasks   chan executor.Task
	results chan executor.Result

	closeOnce sync.Once
}

// NewPool builds a process pool spawning up to workers children at a time.
// bin is the path to this binary (the children re-exec it); capacity must be
// at least the number of tasks the run will submit.
func NewPool(workers, capacity int, bin, storeSocket string) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{
		bin:         bin,
		storeSocket: storeSocket,
		workers:     workers,
		tasks:       make(chan executor.Task, capacity),
		results:     make(chan executor.Result, capacity),
	}
}

// SelfPool builds a process pool whose children re-exec the current binary.
func SelfPool(workers, capacity int, storeSocket string) (*Pool, error) {
	bin, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("locating own executable: %w", err)
	}
	return NewPool(workers, capacity, bin, storeSocket), nil
}

// Start launches the worker goroutines that spawn child processes.
func (p *Pool) Start(ctx context.Context) {
	g := new(errgroup.Group)
	for range p.workers {
		g.Go(func() error {
			for task := range p.tasks {
				p.results <- executor.Result{
					OperatorID: task.Op.ID,
					Err:        p.runProcess(ctx, task),
				}
			}
			return nil
		})
	}
	go func() {
		_ = g.Wait()
		close(p.results)
	}()
}

// Submit queues a task for the next free worker.
func (p *Pool) Submit(t executor.Task) {
	p.tasks <- t
}

// Results returns the channel task outcomes arrive on.
func (p *Pool) Results() <-chan executor.Result {
	return p.results
}

// Close signals that no further tasks will be submitted.
func (p *Pool) Close() {
	p.closeOnce.Do(func() { close(p.tasks) })
}

// runProcess spawns one child for one task and maps its fate onto the error
// taxonomy. The contract with the child: exit 0 with a result envelope on
// stdout whenever the task reached a verdict, operator failures included.
// Anything else is a crash, except a kill by our own timeout.
func (p *Pool) runProcess(ctx context.Context, task executor.Task) error {
	log := ctxlog.FromContext(ctx)
	op := task.Op

	runCtx := ctx
	if op.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, op.Timeout)
		defer cancel()
	}

	var in, out bytes.Buffer
	if err := WriteTask(&in, &TaskEnvelope{Operator: op, Group: task.Group}); err != nil {
		return &executor.OperatorError{OperatorID: op.ID, Kind: executor.KindCallable, Err: err}
	}

	cmd := exec.CommandContext(runCtx, p.bin, "worker", "--store-socket", p.storeSocket)
	cmd.Stdin = &in
	cmd.Stdout = &out
	cmd.Stderr = os.Stderr

	// Run the worker in its own process group and kill the whole group on
	// timeout. Killing only the direct child would leave its subprocesses
	// holding the stdout pipe, and Wait would block until they exit.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = waitDelay

	log.Debug("Spawning worker process", "operator_id", op.ID, "group", task.Group)
	waitErr := cmd.Run()

	if runCtx.Err() == context.DeadlineExceeded {
		return &executor.OperatorError{
			OperatorID: op.ID,
			Kind:       executor.KindTimeout,
			Err:        fmt.Errorf("operator exceeded timeout of %s", op.Timeout),
		}
	}

	env, err := decodeResult(bytes.TrimSpace(out.Bytes()))
	if err != nil {
		if waitErr == nil {
			waitErr = err
		}
		var exitErr *exec.ExitError
		detail := "worker produced no result"
		if errors.As(waitErr, &exitErr) {
			detail = fmt.Sprintf("worker exited with code %d before reporting a result", exitErr.ExitCode())
		}
		return &executor.OperatorError{
			OperatorID: op.ID,
			Kind:       executor.KindCrash,
			Err:        fmt.Errorf("%s: %w", detail, waitErr),
		}
	}
	return errorFromResult(op.ID, env)
}
