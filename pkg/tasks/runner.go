// Package tasks runs detached background work with bounded concurrency.
//
// There is no durable queue: a dispatched task lives only in this process.
// Callers persist their own state (e.g. a menu source row) before
// dispatching, so a crash leaves a resumable record rather than nothing.
// Failed tasks are not retried; recovery is an explicit re-trigger.
package tasks

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Status is the runtime state of a dispatched task.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Snapshot is an immutable view of one task's state.
type Snapshot struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Status      Status     `json:"status"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
}

type taskState struct {
	id          string
	name        string
	status      Status
	startedAt   *time.Time
	completedAt *time.Time
	err         error
}

// Runner executes dispatched functions on goroutines, limiting how many run
// at once with a semaphore. Tasks detach from the caller's context: the
// triggering HTTP request returns immediately while the work continues.
type Runner struct {
	mu       sync.Mutex
	tasks    map[string]*taskState
	sem      chan struct{}
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	shutdown bool
	logger   *zap.Logger
}

// NewRunner creates a Runner allowing up to maxConcurrent tasks at once.
func NewRunner(maxConcurrent int, logger *zap.Logger) *Runner {
	if maxConcurrent < 1 {
		maxConcurrent = 8
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		tasks:  make(map[string]*taskState),
		sem:    make(chan struct{}, maxConcurrent),
		ctx:    ctx,
		cancel: cancel,
		logger: logger.Named("tasks"),
	}
}

// Dispatch starts fn on a background goroutine and returns its task ID
// immediately. fn receives the runner's own context, which is cancelled only
// on shutdown - never by the caller going away.
func (r *Runner) Dispatch(name string, fn func(ctx context.Context) error) string {
	id := uuid.New().String()

	r.mu.Lock()
	if r.shutdown {
		r.mu.Unlock()
		r.logger.Warn("runner shut down, ignoring dispatch", zap.String("task_name", name))
		return ""
	}
	r.tasks[id] = &taskState{id: id, name: name, status: StatusPending}
	r.wg.Add(1)
	r.mu.Unlock()

	r.logger.Info("task dispatched",
		zap.String("task_id", id),
		zap.String("task_name", name))

	go r.run(id, name, fn)

	return id
}

func (r *Runner) run(id, name string, fn func(ctx context.Context) error) {
	defer r.wg.Done()

	select {
	case r.sem <- struct{}{}:
		defer func() { <-r.sem }()
	case <-r.ctx.Done():
		r.setDone(id, r.ctx.Err())
		return
	}

	r.setRunning(id)

	err := fn(r.ctx)
	r.setDone(id, err)

	if err != nil {
		r.logger.Error("task failed",
			zap.String("task_id", id),
			zap.String("task_name", name),
			zap.Error(err))
		return
	}

	r.logger.Info("task completed",
		zap.String("task_id", id),
		zap.String("task_name", name))
}

func (r *Runner) setRunning(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ts, ok := r.tasks[id]; ok {
		now := time.Now()
		ts.status = StatusRunning
		ts.startedAt = &now
	}
}

func (r *Runner) setDone(id string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ts, ok := r.tasks[id]
	if !ok {
		return
	}
	now := time.Now()
	ts.completedAt = &now
	ts.err = err
	if err != nil {
		ts.status = StatusFailed
	} else {
		ts.status = StatusCompleted
	}
}

// Snapshot returns the state of a single task, if known.
func (r *Runner) Snapshot(id string) (Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ts, ok := r.tasks[id]
	if !ok {
		return Snapshot{}, false
	}
	return ts.snapshot(), true
}

// Snapshots returns the state of all tasks dispatched so far.
func (r *Runner) Snapshots() []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Snapshot, 0, len(r.tasks))
	for _, ts := range r.tasks {
		out = append(out, ts.snapshot())
	}
	return out
}

func (ts *taskState) snapshot() Snapshot {
	var errMsg string
	if ts.err != nil {
		errMsg = ts.err.Error()
	}
	return Snapshot{
		ID:          ts.id,
		Name:        ts.name,
		Status:      ts.status,
		StartedAt:   ts.startedAt,
		CompletedAt: ts.completedAt,
		Error:       errMsg,
	}
}

// Shutdown stops accepting new work and waits for running tasks to finish,
// up to the deadline on ctx. After the deadline, remaining tasks are
// cancelled via the runner context.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.shutdown = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.cancel()
		return nil
	case <-ctx.Done():
		r.cancel()
		r.wg.Wait()
		return ctx.Err()
	}
}
