package debounce

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/anchor/pkg/observability"
)

// Action is the deferred work. The context carries the values of the context
// passed to Schedule but is never cancelled by the debouncer.
type Action func(ctx context.Context) error

// State is the lifecycle stage of a Task.
type State int32

const (
	StatePending State = iota
	StateRunning
	StateDone
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StateDone:
		return "done"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// =============================================================================
// Task
// =============================================================================

// Task is one scheduled action. Tasks move from Pending to either Running
// (then Done) or Cancelled, exactly once.
type Task struct {
	id    string
	ctx   context.Context
	state atomic.Int32
	done  chan struct{}
	err   error

	timer   *time.Timer
	stopCtx func() bool
}

// ID returns the task's unique identifier.
func (t *Task) ID() string { return t.id }

// State returns the current lifecycle stage.
func (t *Task) State() State { return State(t.state.Load()) }

// Done is closed once the task is finished or cancelled.
func (t *Task) Done() <-chan struct{} { return t.done }

// Err returns the action's error once the task is done. It is nil while the
// task is pending or running, and always nil for cancelled tasks.
func (t *Task) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Wait blocks until the task finishes or is cancelled and returns the
// action's error. It returns ctx.Err() if ctx ends first.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// abort moves a pending task to Cancelled. It reports false when the task
// already fired or was cancelled.
func (t *Task) abort() bool {
	if !t.state.CompareAndSwap(int32(StatePending), int32(StateCancelled)) {
		return false
	}
	if t.timer != nil {
		t.timer.Stop()
	}
	t.stopCtx()
	close(t.done)
	return true
}

// =============================================================================
// Debouncer
// =============================================================================

// Option configures a Debouncer.
type Option func(*Debouncer)

// WithLogger sets the logger. Defaults to log.Default().
func WithLogger(l *log.Logger) Option {
	return func(d *Debouncer) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithName labels the debouncer in logs and observability hooks.
func WithName(name string) Option {
	return func(d *Debouncer) { d.name = name }
}

// WithErrorHandler installs a callback for errors returned by fired actions.
// It runs on the timer goroutine after the task is marked done.
func WithErrorHandler(fn func(*Task, error)) Option {
	return func(d *Debouncer) { d.onError = fn }
}

// Debouncer schedules at most one pending action at a time.
// It is safe for concurrent use.
type Debouncer struct {
	delay   time.Duration
	name    string
	logger  *log.Logger
	onError func(*Task, error)

	mu      sync.Mutex
	pending *Task
}

// New creates a Debouncer that waits delay before running an action.
// A non-positive delay fires on the next timer tick.
func New(delay time.Duration, opts ...Option) *Debouncer {
	d := &Debouncer{
		delay:  delay,
		name:   "debounce",
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Delay returns the configured delay.
func (d *Debouncer) Delay() time.Duration { return d.delay }

// Schedule arranges for action to run after the delay and supersedes any
// pending task. It always succeeds. Cancelling ctx before the delay elapses
// suppresses the task; a ctx that is already done yields a cancelled task.
func (d *Debouncer) Schedule(ctx context.Context, action Action) *Task {
	if ctx == nil {
		ctx = context.Background()
	}
	t := &Task{
		id:   uuid.NewString(),
		ctx:  ctx,
		done: make(chan struct{}),
	}

	d.mu.Lock()
	superseded := d.pending != nil && d.pending.abort()
	dead := ctx.Err() != nil
	if dead {
		// Never arm a timer for a context that is already done.
		d.pending = nil
		t.stopCtx = func() bool { return false }
		t.state.Store(int32(StateCancelled))
		close(t.done)
	} else {
		d.pending = t
		t.stopCtx = context.AfterFunc(ctx, func() { d.cancelTask(t) })
		t.timer = time.AfterFunc(d.delay, func() { d.fire(t, action) })
	}
	d.mu.Unlock()

	hooks := observability.Debounce()
	if superseded {
		hooks.OnSupersede(ctx, d.name)
		d.logger.Debug("debounce superseded", "name", d.name)
	}
	if dead {
		hooks.OnCancel(ctx, d.name)
		d.logger.Debug("debounce context done", "name", d.name, "task", t.id)
		return t
	}
	hooks.OnSchedule(ctx, d.name, d.delay)
	d.logger.Debug("debounce scheduled", "name", d.name, "task", t.id, "delay", d.delay)
	return t
}

// Cancel suppresses the pending task, if any. An action that already started
// keeps running.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	t := d.pending
	d.pending = nil
	d.mu.Unlock()

	if t != nil && t.abort() {
		observability.Debounce().OnCancel(t.ctx, d.name)
		d.logger.Debug("debounce cancelled", "name", d.name, "task", t.id)
	}
}

// Pending reports whether an action is waiting to fire.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil && d.pending.State() == StatePending
}

func (d *Debouncer) cancelTask(t *Task) {
	d.mu.Lock()
	if d.pending == t {
		d.pending = nil
	}
	d.mu.Unlock()

	if t.abort() {
		observability.Debounce().OnCancel(t.ctx, d.name)
		d.logger.Debug("debounce context done", "name", d.name, "task", t.id)
	}
}

func (d *Debouncer) fire(t *Task, action Action) {
	// The AfterFunc callback may not have run yet.
	if t.ctx.Err() != nil {
		d.cancelTask(t)
		return
	}
	if !t.state.CompareAndSwap(int32(StatePending), int32(StateRunning)) {
		return
	}
	t.stopCtx()

	d.mu.Lock()
	if d.pending == t {
		d.pending = nil
	}
	d.mu.Unlock()

	err := action(context.WithoutCancel(t.ctx))

	t.err = err
	t.state.Store(int32(StateDone))
	close(t.done)

	observability.Debounce().OnFire(t.ctx, d.name, err)
	if err != nil {
		d.logger.Warn("debounced action failed", "name", d.name, "task", t.id, "error", err)
		if d.onError != nil {
			d.onError(t, err)
		}
		return
	}
	d.logger.Debug("debounce fired", "name", d.name, "task", t.id)
}
