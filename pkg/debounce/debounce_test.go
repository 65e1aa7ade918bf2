package debounce

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDelay = 20 * time.Millisecond

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestScheduleLastWriteWins(t *testing.T) {
	d := New(testDelay)

	var mu sync.Mutex
	var ran []string
	record := func(name string) Action {
		return func(context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			ran = append(ran, name)
			return nil
		}
	}

	a := d.Schedule(context.Background(), record("A"))
	b := d.Schedule(context.Background(), record("B"))

	assert.Equal(t, StateCancelled, a.State(), "superseded task should be cancelled immediately")
	require.NoError(t, b.Wait(waitCtx(t)))
	require.NoError(t, a.Wait(waitCtx(t)))

	// Give a stray timer for A the chance to misbehave.
	time.Sleep(2 * testDelay)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"B"}, ran)
	assert.Equal(t, StateDone, b.State())
}

func TestCancelThenReschedule(t *testing.T) {
	d := New(testDelay)

	var aRuns, bRuns atomic.Int32
	a := d.Schedule(context.Background(), func(context.Context) error { aRuns.Add(1); return nil })
	d.Cancel()
	b := d.Schedule(context.Background(), func(context.Context) error { bRuns.Add(1); return nil })

	require.NoError(t, b.Wait(waitCtx(t)))
	time.Sleep(2 * testDelay)

	assert.Equal(t, int32(0), aRuns.Load())
	assert.Equal(t, int32(1), bRuns.Load())
	assert.Equal(t, StateCancelled, a.State())
	assert.Equal(t, StateDone, b.State())
}

func TestCancelWhenIdleIsNoop(t *testing.T) {
	d := New(testDelay)
	assert.False(t, d.Pending())
	d.Cancel()
	d.Cancel()
	assert.False(t, d.Pending())

	task := d.Schedule(context.Background(), func(context.Context) error { return nil })
	require.NoError(t, task.Wait(waitCtx(t)))
	assert.Equal(t, StateDone, task.State())
}

func TestPending(t *testing.T) {
	d := New(time.Hour)
	assert.False(t, d.Pending())

	task := d.Schedule(context.Background(), func(context.Context) error { return nil })
	assert.True(t, d.Pending())
	assert.Equal(t, StatePending, task.State())

	d.Cancel()
	assert.False(t, d.Pending())
	assert.Nil(t, task.Err())

	select {
	case <-task.Done():
	default:
		t.Fatal("Done() should be closed after Cancel")
	}
}

func TestContextCancelSuppressesTask(t *testing.T) {
	d := New(50 * time.Millisecond)

	var runs atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	task := d.Schedule(ctx, func(context.Context) error { runs.Add(1); return nil })

	cancel()

	require.NoError(t, task.Wait(waitCtx(t)), "cancellation is not an error")
	assert.Equal(t, StateCancelled, task.State())
	assert.False(t, d.Pending())

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(0), runs.Load())
}

func TestDoneContextNeverFires(t *testing.T) {
	d := New(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var runs atomic.Int32
	for i := 0; i < 500; i++ {
		task := d.Schedule(ctx, func(context.Context) error { runs.Add(1); return nil })
		require.NoError(t, task.Wait(waitCtx(t)))
		assert.Equal(t, StateCancelled, task.State())
		assert.NoError(t, task.Err())
	}

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(0), runs.Load())
	assert.False(t, d.Pending())
}

func TestRunningActionIsNotInterrupted(t *testing.T) {
	d := New(time.Millisecond)

	started := make(chan struct{})
	release := make(chan struct{})
	var ctxErr error

	parent, cancel := context.WithCancel(context.Background())
	defer cancel()

	task := d.Schedule(parent, func(ctx context.Context) error {
		close(started)
		<-release
		ctxErr = ctx.Err()
		return nil
	})

	<-started
	d.Cancel()
	cancel()
	assert.Equal(t, StateRunning, task.State())
	close(release)

	require.NoError(t, task.Wait(waitCtx(t)))
	assert.Equal(t, StateDone, task.State())
	assert.NoError(t, ctxErr, "action context must not be cancelled")
}

func TestActionContextKeepsValues(t *testing.T) {
	type key struct{}
	d := New(time.Millisecond)

	var got any
	ctx := context.WithValue(context.Background(), key{}, "menu-1")
	task := d.Schedule(ctx, func(ctx context.Context) error {
		got = ctx.Value(key{})
		return nil
	})

	require.NoError(t, task.Wait(waitCtx(t)))
	assert.Equal(t, "menu-1", got)
}

func TestActionErrorPropagates(t *testing.T) {
	boom := errors.New("close failed")

	var handled error
	var handledTask *Task
	handlerDone := make(chan struct{})
	d := New(time.Millisecond, WithName("close"), WithErrorHandler(func(task *Task, err error) {
		handledTask = task
		handled = err
		close(handlerDone)
	}))

	task := d.Schedule(context.Background(), func(context.Context) error { return boom })

	err := task.Wait(waitCtx(t))
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, task.Err(), boom)

	select {
	case <-handlerDone:
	case <-time.After(time.Second):
		t.Fatal("error handler was not called")
	}
	assert.ErrorIs(t, handled, boom)
	assert.Equal(t, task.ID(), handledTask.ID())
}

func TestWaitHonorsContext(t *testing.T) {
	d := New(time.Hour)
	task := d.Schedule(context.Background(), func(context.Context) error { return nil })
	defer d.Cancel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, task.Wait(ctx), context.DeadlineExceeded)
}

func TestTaskIDsAreUnique(t *testing.T) {
	d := New(time.Hour)
	defer d.Cancel()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := d.Schedule(context.Background(), func(context.Context) error { return nil }).ID()
		require.NotEmpty(t, id)
		require.False(t, seen[id], "duplicate task id %s", id)
		seen[id] = true
	}
}

func TestConcurrentScheduleRunsOnce(t *testing.T) {
	d := New(200 * time.Millisecond)

	var runs atomic.Int32
	var wg sync.WaitGroup
	tasks := make([]*Task, 50)
	for i := range tasks {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tasks[i] = d.Schedule(context.Background(), func(context.Context) error {
				runs.Add(1)
				return nil
			})
		}(i)
	}
	wg.Wait()

	done := 0
	for _, task := range tasks {
		require.NoError(t, task.Wait(waitCtx(t)))
		if task.State() == StateDone {
			done++
		}
	}
	assert.Equal(t, 1, done)
	assert.Equal(t, int32(1), runs.Load())
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StatePending, "pending"},
		{StateRunning, "running"},
		{StateDone, "done"},
		{StateCancelled, "cancelled"},
		{State(99), "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.state.String())
		})
	}
}
