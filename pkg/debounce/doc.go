// Package debounce runs a deferred action after a fixed delay, superseding any
// schedule that has not fired yet.
//
// A [Debouncer] owns at most one pending [Task]. Scheduling a new action
// cancels the pending one inside the same critical section, so only the most
// recent action can ever run ("last write wins", not a queue):
//
//	d := debounce.New(300*time.Millisecond, debounce.WithName("submenu-close"))
//	d.Schedule(ctx, closeA)
//	d.Schedule(ctx, closeB) // closeA will never run
//
// # Cancellation
//
// [Debouncer.Cancel] and cancelling the context passed to Schedule both
// suppress a task that has not started. Neither interrupts an action that is
// already running: once the delay elapses the task moves to StateRunning and
// the action receives a context detached from the task's cancellation.
//
// Cancellation is not an error. A suppressed task reports StateCancelled and
// [Task.Wait] returns nil. Errors returned by an action are kept on the task
// and passed to the handler installed with [WithErrorHandler].
package debounce
