package measure

import (
	"context"
	"sync"

	"github.com/matzehuels/anchor/pkg/geometry"
)

// Applied is the last state a Recorder saw for one element.
type Applied struct {
	Position  geometry.Position
	Transform string
	Visible   bool
}

// Recorder is an in-memory Applier that remembers what was applied.
type Recorder struct {
	mu    sync.Mutex
	state map[Handle]Applied
	calls int
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{state: make(map[Handle]Applied)}
}

// Apply records p for h and marks it visible.
func (r *Recorder) Apply(ctx context.Context, h Handle, p geometry.Position) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state[h] = Applied{Position: p, Transform: TransformCSS(p), Visible: true}
	r.calls++
	return nil
}

// Hide marks h hidden, keeping its last position.
func (r *Recorder) Hide(ctx context.Context, h Handle) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	a := r.state[h]
	a.Visible = false
	r.state[h] = a
	r.calls++
	return nil
}

// Get returns the recorded state for h.
func (r *Recorder) Get(h Handle) (Applied, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.state[h]
	return a, ok
}

// Calls returns the number of Apply and Hide calls so far.
func (r *Recorder) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}
