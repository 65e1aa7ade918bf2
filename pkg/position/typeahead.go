package position

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/matzehuels/anchor/pkg/debounce"
)

// DefaultTypeaheadDelay is how long typed characters accumulate before the
// search buffer resets.
const DefaultTypeaheadDelay = 500 * time.Millisecond

// Typeahead finds menu items by the characters typed in quick succession.
// Each keystroke extends the buffer and restarts the reset timer.
type Typeahead struct {
	reset *debounce.Debouncer

	mu    sync.Mutex
	items []string
	buf   []rune
}

// NewTypeahead returns a typeahead over items. Extra debounce options are
// passed to the reset debouncer.
func NewTypeahead(items []string, delay time.Duration, opts ...debounce.Option) *Typeahead {
	opts = append([]debounce.Option{debounce.WithName("typeahead")}, opts...)
	return &Typeahead{
		reset: debounce.New(delay, opts...),
		items: append([]string(nil), items...),
	}
}

// SetItems replaces the searchable labels and clears the buffer.
func (t *Typeahead) SetItems(items []string) {
	t.reset.Cancel()
	t.mu.Lock()
	defer t.mu.Unlock()
	t.items = append([]string(nil), items...)
	t.buf = t.buf[:0]
}

// Type appends r to the buffer and returns the index of the first item whose
// label starts with the buffer, ignoring case. ok is false when nothing
// matches.
func (t *Typeahead) Type(ctx context.Context, r rune) (index int, ok bool) {
	t.mu.Lock()
	t.buf = append(t.buf, r)
	prefix := strings.ToLower(string(t.buf))
	index, ok = -1, false
	for i, item := range t.items {
		if strings.HasPrefix(strings.ToLower(item), prefix) {
			index, ok = i, true
			break
		}
	}
	t.mu.Unlock()

	t.reset.Schedule(ctx, func(context.Context) error {
		t.Reset()
		return nil
	})
	return index, ok
}

// Buffer returns the characters typed since the last reset.
func (t *Typeahead) Buffer() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}

// Reset clears the buffer.
func (t *Typeahead) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = t.buf[:0]
}

// Stop cancels a pending reset.
func (t *Typeahead) Stop() { t.reset.Cancel() }
