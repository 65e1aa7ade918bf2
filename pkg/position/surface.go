package position

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/anchor/pkg/debounce"
	errs "github.com/matzehuels/anchor/pkg/errors"
	"github.com/matzehuels/anchor/pkg/geometry"
	"github.com/matzehuels/anchor/pkg/measure"
	"github.com/matzehuels/anchor/pkg/placement"
)

const (
	// DefaultRepositionDelay coalesces resize and scroll bursts into one
	// placement per frame.
	DefaultRepositionDelay = 16 * time.Millisecond

	// DefaultCloseDelay is the grace period after the pointer leaves a
	// submenu before it closes.
	DefaultCloseDelay = 300 * time.Millisecond
)

// SurfaceOption configures a Surface.
type SurfaceOption func(*surfaceConfig)

type surfaceConfig struct {
	repositionDelay time.Duration
	closeDelay      time.Duration
	logger          *log.Logger
	onError         func(error)
}

// WithRepositionDelay sets the debounce delay for Reposition.
func WithRepositionDelay(d time.Duration) SurfaceOption {
	return func(c *surfaceConfig) { c.repositionDelay = d }
}

// WithCloseDelay sets the debounce delay for ScheduleClose.
func WithCloseDelay(d time.Duration) SurfaceOption {
	return func(c *surfaceConfig) { c.closeDelay = d }
}

// WithSurfaceLogger sets the logger for the surface and its debouncers.
func WithSurfaceLogger(l *log.Logger) SurfaceOption {
	return func(c *surfaceConfig) { c.logger = l }
}

// WithErrorHandler receives errors from debounced repositions and closes.
func WithErrorHandler(fn func(error)) SurfaceOption {
	return func(c *surfaceConfig) { c.onError = fn }
}

// anchor remembers what an open surface is attached to.
type anchor struct {
	mode    placement.Mode
	trigger measure.Handle
	cursor  geometry.Point
}

// Surface is one floating element that can be opened against a trigger or
// the pointer, kept in place while the viewport changes, and closed after a
// grace period. It is safe for concurrent use. Calls into the Applier are
// serialized under the surface lock.
type Surface struct {
	svc      *Service
	applier  measure.Applier
	floating measure.Handle
	opts     placement.Options
	logger   *log.Logger

	reposition *debounce.Debouncer
	closer     *debounce.Debouncer

	mu     sync.Mutex
	open   bool
	gen    uint64
	anchor anchor
	last   placement.Result
}

// NewSurface returns a closed surface for the floating element.
func NewSurface(svc *Service, applier measure.Applier, floating measure.Handle, opts placement.Options, sopts ...SurfaceOption) *Surface {
	cfg := surfaceConfig{
		repositionDelay: DefaultRepositionDelay,
		closeDelay:      DefaultCloseDelay,
		logger:          svc.logger,
	}
	for _, opt := range sopts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = log.Default()
	}

	newDebouncer := func(name string, delay time.Duration) *debounce.Debouncer {
		dopts := []debounce.Option{
			debounce.WithLogger(cfg.logger),
			debounce.WithName(string(floating) + "/" + name),
		}
		if onError := cfg.onError; onError != nil {
			dopts = append(dopts, debounce.WithErrorHandler(func(_ *debounce.Task, err error) { onError(err) }))
		}
		return debounce.New(delay, dopts...)
	}

	return &Surface{
		svc:        svc,
		applier:    applier,
		floating:   floating,
		opts:       opts,
		logger:     cfg.logger,
		reposition: newDebouncer("reposition", cfg.repositionDelay),
		closer:     newDebouncer("close", cfg.closeDelay),
	}
}

// OpenAround places the surface next to trigger and shows it. A pending
// close is cancelled.
func (s *Surface) OpenAround(ctx context.Context, trigger measure.Handle) (placement.Result, error) {
	return s.openWith(ctx, anchor{mode: placement.ModeAround, trigger: trigger})
}

// OpenAtCursor places the surface next to the pointer and shows it.
func (s *Surface) OpenAtCursor(ctx context.Context, p geometry.Point) (placement.Result, error) {
	return s.openWith(ctx, anchor{mode: placement.ModeCursor, cursor: p})
}

func (s *Surface) openWith(ctx context.Context, a anchor) (placement.Result, error) {
	s.closer.Cancel()

	res, err := s.place(ctx, a)
	if err != nil {
		return placement.Result{}, err
	}

	// Apply and the generation bump are one step so that a reposition
	// computed for the previous anchor cannot land after this one.
	s.mu.Lock()
	if err := s.applier.Apply(ctx, s.floating, res.Position); err != nil {
		s.mu.Unlock()
		return placement.Result{}, errs.Wrap(errs.ErrCodeInternal, err, "apply %s", s.floating)
	}
	s.open = true
	s.gen++
	s.anchor = a
	s.last = res
	s.mu.Unlock()

	s.logger.Debug("surface opened", "surface", s.floating, "mode", a.mode, "pos", res.Position)
	return res, nil
}

// Reposition recomputes the placement for the current anchor after the
// reposition delay. Bursts of calls collapse into one placement. It is a
// no-op if the surface is closed when the delay elapses.
func (s *Surface) Reposition(ctx context.Context) *debounce.Task {
	return s.reposition.Schedule(ctx, func(ctx context.Context) error {
		s.mu.Lock()
		open, gen, a := s.open, s.gen, s.anchor
		s.mu.Unlock()
		if !open {
			return nil
		}

		res, err := s.place(ctx, a)
		if err != nil {
			return err
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if !s.open || s.gen != gen {
			return nil
		}
		if err := s.applier.Apply(ctx, s.floating, res.Position); err != nil {
			return errs.Wrap(errs.ErrCodeInternal, err, "apply %s", s.floating)
		}
		s.last = res
		return nil
	})
}

// ScheduleClose closes the surface after the close delay unless the surface
// is reopened or CancelClose is called first.
func (s *Surface) ScheduleClose(ctx context.Context) *debounce.Task {
	return s.closer.Schedule(ctx, s.hide)
}

// CancelClose aborts a pending ScheduleClose.
func (s *Surface) CancelClose() { s.closer.Cancel() }

// Close hides the surface immediately and drops pending work.
func (s *Surface) Close(ctx context.Context) error {
	s.closer.Cancel()
	s.reposition.Cancel()
	return s.hide(ctx)
}

func (s *Surface) hide(ctx context.Context) error {
	s.mu.Lock()
	if !s.open {
		s.mu.Unlock()
		return nil
	}
	s.open = false
	s.gen++
	err := s.applier.Hide(ctx, s.floating)
	s.mu.Unlock()

	if err != nil {
		return errs.Wrap(errs.ErrCodeInternal, err, "hide %s", s.floating)
	}
	s.logger.Debug("surface closed", "surface", s.floating)
	return nil
}

// IsOpen reports whether the surface is shown.
func (s *Surface) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// Last returns the most recently applied placement.
func (s *Surface) Last() placement.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// SetOptions replaces the placement options used by later placements.
func (s *Surface) SetOptions(o placement.Options) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opts = o
}

func (s *Surface) place(ctx context.Context, a anchor) (placement.Result, error) {
	s.mu.Lock()
	o := s.opts
	s.mu.Unlock()

	if a.mode == placement.ModeCursor {
		return s.svc.AtCursor(ctx, s.floating, a.cursor, o)
	}
	return s.svc.Around(ctx, a.trigger, s.floating, o)
}
