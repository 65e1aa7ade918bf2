// Package position connects the pure placement calculator to a host: it
// measures elements through a [measure.Provider], validates the geometry,
// places, and hands the result to a [measure.Applier].
//
// [Service] is the stateless measure-then-place step. [Surface] tracks one
// open floating element (menu, submenu, context menu) and debounces its
// repositioning and closing. [Typeahead] is the keyboard search used by menus.
package position

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	errs "github.com/matzehuels/anchor/pkg/errors"
	"github.com/matzehuels/anchor/pkg/geometry"
	"github.com/matzehuels/anchor/pkg/measure"
	"github.com/matzehuels/anchor/pkg/observability"
	"github.com/matzehuels/anchor/pkg/placement"
)

// Service measures elements and computes their placement.
// It holds no mutable state and is safe for concurrent use.
type Service struct {
	provider measure.Provider
	logger   *log.Logger
}

// NewService returns a Service reading geometry from p. A nil logger uses
// log.Default().
func NewService(p measure.Provider, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{provider: p, logger: logger}
}

// Around measures trigger and floating and places floating next to trigger.
func (s *Service) Around(ctx context.Context, trigger, floating measure.Handle, o placement.Options) (res placement.Result, err error) {
	start := time.Now()
	hooks := observability.Placement()
	hooks.OnPlacementStart(ctx, string(placement.ModeAround))
	defer func() {
		hooks.OnPlacementComplete(ctx, string(placement.ModeAround), res.Fallback, time.Since(start), err)
	}()

	if err := o.Validate(); err != nil {
		return placement.Result{}, err
	}
	if err := s.awaitFrame(ctx); err != nil {
		return placement.Result{}, err
	}

	tr, err := s.measure(ctx, trigger)
	if err != nil {
		return placement.Result{}, err
	}
	fr, err := s.measure(ctx, floating)
	if err != nil {
		return placement.Result{}, err
	}
	vp, err := s.viewport(ctx)
	if err != nil {
		return placement.Result{}, err
	}

	if err := ValidateAround(tr, fr, vp); err != nil {
		return placement.Result{}, err
	}

	res = placement.Around(tr, fr, vp, o)
	s.logger.Debug("placed around trigger",
		"trigger", trigger, "floating", floating,
		"side", res.Side, "fallback", res.Fallback, "pos", res.Position)
	return res, nil
}

// AtCursor measures floating and places it next to the pointer.
func (s *Service) AtCursor(ctx context.Context, floating measure.Handle, cursor geometry.Point, o placement.Options) (res placement.Result, err error) {
	start := time.Now()
	hooks := observability.Placement()
	hooks.OnPlacementStart(ctx, string(placement.ModeCursor))
	defer func() {
		hooks.OnPlacementComplete(ctx, string(placement.ModeCursor), false, time.Since(start), err)
	}()

	if err := o.Validate(); err != nil {
		return placement.Result{}, err
	}
	if err := cursor.Validate(); err != nil {
		return placement.Result{}, err
	}
	if err := s.awaitFrame(ctx); err != nil {
		return placement.Result{}, err
	}

	fr, err := s.measure(ctx, floating)
	if err != nil {
		return placement.Result{}, err
	}
	vp, err := s.viewport(ctx)
	if err != nil {
		return placement.Result{}, err
	}
	if err := ValidateCursor(cursor, fr, vp); err != nil {
		return placement.Result{}, err
	}

	res = placement.AtCursor(cursor, fr, vp, o)
	s.logger.Debug("placed at cursor",
		"floating", floating, "cursor", geometry.Position(cursor),
		"flip_x", res.FlipX, "flip_y", res.FlipY, "pos", res.Position)
	return res, nil
}

// ValidateAround checks measured geometry for trigger placement.
func ValidateAround(trigger, floating geometry.Rect, viewport geometry.ViewportSize) error {
	if err := trigger.Validate("trigger"); err != nil {
		return err
	}
	return ValidateCursor(geometry.Point{}, floating, viewport)
}

// ValidateCursor checks measured geometry for cursor placement.
func ValidateCursor(cursor geometry.Point, floating geometry.Rect, viewport geometry.ViewportSize) error {
	if err := cursor.Validate(); err != nil {
		return err
	}
	if err := floating.Validate("floating"); err != nil {
		return err
	}
	return viewport.Validate()
}

func (s *Service) awaitFrame(ctx context.Context) error {
	fa, ok := s.provider.(measure.FrameAwaiter)
	if !ok {
		return nil
	}
	if err := fa.AwaitFrame(ctx); err != nil {
		return wrapMeasure(err, "await frame")
	}
	return nil
}

func (s *Service) measure(ctx context.Context, h measure.Handle) (geometry.Rect, error) {
	if err := errs.ValidateHandle(string(h)); err != nil {
		return geometry.Rect{}, err
	}
	r, err := s.provider.Measure(ctx, h)
	if err != nil {
		return geometry.Rect{}, wrapMeasure(err, "measure %s", h)
	}
	return r, nil
}

func (s *Service) viewport(ctx context.Context) (geometry.ViewportSize, error) {
	v, err := s.provider.Viewport(ctx)
	if err != nil {
		return geometry.ViewportSize{}, wrapMeasure(err, "measure viewport")
	}
	return v, nil
}

// wrapMeasure keeps coded provider errors and tags everything else as a
// measurement failure.
func wrapMeasure(err error, format string, args ...any) error {
	if errs.GetCode(err) != "" {
		return err
	}
	return errs.Wrap(errs.ErrCodeMeasurement, err, format, args...)
}
