package placement

import (
	errs "github.com/matzehuels/anchor/pkg/errors"
	"github.com/matzehuels/anchor/pkg/geometry"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultMargin is the minimum distance kept from any viewport edge.
	DefaultMargin = 8.0

	// DefaultOffset is the gap between the trigger and the floating element.
	DefaultOffset = 4.0

	// DefaultCursorOffset is the distance from the pointer on each axis.
	DefaultCursorOffset = 10.0

	// DefaultTolerance absorbs subpixel rounding when testing for overflow.
	DefaultTolerance = 2.0
)

// =============================================================================
// Options
// =============================================================================

// Options configures both anchor modes. Fields that only apply to one mode
// are ignored by the other: Side, Align and Offset by AtCursor, CursorOffset
// by Around.
type Options struct {
	Side         geometry.Side      `json:"side"`
	Align        geometry.Alignment `json:"align"`
	Offset       float64            `json:"offset"`
	CursorOffset geometry.Point     `json:"cursor_offset"`
	Margin       float64            `json:"margin"`
	Tolerance    float64            `json:"tolerance"`
}

// DefaultOptions returns the options used for submenus: right side, start
// alignment, 4px gap, 8px margin, 2px tolerance, 10px cursor offset.
func DefaultOptions() Options {
	return Options{
		Side:         geometry.SideRight,
		Align:        geometry.AlignStart,
		Offset:       DefaultOffset,
		CursorOffset: geometry.Point{X: DefaultCursorOffset, Y: DefaultCursorOffset},
		Margin:       DefaultMargin,
		Tolerance:    DefaultTolerance,
	}
}

// WithSide returns a copy of o with the preferred side set.
func (o Options) WithSide(s geometry.Side) Options { o.Side = s; return o }

// WithAlign returns a copy of o with the alignment set.
func (o Options) WithAlign(a geometry.Alignment) Options { o.Align = a; return o }

// WithOffset returns a copy of o with the trigger gap set.
func (o Options) WithOffset(offset float64) Options { o.Offset = offset; return o }

// WithCursorOffset returns a copy of o with the pointer distance set.
func (o Options) WithCursorOffset(x, y float64) Options {
	o.CursorOffset = geometry.Point{X: x, Y: y}
	return o
}

// WithMargin returns a copy of o with the viewport margin set.
func (o Options) WithMargin(margin float64) Options { o.Margin = margin; return o }

// WithTolerance returns a copy of o with the overflow tolerance set.
func (o Options) WithTolerance(tolerance float64) Options { o.Tolerance = tolerance; return o }

// Validate checks the options for values the calculator cannot honor.
// Margin and tolerance must be non-negative; offsets may be negative (an
// overlapping submenu) but must be finite.
func (o Options) Validate() error {
	if o.Side.String() == "unknown" {
		return errs.New(errs.ErrCodeInvalidSide, "unknown side %d", int(o.Side))
	}
	if o.Align.String() == "unknown" {
		return errs.New(errs.ErrCodeInvalidAlignment, "unknown alignment %d", int(o.Align))
	}
	if err := errs.ValidateNonNegative("margin", o.Margin); err != nil {
		return errs.Wrap(errs.ErrCodeInvalidInput, err, "invalid options")
	}
	if err := errs.ValidateNonNegative("tolerance", o.Tolerance); err != nil {
		return errs.Wrap(errs.ErrCodeInvalidInput, err, "invalid options")
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"offset", o.Offset},
		{"cursor_offset.x", o.CursorOffset.X},
		{"cursor_offset.y", o.CursorOffset.Y},
	} {
		if err := errs.ValidateFinite(f.name, f.v); err != nil {
			return errs.Wrap(errs.ErrCodeInvalidInput, err, "invalid options")
		}
	}
	return nil
}
