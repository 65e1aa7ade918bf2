package geometry

import (
	"fmt"

	errs "github.com/matzehuels/anchor/pkg/errors"
)

// ViewportSize is the current visible area.
type ViewportSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Rect returns the viewport as a rect anchored at the origin.
func (v ViewportSize) Rect() Rect { return NewRect(0, 0, v.Width, v.Height) }

// Validate reports an INVALID_GEOMETRY error for negative or non-finite sizes.
func (v ViewportSize) Validate() error {
	if err := errs.ValidateNonNegative("viewport.width", v.Width); err != nil {
		return err
	}
	return errs.ValidateNonNegative("viewport.height", v.Height)
}

// Position is the top-left coordinate assigned to a floating element.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Position) String() string { return fmt.Sprintf("(%.1f, %.1f)", p.X, p.Y) }

// Point is a pointer coordinate, used as the anchor for cursor placement.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Validate reports an INVALID_GEOMETRY error for non-finite coordinates.
// Points outside the viewport are allowed.
func (p Point) Validate() error {
	if err := errs.ValidateFinite("cursor.x", p.X); err != nil {
		return err
	}
	return errs.ValidateFinite("cursor.y", p.Y)
}
