package geometry

import (
	"encoding/json"
	"math"

	errs "github.com/matzehuels/anchor/pkg/errors"
)

// Rect is an axis-aligned bounding box in viewport coordinates.
// The edge fields are redundant with X/Y/Width/Height and are kept because
// hosts report them that way (DOMRect).
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// NewRect returns a Rect at (x, y) with the given size and all edges filled in.
func NewRect(x, y, width, height float64) Rect {
	return Rect{
		X:      x,
		Y:      y,
		Width:  width,
		Height: height,
		Top:    y,
		Right:  x + width,
		Bottom: y + height,
		Left:   x,
	}
}

// Normalize recomputes the edges from X, Y, Width and Height.
// Use it on rects built in Go with only origin and size set.
func (r Rect) Normalize() Rect { return NewRect(r.X, r.Y, r.Width, r.Height) }

// UnmarshalJSON accepts origin and size, edges, or both. Missing origin and
// size are derived from the edges; edges that disagree with the resolved
// box are an INVALID_GEOMETRY error.
func (r *Rect) UnmarshalJSON(data []byte) error {
	var in struct {
		X      *float64 `json:"x"`
		Y      *float64 `json:"y"`
		Width  *float64 `json:"width"`
		Height *float64 `json:"height"`
		Top    *float64 `json:"top"`
		Right  *float64 `json:"right"`
		Bottom *float64 `json:"bottom"`
		Left   *float64 `json:"left"`
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	x, width := resolveAxis(in.X, in.Width, in.Left, in.Right)
	y, height := resolveAxis(in.Y, in.Height, in.Top, in.Bottom)
	out := NewRect(x, y, width, height)

	for _, e := range []struct {
		name string
		got  *float64
		want float64
	}{
		{"left", in.Left, out.Left}, {"right", in.Right, out.Right},
		{"top", in.Top, out.Top}, {"bottom", in.Bottom, out.Bottom},
	} {
		if e.got != nil && !sameEdge(*e.got, e.want) {
			return errs.New(errs.ErrCodeInvalidGeometry,
				"rect %s is %v but origin and size put it at %v", e.name, *e.got, e.want)
		}
	}
	*r = out
	return nil
}

// resolveAxis returns the origin and size along one axis from whichever of
// origin, size, near edge and far edge are present.
func resolveAxis(origin, size, near, far *float64) (float64, float64) {
	var o, n float64
	switch {
	case origin != nil:
		o = *origin
	case near != nil:
		o = *near
	case far != nil && size != nil:
		o = *far - *size
	}
	switch {
	case size != nil:
		n = *size
	case far != nil:
		n = *far - o
	}
	return o, n
}

func sameEdge(a, b float64) bool {
	return math.Abs(a-b) <= 1e-6*math.Max(1, math.Abs(b))
}

// At returns a rect of the same size with its top-left corner at p.
func (r Rect) At(p Position) Rect { return NewRect(p.X, p.Y, r.Width, r.Height) }

// Validate reports an INVALID_GEOMETRY error for negative sizes or
// non-finite coordinates. The name identifies the rect in the message.
func (r Rect) Validate(name string) error {
	for _, f := range []struct {
		field string
		v     float64
	}{
		{"x", r.X}, {"y", r.Y},
		{"top", r.Top}, {"right", r.Right}, {"bottom", r.Bottom}, {"left", r.Left},
	} {
		if err := errs.ValidateFinite(name+"."+f.field, f.v); err != nil {
			return err
		}
	}
	if err := errs.ValidateNonNegative(name+".width", r.Width); err != nil {
		return err
	}
	return errs.ValidateNonNegative(name+".height", r.Height)
}
