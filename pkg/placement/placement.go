package placement

import (
	"math"

	"github.com/matzehuels/anchor/pkg/geometry"
)

// Mode identifies the anchor a result was computed for.
type Mode string

const (
	ModeAround Mode = "around"
	ModeCursor Mode = "cursor"
)

// Result is the outcome of a placement.
type Result struct {
	Mode     Mode              `json:"mode"`
	Position geometry.Position `json:"position"`

	// Side is the side actually used in ModeAround, after any fallback.
	Side geometry.Side `json:"side"`
	// Fallback is set when the preferred side collided and its opposite was used.
	Fallback bool `json:"fallback"`

	// FlipX and FlipY report which axes moved to the other side of the
	// pointer in ModeCursor.
	FlipX bool `json:"flip_x"`
	FlipY bool `json:"flip_y"`

	// Clamped is set when the final clamp moved the position.
	Clamped bool `json:"clamped"`
}

// Around positions floating next to trigger on o.Side, falling back once to
// the opposite side when the preferred one overflows, then clamps the result
// into the viewport.
func Around(trigger, floating geometry.Rect, viewport geometry.ViewportSize, o Options) Result {
	side := o.Side
	if _, ok := edges[side]; !ok {
		side = geometry.SideRight
	}

	pos := Candidate(side, trigger, floating, viewport, o)
	fallback := false
	if collides(edges[side], pos, floating, viewport, o) {
		side = side.Opposite()
		pos = Candidate(side, trigger, floating, viewport, o)
		fallback = true
	}

	final := Clamp(pos, floating, viewport, o.Margin)
	return Result{
		Mode:     ModeAround,
		Position: final,
		Side:     side,
		Fallback: fallback,
		Clamped:  final != pos,
	}
}

// AtCursor positions floating near the pointer, offset by o.CursorOffset.
// Each axis that would overflow flips to the other side of the pointer; both
// may flip at once. The result is then clamped like Around.
func AtCursor(cursor geometry.Point, floating geometry.Rect, viewport geometry.ViewportSize, o Options) Result {
	ox, oy := o.CursorOffset.X, o.CursorOffset.Y
	x := cursor.X + ox
	y := cursor.Y + oy

	res := Result{Mode: ModeCursor}
	if x+floating.Width+o.Margin > viewport.Width-o.Tolerance {
		x = math.Max(o.Margin, cursor.X-floating.Width-ox)
		res.FlipX = true
	}
	if y+floating.Height+o.Margin > viewport.Height-o.Tolerance {
		y = math.Max(o.Margin, cursor.Y-floating.Height-oy)
		res.FlipY = true
	}

	pos := geometry.Position{X: x, Y: y}
	res.Position = Clamp(pos, floating, viewport, o.Margin)
	res.Clamped = res.Position != pos
	return res
}

// Clamp keeps p inside the viewport minus margin on every edge. When
// floating does not fit, margin is returned for that axis.
func Clamp(p geometry.Position, floating geometry.Rect, viewport geometry.ViewportSize, margin float64) geometry.Position {
	return geometry.Position{
		X: clampAxis(p.X, margin, viewport.Width-floating.Width-margin),
		Y: clampAxis(p.Y, margin, viewport.Height-floating.Height-margin),
	}
}

func clampAxis(v, lo, hi float64) float64 {
	if hi < lo {
		return lo
	}
	return math.Min(math.Max(v, lo), hi)
}
