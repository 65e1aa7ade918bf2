package placement

import (
	"github.com/matzehuels/anchor/pkg/geometry"
)

// axis selects which coordinate of a rect or viewport is read.
type axis int

const (
	horizontal axis = iota
	vertical
)

func (a axis) cross() axis {
	if a == horizontal {
		return vertical
	}
	return horizontal
}

// span returns the near edge, far edge and size of r along a.
func (a axis) span(r geometry.Rect) (near, far, size float64) {
	if a == horizontal {
		return r.Left, r.Right, r.Width
	}
	return r.Top, r.Bottom, r.Height
}

func (a axis) extent(v geometry.ViewportSize) float64 {
	if a == horizontal {
		return v.Width
	}
	return v.Height
}

func (a axis) compose(primary, cross float64) geometry.Position {
	if a == horizontal {
		return geometry.Position{X: primary, Y: cross}
	}
	return geometry.Position{X: cross, Y: primary}
}

func (a axis) pick(p geometry.Position) float64 {
	if a == horizontal {
		return p.X
	}
	return p.Y
}

// edge describes a side as the axis it pushes along and the direction:
// +1 moves past the trigger's far edge, -1 before its near edge.
type edge struct {
	axis axis
	sign int
}

var edges = map[geometry.Side]edge{
	geometry.SideRight:  {axis: horizontal, sign: +1},
	geometry.SideLeft:   {axis: horizontal, sign: -1},
	geometry.SideBottom: {axis: vertical, sign: +1},
	geometry.SideTop:    {axis: vertical, sign: -1},
}

// edgeFor falls back to the right side for values outside the enum.
func edgeFor(s geometry.Side) edge {
	if e, ok := edges[s]; ok {
		return e
	}
	return edges[geometry.SideRight]
}

// Candidate returns the unclamped position for attaching floating to the
// given side of trigger, honoring o.Align, o.Offset, o.Margin and o.Tolerance.
//
// The primary coordinate sits o.Offset past the trigger edge. The cross
// coordinate follows the alignment and is moved to viewport extent minus size
// minus margin when its far edge would overflow. That can be below the margin
// for an element larger than the viewport; the final clamp in Around handles
// the near edge.
func Candidate(side geometry.Side, trigger, floating geometry.Rect, viewport geometry.ViewportSize, o Options) geometry.Position {
	e := edgeFor(side)

	tNear, tFar, _ := e.axis.span(trigger)
	_, _, fSize := e.axis.span(floating)

	var primary float64
	if e.sign > 0 {
		primary = tFar + o.Offset
	} else {
		primary = tNear - fSize - o.Offset
	}

	ca := e.axis.cross()
	cross := align(ca, trigger, floating, o.Align)
	_, _, fCross := ca.span(floating)
	vCross := ca.extent(viewport)
	if cross+fCross+o.Margin > vCross-o.Tolerance {
		cross = vCross - fCross - o.Margin
	}

	return e.axis.compose(primary, cross)
}

// align positions floating along a relative to trigger.
func align(a axis, trigger, floating geometry.Rect, al geometry.Alignment) float64 {
	tNear, tFar, tSize := a.span(trigger)
	_, _, fSize := a.span(floating)
	switch al {
	case geometry.AlignCenter:
		return tNear + tSize/2 - fSize/2
	case geometry.AlignEnd:
		return tFar - fSize
	default:
		return tNear
	}
}

// collides reports whether a candidate on side e leaves the viewport along
// the primary axis.
func collides(e edge, p geometry.Position, floating geometry.Rect, viewport geometry.ViewportSize, o Options) bool {
	primary := e.axis.pick(p)
	if e.sign < 0 {
		return primary < o.Margin
	}
	_, _, fSize := e.axis.span(floating)
	return primary+fSize+o.Margin > e.axis.extent(viewport)-o.Tolerance
}
