package geometry

import (
	"strings"

	errs "github.com/matzehuels/anchor/pkg/errors"
)

// Side is the edge of the trigger the floating element attaches to.
// The zero value is SideRight, which is where submenus open by default.
type Side int

const (
	SideRight Side = iota
	SideLeft
	SideBottom
	SideTop
)

// Sides lists every side in cycling order.
var Sides = []Side{SideTop, SideRight, SideBottom, SideLeft}

var sideNames = map[Side]string{
	SideTop:    "top",
	SideRight:  "right",
	SideBottom: "bottom",
	SideLeft:   "left",
}

func (s Side) String() string {
	if name, ok := sideNames[s]; ok {
		return name
	}
	return "unknown"
}

// Opposite returns the side used as the collision fallback.
func (s Side) Opposite() Side {
	switch s {
	case SideLeft:
		return SideRight
	case SideBottom:
		return SideTop
	case SideTop:
		return SideBottom
	default:
		return SideLeft
	}
}

// ParseSide parses "top", "right", "bottom" or "left" (case-insensitive).
func ParseSide(s string) (Side, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for side, name := range sideNames {
		if name == key {
			return side, nil
		}
	}
	return 0, errs.New(errs.ErrCodeInvalidSide, "unknown side %q (want top, right, bottom or left)", s)
}

// MarshalText implements encoding.TextMarshaler.
func (s Side) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Side) UnmarshalText(text []byte) error {
	v, err := ParseSide(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Alignment positions the floating element along the axis perpendicular to
// its Side. For SideRight, Start aligns the top edges and End the bottom edges.
type Alignment int

const (
	AlignStart Alignment = iota
	AlignCenter
	AlignEnd
)

// Alignments lists every alignment in cycling order.
var Alignments = []Alignment{AlignStart, AlignCenter, AlignEnd}

func (a Alignment) String() string {
	switch a {
	case AlignStart:
		return "start"
	case AlignCenter:
		return "center"
	case AlignEnd:
		return "end"
	}
	return "unknown"
}

// ParseAlignment parses "start", "center" or "end" (case-insensitive).
func ParseAlignment(s string) (Alignment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "start":
		return AlignStart, nil
	case "center":
		return AlignCenter, nil
	case "end":
		return AlignEnd, nil
	}
	return 0, errs.New(errs.ErrCodeInvalidAlignment, "unknown alignment %q (want start, center or end)", s)
}

// MarshalText implements encoding.TextMarshaler.
func (a Alignment) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Alignment) UnmarshalText(text []byte) error {
	v, err := ParseAlignment(string(text))
	if err != nil {
		return err
	}
	*a = v
	return nil
}
