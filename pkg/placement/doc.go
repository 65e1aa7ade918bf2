// Package placement computes where a floating surface (menu, submenu, tooltip,
// context menu) goes so that it stays inside the viewport.
//
// There are two anchor modes sharing one [Options] struct:
//
//   - [Around] anchors to a trigger rect. The floating element is attached to
//     the preferred side, aligned along the perpendicular axis, flipped once to
//     the opposite side if it would overflow, and finally clamped.
//   - [AtCursor] anchors to a pointer coordinate. Each axis flips to the other
//     side of the cursor independently, so the element can move into any of
//     the four quadrants around the pointer.
//
// Both are pure functions of their inputs: no I/O, no retained state, safe for
// concurrent use. Geometry is expected to be already measured and well formed;
// negative sizes are a caller contract violation and are not checked here (see
// the position package for the validating boundary).
//
// # Clamping
//
// Every result is clamped so that margin ≤ x ≤ viewport.Width − width − margin
// (and likewise for y). When the floating element is larger than the viewport
// minus both margins the bounds invert; the lower bound wins and the element
// is pinned at margin, overflowing on the far side.
//
// # Double collisions
//
// In trigger mode only one fallback attempt is made, on the primary axis of
// the requested side. If the opposite side also collides it is used anyway and
// the clamp decides. The cross axis never flips; it is pulled back by the
// per-side overflow rule instead.
//
// # Example
//
//	opts := placement.DefaultOptions().WithSide(geometry.SideBottom).WithAlign(geometry.AlignCenter)
//	res := placement.Around(triggerRect, menuRect, viewport, opts)
//	apply(res.Position)
package placement
