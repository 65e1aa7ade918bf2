// Package render draws placement results as standalone SVG documents.
//
// The output shows the viewport, the margin guide, the anchor (a trigger rect
// or a cursor crosshair) and the placed floating element. When the preferred
// side was rejected its candidate is drawn dashed so the fallback is visible.
//
//	svg := render.RenderSVG(frame, render.WithMarginGuide(), render.WithRejected())
//	os.WriteFile("placement.svg", svg, 0o644)
//
// SVG output is deterministic for a given frame and option set.
package render
