package render

import (
	"bytes"
	"fmt"
	"html"

	"github.com/matzehuels/anchor/pkg/geometry"
	"github.com/matzehuels/anchor/pkg/measure"
	"github.com/matzehuels/anchor/pkg/placement"
)

const frameCSS = `
    .viewport { fill: #fafafa; stroke: #333; stroke-width: 1; }
    .margin { fill: none; stroke: #bbb; stroke-width: 1; stroke-dasharray: 4 3; }
    .trigger { fill: #cde7f0; stroke: #2a7f9e; stroke-width: 1.5; }
    .floating { fill: #ffffff; stroke: #1f9d55; stroke-width: 2; }
    .rejected { fill: none; stroke: #d9534f; stroke-width: 1.5; stroke-dasharray: 6 4; }
    .cursor { stroke: #2a7f9e; stroke-width: 1.5; }
    .label { font: 12px sans-serif; fill: #333; }`

// Frame is one placement to draw.
type Frame struct {
	Viewport geometry.ViewportSize
	Floating geometry.Rect
	Options  placement.Options
	Result   placement.Result

	// Trigger is set for ModeAround results, Cursor for ModeCursor.
	Trigger *geometry.Rect
	Cursor  *geometry.Point

	// Title is drawn in the top-left corner when labels are enabled.
	Title string
}

type SVGOption func(*svgRenderer)

type svgRenderer struct {
	marginGuide bool
	rejected    bool
	labels      bool
	scale       float64
}

func WithMarginGuide() SVGOption { return func(r *svgRenderer) { r.marginGuide = true } }
func WithRejected() SVGOption    { return func(r *svgRenderer) { r.rejected = true } }
func WithLabels() SVGOption      { return func(r *svgRenderer) { r.labels = true } }

// WithScale multiplies the output width and height; the viewBox is unchanged.
func WithScale(s float64) SVGOption {
	return func(r *svgRenderer) {
		if s > 0 {
			r.scale = s
		}
	}
}

// RenderSVG draws f.
func RenderSVG(f Frame, opts ...SVGOption) []byte {
	r := svgRenderer{scale: 1}
	for _, opt := range opts {
		opt(&r)
	}

	vw, vh := f.Viewport.Width, f.Viewport.Height
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		vw, vh, vw*r.scale, vh*r.scale)
	fmt.Fprintf(&buf, "  <style>%s\n  </style>\n", frameCSS)

	writeRect(&buf, "viewport", f.Viewport.Rect(), "")
	if r.marginGuide {
		m := f.Options.Margin
		writeRect(&buf, "margin", geometry.NewRect(m, m, max(0, vw-2*m), max(0, vh-2*m)), "")
	}

	switch {
	case f.Trigger != nil:
		writeRect(&buf, "trigger", *f.Trigger, "trigger")
		if r.rejected && f.Result.Fallback {
			preferred := f.Result.Side.Opposite()
			cand := placement.Candidate(preferred, *f.Trigger, f.Floating, f.Viewport, f.Options)
			writeRect(&buf, "rejected", f.Floating.At(cand), "rejected "+preferred.String())
		}
	case f.Cursor != nil:
		writeCursor(&buf, *f.Cursor)
	}

	placed := f.Floating.At(f.Result.Position)
	writeRect(&buf, "floating", placed, describe(f.Result))

	if r.labels {
		writeLabel(&buf, 6, 16, f.Title)
		writeLabel(&buf, placed.Left+4, placed.Top+14, describe(f.Result))
		writeLabel(&buf, 6, vh-6, measure.TransformCSS(f.Result.Position))
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func writeRect(buf *bytes.Buffer, class string, r geometry.Rect, title string) {
	fmt.Fprintf(buf, `  <rect class="%s" x="%.1f" y="%.1f" width="%.1f" height="%.1f"`,
		class, r.Left, r.Top, r.Width, r.Height)
	if title == "" {
		buf.WriteString("/>\n")
		return
	}
	fmt.Fprintf(buf, "><title>%s</title></rect>\n", html.EscapeString(title))
}

func writeCursor(buf *bytes.Buffer, p geometry.Point) {
	const arm = 6.0
	fmt.Fprintf(buf, `  <line class="cursor" x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>`+"\n", p.X-arm, p.Y, p.X+arm, p.Y)
	fmt.Fprintf(buf, `  <line class="cursor" x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>`+"\n", p.X, p.Y-arm, p.X, p.Y+arm)
}

func writeLabel(buf *bytes.Buffer, x, y float64, text string) {
	if text == "" {
		return
	}
	fmt.Fprintf(buf, `  <text class="label" x="%.1f" y="%.1f">%s</text>`+"\n", x, y, html.EscapeString(text))
}

func describe(res placement.Result) string {
	if res.Mode == placement.ModeCursor {
		s := "cursor"
		if res.FlipX {
			s += " flip-x"
		}
		if res.FlipY {
			s += " flip-y"
		}
		return s
	}
	s := res.Side.String()
	if res.Fallback {
		s += " (fallback)"
	}
	return s
}
