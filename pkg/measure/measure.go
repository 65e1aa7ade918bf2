// Package measure defines the host capabilities the positioning layer depends
// on: reading post-layout geometry and applying a computed position.
//
// Real hosts (a browser bridge, a terminal UI) implement [Provider] and
// [Applier]. This package also ships in-memory implementations, [Static] and
// [Recorder], which back the CLI, the HTTP server and the tests, and a loader
// for JSON scene files captured from a host.
package measure

import (
	"context"
	"fmt"

	"github.com/matzehuels/anchor/pkg/geometry"
)

// Handle identifies a measurable element on the host.
type Handle string

// Provider reads geometry from the host. Implementations must report
// post-layout values; the caller never triggers layout itself.
type Provider interface {
	Measure(ctx context.Context, h Handle) (geometry.Rect, error)
	Viewport(ctx context.Context) (geometry.ViewportSize, error)
}

// FrameAwaiter is implemented by providers that need a layout pass to be
// committed before geometry is stable. The positioning service waits on it
// before every measurement when the provider supports it.
type FrameAwaiter interface {
	AwaitFrame(ctx context.Context) error
}

// Applier moves and shows or hides a floating element on the host.
type Applier interface {
	Apply(ctx context.Context, h Handle, p geometry.Position) error
	Hide(ctx context.Context, h Handle) error
}

// TransformCSS renders p as the CSS transform a browser host applies.
func TransformCSS(p geometry.Position) string {
	return fmt.Sprintf("translate(%gpx, %gpx)", p.X, p.Y)
}
