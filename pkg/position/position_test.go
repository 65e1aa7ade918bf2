package position

import (
	"context"
	"errors"
	"io"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/anchor/pkg/debounce"
	errs "github.com/matzehuels/anchor/pkg/errors"
	"github.com/matzehuels/anchor/pkg/geometry"
	"github.com/matzehuels/anchor/pkg/measure"
	"github.com/matzehuels/anchor/pkg/observability"
	"github.com/matzehuels/anchor/pkg/placement"
)

var (
	quiet         = log.New(io.Discard)
	quietDebounce = []debounce.Option{debounce.WithLogger(quiet)}
)

func menuProvider() *measure.Static {
	p := measure.NewStatic(geometry.ViewportSize{Width: 300, Height: 400})
	p.Set("trigger", geometry.NewRect(100, 50, 40, 20))
	p.Set("menu", geometry.NewRect(0, 0, 200, 30))
	return p
}

// framed counts frame waits before delegating to a Static provider.
type framed struct {
	*measure.Static
	frames atomic.Int32
	err    error
}

func (f *framed) AwaitFrame(context.Context) error {
	f.frames.Add(1)
	return f.err
}

type brokenProvider struct{}

func (brokenProvider) Measure(context.Context, measure.Handle) (geometry.Rect, error) {
	return geometry.Rect{}, errors.New("bridge disconnected")
}

func (brokenProvider) Viewport(context.Context) (geometry.ViewportSize, error) {
	return geometry.ViewportSize{}, errors.New("bridge disconnected")
}

type countingHooks struct {
	observability.NoopPlacementHooks
	started, completed atomic.Int32
	lastErr            error
}

func (h *countingHooks) OnPlacementStart(context.Context, string) { h.started.Add(1) }
func (h *countingHooks) OnPlacementComplete(_ context.Context, _ string, _ bool, _ time.Duration, err error) {
	h.completed.Add(1)
	h.lastErr = err
}

func TestServiceAround(t *testing.T) {
	svc := NewService(menuProvider(), quiet)

	res, err := svc.Around(context.Background(), "trigger", "menu", placement.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, geometry.Position{X: 8, Y: 50}, res.Position)
	assert.Equal(t, geometry.SideLeft, res.Side)
	assert.True(t, res.Fallback)
}

func TestServiceAtCursor(t *testing.T) {
	svc := NewService(menuProvider(), quiet)

	res, err := svc.AtCursor(context.Background(), "menu", geometry.Point{X: 295, Y: 395}, placement.DefaultOptions())
	require.NoError(t, err)
	assert.True(t, res.FlipX)
	assert.True(t, res.FlipY)
	assert.Less(t, res.Position.X, 295.0)
	assert.Less(t, res.Position.Y, 395.0)
}

func TestServiceAwaitsFrame(t *testing.T) {
	p := &framed{Static: menuProvider()}
	svc := NewService(p, quiet)

	_, err := svc.Around(context.Background(), "trigger", "menu", placement.DefaultOptions())
	require.NoError(t, err)
	_, err = svc.AtCursor(context.Background(), "menu", geometry.Point{X: 1, Y: 1}, placement.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, int32(2), p.frames.Load())

	p.err = errors.New("no frame")
	_, err = svc.Around(context.Background(), "trigger", "menu", placement.DefaultOptions())
	assert.True(t, errs.Is(err, errs.ErrCodeMeasurement))
}

func TestServiceErrors(t *testing.T) {
	ctx := context.Background()
	opts := placement.DefaultOptions()

	negative := menuProvider()
	negative.Set("menu", geometry.Rect{Width: -10, Height: 30})

	tests := []struct {
		name string
		run  func() error
		code errs.Code
	}{
		{
			name: "unknown element",
			run: func() error {
				_, err := NewService(menuProvider(), quiet).Around(ctx, "trigger", "missing", opts)
				return err
			},
			code: errs.ErrCodeElementNotFound,
		},
		{
			name: "invalid handle",
			run: func() error {
				_, err := NewService(menuProvider(), quiet).Around(ctx, "", "menu", opts)
				return err
			},
			code: errs.ErrCodeInvalidHandle,
		},
		{
			name: "negative floating width",
			run: func() error {
				_, err := NewService(negative, quiet).Around(ctx, "trigger", "menu", opts)
				return err
			},
			code: errs.ErrCodeInvalidGeometry,
		},
		{
			name: "negative viewport",
			run: func() error {
				p := menuProvider()
				p.SetViewport(geometry.ViewportSize{Width: -1, Height: 10})
				_, err := NewService(p, quiet).AtCursor(ctx, "menu", geometry.Point{}, opts)
				return err
			},
			code: errs.ErrCodeInvalidGeometry,
		},
		{
			name: "nan cursor",
			run: func() error {
				_, err := NewService(menuProvider(), quiet).AtCursor(ctx, "menu", geometry.Point{X: math.NaN()}, opts)
				return err
			},
			code: errs.ErrCodeInvalidGeometry,
		},
		{
			name: "invalid options",
			run: func() error {
				_, err := NewService(menuProvider(), quiet).Around(ctx, "trigger", "menu", opts.WithMargin(-1))
				return err
			},
			code: errs.ErrCodeInvalidInput,
		},
		{
			name: "provider failure",
			run: func() error {
				_, err := NewService(brokenProvider{}, quiet).Around(ctx, "trigger", "menu", opts)
				return err
			},
			code: errs.ErrCodeMeasurement,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			require.Error(t, err)
			assert.Equal(t, tt.code, errs.GetCode(err), "error: %v", err)
		})
	}
}

func TestServiceEmitsHooks(t *testing.T) {
	hooks := &countingHooks{}
	observability.SetPlacementHooks(hooks)
	defer observability.Reset()

	svc := NewService(menuProvider(), quiet)
	_, err := svc.Around(context.Background(), "trigger", "menu", placement.DefaultOptions())
	require.NoError(t, err)
	_, err = svc.Around(context.Background(), "trigger", "missing", placement.DefaultOptions())
	require.Error(t, err)

	assert.Equal(t, int32(2), hooks.started.Load())
	assert.Equal(t, int32(2), hooks.completed.Load())
	assert.Error(t, hooks.lastErr)
}

func newTestSurface(p *measure.Static, rec *measure.Recorder) *Surface {
	return NewSurface(NewService(p, quiet), rec, "menu", placement.DefaultOptions(),
		WithRepositionDelay(5*time.Millisecond),
		WithCloseDelay(20*time.Millisecond),
		WithSurfaceLogger(quiet),
	)
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestSurfaceOpenAndClose(t *testing.T) {
	ctx := context.Background()
	rec := measure.NewRecorder()
	s := newTestSurface(menuProvider(), rec)

	assert.False(t, s.IsOpen())
	res, err := s.OpenAround(ctx, "trigger")
	require.NoError(t, err)
	assert.True(t, s.IsOpen())
	assert.Equal(t, res, s.Last())

	applied, ok := rec.Get("menu")
	require.True(t, ok)
	assert.True(t, applied.Visible)
	assert.Equal(t, "translate(8px, 50px)", applied.Transform)

	require.NoError(t, s.Close(ctx))
	assert.False(t, s.IsOpen())
	applied, _ = rec.Get("menu")
	assert.False(t, applied.Visible)

	require.NoError(t, s.Close(ctx), "closing twice is a no-op")
}

func TestSurfaceScheduleCloseAndCancel(t *testing.T) {
	ctx := context.Background()
	s := newTestSurface(menuProvider(), measure.NewRecorder())

	_, err := s.OpenAtCursor(ctx, geometry.Point{X: 20, Y: 20})
	require.NoError(t, err)

	task := s.ScheduleClose(ctx)
	s.CancelClose()
	require.NoError(t, task.Wait(waitCtx(t)))
	assert.True(t, s.IsOpen(), "cancelled close must not hide the surface")

	task = s.ScheduleClose(ctx)
	require.NoError(t, task.Wait(waitCtx(t)))
	assert.False(t, s.IsOpen())
}

func TestSurfaceReopenCancelsPendingClose(t *testing.T) {
	ctx := context.Background()
	s := newTestSurface(menuProvider(), measure.NewRecorder())

	_, err := s.OpenAround(ctx, "trigger")
	require.NoError(t, err)
	task := s.ScheduleClose(ctx)

	_, err = s.OpenAround(ctx, "trigger")
	require.NoError(t, err)
	require.NoError(t, task.Wait(waitCtx(t)))
	time.Sleep(40 * time.Millisecond)
	assert.True(t, s.IsOpen())
}

func TestSurfaceRepositionFollowsViewport(t *testing.T) {
	ctx := context.Background()
	p := menuProvider()
	p.SetViewport(geometry.ViewportSize{Width: 800, Height: 600})
	rec := measure.NewRecorder()
	s := newTestSurface(p, rec)

	res, err := s.OpenAround(ctx, "trigger")
	require.NoError(t, err)
	assert.Equal(t, geometry.SideRight, res.Side)

	p.SetViewport(geometry.ViewportSize{Width: 300, Height: 400})
	s.Reposition(ctx)
	task := s.Reposition(ctx)
	require.NoError(t, task.Wait(waitCtx(t)))

	assert.Equal(t, geometry.SideLeft, s.Last().Side)
	applied, _ := rec.Get("menu")
	assert.Equal(t, geometry.Position{X: 8, Y: 50}, applied.Position)
}

// gatedProvider blocks the first Measure of one handle after arm is called.
type gatedProvider struct {
	*measure.Static
	handle  measure.Handle
	armed   atomic.Bool
	entered chan struct{}
	release chan struct{}
}

func (g *gatedProvider) arm() { g.armed.Store(true) }

func (g *gatedProvider) Measure(ctx context.Context, h measure.Handle) (geometry.Rect, error) {
	if h == g.handle && g.armed.CompareAndSwap(true, false) {
		close(g.entered)
		<-g.release
	}
	return g.Static.Measure(ctx, h)
}

// gatedApplier records like a Recorder and blocks once in Apply after arm.
type gatedApplier struct {
	*measure.Recorder
	armed   atomic.Bool
	entered chan struct{}
	release chan struct{}
}

func (g *gatedApplier) arm() { g.armed.Store(true) }

func (g *gatedApplier) Apply(ctx context.Context, h measure.Handle, p geometry.Position) error {
	err := g.Recorder.Apply(ctx, h, p)
	if g.armed.CompareAndSwap(true, false) {
		close(g.entered)
		<-g.release
	}
	return err
}

func TestSurfaceRepositionDoesNotOverwriteReopen(t *testing.T) {
	ctx := context.Background()
	static := menuProvider()
	static.Set("other", geometry.NewRect(10, 300, 40, 20))
	p := &gatedProvider{Static: static, handle: "trigger", entered: make(chan struct{}), release: make(chan struct{})}
	a := &gatedApplier{Recorder: measure.NewRecorder(), entered: make(chan struct{}), release: make(chan struct{})}
	s := NewSurface(NewService(p, quiet), a, "menu", placement.DefaultOptions(),
		WithRepositionDelay(time.Millisecond),
		WithSurfaceLogger(quiet),
	)

	first, err := s.OpenAround(ctx, "trigger")
	require.NoError(t, err)

	// A reposition for "trigger" is mid-measure when the surface reopens
	// around "other".
	p.arm()
	task := s.Reposition(ctx)
	<-p.entered

	a.arm()
	type opened struct {
		res placement.Result
		err error
	}
	done := make(chan opened, 1)
	go func() {
		res, err := s.OpenAround(ctx, "other")
		done <- opened{res, err}
	}()
	<-a.entered

	close(p.release)
	time.Sleep(20 * time.Millisecond)
	close(a.release)

	got := <-done
	require.NoError(t, got.err)
	require.NoError(t, task.Wait(waitCtx(t)))
	require.NotEqual(t, first.Position, got.res.Position)

	applied, _ := a.Get("menu")
	assert.Equal(t, got.res.Position, applied.Position)
	assert.Equal(t, got.res, s.Last())
}

func TestSurfaceRepositionWhenClosedIsNoop(t *testing.T) {
	ctx := context.Background()
	rec := measure.NewRecorder()
	s := newTestSurface(menuProvider(), rec)

	task := s.Reposition(ctx)
	require.NoError(t, task.Wait(waitCtx(t)))
	assert.Equal(t, 0, rec.Calls())
}

func TestSurfaceRepositionErrorReachesHandler(t *testing.T) {
	ctx := context.Background()
	p := menuProvider()
	errCh := make(chan error, 1)
	s := NewSurface(NewService(p, quiet), measure.NewRecorder(), "menu", placement.DefaultOptions(),
		WithRepositionDelay(time.Millisecond),
		WithSurfaceLogger(quiet),
		WithErrorHandler(func(err error) { errCh <- err }),
	)

	_, err := s.OpenAround(ctx, "trigger")
	require.NoError(t, err)
	p.Remove("trigger")

	task := s.Reposition(ctx)
	err = task.Wait(waitCtx(t))
	assert.True(t, errs.Is(err, errs.ErrCodeElementNotFound))

	select {
	case got := <-errCh:
		assert.True(t, errs.Is(got, errs.ErrCodeElementNotFound))
	case <-time.After(time.Second):
		t.Fatal("error handler not called")
	}
}

func TestTypeahead(t *testing.T) {
	ctx := context.Background()
	ta := NewTypeahead([]string{"Copy", "Cut", "Paste", "Paste Special"}, time.Hour, quietDebounce...)
	defer ta.Stop()

	tests := []struct {
		r     rune
		index int
		ok    bool
		buf   string
	}{
		{'c', 0, true, "c"},
		{'U', 1, true, "cU"},
		{'x', -1, false, "cUx"},
	}
	for _, tt := range tests {
		index, ok := ta.Type(ctx, tt.r)
		assert.Equal(t, tt.index, index, "after %q", tt.buf)
		assert.Equal(t, tt.ok, ok, "after %q", tt.buf)
		assert.Equal(t, tt.buf, ta.Buffer())
	}

	ta.Reset()
	index, ok := ta.Type(ctx, 'p')
	assert.True(t, ok)
	assert.Equal(t, 2, index)

	ta.SetItems([]string{"Zoom"})
	assert.Empty(t, ta.Buffer())
	index, ok = ta.Type(ctx, 'z')
	assert.True(t, ok)
	assert.Equal(t, 0, index)
}

func TestTypeaheadResetsAfterDelay(t *testing.T) {
	ctx := context.Background()
	ta := NewTypeahead([]string{"Alpha", "Beta"}, 10*time.Millisecond, quietDebounce...)

	ta.Type(ctx, 'a')
	ta.Type(ctx, 'l')
	assert.Equal(t, "al", ta.Buffer())

	assert.Eventually(t, func() bool { return ta.Buffer() == "" }, time.Second, 5*time.Millisecond)

	index, ok := ta.Type(ctx, 'b')
	assert.True(t, ok)
	assert.Equal(t, 1, index)
}
