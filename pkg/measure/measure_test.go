package measure

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/matzehuels/anchor/pkg/errors"
	"github.com/matzehuels/anchor/pkg/geometry"
)

const menuScene = `{
  "viewport": {"width": 300, "height": 400},
  "elements": {
    "trigger": {"x": 100, "y": 50, "width": 40, "height": 20},
    "menu": {"width": 200, "height": 30}
  },
  "cursor": {"x": 120, "y": 60}
}`

func TestStatic(t *testing.T) {
	ctx := context.Background()
	s := NewStatic(geometry.ViewportSize{Width: 800, Height: 600})
	s.Set("trigger", geometry.Rect{X: 10, Y: 20, Width: 30, Height: 40})

	r, err := s.Measure(ctx, "trigger")
	require.NoError(t, err)
	assert.Equal(t, geometry.NewRect(10, 20, 30, 40), r, "Set should fill in edges")

	_, err = s.Measure(ctx, "missing")
	assert.True(t, errs.Is(err, errs.ErrCodeElementNotFound))

	s.SetViewport(geometry.ViewportSize{Width: 1024, Height: 768})
	v, err := s.Viewport(ctx)
	require.NoError(t, err)
	assert.Equal(t, geometry.ViewportSize{Width: 1024, Height: 768}, v)

	s.Set("menu", geometry.NewRect(0, 0, 10, 10))
	r, err = s.Measure(ctx, "menu")
	require.NoError(t, err)
	assert.Equal(t, 10.0, r.Right)

	s.Remove("trigger")
	s.Remove("trigger")
	_, err = s.Measure(ctx, "trigger")
	assert.Error(t, err)
}

func TestStaticHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewStatic(geometry.ViewportSize{Width: 1, Height: 1})
	_, err := s.Viewport(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	_, err = s.Measure(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRecorder(t *testing.T) {
	ctx := context.Background()
	r := NewRecorder()

	_, ok := r.Get("menu")
	assert.False(t, ok)

	require.NoError(t, r.Apply(ctx, "menu", geometry.Position{X: 8, Y: 50}))
	got, ok := r.Get("menu")
	require.True(t, ok)
	assert.True(t, got.Visible)
	assert.Equal(t, geometry.Position{X: 8, Y: 50}, got.Position)
	assert.Equal(t, "translate(8px, 50px)", got.Transform)

	require.NoError(t, r.Hide(ctx, "menu"))
	got, _ = r.Get("menu")
	assert.False(t, got.Visible)
	assert.Equal(t, geometry.Position{X: 8, Y: 50}, got.Position)
	assert.Equal(t, 2, r.Calls())
}

func TestTransformCSS(t *testing.T) {
	tests := []struct {
		pos  geometry.Position
		want string
	}{
		{geometry.Position{X: 0, Y: 0}, "translate(0px, 0px)"},
		{geometry.Position{X: 12.5, Y: -3}, "translate(12.5px, -3px)"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, TransformCSS(tt.pos))
		})
	}
}

func TestLoadScene(t *testing.T) {
	s, err := LoadScene([]byte(menuScene), "")
	require.NoError(t, err)

	assert.Equal(t, geometry.ViewportSize{Width: 300, Height: 400}, s.Viewport)
	trigger, err := s.Rect("trigger")
	require.NoError(t, err)
	assert.Equal(t, 140.0, trigger.Right)
	assert.Equal(t, 70.0, trigger.Bottom)
	require.NotNil(t, s.Cursor)
	assert.Equal(t, geometry.Point{X: 120, Y: 60}, *s.Cursor)

	_, err = s.Rect("nope")
	assert.True(t, errs.Is(err, errs.ErrCodeElementNotFound))

	p := s.Provider()
	menu, err := p.Measure(context.Background(), "menu")
	require.NoError(t, err)
	assert.Equal(t, 200.0, menu.Width)
}

func TestLoadSceneEdgeRects(t *testing.T) {
	doc := `{
  "viewport": {"width": 300, "height": 400},
  "elements": {
    "trigger": {"top": 50, "right": 140, "bottom": 70, "left": 100},
    "menu": {"width": 200, "height": 30}
  }
}`
	s, err := LoadScene([]byte(doc), "")
	require.NoError(t, err)

	trigger, err := s.Rect("trigger")
	require.NoError(t, err)
	assert.Equal(t, geometry.NewRect(100, 50, 40, 20), trigger)
}

func TestLoadSceneRoot(t *testing.T) {
	capture := `{"session": "abc", "frames": [{"scene": {"viewport": {"width": 1, "height": 1}, "elements": {}}}, {"scene": ` + menuScene + `}]}`

	s, err := LoadScene([]byte(capture), "frames.1.scene")
	require.NoError(t, err)
	assert.Len(t, s.Elements, 2)

	_, err = LoadScene([]byte(capture), "frames.9.scene")
	assert.True(t, errs.Is(err, errs.ErrCodeInvalidScene))

	_, err = LoadScene([]byte(capture), "session")
	assert.True(t, errs.Is(err, errs.ErrCodeInvalidScene))
}

func TestLoadSceneRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		code errs.Code
	}{
		{"not json", `{"viewport":`, errs.ErrCodeInvalidScene},
		{"missing viewport", `{"elements": {}}`, errs.ErrCodeInvalidScene},
		{"negative viewport", `{"viewport": {"width": -1, "height": 10}, "elements": {}}`, errs.ErrCodeInvalidScene},
		{"negative width", `{"viewport": {"width": 10, "height": 10}, "elements": {"a": {"width": -5, "height": 1}}}`, errs.ErrCodeInvalidScene},
		{"string size", `{"viewport": {"width": 10, "height": 10}, "elements": {"a": {"width": "5", "height": 1}}}`, errs.ErrCodeInvalidScene},
		{"edge disagrees", `{"viewport": {"width": 10, "height": 10}, "elements": {"a": {"x": 0, "width": 5, "height": 1, "right": 9}}}`, errs.ErrCodeInvalidGeometry},
		{"bad handle", `{"viewport": {"width": 10, "height": 10}, "elements": {" a": {"width": 5, "height": 1}}}`, errs.ErrCodeInvalidHandle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScene([]byte(tt.doc), "")
			require.Error(t, err)
			assert.Equal(t, tt.code, errs.GetCode(err))
		})
	}
}

func TestLoadSceneFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.json")
	require.NoError(t, os.WriteFile(path, []byte(menuScene), 0o644))

	s, err := LoadSceneFile(path, "")
	require.NoError(t, err)
	assert.Len(t, s.Elements, 2)

	_, err = LoadSceneFile(filepath.Join(dir, "missing.json"), "")
	assert.True(t, errs.Is(err, errs.ErrCodeNotFound))
}
