package measure

import (
	"context"
	"sync"

	errs "github.com/matzehuels/anchor/pkg/errors"
	"github.com/matzehuels/anchor/pkg/geometry"
)

// Static is an in-memory Provider holding fixed rects and a viewport.
// It is safe for concurrent use.
type Static struct {
	mu       sync.RWMutex
	viewport geometry.ViewportSize
	rects    map[Handle]geometry.Rect
}

// NewStatic returns a provider with the given viewport and no elements.
func NewStatic(viewport geometry.ViewportSize) *Static {
	return &Static{
		viewport: viewport,
		rects:    make(map[Handle]geometry.Rect),
	}
}

// Set stores r for h, filling in its edges.
func (s *Static) Set(h Handle, r geometry.Rect) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rects[h] = r.Normalize()
}

// SetViewport replaces the viewport size.
func (s *Static) SetViewport(v geometry.ViewportSize) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.viewport = v
}

// Remove forgets h. Removing an unknown handle is a no-op.
func (s *Static) Remove(h Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rects, h)
}

// Measure returns the rect stored for h, or ELEMENT_NOT_FOUND.
func (s *Static) Measure(ctx context.Context, h Handle) (geometry.Rect, error) {
	if err := ctx.Err(); err != nil {
		return geometry.Rect{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rects[h]
	if !ok {
		return geometry.Rect{}, errs.New(errs.ErrCodeElementNotFound, "element %q not found", h)
	}
	return r, nil
}

// Viewport returns the stored viewport size.
func (s *Static) Viewport(ctx context.Context) (geometry.ViewportSize, error) {
	if err := ctx.Err(); err != nil {
		return geometry.ViewportSize{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.viewport, nil
}
