// Package observability provides hooks for metrics, tracing, and logging.
//
// Libraries in this module never depend on a metrics backend directly. They
// emit events through the hook interfaces defined here, and the binary that
// wires everything together registers concrete implementations at startup.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetPlacementHooks(&myPlacementHooks{})
//	    observability.SetDebounceHooks(&myDebounceHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Placement().OnPlacementStart(ctx, "around")
//	// ... measure and place ...
//	observability.Placement().OnPlacementComplete(ctx, "around", fallback, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Placement Hooks
// =============================================================================

// PlacementHooks receives events from the positioning service.
type PlacementHooks interface {
	// OnPlacementStart is called before measuring, with the anchor mode.
	OnPlacementStart(ctx context.Context, mode string)

	// OnPlacementComplete is called once the position is known or the
	// placement failed. fallback reports whether the opposite side was used.
	OnPlacementComplete(ctx context.Context, mode string, fallback bool, duration time.Duration, err error)
}

// =============================================================================
// Debounce Hooks
// =============================================================================

// DebounceHooks receives events from debouncers. name identifies the
// debouncer instance (e.g. "typeahead", "submenu-close").
type DebounceHooks interface {
	// OnSchedule records a newly scheduled task.
	OnSchedule(ctx context.Context, name string, delay time.Duration)

	// OnSupersede records a pending task replaced by a newer schedule.
	OnSupersede(ctx context.Context, name string)

	// OnCancel records a pending task aborted by Cancel or its context.
	OnCancel(ctx context.Context, name string)

	// OnFire records a task whose delay elapsed and whose action ran.
	OnFire(ctx context.Context, name string, err error)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from the placement HTTP server.
type HTTPHooks interface {
	// OnRequest records an incoming request.
	OnRequest(ctx context.Context, method, path string)

	// OnResponse records the response written for a request.
	OnResponse(ctx context.Context, method, path string, statusCode int, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopPlacementHooks is a no-op implementation of PlacementHooks.
type NoopPlacementHooks struct{}

func (NoopPlacementHooks) OnPlacementStart(context.Context, string) {}
func (NoopPlacementHooks) OnPlacementComplete(context.Context, string, bool, time.Duration, error) {
}

// NoopDebounceHooks is a no-op implementation of DebounceHooks.
type NoopDebounceHooks struct{}

func (NoopDebounceHooks) OnSchedule(context.Context, string, time.Duration) {}
func (NoopDebounceHooks) OnSupersede(context.Context, string)               {}
func (NoopDebounceHooks) OnCancel(context.Context, string)                  {}
func (NoopDebounceHooks) OnFire(context.Context, string, error)             {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	placementHooks PlacementHooks = NoopPlacementHooks{}
	debounceHooks  DebounceHooks  = NoopDebounceHooks{}
	httpHooks      HTTPHooks      = NoopHTTPHooks{}
	hooksMu        sync.RWMutex
)

// SetPlacementHooks registers custom placement hooks.
// This should be called once at application startup before any placement.
func SetPlacementHooks(h PlacementHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		placementHooks = h
	}
}

// SetDebounceHooks registers custom debounce hooks.
func SetDebounceHooks(h DebounceHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		debounceHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
// This should be called once at application startup before serving.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Placement returns the registered placement hooks.
func Placement() PlacementHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return placementHooks
}

// Debounce returns the registered debounce hooks.
func Debounce() DebounceHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return debounceHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	placementHooks = NoopPlacementHooks{}
	debounceHooks = NoopDebounceHooks{}
	httpHooks = NoopHTTPHooks{}
}
