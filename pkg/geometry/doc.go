// Package geometry defines the plain data types the placement engine works on.
//
// All coordinates are viewport coordinates: the origin is the top-left corner
// of the visible area, x grows to the right and y grows downward. This matches
// what a host reports for a fixed-position element (e.g. getBoundingClientRect
// in a browser), so a computed [Position] can be applied directly as a
// translation.
//
// The types carry no behavior beyond derived edges and validation. A [Rect] is
// a snapshot taken once per placement request and never mutated.
//
// # Validation
//
// Negative or non-finite sizes are a caller contract violation. The pure
// placement functions do not check for them; boundaries that accept geometry
// from outside (services, scene files, the HTTP API) call [Rect.Validate] and
// [ViewportSize.Validate] and fail fast with an INVALID_GEOMETRY error.
package geometry
