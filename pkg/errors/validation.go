package errors

import (
	"math"
	"strings"
	"unicode"
)

// maxHandleLength bounds element handles accepted from scene files and the API.
const maxHandleLength = 256

// ValidateHandle validates an element handle (the key a host uses to refer to
// a measured element).
//
// The validation rules are intentionally conservative:
//   - No empty handles
//   - No control characters or null bytes
//   - No surrounding whitespace
//   - Maximum length of 256 characters
func ValidateHandle(handle string) error {
	if handle == "" {
		return New(ErrCodeInvalidHandle, "element handle cannot be empty")
	}

	if len(handle) > maxHandleLength {
		return New(ErrCodeInvalidHandle, "element handle too long (max %d characters)", maxHandleLength)
	}

	for _, r := range handle {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidHandle, "element handle contains invalid control characters")
		}
	}

	if strings.TrimSpace(handle) != handle {
		return New(ErrCodeInvalidHandle, "element handle cannot start or end with whitespace: %q", handle)
	}

	return nil
}

// ValidateFinite rejects NaN and infinite values. The name identifies the
// offending field in the error message.
func ValidateFinite(name string, v float64) error {
	if math.IsNaN(v) {
		return New(ErrCodeInvalidGeometry, "%s is NaN", name)
	}
	if math.IsInf(v, 0) {
		return New(ErrCodeInvalidGeometry, "%s is infinite", name)
	}
	return nil
}

// ValidateNonNegative rejects negative, NaN and infinite values.
// Negative sizes indicate a measurement bug upstream and must fail fast
// rather than being clamped to zero.
func ValidateNonNegative(name string, v float64) error {
	if err := ValidateFinite(name, v); err != nil {
		return err
	}
	if v < 0 {
		return New(ErrCodeInvalidGeometry, "%s cannot be negative: %v", name, v)
	}
	return nil
}
