// Package scenery holds the small set of types shared by every layout pass:
// error kinds, the random source and tint colors.
package scenery

import "errors"

var (
	// ErrInvalidConfiguration is returned before any placement work starts
	// when a size, density or reference list cannot produce a layout.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrResourceLoad is returned when a model reference cannot be resolved
	// or decoded. It is reported per placement.
	ErrResourceLoad = errors.New("resource load failed")
)
