package attribution

import "errors"

var (
	// ErrDataUnavailable means no usable per-match table exists for the
	// requested stat type.
	ErrDataUnavailable = errors.New("stat data unavailable")

	// ErrDimensionMismatch means the target and feature row counts differ.
	ErrDimensionMismatch = errors.New("dimension mismatch")
)
