package facematch

import "errors"

var (
	// ErrDimensionMismatch is returned when a vector's length differs from the configured dimension.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrInvalidVector is returned when a vector cannot be stored (wrong length or non-finite values).
	ErrInvalidVector = errors.New("invalid vector")

	// ErrInvalidLabel is returned for empty, oversized or non UTF-8 labels.
	ErrInvalidLabel = errors.New("invalid label")
)
