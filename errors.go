package qrlocate

import "errors"

var (
	// ErrInsufficientPatterns is returned when three mutually distinct,
	// size-consistent finder patterns cannot be assembled from the
	// candidates proposed for an image.
	ErrInsufficientPatterns = errors.New("insufficient finder patterns")

	// ErrNotFound is returned when a symbol cannot be located or sampled.
	ErrNotFound = errors.New("symbol not found")
)
