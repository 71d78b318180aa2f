package pipeline

import "errors"

var (
	// ErrNilOperation indicates an operation with no Do function.
	ErrNilOperation = errors.New("pipeline: operation has no Do function")

	// ErrNilOpen indicates a stream operation with no Open function.
	ErrNilOpen = errors.New("pipeline: stream operation has no Open function")
)
