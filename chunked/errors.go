package chunked

import "errors"

var (
	// ErrWriterClosed is returned when a chunk is written after Close.
	ErrWriterClosed = errors.New("chunked: writer already closed")
)
