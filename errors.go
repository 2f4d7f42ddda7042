package ringbuffer

import "errors"

// Common ringbuffer errors used for error handling and comparison using errors.Is().
//
// None of these represent a fatal condition: per the buffer's no-blocking
// contract, a short or empty transfer is the caller's cue to poll again,
// not an exceptional failure. They are returned as sentinel errors rather
// than silently-swallowed zero counts so a caller can still distinguish
// "nothing to do" (itemSize/count of zero, unallocated buffer) from "the
// buffer pushed back" using errors.Is.
var (
	// ErrInsufficientSpace indicates the buffer doesn't have enough room
	// for the write, and the caller did not allow a partial write.
	ErrInsufficientSpace = errors.New("ringbuffer: insufficient space")

	// ErrInsufficientData indicates the buffer has nothing available to
	// read, or not enough for a non-partial read.
	ErrInsufficientData = errors.New("ringbuffer: insufficient data")

	// ErrInvalidCapacity indicates a requested capacity outside
	// [MinCapacity, MaxCapacity].
	ErrInvalidCapacity = errors.New("ringbuffer: capacity out of range")

	// ErrAllocationFailed indicates the backing allocation could not be
	// made. Only NewRingBuffer surfaces this as an error; Allocate reports
	// the same condition by returning false.
	ErrAllocationFailed = errors.New("ringbuffer: allocation failed")
)
