package ringbuffer

import (
	"fmt"
	"log/slog"
	"sync/atomic"
)

// cacheLinePad is the assumed size in bytes of a hardware cache line. The
// write and read cursors are separated by this much padding so that the
// producer and consumer, spinning on their own cursor, never pull the
// other side's cache line into a Shared/Modified ping-pong (false
// sharing). It affects throughput only, never correctness.
const cacheLinePad = 64

const (
	// MinCapacity is the smallest capacity Allocate/NewRingBuffer accept.
	MinCapacity = 2

	// MaxCapacity is the largest power of two representable by the
	// 64-bit free-running index type: half the index modulus, so that
	// unsigned wraparound of writePosition/readPosition never aliases
	// two distinct logical offsets onto the same physical byte.
	MaxCapacity = 1 << 63
)

// RingBuffer is a lock-free single-producer single-consumer byte ring
// buffer. See the package doc for the thread-safety contract.
//
// The zero value is a valid, unallocated RingBuffer: Capacity() is 0 and
// every data-movement call is a no-op until Allocate succeeds.
type RingBuffer struct {
	buf          []byte
	capacity     uint64
	capacityMask uint64

	// writePosition is free-running and owned by the producer: the
	// producer loads it with relaxed ordering (it is the sole writer)
	// and stores it with release ordering so the consumer's subsequent
	// acquire-load happens-after every byte store the producer made for
	// the region it just published.
	writePosition atomic.Uint64
	_             [cacheLinePad - 8]byte

	// readPosition is free-running and owned by the consumer, with the
	// symmetric relaxed-self / release-publish / acquire-observe
	// discipline.
	readPosition atomic.Uint64
	_            [cacheLinePad - 8]byte

	logger *slog.Logger

	_ noCopy
}

// NewRingBuffer allocates a RingBuffer with capacity rounded up to the
// smallest power of two that is at least minCapacity, distinguishing the
// two distinct failure kinds with separate sentinel errors:
// ErrInvalidCapacity (minCapacity outside [MinCapacity, MaxCapacity]) and
// ErrAllocationFailed (the runtime allocator refused the request). No
// partially-constructed buffer is returned on error.
func NewRingBuffer(minCapacity uint64, opts ...Option) (*RingBuffer, error) {
	cfg := newOptions(opts)
	rb := &RingBuffer{logger: cfg.logger}

	if minCapacity < MinCapacity || minCapacity > MaxCapacity {
		if rb.logger != nil {
			rb.logger.Warn("ringbuffer: rejecting invalid capacity", "requested", minCapacity)
		}
		return nil, fmt.Errorf("%w: %d not in [%d, %d]", ErrInvalidCapacity, minCapacity, MinCapacity, uint64(MaxCapacity))
	}
	if !rb.Allocate(minCapacity) {
		if rb.logger != nil {
			rb.logger.Warn("ringbuffer: allocation failed", "requested", minCapacity)
		}
		return nil, fmt.Errorf("%w: %d bytes", ErrAllocationFailed, minCapacity)
	}
	return rb, nil
}

// Allocate releases any existing allocation and allocates a new backing
// region of the smallest power of two >= minCapacity. It returns false,
// without panicking or logging, if minCapacity is outside
// [MinCapacity, MaxCapacity] or if the allocation could not be satisfied.
// An out-of-range request is rejected before anything else happens, so an
// existing allocation is kept; a failed allocation leaves the buffer
// unallocated. Calling Allocate with a valid capacity on an
// already-allocated buffer first deallocates it.
//
// Not safe to call concurrently with any other operation on this buffer.
func (rb *RingBuffer) Allocate(minCapacity uint64) (ok bool) {
	if minCapacity < MinCapacity || minCapacity > MaxCapacity {
		return false
	}
	rb.Deallocate()

	capacity := bitCeil(minCapacity)
	defer func() {
		if recover() != nil {
			rb.buf = nil
			rb.capacity = 0
			rb.capacityMask = 0
			ok = false
		}
	}()
	rb.buf = make([]byte, capacity)
	rb.capacity = capacity
	rb.capacityMask = capacity - 1
	rb.writePosition.Store(0)
	rb.readPosition.Store(0)
	return true
}

// Deallocate releases the backing region, if any, and resets the buffer
// to the unallocated state. Idempotent.
//
// Not safe to call concurrently with any other operation on this buffer.
func (rb *RingBuffer) Deallocate() {
	rb.buf = nil
	rb.capacity = 0
	rb.capacityMask = 0
	rb.writePosition.Store(0)
	rb.readPosition.Store(0)
}

// MoveFrom transfers ownership of src's backing region to rb, leaving src
// unallocated. rb's previous allocation, if any, is released first.
//
// Not safe to call concurrently with any other operation on either rb or
// src from either the producer or consumer side.
func (rb *RingBuffer) MoveFrom(src *RingBuffer) {
	rb.Deallocate()
	rb.buf = src.buf
	rb.capacity = src.capacity
	rb.capacityMask = src.capacityMask
	rb.writePosition.Store(src.writePosition.Load())
	rb.readPosition.Store(src.readPosition.Load())
	src.Deallocate()
}

// IsValid reports whether the buffer currently owns a backing region.
// Safe to call from either side.
func (rb *RingBuffer) IsValid() bool {
	return rb.buf != nil
}

// Capacity returns the allocated byte capacity, or 0 if unallocated. This
// is always the full power-of-two allocation, not capacity-1: the
// free-running index protocol makes "one slot wasted to distinguish full
// from empty" unnecessary. Safe to call from either side.
func (rb *RingBuffer) Capacity() uint64 {
	return rb.capacity
}

// FreeSpace returns the number of bytes that can currently be written.
// Accurate only when called from the producer side: a concurrent
// consumer read can only ever make this value larger, never smaller, so
// a cross-side read is safe but conservative.
func (rb *RingBuffer) FreeSpace() uint64 {
	w := rb.writePosition.Load()
	r := rb.readPosition.Load()
	return rb.capacity - (w - r)
}

// AvailableBytes returns the number of bytes currently available to read.
// Accurate only when called from the consumer side, symmetric to
// FreeSpace.
func (rb *RingBuffer) AvailableBytes() uint64 {
	w := rb.writePosition.Load()
	r := rb.readPosition.Load()
	return w - r
}

// IsEmpty reports whether the buffer has no unread bytes. Accurate only
// from the consumer side.
func (rb *RingBuffer) IsEmpty() bool {
	return rb.AvailableBytes() == 0
}

// IsFull reports whether the buffer has no room left. Accurate only from
// the producer side.
func (rb *RingBuffer) IsFull() bool {
	return rb.FreeSpace() == 0
}

// Write copies up to len(src)/itemSize whole items from src into the
// buffer. If allowPartial is false, it writes either itemCount items or
// none; if true, it writes as many whole items as currently fit.
//
// A nil/empty src, non-positive itemSize, or an unallocated buffer is a
// no-op returning (0, nil), not an error. Returning 0 because the buffer
// is full, or because a non-partial write didn't fully fit, returns
// ErrInsufficientSpace; treat it as a poll signal to retry, not a fatal
// error.
//
// Producer-only.
func (rb *RingBuffer) Write(src []byte, itemSize int, allowPartial bool) (itemsWritten int, err error) {
	if rb.buf == nil || itemSize <= 0 || len(src) == 0 {
		return 0, nil
	}
	itemCount := len(src) / itemSize
	if itemCount == 0 {
		return 0, nil
	}

	w := rb.writePosition.Load()
	r := rb.readPosition.Load()
	bytesFree := rb.capacity - (w - r)
	itemsFree := bytesFree / uint64(itemSize)

	if itemsFree == 0 {
		return 0, ErrInsufficientSpace
	}
	if itemsFree < uint64(itemCount) && !allowPartial {
		return 0, ErrInsufficientSpace
	}

	itemsToWrite := itemsFree
	if itemsToWrite > uint64(itemCount) {
		itemsToWrite = uint64(itemCount)
	}
	bytesToWrite := itemsToWrite * uint64(itemSize)

	writeIndex := w & rb.capacityMask
	bytesToEnd := rb.capacity - writeIndex
	if bytesToWrite <= bytesToEnd {
		copy(rb.buf[writeIndex:writeIndex+bytesToWrite], src[:bytesToWrite])
	} else {
		copy(rb.buf[writeIndex:], src[:bytesToEnd])
		copy(rb.buf[:bytesToWrite-bytesToEnd], src[bytesToEnd:bytesToWrite])
	}

	rb.writePosition.Store(w + bytesToWrite)
	return int(itemsToWrite), nil
}

// Read copies up to len(dst)/itemSize whole items out of the buffer into
// dst, advancing the read cursor by the bytes actually consumed. Same
// no-op and allowPartial rules as Write, symmetric on the consumer side;
// a 0 result because nothing is available, or because a non-partial read
// couldn't be fully satisfied, returns ErrInsufficientData.
//
// Consumer-only.
func (rb *RingBuffer) Read(dst []byte, itemSize int, allowPartial bool) (itemsRead int, err error) {
	if rb.buf == nil || itemSize <= 0 || len(dst) == 0 {
		return 0, nil
	}
	itemCount := len(dst) / itemSize
	if itemCount == 0 {
		return 0, nil
	}

	w := rb.writePosition.Load()
	r := rb.readPosition.Load()
	bytesAvail := w - r
	itemsAvail := bytesAvail / uint64(itemSize)

	if itemsAvail == 0 {
		return 0, ErrInsufficientData
	}
	if itemsAvail < uint64(itemCount) && !allowPartial {
		return 0, ErrInsufficientData
	}

	itemsToRead := itemsAvail
	if itemsToRead > uint64(itemCount) {
		itemsToRead = uint64(itemCount)
	}
	bytesToRead := itemsToRead * uint64(itemSize)

	readIndex := r & rb.capacityMask
	bytesToEnd := rb.capacity - readIndex
	if bytesToRead <= bytesToEnd {
		copy(dst[:bytesToRead], rb.buf[readIndex:readIndex+bytesToRead])
	} else {
		copy(dst[:bytesToEnd], rb.buf[readIndex:])
		copy(dst[bytesToEnd:bytesToRead], rb.buf[:bytesToRead-bytesToEnd])
	}

	rb.readPosition.Store(r + bytesToRead)
	return int(itemsToRead), nil
}

// Peek behaves like Read but never advances the read cursor, and never
// returns a partial result: it copies exactly itemCount items into dst
// (len(dst) must be at least itemCount*itemSize) or copies nothing and
// returns false.
//
// Consumer-only.
func (rb *RingBuffer) Peek(dst []byte, itemSize int) (itemsPeeked int, ok bool) {
	if rb.buf == nil || itemSize <= 0 || len(dst) == 0 {
		return 0, false
	}
	itemCount := len(dst) / itemSize
	if itemCount == 0 {
		return 0, false
	}

	w := rb.writePosition.Load()
	r := rb.readPosition.Load()
	itemsAvail := (w - r) / uint64(itemSize)
	if itemsAvail < uint64(itemCount) {
		return 0, false
	}

	bytesToRead := uint64(itemCount) * uint64(itemSize)
	readIndex := r & rb.capacityMask
	bytesToEnd := rb.capacity - readIndex
	if bytesToRead <= bytesToEnd {
		copy(dst[:bytesToRead], rb.buf[readIndex:readIndex+bytesToRead])
	} else {
		copy(dst[:bytesToEnd], rb.buf[readIndex:])
		copy(dst[bytesToEnd:bytesToRead], rb.buf[:bytesToRead-bytesToEnd])
	}
	return itemCount, true
}

// bitCeil returns the smallest power of two >= max(n, 2).
func bitCeil(n uint64) uint64 {
	if n < 2 {
		n = 2
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	n++
	return n
}
