package ringbuffer

import (
	"bytes"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRingBuffer_CapacityRounding(t *testing.T) {
	tests := []struct {
		input    uint64
		expected uint64
	}{
		{2, 2},
		{3, 4},
		{7, 8},
		{100, 128},
		{1024, 1024},
		{1025, 2048},
	}

	for _, tt := range tests {
		rb, err := NewRingBuffer(tt.input)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, rb.Capacity())
		assert.True(t, rb.IsEmpty())
	}
}

func TestNewRingBuffer_InvalidCapacity(t *testing.T) {
	_, err := NewRingBuffer(0)
	assert.ErrorIs(t, err, ErrInvalidCapacity)

	_, err = NewRingBuffer(1)
	assert.ErrorIs(t, err, ErrInvalidCapacity)

	_, err = NewRingBuffer(MaxCapacity + 1)
	assert.ErrorIs(t, err, ErrInvalidCapacity)
}

func TestAllocate_RoundsAndReallocates(t *testing.T) {
	var rb RingBuffer
	assert.False(t, rb.IsValid())
	assert.Equal(t, uint64(0), rb.Capacity())
	assert.False(t, rb.Allocate(1))
	assert.True(t, rb.Allocate(100))
	assert.Equal(t, uint64(128), rb.Capacity())
	assert.True(t, rb.IsValid())

	// Re-allocating deallocates first and starts empty again.
	rb.Write([]byte("abc"), 1, true)
	assert.True(t, rb.Allocate(8))
	assert.Equal(t, uint64(8), rb.Capacity())
	assert.True(t, rb.IsEmpty())
}

func TestDeallocate_Idempotent(t *testing.T) {
	var rb RingBuffer
	rb.Deallocate()
	rb.Deallocate()
	assert.False(t, rb.IsValid())

	rb.Allocate(16)
	rb.Deallocate()
	assert.False(t, rb.IsValid())
	assert.Equal(t, uint64(0), rb.Capacity())
}

func TestEmptyBufferIsInert(t *testing.T) {
	var rb RingBuffer
	assert.Equal(t, uint64(0), rb.Capacity())
	assert.Equal(t, uint64(0), rb.AvailableBytes())
	assert.Equal(t, uint64(0), rb.FreeSpace())

	buf := make([]byte, 1024)
	n, err := rb.Read(buf, 1, true)
	assert.Equal(t, 0, n)
	assert.NoError(t, err)

	n, err = rb.Write(buf, 1, true)
	assert.Equal(t, 0, n)
	assert.NoError(t, err)
}

func TestBasicWriteRead(t *testing.T) {
	rb, err := NewRingBuffer(128)
	require.NoError(t, err)

	data := make([]byte, 16)
	for i := range data {
		data[i] = byte(i)
	}

	n, err := rb.Write(data, 1, false)
	require.NoError(t, err)
	assert.Equal(t, 16, n)
	assert.Equal(t, uint64(16), rb.AvailableBytes())

	out := make([]byte, 16)
	n, err = rb.Read(out, 1, false)
	require.NoError(t, err)
	assert.Equal(t, 16, n)
	assert.True(t, bytes.Equal(out, data))
	assert.Equal(t, uint64(0), rb.AvailableBytes())
}

func TestWrapAround(t *testing.T) {
	rb, err := NewRingBuffer(16)
	require.NoError(t, err)

	a := bytes.Repeat([]byte{0xA}, 10)
	n, err := rb.Write(a, 1, false)
	require.NoError(t, err)
	require.Equal(t, 10, n)

	out := make([]byte, 5)
	n, err = rb.Read(out, 1, false)
	require.NoError(t, err)
	require.Equal(t, 5, n)

	n, err = rb.Write(a, 1, false)
	require.NoError(t, err)
	require.Equal(t, 10, n)

	assert.Equal(t, uint64(15), rb.AvailableBytes())
	assert.Equal(t, uint64(15), rb.Drain())
	assert.True(t, rb.IsEmpty())
}

func TestWriteAllOrNothing(t *testing.T) {
	rb, err := NewRingBuffer(8)
	require.NoError(t, err)

	n, err := rb.Write(make([]byte, 10), 1, false)
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, ErrInsufficientSpace)

	n, err = rb.Write(make([]byte, 8), 1, false)
	require.NoError(t, err)
	assert.Equal(t, 8, n)

	n, err = rb.Write([]byte{1}, 1, false)
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, ErrInsufficientSpace)
}

func TestReadAllowPartial(t *testing.T) {
	rb, err := NewRingBuffer(16)
	require.NoError(t, err)

	n, err := rb.Read(make([]byte, 5), 1, true)
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = rb.Write([]byte("hi"), 1, false)
	require.NoError(t, err)

	out := make([]byte, 10)
	n, err = rb.Read(out, 1, true)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestReadNonPartialRejectsShort(t *testing.T) {
	rb, err := NewRingBuffer(16)
	require.NoError(t, err)

	_, err = rb.Write([]byte("hi"), 1, false)
	require.NoError(t, err)

	n, err := rb.Read(make([]byte, 10), 1, false)
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestPeekDoesNotAdvance(t *testing.T) {
	rb, err := NewRingBuffer(64)
	require.NoError(t, err)

	assert.True(t, WriteValue(rb, 7))
	v, ok := PeekValue[int](rb)
	assert.True(t, ok)
	assert.Equal(t, 7, v)
	assert.Equal(t, uint64(8), rb.AvailableBytes())

	v, ok = ReadValue[int](rb)
	assert.True(t, ok)
	assert.Equal(t, 7, v)
	assert.True(t, rb.IsEmpty())
}

func TestPeekThenReadMatch(t *testing.T) {
	rb, err := NewRingBuffer(32)
	require.NoError(t, err)

	_, err = rb.Write([]byte("abcdefgh"), 1, false)
	require.NoError(t, err)

	peeked := make([]byte, 5)
	n, ok := rb.Peek(peeked, 1)
	require.True(t, ok)
	require.Equal(t, 5, n)

	read := make([]byte, 5)
	rn, err := rb.Read(read, 1, false)
	require.NoError(t, err)
	assert.Equal(t, n, rn)
	assert.Equal(t, peeked, read)
}

func TestPeekRefusesPartial(t *testing.T) {
	rb, err := NewRingBuffer(16)
	require.NoError(t, err)

	_, err = rb.Write([]byte("ab"), 1, false)
	require.NoError(t, err)

	_, ok := rb.Peek(make([]byte, 5), 1)
	assert.False(t, ok)
}

func TestReset(t *testing.T) {
	rb, err := NewRingBuffer(16)
	require.NoError(t, err)

	_, err = rb.Write([]byte("test"), 1, false)
	require.NoError(t, err)
	rb.Read(make([]byte, 2), 1, false)

	rb.Deallocate()
	rb.Allocate(16)

	assert.Equal(t, uint64(0), rb.AvailableBytes())
	assert.Equal(t, rb.Capacity(), rb.FreeSpace())
}

func TestMoveFrom(t *testing.T) {
	src, err := NewRingBuffer(32)
	require.NoError(t, err)
	_, err = src.Write([]byte("move me"), 1, false)
	require.NoError(t, err)

	var dst RingBuffer
	dst.MoveFrom(src)

	assert.False(t, src.IsValid())
	assert.Equal(t, uint64(0), src.Capacity())

	assert.True(t, dst.IsValid())
	out := make([]byte, 7)
	n, err := dst.Read(out, 1, false)
	require.NoError(t, err)
	assert.Equal(t, "move me", string(out[:n]))
}

func TestConcurrentProducerConsumer(t *testing.T) {
	rb, err := NewRingBuffer(64 * 1024)
	require.NoError(t, err)

	const total = 1_000_000

	var wg sync.WaitGroup
	wg.Add(2)
	errs := make(chan error, 2)

	go func() {
		defer wg.Done()
		for i := 0; i < total; i++ {
			for !WriteValue(rb, uint64(i)) {
				// busy-wait for the consumer to free up space
			}
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < total; i++ {
			v, ok := ReadValue[uint64](rb)
			for !ok {
				v, ok = ReadValue[uint64](rb)
			}
			if v != uint64(i) {
				errs <- errFmt(i, v)
				return
			}
		}
	}()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case err := <-errs:
		t.Fatal(err)
	case <-time.After(30 * time.Second):
		t.Fatal("timed out waiting for SPSC sequence test")
	}

	assert.True(t, rb.IsEmpty())
}

func errFmt(want int, got uint64) error {
	return fmt.Errorf("sequence mismatch: want %d, got %d", want, got)
}
