package ringbuffer

import (
	"reflect"
	"unsafe"
)

// The typed layer is sugar over Write/Read/Peek/WriteVector/ReadVector: it
// introduces no new synchronization. It trusts the caller to only
// instantiate it with trivially-copyable types — fixed-size values with
// no pointers, slices, maps, channels, funcs or interfaces inside them.
// Go has no compile-time "trivially copyable" constraint, so the
// outermost type parameter's kind is checked at the call site with
// reflect and rejected with a panic, the one case Go can check cheaply
// without a language-level mechanism for it.

func rejectsUncopyableKind(k reflect.Kind) bool {
	switch k {
	case reflect.Ptr, reflect.Slice, reflect.Map, reflect.Chan,
		reflect.Func, reflect.Interface, reflect.UnsafePointer, reflect.String:
		return true
	default:
		return false
	}
}

func checkValueType[T any]() {
	var zero T
	if rejectsUncopyableKind(reflect.TypeOf(&zero).Elem().Kind()) {
		panic("ringbuffer: type parameter must be a fixed-size value type, not a pointer/slice/map/chan/func/interface/string")
	}
}

func bytesOf[T any](v *T) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), unsafe.Sizeof(*v))
}

// WriteValue writes a single value of type T, equivalent to
// Write(&v, sizeof(v), 1, allowPartial=false). Returns false if the
// buffer had no room for it. Producer-only.
func WriteValue[T any](rb *RingBuffer, v T) bool {
	checkValueType[T]()
	n, err := rb.Write(bytesOf(&v), int(unsafe.Sizeof(v)), false)
	return err == nil && n == 1
}

// ReadValue reads a single value of type T, equivalent to
// Read(&v, sizeof(v), 1, allowPartial=false). Returns the zero value and
// false if not enough data was available — the read cursor is left
// unchanged in that case. Consumer-only.
func ReadValue[T any](rb *RingBuffer) (T, bool) {
	checkValueType[T]()
	var v T
	n, err := rb.Read(bytesOf(&v), int(unsafe.Sizeof(v)), false)
	if err != nil || n != 1 {
		var zero T
		return zero, false
	}
	return v, true
}

// ReadValueInto constructs a T via construct, then reads a value from the
// buffer into it. construct runs before the buffer is touched at all, so
// if it panics, no cursor advances — the ring buffer's state is exactly
// as it was before the call. Useful when T's zero value isn't a valid
// starting point and construction itself can fail. Consumer-only.
func ReadValueInto[T any](rb *RingBuffer, construct func() T) (v T, ok bool) {
	checkValueType[T]()
	v = construct()
	n, err := rb.Read(bytesOf(&v), int(unsafe.Sizeof(v)), false)
	return v, err == nil && n == 1
}

// PeekValue reads a single value of type T without advancing the read
// cursor. Consumer-only.
func PeekValue[T any](rb *RingBuffer) (T, bool) {
	checkValueType[T]()
	var v T
	n, ok := rb.Peek(bytesOf(&v), int(unsafe.Sizeof(v)))
	if !ok || n != 1 {
		var zero T
		return zero, false
	}
	return v, true
}

// WriteSpan writes a contiguous slice of T in one call, equivalent to
// Write(items, sizeof(T), len(items), allowPartial). Producer-only.
func WriteSpan[T any](rb *RingBuffer, items []T, allowPartial bool) (int, error) {
	checkValueType[T]()
	if len(items) == 0 {
		return 0, nil
	}
	itemSize := int(unsafe.Sizeof(items[0]))
	b := unsafe.Slice((*byte)(unsafe.Pointer(&items[0])), itemSize*len(items))
	return rb.Write(b, itemSize, allowPartial)
}

// ReadSpan reads into a contiguous slice of T in one call, equivalent to
// Read(items, sizeof(T), len(items), allowPartial). Consumer-only.
func ReadSpan[T any](rb *RingBuffer, items []T, allowPartial bool) (int, error) {
	checkValueType[T]()
	if len(items) == 0 {
		return 0, nil
	}
	itemSize := int(unsafe.Sizeof(items[0]))
	b := unsafe.Slice((*byte)(unsafe.Pointer(&items[0])), itemSize*len(items))
	return rb.Read(b, itemSize, allowPartial)
}

// PeekSpan peeks into a contiguous slice of T without advancing the read
// cursor. Consumer-only.
func PeekSpan[T any](rb *RingBuffer, items []T) (int, bool) {
	checkValueType[T]()
	if len(items) == 0 {
		return 0, false
	}
	itemSize := int(unsafe.Sizeof(items[0]))
	b := unsafe.Slice((*byte)(unsafe.Pointer(&items[0])), itemSize*len(items))
	return rb.Peek(b, itemSize)
}

// SkipT discards n values of type T without copying, equivalent to
// Skip(sizeof(T), n, allowPartial=false). Consumer-only.
func SkipT[T any](rb *RingBuffer, n int) int {
	checkValueType[T]()
	var zero T
	return rb.Skip(int(unsafe.Sizeof(zero)), n, false)
}

// valueBytes returns a byte view over an addressable copy of v, taken via
// reflection so WriteValues/ReadValues can handle a heterogeneous
// argument list without each caller supplying a type parameter. Go
// generics can't express a variadic list of distinct type parameters, so
// this falls back to runtime dispatch over each argument's size and
// layout instead.
func valueBytes(v any) []byte {
	rv := reflect.ValueOf(v)
	if rejectsUncopyableKind(rv.Kind()) {
		panic("ringbuffer: WriteValues: unsupported argument type " + rv.Kind().String())
	}
	addr := reflect.New(rv.Type())
	addr.Elem().Set(rv)
	return unsafe.Slice((*byte)(addr.UnsafePointer()), rv.Type().Size())
}

// copyIntoVector copies each byte slice in chunks, in order, into the
// front-then-back vector, switching from front to back mid-chunk if a
// single chunk straddles the boundary. Used by WriteValues.
func copyIntoVector(front, back []byte, chunks [][]byte) {
	cursor := 0
	for _, chunk := range chunks {
		for len(chunk) > 0 {
			var n int
			if cursor < len(front) {
				n = copy(front[cursor:], chunk)
			} else {
				n = copy(back[cursor-len(front):], chunk)
			}
			chunk = chunk[n:]
			cursor += n
		}
	}
}

// copyFromVector is the symmetric consumer-side cursor, copying out of
// the front-then-back vector into each destination chunk in order. Used
// by ReadValues/PeekValues.
func copyFromVector(front, back []byte, chunks [][]byte) {
	cursor := 0
	for _, chunk := range chunks {
		for len(chunk) > 0 {
			var n int
			if cursor < len(front) {
				n = copy(chunk, front[cursor:])
			} else {
				n = copy(chunk, back[cursor-len(front):])
			}
			chunk = chunk[n:]
			cursor += n
		}
	}
}

// WriteValues writes all of vs in declaration order as a single
// all-or-nothing transfer: if the combined byte size of vs doesn't fit in
// the current write vector, nothing is written and no commit occurs.
// Producer-only.
func WriteValues(rb *RingBuffer, vs ...any) bool {
	if rb.buf == nil || len(vs) == 0 {
		return false
	}
	chunks := make([][]byte, len(vs))
	var total int
	for i, v := range vs {
		b := valueBytes(v)
		chunks[i] = b
		total += len(b)
	}

	front, back := rb.WriteVector()
	if len(front)+len(back) < total {
		return false
	}
	copyIntoVector(front, back, chunks)
	rb.CommitWrite(uint64(total))
	return true
}

// ReadValues reads into ptrs (each must be a pointer to a fixed-size
// value) in declaration order as a single all-or-nothing transfer.
// Consumer-only.
func ReadValues(rb *RingBuffer, ptrs ...any) bool {
	return readOrPeekValues(rb, true, ptrs...)
}

// PeekValues behaves like ReadValues but does not advance the read
// cursor. Consumer-only.
func PeekValues(rb *RingBuffer, ptrs ...any) bool {
	return readOrPeekValues(rb, false, ptrs...)
}

func readOrPeekValues(rb *RingBuffer, advance bool, ptrs ...any) bool {
	if rb.buf == nil || len(ptrs) == 0 {
		return false
	}
	sizes := make([]int, len(ptrs))
	elems := make([]reflect.Value, len(ptrs))
	var total int
	for i, p := range ptrs {
		rv := reflect.ValueOf(p)
		if rv.Kind() != reflect.Ptr {
			panic("ringbuffer: ReadValues/PeekValues: arguments must be pointers")
		}
		elems[i] = rv.Elem()
		sizes[i] = int(rv.Type().Elem().Size())
		total += sizes[i]
	}

	front, back := rb.ReadVector()
	if len(front)+len(back) < total {
		return false
	}

	scratch := make([]byte, total)
	chunks := make([][]byte, len(ptrs))
	offset := 0
	for i, size := range sizes {
		chunks[i] = scratch[offset : offset+size]
		offset += size
	}
	copyFromVector(front, back, chunks)

	for i, elem := range elems {
		dst := unsafe.Slice((*byte)(unsafe.Pointer(elem.UnsafeAddr())), sizes[i])
		copy(dst, chunks[i])
	}

	if advance {
		rb.CommitRead(uint64(total))
	}
	return true
}
