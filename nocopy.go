package ringbuffer

// noCopy is embedded in RingBuffer so `go vet`'s copylocks check flags any
// accidental copy of a RingBuffer value. Copying would duplicate the
// backing byte slice header without duplicating the data it points at,
// silently desynchronizing producer and consumer. Move the buffer with
// MoveFrom instead.
//
// Borrowed from the pattern used throughout the standard library and
// generated protobuf code: a zero-size type with Lock/Unlock methods that
// is never actually locked, purely to trip the vet analyzer.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
