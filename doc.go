// Package ringbuffer provides a lock-free, single-producer single-consumer
// (SPSC) byte ring buffer for streaming raw bytes between exactly two
// cooperating goroutines without locks or allocation on the hot path.
//
// # Thread-Safety Guarantees
//
// The buffer is lock-free and wait-free for its documented use case:
//   - Exactly one goroutine, the producer, may call Write, WriteVector,
//     CommitWrite, or any of the WriteValue/WriteValues/WriteSpan helpers.
//   - Exactly one goroutine, the consumer, may call Read, Peek, Skip,
//     Drain, ReadVector, CommitRead, or any of the Read*/Peek* helpers.
//   - Capacity and the validity predicate are safe to call from both sides.
//   - Allocate, Deallocate, MoveFrom and construction are not safe under
//     any concurrent access to the buffer from either side.
//
// Violating these constraints (multiple producers or consumers, or mixing
// lifecycle calls with concurrent I/O) is a precondition violation and
// produces undefined results, not a recoverable error.
//
// # Performance Characteristics
//
//   - Wait-free O(1) bookkeeping per call; bulk transfers are O(n) memcpy
//   - Zero allocations on Write/Read/Peek/Skip/Drain and the vector calls
//   - Cache-line padding between the write and read cursors to prevent
//     false sharing between the producer and consumer goroutines
//   - No blocking: Write and Read never wait, sleep, or park; a full
//     buffer short-writes, an empty buffer short-reads
//
// # Usage Example
//
//	rb, err := ringbuffer.NewRingBuffer(64) // rounded up to a power of 2
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Producer goroutine
//	go func() {
//	    rb.Write([]byte("hello"), 1, true)
//	}()
//
//	// Consumer goroutine
//	buf := make([]byte, 16)
//	n, err := rb.Read(buf, 1, true)
package ringbuffer
