// Package audio wires a spscring ring buffer into a realtime PortAudio
// capture/playback pipeline: the PortAudio callback running on its own
// audio-thread is the sole producer or consumer, exactly matching the
// SPSC discipline github.com/bytestream/spscring requires.
//
// This package exists to exercise the core ring buffer under a second,
// independently-grounded realtime workload beyond the test suite — the
// canonical use case for a lock-free SPSC byte buffer is feeding audio
// samples between a realtime callback thread and the rest of a program.
// It is not itself part of the ring buffer's contract: it owns no
// synchronization of its own beyond what the ring buffer already
// provides.
package audio
