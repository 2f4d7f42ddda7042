package audio

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gordonklaus/portaudio"

	ringbuffer "github.com/bytestream/spscring"
)

// Capture reads from the default input device and pushes every captured
// frame into a ring buffer. The PortAudio callback is the producer; it
// must be the only goroutine writing to rb for the lifetime of the
// stream, satisfying spscring's single-producer discipline.
type Capture struct {
	rb     *ringbuffer.RingBuffer
	stream *portaudio.Stream
	logger *slog.Logger

	portAudioInit bool
	overruns      uint64
}

// NewCapture opens the default input device at sampleRate with
// framesPerBuffer samples per callback, writing captured int16 samples
// into rb. rb should already be allocated with enough capacity to absorb
// jitter between the audio callback and whatever drains rb.
func NewCapture(rb *ringbuffer.RingBuffer, sampleRate float64, framesPerBuffer int, logger *slog.Logger) (*Capture, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Capture{rb: rb, logger: logger}

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("audio: initialize PortAudio: %w", err)
	}
	c.portAudioInit = true

	stream, err := portaudio.OpenDefaultStream(1, 0, sampleRate, framesPerBuffer, c.callback)
	if err != nil {
		portaudio.Terminate()
		c.portAudioInit = false
		return nil, fmt.Errorf("audio: open capture stream: %w", err)
	}
	c.stream = stream
	return c, nil
}

// callback runs on PortAudio's realtime audio thread. It must never
// block: a full ring buffer short-writes, dropping the tail of this
// frame, rather than stalling the audio thread — exactly what Write with
// allowPartial=true does by design.
func (c *Capture) callback(in []int16) {
	n, err := ringbuffer.WriteSpan(c.rb, in, true)
	if err != nil {
		n = 0
	}
	if n < len(in) {
		c.overruns++
	}
}

// Start begins streaming until ctx is cancelled or Stop is called.
func (c *Capture) Start(ctx context.Context) error {
	if err := c.stream.Start(); err != nil {
		return fmt.Errorf("audio: start capture stream: %w", err)
	}
	go func() {
		<-ctx.Done()
		_ = c.Stop()
	}()
	return nil
}

// Stop stops and closes the capture stream and releases PortAudio. Safe
// to call more than once.
func (c *Capture) Stop() error {
	if c.stream == nil {
		return nil
	}
	if err := c.stream.Stop(); err != nil {
		c.logger.Warn("audio: failed to stop capture stream", "error", err)
	}
	err := c.stream.Close()
	c.stream = nil

	if c.portAudioInit {
		if termErr := portaudio.Terminate(); termErr != nil {
			c.logger.Warn("audio: failed to terminate PortAudio", "error", termErr)
		}
		c.portAudioInit = false
	}
	return err
}

// Overruns reports how many callback invocations had to drop samples
// because the ring buffer was full.
func (c *Capture) Overruns() uint64 {
	return c.overruns
}
