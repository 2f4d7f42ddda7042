package audio

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gordonklaus/portaudio"

	ringbuffer "github.com/bytestream/spscring"
)

// Player drains a ring buffer to the default output device. The
// PortAudio callback is the consumer; it must be the only goroutine
// reading from rb for the lifetime of the stream.
type Player struct {
	rb     *ringbuffer.RingBuffer
	stream *portaudio.Stream
	logger *slog.Logger

	portAudioInit bool
	underruns     uint64
}

// NewPlayer opens the default output device at sampleRate with
// framesPerBuffer samples per callback, reading int16 samples from rb.
func NewPlayer(rb *ringbuffer.RingBuffer, sampleRate float64, framesPerBuffer int, logger *slog.Logger) (*Player, error) {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Player{rb: rb, logger: logger}

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("audio: initialize PortAudio: %w", err)
	}
	p.portAudioInit = true

	stream, err := portaudio.OpenDefaultStream(0, 1, sampleRate, framesPerBuffer, p.callback)
	if err != nil {
		portaudio.Terminate()
		p.portAudioInit = false
		return nil, fmt.Errorf("audio: open playback stream: %w", err)
	}
	p.stream = stream
	return p, nil
}

// callback runs on PortAudio's realtime audio thread. On underrun (not
// enough data buffered) it zero-fills the remainder of out rather than
// blocking, since Read on an empty buffer simply returns a short count.
func (p *Player) callback(out []int16) {
	n, err := ringbuffer.ReadSpan(p.rb, out, true)
	if err != nil {
		n = 0
	}
	if n < len(out) {
		p.underruns++
		for i := n; i < len(out); i++ {
			out[i] = 0
		}
	}
}

// Start begins playback until ctx is cancelled or Stop is called.
func (p *Player) Start(ctx context.Context) error {
	if err := p.stream.Start(); err != nil {
		return fmt.Errorf("audio: start playback stream: %w", err)
	}
	go func() {
		<-ctx.Done()
		_ = p.Stop()
	}()
	return nil
}

// Stop stops and closes the playback stream and releases PortAudio. Safe
// to call more than once.
func (p *Player) Stop() error {
	if p.stream == nil {
		return nil
	}
	if err := p.stream.Stop(); err != nil {
		p.logger.Warn("audio: failed to stop playback stream", "error", err)
	}
	err := p.stream.Close()
	p.stream = nil

	if p.portAudioInit {
		if termErr := portaudio.Terminate(); termErr != nil {
			p.logger.Warn("audio: failed to terminate PortAudio", "error", termErr)
		}
		p.portAudioInit = false
	}
	return err
}

// Underruns reports how many callback invocations had to zero-fill
// because the ring buffer ran dry.
func (p *Player) Underruns() uint64 {
	return p.underruns
}
