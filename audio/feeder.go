package audio

import (
	"fmt"
	"io"
	"runtime"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	ringbuffer "github.com/bytestream/spscring"
)

// FeedWAV decodes PCM frames from dec and pushes them into rb as int16
// samples, blocking (busy-polling) whenever rb is full so that a caller
// feeding ahead of a slower Player never silently drops audio the way
// the realtime capture/playback callbacks are allowed to. It returns the
// total number of samples written.
//
// dec must already be positioned at the start of the PCM chunk (as
// returned by wav.NewDecoder); FeedWAV does not open or seek the
// underlying file.
func FeedWAV(rb *ringbuffer.RingBuffer, dec *wav.Decoder) (int64, error) {
	if !dec.IsValidFile() {
		return 0, fmt.Errorf("audio: not a valid WAV file")
	}

	const framesPerChunk = 4096
	buf := &audio.IntBuffer{
		Format: &audio.Format{NumChannels: int(dec.NumChans), SampleRate: int(dec.SampleRate)},
		Data:   make([]int, framesPerChunk),
	}

	var total int64
	samples := make([]int16, 0, framesPerChunk)
	for {
		if err := dec.PCMBuffer(buf); err != nil {
			if err == io.EOF {
				break
			}
			return total, fmt.Errorf("audio: decode PCM chunk: %w", err)
		}
		if len(buf.Data) == 0 {
			break
		}

		samples = samples[:0]
		for _, s := range buf.Data {
			samples = append(samples, int16(s))
		}

		for written := 0; written < len(samples); {
			n, err := ringbuffer.WriteSpan(rb, samples[written:], true)
			if err != nil && n == 0 {
				runtime.Gosched() // buffer momentarily full; yield and retry
				continue
			}
			written += n
			total += int64(n)
		}
	}
	return total, nil
}
