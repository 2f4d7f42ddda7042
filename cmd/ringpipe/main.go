// Command ringpipe copies stdin to stdout through a spscring ring buffer,
// one goroutine filling it and another draining it, to exercise the
// library outside of its test suite the way a real low-latency pipe
// between two threads would use it.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/alecthomas/kong"

	ringbuffer "github.com/bytestream/spscring"
)

var cli struct {
	Capacity  uint64 `help:"Ring buffer capacity in bytes, rounded up to the next power of two." default:"65536"`
	ChunkSize int    `help:"Size in bytes of each read/write chunk between stdin/stdout and the ring buffer." default:"4096"`
	Verbose   bool   `help:"Enable debug-level logging." short:"v"`
}

func main() {
	kong.Parse(&cli,
		kong.Name("ringpipe"),
		kong.Description("Pipe stdin to stdout through a lock-free SPSC ring buffer."))

	level := slog.LevelInfo
	if cli.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := run(logger); err != nil {
		logger.Error("ringpipe: fatal", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	rb, err := ringbuffer.NewRingBuffer(cli.Capacity, ringbuffer.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("allocate ring buffer: %w", err)
	}
	logger.Info("ringpipe: started", "capacity", rb.Capacity(), "chunk_size", cli.ChunkSize)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// producerDone is cancelled once produce returns, whether because
	// stdin hit EOF or because it failed — either way there is nothing
	// left for consume to wait on, so it should flush and exit instead
	// of spinning on ctx (which only fires on an OS signal).
	producerCtx, producerDone := context.WithCancel(ctx)
	defer producerDone()

	var wg sync.WaitGroup
	var readErr, writeErr error

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer producerDone()
		readErr = produce(ctx, rb, os.Stdin, cli.ChunkSize, logger)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		writeErr = consume(ctx, producerCtx, rb, os.Stdout, cli.ChunkSize, logger)
	}()

	wg.Wait()

	if readErr != nil {
		return fmt.Errorf("read stdin: %w", readErr)
	}
	if writeErr != nil {
		return fmt.Errorf("write stdout: %w", writeErr)
	}
	return nil
}

// produce is the ring buffer's sole producer: it reads chunks from src and
// writes them into rb's write vector, spinning whenever the buffer is
// momentarily full. It returns on EOF or on ctx
// cancellation; either way the caller cancels producerCtx afterward so
// consume knows to flush and stop waiting.
func produce(ctx context.Context, rb *ringbuffer.RingBuffer, src io.Reader, chunkSize int, logger *slog.Logger) error {
	chunk := make([]byte, chunkSize)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := src.Read(chunk)
		if n > 0 {
			if writeErr := writeAll(ctx, rb, chunk[:n]); writeErr != nil {
				return writeErr
			}
		}
		if err != nil {
			if err == io.EOF {
				logger.Debug("ringpipe: producer reached EOF")
				return nil
			}
			return err
		}
	}
}

// writeAll pushes all of b into rb, looping over WriteVector/CommitWrite
// since the free space in a single write vector (front and back together)
// may be smaller than b.
func writeAll(ctx context.Context, rb *ringbuffer.RingBuffer, b []byte) error {
	for len(b) > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		front, back := rb.WriteVector()
		avail := len(front) + len(back)
		if avail == 0 {
			continue // full; spin until the consumer frees space
		}
		n := copy(front, b)
		if n < len(front) {
			// front absorbed everything we had; nothing spills to back.
		} else {
			n += copy(back, b[n:])
		}
		rb.CommitWrite(uint64(n))
		b = b[n:]
	}
	return nil
}

// consume is the ring buffer's sole consumer: it drains rb's read vector
// into dst, spinning whenever the buffer is momentarily empty, until either ctx is cancelled (an OS shutdown signal) or
// producerCtx is cancelled (the producer has stopped feeding the buffer,
// normally because stdin hit EOF). Either way it flushes whatever is
// still buffered before returning, so ringpipe exits once the producer
// side is done instead of spinning forever waiting for a signal.
func consume(ctx, producerCtx context.Context, rb *ringbuffer.RingBuffer, dst io.Writer, chunkSize int, logger *slog.Logger) error {
	chunk := make([]byte, chunkSize)
	for {
		select {
		case <-ctx.Done():
			return flushRemaining(rb, dst, chunk)
		case <-producerCtx.Done():
			return flushRemaining(rb, dst, chunk)
		default:
		}

		n, err := rb.Read(chunk, 1, true)
		if err != nil && n == 0 {
			continue // empty; spin until the producer has something
		}
		if _, writeErr := dst.Write(chunk[:n]); writeErr != nil {
			return writeErr
		}
	}
}

// flushRemaining drains whatever is still buffered after a shutdown
// signal, so a SIGTERM during a pipe never silently truncates output that
// was already accepted from stdin.
func flushRemaining(rb *ringbuffer.RingBuffer, dst io.Writer, chunk []byte) error {
	for rb.AvailableBytes() > 0 {
		n, err := rb.Read(chunk, 1, true)
		if err != nil || n == 0 {
			break
		}
		if _, writeErr := dst.Write(chunk[:n]); writeErr != nil {
			return writeErr
		}
	}
	return nil
}
