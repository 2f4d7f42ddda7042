package ringbuffer

import "log/slog"

// options configures the throwing-style constructor, NewRingBuffer.
// Nothing here affects the hot path: Write/Read/Peek/Skip/Drain never log
// or branch on configuration.
type options struct {
	logger *slog.Logger
}

// Option configures a RingBuffer at construction time.
type Option func(*options)

// WithLogger sets the logger NewRingBuffer uses to report construction
// failures (invalid capacity, allocation failure). Defaults to
// slog.Default(). Passing nil disables construction-time logging.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

func newOptions(opts []Option) options {
	cfg := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
