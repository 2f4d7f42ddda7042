//go:build !ringbuffer_debug

package ringbuffer

// debugAssert is a no-op in the default build. Build with the
// ringbuffer_debug tag (e.g. `go test -tags ringbuffer_debug`) to turn
// CommitWrite/CommitRead misuse — committing more than was reserved —
// into a panic instead of silent corruption.
func debugAssert(cond bool, msg string) {}
