//go:build ringbuffer_debug

package ringbuffer

func debugAssert(cond bool, msg string) {
	if !cond {
		panic("ringbuffer: " + msg)
	}
}
