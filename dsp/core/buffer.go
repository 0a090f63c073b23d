package core

// EnsureLen returns a slice with the requested length, reusing buf capacity if possible.
func EnsureLen(buf []float64, n int) []float64 {
	if n <= 0 {
		return buf[:0]
	}
	if cap(buf) >= n {
		return buf[:n]
	}
	return make([]float64, n)
}

// EnsureLen32 is EnsureLen for float32 sample buffers.
func EnsureLen32(buf []float32, n int) []float32 {
	if n <= 0 {
		return buf[:0]
	}
	if cap(buf) >= n {
		return buf[:n]
	}
	return make([]float32, n)
}

// Zero32 sets all values in buf to 0.
func Zero32(buf []float32) {
	for i := range buf {
		buf[i] = 0
	}
}

// Widen converts src into dst as float64 and returns the number of
// converted samples.
func Widen(dst []float64, src []float32) int {
	n := min(len(dst), len(src))
	for i := 0; i < n; i++ {
		dst[i] = float64(src[i])
	}
	return n
}

// Narrow converts src into dst as float32 and returns the number of
// converted samples.
func Narrow(dst []float32, src []float64) int {
	n := min(len(dst), len(src))
	for i := 0; i < n; i++ {
		dst[i] = float32(src[i])
	}
	return n
}

// Deinterleave extracts channel ch of an interleaved buffer into dst and
// returns the number of frames written.
func Deinterleave(dst []float64, src []float32, channels, ch int) int {
	if channels <= 0 || ch < 0 || ch >= channels {
		return 0
	}
	frames := min(len(src)/channels, len(dst))
	for i := 0; i < frames; i++ {
		dst[i] = float64(src[i*channels+ch])
	}
	return frames
}
