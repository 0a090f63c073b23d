package audio

import (
	"encoding/binary"
	"io"
	"math"
)

// Reader adapts a float32 Stream to an io.Reader producing little-endian
// IEEE float bytes, the layout expected by float32 device sinks.
type Reader struct {
	src     Stream
	samples []float32
	pending []byte
	scratch [4]byte
}

// NewReader returns a byte reader over src.
func NewReader(src Stream) *Reader {
	return &Reader{src: src}
}

// Read implements io.Reader.
func (r *Reader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	written := 0
	if len(r.pending) > 0 {
		written = copy(p, r.pending)
		r.pending = r.pending[written:]
		if written == len(p) {
			return written, nil
		}
	}

	ch := r.src.Format().Channels
	want := (len(p) - written) / 4 / ch * ch
	if want == 0 {
		want = ch
	}
	if cap(r.samples) < want {
		r.samples = make([]float32, want)
	}
	buf := r.samples[:want]

	n, err := r.src.Read(buf)
	for i := 0; i < n; i++ {
		bits := math.Float32bits(buf[i])
		if len(p)-written >= 4 {
			binary.LittleEndian.PutUint32(p[written:], bits)
			written += 4
			continue
		}
		binary.LittleEndian.PutUint32(r.scratch[:], bits)
		c := copy(p[written:], r.scratch[:])
		written += c
		r.pending = append(r.pending, r.scratch[c:]...)
	}

	if err == io.EOF && (written > 0 || len(r.pending) > 0) {
		return written, nil
	}
	return written, err
}
