package decode

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/cwbudde/algo-fxplayer/audio"
)

const (
	wavFormatFloat      = 3
	wavFormatExtensible = 0xFFFE
)

// wavDecoder reads the PCM chunk directly after go-audio/wav has parsed
// the RIFF headers, which keeps seeking a plain offset computation.
type wavDecoder struct {
	f     *os.File
	data  *io.SectionReader
	info  Info
	block int
	raw   []byte
}

func openWAV(f *os.File) (Decoder, error) {
	d := wav.NewDecoder(f)
	if err := d.FwdToPCM(); err != nil {
		return nil, unsupported("wav", err)
	}
	if err := d.Err(); err != nil {
		return nil, unsupported("wav", err)
	}
	if d.NumChans == 0 || d.SampleRate == 0 {
		return nil, unsupported("wav", errors.New("missing fmt chunk"))
	}

	bits := int(d.BitDepth)
	var (
		enc audio.Encoding
		err error
	)
	switch {
	case d.WavAudioFormat == wavFormatFloat:
		if bits != 32 {
			return nil, unsupported("wav", fmt.Errorf("%d-bit float", bits))
		}
		enc = audio.EncodingFloat32
	case d.WavAudioFormat == 1 || d.WavAudioFormat == wavFormatExtensible:
		enc, err = audio.EncodingForBits(bits)
		if err != nil {
			return nil, err
		}
	default:
		return nil, unsupported("wav", fmt.Errorf("audio format tag %#x", d.WavAudioFormat))
	}

	start, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}

	format := audio.Format{SampleRate: int(d.SampleRate), Channels: int(d.NumChans), Encoding: enc}
	block := format.BytesPerFrame()

	size := d.PCMLen()
	if st, err := f.Stat(); err == nil && start+size > st.Size() {
		// Truncated or streamed files carry a bogus chunk size.
		size = st.Size() - start
	}
	size -= size % int64(block)

	return &wavDecoder{
		f:     f,
		data:  io.NewSectionReader(f, start, size),
		block: block,
		info: Info{
			Container: "wav",
			Format:    format,
			Frames:    size / int64(block),
		},
	}, nil
}

func (w *wavDecoder) Info() Info { return w.info }

func (w *wavDecoder) Read(buf []float32) (int, error) {
	ch := w.info.Format.Channels
	frames := len(buf) / ch
	if frames == 0 {
		return 0, nil
	}

	w.raw = ensureBytes(w.raw, frames*w.block)
	n, err := io.ReadFull(w.data, w.raw)
	got := n / w.block
	if got == 0 {
		if err == nil || errors.Is(err, io.ErrUnexpectedEOF) {
			err = io.EOF
		}
		return 0, err
	}

	decodePCM(buf[:got*ch], w.raw[:got*w.block], w.info.Format.Encoding)
	return got * ch, nil
}

func (w *wavDecoder) Seek(frame int64) (int64, error) {
	frame = max(0, min(frame, w.info.Frames))
	if _, err := w.data.Seek(frame*int64(w.block), io.SeekStart); err != nil {
		return 0, err
	}
	return frame, nil
}

func (w *wavDecoder) Close() error { return w.f.Close() }

// decodePCM converts little-endian samples in raw to float32 in dst.
func decodePCM(dst []float32, raw []byte, enc audio.Encoding) {
	size := enc.BytesPerSample()
	for i := range dst {
		b := raw[i*size : (i+1)*size]
		switch enc {
		case audio.EncodingPCM8:
			dst[i] = (float32(b[0]) - 128) / 128
		case audio.EncodingPCM16:
			dst[i] = float32(int16(binary.LittleEndian.Uint16(b))) / 32768
		case audio.EncodingPCM24:
			dst[i] = float32(goaudio.Int24LETo32(b)) / 8388608
		case audio.EncodingPCM32:
			dst[i] = float32(float64(int32(binary.LittleEndian.Uint32(b))) / 2147483648)
		case audio.EncodingFloat32:
			dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(b))
		}
	}
}

func ensureBytes(buf []byte, n int) []byte {
	if cap(buf) < n {
		return make([]byte, n)
	}
	return buf[:n]
}
