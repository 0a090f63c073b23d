package decode

import (
	"encoding/binary"
	"errors"
	"io"
	"os"

	"github.com/hajimehoshi/go-mp3"

	"github.com/cwbudde/algo-fxplayer/audio"
)

// go-mp3 always produces 16-bit little-endian stereo.
const mp3BytesPerFrame = 4

type mp3Decoder struct {
	f    *os.File
	dec  *mp3.Decoder
	info Info
	raw  []byte
}

func openMP3(f *os.File) (Decoder, error) {
	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, unsupported("mp3", err)
	}

	frames := int64(-1)
	if n := dec.Length(); n >= 0 {
		frames = n / mp3BytesPerFrame
	}

	return &mp3Decoder{
		f:   f,
		dec: dec,
		info: Info{
			Container: "mp3",
			Format:    audio.Format{SampleRate: dec.SampleRate(), Channels: 2, Encoding: audio.EncodingPCM16},
			Frames:    frames,
		},
	}, nil
}

func (m *mp3Decoder) Info() Info { return m.info }

func (m *mp3Decoder) Read(buf []float32) (int, error) {
	frames := len(buf) / 2
	if frames == 0 {
		return 0, nil
	}

	m.raw = ensureBytes(m.raw, frames*mp3BytesPerFrame)
	n, err := io.ReadFull(m.dec, m.raw)
	got := n / mp3BytesPerFrame
	if got == 0 {
		if err == nil || errors.Is(err, io.ErrUnexpectedEOF) {
			err = io.EOF
		}
		return 0, err
	}

	for i := 0; i < got*2; i++ {
		buf[i] = float32(int16(binary.LittleEndian.Uint16(m.raw[i*2:]))) / 32768
	}
	return got * 2, nil
}

func (m *mp3Decoder) Seek(frame int64) (int64, error) {
	if m.info.Frames >= 0 {
		frame = min(frame, m.info.Frames)
	}
	pos, err := m.dec.Seek(max(0, frame)*mp3BytesPerFrame, io.SeekStart)
	if err != nil {
		return 0, err
	}
	return pos / mp3BytesPerFrame, nil
}

func (m *mp3Decoder) Close() error { return m.f.Close() }
