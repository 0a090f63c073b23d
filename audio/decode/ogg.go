package decode

import (
	"errors"
	"io"
	"os"

	"github.com/jfreymuth/oggvorbis"

	"github.com/cwbudde/algo-fxplayer/audio"
)

type oggDecoder struct {
	f    *os.File
	r    *oggvorbis.Reader
	info Info
}

func openOGG(f *os.File) (Decoder, error) {
	r, err := oggvorbis.NewReader(f)
	if err != nil {
		return nil, unsupported("ogg", err)
	}

	// Length is zero when the reader could not find the last page.
	frames := r.Length()
	if frames <= 0 {
		frames = -1
	}

	return &oggDecoder{
		f: f,
		r: r,
		info: Info{
			Container: "ogg",
			Format:    audio.Format{SampleRate: r.SampleRate(), Channels: r.Channels(), Encoding: audio.EncodingFloat32},
			Frames:    frames,
		},
	}, nil
}

func (o *oggDecoder) Info() Info { return o.info }

func (o *oggDecoder) Read(buf []float32) (int, error) {
	n, err := o.r.Read(buf)
	if errors.Is(err, io.ErrUnexpectedEOF) {
		err = io.EOF
	}
	return n, err
}

func (o *oggDecoder) Seek(frame int64) (int64, error) {
	if err := o.r.SetPosition(max(0, frame)); err != nil {
		return 0, err
	}
	return o.r.Position(), nil
}

func (o *oggDecoder) Close() error { return o.f.Close() }
