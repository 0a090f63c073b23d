package decode

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mewkiz/flac"

	"github.com/cwbudde/algo-fxplayer/audio"
)

// flacDecoder walks FLAC frames one block at a time and hands out the
// decoded samples of the current block until it is exhausted.
type flacDecoder struct {
	f      *os.File
	stream *flac.Stream
	info   Info
	scale  float32

	block []float32 // interleaved samples of the current frame
	off   int
	atEnd bool
}

func openFLAC(f *os.File) (Decoder, error) {
	stream, err := flac.NewSeek(f)
	if err != nil {
		return nil, unsupported("flac", err)
	}

	si := stream.Info
	enc, err := audio.EncodingForBits(roundBits(int(si.BitsPerSample)))
	if err != nil {
		stream.Close()
		return nil, err
	}

	frames := int64(si.NSamples)
	if si.NSamples == 0 {
		frames = -1
	}

	return &flacDecoder{
		f:      f,
		stream: stream,
		scale:  1 / float32(int64(1)<<(si.BitsPerSample-1)),
		info: Info{
			Container: "flac",
			Format:    audio.Format{SampleRate: int(si.SampleRate), Channels: int(si.NChannels), Encoding: enc},
			Frames:    frames,
		},
	}, nil
}

// roundBits maps odd FLAC sample sizes such as 12 or 20 bits to the next
// storage size.
func roundBits(bits int) int {
	return (bits + 7) / 8 * 8
}

func (d *flacDecoder) Info() Info { return d.info }

func (d *flacDecoder) Read(buf []float32) (int, error) {
	ch := d.info.Format.Channels
	want := len(buf) / ch * ch
	if d.atEnd {
		return 0, io.EOF
	}
	written := 0
	for written < want {
		if d.off >= len(d.block) {
			if err := d.next(); err != nil {
				if written > 0 && errors.Is(err, io.EOF) {
					return written, nil
				}
				return written, err
			}
		}
		n := copy(buf[written:want], d.block[d.off:])
		d.off += n
		written += n
	}
	return written, nil
}

func (d *flacDecoder) next() error {
	fr, err := d.stream.ParseNext()
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return io.EOF
		}
		return fmt.Errorf("flac frame: %w", err)
	}

	ch := len(fr.Subframes)
	if ch != d.info.Format.Channels {
		return fmt.Errorf("flac frame: %d channels, stream has %d", ch, d.info.Format.Channels)
	}
	n := int(fr.BlockSize)
	if cap(d.block) < n*ch {
		d.block = make([]float32, n*ch)
	}
	d.block = d.block[:n*ch]
	for c, sub := range fr.Subframes {
		for i := 0; i < n && i < len(sub.Samples); i++ {
			d.block[i*ch+c] = float32(sub.Samples[i]) * d.scale
		}
	}
	d.off = 0
	return nil
}

// Seek lands on the start of the frame containing the requested sample.
// A request at or past the last sample leaves the decoder at end of stream.
func (d *flacDecoder) Seek(frame int64) (int64, error) {
	d.block = d.block[:0]
	d.off = 0
	if d.info.Frames >= 0 && frame >= d.info.Frames {
		d.atEnd = true
		return d.info.Frames, nil
	}
	d.atEnd = false
	pos, err := d.stream.Seek(uint64(max(0, frame)))
	if err != nil {
		return 0, err
	}
	return int64(pos), nil
}

func (d *flacDecoder) Close() error {
	err := d.stream.Close()
	if cerr := d.f.Close(); err == nil && !errors.Is(cerr, os.ErrClosed) {
		err = cerr
	}
	return err
}
