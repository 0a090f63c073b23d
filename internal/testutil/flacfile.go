package testutil

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/mewkiz/flac/meta"
)

// FLACBlockSize is the number of frames per FLAC block written by
// WriteFLAC. The last block may be shorter.
const FLACBlockSize = 4096

// WriteFLAC writes interleaved samples in [-1, 1] as a 16-bit mono or
// stereo FLAC file with verbatim subframes and returns its path.
func WriteFLAC(t testing.TB, name string, sampleRate, channels int, samples []float32) string {
	t.Helper()

	if channels != 1 && channels != 2 {
		t.Fatalf("flac fixture: %d channels, want 1 or 2", channels)
	}
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create fixture: %v", err)
	}

	frames := len(samples) / channels
	info := &meta.StreamInfo{
		BlockSizeMin:  FLACBlockSize,
		BlockSizeMax:  FLACBlockSize,
		SampleRate:    uint32(sampleRate),
		NChannels:     uint8(channels),
		BitsPerSample: 16,
		NSamples:      uint64(frames),
	}
	enc, err := flac.NewEncoder(f, info)
	if err != nil {
		f.Close()
		t.Fatalf("flac encoder: %v", err)
	}

	layout := frame.ChannelsMono
	if channels == 2 {
		layout = frame.ChannelsLR
	}
	for start := 0; start < frames; start += FLACBlockSize {
		n := min(FLACBlockSize, frames-start)
		fr := &frame.Frame{
			Header: frame.Header{
				HasFixedBlockSize: true,
				BlockSize:         uint16(n),
				SampleRate:        uint32(sampleRate),
				Channels:          layout,
				BitsPerSample:     16,
			},
			Subframes: make([]*frame.Subframe, channels),
		}
		for c := range fr.Subframes {
			pcm := make([]int32, n)
			for i := range pcm {
				v := math.Max(-1, math.Min(1, float64(samples[(start+i)*channels+c])))
				pcm[i] = int32(math.Round(v * 32767))
			}
			fr.Subframes[c] = &frame.Subframe{
				SubHeader: frame.SubHeader{Pred: frame.PredVerbatim},
				Samples:   pcm,
				NSamples:  n,
			}
		}
		if err := enc.WriteFrame(fr); err != nil {
			enc.Close()
			t.Fatalf("write flac frame: %v", err)
		}
	}

	// Close rewrites the stream info and closes f.
	if err := enc.Close(); err != nil {
		t.Fatalf("close fixture: %v", err)
	}
	return path
}
