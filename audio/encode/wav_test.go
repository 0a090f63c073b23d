package encode

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-fxplayer/audio"
	"github.com/cwbudde/algo-fxplayer/audio/decode"
	"github.com/cwbudde/algo-fxplayer/dsp/dither"
	"github.com/cwbudde/algo-fxplayer/internal/testutil"
)

func writeFile(t *testing.T, f WAVFormat, samples []float32, opts ...WAVOption) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "out.wav")
	file, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()

	w, err := NewWAVWriter(file, f, opts...)
	if err != nil {
		t.Fatalf("NewWAVWriter() error = %v", err)
	}
	half := len(samples) / 2 / f.Channels * f.Channels
	if err := w.Write(samples[:half]); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := w.Write(samples[half:]); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if got, want := w.Frames(), int64(len(samples)/f.Channels); got != want {
		t.Fatalf("Frames() = %d, want %d", got, want)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	return path
}

func TestWAVWriterRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		format WAVFormat
		enc    audio.Encoding
		eps    float64
	}{
		{WAVFormat{SampleRate: 44100, Channels: 2, BitDepth: 16}, audio.EncodingPCM16, 1.0 / 16384},
		{WAVFormat{SampleRate: 48000, Channels: 1, BitDepth: 24}, audio.EncodingPCM24, 1e-6},
		{WAVFormat{SampleRate: 96000, Channels: 2, BitDepth: 32}, audio.EncodingFloat32, 0},
		{WAVFormat{SampleRate: 22050, Channels: 1, BitDepth: 16}, audio.EncodingPCM16, 1.0 / 16384},
	}

	for _, tt := range tests {
		t.Run(audio.Format{SampleRate: tt.format.SampleRate, Channels: tt.format.Channels, Encoding: tt.enc}.String(), func(t *testing.T) {
			t.Parallel()

			frames := tt.format.SampleRate / 10
			want := testutil.Sine(440, float64(tt.format.SampleRate), 0.5, frames, tt.format.Channels)
			path := writeFile(t, tt.format, want)

			info, err := decode.Probe(path)
			if err != nil {
				t.Fatalf("Probe() error = %v", err)
			}
			wantFormat := audio.Format{SampleRate: tt.format.SampleRate, Channels: tt.format.Channels, Encoding: tt.enc}
			if info.Format != wantFormat {
				t.Fatalf("Format = %v, want %v", info.Format, wantFormat)
			}
			if info.Frames != int64(frames) {
				t.Fatalf("Frames = %d, want %d", info.Frames, frames)
			}
		})
	}
}

func TestWAVWriterFloatIsExact(t *testing.T) {
	t.Parallel()

	want := []float32{0.1, -0.2, 1.5, -1.5}
	path := writeFile(t, WAVFormat{SampleRate: 44100, Channels: 2, BitDepth: 32}, want)

	src, err := decode.Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer src.Close()

	got := make([]float32, 4)
	n, err := audio.ReadFull(src, got)
	if err != nil || n != 4 {
		t.Fatalf("ReadFull() = %d, %v", n, err)
	}
	testutil.RequireSamplesNearlyEqual(t, got, want, 0)
}

func TestWAVWriterRejects(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "x.wav")
	file, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()

	if _, err := NewWAVWriter(file, WAVFormat{SampleRate: 44100, Channels: 2, BitDepth: 12}); !errors.Is(err, ErrBitDepth) {
		t.Fatalf("NewWAVWriter(12 bit) error = %v, want %v", err, ErrBitDepth)
	}
	if _, err := NewWAVWriter(file, WAVFormat{SampleRate: 0, Channels: 2, BitDepth: 16}); err == nil {
		t.Fatal("NewWAVWriter(rate 0) error = nil")
	}

	w, err := NewWAVWriter(file, WAVFormat{SampleRate: 44100, Channels: 2, BitDepth: 16})
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Write([]float32{0, 0, 0}); err == nil {
		t.Fatal("Write(partial frame) error = nil")
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := w.Write([]float32{0, 0}); err == nil {
		t.Fatal("Write() after Close error = nil")
	}
}

func TestQuantize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		v    float32
		bits int
		want int
	}{
		{1, 16, 32767},
		{-1, 16, -32767},
		{2, 16, 32767},
		{0.5, 24, 4194304},
		{-3, 24, -8388607},
		{1, 32, 0x3f800000},
	}
	for _, tt := range tests {
		if got := Quantize(tt.v, tt.bits); got != tt.want {
			t.Fatalf("Quantize(%v, %d) = %d, want %d", tt.v, tt.bits, got, tt.want)
		}
	}
}

func TestWAVWriterDither(t *testing.T) {
	t.Parallel()

	f := WAVFormat{SampleRate: 44100, Channels: 2, BitDepth: 16}
	want := testutil.Sine(440, 44100, 0.5, 4410, 2)
	path := writeFile(t, f, want, WithDither(dither.WithType(dither.Triangular), dither.WithSeed(3)))

	src, err := decode.Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer src.Close()

	got := make([]float32, len(want))
	if n, err := audio.ReadFull(src, got); n != len(want) {
		t.Fatalf("ReadFull() = %d, %v, want %d", n, err, len(want))
	}
	// TPDF noise adds at most one LSB on top of rounding.
	testutil.RequireSamplesNearlyEqual(t, got, want, 3.0/32768)

	same := 0
	for i, v := range want {
		if got[i] == float32(Quantize(v, 16))/32768 {
			same++
		}
	}
	if same == len(want) {
		t.Fatal("dithered output equals plain rounding")
	}
}

func TestWAVWriterRejectsBadDither(t *testing.T) {
	t.Parallel()

	file, err := os.Create(filepath.Join(t.TempDir(), "bad.wav"))
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()

	_, err = NewWAVWriter(file, WAVFormat{SampleRate: 44100, Channels: 2, BitDepth: 16},
		WithDither(dither.WithType(dither.Type(9))))
	if err == nil {
		t.Fatal("NewWAVWriter() error = nil")
	}
}
