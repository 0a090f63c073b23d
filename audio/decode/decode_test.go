package decode

import (
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cwbudde/algo-fxplayer/audio"
	"github.com/cwbudde/algo-fxplayer/internal/testutil"
)

func readAll(t *testing.T, s audio.Stream) []float32 {
	t.Helper()
	var out []float32
	buf := make([]float32, 1000)
	for {
		n, err := s.Read(buf)
		out = append(out, buf[:n]...)
		if errors.Is(err, io.EOF) {
			return out
		}
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
	}
}

func TestOpenMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Open(filepath.Join(t.TempDir(), "missing.wav"))
	if !errors.Is(err, audio.ErrSourceNotFound) {
		t.Fatalf("Open() error = %v, want %v", err, audio.ErrSourceNotFound)
	}
}

func TestOpenUnsupportedExtension(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("hello"), 0o600); err != nil {
		t.Fatal(err)
	}
	_, err := Open(path)
	if !errors.Is(err, audio.ErrUnsupportedFormat) {
		t.Fatalf("Open() error = %v, want %v", err, audio.ErrUnsupportedFormat)
	}
	if Supported(path) {
		t.Fatalf("Supported(%q) = true", path)
	}
}

func TestOpenCorruptWAV(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "broken.wav")
	if err := os.WriteFile(path, []byte("this is not a riff file at all"), 0o600); err != nil {
		t.Fatal(err)
	}
	_, err := Open(path)
	if !errors.Is(err, audio.ErrUnsupportedFormat) {
		t.Fatalf("Open() error = %v, want %v", err, audio.ErrUnsupportedFormat)
	}
}

func TestOpenCanonicalWAV(t *testing.T) {
	t.Parallel()

	want := testutil.Sine(440, 44100, 0.5, 4410, 2)
	path := testutil.WriteWAV(t, "tone.wav", testutil.WAVSpec{SampleRate: 44100, Channels: 2, BitDepth: 16}, want)

	src, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer src.Close()

	if got := src.Format(); got != audio.Canonical {
		t.Fatalf("Format() = %v, want %v", got, audio.Canonical)
	}
	if got := src.Length(); got != 4410 {
		t.Fatalf("Length() = %d, want 4410", got)
	}
	if got := src.Duration(); got != 100*time.Millisecond {
		t.Fatalf("Duration() = %v, want 100ms", got)
	}

	got := readAll(t, src)
	testutil.RequireSamplesNearlyEqual(t, got, want, 1.0/16384)
	if src.Position() != 4410 {
		t.Fatalf("Position() = %d, want 4410", src.Position())
	}
}

func TestWAVEncodings(t *testing.T) {
	t.Parallel()

	want := []float32{0, 0.5, -0.5, 0.25, -0.25, 0.75}
	tests := []struct {
		name string
		spec testutil.WAVSpec
		eps  float64
	}{
		{"pcm8", testutil.WAVSpec{SampleRate: 44100, Channels: 2, BitDepth: 8}, 1.0 / 64},
		{"pcm16", testutil.WAVSpec{SampleRate: 44100, Channels: 2, BitDepth: 16}, 1.0 / 16384},
		{"pcm24", testutil.WAVSpec{SampleRate: 44100, Channels: 2, BitDepth: 24}, 1e-6},
		{"pcm32", testutil.WAVSpec{SampleRate: 44100, Channels: 2, BitDepth: 32}, 1e-6},
		{"float32", testutil.WAVSpec{SampleRate: 44100, Channels: 2, BitDepth: 32, Float: true}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := testutil.WriteWAV(t, tt.name+".wav", tt.spec, want)
			info, err := Probe(path)
			if err != nil {
				t.Fatalf("Probe() error = %v", err)
			}
			if info.BitDepth() != tt.spec.BitDepth {
				t.Fatalf("BitDepth() = %d, want %d", info.BitDepth(), tt.spec.BitDepth)
			}

			src, err := Open(path)
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			defer src.Close()
			testutil.RequireSamplesNearlyEqual(t, readAll(t, src), want, tt.eps)
		})
	}
}

func TestProbeReportsNativeFormat(t *testing.T) {
	t.Parallel()

	path := testutil.WriteWAV(t, "mono.wav",
		testutil.WAVSpec{SampleRate: 22050, Channels: 1, BitDepth: 24},
		testutil.Sine(220, 22050, 0.3, 22050, 1))

	info, err := Probe(path)
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	want := audio.Format{SampleRate: 22050, Channels: 1, Encoding: audio.EncodingPCM24}
	if info.Format != want {
		t.Fatalf("Format = %v, want %v", info.Format, want)
	}
	if info.Container != "wav" {
		t.Fatalf("Container = %q, want wav", info.Container)
	}
	if info.Frames != 22050 || info.Duration() != time.Second {
		t.Fatalf("Frames = %d, Duration = %v, want 22050, 1s", info.Frames, info.Duration())
	}
}

func TestOpenNormalizesMonoAndRate(t *testing.T) {
	t.Parallel()

	path := testutil.WriteWAV(t, "mono.wav",
		testutil.WAVSpec{SampleRate: 22050, Channels: 1, BitDepth: 16},
		testutil.Sine(220, 22050, 0.5, 22050, 1))

	src, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer src.Close()

	if src.Format() != audio.Canonical {
		t.Fatalf("Format() = %v, want canonical", src.Format())
	}
	if src.Length() != 44100 {
		t.Fatalf("Length() = %d, want 44100", src.Length())
	}

	got := readAll(t, src)
	frames := len(got) / 2
	if math.Abs(float64(frames-44100)) > 64 {
		t.Fatalf("decoded %d frames, want about 44100", frames)
	}
	for i := 0; i < frames; i++ {
		if got[2*i] != got[2*i+1] {
			t.Fatalf("frame %d: L=%v R=%v, want duplicated mono", i, got[2*i], got[2*i+1])
		}
	}
	if peak := testutil.Peak(got[2000:]); peak < 0.45 || peak > 0.55 {
		t.Fatalf("peak = %v, want about 0.5", peak)
	}
}

func TestSeekCanonical(t *testing.T) {
	t.Parallel()

	path := testutil.WriteWAV(t, "ramp.wav",
		testutil.WAVSpec{SampleRate: 44100, Channels: 2, BitDepth: 32, Float: true},
		testutil.Ramp(4000, 2, 1.0/4000))

	src, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer src.Close()

	if err := src.Seek(1000); err != nil {
		t.Fatalf("Seek() error = %v", err)
	}
	if src.Position() != 1000 {
		t.Fatalf("Position() = %d, want 1000", src.Position())
	}
	buf := make([]float32, 2)
	if _, err := audio.ReadFull(src, buf); err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if buf[0] != 0.25 || buf[1] != -0.25 {
		t.Fatalf("frame after seek = %v, want [0.25 -0.25]", buf)
	}

	if err := src.Seek(1 << 40); err != nil {
		t.Fatalf("Seek(past end) error = %v", err)
	}
	if src.Position() != 4000 {
		t.Fatalf("Position() = %d, want 4000", src.Position())
	}
	if n, err := src.Read(buf); n != 0 || !errors.Is(err, io.EOF) {
		t.Fatalf("Read() at end = %d, %v, want 0, EOF", n, err)
	}

	if err := src.Seek(-1); err == nil {
		t.Fatal("Seek(-1) error = nil")
	}
}

func TestSeekResampled(t *testing.T) {
	t.Parallel()

	path := testutil.WriteWAV(t, "low.wav",
		testutil.WAVSpec{SampleRate: 22050, Channels: 1, BitDepth: 16},
		testutil.Sine(100, 22050, 0.5, 22050, 1))

	src, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer src.Close()

	if err := src.Seek(30001); err != nil {
		t.Fatalf("Seek() error = %v", err)
	}
	if pos := src.Position(); pos > 30001 || pos < 29998 {
		t.Fatalf("Position() = %d, want within a native frame of 30001", pos)
	}

	rest := readAll(t, src)
	remaining := int64(len(rest) / 2)
	if d := remaining - (src.Length() - 30000); d < -64 || d > 64 {
		t.Fatalf("read %d frames after seek, want about %d", remaining, src.Length()-30000)
	}
}

func TestRegisterCustomExtension(t *testing.T) {
	Register("RAWWAV", openWAV)

	path := testutil.WriteWAV(t, "tone.rawwav",
		testutil.WAVSpec{SampleRate: 44100, Channels: 2, BitDepth: 16},
		testutil.DC(0.5, 10, 2))
	info, err := Probe(path)
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if info.Frames != 10 {
		t.Fatalf("Frames = %d, want 10", info.Frames)
	}

	found := false
	for _, ext := range Extensions() {
		if ext == ".rawwav" {
			found = true
		}
	}
	if !found {
		t.Fatalf("Extensions() = %v, missing .rawwav", Extensions())
	}
}
