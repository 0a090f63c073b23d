package testutil

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	wavFormatPCM   = 1
	wavFormatFloat = 3
)

// WAVSpec describes a fixture file.
type WAVSpec struct {
	SampleRate int
	Channels   int
	// BitDepth is 8, 16, 24 or 32. Float selects IEEE float for 32 bits.
	BitDepth int
	Float    bool
}

// WriteWAV writes interleaved samples in [-1, 1] to a new file named name
// inside a per-test temporary directory and returns its path.
func WriteWAV(t testing.TB, name string, spec WAVSpec, samples []float32) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create fixture: %v", err)
	}
	defer f.Close()

	format := wavFormatPCM
	if spec.Float {
		format = wavFormatFloat
	}
	enc := wav.NewEncoder(f, spec.SampleRate, spec.BitDepth, spec.Channels, format)

	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: spec.Channels, SampleRate: spec.SampleRate},
		Data:           make([]int, len(samples)),
		SourceBitDepth: spec.BitDepth,
	}
	for i, v := range samples {
		buf.Data[i] = quantize(v, spec)
	}

	if err := enc.Write(buf); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close fixture: %v", err)
	}
	return path
}

func quantize(v float32, spec WAVSpec) int {
	if spec.Float {
		return int(int32(math.Float32bits(v)))
	}
	x := math.Max(-1, math.Min(1, float64(v)))
	switch spec.BitDepth {
	case 8:
		return int(math.Round(x*127)) + 128
	default:
		full := float64(int64(1)<<(spec.BitDepth-1)) - 1
		return int(math.Round(x * full))
	}
}
