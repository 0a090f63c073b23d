package meter

import (
	"errors"
	"io"
	"math"
	"testing"

	"github.com/cwbudde/algo-fxplayer/audio"
	"github.com/cwbudde/algo-fxplayer/dsp/window"
)

func feed(t *testing.T, tap *Tap, samples []float32) {
	t.Helper()

	src, err := audio.NewMemory(audio.Canonical, samples)
	if err != nil {
		t.Fatal(err)
	}
	s := tap.Wrap(src)
	buf := make([]float32, 333)
	for {
		_, err := s.Read(buf)
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			t.Fatal(err)
		}
	}
}

func TestTapRoundsCapacity(t *testing.T) {
	tap, err := NewTap(1000)
	if err != nil {
		t.Fatal(err)
	}
	if tap.Len() != 1024 {
		t.Fatalf("Len() = %d, want 1024", tap.Len())
	}
	if _, err := NewTap(0); err == nil {
		t.Fatal("expected error for zero capacity")
	}
}

func TestTapSnapshotKeepsNewestFrames(t *testing.T) {
	tap, _ := NewTap(8)
	samples := make([]float32, 40)
	for i := 0; i < 20; i++ {
		samples[2*i] = float32(i)
		samples[2*i+1] = float32(i)
	}
	feed(t, tap, samples)

	if tap.Written() != 20 {
		t.Fatalf("Written() = %d, want 20", tap.Written())
	}

	dst := make([]float64, 4)
	if n := tap.Snapshot(dst); n != 4 {
		t.Fatalf("Snapshot() = %d, want 4", n)
	}
	for i, want := range []float64{16, 17, 18, 19} {
		if dst[i] != want {
			t.Fatalf("dst[%d] = %v, want %v", i, dst[i], want)
		}
	}
}

func TestAnalyzerLevels(t *testing.T) {
	tap, _ := NewTap(4096)
	a, err := NewAnalyzer(tap, 1024, 44100)
	if err != nil {
		t.Fatalf("NewAnalyzer() error = %v", err)
	}

	if l := a.Levels(); l.PeakDB != FloorDB {
		t.Fatalf("silent PeakDB = %v, want floor", l.PeakDB)
	}

	samples := make([]float32, 2*4096)
	for i := 0; i < 4096; i++ {
		v := float32(0.5 * math.Sin(2*math.Pi*1000*float64(i)/44100))
		samples[2*i], samples[2*i+1] = v, v
	}
	feed(t, tap, samples)

	l := a.Levels()
	if math.Abs(l.PeakDB-20*math.Log10(0.5)) > 0.1 {
		t.Fatalf("PeakDB = %v, want ~-6.02", l.PeakDB)
	}
	if math.Abs(l.RMSDB-20*math.Log10(0.5/math.Sqrt2)) > 0.2 {
		t.Fatalf("RMSDB = %v, want ~-9.03", l.RMSDB)
	}
}

func TestAnalyzerSpectrumPeak(t *testing.T) {
	tap, _ := NewTap(2048)
	a, err := NewAnalyzer(tap, 2048, 44100)
	if err != nil {
		t.Fatal(err)
	}

	// Bin-centred tone so the peak lands in one bin.
	bin := 93
	freq := float64(bin) * a.BinHz()
	samples := make([]float32, 2*2048)
	for i := 0; i < 2048; i++ {
		v := float32(0.25 * math.Sin(2*math.Pi*freq*float64(i)/44100))
		samples[2*i], samples[2*i+1] = v, v
	}
	feed(t, tap, samples)

	spec := a.Spectrum()
	if len(spec) != 1025 {
		t.Fatalf("len(Spectrum) = %d, want 1025", len(spec))
	}

	best := 0
	for k := range spec {
		if spec[k] > spec[best] {
			best = k
		}
	}
	if best != bin {
		t.Fatalf("spectrum peak at bin %d, want %d", best, bin)
	}
	if math.Abs(spec[bin]-20*math.Log10(0.25)) > 0.5 {
		t.Fatalf("peak level = %v dB, want ~-12", spec[bin])
	}
}

func TestAnalyzerFlatTopOffBin(t *testing.T) {
	tap, _ := NewTap(2048)
	a, err := NewAnalyzer(tap, 2048, 44100, WithWindow(window.FlatTop))
	if err != nil {
		t.Fatal(err)
	}

	// Half a bin off centre, where Hann would lose about 1.4 dB.
	freq := 93.5 * a.BinHz()
	samples := make([]float32, 2*2048)
	for i := 0; i < 2048; i++ {
		v := float32(0.25 * math.Sin(2*math.Pi*freq*float64(i)/44100))
		samples[2*i], samples[2*i+1] = v, v
	}
	feed(t, tap, samples)

	spec := a.Spectrum()
	peak := FloorDB
	for _, v := range spec {
		peak = math.Max(peak, v)
	}
	if math.Abs(peak-20*math.Log10(0.25)) > 0.1 {
		t.Fatalf("flat-top peak = %v dB, want ~-12.04", peak)
	}
}

func TestNewAnalyzerValidation(t *testing.T) {
	tap, _ := NewTap(16)
	if _, err := NewAnalyzer(tap, 1000, 44100); err == nil {
		t.Fatal("expected error for non power-of-two size")
	}
	if _, err := NewAnalyzer(nil, 1024, 44100); err == nil {
		t.Fatal("expected error for nil tap")
	}
	if _, err := NewAnalyzer(tap, 1024, 44100, WithWindow(window.Type(-1))); err == nil {
		t.Fatal("expected error for unknown window")
	}
}
