package window

import (
	"math"
	"testing"
)

func TestGenerate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		typ  Type
		gain float64
		enbw float64
	}{
		{Rectangular, 1, 1},
		{Hann, 0.5, 1.5},
		{Hamming, 0.54, 1.3628},
		{Blackman, 0.42, 1.7268},
		{BlackmanHarris, 0.35875, 2.0044},
		{FlatTop, 0.21557895, 3.7702},
	}
	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			t.Parallel()
			w, err := Generate(tt.typ, 1024)
			if err != nil {
				t.Fatalf("Generate() error = %v", err)
			}
			if got := CoherentGain(w); math.Abs(got-tt.gain) > 1e-9 {
				t.Fatalf("CoherentGain() = %v, want %v", got, tt.gain)
			}
			if got := ENBW(w); math.Abs(got-tt.enbw) > 1e-3 {
				t.Fatalf("ENBW() = %v, want %v", got, tt.enbw)
			}
		})
	}
}

func TestGeneratePeriodicHann(t *testing.T) {
	t.Parallel()

	w, err := Generate(Hann, 8)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if w[0] != 0 {
		t.Fatalf("w[0] = %v, want 0", w[0])
	}
	if math.Abs(w[4]-1) > 1e-12 {
		t.Fatalf("w[4] = %v, want 1", w[4])
	}
	for n := 1; n < 4; n++ {
		if math.Abs(w[n]-w[8-n]) > 1e-12 {
			t.Fatalf("w[%d] = %v, w[%d] = %v, want symmetric", n, w[n], 8-n, w[8-n])
		}
	}
}

func TestGenerateErrors(t *testing.T) {
	t.Parallel()

	if _, err := Generate(Hann, 0); err == nil {
		t.Fatal("Generate(size 0) error = nil")
	}
	if _, err := Generate(Type(99), 16); err == nil {
		t.Fatal("Generate(bad type) error = nil")
	}
}

func TestParseType(t *testing.T) {
	t.Parallel()

	for i := range typeCount {
		got, err := ParseType(i.String())
		if err != nil || got != i {
			t.Fatalf("ParseType(%q) = %v, %v", i.String(), got, err)
		}
	}
	if got, _ := ParseType(" Blackman-Harris "); got != BlackmanHarris {
		t.Fatalf("ParseType() = %v, want blackman-harris", got)
	}
	if _, err := ParseType("kaiser"); err == nil {
		t.Fatal("ParseType(kaiser) error = nil")
	}
}
