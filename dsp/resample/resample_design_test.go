package resample

import (
	"math"
	"testing"
)

// tempoMaxDen matches the denominator cap the tempo unit passes in.
const tempoMaxDen = 1000

func TestTempoMultiplierRatios(t *testing.T) {
	tests := []struct {
		mult     float64
		up, down int
	}{
		{mult: 0.01, up: 100, down: 1},
		{mult: 0.5, up: 2, down: 1},
		{mult: 0.75, up: 4, down: 3},
		{mult: 1.25, up: 4, down: 5},
		{mult: 1.5, up: 2, down: 3},
		{mult: 2, up: 1, down: 2},
		{mult: 4, up: 1, down: 4},
	}

	for _, tc := range tests {
		r, err := NewForRates(tc.mult, 1, WithMaxDenominator(tempoMaxDen))
		if err != nil {
			t.Fatalf("NewForRates(%g, 1) error = %v", tc.mult, err)
		}
		up, down := r.Ratio()
		if up != tc.up || down != tc.down {
			t.Fatalf("tempo %g: ratio = %d/%d, want %d/%d", tc.mult, up, down, tc.up, tc.down)
		}
	}
}

func TestTempoRatioDenominatorCap(t *testing.T) {
	// Multipliers typed on a slider rarely reduce to small fractions.
	for _, mult := range []float64{1.0 / 1.0594630943592953, math.Sqrt2, 0.37, 3.14159} {
		num, den := approximateRatio(1/mult, tempoMaxDen)
		if den > tempoMaxDen {
			t.Fatalf("tempo %g: denominator %d exceeds %d", mult, den, tempoMaxDen)
		}
		got := float64(num) / float64(den)
		if rel := math.Abs(got*mult - 1); rel > 1e-5 {
			t.Fatalf("tempo %g: %d/%d is off by %.2g", mult, num, den, rel)
		}
	}
}

func TestPolyphaseBranchesHaveUnityGain(t *testing.T) {
	for _, q := range []Quality{QualityFast, QualityBalanced, QualityBest} {
		p := QualityProfile(q)
		// Tempo 0.75 upsamples by 4/3.
		phases, nTaps, err := designPolyphaseFIR(4, 3, p)
		if err != nil {
			t.Fatalf("%v: designPolyphaseFIR() error = %v", q, err)
		}
		if len(phases) != 4 || nTaps != 4*p.TapsPerPhase {
			t.Fatalf("%v: %d phases, %d taps, want 4 phases, %d taps", q, len(phases), nTaps, 4*p.TapsPerPhase)
		}
		for ph, branch := range phases {
			var sum float64
			for _, c := range branch {
				sum += c
			}
			if math.Abs(sum-1) > 1e-3 {
				t.Fatalf("%v: phase %d DC gain = %.4f, want 1", q, ph, sum)
			}
		}
	}
}

// At tempo 2 the source is read at twice its rate, so any content above a
// quarter of the canonical rate would fold back after decimation.
func TestQualityModesAtDoubleTempo(t *testing.T) {
	const rate = 44100

	tests := []struct {
		name          string
		quality       Quality
		maxPassbandDB float64
		minStopbandDB float64
	}{
		{name: "fast", quality: QualityFast, maxPassbandDB: 0.7, minStopbandDB: 20},
		{name: "balanced", quality: QualityBalanced, maxPassbandDB: 0.35, minStopbandDB: 35},
		{name: "best", quality: QualityBest, maxPassbandDB: 0.2, minStopbandDB: 50},
	}

	for _, tc := range tests {
		newTempo := func() *Resampler {
			r, err := NewForRates(2, 1, WithQuality(tc.quality), WithMaxDenominator(tempoMaxDen))
			if err != nil {
				t.Fatalf("%s: NewForRates() error = %v", tc.name, err)
			}
			return r
		}

		inPass := sine(1800, rate, 32768)
		inStop := sine(15600, rate, 32768)

		outPass := newTempo().Process(inPass)
		outStop := newTempo().Process(inStop)

		passbandDB := math.Abs(dbRatio(rms(outPass[2048:]), rms(inPass[4096:])))
		if passbandDB > tc.maxPassbandDB {
			t.Fatalf("%s: passband droop %.2f dB > %.2f dB", tc.name, passbandDB, tc.maxPassbandDB)
		}

		stopAttenDB := -dbRatio(rms(outStop[2048:]), rms(inStop[4096:]))
		if stopAttenDB < tc.minStopbandDB {
			t.Fatalf("%s: stopband attenuation %.2f dB < %.2f dB", tc.name, stopAttenDB, tc.minStopbandDB)
		}
	}
}
