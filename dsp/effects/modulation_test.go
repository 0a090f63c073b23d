package effects

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-fxplayer/audio"
)

func impulseTrain(t *testing.T, frames, spacing int) *audio.Memory {
	t.Helper()

	buf := make([]float32, frames*2)
	for i := 0; i < frames; i += spacing {
		buf[2*i], buf[2*i+1] = 1, 1
	}
	m, err := audio.NewMemory(audio.Canonical, buf)
	if err != nil {
		t.Fatalf("NewMemory() error = %v", err)
	}
	return m
}

// tapDistances returns, per impulse of a train, the weighted mean distance
// in frames between the impulse and the left-channel output it produced.
func tapDistances(out []float32, spacing int) []float64 {
	var dists []float64
	frames := len(out) / 2
	for start := 0; start+spacing <= frames; start += spacing {
		var sum, weight float64
		for k := start; k < start+spacing; k++ {
			w := math.Abs(float64(out[2*k]))
			sum += w * float64(k-start)
			weight += w
		}
		if weight > 0 {
			dists = append(dists, sum/weight)
		}
	}
	return dists
}

func minMax(v []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, x := range v {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	return lo, hi
}

func TestSweptDelayTapsStayInWindow(t *testing.T) {
	t.Parallel()

	sr := float64(audio.Canonical.SampleRate)
	tests := []struct {
		name     string
		newUnit  func() (Unit, error)
		min, max float64
	}{
		{"chorus", func() (Unit, error) {
			return NewChorus(WithModDepth(1), WithModMix(1), WithModRateHz(5))
		}, chorusMinDelayS, chorusMaxDelayS},
		{"flanger", func() (Unit, error) {
			return NewFlanger(WithModDepth(1), WithModMix(1), WithModRateHz(5))
		}, flangerMinDelayS, flangerMaxDelayS},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			u, err := tt.newUnit()
			if err != nil {
				t.Fatalf("constructor error = %v", err)
			}
			const spacing = 2000
			out := drain(t, u.Apply(impulseTrain(t, 40*spacing, spacing)), 4096)

			lo, hi := minMax(tapDistances(out, spacing))
			wantLo, wantHi := tt.min*sr, tt.max*sr
			if lo < wantLo-1 || hi > wantHi+1 {
				t.Fatalf("tap distances span [%.2f, %.2f], want inside [%.2f, %.2f]", lo, hi, wantLo, wantHi)
			}
			// The sweep must actually reach most of the window.
			if span := hi - lo; span < 0.9*(wantHi-wantLo) {
				t.Fatalf("tap distances span %.2f frames, want about %.2f", span, wantHi-wantLo)
			}
		})
	}
}

func TestChorusFixedTapInterpolates(t *testing.T) {
	t.Parallel()

	c, err := NewChorus(WithModDepth(0), WithModMix(1))
	if err != nil {
		t.Fatalf("NewChorus() error = %v", err)
	}
	out := drain(t, c.Apply(impulse(t, 2000)), 1024)

	// 17.5 ms at 44.1 kHz is 771.75 frames.
	if got := out[2*771]; math.Abs(float64(got)-0.25) > 1e-6 {
		t.Fatalf("frame 771 = %g, want 0.25", got)
	}
	if got := out[2*772]; math.Abs(float64(got)-0.75) > 1e-6 {
		t.Fatalf("frame 772 = %g, want 0.75", got)
	}
	if got := out[2*773]; got != 0 {
		t.Fatalf("frame 773 = %g, want 0", got)
	}
}

func TestFlangerFeedbackReentersDelay(t *testing.T) {
	t.Parallel()

	// 10.5 ms at 44.1 kHz puts the fixed tap at 463.05 frames.
	clusterSum := func(out []float32, echo int) float64 {
		var sum float64
		for k := echo*463 - 20; k < echo*463+20; k++ {
			sum += float64(out[2*k])
		}
		return sum
	}

	tests := []struct {
		feedback float64
	}{
		{0}, {0.5}, {1}, {-0.5},
	}
	for _, tt := range tests {
		f, err := NewFlanger(WithModDepth(0), WithModMix(1), WithModFeedback(tt.feedback))
		if err != nil {
			t.Fatalf("NewFlanger() error = %v", err)
		}
		out := drain(t, f.Apply(impulse(t, 2000)), 1024)

		loop := tt.feedback * maxModFeedback
		for echo, want := range []float64{1, loop, loop * loop} {
			if got := clusterSum(out, echo+1); math.Abs(got-want) > 1e-6 {
				t.Fatalf("feedback %g: echo %d sums to %g, want %g", tt.feedback, echo+1, got, want)
			}
		}
	}
}

func TestVibratoSwingPerSemitone(t *testing.T) {
	t.Parallel()

	window := float64(int(vibratoWindowSeconds * float64(audio.Canonical.SampleRate)))
	for _, depth := range []float64{0.5, 1, 2} {
		v, err := NewVibrato(WithVibratoDepth(depth), WithVibratoMix(1))
		if err != nil {
			t.Fatalf("NewVibrato() error = %v", err)
		}
		const spacing = 1000
		out := drain(t, v.Apply(impulseTrain(t, 60*spacing, spacing)), 4096)

		lo, hi := minMax(tapDistances(out, spacing))
		want := depth * vibratoSwingPerSemitone * window
		if got := (hi - lo) / 2; math.Abs(got-want) > 0.02*want+0.5 {
			t.Fatalf("depth %g: swing = %.2f frames, want %.2f", depth, got, want)
		}
		// The tap is read after the write, one frame short of the centre.
		if mid := (hi + lo) / 2; math.Abs(mid-(window/2-1)) > 1 {
			t.Fatalf("depth %g: centre = %.2f frames, want %.2f", depth, mid, window/2-1)
		}
	}
}

func TestPhaserAllPassKeepsEnergy(t *testing.T) {
	t.Parallel()

	p, err := NewPhaser(WithModDepth(0), WithModMix(1), WithModFeedback(0))
	if err != nil {
		t.Fatalf("NewPhaser() error = %v", err)
	}
	out := drain(t, p.Apply(impulse(t, 8192)), 1024)

	var energy float64
	for k := 0; k < len(out)/2; k++ {
		energy += float64(out[2*k]) * float64(out[2*k])
	}
	if math.Abs(energy-1) > 1e-4 {
		t.Fatalf("impulse response energy = %g, want 1", energy)
	}
	if out[0] == 1 {
		t.Fatal("all-pass chain passed the impulse through unchanged")
	}
}

func TestPhaserKeepsSineLevel(t *testing.T) {
	t.Parallel()

	for _, freq := range []float64{100, 1000, 8000} {
		p, err := NewPhaser(WithModDepth(0), WithModMix(1))
		if err != nil {
			t.Fatalf("NewPhaser() error = %v", err)
		}
		out := drain(t, p.Apply(stereoSine(t, 16384, freq, 0.5)), 4096)

		var peak float64
		for k := 8192; k < len(out)/2; k++ {
			peak = math.Max(peak, math.Abs(float64(out[2*k])))
		}
		if math.Abs(peak-0.5) > 0.005 {
			t.Fatalf("%g Hz: peak = %g, want 0.5", freq, peak)
		}
	}
}
