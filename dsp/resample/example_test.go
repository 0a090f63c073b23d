package resample_test

import (
	"fmt"

	"github.com/cwbudde/algo-fxplayer/dsp/resample"
)

func ExampleNewForRates() {
	r, _ := resample.NewForRates(44100, 48000, resample.WithQuality(resample.QualityBest))
	up, down := r.Ratio()
	fmt.Printf("ratio=%d/%d\n", up, down)
	// Output:
	// ratio=160/147
}

func ExampleResampler_Process() {
	r, _ := resample.NewRational(2, 1)
	out := r.Process([]float64{0, 1, 0, -1, 0, 1, 0, -1})
	fmt.Printf("out=%d\n", len(out))
	// Output:
	// out=16
}
