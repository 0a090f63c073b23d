package window_test

import (
	"fmt"

	"github.com/cwbudde/algo-fxplayer/dsp/window"
)

func ExampleGenerate() {
	w, err := window.Generate(window.Hann, 4)
	if err != nil {
		panic(err)
	}
	fmt.Printf("%.2f %.2f %.2f %.2f\n", w[0], w[1], w[2], w[3])
	// Output:
	// 0.00 0.50 1.00 0.50
}
