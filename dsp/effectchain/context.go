package effectchain

import "github.com/cwbudde/algo-fxplayer/dsp/resample"

// Context carries build-time choices that are not part of a Settings
// snapshot.
type Context struct {
	// Quality selects the resampler used by the tempo unit.
	Quality resample.Quality
}
