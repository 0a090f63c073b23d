package audio

// Remix returns a stream with the given channel count. Mono input is
// copied to every output channel; wider input is folded by averaging
// every channel whose index is congruent to the output channel modulo
// channels, so stereo to mono averages L and R. s is returned unchanged
// when it already has the requested count.
func Remix(s Stream, channels int) Stream {
	f := s.Format()
	if f.Channels == channels || channels <= 0 {
		return s
	}
	return &remixStream{
		src:    s,
		in:     f.Channels,
		format: Format{SampleRate: f.SampleRate, Channels: channels, Encoding: f.Encoding},
	}
}

type remixStream struct {
	src     Stream
	in      int
	format  Format
	scratch []float32
}

func (r *remixStream) Format() Format { return r.format }

func (r *remixStream) Read(buf []float32) (int, error) {
	out := r.format.Channels
	frames := len(buf) / out
	if frames == 0 {
		return 0, nil
	}

	if cap(r.scratch) < frames*r.in {
		r.scratch = make([]float32, frames*r.in)
	}
	in := r.scratch[:frames*r.in]
	n, err := r.src.Read(in)
	got := n / r.in

	for i := 0; i < got; i++ {
		mixFrame(buf[i*out:(i+1)*out], in[i*r.in:(i+1)*r.in])
	}
	return got * out, err
}

func mixFrame(dst, frame []float32) {
	if len(frame) == 1 {
		for ch := range dst {
			dst[ch] = frame[0]
		}
		return
	}
	for ch := range dst {
		var sum float32
		count := 0
		for i := ch; i < len(frame); i += len(dst) {
			sum += frame[i]
			count++
		}
		if count == 0 {
			// More outputs than inputs: wrap around.
			dst[ch] = frame[ch%len(frame)]
			continue
		}
		dst[ch] = sum / float32(count)
	}
}
