package effectchain

import (
	"github.com/cwbudde/algo-fxplayer/dsp/core"
	"github.com/cwbudde/algo-fxplayer/dsp/effects"
	"github.com/cwbudde/algo-fxplayer/dsp/resample"
)

// deadZone is the distance from identity below which a nominally enabled
// unit is left out of the chain.
const deadZone = 0.01

func negligible(v float64) bool {
	return core.WithinDeadZone(v, 0, deadZone)
}

// DefaultRegistry returns a Registry populated with the built-in units.
//
//nolint:funlen
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.MustRegister(KindTempo, func(ctx Context, s Settings) (effects.Unit, error) {
		if core.WithinDeadZone(s.Tempo, 1, deadZone) {
			return nil, nil
		}
		return effects.NewTempo(s.Tempo, resample.WithQuality(ctx.Quality))
	})
	r.MustRegister(KindPitch, func(_ Context, s Settings) (effects.Unit, error) {
		if negligible(s.Pitch) {
			return nil, nil
		}
		return effects.NewPitch(s.Pitch)
	})
	r.MustRegister(KindTremolo, func(_ Context, s Settings) (effects.Unit, error) {
		p := s.Tremolo
		if !p.Enabled || negligible(p.Depth) {
			return nil, nil
		}
		return effects.NewTremolo(
			effects.WithTremoloRateHz(p.Rate),
			effects.WithTremoloDepth(p.Depth),
		)
	})
	r.MustRegister(KindVibrato, func(_ Context, s Settings) (effects.Unit, error) {
		p := s.Vibrato
		if !p.Enabled || negligible(p.Depth) || negligible(p.Mix) {
			return nil, nil
		}
		return effects.NewVibrato(
			effects.WithVibratoRateHz(p.Rate),
			effects.WithVibratoDepth(p.Depth),
			effects.WithVibratoMix(p.Mix),
		)
	})
	r.MustRegister(KindGate, func(_ Context, s Settings) (effects.Unit, error) {
		p := s.Gate
		if !p.Enabled || negligible(p.Threshold) {
			return nil, nil
		}
		return effects.NewGate(
			effects.WithGateThreshold(p.Threshold),
			effects.WithGateRatio(p.Ratio),
			effects.WithGateAttackMs(p.Attack),
			effects.WithGateReleaseMs(p.Release),
			effects.WithGateFloor(p.Floor),
		)
	})
	r.MustRegister(KindCompressor, func(_ Context, s Settings) (effects.Unit, error) {
		p := s.Compressor
		if !p.Enabled || (core.WithinDeadZone(p.Ratio, 1, deadZone) && negligible(p.Makeup)) {
			return nil, nil
		}
		return effects.NewCompressor(
			effects.WithCompressorThresholdDB(p.Threshold),
			effects.WithCompressorRatio(p.Ratio),
			effects.WithCompressorAttackMs(p.Attack),
			effects.WithCompressorReleaseMs(p.Release),
			effects.WithCompressorMakeupDB(p.Makeup),
		)
	})
	r.MustRegister(KindSaturation, func(_ Context, s Settings) (effects.Unit, error) {
		p := s.Saturation
		if !p.Enabled || negligible(p.Mix) {
			return nil, nil
		}
		return effects.NewSaturation(shaperOptions(p)...)
	})
	r.MustRegister(KindDistortion, func(_ Context, s Settings) (effects.Unit, error) {
		p := s.Distortion
		if !p.Enabled || negligible(p.Mix) {
			return nil, nil
		}
		return effects.NewDistortion(shaperOptions(p)...)
	})
	r.MustRegister(KindBitcrusher, func(_ Context, s Settings) (effects.Unit, error) {
		p := s.Bitcrusher
		if !p.Enabled || negligible(p.Mix) || (p.BitDepth >= 16 && p.Downsample <= 1) {
			return nil, nil
		}
		return effects.NewBitcrusher(
			effects.WithBitDepth(p.BitDepth),
			effects.WithDownsample(p.Downsample),
			effects.WithBitcrusherMix(p.Mix),
		)
	})
	r.MustRegister(KindChorus, func(_ Context, s Settings) (effects.Unit, error) {
		p := s.Chorus
		if !p.Enabled || negligible(p.Mix) {
			return nil, nil
		}
		return effects.NewChorus(modOptions(p)...)
	})
	r.MustRegister(KindFlanger, func(_ Context, s Settings) (effects.Unit, error) {
		p := s.Flanger
		if !p.Enabled || negligible(p.Mix) {
			return nil, nil
		}
		return effects.NewFlanger(modOptions(p)...)
	})
	r.MustRegister(KindPhaser, func(_ Context, s Settings) (effects.Unit, error) {
		p := s.Phaser
		if !p.Enabled || negligible(p.Mix) {
			return nil, nil
		}
		return effects.NewPhaser(modOptions(p)...)
	})
	r.MustRegister(KindReverb, func(_ Context, s Settings) (effects.Unit, error) {
		p := s.Reverb
		if !p.Enabled || negligible(p.WetLevel) {
			return nil, nil
		}
		return effects.NewReverb(
			effects.WithRoomSize(p.RoomSize),
			effects.WithDamping(p.Damping),
			effects.WithReverbWet(p.WetLevel),
		)
	})
	r.MustRegister(KindEcho, func(_ Context, s Settings) (effects.Unit, error) {
		p := s.Echo
		if !p.Enabled || negligible(p.WetLevel) {
			return nil, nil
		}
		return effects.NewEcho(
			effects.WithEchoDelay(p.Delay),
			effects.WithEchoFeedback(p.Feedback),
			effects.WithEchoWet(p.WetLevel),
		)
	})
	r.MustRegister(KindFilter, func(_ Context, s Settings) (effects.Unit, error) {
		p := s.Filter
		if !p.Enabled || (negligible(p.LowGain) && negligible(p.MidGain) && negligible(p.HighGain)) {
			return nil, nil
		}
		return effects.NewFilter(
			effects.WithLowCutHz(p.LowCut),
			effects.WithHighCutHz(p.HighCut),
			effects.WithBandGainsDB(p.LowGain, p.MidGain, p.HighGain),
		)
	})
	r.MustRegister(KindVolume, func(_ Context, s Settings) (effects.Unit, error) {
		if core.WithinDeadZone(s.Volume, 1, deadZone) {
			return nil, nil
		}
		return effects.NewVolume(s.Volume)
	})

	return r
}

func shaperOptions(p ShaperParams) []effects.ShaperOption {
	return []effects.ShaperOption{
		effects.WithDrive(p.Drive),
		effects.WithTone(p.Tone),
		effects.WithShaperMix(p.Mix),
	}
}

func modOptions(p ModParams) []effects.ModOption {
	return []effects.ModOption{
		effects.WithModRateHz(p.Rate),
		effects.WithModDepth(p.Depth),
		effects.WithModFeedback(p.Feedback),
		effects.WithModMix(p.Mix),
	}
}
