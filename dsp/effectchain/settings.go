package effectchain

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-fxplayer/dsp/core"
	"github.com/cwbudde/algo-fxplayer/dsp/effects"
)

// TremoloParams configures the tremolo unit.
type TremoloParams struct {
	Enabled bool    `json:"enabled" yaml:"enabled"`
	Rate    float64 `json:"rate" yaml:"rate"`
	Depth   float64 `json:"depth" yaml:"depth"`
}

// VibratoParams configures the vibrato unit. Depth is in semitones.
type VibratoParams struct {
	Enabled bool    `json:"enabled" yaml:"enabled"`
	Rate    float64 `json:"rate" yaml:"rate"`
	Depth   float64 `json:"depth" yaml:"depth"`
	Mix     float64 `json:"mix" yaml:"mix"`
}

// GateParams configures the noise gate. Attack and Release are in ms.
type GateParams struct {
	Enabled   bool    `json:"enabled" yaml:"enabled"`
	Threshold float64 `json:"threshold" yaml:"threshold"`
	Ratio     float64 `json:"ratio" yaml:"ratio"`
	Attack    float64 `json:"attack" yaml:"attack"`
	Release   float64 `json:"release" yaml:"release"`
	Floor     float64 `json:"floor" yaml:"floor"`
}

// CompressorParams configures the compressor. Threshold and Makeup are in
// dB, Attack and Release in ms.
type CompressorParams struct {
	Enabled   bool    `json:"enabled" yaml:"enabled"`
	Threshold float64 `json:"threshold" yaml:"threshold"`
	Ratio     float64 `json:"ratio" yaml:"ratio"`
	Attack    float64 `json:"attack" yaml:"attack"`
	Release   float64 `json:"release" yaml:"release"`
	Makeup    float64 `json:"makeup" yaml:"makeup"`
}

// ShaperParams configures saturation and distortion.
type ShaperParams struct {
	Enabled bool    `json:"enabled" yaml:"enabled"`
	Drive   float64 `json:"drive" yaml:"drive"`
	Tone    float64 `json:"tone" yaml:"tone"`
	Mix     float64 `json:"mix" yaml:"mix"`
}

// BitcrusherParams configures the bitcrusher.
type BitcrusherParams struct {
	Enabled    bool    `json:"enabled" yaml:"enabled"`
	BitDepth   int     `json:"bitDepth" yaml:"bitDepth"`
	Downsample int     `json:"downsample" yaml:"downsample"`
	Mix        float64 `json:"mix" yaml:"mix"`
}

// ModParams configures chorus, flanger and phaser. Chorus ignores Feedback.
type ModParams struct {
	Enabled  bool    `json:"enabled" yaml:"enabled"`
	Rate     float64 `json:"rate" yaml:"rate"`
	Depth    float64 `json:"depth" yaml:"depth"`
	Feedback float64 `json:"feedback,omitempty" yaml:"feedback,omitempty"`
	Mix      float64 `json:"mix" yaml:"mix"`
}

// ReverbParams configures the reverb.
type ReverbParams struct {
	Enabled  bool    `json:"enabled" yaml:"enabled"`
	RoomSize float64 `json:"roomSize" yaml:"roomSize"`
	Damping  float64 `json:"damping" yaml:"damping"`
	WetLevel float64 `json:"wetLevel" yaml:"wetLevel"`
}

// EchoParams configures the echo. Delay is in seconds.
type EchoParams struct {
	Enabled  bool    `json:"enabled" yaml:"enabled"`
	Delay    float64 `json:"delay" yaml:"delay"`
	Feedback float64 `json:"feedback" yaml:"feedback"`
	WetLevel float64 `json:"wetLevel" yaml:"wetLevel"`
}

// FilterParams configures the three-band filter. Cut-offs are in Hz and
// gains in dB.
type FilterParams struct {
	Enabled  bool    `json:"enabled" yaml:"enabled"`
	LowCut   float64 `json:"lowCut" yaml:"lowCut"`
	HighCut  float64 `json:"highCut" yaml:"highCut"`
	LowGain  float64 `json:"lowGain" yaml:"lowGain"`
	MidGain  float64 `json:"midGain" yaml:"midGain"`
	HighGain float64 `json:"highGain" yaml:"highGain"`
}

// Settings is one complete snapshot of the chain parameters. It is a plain
// value: copies never share state.
type Settings struct {
	Tempo     float64 `json:"tempo" yaml:"tempo"`
	Pitch     float64 `json:"pitch" yaml:"pitch"`
	Volume    float64 `json:"volume" yaml:"volume"`
	Reasoning string  `json:"reasoning,omitempty" yaml:"reasoning,omitempty"`

	Tremolo    TremoloParams    `json:"tremolo" yaml:"tremolo"`
	Vibrato    VibratoParams    `json:"vibrato" yaml:"vibrato"`
	Gate       GateParams       `json:"gate" yaml:"gate"`
	Compressor CompressorParams `json:"compressor" yaml:"compressor"`
	Saturation ShaperParams     `json:"saturation" yaml:"saturation"`
	Distortion ShaperParams     `json:"distortion" yaml:"distortion"`
	Bitcrusher BitcrusherParams `json:"bitcrusher" yaml:"bitcrusher"`
	Chorus     ModParams        `json:"chorus" yaml:"chorus"`
	Flanger    ModParams        `json:"flanger" yaml:"flanger"`
	Phaser     ModParams        `json:"phaser" yaml:"phaser"`
	Reverb     ReverbParams     `json:"reverb" yaml:"reverb"`
	Echo       EchoParams       `json:"echo" yaml:"echo"`
	Filter     FilterParams     `json:"filter" yaml:"filter"`
}

// DefaultSettings returns the neutral snapshot: unity tempo, pitch and
// volume with every effect disabled at its default parameters.
func DefaultSettings() Settings {
	return Settings{
		Tempo:  1,
		Pitch:  0,
		Volume: 1,

		Tremolo:    TremoloParams{Rate: 5, Depth: 0.5},
		Vibrato:    VibratoParams{Rate: 5, Depth: 0.5, Mix: 1},
		Gate:       GateParams{Threshold: 0.05, Ratio: 10, Attack: 1, Release: 100},
		Compressor: CompressorParams{Threshold: -20, Ratio: 4, Attack: 10, Release: 100},
		Saturation: ShaperParams{Drive: 0.5, Tone: 0.5, Mix: 1},
		Distortion: ShaperParams{Drive: 0.5, Tone: 0.5, Mix: 1},
		Bitcrusher: BitcrusherParams{BitDepth: 8, Downsample: 1, Mix: 1},
		Chorus:     ModParams{Rate: 1.5, Depth: 0.5, Mix: 0.5},
		Flanger:    ModParams{Rate: 0.5, Depth: 0.5, Feedback: 0.5, Mix: 0.5},
		Phaser:     ModParams{Rate: 0.5, Depth: 0.5, Feedback: 0.3, Mix: 0.5},
		Reverb:     ReverbParams{RoomSize: 0.5, Damping: 0.5, WetLevel: 0.3},
		Echo:       EchoParams{Delay: 0.25, Feedback: 0.3, WetLevel: 0.3},
		Filter:     FilterParams{LowCut: 200, HighCut: 5000},
	}
}

// Clamp pins every field into its valid range. NaN falls back to the
// default for that field.
func (s *Settings) Clamp() {
	d := DefaultSettings()

	s.Tempo = core.ClampFinite(s.Tempo, effects.MinTempo, effects.MaxTempo, d.Tempo)
	s.Pitch = core.ClampFinite(s.Pitch, -24, 24, d.Pitch)
	s.Volume = core.ClampFinite(s.Volume, 0, effects.MaxVolume, d.Volume)

	t := &s.Tremolo
	t.Rate = core.ClampFinite(t.Rate, 0.1, 10, d.Tremolo.Rate)
	t.Depth = core.ClampFinite(t.Depth, 0, 1, d.Tremolo.Depth)

	v := &s.Vibrato
	v.Rate = core.ClampFinite(v.Rate, 0.1, 10, d.Vibrato.Rate)
	v.Depth = core.ClampFinite(v.Depth, 0, 2, d.Vibrato.Depth)
	v.Mix = core.ClampFinite(v.Mix, 0, 1, d.Vibrato.Mix)

	g := &s.Gate
	g.Threshold = core.ClampFinite(g.Threshold, 0, 1, d.Gate.Threshold)
	g.Ratio = core.ClampFinite(g.Ratio, 1, 100, d.Gate.Ratio)
	g.Attack = core.ClampFinite(g.Attack, 0.1, 1000, d.Gate.Attack)
	g.Release = core.ClampFinite(g.Release, 1, 5000, d.Gate.Release)
	g.Floor = core.ClampFinite(g.Floor, 0, 1, d.Gate.Floor)

	c := &s.Compressor
	c.Threshold = core.ClampFinite(c.Threshold, -60, 0, d.Compressor.Threshold)
	c.Ratio = core.ClampFinite(c.Ratio, 1, 20, d.Compressor.Ratio)
	c.Attack = core.ClampFinite(c.Attack, 0.1, 1000, d.Compressor.Attack)
	c.Release = core.ClampFinite(c.Release, 1, 5000, d.Compressor.Release)
	c.Makeup = core.ClampFinite(c.Makeup, 0, 12, d.Compressor.Makeup)

	clampShaper(&s.Saturation, d.Saturation)
	clampShaper(&s.Distortion, d.Distortion)

	b := &s.Bitcrusher
	b.BitDepth = min(max(b.BitDepth, 1), 16)
	b.Downsample = min(max(b.Downsample, 1), 64)
	b.Mix = core.ClampFinite(b.Mix, 0, 1, d.Bitcrusher.Mix)

	clampMod(&s.Chorus, d.Chorus)
	clampMod(&s.Flanger, d.Flanger)
	clampMod(&s.Phaser, d.Phaser)

	r := &s.Reverb
	r.RoomSize = core.ClampFinite(r.RoomSize, 0, 1, d.Reverb.RoomSize)
	r.Damping = core.ClampFinite(r.Damping, 0, 1, d.Reverb.Damping)
	r.WetLevel = core.ClampFinite(r.WetLevel, 0, 1, d.Reverb.WetLevel)

	e := &s.Echo
	e.Delay = core.ClampFinite(e.Delay, 0.001, 2, d.Echo.Delay)
	e.Feedback = core.ClampFinite(e.Feedback, 0, 0.95, d.Echo.Feedback)
	e.WetLevel = core.ClampFinite(e.WetLevel, 0, 1, d.Echo.WetLevel)

	f := &s.Filter
	f.LowCut = core.ClampFinite(f.LowCut, 20, 2000, d.Filter.LowCut)
	f.HighCut = core.ClampFinite(f.HighCut, 1000, 20000, d.Filter.HighCut)
	f.LowGain = core.ClampFinite(f.LowGain, -24, 24, 0)
	f.MidGain = core.ClampFinite(f.MidGain, -24, 24, 0)
	f.HighGain = core.ClampFinite(f.HighGain, -24, 24, 0)
}

func clampShaper(p *ShaperParams, d ShaperParams) {
	p.Drive = core.ClampFinite(p.Drive, 0, 1, d.Drive)
	p.Tone = core.ClampFinite(p.Tone, 0, 1, d.Tone)
	p.Mix = core.ClampFinite(p.Mix, 0, 1, d.Mix)
}

func clampMod(p *ModParams, d ModParams) {
	p.Rate = core.ClampFinite(p.Rate, 0.1, 5, d.Rate)
	p.Depth = core.ClampFinite(p.Depth, 0, 1, d.Depth)
	p.Feedback = core.ClampFinite(p.Feedback, -1, 1, d.Feedback)
	p.Mix = core.ClampFinite(p.Mix, 0, 1, d.Mix)
}

// Clamped returns a clamped copy of s.
func (s Settings) Clamped() Settings {
	s.Clamp()
	return s
}

// Equal reports whether two snapshots carry identical values.
func (s Settings) Equal(other Settings) bool {
	return s == other
}

// Merge applies a JSON document on top of s. Fields missing from partial
// keep their current value; the result is clamped. On error s is left
// unchanged.
func (s *Settings) Merge(partial []byte) error {
	next := *s
	if err := json.Unmarshal(partial, &next); err != nil {
		return fmt.Errorf("merge settings: %w", err)
	}
	next.Clamp()
	*s = next
	return nil
}

// ParseJSON decodes a settings document over DefaultSettings.
func ParseJSON(data []byte) (Settings, error) {
	s := DefaultSettings()
	if err := s.Merge(data); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// ReadYAML decodes a YAML settings file over DefaultSettings.
func ReadYAML(r io.Reader) (Settings, error) {
	s := DefaultSettings()
	if err := yaml.NewDecoder(r).Decode(&s); err != nil && err != io.EOF {
		return Settings{}, fmt.Errorf("decode settings yaml: %w", err)
	}
	s.Clamp()
	return s, nil
}

// WriteYAML encodes s as YAML.
func (s Settings) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode settings yaml: %w", err)
	}
	return enc.Close()
}
