package effectchain

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/cwbudde/algo-fxplayer/dsp/effects"
)

func TestDefaultSettingsAreClamped(t *testing.T) {
	t.Parallel()

	d := DefaultSettings()
	if !d.Clamped().Equal(d) {
		t.Fatalf("DefaultSettings() changes under Clamp: %+v", d.Clamped())
	}
}

func TestClampPinsRanges(t *testing.T) {
	t.Parallel()

	s := DefaultSettings()
	s.Tempo = 0
	s.Pitch = 40
	s.Volume = math.Inf(1)
	s.Gate.Ratio = 0
	s.Bitcrusher.BitDepth = 32
	s.Bitcrusher.Downsample = 0
	s.Flanger.Feedback = -3
	s.Echo.Delay = math.NaN()
	s.Filter.LowGain = -100
	s.Clamp()

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"tempo", s.Tempo, effects.MinTempo},
		{"pitch", s.Pitch, 24},
		{"volume", s.Volume, 4},
		{"gate ratio", s.Gate.Ratio, 1},
		{"bit depth", float64(s.Bitcrusher.BitDepth), 16},
		{"downsample", float64(s.Bitcrusher.Downsample), 1},
		{"flanger feedback", s.Flanger.Feedback, -1},
		{"echo delay", s.Echo.Delay, DefaultSettings().Echo.Delay},
		{"filter low gain", s.Filter.LowGain, -24},
	}
	for _, tc := range tests {
		if tc.got != tc.want {
			t.Fatalf("%s = %g, want %g", tc.name, tc.got, tc.want)
		}
	}
}

func TestMergeKeepsMissingFields(t *testing.T) {
	t.Parallel()

	s := DefaultSettings()
	s.Reverb.Enabled = true
	s.Reverb.RoomSize = 0.8

	err := s.Merge([]byte(`{"tempo": 1.5, "reverb": {"wetLevel": 0.6}, "echo": {"enabled": true}}`))
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}

	if s.Tempo != 1.5 {
		t.Fatalf("Tempo = %g, want 1.5", s.Tempo)
	}
	if s.Volume != 1 {
		t.Fatalf("Volume = %g, want unchanged 1", s.Volume)
	}
	if !s.Reverb.Enabled || s.Reverb.RoomSize != 0.8 || s.Reverb.WetLevel != 0.6 {
		t.Fatalf("Reverb = %+v, want enabled, room 0.8, wet 0.6", s.Reverb)
	}
	if !s.Echo.Enabled || s.Echo.Delay != DefaultSettings().Echo.Delay {
		t.Fatalf("Echo = %+v, want enabled with default delay", s.Echo)
	}
}

func TestMergeRejectsInvalidJSONWithoutChange(t *testing.T) {
	t.Parallel()

	s := DefaultSettings()
	if err := s.Merge([]byte(`{"tempo": 2,`)); err == nil {
		t.Fatal("expected error for truncated JSON")
	}
	if !s.Equal(DefaultSettings()) {
		t.Fatal("failed Merge modified the settings")
	}
}

func TestMergeClampsOutOfRange(t *testing.T) {
	t.Parallel()

	s := DefaultSettings()
	if err := s.Merge([]byte(`{"tempo": 9, "chorus": {"rate": 50}}`)); err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if s.Tempo != 4 || s.Chorus.Rate != 5 {
		t.Fatalf("tempo=%g chorus rate=%g, want 4 and 5", s.Tempo, s.Chorus.Rate)
	}
}

func TestSettingsJSONKeys(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(DefaultSettings())
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	for _, key := range []string{"tempo", "pitch", "volume"} {
		if _, ok := doc[key]; !ok {
			t.Fatalf("missing key %q", key)
		}
	}
	for _, kind := range Order[2 : len(Order)-1] {
		if _, ok := doc[string(kind)]; !ok {
			t.Fatalf("missing effect key %q", kind)
		}
	}
	if _, ok := doc["reasoning"]; ok {
		t.Fatal("empty reasoning should be omitted")
	}
}

func TestParseJSONStartsFromDefaults(t *testing.T) {
	t.Parallel()

	s, err := ParseJSON([]byte(`{"pitch": -3, "reasoning": "darker"}`))
	if err != nil {
		t.Fatalf("ParseJSON() error = %v", err)
	}
	if s.Pitch != -3 || s.Tempo != 1 || s.Reasoning != "darker" {
		t.Fatalf("ParseJSON() = %+v", s)
	}
}

func TestYAMLRoundTrip(t *testing.T) {
	t.Parallel()

	in := DefaultSettings()
	in.Tempo = 1.25
	in.Filter.Enabled = true
	in.Filter.MidGain = -6

	var buf bytes.Buffer
	if err := in.WriteYAML(&buf); err != nil {
		t.Fatalf("WriteYAML() error = %v", err)
	}
	if !strings.Contains(buf.String(), "midGain: -6") {
		t.Fatalf("YAML output lacks camelCase key:\n%s", buf.String())
	}

	out, err := ReadYAML(&buf)
	if err != nil {
		t.Fatalf("ReadYAML() error = %v", err)
	}
	if !out.Equal(in) {
		t.Fatalf("ReadYAML() = %+v, want %+v", out, in)
	}
}

func TestReadYAMLPartialDocument(t *testing.T) {
	t.Parallel()

	s, err := ReadYAML(strings.NewReader("volume: 0.5\necho:\n  enabled: true\n"))
	if err != nil {
		t.Fatalf("ReadYAML() error = %v", err)
	}
	if s.Volume != 0.5 || !s.Echo.Enabled || s.Echo.Delay != 0.25 {
		t.Fatalf("ReadYAML() = %+v", s)
	}

	empty, err := ReadYAML(strings.NewReader(""))
	if err != nil {
		t.Fatalf("ReadYAML(empty) error = %v", err)
	}
	if !empty.Equal(DefaultSettings()) {
		t.Fatal("empty YAML should yield defaults")
	}
}
