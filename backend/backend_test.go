package backend

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/shade/node"
)

func TestSelect(t *testing.T) {
	supported := ProbeResult{Supported: true}
	unsupported := ProbeResult{}

	tests := []struct {
		name  string
		pref  Preference
		probe ProbeResult
		want  Kind
	}{
		{"forced compatible, supported", PreferCompatible, supported, Compatible},
		{"forced compatible, unsupported", PreferCompatible, unsupported, Compatible},
		{"auto, unsupported", PreferAuto, unsupported, Compatible},
		{"auto, supported", PreferAuto, supported, Capable},
		{"capable, supported", PreferCapable, supported, Capable},
		{"capable, unsupported", PreferCapable, unsupported, Compatible},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Select(tt.pref, tt.probe))
			assert.Equal(t, tt.want, Select(tt.pref, tt.probe), "selection must be deterministic")
		})
	}
}

func TestRunProbeRecovers(t *testing.T) {
	boom := errors.New("no adapter")

	res := RunProbe(ProberFunc(func() (ProbeResult, error) {
		return ProbeResult{Supported: true}, boom
	}))
	assert.False(t, res.Supported)
	assert.ErrorIs(t, res.Err, boom)

	res = RunProbe(ProberFunc(func() (ProbeResult, error) { panic("driver crash") }))
	assert.False(t, res.Supported)
	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "driver crash")

	assert.False(t, RunProbe(nil).Supported)
	assert.True(t, RunProbe(Static(true)).Supported)
	assert.Equal(t, Compatible, Select(PreferAuto, RunProbe(ProberFunc(func() (ProbeResult, error) {
		return ProbeResult{}, boom
	}))))
}

func TestParsePreference(t *testing.T) {
	for in, want := range map[string]Preference{
		"":           PreferAuto,
		"Auto":       PreferAuto,
		"capable":    PreferCapable,
		"compatible": PreferCompatible,
		" gles ":     PreferCompatible,
	} {
		got, err := ParsePreference(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParsePreference("metal")
	assert.ErrorIs(t, err, ErrUnknownPreference)

	var p Preference
	require.NoError(t, p.UnmarshalText([]byte("compatible")))
	assert.Equal(t, PreferCompatible, p)
	b, _ := p.MarshalText()
	assert.Equal(t, "compatible", string(b))
}

func TestKindFeatures(t *testing.T) {
	assert.True(t, Capable.Supports(node.FeatureStorageBuffers|node.FeatureTextures))
	assert.True(t, Compatible.Supports(node.FeatureTextures))
	assert.False(t, Compatible.Supports(node.FeatureStorageBuffers))
	assert.Equal(t, "capable", Capable.String())
}
