package paramblock

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/linuxmatters/iamfkit/internal/metadata"
	"github.com/linuxmatters/iamfkit/internal/obu"
)

func audioElements() map[uint64]*obu.AudioElement {
	return map[uint64]*obu.AudioElement{
		1: {
			AudioElementID: 1,
			ParamDefinitions: []*obu.ParamDefinition{
				{
					Type:        obu.ParamDemixing,
					ParameterID: 100,
					Mode:        0,
					Duration:    960,
					Demixing:    &obu.DemixingParamDefinitionData{DefaultDMixPMode: obu.DMixPMode1, DefaultW: 0},
				},
			},
		},
	}
}

func TestGenerateDemixingKnownDefinition(t *testing.T) {
	g := NewGenerator(audioElements(), nil, nil)
	timing := NewDefaultGlobalTiming()
	mode := obu.DMixPMode1
	blocks := []metadata.ParameterBlockMetadata{
		{
			ParameterID:    100,
			StartTimestamp: 0,
			Mode:           0,
			Subblocks:      []obu.Subblock{{DMixPMode: &mode}},
		},
	}
	var out Generated
	err := g.GenerateDemixing(timing, blocks, &out)
	require.NoError(t, err)
	require.Len(t, out.Demixing, 1)
	require.Equal(t, uint64(960), out.Demixing[0].Duration)
}

func TestGenerateDemixingContiguityEnforced(t *testing.T) {
	g := NewGenerator(audioElements(), nil, nil)
	timing := NewDefaultGlobalTiming()
	mode := obu.DMixPMode1
	blocks := []metadata.ParameterBlockMetadata{
		{ParameterID: 100, StartTimestamp: 0, Subblocks: []obu.Subblock{{DMixPMode: &mode}}},
		{ParameterID: 100, StartTimestamp: 500, Subblocks: []obu.Subblock{{DMixPMode: &mode}}}, // not contiguous
	}
	var out Generated
	err := g.GenerateDemixing(timing, blocks, &out)
	require.Error(t, err)
}

func TestStrayBlockAcceptedWithWarning(t *testing.T) {
	warned := false
	g := NewGenerator(audioElements(), nil, func(string, ...any) { warned = true })
	g.SetDefaultCodecRate(1, 48000)
	timing := NewDefaultGlobalTiming()
	anim := &obu.MixGainAnimation{Type: obu.AnimationStep, Start: 5}
	blocks := []metadata.ParameterBlockMetadata{
		{ParameterID: 999, StartTimestamp: 0, Mode: 1, Duration: 960, NumSubblocks: 1, Subblocks: []obu.Subblock{{MixGain: anim}}},
	}
	var out Generated
	err := g.GenerateMixGain(timing, blocks, &out)
	require.NoError(t, err)
	require.True(t, warned)
	require.Len(t, out.MixGain, 1)
}

func TestDemixingRequiresSingleSubblock(t *testing.T) {
	g := NewGenerator(audioElements(), nil, nil)
	timing := NewDefaultGlobalTiming()
	mode := obu.DMixPMode1
	blocks := []metadata.ParameterBlockMetadata{
		{ParameterID: 100, StartTimestamp: 0, Mode: 1, Duration: 960, NumSubblocks: 2,
			Subblocks: []obu.Subblock{{DMixPMode: &mode}, {DMixPMode: &mode}}},
	}
	var out Generated
	err := g.GenerateDemixing(timing, blocks, &out)
	require.Error(t, err)
}

func TestValidateParameterCoverageSkipsStray(t *testing.T) {
	g := NewGenerator(audioElements(), nil, nil)
	timing := NewDefaultGlobalTiming()
	g.SetDefaultCodecRate(1, 48000)
	anim := &obu.MixGainAnimation{Type: obu.AnimationStep, Start: 0}
	blocks := []metadata.ParameterBlockMetadata{
		{ParameterID: 999, StartTimestamp: 0, Mode: 1, Duration: 960, NumSubblocks: 1, Subblocks: []obu.Subblock{{MixGain: anim}}},
	}
	var out Generated
	require.NoError(t, g.GenerateMixGain(timing, blocks, &out))
	require.NoError(t, g.ValidateParameterCoverage(timing, map[uint64][]uint64{1: {10}}))
}

func TestValidateParameterCoverageFailsWhenIncomplete(t *testing.T) {
	g := NewGenerator(audioElements(), nil, nil)
	timing := NewDefaultGlobalTiming()
	timing.RegisterSubstream(1, 10, 0, 2000)
	mode := obu.DMixPMode1
	blocks := []metadata.ParameterBlockMetadata{
		{ParameterID: 100, StartTimestamp: 0, Mode: 0, Subblocks: []obu.Subblock{{DMixPMode: &mode}}},
	}
	var out Generated
	require.NoError(t, g.GenerateDemixing(timing, blocks, &out))
	err := g.ValidateParameterCoverage(timing, map[uint64][]uint64{1: {10}})
	require.Error(t, err)
}
