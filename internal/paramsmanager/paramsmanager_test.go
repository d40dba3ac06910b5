package paramsmanager

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/linuxmatters/iamfkit/internal/obu"
)

func audioElement(parameterID uint64) map[uint64]*obu.AudioElement {
	return map[uint64]*obu.AudioElement{
		1: {
			AudioElementID: 1,
			ParamDefinitions: []*obu.ParamDefinition{
				{
					Type:        obu.ParamDemixing,
					ParameterID: parameterID,
					Demixing:    &obu.DemixingParamDefinitionData{DefaultDMixPMode: obu.DMixPMode1, DefaultW: 0},
				},
			},
		},
	}
}

func demixingBlock(parameterID uint64, mode obu.DMixPMode) *obu.ParameterBlock {
	return &obu.ParameterBlock{
		ParameterID: parameterID,
		Type:        obu.ParamDemixing,
		Subblocks:   []obu.Subblock{{DMixPMode: &mode}},
	}
}

func TestNoEntryReturnsDefault(t *testing.T) {
	m, err := NewManager(map[uint64]*obu.AudioElement{}, nil, nil)
	require.NoError(t, err)
	var out DownMixingParams
	require.NoError(t, m.GetDownMixingParameters(1, &out))
	require.Equal(t, 0.707, out.Alpha)
	require.False(t, out.InBitstream)
}

func TestIteratorAtEndUsesDefinitionDefault(t *testing.T) {
	m, err := NewManager(audioElement(100), nil, nil)
	require.NoError(t, err)
	var out DownMixingParams
	require.NoError(t, m.GetDownMixingParameters(1, &out))
	require.Equal(t, 1.0, out.Alpha) // Mode1 row
	require.True(t, out.InBitstream)
}

func TestFirstFrameThenUpdateAdvances(t *testing.T) {
	pb := demixingBlock(100, obu.DMixPMode1)
	ts := map[*obu.ParameterBlock][2]uint64{pb: {0, 960}}
	m, err := NewManager(audioElement(100), []*obu.ParameterBlock{pb}, ts)
	require.NoError(t, err)

	var out DownMixingParams
	require.NoError(t, m.GetDownMixingParameters(1, &out))
	require.Equal(t, 0, out.WIdxUsed) // FirstFrame rule fixes w_idx=0

	require.NoError(t, m.UpdateDownMixingParameters(1, 0))
	// advanced past the only block; next call falls back to definition default
	var out2 DownMixingParams
	require.NoError(t, m.GetDownMixingParameters(1, &out2))
	require.True(t, out2.InBitstream)
}

func TestUpdateMismatchFails(t *testing.T) {
	pb := demixingBlock(100, obu.DMixPMode1)
	ts := map[*obu.ParameterBlock][2]uint64{pb: {0, 960}}
	m, err := NewManager(audioElement(100), []*obu.ParameterBlock{pb}, ts)
	require.NoError(t, err)
	var out DownMixingParams
	require.NoError(t, m.GetDownMixingParameters(1, &out))
	err = m.UpdateDownMixingParameters(1, 500)
	require.Error(t, err)
}

func TestMultipleDemixingDefinitionsRejected(t *testing.T) {
	aes := map[uint64]*obu.AudioElement{
		1: {
			AudioElementID: 1,
			ParamDefinitions: []*obu.ParamDefinition{
				{Type: obu.ParamDemixing, ParameterID: 100, Demixing: &obu.DemixingParamDefinitionData{}},
				{Type: obu.ParamDemixing, ParameterID: 101, Demixing: &obu.DemixingParamDefinitionData{}},
			},
		},
	}
	_, err := NewManager(aes, nil, nil)
	require.Error(t, err)
}

func TestReservedModeRejected(t *testing.T) {
	var out DownMixingParams
	err := dmixpModeToDownMixingParams(obu.DMixPModeReserved1, 0, RuleFirstFrame, &out)
	require.Error(t, err)
}

func TestNormalRuleClampsAtBoundaries(t *testing.T) {
	var out DownMixingParams
	require.NoError(t, dmixpModeToDownMixingParams(obu.DMixPMode1, 0, RuleNormal, &out))
	require.Equal(t, 0, out.WIdxUsed) // offset -1 clamped to 0

	require.NoError(t, dmixpModeToDownMixingParams(obu.DMixPMode1N, 10, RuleNormal, &out))
	require.Equal(t, 10, out.WIdxUsed) // offset +1 clamped to 10
}
