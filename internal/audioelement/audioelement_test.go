package audioelement

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/linuxmatters/iamfkit/internal/label"
	"github.com/linuxmatters/iamfkit/internal/metadata"
	"github.com/linuxmatters/iamfkit/internal/obu"
)

func codecConfigs() map[uint64]*obu.CodecConfig {
	return map[uint64]*obu.CodecConfig{
		1: {CodecConfigID: 1, Codec: obu.CodecLPCM, NumSamplesPerFrame: 960},
		2: {CodecConfigID: 2, Codec: obu.CodecOpus, NumSamplesPerFrame: 960},
	}
}

func TestGenerateScalableStereo(t *testing.T) {
	items := []metadata.AudioElementMetadata{
		{
			AudioElementID: 1,
			Type:           obu.AudioElementChannelBased,
			CodecConfigID:  1,
			SubstreamIDs:   []uint64{10},
			ChannelLayers: []metadata.ChannelAudioLayerMetadata{
				{LoudspeakerLayout: obu.LayoutStereo, SubstreamCount: 1, CoupledSubstreamCount: 1},
			},
		},
	}
	aes, derived, err := Generate(codecConfigs(), items, nil)
	require.NoError(t, err)
	require.Len(t, aes, 1)
	d := derived[1]
	require.ElementsMatch(t, []label.Label{label.L2, label.R2}, d.SubstreamLabels[10])
}

func TestGenerateDuplicateAudioElementID(t *testing.T) {
	items := []metadata.AudioElementMetadata{
		{AudioElementID: 1, Type: obu.AudioElementChannelBased, CodecConfigID: 1},
		{AudioElementID: 1, Type: obu.AudioElementChannelBased, CodecConfigID: 1},
	}
	_, _, err := Generate(codecConfigs(), items, nil)
	require.Error(t, err)
}

func TestGenerateUnknownCodecConfig(t *testing.T) {
	items := []metadata.AudioElementMetadata{
		{AudioElementID: 1, Type: obu.AudioElementChannelBased, CodecConfigID: 99},
	}
	_, _, err := Generate(codecConfigs(), items, nil)
	require.Error(t, err)
}

func TestReconGainRequiredForLossyMultiLayer(t *testing.T) {
	items := []metadata.AudioElementMetadata{
		{
			AudioElementID: 1,
			Type:           obu.AudioElementChannelBased,
			CodecConfigID:  2, // Opus: lossy
			SubstreamIDs:   []uint64{0, 1, 2, 3, 4, 5},
			ChannelLayers: []metadata.ChannelAudioLayerMetadata{
				{LoudspeakerLayout: obu.LayoutStereo, SubstreamCount: 1, CoupledSubstreamCount: 1, ReconGainIsPresent: false},
				{LoudspeakerLayout: obu.Layout5_1, SubstreamCount: 3, CoupledSubstreamCount: 1, ReconGainIsPresent: false},
			},
		},
	}
	_, _, err := Generate(codecConfigs(), items, nil)
	require.Error(t, err)
}

func TestReconGainNotRequiredForLosslessSingleLayer(t *testing.T) {
	items := []metadata.AudioElementMetadata{
		{
			AudioElementID: 1,
			Type:           obu.AudioElementChannelBased,
			CodecConfigID:  1,
			SubstreamIDs:   []uint64{0},
			ChannelLayers: []metadata.ChannelAudioLayerMetadata{
				{LoudspeakerLayout: obu.LayoutMono, SubstreamCount: 1, CoupledSubstreamCount: 0},
			},
		},
	}
	_, _, err := Generate(codecConfigs(), items, nil)
	require.NoError(t, err)
}

func TestChannelNumbersForTwoLayerStereo3_1_2(t *testing.T) {
	items := []metadata.AudioElementMetadata{
		{
			AudioElementID: 1,
			Type:           obu.AudioElementChannelBased,
			CodecConfigID:  1,
			SubstreamIDs:   []uint64{0, 1},
			ChannelLayers: []metadata.ChannelAudioLayerMetadata{
				{LoudspeakerLayout: obu.LayoutStereo, SubstreamCount: 1, CoupledSubstreamCount: 1},
				{LoudspeakerLayout: obu.Layout3_1_2, SubstreamCount: 1, CoupledSubstreamCount: 0},
			},
		},
	}
	_, derived, err := Generate(codecConfigs(), items, nil)
	require.NoError(t, err)
	d := derived[1]
	require.Len(t, d.ChannelNumbersPerLayer, 2)
	require.Equal(t, ChannelNumbers{Surround: 3, LFE: 1, Height: 2}, d.ChannelNumbersPerLayer[1])
}

func TestMixGainForbiddenOnAudioElementParam(t *testing.T) {
	items := []metadata.AudioElementMetadata{
		{
			AudioElementID: 1,
			Type:           obu.AudioElementChannelBased,
			CodecConfigID:  1,
			SubstreamIDs:   []uint64{0},
			ChannelLayers: []metadata.ChannelAudioLayerMetadata{
				{LoudspeakerLayout: obu.LayoutMono, SubstreamCount: 1},
			},
			Params: []metadata.AudioElementParamMetadata{
				{HasEnumType: true, Type: obu.ParamMixGain},
			},
		},
	}
	_, _, err := Generate(codecConfigs(), items, nil)
	require.Error(t, err)
}

func TestDeprecatedIntegerParamTypeRejected(t *testing.T) {
	items := []metadata.AudioElementMetadata{
		{
			AudioElementID: 1,
			Type:           obu.AudioElementChannelBased,
			CodecConfigID:  1,
			SubstreamIDs:   []uint64{0},
			ChannelLayers: []metadata.ChannelAudioLayerMetadata{
				{LoudspeakerLayout: obu.LayoutMono, SubstreamCount: 1},
			},
			Params: []metadata.AudioElementParamMetadata{
				{HasEnumType: false},
			},
		},
	}
	_, _, err := Generate(codecConfigs(), items, nil)
	require.Error(t, err)
}

func TestGenerateAmbisonicsMono(t *testing.T) {
	items := []metadata.AudioElementMetadata{
		{
			AudioElementID: 2,
			Type:           obu.AudioElementSceneBased,
			CodecConfigID:  1,
			SubstreamIDs:   []uint64{0, 1, 2, 3},
			AmbisonicsMono: &metadata.AmbisonicsMonoMetadata{
				OutputChannelCount: 4,
				SubstreamCount:     4,
				ChannelMapping:     []int{0, 1, 2, 3},
			},
		},
	}
	aes, _, err := Generate(codecConfigs(), items, nil)
	require.NoError(t, err)
	require.NotNil(t, aes[2].Config.AmbisonicsMono)
}

func TestSortedAudioElementIDs(t *testing.T) {
	m := map[uint64]*obu.AudioElement{3: {}, 1: {}, 2: {}}
	require.Equal(t, []uint64{1, 2, 3}, SortedAudioElementIDs(m))
}
