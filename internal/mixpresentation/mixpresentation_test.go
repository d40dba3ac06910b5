package mixpresentation

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/linuxmatters/iamfkit/internal/metadata"
	"github.com/linuxmatters/iamfkit/internal/obu"
)

func baseItem() metadata.MixPresentationMetadata {
	gain := int16(0)
	return metadata.MixPresentationMetadata{
		MixPresentationID:   1,
		AnnotationsLanguage: []string{"en-us"},
		LocalizedPresentationAnnotations: []string{"Main mix"},
		SubMixes: []metadata.SubMixMetadata{
			{
				Elements: []metadata.SubMixElementMetadata{
					{AudioElementID: 1, LocalizedElementAnnotations: []string{"A"}, ElementMixGain: &gain},
				},
				OutputMixGain: &gain,
				Layouts: []metadata.SubMixLayoutMetadata{
					{Kind: obu.LayoutKindLoudspeakersSsConvention, SoundSystem: obu.SoundSystemB_0_5_0},
				},
			},
		},
	}
}

func TestGenerateBasic(t *testing.T) {
	mps, err := Generate(false, []metadata.MixPresentationMetadata{baseItem()}, obu.ProfileBase)
	require.NoError(t, err)
	require.Len(t, mps, 1)
	require.Nil(t, mps[0].Tags)
}

func TestGenerateWithTagsAndBuildInformation(t *testing.T) {
	item := baseItem()
	item.IncludeTags = true
	item.AppendBuildInformation = true
	mps, err := Generate(true, []metadata.MixPresentationMetadata{item}, obu.ProfileBase)
	require.NoError(t, err)
	require.Len(t, mps[0].Tags, 1)
	require.Equal(t, buildInformationVersion, mps[0].Tags[0].TagValue)
}

func TestDeprecatedAnnotationsUsedWhenModernAbsent(t *testing.T) {
	item := baseItem()
	item.AnnotationsLanguage = nil
	item.LocalizedPresentationAnnotations = nil
	item.DeprecatedLanguageLabels = []string{"fr-fr"}
	item.DeprecatedMixPresentationAnnotationsArray = []string{"Mix principal"}
	mps, err := Generate(false, []metadata.MixPresentationMetadata{item}, obu.ProfileBase)
	require.NoError(t, err)
	require.Equal(t, []string{"fr-fr"}, mps[0].AnnotationsLanguage)
}

func TestModernAnnotationsWinOverDeprecated(t *testing.T) {
	item := baseItem()
	item.DeprecatedLanguageLabels = []string{"fr-fr"}
	item.DeprecatedMixPresentationAnnotationsArray = []string{"Mix principal"}
	mps, err := Generate(false, []metadata.MixPresentationMetadata{item}, obu.ProfileBase)
	require.NoError(t, err)
	require.Equal(t, []string{"en-us"}, mps[0].AnnotationsLanguage)
}

func TestProfileCardinalityViolation(t *testing.T) {
	item := baseItem()
	gain := int16(0)
	item.SubMixes[0].Elements = append(item.SubMixes[0].Elements, metadata.SubMixElementMetadata{
		AudioElementID: 2, LocalizedElementAnnotations: []string{"B"}, ElementMixGain: &gain,
	})
	_, err := Generate(false, []metadata.MixPresentationMetadata{item}, obu.ProfileSimple)
	require.Error(t, err)
}

func TestMissingOutputMixGainFails(t *testing.T) {
	item := baseItem()
	item.SubMixes[0].OutputMixGain = nil
	_, err := Generate(false, []metadata.MixPresentationMetadata{item}, obu.ProfileBase)
	require.Error(t, err)
}

func TestLoudnessInfoRequiresTruePeakWhenBitSet(t *testing.T) {
	item := baseItem()
	item.SubMixes[0].Layouts[0].LoudnessInfo.InfoType = 0x1
	_, err := Generate(false, []metadata.MixPresentationMetadata{item}, obu.ProfileBase)
	require.Error(t, err)
}
