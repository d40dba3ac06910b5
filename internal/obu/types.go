package obu

// AudioElementType distinguishes the four kinds of audio element records.
type AudioElementType uint8

const (
	AudioElementChannelBased AudioElementType = iota
	AudioElementSceneBased
	AudioElementObjectBased
	AudioElementReserved
)

// AmbisonicsMode selects between mono and projection scene-based configs.
type AmbisonicsMode uint8

const (
	AmbisonicsMono AmbisonicsMode = iota
	AmbisonicsProjection
)

// LoudspeakerLayout is the 4-bit enum identifying a reconstruction target.
type LoudspeakerLayout uint8

const (
	LayoutMono LoudspeakerLayout = iota
	LayoutStereo
	Layout5_1
	Layout5_1_2
	Layout5_1_4
	Layout7_1
	Layout7_1_2
	Layout7_1_4
	Layout3_1_2
	LayoutBinaural
	LayoutExpanded
	LayoutReserved
)

// ExpandedLoudspeakerLayout is consulted only when LoudspeakerLayout ==
// LayoutExpanded.
type ExpandedLoudspeakerLayout uint8

const (
	ExpandedLFE ExpandedLoudspeakerLayout = iota
	ExpandedStereoS
	ExpandedStereoSS
	ExpandedStereoRS
	ExpandedStereoTF
	ExpandedStereoTB
	ExpandedTop4Ch
	ExpandedThreeCh
	ExpandedNineOneSix
	ExpandedStereoF
	ExpandedStereoSi
	ExpandedStereoTpSi
	ExpandedTop6Ch
	ExpandedReserved
)

// ParamDefinitionType tags which parameter family a parameter definition
// belongs to. MixGain is forbidden on an audio element (§3.4).
type ParamDefinitionType uint8

const (
	ParamMixGain ParamDefinitionType = iota
	ParamDemixing
	ParamReconGain
	ParamReservedStart // reserved/extended start
)

// DMixPMode is the 3-bit demixing-mode enum.
type DMixPMode uint8

const (
	DMixPMode1 DMixPMode = iota
	DMixPMode2
	DMixPMode3
	DMixPModeReserved1
	DMixPMode1N
	DMixPMode2N
	DMixPMode3N
	DMixPModeReserved2
)

// HeadphonesRenderingMode selects how a sub-mix element renders to
// headphones.
type HeadphonesRenderingMode uint8

const (
	HeadphonesStereo HeadphonesRenderingMode = iota
	HeadphonesBinaural
	HeadphonesReserved1
	HeadphonesReserved2
)

// SoundSystem enumerates the loudspeaker conventions a loudness layout can
// target.
type SoundSystem uint8

const (
	SoundSystemA_0_2_0 SoundSystem = iota
	SoundSystemB_0_5_0
	SoundSystemC_2_5_0
	SoundSystemD_4_5_0
	SoundSystemE_4_5_1
	SoundSystemF_3_7_0
	SoundSystemG_4_9_0
	SoundSystemH_9_10_3
	SoundSystemI_0_7_0
	SoundSystemJ_4_7_0
	SoundSystemReserved
)

// LayoutKind tags the Layout tagged union.
type LayoutKind uint8

const (
	LayoutKindLoudspeakersSsConvention LayoutKind = iota
	LayoutKindBinaural
	LayoutKindReserved
)

// AnimationType tags a MixGain subblock's animation payload.
type AnimationType uint8

const (
	AnimationStep AnimationType = iota
	AnimationLinear
	AnimationBezier
)

// InsertionHook enumerates where an arbitrary record may be interleaved.
type InsertionHook uint8

const (
	HookAfterIaSequenceHeader InsertionHook = iota
	HookAfterCodecConfigs
	HookAfterAudioElements
	HookAfterMixPresentations
	HookAfterDescriptors
	HookBeforeParameterBlocksAtTick
	HookAfterParameterBlocksAtTick
	HookAfterAudioFramesAtTick
)

// CodecID enumerates the codec identifiers a codec-config record carries.
type CodecID uint8

const (
	CodecLPCM CodecID = iota
	CodecOpus
	CodecAAC
	CodecFLAC
)

// IsLossy reports whether decoding this codec discards information,
// consulted by the recon-gain-required rule (§3.4).
func (c CodecID) IsLossy() bool {
	switch c {
	case CodecOpus, CodecAAC:
		return true
	default:
		return false
	}
}
