package obu

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSequenceHeaderRoundTrip(t *testing.T) {
	sh := SequenceHeader{PrimaryProfile: ProfileBase, AdditionalProfile: ProfileSimple}
	payload, err := sh.Write(Minimal)
	require.NoError(t, err)
	got, err := ParseSequenceHeader(payload)
	require.NoError(t, err)
	require.Equal(t, &sh, got)
}

func TestCodecConfigRoundTrip(t *testing.T) {
	cc := &CodecConfig{
		CodecConfigID:      7,
		Codec:              CodecOpus,
		NumSamplesPerFrame: 960,
		AudioRollDistance:  -4,
		DecoderConfig:      []byte{0x01, 0x02, 0x03},
	}
	payload, err := cc.Write(Minimal)
	require.NoError(t, err)
	got, err := ParseCodecConfig(payload)
	require.NoError(t, err)
	require.Equal(t, cc, got)
}

func TestAudioElementChannelBasedRoundTrip(t *testing.T) {
	ae := &AudioElement{
		AudioElementID: 1,
		Type:           AudioElementChannelBased,
		CodecConfigID:  7,
		SubstreamIDs:   []uint64{10, 11},
		ParamDefinitions: []*ParamDefinition{
			{
				Type:                     ParamDemixing,
				ParameterID:              100,
				ParameterRate:            48000,
				Mode:                     0,
				Duration:                 960,
				ConstantSubblockDuration: 960,
				Demixing:                 &DemixingParamDefinitionData{DefaultDMixPMode: DMixPMode1, DefaultW: 3},
			},
		},
		Config: AudioElementConfig{
			Scalable: &ScalableChannelConfig{
				Layers: []LayerConfig{
					{LoudspeakerLayout: LayoutStereo, SubstreamCount: 1, CoupledSubstreamCount: 1},
					{LoudspeakerLayout: Layout5_1, SubstreamCount: 2, CoupledSubstreamCount: 1, OutputGainIsPresent: true, OutputGainFlag: 0x3F, OutputGain: -256},
				},
			},
		},
	}
	payload, err := ae.Write(Minimal)
	require.NoError(t, err)
	got, err := ParseAudioElement(payload)
	require.NoError(t, err)
	require.Equal(t, ae, got)
}

func TestAudioElementMixGainForbidden(t *testing.T) {
	ae := &AudioElement{
		AudioElementID: 1,
		Type:           AudioElementChannelBased,
		CodecConfigID:  7,
		ParamDefinitions: []*ParamDefinition{
			{Type: ParamMixGain, MixGain: &MixGainParamDefinitionData{DefaultMixGain: 0}},
		},
		Config: AudioElementConfig{Scalable: &ScalableChannelConfig{}},
	}
	_, err := ae.Write(Minimal)
	require.Error(t, err)
}

func TestAmbisonicsMonoRoundTrip(t *testing.T) {
	ae := &AudioElement{
		AudioElementID: 2,
		Type:           AudioElementSceneBased,
		CodecConfigID:  7,
		SubstreamIDs:   []uint64{0, 1, 2, 3},
		Config: AudioElementConfig{
			AmbisonicsMono: &AmbisonicsMonoConfig{
				OutputChannelCount: 4,
				SubstreamCount:     4,
				ChannelMapping:     []uint8{0, 1, 2, 3},
			},
		},
	}
	payload, err := ae.Write(Minimal)
	require.NoError(t, err)
	got, err := ParseAudioElement(payload)
	require.NoError(t, err)
	require.Equal(t, ae, got)
}

func TestAmbisonicsMonoChannelMappingOutOfRange(t *testing.T) {
	ae := &AudioElement{
		AudioElementID: 2,
		Type:           AudioElementSceneBased,
		CodecConfigID:  7,
		Config: AudioElementConfig{
			AmbisonicsMono: &AmbisonicsMonoConfig{
				OutputChannelCount: 2,
				SubstreamCount:     1,
				ChannelMapping:     []uint8{0, 5},
			},
		},
	}
	payload, err := ae.Write(Minimal)
	require.NoError(t, err)
	_, err = ParseAudioElement(payload)
	require.Error(t, err)
}

func TestMixPresentationRoundTrip(t *testing.T) {
	mp := &MixPresentation{
		MixPresentationID:                 5,
		AnnotationsLanguage:                []string{"en-us"},
		LocalizedPresentationAnnotations: []string{"Stereo mix"},
		SubMixes: []SubMix{
			{
				Elements: []SubMixElement{
					{
						AudioElementID:              1,
						LocalizedElementAnnotations: []string{"Front"},
						RenderingConfig:             RenderingConfig{HeadphonesRenderingMode: HeadphonesStereo},
						ElementMixGain: &ParamDefinition{
							Type:        ParamMixGain,
							ParameterID: 200,
							Mode:        0,
							MixGain:     &MixGainParamDefinitionData{DefaultMixGain: 0},
						},
					},
				},
				OutputMixGain: ParamDefinition{
					Type:        ParamMixGain,
					ParameterID: 201,
					Mode:        0,
					MixGain:     &MixGainParamDefinitionData{DefaultMixGain: 0},
				},
				Layouts: []SubMixLayout{
					{
						Layout: Layout{Kind: LayoutKindLoudspeakersSsConvention, SoundSystem: SoundSystemB_0_5_0},
						LoudnessInfo: LoudnessInfo{
							InfoType:           loudnessInfoTruePeak,
							IntegratedLoudness: -2300,
							DigitalPeak:        -100,
							TruePeak:           -50,
						},
					},
				},
			},
		},
	}
	payload, err := mp.Write(Minimal)
	require.NoError(t, err)
	got, err := ParseMixPresentation(payload)
	require.NoError(t, err)
	require.Equal(t, mp, got)
}

func TestMixPresentationBuildInformationTagCap(t *testing.T) {
	mp := MixPresentation{MixPresentationID: 1}
	mp.Tags = make([]MixPresentationTag, 255)
	_, err := mp.WithBuildInformationTag("v1")
	require.Error(t, err)
}

func TestProfileCardinalityCheck(t *testing.T) {
	mp := &MixPresentation{
		SubMixes: []SubMix{
			{Elements: []SubMixElement{{AudioElementID: 1}, {AudioElementID: 2}}},
		},
	}
	require.Error(t, CheckProfileCardinality(mp, ProfileSimple))
	require.NoError(t, CheckProfileCardinality(mp, ProfileBase))
}

func TestParameterBlockMixGainRoundTrip(t *testing.T) {
	pb := &ParameterBlock{
		ParameterID: 200,
		Type:        ParamMixGain,
		Mode:        1,
		Duration:    960,
		NumSubblocks: 2,
		Subblocks: []Subblock{
			{SubblockDuration: 480, MixGain: &MixGainAnimation{Type: AnimationStep, Start: 10}},
			{SubblockDuration: 480, MixGain: &MixGainAnimation{Type: AnimationBezier, Start: 10, End: 20, Control: 15, ControlRelativeTime: 128}},
		},
	}
	payload, err := pb.Write(Minimal)
	require.NoError(t, err)
	got, err := ParseParameterBlock(payload, ParamMixGain, 0, 0, 0, 0)
	require.NoError(t, err)
	require.Equal(t, pb, got)
}

func TestParameterBlockDemixingRequiresSingleSubblock(t *testing.T) {
	mode := DMixPMode1
	pb := &ParameterBlock{
		ParameterID: 100,
		Type:        ParamDemixing,
		Mode:        1,
		NumSubblocks: 2,
		Subblocks: []Subblock{
			{DMixPMode: &mode},
			{DMixPMode: &mode},
		},
	}
	_, err := pb.Write(Minimal)
	require.Error(t, err)
}

func TestParameterBlockReconGainRoundTrip(t *testing.T) {
	pb := &ParameterBlock{
		ParameterID:  300,
		Type:         ParamReconGain,
		Mode:         0,
		NumSubblocks: 1,
		Subblocks: []Subblock{
			{
				ReconGain: []ReconGainLayer{
					{PresentMask: 0x005, Gains: [12]uint8{255, 0, 0, 128}},
				},
			},
		},
	}
	payload, err := pb.Write(Minimal)
	require.NoError(t, err)
	got, err := ParseParameterBlock(payload, ParamReconGain, 0, 0, 0, 1)
	require.NoError(t, err)
	require.Equal(t, pb, got)
}

func TestAudioFrameTrimValidation(t *testing.T) {
	f := &AudioFrame{Trim: Trim{NumSamplesToTrimAtStart: 500, NumSamplesToTrimAtEnd: 600}}
	require.Error(t, f.ValidateTrim(1000))
	require.NoError(t, f.ValidateTrim(1100))
}

func TestAudioFrameRoundTrip(t *testing.T) {
	f := &AudioFrame{SubstreamID: 42, Data: []byte{1, 2, 3, 4}}
	payload, err := f.Write(Minimal)
	require.NoError(t, err)
	got, err := ParseAudioFrame(payload, nil)
	require.NoError(t, err)
	require.Equal(t, f.SubstreamID, got.SubstreamID)
	require.Equal(t, f.Data, got.Data)
}

func TestArbitraryRoundTripPerTick(t *testing.T) {
	a := &Arbitrary{InsertionHook: HookAfterParameterBlocksAtTick, InsertionTick: 9, Payload: []byte{0xAB}}
	payload, err := a.Write(Minimal)
	require.NoError(t, err)
	got, err := ParseArbitrary(payload, false)
	require.NoError(t, err)
	require.Equal(t, a, got)
}

func TestArbitraryRoundTripNonTick(t *testing.T) {
	a := &Arbitrary{InsertionHook: HookAfterCodecConfigs, InvalidatesBitstream: true, Payload: []byte{0x01, 0x02}}
	payload, err := a.Write(Minimal)
	require.NoError(t, err)
	got, err := ParseArbitrary(payload, true)
	require.NoError(t, err)
	require.Equal(t, a, got)
	require.True(t, got.InvalidatesBitstream)
}

func TestLeb128NonMinimalGeneratorRoundTrips(t *testing.T) {
	gen := LebGenerator{MinBytes: 4}
	sh := SequenceHeader{PrimaryProfile: ProfileBase}
	payload, err := sh.Write(gen)
	require.NoError(t, err)
	got, err := ParseSequenceHeader(payload)
	require.NoError(t, err)
	require.Equal(t, &sh, got)

	cc := &CodecConfig{CodecConfigID: 300, Codec: CodecAAC, NumSamplesPerFrame: 1024}
	ccPayload, err := cc.Write(gen)
	require.NoError(t, err)
	gotCC, err := ParseCodecConfig(ccPayload)
	require.NoError(t, err)
	require.Equal(t, cc, gotCC)
}

func TestRecordHeaderTrimRoundTrip(t *testing.T) {
	trim := &Trim{NumSamplesToTrimAtStart: 5, NumSamplesToTrimAtEnd: 7}
	dst, err := WriteRecord(nil, TypeAudioFrame, trim, false, []byte{0x01}, Minimal)
	require.NoError(t, err)

	r := bufio.NewReader(bytes.NewReader(dst))
	h, err := ParseRecord(r)
	require.NoError(t, err)
	require.Equal(t, TypeAudioFrame, h.Type)
	require.Equal(t, trim, h.Trim)
	require.Equal(t, []byte{0x01}, h.Payload)
}

func TestTemporalDelimiterRoundTrip(t *testing.T) {
	dst := WriteTemporalDelimiter(nil)
	r := bufio.NewReader(bytes.NewReader(dst))
	h, err := ParseRecord(r)
	require.NoError(t, err)
	require.Equal(t, TypeTemporalDelimiter, h.Type)
	require.Nil(t, h.Payload)
}
