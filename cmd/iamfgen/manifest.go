package main

import (
	"encoding/hex"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/linuxmatters/iamfkit/internal/ierr"
	"github.com/linuxmatters/iamfkit/internal/metadata"
	"github.com/linuxmatters/iamfkit/internal/obu"
	"github.com/linuxmatters/iamfkit/internal/temporalunit"
)

// manifest is the declarative YAML description iamfgen assembles a
// sequence from. It deliberately supplies audio frame payloads as literal
// hex strings rather than reading and encoding source audio: actual audio
// decoding and file I/O are out of scope for this generator (per the core's
// non-goals), so a manifest carries pre-encoded bitstream payloads the way
// a conformance-test fixture would.
type manifest struct {
	SequenceHeader struct {
		PrimaryProfile    uint8 `yaml:"primary_profile"`
		AdditionalProfile uint8 `yaml:"additional_profile"`
	} `yaml:"sequence_header"`

	CodecConfigs []codecConfigManifest `yaml:"codec_configs"`
	AudioElements []audioElementManifest `yaml:"audio_elements"`
	MixPresentations []mixPresentationManifest `yaml:"mix_presentations"`
	AudioFrames []audioFrameManifest `yaml:"audio_frames"`

	Delayed bool `yaml:"delayed"`
}

type codecConfigManifest struct {
	CodecConfigID      uint64 `yaml:"codec_config_id"`
	Codec              uint8  `yaml:"codec"`
	NumSamplesPerFrame uint64 `yaml:"num_samples_per_frame"`
	AudioRollDistance  int16  `yaml:"audio_roll_distance"`
	DecoderConfigHex   string `yaml:"decoder_config_hex"`
}

func (c codecConfigManifest) toObu() (*obu.CodecConfig, error) {
	decoderConfig, err := hex.DecodeString(c.DecoderConfigHex)
	if err != nil {
		return nil, ierr.InvalidArgument("codec config %d: decoder_config_hex: %v", c.CodecConfigID, err)
	}
	return &obu.CodecConfig{
		CodecConfigID:      c.CodecConfigID,
		Codec:              obu.CodecID(c.Codec),
		NumSamplesPerFrame: c.NumSamplesPerFrame,
		AudioRollDistance:  c.AudioRollDistance,
		DecoderConfig:      decoderConfig,
	}, nil
}

type channelLayerManifest struct {
	LoudspeakerLayout     uint8 `yaml:"loudspeaker_layout"`
	SubstreamCount        int   `yaml:"substream_count"`
	CoupledSubstreamCount int   `yaml:"coupled_substream_count"`
}

type audioElementManifest struct {
	AudioElementID uint64                 `yaml:"audio_element_id"`
	CodecConfigID  uint64                 `yaml:"codec_config_id"`
	SubstreamIDs   []uint64               `yaml:"substream_ids"`
	ChannelLayers  []channelLayerManifest `yaml:"channel_layers"`
}

func (a audioElementManifest) toMetadata() metadata.AudioElementMetadata {
	layers := make([]metadata.ChannelAudioLayerMetadata, len(a.ChannelLayers))
	for i, l := range a.ChannelLayers {
		layers[i] = metadata.ChannelAudioLayerMetadata{
			LoudspeakerLayout:     obu.LoudspeakerLayout(l.LoudspeakerLayout),
			SubstreamCount:        l.SubstreamCount,
			CoupledSubstreamCount: l.CoupledSubstreamCount,
		}
	}
	return metadata.AudioElementMetadata{
		AudioElementID: a.AudioElementID,
		Type:           obu.AudioElementChannelBased,
		CodecConfigID:  a.CodecConfigID,
		SubstreamIDs:   a.SubstreamIDs,
		ChannelLayers:  layers,
	}
}

type loudnessInfoManifest struct {
	IntegratedLoudness int16 `yaml:"integrated_loudness"`
	DigitalPeak        int16 `yaml:"digital_peak"`
}

type subMixLayoutManifest struct {
	SoundSystem  uint8                `yaml:"sound_system"`
	LoudnessInfo loudnessInfoManifest `yaml:"loudness_info"`
}

type subMixElementManifest struct {
	AudioElementID uint64 `yaml:"audio_element_id"`
}

type subMixManifest struct {
	Elements []subMixElementManifest `yaml:"elements"`
	Layouts  []subMixLayoutManifest  `yaml:"layouts"`
}

type mixPresentationManifest struct {
	MixPresentationID  uint64           `yaml:"mix_presentation_id"`
	AnnotationsLanguage []string        `yaml:"annotations_language"`
	LocalizedAnnotations []string       `yaml:"localized_annotations"`
	SubMixes           []subMixManifest `yaml:"sub_mixes"`
}

func (m mixPresentationManifest) toMetadata() metadata.MixPresentationMetadata {
	subMixes := make([]metadata.SubMixMetadata, len(m.SubMixes))
	for i, sm := range m.SubMixes {
		elements := make([]metadata.SubMixElementMetadata, len(sm.Elements))
		for j, e := range sm.Elements {
			elements[j] = metadata.SubMixElementMetadata{AudioElementID: e.AudioElementID}
		}
		layouts := make([]metadata.SubMixLayoutMetadata, len(sm.Layouts))
		for j, l := range sm.Layouts {
			layouts[j] = metadata.SubMixLayoutMetadata{
				Kind:        obu.LayoutKindLoudspeakersSsConvention,
				SoundSystem: obu.SoundSystem(l.SoundSystem),
				LoudnessInfo: metadata.LoudnessInfoMetadata{
					IntegratedLoudness: l.LoudnessInfo.IntegratedLoudness,
					DigitalPeak:        l.LoudnessInfo.DigitalPeak,
				},
			}
		}
		subMixes[i] = metadata.SubMixMetadata{Elements: elements, Layouts: layouts}
	}
	return metadata.MixPresentationMetadata{
		MixPresentationID:    m.MixPresentationID,
		AnnotationsLanguage:  m.AnnotationsLanguage,
		LocalizedPresentationAnnotations: m.LocalizedAnnotations,
		SubMixes:             subMixes,
	}
}

type audioFrameManifest struct {
	AudioElementID  uint64 `yaml:"audio_element_id"`
	CodecConfigID   uint64 `yaml:"codec_config_id"`
	SubstreamID     uint64 `yaml:"substream_id"`
	StartTimestamp  uint64 `yaml:"start_timestamp"`
	EndTimestamp    uint64 `yaml:"end_timestamp"`
	SamplesPerFrame uint32 `yaml:"samples_per_frame"`
	DataHex         string `yaml:"data_hex"`
	TrimStart       uint32 `yaml:"trim_start"`
	TrimEnd         uint32 `yaml:"trim_end"`
}

func (f audioFrameManifest) toAudioFrameWithData() (temporalunit.AudioFrameWithData, error) {
	data, err := hex.DecodeString(f.DataHex)
	if err != nil {
		return temporalunit.AudioFrameWithData{}, ierr.InvalidArgument("audio frame (substream %d, start %d): data_hex: %v", f.SubstreamID, f.StartTimestamp, err)
	}
	return temporalunit.AudioFrameWithData{
		Frame: &obu.AudioFrame{
			SubstreamID: f.SubstreamID,
			Trim:        obu.Trim{NumSamplesToTrimAtStart: f.TrimStart, NumSamplesToTrimAtEnd: f.TrimEnd},
			Data:        data,
		},
		AudioElementID:  f.AudioElementID,
		CodecConfigID:   f.CodecConfigID,
		StartTimestamp:  f.StartTimestamp,
		EndTimestamp:    f.EndTimestamp,
		SamplesPerFrame: f.SamplesPerFrame,
	}, nil
}

func loadManifest(path string) (*manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, ierr.InvalidArgument("reading manifest %s: %v", path, err)
	}
	var m manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, ierr.InvalidArgument("parsing manifest %s: %v", path, err)
	}
	return &m, nil
}
