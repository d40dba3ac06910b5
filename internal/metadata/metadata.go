// Package metadata holds the loosely-typed user-supplied descriptions that
// the generators in audioelement, mixpresentation, and paramblock turn into
// wire records. It stands in for the protobuf-deserialization collaborator
// the core excludes (§9): callers build these structs directly, by loading
// YAML, JSON, or any other front end.
package metadata

import "github.com/linuxmatters/iamfkit/internal/obu"

// ChannelAudioLayerMetadata is one user-declared scalable-channel layer.
type ChannelAudioLayerMetadata struct {
	LoudspeakerLayout         obu.LoudspeakerLayout
	ExpandedLoudspeakerLayout *obu.ExpandedLoudspeakerLayout
	OutputGainIsPresent       bool
	ReconGainIsPresent        bool
	SubstreamCount            int
	CoupledSubstreamCount     int
	OutputGainFlag            uint8
	OutputGain                int16
}

// AmbisonicsMonoMetadata is a user-declared mono Ambisonics config.
type AmbisonicsMonoMetadata struct {
	OutputChannelCount int
	SubstreamCount     int
	ChannelMapping     []int
}

// AmbisonicsProjectionMetadata is a user-declared projection Ambisonics
// config.
type AmbisonicsProjectionMetadata struct {
	OutputChannelCount    int
	SubstreamCount        int
	CoupledSubstreamCount int
	DemixingMatrix        []int32
}

// ObjectsMetadata is a user-declared object-based config.
type ObjectsMetadata struct {
	NumObjects int64
	Extension  []byte
}

// ExtensionMetadata is a user-declared opaque-extension config.
type ExtensionMetadata struct {
	Data []byte
}

// AudioElementParamMetadata is one user-declared parameter attachment,
// mirroring the wire ParamDefinition tagged union plus the deprecated
// integer-typed variant the generator must reject (§4.3 step 4).
type AudioElementParamMetadata struct {
	HasEnumType              bool // false means the deprecated integer-typed variant was supplied
	Type                     obu.ParamDefinitionType
	ParameterID              uint64
	ParameterRate            uint64
	Mode                     uint8
	Duration                 uint64
	ConstantSubblockDuration uint64

	DefaultMixGain   int16
	DefaultDMixPMode obu.DMixPMode
	DefaultW         uint8
}

// AudioElementMetadata is everything a user supplies to describe one audio
// element, before codec-config cross-referencing and table-driven
// derivation (§4.3).
type AudioElementMetadata struct {
	AudioElementID uint64
	Type           obu.AudioElementType
	CodecConfigID  uint64
	SubstreamIDs   []uint64
	Params         []AudioElementParamMetadata

	ChannelLayers        []ChannelAudioLayerMetadata
	AmbisonicsMono       *AmbisonicsMonoMetadata
	AmbisonicsProjection *AmbisonicsProjectionMetadata
	Objects              *ObjectsMetadata
	Extension            *ExtensionMetadata

	// Deprecated width fields the generator must warn-and-ignore (§4.3 step 6).
	DeprecatedNumParameters    *int
	DeprecatedNumSubstreams    *int
	DeprecatedNumLayers        *int
	DeprecatedParamDefSize     *int
}

// SubMixElementMetadata is one user-declared sub-mix element attachment.
type SubMixElementMetadata struct {
	AudioElementID               uint64
	LocalizedElementAnnotations  []string
	HeadphonesRenderingMode      obu.HeadphonesRenderingMode
	RenderingConfigExtension     []byte

	// Modern fields.
	ElementMixGain *int16
	// Deprecated legacy field; used only if ElementMixGain is nil (§4.4).
	DeprecatedElementMixConfigGain *int16
}

// AnchoredLoudnessMetadata mirrors obu.AnchoredLoudnessElement.
type AnchoredLoudnessMetadata struct {
	AnchorElement    uint8
	AnchoredLoudness int16
}

// LoudnessInfoMetadata is a user-declared loudness measurement.
type LoudnessInfoMetadata struct {
	InfoType           uint8
	IntegratedLoudness int16
	DigitalPeak        int16
	TruePeak           *int16
	AnchoredLoudness   []AnchoredLoudnessMetadata
	LayoutExtension    []byte
}

// SubMixLayoutMetadata pairs a loudness layout with its measurement.
type SubMixLayoutMetadata struct {
	Kind         obu.LayoutKind
	SoundSystem  obu.SoundSystem
	LoudnessInfo LoudnessInfoMetadata
}

// SubMixMetadata is one user-declared sub-mix.
type SubMixMetadata struct {
	Elements []SubMixElementMetadata
	Layouts  []SubMixLayoutMetadata

	// Modern field.
	OutputMixGain *int16
	// Deprecated legacy field; used only if OutputMixGain is nil (§4.4).
	DeprecatedOutputMixConfigGain *int16
}

// MixPresentationTagMetadata mirrors obu.MixPresentationTag.
type MixPresentationTagMetadata struct {
	TagName  string
	TagValue string
}

// MixPresentationMetadata is everything a user supplies to describe one mix
// presentation (§4.4).
type MixPresentationMetadata struct {
	MixPresentationID uint64

	// Modern fields.
	AnnotationsLanguage               []string
	LocalizedPresentationAnnotations []string
	// Deprecated legacy fields; used only if the modern ones are empty (§4.4).
	DeprecatedLanguageLabels                []string
	DeprecatedMixPresentationAnnotationsArray []string

	SubMixes []SubMixMetadata

	IncludeTags        bool
	Tags               []MixPresentationTagMetadata
	AppendBuildInformation bool
}

// ParameterBlockMetadata is a user-declared parameter block instance,
// already keyed to a parameter_id and carrying its own subblocks (§4.6).
type ParameterBlockMetadata struct {
	ParameterID              uint64
	StartTimestamp           uint64
	Mode                     uint8
	Duration                 uint64
	ConstantSubblockDuration uint64
	NumSubblocks             uint64
	Subblocks                []obu.Subblock

	// OverrideComputedReconGains, when true, skips cross-checking
	// user-supplied recon-gain bitmasks/bytes against §E's computation
	// (§4.6 step 5).
	OverrideComputedReconGains bool
}
