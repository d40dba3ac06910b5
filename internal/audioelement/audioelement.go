// Package audioelement implements the Audio-Element Generator (§C):
// turning user-supplied metadata plus the resolved codec configs into wire
// AudioElement records, along with the derived per-layer label tables a
// renderer needs downstream.
//
// Grounded on _examples/original_source/iamf/cli/audio_element_generator.h
// and channel_label.cc for the per-layer label derivation.
package audioelement

import (
	"sort"

	"github.com/linuxmatters/iamfkit/internal/ierr"
	"github.com/linuxmatters/iamfkit/internal/label"
	"github.com/linuxmatters/iamfkit/internal/metadata"
	"github.com/linuxmatters/iamfkit/internal/obu"
)

// ChannelNumbers tracks the running {surround, lfe, height} triple that
// finalize_scalable_channel_layout_config requires to be monotone
// non-decreasing across layers.
type ChannelNumbers struct {
	Surround int
	LFE      int
	Height   int
}

func (c ChannelNumbers) atLeast(prev ChannelNumbers) bool {
	return c.Surround >= prev.Surround && c.LFE >= prev.LFE && c.Height >= prev.Height
}

// Derived holds the per-audio-element tables computed by
// finalize_scalable_channel_layout_config (§4.3.1), kept out of the wire
// format and consulted by downstream renderers and the recon-gain engine.
type Derived struct {
	SubstreamLabels        map[uint64][]label.Label
	ChannelNumbersPerLayer []ChannelNumbers
	LabelToOutputGainDB    map[label.Label]float64
}

// WarnFunc receives non-fatal diagnostics (§5: immutable label tables aside,
// the generator itself has no logging state of its own; callers decide
// where warnings go, mirroring the sequencer's sink).
type WarnFunc func(format string, args ...any)

func noopWarn(string, ...any) {}

// Generate builds one AudioElement per metadata item plus its derived
// per-layer label tables (§4.3).
func Generate(codecConfigs map[uint64]*obu.CodecConfig, items []metadata.AudioElementMetadata, warn WarnFunc) (map[uint64]*obu.AudioElement, map[uint64]*Derived, error) {
	if warn == nil {
		warn = noopWarn
	}
	result := make(map[uint64]*obu.AudioElement, len(items))
	derived := make(map[uint64]*Derived, len(items))
	for _, item := range items {
		if _, dup := result[item.AudioElementID]; dup {
			return nil, nil, ierr.InvalidArgument("duplicate audio_element_id %d", item.AudioElementID)
		}
		cc, ok := codecConfigs[item.CodecConfigID]
		if !ok {
			return nil, nil, ierr.InvalidArgument("audio element %d references unknown codec_config_id %d", item.AudioElementID, item.CodecConfigID)
		}

		warnDeprecatedWidths(item, warn)

		ae := &obu.AudioElement{
			AudioElementID: item.AudioElementID,
			Type:           item.Type,
			CodecConfigID:  item.CodecConfigID,
			SubstreamIDs:   append([]uint64{}, item.SubstreamIDs...),
		}

		var d *Derived
		var err error
		switch item.Type {
		case obu.AudioElementChannelBased:
			ae.Config.Scalable, d, err = buildScalable(item)
		case obu.AudioElementSceneBased:
			switch {
			case item.AmbisonicsMono != nil:
				ae.Config.AmbisonicsMono, err = buildAmbisonicsMono(item.AmbisonicsMono)
			case item.AmbisonicsProjection != nil:
				ae.Config.AmbisonicsProjection, err = buildAmbisonicsProjection(item.AmbisonicsProjection)
			default:
				err = ierr.InvalidArgument("scene-based audio element %d missing ambisonics config", item.AudioElementID)
			}
		case obu.AudioElementObjectBased:
			if item.Objects == nil {
				err = ierr.InvalidArgument("object-based audio element %d missing objects config", item.AudioElementID)
			} else {
				ae.Config.Objects = &obu.ObjectsConfig{NumObjects: uint64(item.Objects.NumObjects), Extension: item.Objects.Extension}
			}
		default:
			if item.Extension == nil {
				err = ierr.InvalidArgument("extension audio element %d missing extension config", item.AudioElementID)
			} else {
				ae.Config.Extension = &obu.ExtensionConfig{Data: item.Extension.Data}
			}
		}
		if err != nil {
			return nil, nil, err
		}
		if d == nil {
			d = &Derived{}
		}

		ae.ParamDefinitions, err = buildParamDefinitions(item, cc, ae.Config)
		if err != nil {
			return nil, nil, err
		}

		result[item.AudioElementID] = ae
		derived[item.AudioElementID] = d
	}
	return result, derived, nil
}

func warnDeprecatedWidths(item metadata.AudioElementMetadata, warn WarnFunc) {
	if item.DeprecatedNumParameters != nil {
		warn("audio element %d: ignoring deprecated num_parameters field", item.AudioElementID)
	}
	if item.DeprecatedNumSubstreams != nil {
		warn("audio element %d: ignoring deprecated num_substreams field", item.AudioElementID)
	}
	if item.DeprecatedNumLayers != nil {
		warn("audio element %d: ignoring deprecated num_layers field", item.AudioElementID)
	}
	if item.DeprecatedParamDefSize != nil {
		warn("audio element %d: ignoring deprecated param_definition_size field", item.AudioElementID)
	}
}

func buildAmbisonicsMono(m *metadata.AmbisonicsMonoMetadata) (*obu.AmbisonicsMonoConfig, error) {
	if len(m.ChannelMapping) != m.OutputChannelCount {
		return nil, ierr.InvalidArgument("channel_mapping size %d != output_channel_count %d", len(m.ChannelMapping), m.OutputChannelCount)
	}
	out := &obu.AmbisonicsMonoConfig{
		OutputChannelCount: u8(m.OutputChannelCount),
		SubstreamCount:     u8(m.SubstreamCount),
	}
	for _, v := range m.ChannelMapping {
		out.ChannelMapping = append(out.ChannelMapping, u8(v))
	}
	return out, nil
}

func buildAmbisonicsProjection(m *metadata.AmbisonicsProjectionMetadata) (*obu.AmbisonicsProjectionConfig, error) {
	want := (m.SubstreamCount + m.CoupledSubstreamCount) * m.OutputChannelCount
	if len(m.DemixingMatrix) != want {
		return nil, ierr.InvalidArgument("demixing_matrix size %d != (substream_count+coupled_substream_count)*output_channel_count %d", len(m.DemixingMatrix), want)
	}
	out := &obu.AmbisonicsProjectionConfig{
		OutputChannelCount:    u8(m.OutputChannelCount),
		SubstreamCount:        u8(m.SubstreamCount),
		CoupledSubstreamCount: u8(m.CoupledSubstreamCount),
	}
	for _, v := range m.DemixingMatrix {
		if v < -32768 || v > 32767 {
			return nil, ierr.OutOfRange("demixing matrix entry %d does not fit in int16", v)
		}
		out.DemixingMatrix = append(out.DemixingMatrix, int16(v))
	}
	return out, nil
}

func buildScalable(item metadata.AudioElementMetadata) (*obu.ScalableChannelConfig, *Derived, error) {
	cfg := &obu.ScalableChannelConfig{}
	expandedSeen := false
	for _, l := range item.ChannelLayers {
		layer := obu.LayerConfig{
			LoudspeakerLayout:     l.LoudspeakerLayout,
			OutputGainIsPresent:   l.OutputGainIsPresent,
			ReconGainIsPresent:    l.ReconGainIsPresent,
			SubstreamCount:        u8(l.SubstreamCount),
			CoupledSubstreamCount: u8(l.CoupledSubstreamCount),
			OutputGainFlag:        l.OutputGainFlag,
			OutputGain:            l.OutputGain,
		}
		if l.LoudspeakerLayout == obu.LayoutExpanded {
			if l.ExpandedLoudspeakerLayout == nil {
				return nil, nil, ierr.InvalidArgument("audio element %d: layer with Expanded layout requires expanded_loudspeaker_layout", item.AudioElementID)
			}
			if expandedSeen {
				return nil, nil, ierr.InvalidArgument("audio element %d: Expanded layout allowed in only one layer", item.AudioElementID)
			}
			expandedSeen = true
			v := *l.ExpandedLoudspeakerLayout
			layer.ExpandedLoudspeakerLayout = &v
		} else if l.ExpandedLoudspeakerLayout != nil {
			// Present but ignored, per §4.3 step 3.
			layer.ExpandedLoudspeakerLayout = nil
		}
		cfg.Layers = append(cfg.Layers, layer)
	}
	d, err := finalizeScalableChannelLayoutConfig(item.AudioElementID, item.SubstreamIDs, cfg.Layers)
	if err != nil {
		return nil, nil, err
	}
	return cfg, d, nil
}

// finalizeScalableChannelLayoutConfig implements §4.3.1.
func finalizeScalableChannelLayoutConfig(audioElementID uint64, substreamIDs []uint64, layers []obu.LayerConfig) (*Derived, error) {
	d := &Derived{
		SubstreamLabels:     make(map[uint64][]label.Label),
		LabelToOutputGainDB: make(map[label.Label]float64),
	}
	accumulated := make(map[label.Label]bool)
	var prevCounts ChannelNumbers
	substreamCursor := 0

	for _, layer := range layers {
		var layerLabels []label.Label
		var err error
		if layer.LoudspeakerLayout == obu.LayoutExpanded {
			layerLabels, err = label.ExpandedLayoutLabels(*layer.ExpandedLoudspeakerLayout)
		} else {
			layerLabels, err = label.LoudspeakerLayoutLabels(layer.LoudspeakerLayout)
		}
		if err != nil {
			return nil, err
		}

		var introduced []label.Label
		for _, l := range layerLabels {
			if !accumulated[l] {
				introduced = append(introduced, l)
			}
		}

		idx := 0
		for i := uint8(0); i < layer.SubstreamCount; i++ {
			if substreamCursor >= len(substreamIDs) {
				return nil, ierr.InvalidArgument("audio element %d: not enough substream_ids for declared layer substream counts", audioElementID)
			}
			id := substreamIDs[substreamCursor]
			substreamCursor++
			var assigned []label.Label
			if i < layer.CoupledSubstreamCount {
				if idx+1 >= len(introduced) {
					return nil, ierr.InvalidArgument("audio element %d: not enough introduced labels for layer's coupled substreams", audioElementID)
				}
				assigned = []label.Label{introduced[idx], introduced[idx+1]}
				idx += 2
			} else {
				if idx >= len(introduced) {
					return nil, ierr.InvalidArgument("audio element %d: not enough introduced labels for layer's substreams", audioElementID)
				}
				assigned = []label.Label{introduced[idx]}
				idx++
			}
			d.SubstreamLabels[id] = assigned
		}

		for _, l := range introduced {
			accumulated[l] = true
		}

		// Each layer's loudspeaker_layout already names the full rendering
		// layout reached once this layer is applied, so its channel numbers
		// come from its own label set rather than the cross-layer
		// accumulated set: a layout change that renames the base L/R labels
		// (e.g. stereo's L2/R2 to 3_1_2's L3/R3) must not double-count them.
		counts := countChannels(layerLabelSet(layerLabels))
		if !counts.atLeast(prevCounts) {
			return nil, ierr.InvalidArgument("audio element %d: channel counts {surround,lfe,height} must be monotone non-decreasing across layers", audioElementID)
		}
		prevCounts = counts
		d.ChannelNumbersPerLayer = append(d.ChannelNumbersPerLayer, counts)

		if layer.OutputGainIsPresent {
			applyOutputGain(d, layerLabels, layer.OutputGainFlag, layer.OutputGain)
		}
	}
	return d, nil
}

// applyOutputGain records gain/128 dB for each of the layer's first six
// labels whose bit of the 6-bit output_gain_flag is set; the most
// significant bit addresses the first label of the layer's loudspeaker
// layout.
func applyOutputGain(d *Derived, layerLabels []label.Label, flag uint8, gain int16) {
	gainDB := float64(gain) / 128.0
	for i, l := range layerLabels {
		if i >= 6 {
			break
		}
		if flag&(1<<uint(5-i)) != 0 {
			d.LabelToOutputGainDB[l] = gainDB
		}
	}
}

func layerLabelSet(layerLabels []label.Label) map[label.Label]bool {
	set := make(map[label.Label]bool, len(layerLabels))
	for _, l := range layerLabels {
		set[l] = true
	}
	return set
}

func countChannels(accumulated map[label.Label]bool) ChannelNumbers {
	var c ChannelNumbers
	for l := range accumulated {
		switch l {
		case label.LFE:
			c.LFE++
		case label.Ltf2, label.Rtf2, label.Ltf3, label.Rtf3, label.Ltf4, label.Rtf4, label.Ltb4, label.Rtb4,
			label.TpFL, label.TpFR, label.TpSiL, label.TpSiR, label.TpBL, label.TpBR:
			c.Height++
		default:
			c.Surround++
		}
	}
	return c
}

func buildParamDefinitions(item metadata.AudioElementMetadata, cc *obu.CodecConfig, cfg obu.AudioElementConfig) ([]*obu.ParamDefinition, error) {
	if cfg.Scalable != nil {
		if err := validateReconGainPresence(item.AudioElementID, cc.Codec, cfg.Scalable.Layers); err != nil {
			return nil, err
		}
	}

	var out []*obu.ParamDefinition
	for _, p := range item.Params {
		if !p.HasEnumType {
			return nil, ierr.InvalidArgument("audio element %d: deprecated integer-typed param_definition_type is not accepted", item.AudioElementID)
		}
		if p.Type == obu.ParamMixGain {
			return nil, ierr.InvalidArgument("audio element %d: MixGain parameter definitions are forbidden on an audio element", item.AudioElementID)
		}
		if (p.Type == obu.ParamDemixing || p.Type == obu.ParamReconGain) && p.Duration != cc.NumSamplesPerFrame {
			return nil, ierr.InvalidArgument("audio element %d: parameter %d duration %d must equal codec config's num_samples_per_frame %d", item.AudioElementID, p.ParameterID, p.Duration, cc.NumSamplesPerFrame)
		}
		pd := &obu.ParamDefinition{
			Type:                     p.Type,
			ParameterID:              p.ParameterID,
			ParameterRate:            p.ParameterRate,
			Mode:                     p.Mode,
			Duration:                 p.Duration,
			ConstantSubblockDuration: p.ConstantSubblockDuration,
		}
		switch p.Type {
		case obu.ParamDemixing:
			pd.Demixing = &obu.DemixingParamDefinitionData{DefaultDMixPMode: p.DefaultDMixPMode, DefaultW: p.DefaultW}
		case obu.ParamReconGain:
			if cfg.Scalable == nil {
				return nil, ierr.InvalidArgument("audio element %d: ReconGain parameter requires a channel-based config", item.AudioElementID)
			}
			flags := make([]bool, len(cfg.Scalable.Layers))
			for i, l := range cfg.Scalable.Layers {
				flags[i] = l.ReconGainIsPresent
			}
			pd.ReconGain = &obu.ReconGainParamDefinitionData{
				AudioElementID:          item.AudioElementID,
				NumLayers:               uint8(len(cfg.Scalable.Layers)),
				ReconGainIsPresentFlags: flags,
			}
		default:
			// Reserved/extended types carry no variant data to validate here.
		}
		out = append(out, pd)
	}
	return out, nil
}

// validateReconGainPresence enforces §3.4: recon-gain is required iff a
// lossy codec is used and the element has more than one scalable layer;
// the first layer's recon_gain_is_present must be false, and later layers
// must match required-ness exactly.
func validateReconGainPresence(audioElementID uint64, codec obu.CodecID, layers []obu.LayerConfig) error {
	required := codec.IsLossy() && len(layers) > 1
	for i, l := range layers {
		if i == 0 {
			if l.ReconGainIsPresent {
				return ierr.InvalidArgument("audio element %d: first layer must not set recon_gain_is_present", audioElementID)
			}
			continue
		}
		if l.ReconGainIsPresent != required {
			return ierr.InvalidArgument("audio element %d: layer %d recon_gain_is_present=%v does not match required-ness=%v", audioElementID, i, l.ReconGainIsPresent, required)
		}
	}
	return nil
}

func u8(v int) uint8 {
	return uint8(v)
}

// SortedAudioElementIDs returns keys of m in ascending order, the order the
// sequencer writes audio elements in (§4.9).
func SortedAudioElementIDs(m map[uint64]*obu.AudioElement) []uint64 {
	ids := make([]uint64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
