// Package paramblock implements the Parameter-Block Generator (§F): turning
// per-block user metadata into wire ParameterBlock records, grouped by
// parameter family, with stray-block inference and coverage validation.
//
// Grounded on
// _examples/original_source/iamf/cli/parameter_block_generator.h.
package paramblock

import (
	"sort"
	"strconv"

	"github.com/linuxmatters/iamfkit/internal/ierr"
	"github.com/linuxmatters/iamfkit/internal/label"
	"github.com/linuxmatters/iamfkit/internal/metadata"
	"github.com/linuxmatters/iamfkit/internal/obu"
	"github.com/linuxmatters/iamfkit/internal/recongain"
)

// perIDMetadata is the generator's record of one parameter_id's definition
// plus recon-gain-only derived fields (§4.6).
type perIDMetadata struct {
	definition  *obu.ParamDefinition
	typ         obu.ParamDefinitionType
	numLayers   uint8
	reconGainIsPresent []bool
}

// WarnFunc receives non-fatal diagnostics: a stray block accepted, a
// deprecated field ignored.
type WarnFunc func(format string, args ...any)

func noopWarn(string, ...any) {}

// Generated is the per-type output of one generation pass.
type Generated struct {
	Demixing  []*obu.ParameterBlock
	MixGain   []*obu.ParameterBlock
	ReconGain []*obu.ParameterBlock
}

// blockSpan tracks one parameter_id's observed [start,end] extent across
// all blocks generated for it, for validate_parameter_coverage.
type blockSpan struct {
	start, end uint64
	seen       bool
}

// Generator is the Parameter-Block Generator's mutable state (§4.6).
type Generator struct {
	perID       map[uint64]*perIDMetadata
	referencing map[uint64]map[uint64]bool // parameter_id -> set<audio_element_id>
	codecConfigsExist bool
	defaultCodecConfigID uint64
	defaultCodecRate     uint64
	spans       map[uint64]*blockSpan
	warn        WarnFunc
}

// NewGenerator constructs the generator, scanning every audio element's
// parameter list and every mix presentation's element-mix-gain and
// output-mix-gain to build the parameter_id -> audio_element reverse edges
// (§4.6 internal state).
func NewGenerator(audioElements map[uint64]*obu.AudioElement, mixPresentations []*obu.MixPresentation, warn WarnFunc) *Generator {
	if warn == nil {
		warn = noopWarn
	}
	g := &Generator{
		perID:       make(map[uint64]*perIDMetadata),
		referencing: make(map[uint64]map[uint64]bool),
		spans:       make(map[uint64]*blockSpan),
		warn:        warn,
	}
	for aeID, ae := range audioElements {
		g.codecConfigsExist = true
		for _, pd := range ae.ParamDefinitions {
			g.registerDefinition(pd)
			g.addReference(pd.ParameterID, aeID)
		}
	}
	for _, mp := range mixPresentations {
		for _, sm := range mp.SubMixes {
			for _, e := range sm.Elements {
				if e.ElementMixGain != nil {
					g.registerDefinition(e.ElementMixGain)
					g.addReference(e.ElementMixGain.ParameterID, e.AudioElementID)
				}
			}
			g.registerDefinition(&sm.OutputMixGain)
		}
	}
	return g
}

func (g *Generator) registerDefinition(pd *obu.ParamDefinition) {
	if _, ok := g.perID[pd.ParameterID]; ok {
		return
	}
	m := &perIDMetadata{definition: pd, typ: pd.Type}
	if pd.ReconGain != nil {
		m.numLayers = pd.ReconGain.NumLayers
		m.reconGainIsPresent = pd.ReconGain.ReconGainIsPresentFlags
	}
	g.perID[pd.ParameterID] = m
}

func (g *Generator) addReference(parameterID, audioElementID uint64) {
	if g.referencing[parameterID] == nil {
		g.referencing[parameterID] = make(map[uint64]bool)
	}
	g.referencing[parameterID][audioElementID] = true
}

// SetDefaultCodecRate supplies the rate a stray block infers when no
// per-id metadata exists (§4.6 step 1).
func (g *Generator) SetDefaultCodecRate(codecConfigID, rate uint64) {
	g.codecConfigsExist = true
	g.defaultCodecConfigID = codecConfigID
	g.defaultCodecRate = rate
}

// resolveMetadata implements §4.6 step 1: look up per-id metadata, or infer
// a stray block's type/rate/mode from its own subblocks.
func (g *Generator) resolveMetadata(block metadata.ParameterBlockMetadata) (*perIDMetadata, error) {
	if m, ok := g.perID[block.ParameterID]; ok {
		return m, nil
	}
	if len(block.Subblocks) == 0 {
		return nil, ierr.InvalidArgument("parameter %d: no per-id metadata and no subblocks to infer from", block.ParameterID)
	}
	if !g.codecConfigsExist {
		return nil, ierr.Unknown("parameter %d: stray block with no codec config to infer rate from", block.ParameterID)
	}
	typ := inferTypeFromSubblock(block.Subblocks[0])
	g.warn("parameter %d: accepting stray parameter block, inferred type %v", block.ParameterID, typ)
	m := &perIDMetadata{
		typ: typ,
		definition: &obu.ParamDefinition{
			Type:          typ,
			ParameterID:   block.ParameterID,
			ParameterRate: g.defaultCodecRate,
			Mode:          1,
		},
	}
	if typ == obu.ParamReconGain {
		m.numLayers = uint8(len(block.Subblocks[0].ReconGain))
		m.reconGainIsPresent = make([]bool, m.numLayers)
		for i := range m.reconGainIsPresent {
			m.reconGainIsPresent[i] = true
		}
	}
	g.perID[block.ParameterID] = m
	return m, nil
}

func inferTypeFromSubblock(sb obu.Subblock) obu.ParamDefinitionType {
	switch {
	case sb.MixGain != nil:
		return obu.ParamMixGain
	case sb.DMixPMode != nil:
		return obu.ParamDemixing
	case sb.ReconGain != nil:
		return obu.ParamReconGain
	default:
		return obu.ParamMixGain
	}
}

// generateOne runs §4.6 steps 2-6 for one block, given its resolved per-id
// metadata.
func (g *Generator) generateOne(timing GlobalTiming, block metadata.ParameterBlockMetadata, samples, decoded map[label.Label][]float64) (*obu.ParameterBlock, error) {
	m, err := g.resolveMetadata(block)
	if err != nil {
		return nil, err
	}

	var duration uint64
	if block.Mode == 1 {
		duration = block.Duration
	} else {
		duration = m.definition.Duration
	}

	start, end, err := timing.GetNextParameterBlockTimestamps(block.ParameterID, block.StartTimestamp, duration)
	if err != nil {
		return nil, err
	}
	g.recordSpan(block.ParameterID, start, end)

	pb := &obu.ParameterBlock{
		ParameterID: block.ParameterID,
		Type:        m.typ,
		Mode:        block.Mode,
		Duration:    duration,
	}
	if block.Mode == 1 {
		pb.ConstantSubblockDuration = block.ConstantSubblockDuration
		pb.NumSubblocks = block.NumSubblocks
	} else {
		pb.ConstantSubblockDuration = m.definition.ConstantSubblockDuration
		pb.NumSubblocks = uint64(len(block.Subblocks))
	}
	pb.Subblocks = append([]obu.Subblock{}, block.Subblocks...)

	switch m.typ {
	case obu.ParamMixGain:
		for i := range pb.Subblocks {
			if pb.Subblocks[i].MixGain == nil {
				return nil, ierr.InvalidArgument("parameter %d: mix gain subblock %d missing animation payload", block.ParameterID, i)
			}
		}
	case obu.ParamDemixing:
		if len(pb.Subblocks) != 1 {
			return nil, ierr.InvalidArgument("parameter %d: demixing parameter block must have exactly one subblock", block.ParameterID)
		}
		if pb.Subblocks[0].DMixPMode == nil {
			return nil, ierr.InvalidArgument("parameter %d: demixing subblock missing dmixp_mode", block.ParameterID)
		}
	case obu.ParamReconGain:
		if len(pb.Subblocks) != 1 {
			return nil, ierr.InvalidArgument("parameter %d: recon gain parameter block must have exactly one subblock", block.ParameterID)
		}
		if err := g.reconcileReconGain(block.ParameterID, m, &pb.Subblocks[0], samples, decoded, block.OverrideComputedReconGains); err != nil {
			return nil, err
		}
	}
	return pb, nil
}

// reconcileReconGain implements §4.6 step 5: unless override is set,
// recompute gains via §E and compare against the user-supplied bitmask and
// bytes, reporting every mismatch before returning.
func (g *Generator) reconcileReconGain(parameterID uint64, m *perIDMetadata, sb *obu.Subblock, samples, decoded map[label.Label][]float64, override bool) error {
	if len(sb.ReconGain) != int(m.numLayers) {
		return ierr.InvalidArgument("parameter %d: recon gain subblock has %d layers, definition declares %d", parameterID, len(sb.ReconGain), m.numLayers)
	}
	anyPresent := false
	for _, l := range sb.ReconGain {
		if l.PresentMask != 0 {
			anyPresent = true
		}
	}
	if override {
		return nil
	}

	var mismatches []string
	for i := range sb.ReconGain {
		if !m.reconGainIsPresent[i] {
			continue
		}
		computed := make(map[label.Label]float64)
		for l, pos := range recongain.BitPosition {
			if sb.ReconGain[i].PresentMask&(1<<uint(pos)) == 0 {
				continue
			}
			gain, err := recongain.ComputeReconGain(l, samples, decoded, nil)
			if err != nil {
				return ierr.Wrap(err, "parameter block recon gain reconciliation")
			}
			computed[l] = gain
		}
		packed, err := recongain.PackGains(computed)
		if err != nil {
			return err
		}
		if packed.PresentMask != sb.ReconGain[i].PresentMask {
			mismatches = append(mismatches, "layer present-mask mismatch")
			continue
		}
		for b := 0; b < 12; b++ {
			if packed.Gains[b] != sb.ReconGain[i].Gains[b] {
				mismatches = append(mismatches, "layer gain byte mismatch at bit position "+strconv.Itoa(b))
			}
		}
	}
	if len(mismatches) > 0 {
		return ierr.InvalidArgument("parameter %d: recon gain mismatches: %v", parameterID, mismatches)
	}
	if !anyPresent && anyLayerRequiresPresence(m.reconGainIsPresent) {
		return ierr.InvalidArgument("parameter %d: present-flag vector disagrees with whether gains were computed", parameterID)
	}
	return nil
}

func anyLayerRequiresPresence(flags []bool) bool {
	for _, f := range flags {
		if f {
			return true
		}
	}
	return false
}

func (g *Generator) recordSpan(parameterID, start, end uint64) {
	s, ok := g.spans[parameterID]
	if !ok {
		s = &blockSpan{start: start, end: end, seen: true}
		g.spans[parameterID] = s
		return
	}
	if start < s.start {
		s.start = start
	}
	if end > s.end {
		s.end = end
	}
}

// GenerateDemixing, GenerateMixGain, GenerateReconGain run one pass of
// §4.6 steps 1-6 over the given blocks, dispatching only those whose
// resolved type matches, and append to out.
func (g *Generator) GenerateDemixing(timing GlobalTiming, blocks []metadata.ParameterBlockMetadata, out *Generated) error {
	return g.generateByType(timing, blocks, obu.ParamDemixing, nil, nil, &out.Demixing)
}

func (g *Generator) GenerateMixGain(timing GlobalTiming, blocks []metadata.ParameterBlockMetadata, out *Generated) error {
	return g.generateByType(timing, blocks, obu.ParamMixGain, nil, nil, &out.MixGain)
}

func (g *Generator) GenerateReconGain(timing GlobalTiming, blocks []metadata.ParameterBlockMetadata, samples, decoded map[label.Label][]float64, out *Generated) error {
	return g.generateByType(timing, blocks, obu.ParamReconGain, samples, decoded, &out.ReconGain)
}

func (g *Generator) generateByType(timing GlobalTiming, blocks []metadata.ParameterBlockMetadata, want obu.ParamDefinitionType, samples, decoded map[label.Label][]float64, out *[]*obu.ParameterBlock) error {
	for _, b := range blocks {
		m, err := g.resolveMetadata(b)
		if err != nil {
			return err
		}
		if m.typ != want {
			continue
		}
		pb, err := g.generateOne(timing, b, samples, decoded)
		if err != nil {
			return err
		}
		*out = append(*out, pb)
	}
	return nil
}

// ValidateParameterCoverage implements §4.6's post-generation check: each
// referenced parameter stream must fully cover every audio element
// substream it's attached to. Stray streams (no reference) are skipped.
func (g *Generator) ValidateParameterCoverage(timing GlobalTiming, substreamsByAudioElement map[uint64][]uint64) error {
	ids := make([]uint64, 0, len(g.spans))
	for id := range g.spans {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, parameterID := range ids {
		refs := g.referencing[parameterID]
		if len(refs) == 0 {
			continue
		}
		span := g.spans[parameterID]
		for aeID := range refs {
			for _, substreamID := range substreamsByAudioElement[aeID] {
				covered, err := timing.SubstreamCovered(aeID, substreamID, span.start, span.end)
				if err != nil {
					return err
				}
				if !covered {
					return ierr.InvalidArgument("parameter %d does not cover full span of audio element %d substream %d", parameterID, aeID, substreamID)
				}
			}
		}
	}
	return nil
}
