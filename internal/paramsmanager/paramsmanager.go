// Package paramsmanager implements the Parameters Manager (§G): at each
// temporal unit boundary, derives down-mix weight coefficients from the
// active demixing parameter block of each audio element.
//
// Grounded on _examples/original_source/iamf/cli/parameters_manager.cc.
package paramsmanager

import (
	"sort"

	"github.com/linuxmatters/iamfkit/internal/ierr"
	"github.com/linuxmatters/iamfkit/internal/obu"
)

// WIdxUpdateRule selects how dmixpModeToDownMixingParams advances w_idx.
type WIdxUpdateRule int

const (
	RuleNormal WIdxUpdateRule = iota
	RuleFirstFrame
	RuleDefault
)

// DownMixingParams is the renderer-facing output of one
// GetDownMixingParameters call.
type DownMixingParams struct {
	Alpha, Beta, Gamma, Delta float64
	WIdxOffset                int
	WIdxUsed                  int
	W                         float64
	InBitstream               bool
}

// parameterBlockEntry is one demixing parameter block keyed by its start
// timestamp, ordered ascending the way the original's btree_map is.
type parameterBlockEntry struct {
	startTimestamp uint64
	endTimestamp   uint64
	dmixpMode      obu.DMixPMode
}

// demixingState is one audio element's mutable iteration state over its
// parameter_id's ordered parameter blocks.
type demixingState struct {
	definition     *obu.ParamDefinition
	blocks         []parameterBlockEntry
	pos            int // index into blocks; len(blocks) means "at end"
	previousWIdx   int
	wIdx           int
	nextTimestamp  uint64
}

func (s *demixingState) atEnd() bool { return s.pos >= len(s.blocks) }

// Manager is the Parameters Manager's mutable state for one rendered
// sequence.
type Manager struct {
	states map[uint64]*demixingState // audio_element_id -> state
}

// NewManager constructs a Manager, validating at most one DemixingParamDefinition
// per audio element (more fails InvalidArgument), and indexing the given
// demixing parameter blocks by parameter_id and start timestamp.
func NewManager(audioElements map[uint64]*obu.AudioElement, demixingBlocks []*obu.ParameterBlock, blockTimestamps map[*obu.ParameterBlock][2]uint64) (*Manager, error) {
	byParamID := make(map[uint64][]parameterBlockEntry)
	for _, pb := range demixingBlocks {
		if pb.Type != obu.ParamDemixing {
			continue
		}
		if len(pb.Subblocks) != 1 || pb.Subblocks[0].DMixPMode == nil {
			return nil, ierr.InvalidArgument("demixing parameter block %d missing dmixp_mode subblock", pb.ParameterID)
		}
		ts, ok := blockTimestamps[pb]
		if !ok {
			return nil, ierr.InvalidArgument("demixing parameter block %d has no recorded timestamps", pb.ParameterID)
		}
		byParamID[pb.ParameterID] = append(byParamID[pb.ParameterID], parameterBlockEntry{
			startTimestamp: ts[0],
			endTimestamp:   ts[1],
			dmixpMode:      *pb.Subblocks[0].DMixPMode,
		})
	}
	for id, entries := range byParamID {
		sort.Slice(entries, func(i, j int) bool { return entries[i].startTimestamp < entries[j].startTimestamp })
		byParamID[id] = entries
	}

	m := &Manager{states: make(map[uint64]*demixingState)}
	for audioElementID, ae := range audioElements {
		var def *obu.ParamDefinition
		for _, pd := range ae.ParamDefinitions {
			if pd.Type != obu.ParamDemixing {
				continue
			}
			if def != nil {
				return nil, ierr.InvalidArgument("audio element %d has more than one demixing parameter definition", audioElementID)
			}
			def = pd
		}
		if def == nil {
			continue
		}
		m.states[audioElementID] = &demixingState{
			definition: def,
			blocks:     byParamID[def.ParameterID], // nil is fine: empty map entry per the original
		}
	}
	return m, nil
}

// GetDownMixingParameters implements §4.7's first operation.
func (m *Manager) GetDownMixingParameters(audioElementID uint64, out *DownMixingParams) error {
	state, ok := m.states[audioElementID]
	if !ok {
		*out = DownMixingParams{Alpha: 0.707, Beta: 0.707, Gamma: 0.707, Delta: 0.707, InBitstream: false}
		return nil
	}

	if state.atEnd() {
		def := state.definition.Demixing
		return dmixpModeToDownMixingParams(def.DefaultDMixPMode, int(def.DefaultW), RuleDefault, out)
	}

	entry := state.blocks[state.pos]
	rule := RuleNormal
	if state.pos == 0 {
		rule = RuleFirstFrame
	}
	if err := dmixpModeToDownMixingParams(entry.dmixpMode, state.previousWIdx, rule, out); err != nil {
		return err
	}
	state.wIdx = out.WIdxUsed
	return nil
}

// UpdateDownMixingParameters implements §4.7's second operation.
func (m *Manager) UpdateDownMixingParameters(audioElementID uint64, expectedTimestamp uint64) error {
	state, ok := m.states[audioElementID]
	if !ok {
		return nil
	}
	if state.atEnd() {
		return nil
	}
	if expectedTimestamp != state.nextTimestamp {
		return ierr.InvalidArgument("mismatching timestamps for down-mixing parameters: (%d vs %d)", state.nextTimestamp, expectedTimestamp)
	}
	state.previousWIdx = state.wIdx
	state.nextTimestamp = state.blocks[state.pos].endTimestamp
	state.pos++
	return nil
}

// dmixpModeToDownMixingParams encodes §4.7's fixed three-table lookup.
func dmixpModeToDownMixingParams(mode obu.DMixPMode, previousWIdx int, rule WIdxUpdateRule, out *DownMixingParams) error {
	row, ok := dmixModeTable[mode]
	if !ok {
		return ierr.InvalidArgument("reserved or unknown dmixp_mode %d", mode)
	}
	if previousWIdx < 0 || previousWIdx > 10 {
		return ierr.InvalidArgument("previous w_idx out of [0,10]: %d", previousWIdx)
	}

	var wIdx int
	switch rule {
	case RuleFirstFrame:
		wIdx = 0
	case RuleDefault:
		wIdx = previousWIdx
	case RuleNormal:
		wIdx = previousWIdx + row.wIdxOffset
		if wIdx < 0 {
			wIdx = 0
		}
		if wIdx > 10 {
			wIdx = 10
		}
	default:
		return ierr.InvalidArgument("unknown w_idx update rule %d", rule)
	}

	*out = DownMixingParams{
		Alpha:       row.alpha,
		Beta:        row.beta,
		Gamma:       row.gamma,
		Delta:       row.delta,
		WIdxOffset:  row.wIdxOffset,
		WIdxUsed:    wIdx,
		W:           wTable[wIdx],
		InBitstream: true,
	}
	return nil
}
