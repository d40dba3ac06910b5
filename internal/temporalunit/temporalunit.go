// Package temporalunit implements the Temporal-Unit View (§H, part 1): one
// playback tick's audio frames, parameter blocks, and arbitrary records,
// cross-validated and sorted for the sequencer.
//
// Grounded on
// _examples/original_source/iamf/cli/obu_sequencer_base.h's per-tick
// grouping and invariants.
package temporalunit

import (
	"sort"

	"github.com/linuxmatters/iamfkit/internal/ierr"
	"github.com/linuxmatters/iamfkit/internal/obu"
)

// AudioFrameWithData pairs a wire AudioFrame with the back-pointers
// spec.md's invariant 2 requires: the owning audio element and codec
// config, neither of which travels with the frame on the wire.
type AudioFrameWithData struct {
	Frame             *obu.AudioFrame
	AudioElementID    uint64
	CodecConfigID     uint64
	StartTimestamp    uint64
	EndTimestamp      uint64
	SamplesPerFrame   uint32
}

// ParameterBlockWithData pairs a wire ParameterBlock with the timestamps the
// generator resolved for it (§4.6), since they aren't recoverable from the
// block alone in mode-0 (fixed-duration) encoding.
type ParameterBlockWithData struct {
	Block          *obu.ParameterBlock
	StartTimestamp uint64
	EndTimestamp   uint64
}

// ArbitraryAtTick is an arbitrary record targeting one of the three
// per-tick insertion hooks.
type ArbitraryAtTick struct {
	Record *obu.Arbitrary
}

// View is one fully-validated temporal unit: every record sharing this
// tick's timestamp span, sorted into the order the sequencer serializes.
type View struct {
	StartTimestamp uint64
	EndTimestamp   uint64

	AudioFrames     []AudioFrameWithData // sorted by substream id
	ParameterBlocks []ParameterBlockWithData // sorted by parameter id
	Arbitrary       []ArbitraryAtTick

	NumUntrimmedSamples uint32
}

// Create validates and assembles a View from one tick's raw records (§4.8).
func Create(parameterBlocks []ParameterBlockWithData, audioFrames []AudioFrameWithData, arbitraryRecords []ArbitraryAtTick) (*View, error) {
	if err := validateNonEmptyOrInvalidating(audioFrames, arbitraryRecords); err != nil {
		return nil, err
	}

	if len(audioFrames) > 0 {
		first := audioFrames[0]
		seenSubstream := make(map[uint64]bool, len(audioFrames))
		for _, f := range audioFrames {
			if f.AudioElementID == 0 && f.CodecConfigID == 0 {
				return nil, ierr.InvalidArgument("audio frame for substream %d has no audio_element/codec_config back-pointer", f.Frame.SubstreamID)
			}
			if f.StartTimestamp != first.StartTimestamp || f.EndTimestamp != first.EndTimestamp ||
				f.Frame.Trim != first.Frame.Trim {
				return nil, ierr.InvalidArgument("audio frames in one temporal unit must share {start,end,trim}")
			}
			if seenSubstream[f.Frame.SubstreamID] {
				return nil, ierr.InvalidArgument("duplicate substream id %d in temporal unit", f.Frame.SubstreamID)
			}
			seenSubstream[f.Frame.SubstreamID] = true
			if err := f.Frame.ValidateTrim(f.SamplesPerFrame); err != nil {
				return nil, err
			}
		}
	}

	if len(parameterBlocks) > 0 {
		first := parameterBlocks[0]
		seenParam := make(map[uint64]bool, len(parameterBlocks))
		for _, p := range parameterBlocks {
			if p.StartTimestamp != first.StartTimestamp || p.EndTimestamp != first.EndTimestamp {
				return nil, ierr.InvalidArgument("parameter blocks in one temporal unit must share {start,end}")
			}
			if seenParam[p.Block.ParameterID] {
				return nil, ierr.InvalidArgument("duplicate parameter id %d in temporal unit", p.Block.ParameterID)
			}
			seenParam[p.Block.ParameterID] = true
		}
	}

	if len(arbitraryRecords) > 0 {
		// All per-tick arbitrary records in one unit share its insertion
		// tick; non-per-tick hooks (descriptor hooks) don't belong in a
		// temporal unit at all.
		var tick uint64
		haveTick := false
		for _, a := range arbitraryRecords {
			if !obu.IsPerTickHook(a.Record.InsertionHook) {
				return nil, ierr.InvalidArgument("arbitrary record with non-per-tick hook %v in temporal unit", a.Record.InsertionHook)
			}
			if !haveTick {
				tick = a.Record.InsertionTick
				haveTick = true
			} else if a.Record.InsertionTick != tick {
				return nil, ierr.InvalidArgument("arbitrary records in one temporal unit must share one insertion tick")
			}
		}
	}

	v := &View{
		AudioFrames:     append([]AudioFrameWithData{}, audioFrames...),
		ParameterBlocks: append([]ParameterBlockWithData{}, parameterBlocks...),
		Arbitrary:       append([]ArbitraryAtTick{}, arbitraryRecords...),
	}
	sort.Slice(v.AudioFrames, func(i, j int) bool {
		return v.AudioFrames[i].Frame.SubstreamID < v.AudioFrames[j].Frame.SubstreamID
	})
	sort.Slice(v.ParameterBlocks, func(i, j int) bool {
		return v.ParameterBlocks[i].Block.ParameterID < v.ParameterBlocks[j].Block.ParameterID
	})

	switch {
	case len(audioFrames) > 0:
		v.StartTimestamp = audioFrames[0].StartTimestamp
		v.EndTimestamp = audioFrames[0].EndTimestamp
		v.NumUntrimmedSamples = audioFrames[0].SamplesPerFrame -
			audioFrames[0].Frame.Trim.NumSamplesToTrimAtStart - audioFrames[0].Frame.Trim.NumSamplesToTrimAtEnd
	case len(parameterBlocks) > 0:
		v.StartTimestamp = parameterBlocks[0].StartTimestamp
		v.EndTimestamp = parameterBlocks[0].EndTimestamp
	}
	return v, nil
}

// validateNonEmptyOrInvalidating implements §3.9's rule: a temporal unit
// with no audio frames must carry at least one invalidating arbitrary
// record.
func validateNonEmptyOrInvalidating(audioFrames []AudioFrameWithData, arbitraryRecords []ArbitraryAtTick) error {
	if len(audioFrames) > 0 {
		return nil
	}
	for _, a := range arbitraryRecords {
		if a.Record.InvalidatesBitstream {
			return nil
		}
	}
	return ierr.InvalidArgument("temporal unit has no audio frames and no invalidating arbitrary record")
}
