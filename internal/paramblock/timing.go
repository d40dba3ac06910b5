package paramblock

import "github.com/linuxmatters/iamfkit/internal/ierr"

// GlobalTiming is the external collaborator §9 calls out: it turns a
// parameter stream's per-block (start, duration) pairs into validated
// (start, end) timestamps and answers substream-coverage questions. The
// core ships one concrete, in-memory implementation; callers needing a
// different timeline authority substitute their own.
type GlobalTiming interface {
	// GetNextParameterBlockTimestamps validates that metadataStart is
	// contiguous with the previous block on parameterID (or is the first
	// block) and returns the resolved (start, end) timestamps.
	GetNextParameterBlockTimestamps(parameterID uint64, metadataStart, duration uint64) (start, end uint64, err error)
	// SubstreamCovered reports whether [globalStart, globalEnd] fully
	// covers the given substream's span.
	SubstreamCovered(audioElementID, substreamID uint64, globalStart, globalEnd uint64) (bool, error)
}

// substreamSpan is one substream's full timestamp extent, registered by the
// caller before generation so SubstreamCovered has something to check
// against.
type substreamSpan struct {
	start, end uint64
}

// DefaultGlobalTiming is the in-memory GlobalTiming every generator uses
// unless the caller substitutes another implementation.
type DefaultGlobalTiming struct {
	lastEnd map[uint64]uint64
	started map[uint64]bool
	spans   map[[2]uint64]substreamSpan // keyed by {audio_element_id, substream_id}
}

// NewDefaultGlobalTiming constructs an empty timing authority.
func NewDefaultGlobalTiming() *DefaultGlobalTiming {
	return &DefaultGlobalTiming{
		lastEnd: make(map[uint64]uint64),
		started: make(map[uint64]bool),
		spans:   make(map[[2]uint64]substreamSpan),
	}
}

// RegisterSubstream declares a substream's full timestamp extent for later
// coverage checks.
func (g *DefaultGlobalTiming) RegisterSubstream(audioElementID, substreamID, start, end uint64) {
	g.spans[[2]uint64{audioElementID, substreamID}] = substreamSpan{start: start, end: end}
}

func (g *DefaultGlobalTiming) GetNextParameterBlockTimestamps(parameterID uint64, metadataStart, duration uint64) (uint64, uint64, error) {
	if g.started[parameterID] {
		prevEnd := g.lastEnd[parameterID]
		if metadataStart != prevEnd {
			return 0, 0, ierr.InvalidArgument("parameter %d: block start %d is not contiguous with previous end %d", parameterID, metadataStart, prevEnd)
		}
	}
	end := metadataStart + duration
	g.started[parameterID] = true
	g.lastEnd[parameterID] = end
	return metadataStart, end, nil
}

func (g *DefaultGlobalTiming) SubstreamCovered(audioElementID, substreamID uint64, globalStart, globalEnd uint64) (bool, error) {
	span, ok := g.spans[[2]uint64{audioElementID, substreamID}]
	if !ok {
		return false, ierr.InvalidArgument("no registered span for audio element %d substream %d", audioElementID, substreamID)
	}
	return globalStart <= span.start && globalEnd >= span.end, nil
}
