// Package sampleprocessor specifies the façade contract a downstream
// renderer implements against (§6.2): push decoded frames in, pull
// rendered output out, on its own schedule relative to the core's
// single-threaded push loop.
//
// Grounded on _examples/linuxmatters-jivetalking's internal/processor
// package boundary: the core (like the teacher's Processor) never reaches
// into a renderer's internals, only calls its exported contract.
package sampleprocessor

import "context"

// Processor is implemented by any renderer a Sequencer or higher-level
// pipeline pushes decoded audio into. Implementations may buffer
// internally (cross-fades, look-ahead filters); PushFrame does not imply
// GetOutputSamplesAsSpan has new data immediately.
//
// The only externally-visible thread-safety requirement in this core is
// here (§5, §6.2): PushFrame/Flush are called from the single-threaded
// push loop, but GetOutputSamplesAsSpan/IsFinalized may be polled
// concurrently from a separate rendering thread. Implementations must
// synchronize accordingly.
type Processor interface {
	// PushFrame accepts one audio element's worth of decoded samples for
	// one temporal unit, keyed by channel label.
	PushFrame(ctx context.Context, frame Frame) error
	// Flush signals no more frames are coming; any buffered look-ahead
	// state must drain into GetOutputSamplesAsSpan.
	Flush(ctx context.Context) error
	// GetOutputSamplesAsSpan returns whatever rendered output is ready,
	// consuming it from the internal buffer.
	GetOutputSamplesAsSpan() []float64
	// IsFinalized reports whether Flush has completed and all buffered
	// output has been drained.
	IsFinalized() bool
}

// Frame is one temporal unit's decoded samples for one audio element,
// keyed by channel label string (avoiding an import cycle on
// internal/label here; callers pass label.LabelToString(l) as the key).
type Frame struct {
	AudioElementID uint64
	StartTimestamp uint64
	EndTimestamp   uint64
	Samples        map[string][]float64
}
