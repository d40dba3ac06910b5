package ui

// DescriptorPushedMsg reports that push_descriptor_obus has written the
// prelude (or, in delayed mode, that it has now resolved against the first
// temporal unit's untrimmed timestamp).
type DescriptorPushedMsg struct {
	DescriptorBytes int
	SamplesPerFrame uint32
	SampleRate      uint32
}

// TemporalUnitPushedMsg reports one push_temporal_unit call.
type TemporalUnitPushedMsg struct {
	Index               int
	Timestamp           uint64
	NumUntrimmedSamples uint32
	Bytes               int
}

// SequencingCompleteMsg reports that the sequencer has closed, successfully
// or otherwise.
type SequencingCompleteMsg struct {
	TemporalUnits   int
	DescriptorBytes int
	TotalBytes      int
	Err             error
}
