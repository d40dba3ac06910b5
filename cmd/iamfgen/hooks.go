package main

import (
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/linuxmatters/iamfkit/internal/ui"
)

// fileHooks is the sequencer.Hooks implementation that writes serialized
// bytes straight to the output file and mirrors each callback to the
// Bubbletea progress program.
type fileHooks struct {
	file    io.Writer
	program *tea.Program

	descriptorBytes int
	unitsWritten    int
	totalBytes      int
	finalErr        error
}

func newFileHooks(file io.Writer, program *tea.Program) *fileHooks {
	return &fileHooks{file: file, program: program}
}

func (h *fileHooks) PushSerializedDescriptorObus(samplesPerFrame, sampleRate uint32, bitDepth uint8, firstUntrimmedTimestamp *uint64, numChannels uint32, bytes []byte) error {
	if _, err := h.file.Write(bytes); err != nil {
		return err
	}
	h.descriptorBytes = len(bytes)
	h.totalBytes += len(bytes)
	h.program.Send(ui.DescriptorPushedMsg{
		DescriptorBytes: len(bytes),
		SamplesPerFrame: samplesPerFrame,
		SampleRate:      sampleRate,
	})
	return nil
}

func (h *fileHooks) PushSerializedTemporalUnit(timestamp uint64, numUntrimmedSamples uint32, bytes []byte) error {
	if _, err := h.file.Write(bytes); err != nil {
		return err
	}
	h.totalBytes += len(bytes)
	h.program.Send(ui.TemporalUnitPushedMsg{
		Index:               h.unitsWritten,
		Timestamp:           timestamp,
		NumUntrimmedSamples: numUntrimmedSamples,
		Bytes:               len(bytes),
	})
	h.unitsWritten++
	return nil
}

func (h *fileHooks) PushFinalizedDescriptorObus(bytes []byte) error {
	// iamfgen streams descriptors up front rather than seeking back to
	// rewrite them; update_descriptor_obus_and_close is exercised by the
	// sequencer package's own tests, not this CLI.
	return nil
}

func (h *fileHooks) CloseDerived() error { return nil }

func (h *fileHooks) AbortDerived() error { return nil }
