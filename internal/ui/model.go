// Package ui provides the Bubbletea terminal progress display for an
// iamfgen sequencing run: descriptor push, one tick per temporal unit, then
// close.
package ui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Status is the overall state of a sequencing run.
type Status int

const (
	StatusQueued Status = iota
	StatusSequencing
	StatusComplete
	StatusError
)

// Model is the Bubbletea model for the sequencing progress display.
type Model struct {
	Status Status

	DescriptorBytes int
	SamplesPerFrame uint32
	SampleRate      uint32

	UnitsPushed     int
	LastTimestamp   uint64
	BytesWritten    int

	StartTime   time.Time
	ElapsedTime time.Duration

	Err error

	// ProgressChan is a buffered channel the model listens on for progress
	// messages; cmd/iamfgen's hooks deliver theirs through tea.Program.Send
	// instead.
	ProgressChan chan tea.Msg

	Width  int
	Height int
}

// NewModel creates a fresh progress model. DescriptorPushedMsg /
// TemporalUnitPushedMsg / SequencingCompleteMsg reach Update either through
// ProgressChan or through tea.Program.Send, which is how cmd/iamfgen's
// Hooks implementation delivers them as it observes each callback.
func NewModel() Model {
	return Model{
		Status:       StatusQueued,
		StartTime:    time.Now(),
		ProgressChan: make(chan tea.Msg, 100),
	}
}

// Init starts listening for progress messages.
func (m Model) Init() tea.Cmd {
	return waitForProgress(m.ProgressChan)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case DescriptorPushedMsg:
		m.Status = StatusSequencing
		m.DescriptorBytes = msg.DescriptorBytes
		m.SamplesPerFrame = msg.SamplesPerFrame
		m.SampleRate = msg.SampleRate
		m.BytesWritten += msg.DescriptorBytes
		m.ElapsedTime = time.Since(m.StartTime)
		return m, waitForProgress(m.ProgressChan)

	case TemporalUnitPushedMsg:
		m.Status = StatusSequencing
		m.UnitsPushed = msg.Index + 1
		m.LastTimestamp = msg.Timestamp
		m.BytesWritten += msg.Bytes
		m.ElapsedTime = time.Since(m.StartTime)
		return m, waitForProgress(m.ProgressChan)

	case SequencingCompleteMsg:
		m.UnitsPushed = msg.TemporalUnits
		m.DescriptorBytes = msg.DescriptorBytes
		m.BytesWritten = msg.TotalBytes
		m.Err = msg.Err
		m.ElapsedTime = time.Since(m.StartTime)
		if msg.Err != nil {
			m.Status = StatusError
		} else {
			m.Status = StatusComplete
		}
		return m, tea.Quit
	}

	return m, nil
}

// View renders the UI.
func (m Model) View() string {
	if m.Width == 0 {
		return fmt.Sprintf("Initializing...\nUnits pushed: %d\n", m.UnitsPushed)
	}

	if m.Status == StatusComplete || m.Status == StatusError {
		return renderCompletionSummary(m)
	}

	return renderSequencingView(m)
}

func waitForProgress(progressChan chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-progressChan
	}
}
