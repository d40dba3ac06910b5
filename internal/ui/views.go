package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#A40000"))

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#888888")).
			Padding(0, 1).
			Width(60)
)

// renderSequencingView renders the in-progress view.
func renderSequencingView(m Model) string {
	var b strings.Builder

	b.WriteString(renderHeader())
	b.WriteString("\n\n")

	content := fmt.Sprintf(
		"Descriptor: %d bytes | Samples/frame: %d | Sample rate: %d Hz\n"+
			"Temporal units pushed: %d (last timestamp: %d)\n"+
			"Bytes written: %d | Elapsed: %.1fs",
		m.DescriptorBytes, m.SamplesPerFrame, m.SampleRate,
		m.UnitsPushed, m.LastTimestamp,
		m.BytesWritten, m.ElapsedTime.Seconds(),
	)
	b.WriteString(boxStyle.Render(content))

	return b.String()
}

// renderHeader renders the application header.
func renderHeader() string {
	title := titleStyle.Render("iamfgen 🎧")
	subtitle := subtitleStyle.Render("Sequencing temporal units")
	return title + "\n" + subtitle
}

// renderCompletionSummary renders the final completion summary.
func renderCompletionSummary(m Model) string {
	var b strings.Builder

	if m.Err != nil {
		header := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#A40000")).Render("✗ Sequencing failed")
		b.WriteString(header)
		b.WriteString("\n\n")
		b.WriteString(fmt.Sprintf("Error: %v\n", m.Err))
		return b.String()
	}

	header := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00AA00")).Render("✓ Sequencing complete")
	b.WriteString(header)
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("Temporal units: %d\n", m.UnitsPushed))
	b.WriteString(fmt.Sprintf("Descriptor bytes: %d\n", m.DescriptorBytes))
	b.WriteString(fmt.Sprintf("Total bytes written: %d\n", m.BytesWritten))
	b.WriteString(fmt.Sprintf("Elapsed: %.1fs\n", m.ElapsedTime.Seconds()))

	return b.String()
}
