package logging

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSummaryTableEmptyRendersEmptyString(t *testing.T) {
	tbl := NewSummaryTable("Value")
	require.Equal(t, "", tbl.String())
}

func TestSummaryTableAlignsColumns(t *testing.T) {
	tbl := NewSummaryTable("Value")
	tbl.AddRow("Sample rate", "Hz", "48000")
	tbl.AddRow("Samples per frame", "", "1024")

	out := tbl.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)
	require.Contains(t, lines[1], "Sample rate")
	require.Contains(t, lines[1], "48000")
	require.Contains(t, lines[1], "Hz")
	require.Contains(t, lines[2], "Samples per frame")
}

func TestSummaryTableMissingValueShowsPlaceholder(t *testing.T) {
	tbl := NewSummaryTable("A", "B")
	tbl.AddRow("Partial", "", "1")
	out := tbl.String()
	require.Contains(t, out, "-")
}
