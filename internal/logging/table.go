// Package logging provides warning diagnostics (sink.go) and a
// column-aligned summary table for sequencer-run figures (table.go).
package logging

import (
	"fmt"
	"strings"
)

// MetricRow is a single row in a SummaryTable: a label plus one formatted
// value per column.
type MetricRow struct {
	Label  string   // e.g. "Samples per frame"
	Values []string // one value per header
	Unit   string   // suffix, e.g. "Hz", "" for unitless
}

// SummaryTable renders aligned columns describing the sequenced bitstream:
// descriptor size, sample rate, per-audio-element substream counts, and
// similar figures a caller wants printed after PickAndPlace returns.
type SummaryTable struct {
	Headers []string
	Rows    []MetricRow
}

// NewSummaryTable constructs an empty table with the given column headers.
func NewSummaryTable(headers ...string) *SummaryTable {
	return &SummaryTable{Headers: headers}
}

// AddRow appends a pre-formatted row.
func (t *SummaryTable) AddRow(label string, unit string, values ...string) {
	t.Rows = append(t.Rows, MetricRow{Label: label, Values: values, Unit: unit})
}

// String renders the table with label left-aligned and values right-aligned
// within their column, unit appended after the last value column.
func (t *SummaryTable) String() string {
	if len(t.Rows) == 0 {
		return ""
	}

	labelWidth := 0
	for _, row := range t.Rows {
		if len(row.Label) > labelWidth {
			labelWidth = len(row.Label)
		}
	}

	valueWidths := make([]int, len(t.Headers))
	for i, header := range t.Headers {
		valueWidths[i] = len(header)
	}
	for _, row := range t.Rows {
		for i, val := range row.Values {
			if i < len(valueWidths) && len(val) > valueWidths[i] {
				valueWidths[i] = len(val)
			}
		}
	}

	unitWidth := 0
	for _, row := range t.Rows {
		if len(row.Unit) > unitWidth {
			unitWidth = len(row.Unit)
		}
	}

	var sb strings.Builder

	sb.WriteString(strings.Repeat(" ", labelWidth+2))
	for i, header := range t.Headers {
		sb.WriteString(fmt.Sprintf("%*s  ", valueWidths[i], header))
	}
	sb.WriteString("\n")

	for _, row := range t.Rows {
		sb.WriteString(fmt.Sprintf("%-*s  ", labelWidth, row.Label))
		for i := 0; i < len(t.Headers); i++ {
			val := "-"
			if i < len(row.Values) && row.Values[i] != "" {
				val = row.Values[i]
			}
			sb.WriteString(fmt.Sprintf("%*s  ", valueWidths[i], val))
		}
		if unitWidth > 0 {
			sb.WriteString(fmt.Sprintf("%-*s", unitWidth, row.Unit))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
