// Sink wraps charmbracelet/log behind the small interface generator and
// sequencer code depends on for non-fatal diagnostics (§7): a deprecated
// field ignored, a stray parameter block accepted. Mirrors the teacher's
// progressCallback function-value pattern in
// internal/processor/processor.go, but as an interface so callers can swap
// in a no-op or a test recorder without touching the logging library.
package logging

import (
	"os"

	"github.com/charmbracelet/log"
)

// Sink receives a warning-level diagnostic. Implementations must not
// promote these to errors: that decision belongs to the caller that chose
// to proceed past the condition in the first place.
type Sink interface {
	Warn(format string, args ...any)
}

// CharmSink is the default Sink, backed by a charmbracelet/log logger.
type CharmSink struct {
	logger *log.Logger
}

// NewCharmSink constructs a Sink writing styled warnings to stderr.
func NewCharmSink() *CharmSink {
	return &CharmSink{logger: log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          "iamfkit",
		ReportTimestamp: false,
	})}
}

func (s *CharmSink) Warn(format string, args ...any) {
	s.logger.Warnf(format, args...)
}

// NoopSink discards every warning; useful where a caller has no log
// destination configured.
type NoopSink struct{}

func (NoopSink) Warn(string, ...any) {}

// AsWarnFunc adapts a Sink to the bare function-value signature the
// generator packages (audioelement, paramblock) accept,
// the way the teacher threads a bare progressCallback instead of an
// interface through processor.ProcessAudio.
func AsWarnFunc(s Sink) func(format string, args ...any) {
	if s == nil {
		s = NoopSink{}
	}
	return s.Warn
}
