// Package recongain implements the Reconstruction-Gain Engine (§E):
// signal-power-based derivation of per-channel gains on demixed surround
// channels.
//
// Grounded on _examples/original_source/iamf/cli/recon_gain_generator.cc.
package recongain

import (
	"math"

	"github.com/linuxmatters/iamfkit/internal/ierr"
	"github.com/linuxmatters/iamfkit/internal/label"
)

// maxLSquared is the reference scale M² for 16-bit PCM (32767²).
const maxLSquared = 32767.0 * 32767.0

const (
	thresholdBelowFloorDB = -80.0
	thresholdFullScaleDB  = -6.0
)

// relevantMixedLabel is the fixed table locating, for each demixed label,
// the "relevant mixed channel of the down-mixed audio for CL #i-1" the
// spec's second decision compares against.
var relevantMixedLabel = map[label.Label]label.Label{
	label.DemixedL7:   label.L5,
	label.DemixedR7:   label.R5,
	label.DemixedLrs7: label.Ls5,
	label.DemixedRrs7: label.Rs5,
	label.DemixedLtb4: label.Ltf2,
	label.DemixedRtb4: label.Rtf2,
	label.DemixedL5:   label.L3,
	label.DemixedR5:   label.R3,
	label.DemixedLs5:  label.L3,
	label.DemixedRs5:  label.R3,
	label.DemixedLtf2: label.Ltf3,
	label.DemixedRtf2: label.Rtf3,
	label.DemixedL3:   label.L2,
	label.DemixedR3:   label.R2,
	label.DemixedR2:   label.Mono,
}

// computeSignalPower returns the Root Mean Square of samples; P(x) in the
// spec's notation.
func computeSignalPower(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var meanSquare float64
	scale := 1.0 / float64(len(samples))
	for _, s := range samples {
		meanSquare += scale * s * s
	}
	return math.Sqrt(meanSquare)
}

// suspectMixedPowerRatioDB reproduces the IAMF reference engine's
// dimensionally-suspect quantity verbatim: a power ratio divided by a dB
// value rather than by a power. It exists purely for parity with the
// engine's own extra_logging output and must never feed the returned gain.
func suspectMixedPowerRatioDB(demixedPower, mixedPowerDB float64) float64 {
	return 10 * math.Log10(demixedPower/mixedPowerDB)
}

// LogFunc receives the engine's extra_logging lines when enabled.
type LogFunc func(format string, args ...any)

// ComputeReconGain implements §4.5's three-decision procedure for one
// demixed label, returning a gain in [0,1].
func ComputeReconGain(target label.Label, samples, decodedSamples map[label.Label][]float64, logf LogFunc) (float64, error) {
	if logf == nil {
		logf = func(string, ...any) {}
	}

	original, err := findSamples(target, samples)
	if err != nil {
		return 0, err
	}
	originalPower := computeSignalPower(original)
	originalPowerDB := 10 * math.Log10(originalPower/maxLSquared)
	logf("[%s] original power (dB) = %f", label.LabelToString(target), originalPowerDB)
	if originalPowerDB < thresholdBelowFloorDB {
		return 0, nil
	}

	relevant, ok := relevantMixedLabel[target]
	if !ok {
		return 0, ierr.InvalidArgument("no relevant mixed label for %s", label.LabelToString(target))
	}
	mixed, err := findSamples(relevant, samples)
	if err != nil {
		return 0, err
	}
	mixedPower := computeSignalPower(mixed)
	mixedPowerDB := 10 * math.Log10(mixedPower/maxLSquared)
	logf("[%s] relevant mixed power (dB) = %f", label.LabelToString(target), mixedPowerDB)

	originalMixedRatioDB := 10 * math.Log10(originalPower/mixedPower)
	logf("[%s] original/mixed ratio (dB) = %f", label.LabelToString(target), originalMixedRatioDB)
	if originalMixedRatioDB >= thresholdFullScaleDB {
		return 1, nil
	}

	demixed, err := findSamples(target, decodedSamples)
	if err != nil {
		return 0, err
	}
	demixedPower := computeSignalPower(demixed)
	logf("[%s] demixed/mixed-db ratio (dB) = %f", label.LabelToString(target), suspectMixedPowerRatioDB(demixedPower, mixedPowerDB))

	return math.Sqrt(originalPower / demixedPower), nil
}

func findSamples(l label.Label, m map[label.Label][]float64) ([]float64, error) {
	if s, ok := m[l]; ok {
		return s, nil
	}
	demixed, err := label.DemixedLabel(l)
	if err == nil {
		if s, ok := m[demixed]; ok {
			return s, nil
		}
	}
	return nil, ierr.InvalidArgument("no samples or demixed samples found for label %s", label.LabelToString(l))
}

// BitPosition is the fixed table of §4.5: the bit position each demixed
// label's present flag and gain occupy in the 12-bit mask / 12-byte array.
// Bit 1 (C) and bit 11 (LFE) are never set.
var BitPosition = map[label.Label]int{
	label.DemixedL3: 0, label.DemixedL5: 0, label.DemixedL7: 0,
	label.DemixedR2: 2, label.DemixedR3: 2, label.DemixedR5: 2, label.DemixedR7: 2,
	label.DemixedLs5: 3,
	label.DemixedRs5: 4,
	label.DemixedLtf2: 5,
	label.DemixedRtf2: 6,
	label.DemixedLrs7: 7,
	label.DemixedRrs7: 8,
	label.DemixedLtb4: 9,
	label.DemixedRtb4: 10,
}

// PackedLayerGains is the 12-bit present bitmask plus 12-byte gain array
// one layer's recon-gain subblock carries on the wire.
type PackedLayerGains struct {
	PresentMask uint16
	Gains       [12]uint8
}

// PackGains computes and packs recon gains for every demixed label present
// in gains, per §4.5's fixed bit-position table. round(g*255) maps each
// float gain in [0,1] to its wire byte.
func PackGains(gains map[label.Label]float64) (PackedLayerGains, error) {
	var out PackedLayerGains
	for l, g := range gains {
		pos, ok := BitPosition[l]
		if !ok {
			return out, ierr.InvalidArgument("label %s has no recon-gain bit position", label.LabelToString(l))
		}
		if g < 0 || g > 1 {
			return out, ierr.InvalidArgument("gain for %s out of [0,1]: %f", label.LabelToString(l), g)
		}
		out.PresentMask |= 1 << uint(pos)
		out.Gains[pos] = uint8(math.Round(g * 255))
	}
	return out, nil
}
