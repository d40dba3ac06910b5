package recongain

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/linuxmatters/iamfkit/internal/label"
)

func testOneChannelLrs7(t *testing.T, original, mixed, demixed float64, expected float64) {
	t.Helper()
	samples := map[label.Label][]float64{
		label.DemixedLrs7: {original},
		label.Ls5:         {mixed},
	}
	decoded := map[label.Label][]float64{
		label.DemixedLrs7: {demixed},
	}
	got, err := ComputeReconGain(label.DemixedLrs7, samples, decoded, nil)
	require.NoError(t, err)
	require.InDelta(t, expected, got, 0.0001)
}

func TestBelowFirstThreshold(t *testing.T) {
	testOneChannelLrs7(t, 10, 10, 10, 0.0)
}

func TestAboveSecondThreshold(t *testing.T) {
	testOneChannelLrs7(t, float64(20<<16), float64(60<<16), float64(60<<16), 1.0)
}

func TestBelowSecondThreshold(t *testing.T) {
	testOneChannelLrs7(t, float64(12<<16), float64(60<<16), float64(60<<16), 0.4472)
}

func TestUnknownLabelFails(t *testing.T) {
	_, err := ComputeReconGain(label.Mono, nil, nil, nil)
	require.Error(t, err)
}

func TestPackGains(t *testing.T) {
	packed, err := PackGains(map[label.Label]float64{
		label.DemixedLrs7: 1.0,
		label.DemixedL5:   0.5,
	})
	require.NoError(t, err)
	require.Equal(t, uint16(1<<7|1<<0), packed.PresentMask)
	require.Equal(t, uint8(255), packed.Gains[7])
	require.Equal(t, uint8(128), packed.Gains[0])
}

func TestPackGainsOutOfRange(t *testing.T) {
	_, err := PackGains(map[label.Label]float64{label.DemixedL5: 1.5})
	require.Error(t, err)
}

func TestPackGainsUnknownLabel(t *testing.T) {
	_, err := PackGains(map[label.Label]float64{label.Mono: 1.0})
	require.Error(t, err)
}
