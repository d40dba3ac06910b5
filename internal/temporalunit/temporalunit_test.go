package temporalunit

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/linuxmatters/iamfkit/internal/obu"
)

func frame(substreamID uint64) AudioFrameWithData {
	return AudioFrameWithData{
		Frame:           &obu.AudioFrame{SubstreamID: substreamID, Data: []byte{1, 2}},
		AudioElementID:  1,
		CodecConfigID:   1,
		StartTimestamp:  0,
		EndTimestamp:    960,
		SamplesPerFrame: 960,
	}
}

func TestCreateSortsAndComputesUntrimmed(t *testing.T) {
	v, err := Create(nil, []AudioFrameWithData{frame(2), frame(1)}, nil)
	require.NoError(t, err)
	require.Equal(t, uint64(1), v.AudioFrames[0].Frame.SubstreamID)
	require.Equal(t, uint64(2), v.AudioFrames[1].Frame.SubstreamID)
	require.Equal(t, uint32(960), v.NumUntrimmedSamples)
}

func TestCreateEmptyWithoutInvalidatingArbitraryFails(t *testing.T) {
	_, err := Create(nil, nil, nil)
	require.Error(t, err)
}

func TestCreateEmptyWithInvalidatingArbitrarySucceeds(t *testing.T) {
	a := ArbitraryAtTick{Record: &obu.Arbitrary{
		InsertionHook:        obu.HookAfterAudioFramesAtTick,
		InsertionTick:        5,
		InvalidatesBitstream: true,
	}}
	v, err := Create(nil, nil, []ArbitraryAtTick{a})
	require.NoError(t, err)
	require.Empty(t, v.AudioFrames)
}

func TestCreateMissingBackPointerFails(t *testing.T) {
	f := frame(1)
	f.AudioElementID = 0
	f.CodecConfigID = 0
	_, err := Create(nil, []AudioFrameWithData{f}, nil)
	require.Error(t, err)
}

func TestCreateMismatchedSpanFails(t *testing.T) {
	a := frame(1)
	b := frame(2)
	b.StartTimestamp = 960
	b.EndTimestamp = 1920
	_, err := Create(nil, []AudioFrameWithData{a, b}, nil)
	require.Error(t, err)
}

func TestCreateDuplicateSubstreamFails(t *testing.T) {
	_, err := Create(nil, []AudioFrameWithData{frame(1), frame(1)}, nil)
	require.Error(t, err)
}

func TestCreateTrimExceedsSamplesPerFrameFails(t *testing.T) {
	f := frame(1)
	f.Frame.Trim = obu.Trim{NumSamplesToTrimAtStart: 500, NumSamplesToTrimAtEnd: 500}
	_, err := Create(nil, []AudioFrameWithData{f}, nil)
	require.Error(t, err)
}

func TestCreateParameterBlockSpanMismatchFails(t *testing.T) {
	p1 := ParameterBlockWithData{Block: &obu.ParameterBlock{ParameterID: 1}, StartTimestamp: 0, EndTimestamp: 960}
	p2 := ParameterBlockWithData{Block: &obu.ParameterBlock{ParameterID: 2}, StartTimestamp: 960, EndTimestamp: 1920}
	_, err := Create([]ParameterBlockWithData{p1, p2}, []AudioFrameWithData{frame(1)}, nil)
	require.Error(t, err)
}

func TestCreateDuplicateParameterIDFails(t *testing.T) {
	p1 := ParameterBlockWithData{Block: &obu.ParameterBlock{ParameterID: 1}, StartTimestamp: 0, EndTimestamp: 960}
	p2 := ParameterBlockWithData{Block: &obu.ParameterBlock{ParameterID: 1}, StartTimestamp: 0, EndTimestamp: 960}
	_, err := Create([]ParameterBlockWithData{p1, p2}, []AudioFrameWithData{frame(1)}, nil)
	require.Error(t, err)
}

func TestCreateArbitraryMixedTicksFails(t *testing.T) {
	a := ArbitraryAtTick{Record: &obu.Arbitrary{InsertionHook: obu.HookAfterAudioFramesAtTick, InsertionTick: 1}}
	b := ArbitraryAtTick{Record: &obu.Arbitrary{InsertionHook: obu.HookAfterAudioFramesAtTick, InsertionTick: 2}}
	_, err := Create(nil, []AudioFrameWithData{frame(1)}, []ArbitraryAtTick{a, b})
	require.Error(t, err)
}

func TestCreateArbitraryNonPerTickHookFails(t *testing.T) {
	a := ArbitraryAtTick{Record: &obu.Arbitrary{InsertionHook: obu.HookAfterCodecConfigs}}
	_, err := Create(nil, []AudioFrameWithData{frame(1)}, []ArbitraryAtTick{a})
	require.Error(t, err)
}
