package sequencer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/linuxmatters/iamfkit/internal/obu"
	"github.com/linuxmatters/iamfkit/internal/temporalunit"
)

type recordingHooks struct {
	descriptorCalls []struct {
		samplesPerFrame, sampleRate uint32
		firstUntrimmed              *uint64
	}
	temporalUnits [][]byte
	finalized     []byte
	closed        bool
	aborted       bool
}

func (h *recordingHooks) PushSerializedDescriptorObus(samplesPerFrame, sampleRate uint32, bitDepth uint8, firstUntrimmedTimestamp *uint64, numChannels uint32, bytes []byte) error {
	h.descriptorCalls = append(h.descriptorCalls, struct {
		samplesPerFrame, sampleRate uint32
		firstUntrimmed              *uint64
	}{samplesPerFrame, sampleRate, firstUntrimmedTimestamp})
	return nil
}

func (h *recordingHooks) PushSerializedTemporalUnit(timestamp uint64, numUntrimmedSamples uint32, bytes []byte) error {
	h.temporalUnits = append(h.temporalUnits, bytes)
	return nil
}

func (h *recordingHooks) PushFinalizedDescriptorObus(bytes []byte) error {
	h.finalized = bytes
	return nil
}

func (h *recordingHooks) CloseDerived() error { h.closed = true; return nil }
func (h *recordingHooks) AbortDerived() error { h.aborted = true; return nil }

func oneCodecConfig() map[uint64]*obu.CodecConfig {
	return map[uint64]*obu.CodecConfig{
		1: {CodecConfigID: 1, Codec: obu.CodecLPCM, NumSamplesPerFrame: 960},
	}
}

func oneAudioElement() map[uint64]*obu.AudioElement {
	return map[uint64]*obu.AudioElement{
		1: {
			AudioElementID: 1,
			Type:           obu.AudioElementChannelBased,
			CodecConfigID:  1,
			SubstreamIDs:   []uint64{1},
			Config: obu.AudioElementConfig{
				Scalable: &obu.ScalableChannelConfig{
					Layers: []obu.LayerConfig{{LoudspeakerLayout: obu.LayoutMono, SubstreamCount: 1}},
				},
			},
		},
	}
}

func oneFrameView(t *testing.T, substreamID uint64, start, end uint64) *temporalunit.View {
	t.Helper()
	v, err := temporalunit.Create(nil, []temporalunit.AudioFrameWithData{{
		Frame:           &obu.AudioFrame{SubstreamID: substreamID, Data: []byte{1, 2}},
		AudioElementID:  1,
		CodecConfigID:   1,
		StartTimestamp:  start,
		EndTimestamp:    end,
		SamplesPerFrame: uint32(end - start),
	}}, nil)
	require.NoError(t, err)
	return v
}

func TestPushDescriptorObusNotDelayed(t *testing.T) {
	h := &recordingHooks{}
	s := New(h, false, obu.Minimal)
	err := s.PushDescriptorObus(obu.SequenceHeader{}, oneCodecConfig(), oneAudioElement(), nil, nil)
	require.NoError(t, err)
	require.Len(t, h.descriptorCalls, 1)
	require.NotNil(t, h.descriptorCalls[0].firstUntrimmed)
}

func TestPushDescriptorObusDelayedUntilFirstFrame(t *testing.T) {
	h := &recordingHooks{}
	s := New(h, true, obu.Minimal)
	require.NoError(t, s.PushDescriptorObus(obu.SequenceHeader{}, oneCodecConfig(), oneAudioElement(), nil, nil))
	require.Empty(t, h.descriptorCalls)

	v := oneFrameView(t, 1, 0, 960)
	require.NoError(t, s.PushTemporalUnit(v, true))
	require.Len(t, h.descriptorCalls, 1)
	require.Len(t, h.temporalUnits, 1)
}

func TestPushTemporalUnitBeforeDescriptorsFails(t *testing.T) {
	h := &recordingHooks{}
	s := New(h, false, obu.Minimal)
	v := oneFrameView(t, 1, 0, 960)
	err := s.PushTemporalUnit(v, true)
	require.Error(t, err)
	require.True(t, h.aborted)
}

func TestTrimAtStartPrefixEnforced(t *testing.T) {
	h := &recordingHooks{}
	s := New(h, false, obu.Minimal)
	require.NoError(t, s.PushDescriptorObus(obu.SequenceHeader{}, oneCodecConfig(), oneAudioElement(), nil, nil))

	zeroTrim := oneFrameView(t, 1, 0, 960)
	require.NoError(t, s.PushTemporalUnit(zeroTrim, false))

	trimmed, err := temporalunit.Create(nil, []temporalunit.AudioFrameWithData{{
		Frame:           &obu.AudioFrame{SubstreamID: 1, Trim: obu.Trim{NumSamplesToTrimAtStart: 10}},
		AudioElementID:  1,
		CodecConfigID:   1,
		StartTimestamp:  960,
		EndTimestamp:    1920,
		SamplesPerFrame: 960,
	}}, nil)
	require.NoError(t, err)
	err = s.PushTemporalUnit(trimmed, false)
	require.Error(t, err)
}

func TestMultipleSampleRatesRejected(t *testing.T) {
	h := &recordingHooks{}
	s := New(h, false, obu.Minimal)
	ccs := map[uint64]*obu.CodecConfig{
		1: {CodecConfigID: 1, Codec: obu.CodecLPCM, NumSamplesPerFrame: 960, DecoderConfig: []byte{0, 0, 0, 0, 0, 0, 0xBB, 0x80}},
		2: {CodecConfigID: 2, Codec: obu.CodecLPCM, NumSamplesPerFrame: 960, DecoderConfig: []byte{0, 0, 0, 0, 0, 0, 0x7D, 0x00}},
	}
	err := s.PushDescriptorObus(obu.SequenceHeader{}, ccs, oneAudioElement(), nil, nil)
	require.Error(t, err)
}

func TestCloseAfterDescriptorsCallsCloseDerived(t *testing.T) {
	h := &recordingHooks{}
	s := New(h, false, obu.Minimal)
	require.NoError(t, s.PushDescriptorObus(obu.SequenceHeader{}, oneCodecConfig(), oneAudioElement(), nil, nil))
	require.NoError(t, s.Close())
	require.True(t, h.closed)
}

func TestAbortAlwaysSafe(t *testing.T) {
	h := &recordingHooks{}
	s := New(h, false, obu.Minimal)
	require.NoError(t, s.Abort())
	require.NoError(t, s.Abort())
	require.True(t, h.aborted)
}

func TestPickAndPlaceGroupsByTimestampAndCloses(t *testing.T) {
	h := &recordingHooks{}
	s := New(h, false, obu.Minimal)

	frames := []temporalunit.AudioFrameWithData{
		{
			Frame:           &obu.AudioFrame{SubstreamID: 1, Data: []byte{1, 2}},
			AudioElementID:  1,
			CodecConfigID:   1,
			StartTimestamp:  0,
			EndTimestamp:    960,
			SamplesPerFrame: 960,
		},
		{
			Frame:           &obu.AudioFrame{SubstreamID: 1, Data: []byte{3, 4}},
			AudioElementID:  1,
			CodecConfigID:   1,
			StartTimestamp:  960,
			EndTimestamp:    1920,
			SamplesPerFrame: 960,
		},
	}

	err := s.PickAndPlace(obu.SequenceHeader{}, oneCodecConfig(), oneAudioElement(), nil, frames, nil, nil)
	require.NoError(t, err)
	require.Len(t, h.descriptorCalls, 1)
	require.Len(t, h.temporalUnits, 2)
	require.True(t, h.closed)
}

func TestPickAndPlaceRoutesDescriptorHookArbitrary(t *testing.T) {
	h := &recordingHooks{}
	s := New(h, false, obu.Minimal)

	frames := []temporalunit.AudioFrameWithData{{
		Frame:           &obu.AudioFrame{SubstreamID: 1, Data: []byte{1, 2}},
		AudioElementID:  1,
		CodecConfigID:   1,
		StartTimestamp:  0,
		EndTimestamp:    960,
		SamplesPerFrame: 960,
	}}
	descriptorArb := &obu.Arbitrary{InsertionHook: obu.HookAfterCodecConfigs, Payload: []byte{0xAA}}
	perTickArb := &obu.Arbitrary{InsertionHook: obu.HookAfterAudioFramesAtTick, InsertionTick: 0, Payload: []byte{0xBB}}

	err := s.PickAndPlace(obu.SequenceHeader{}, oneCodecConfig(), oneAudioElement(), nil, frames, nil, []*obu.Arbitrary{descriptorArb, perTickArb})
	require.NoError(t, err)
	require.Len(t, h.descriptorCalls, 1)
	require.Len(t, h.temporalUnits, 1)
}

func TestUpdateDescriptorObusAndCloseRejectsSizeChange(t *testing.T) {
	h := &recordingHooks{}
	s := New(h, false, obu.Minimal)
	require.NoError(t, s.PushDescriptorObus(obu.SequenceHeader{}, oneCodecConfig(), oneAudioElement(), nil, nil))

	bigger := oneAudioElement()
	bigger[2] = &obu.AudioElement{
		AudioElementID: 2,
		Type:           obu.AudioElementChannelBased,
		CodecConfigID:  1,
		SubstreamIDs:   []uint64{2},
		Config: obu.AudioElementConfig{
			Scalable: &obu.ScalableChannelConfig{
				Layers: []obu.LayerConfig{{LoudspeakerLayout: obu.LayoutMono, SubstreamCount: 1}},
			},
		},
	}
	err := s.UpdateDescriptorObusAndClose(obu.SequenceHeader{}, oneCodecConfig(), bigger, nil, nil)
	require.Error(t, err)
}
