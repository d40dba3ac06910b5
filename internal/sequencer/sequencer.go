// Package sequencer implements the Sequencer (§H, part 2): assembles
// descriptor and per-tick records in the fixed wire order and hands
// serialized bytes to a concrete writer via three push hooks.
//
// Grounded on
// _examples/original_source/iamf/cli/tests/obu_sequencer_base_test.cc,
// which exercises both the streaming and delayed descriptor-write modes
// this package implements.
package sequencer

import (
	"sort"

	"github.com/linuxmatters/iamfkit/internal/ierr"
	"github.com/linuxmatters/iamfkit/internal/obu"
	"github.com/linuxmatters/iamfkit/internal/temporalunit"
)

const (
	defaultSamplesPerFrame      = 1024
	defaultSampleRate           = 48000
	defaultBitDepth             = 16
	defaultNumChannels          = 2
	defaultFirstUntrimmedTimestamp = 0
)

// Hooks is the set of callbacks a concrete writer implements.
// PushSerializedTemporalUnit and PushFinalizedDescriptorObus are never called concurrently with each
// other (§5: single-threaded cooperative).
type Hooks interface {
	// PushSerializedDescriptorObus is called once, synchronously in
	// not-delayed mode, or once the first untrimmed sample's timestamp is
	// known (or at close, with defaults) in delayed mode.
	PushSerializedDescriptorObus(samplesPerFrame uint32, sampleRate uint32, bitDepth uint8, firstUntrimmedTimestamp *uint64, numChannels uint32, bytes []byte) error
	// PushSerializedTemporalUnit is called once per temporal unit.
	PushSerializedTemporalUnit(timestamp uint64, numUntrimmedSamples uint32, bytes []byte) error
	// PushFinalizedDescriptorObus is called by UpdateDescriptorObusAndClose
	// with the re-serialized descriptor bytes.
	PushFinalizedDescriptorObus(bytes []byte) error
	CloseDerived() error
	AbortDerived() error
}

type phase int

const (
	phaseInitial phase = iota
	phaseDescriptorsPushed
	phaseClosed
	phaseAborted
)

// Sequencer is the Sequencer's mutable state machine (§4.9).
type Sequencer struct {
	hooks   Hooks
	delayed bool
	gen     obu.LebGenerator

	phase phase

	descriptorBytesLen int
	lastTimestamp      *uint64
	sawZeroTrim        bool

	// pending descriptor inputs, buffered in delayed mode until the first
	// untrimmed sample's timestamp is known.
	pendingDescriptorWrite func(firstUntrimmedTimestamp *uint64) error
}

// New constructs a Sequencer. delayed selects whether push_descriptor_obus
// defers the write until the first untrimmed sample's timestamp is
// observed.
func New(hooks Hooks, delayed bool, gen obu.LebGenerator) *Sequencer {
	return &Sequencer{hooks: hooks, delayed: delayed, gen: gen}
}

// descriptorInputs bundles everything push_descriptor_obus needs to
// serialize the descriptor prelude.
type descriptorInputs struct {
	sequenceHeader       obu.SequenceHeader
	codecConfigs         map[uint64]*obu.CodecConfig
	audioElements        map[uint64]*obu.AudioElement
	mixPresentations     []*obu.MixPresentation
	descriptorArbitrary  []*obu.Arbitrary // hooks other than AfterDescriptors
}

// serializeDescriptors implements §4.9's fixed descriptor order: sequence
// header, codec configs ascending id, audio elements ascending id, mix
// presentations preserving input order, with arbitrary records inserted at
// their hooks. AfterDescriptors is never written here.
func serializeDescriptors(in descriptorInputs, gen obu.LebGenerator) ([]byte, error) {
	var dst []byte
	var err error

	byHook := make(map[obu.InsertionHook][]*obu.Arbitrary)
	for _, a := range in.descriptorArbitrary {
		if a.InsertionHook == obu.HookAfterDescriptors {
			continue
		}
		byHook[a.InsertionHook] = append(byHook[a.InsertionHook], a)
	}
	appendHook := func(dst []byte, hook obu.InsertionHook) ([]byte, error) {
		for _, a := range byHook[hook] {
			dst, err = obu.AppendRecord(dst, obu.TypeArbitrary, nil, a.InvalidatesBitstream, a, gen)
			if err != nil {
				return nil, err
			}
		}
		return dst, nil
	}

	dst, err = obu.AppendRecord(dst, obu.TypeSequenceHeader, nil, false, in.sequenceHeader, gen)
	if err != nil {
		return nil, err
	}
	dst, err = appendHook(dst, obu.HookAfterIaSequenceHeader)
	if err != nil {
		return nil, err
	}

	codecConfigIDs := sortedUint64Keys(in.codecConfigs)
	for _, id := range codecConfigIDs {
		dst, err = obu.AppendRecord(dst, obu.TypeCodecConfig, nil, false, in.codecConfigs[id], gen)
		if err != nil {
			return nil, err
		}
	}
	dst, err = appendHook(dst, obu.HookAfterCodecConfigs)
	if err != nil {
		return nil, err
	}

	audioElementIDs := sortedUint64Keys(in.audioElements)
	for _, id := range audioElementIDs {
		dst, err = obu.AppendRecord(dst, obu.TypeAudioElement, nil, false, in.audioElements[id], gen)
		if err != nil {
			return nil, err
		}
	}
	dst, err = appendHook(dst, obu.HookAfterAudioElements)
	if err != nil {
		return nil, err
	}

	for _, mp := range in.mixPresentations {
		dst, err = obu.AppendRecord(dst, obu.TypeMixPresentation, nil, false, mp, gen)
		if err != nil {
			return nil, err
		}
	}
	dst, err = appendHook(dst, obu.HookAfterMixPresentations)
	if err != nil {
		return nil, err
	}

	return dst, nil
}

func sortedUint64Keys[V any](m map[uint64]V) []uint64 {
	ids := make([]uint64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// singleSampleRate enforces §4.9's single-codec-sequence constraint.
func singleSampleRate(codecConfigs map[uint64]*obu.CodecConfig) (uint32, error) {
	var rate uint64
	set := false
	for _, cc := range codecConfigs {
		r, err := sampleRateOf(cc)
		if err != nil {
			return 0, err
		}
		if !set {
			rate, set = r, true
			continue
		}
		if r != rate {
			return 0, ierr.InvalidArgument("multiple codec configs with different sample rates (%d vs %d); resampling is refused", rate, r)
		}
	}
	if !set {
		return defaultSampleRate, nil
	}
	return uint32(rate), nil
}

// sampleRateOf derives the codec config's sample rate. LPCM carries it
// directly in decoder config bytes 4-7 (big-endian); other codecs are
// treated as carrying the default rate since their decoder-config layouts
// are opaque to this layer.
func sampleRateOf(cc *obu.CodecConfig) (uint64, error) {
	if cc.Codec != obu.CodecLPCM || len(cc.DecoderConfig) < 8 {
		return defaultSampleRate, nil
	}
	b := cc.DecoderConfig[4:8]
	return uint64(b[0])<<24 | uint64(b[1])<<16 | uint64(b[2])<<8 | uint64(b[3]), nil
}

// PushDescriptorObus implements §4.9's first public operation. Callable
// once.
func (s *Sequencer) PushDescriptorObus(sequenceHeader obu.SequenceHeader, codecConfigs map[uint64]*obu.CodecConfig, audioElements map[uint64]*obu.AudioElement, mixPresentations []*obu.MixPresentation, descriptorArbitrary []*obu.Arbitrary) error {
	if s.phase != phaseInitial {
		return s.fail(ierr.FailedPrecondition("push_descriptor_obus called out of phase"))
	}

	if _, err := singleSampleRate(codecConfigs); err != nil {
		return s.fail(err)
	}

	in := descriptorInputs{
		sequenceHeader:      sequenceHeader,
		codecConfigs:        codecConfigs,
		audioElements:       audioElements,
		mixPresentations:    mixPresentations,
		descriptorArbitrary: descriptorArbitrary,
	}

	write := func(firstUntrimmedTimestamp *uint64) error {
		bytes, err := serializeDescriptors(in, s.gen)
		if err != nil {
			return err
		}
		s.descriptorBytesLen = len(bytes)
		samplesPerFrame, sampleRate, bitDepth, numChannels := summaryProperties(codecConfigs)
		if err := s.hooks.PushSerializedDescriptorObus(samplesPerFrame, sampleRate, bitDepth, firstUntrimmedTimestamp, numChannels, bytes); err != nil {
			return err
		}
		return nil
	}

	if s.delayed {
		s.pendingDescriptorWrite = write
		s.phase = phaseDescriptorsPushed
		return nil
	}

	ts := uint64(defaultFirstUntrimmedTimestamp)
	if err := write(&ts); err != nil {
		return s.fail(err)
	}
	s.phase = phaseDescriptorsPushed
	return nil
}

func summaryProperties(codecConfigs map[uint64]*obu.CodecConfig) (samplesPerFrame uint32, sampleRate uint32, bitDepth uint8, numChannels uint32) {
	samplesPerFrame, sampleRate, bitDepth, numChannels = defaultSamplesPerFrame, defaultSampleRate, defaultBitDepth, defaultNumChannels
	for _, cc := range codecConfigs {
		samplesPerFrame = uint32(cc.NumSamplesPerFrame)
		if r, err := sampleRateOf(cc); err == nil {
			sampleRate = uint32(r)
		}
		break
	}
	return
}

// PushTemporalUnit implements §4.9's second public operation.
func (s *Sequencer) PushTemporalUnit(view *temporalunit.View, includeTemporalDelimiter bool) error {
	if s.phase != phaseDescriptorsPushed {
		return s.fail(ierr.FailedPrecondition("push_temporal_unit called out of phase"))
	}

	if err := s.enforceTrimAtStartPrefix(view); err != nil {
		return s.fail(err)
	}

	if s.pendingDescriptorWrite != nil {
		ts := firstUntrimmedTimestamp(view)
		if err := s.pendingDescriptorWrite(&ts); err != nil {
			return s.fail(err)
		}
		s.pendingDescriptorWrite = nil
	}

	bytes, err := serializeTemporalUnit(view, includeTemporalDelimiter, s.gen)
	if err != nil {
		return s.fail(err)
	}
	if err := s.hooks.PushSerializedTemporalUnit(view.StartTimestamp, view.NumUntrimmedSamples, bytes); err != nil {
		return s.fail(err)
	}
	s.lastTimestamp = &view.StartTimestamp
	return nil
}

// enforceTrimAtStartPrefix implements §4.9's ordering rule: once any unit
// has had trim_start==0, no later unit may have trim_start>0.
func (s *Sequencer) enforceTrimAtStartPrefix(view *temporalunit.View) error {
	if s.lastTimestamp != nil && view.StartTimestamp < *s.lastTimestamp {
		return ierr.InvalidArgument("temporal units must be pushed in non-decreasing timestamp order")
	}
	trimStart := uint32(0)
	if len(view.AudioFrames) > 0 {
		trimStart = view.AudioFrames[0].Frame.Trim.NumSamplesToTrimAtStart
	}
	if trimStart == 0 {
		s.sawZeroTrim = true
	} else if s.sawZeroTrim {
		return ierr.InvalidArgument("trim_start>0 may not follow a unit with trim_start==0")
	}
	return nil
}

func firstUntrimmedTimestamp(view *temporalunit.View) uint64 {
	if len(view.AudioFrames) == 0 {
		return view.StartTimestamp
	}
	trim := view.AudioFrames[0].Frame.Trim
	return view.StartTimestamp + uint64(trim.NumSamplesToTrimAtStart)
}

func serializeTemporalUnit(view *temporalunit.View, includeTemporalDelimiter bool, gen obu.LebGenerator) ([]byte, error) {
	var dst []byte
	var err error
	if includeTemporalDelimiter {
		dst = obu.WriteTemporalDelimiter(dst)
	}

	byHook := make(map[obu.InsertionHook][]*obu.Arbitrary)
	for _, a := range view.Arbitrary {
		byHook[a.Record.InsertionHook] = append(byHook[a.Record.InsertionHook], a.Record)
	}
	appendHook := func(dst []byte, hook obu.InsertionHook) ([]byte, error) {
		for _, a := range byHook[hook] {
			dst, err = obu.AppendRecord(dst, obu.TypeArbitrary, nil, a.InvalidatesBitstream, a, gen)
			if err != nil {
				return nil, err
			}
		}
		return dst, nil
	}

	dst, err = appendHook(dst, obu.HookBeforeParameterBlocksAtTick)
	if err != nil {
		return nil, err
	}
	for _, p := range view.ParameterBlocks {
		dst, err = obu.WriteRecord(dst, obu.TypeParameterBlock, nil, false, mustWrite(p.Block, gen), gen)
		if err != nil {
			return nil, err
		}
	}
	dst, err = appendHook(dst, obu.HookAfterParameterBlocksAtTick)
	if err != nil {
		return nil, err
	}
	for _, f := range view.AudioFrames {
		trim := &f.Frame.Trim
		dst, err = obu.AppendRecord(dst, obu.TypeAudioFrame, trim, false, f.Frame, gen)
		if err != nil {
			return nil, err
		}
	}
	dst, err = appendHook(dst, obu.HookAfterAudioFramesAtTick)
	if err != nil {
		return nil, err
	}
	return dst, nil
}

func mustWrite(p *obu.ParameterBlock, gen obu.LebGenerator) []byte {
	b, err := p.Write(gen)
	if err != nil {
		// generateOne already validated this block; a write failure here
		// means the caller mutated it after generation.
		panic(err)
	}
	return b
}

// UpdateDescriptorObusAndClose implements §4.9's third public operation.
func (s *Sequencer) UpdateDescriptorObusAndClose(sequenceHeader obu.SequenceHeader, codecConfigs map[uint64]*obu.CodecConfig, audioElements map[uint64]*obu.AudioElement, mixPresentations []*obu.MixPresentation, descriptorArbitrary []*obu.Arbitrary) error {
	if s.phase != phaseDescriptorsPushed {
		return s.fail(ierr.FailedPrecondition("update_descriptor_obus_and_close called out of phase"))
	}
	if s.pendingDescriptorWrite != nil {
		ts := uint64(defaultFirstUntrimmedTimestamp)
		if err := s.pendingDescriptorWrite(&ts); err != nil {
			return s.fail(err)
		}
		s.pendingDescriptorWrite = nil
	}

	in := descriptorInputs{
		sequenceHeader:      sequenceHeader,
		codecConfigs:        codecConfigs,
		audioElements:       audioElements,
		mixPresentations:    mixPresentations,
		descriptorArbitrary: descriptorArbitrary,
	}
	bytes, err := serializeDescriptors(in, s.gen)
	if err != nil {
		return s.fail(err)
	}
	if len(bytes) != s.descriptorBytesLen {
		return s.fail(ierr.InvalidArgument("re-serialized descriptor size %d differs from original %d", len(bytes), s.descriptorBytesLen))
	}
	if err := s.hooks.PushFinalizedDescriptorObus(bytes); err != nil {
		return s.fail(err)
	}
	return s.Close()
}

// Close implements §4.9's close operation. Idempotent-from-here failure
// sinks: close after a failure is not allowed.
func (s *Sequencer) Close() error {
	if s.phase == phaseAborted {
		return ierr.FailedPrecondition("close called after abort")
	}
	if s.pendingDescriptorWrite != nil {
		ts := uint64(defaultFirstUntrimmedTimestamp)
		if err := s.pendingDescriptorWrite(&ts); err != nil {
			return s.fail(err)
		}
		s.pendingDescriptorWrite = nil
	}
	if err := s.hooks.CloseDerived(); err != nil {
		return s.fail(err)
	}
	s.phase = phaseClosed
	return nil
}

// Abort is always safe.
func (s *Sequencer) Abort() error {
	if s.phase == phaseAborted {
		return nil
	}
	s.phase = phaseAborted
	return s.hooks.AbortDerived()
}

func (s *Sequencer) fail(err error) error {
	s.phase = phaseAborted
	_ = s.hooks.AbortDerived()
	return err
}

// PickAndPlace is §4.9's convenience operation: groups audio frames and
// parameter blocks into temporal units keyed by audio-frame start
// timestamp, orders units by timestamp, then drives push_descriptor_obus
// followed by one push_temporal_unit per tick before closing. Arbitrary
// records destined for a descriptor hook are routed to
// push_descriptor_obus; per-tick ones are matched to the unit sharing
// their insertion tick's timestamp.
func (s *Sequencer) PickAndPlace(
	sequenceHeader obu.SequenceHeader,
	codecConfigs map[uint64]*obu.CodecConfig,
	audioElements map[uint64]*obu.AudioElement,
	mixPresentations []*obu.MixPresentation,
	audioFrames []temporalunit.AudioFrameWithData,
	parameterBlocks []temporalunit.ParameterBlockWithData,
	arbitrary []*obu.Arbitrary,
) error {
	var descriptorArbitrary []*obu.Arbitrary
	perTickByTimestamp := make(map[uint64][]temporalunit.ArbitraryAtTick)
	for _, a := range arbitrary {
		if !obu.IsPerTickHook(a.InsertionHook) {
			descriptorArbitrary = append(descriptorArbitrary, a)
			continue
		}
		perTickByTimestamp[a.InsertionTick] = append(perTickByTimestamp[a.InsertionTick], temporalunit.ArbitraryAtTick{Record: a})
	}

	framesByTimestamp := make(map[uint64][]temporalunit.AudioFrameWithData)
	for _, f := range audioFrames {
		framesByTimestamp[f.StartTimestamp] = append(framesByTimestamp[f.StartTimestamp], f)
	}
	paramsByTimestamp := make(map[uint64][]temporalunit.ParameterBlockWithData)
	for _, p := range parameterBlocks {
		paramsByTimestamp[p.StartTimestamp] = append(paramsByTimestamp[p.StartTimestamp], p)
	}

	timestamps := make(map[uint64]struct{}, len(framesByTimestamp))
	for ts := range framesByTimestamp {
		timestamps[ts] = struct{}{}
	}
	for ts := range paramsByTimestamp {
		timestamps[ts] = struct{}{}
	}
	for ts := range perTickByTimestamp {
		timestamps[ts] = struct{}{}
	}
	sortedTimestamps := make([]uint64, 0, len(timestamps))
	for ts := range timestamps {
		sortedTimestamps = append(sortedTimestamps, ts)
	}
	sort.Slice(sortedTimestamps, func(i, j int) bool { return sortedTimestamps[i] < sortedTimestamps[j] })

	if err := s.PushDescriptorObus(sequenceHeader, codecConfigs, audioElements, mixPresentations, descriptorArbitrary); err != nil {
		return err
	}

	for _, ts := range sortedTimestamps {
		view, err := temporalunit.Create(paramsByTimestamp[ts], framesByTimestamp[ts], perTickByTimestamp[ts])
		if err != nil {
			return s.fail(err)
		}
		if err := s.PushTemporalUnit(view, true); err != nil {
			return err
		}
	}

	return s.Close()
}
