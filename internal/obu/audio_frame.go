package obu

import "github.com/linuxmatters/iamfkit/internal/ierr"

// AudioFrame is an opaque codec payload tagged by substream (§3.7).
type AudioFrame struct {
	SubstreamID uint64
	Trim        Trim
	Data        []byte
}

// ValidateTrim enforces trim_start + trim_end <= samples_per_frame (§3.7). A
// fully-trimmed frame (equality) is legal.
func (a *AudioFrame) ValidateTrim(samplesPerFrame uint32) error {
	if uint64(a.Trim.NumSamplesToTrimAtStart)+uint64(a.Trim.NumSamplesToTrimAtEnd) > uint64(samplesPerFrame) {
		return ierr.InvalidArgument("trim_start(%d) + trim_end(%d) exceeds samples_per_frame(%d)", a.Trim.NumSamplesToTrimAtStart, a.Trim.NumSamplesToTrimAtEnd, samplesPerFrame)
	}
	return nil
}

// Write emits the record's payload: substream_id followed by the raw codec
// bytes. Trim fields live in the shared record header (§6.1), not the
// payload, so callers pass a.Trim to WriteRecord directly.
func (a *AudioFrame) Write(gen LebGenerator) ([]byte, error) {
	w := NewWriter(gen)
	if err := w.Uleb128(a.SubstreamID); err != nil {
		return nil, err
	}
	w.Bytes(a.Data)
	return w.Done(), nil
}

// ParseAudioFrame parses exactly the payload bytes of an audio-frame
// record. trim must be supplied from the record header (nil if the header
// carried no trim flag, in which case both fields are zero).
func ParseAudioFrame(payload []byte, trim *Trim) (*AudioFrame, error) {
	r := NewReader(payload)
	a := &AudioFrame{}
	var err error
	if a.SubstreamID, err = r.Uleb128(); err != nil {
		return nil, err
	}
	if a.Data, err = r.Remaining(); err != nil {
		return nil, err
	}
	if trim != nil {
		a.Trim = *trim
	}
	return a, nil
}
