package obu

import "github.com/linuxmatters/iamfkit/internal/ierr"

// CodecConfig is a codec configuration record (§3.3).
type CodecConfig struct {
	CodecConfigID      uint64
	Codec              CodecID
	NumSamplesPerFrame uint64
	AudioRollDistance  int16
	DecoderConfig      []byte
}

// Write emits the record's payload.
func (c *CodecConfig) Write(gen LebGenerator) ([]byte, error) {
	w := NewWriter(gen)
	if err := w.Uleb128(c.CodecConfigID); err != nil {
		return nil, err
	}
	w.U8(byte(c.Codec))
	if err := w.Uleb128(c.NumSamplesPerFrame); err != nil {
		return nil, err
	}
	w.I16(c.AudioRollDistance)
	if err := w.Uleb128(uint64(len(c.DecoderConfig))); err != nil {
		return nil, err
	}
	w.Bytes(c.DecoderConfig)
	return w.Done(), nil
}

// ParseCodecConfig parses exactly the payload bytes of a codec-config
// record.
func ParseCodecConfig(payload []byte) (*CodecConfig, error) {
	r := NewReader(payload)
	c := &CodecConfig{}
	var err error
	if c.CodecConfigID, err = r.Uleb128(); err != nil {
		return nil, err
	}
	codec, err := r.U8()
	if err != nil {
		return nil, err
	}
	c.Codec = CodecID(codec)
	if c.NumSamplesPerFrame, err = r.Uleb128(); err != nil {
		return nil, err
	}
	if c.AudioRollDistance, err = r.I16(); err != nil {
		return nil, err
	}
	blobLen, err := r.Uleb128()
	if err != nil {
		return nil, err
	}
	if c.DecoderConfig, err = r.Bytes(int(blobLen)); err != nil {
		return nil, err
	}
	if err := r.Exhausted(); err != nil {
		return nil, err
	}
	return c, nil
}

// ValidateSharedFormat enforces that every codec config in a sequence shares
// the same sample rate and bit depth, inferred from the decoder config by
// the excluded codec-config collaborator; here the caller supplies the
// already-resolved sample rates and bit depths (one entry per config in
// each slice) since the core doesn't parse codec-specific decoder config
// blobs.
func ValidateSharedFormat(sampleRates []uint32, bitDepths []uint8) error {
	if len(sampleRates) > 0 {
		first := sampleRates[0]
		for _, sr := range sampleRates[1:] {
			if sr != first {
				return ierr.InvalidArgument("multiple codec configs with different sample rates (%d vs %d) would require resampling, which is refused", first, sr)
			}
		}
	}
	if len(bitDepths) > 0 {
		first := bitDepths[0]
		for _, bd := range bitDepths[1:] {
			if bd != first {
				return ierr.InvalidArgument("multiple codec configs with different bit depths (%d vs %d) are refused", first, bd)
			}
		}
	}
	return nil
}
