package obu

import (
	"bufio"

	"github.com/linuxmatters/iamfkit/internal/ierr"
)

// Record is any of the seven typed payloads this package models, plus the
// zero-payload temporal delimiter, dispatched by a ParsedHeader's Type.
type Record struct {
	Header          *ParsedHeader
	SequenceHeader  *SequenceHeader
	CodecConfig     *CodecConfig
	AudioElement    *AudioElement
	MixPresentation *MixPresentation
	// ParameterBlock is left unset by ParseNext: parsing a parameter block's
	// payload needs per-id metadata the codec layer doesn't own (§4.6). Call
	// ParseParameterBlock directly with the resolved metadata instead.
	AudioFrame *AudioFrame
	Arbitrary  *Arbitrary
}

// ParseNext consumes one record from r and decodes everything except
// parameter blocks, whose decoding needs external per-id metadata.
func ParseNext(r *bufio.Reader) (*Record, error) {
	h, err := ParseRecord(r)
	if err != nil {
		return nil, err
	}
	rec := &Record{Header: h}
	switch h.Type {
	case TypeTemporalDelimiter, TypeParameterBlock:
		return rec, nil
	case TypeSequenceHeader:
		rec.SequenceHeader, err = ParseSequenceHeader(h.Payload)
	case TypeCodecConfig:
		rec.CodecConfig, err = ParseCodecConfig(h.Payload)
	case TypeAudioElement:
		rec.AudioElement, err = ParseAudioElement(h.Payload)
	case TypeMixPresentation:
		rec.MixPresentation, err = ParseMixPresentation(h.Payload)
	case TypeAudioFrame:
		rec.AudioFrame, err = ParseAudioFrame(h.Payload, h.Trim)
	case TypeArbitrary:
		rec.Arbitrary, err = ParseArbitrary(h.Payload, h.InvalidatesBitstream)
	default:
		return nil, ierr.MalformedObu("unrecognised record type %d", h.Type)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// payloadWriter is implemented by every record type whose wire payload
// depends only on itself and a LebGenerator.
type payloadWriter interface {
	Write(gen LebGenerator) ([]byte, error)
}

// AppendRecord serializes v's payload and appends the full record (header,
// optional trim, size, payload) to dst.
func AppendRecord(dst []byte, t Type, trim *Trim, invalidatesBitstream bool, v payloadWriter, gen LebGenerator) ([]byte, error) {
	payload, err := v.Write(gen)
	if err != nil {
		return nil, err
	}
	return WriteRecord(dst, t, trim, invalidatesBitstream, payload, gen)
}
