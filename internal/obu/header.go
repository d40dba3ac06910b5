package obu

import (
	"bufio"
	"io"

	"github.com/linuxmatters/iamfkit/internal/ierr"
)

// Type tags the seven record kinds a sequence carries, plus the
// zero-payload temporal delimiter.
type Type uint8

const (
	TypeSequenceHeader Type = iota
	TypeCodecConfig
	TypeAudioElement
	TypeMixPresentation
	TypeParameterBlock
	TypeAudioFrame
	TypeArbitrary
	TypeTemporalDelimiter
)

// Trim carries the leading/trailing sample counts trimmed from an audio
// frame's decoded output.
type Trim struct {
	NumSamplesToTrimAtStart uint32
	NumSamplesToTrimAtEnd   uint32
}

const (
	flagTrimmingStatus    = 0x1
	flagTruncatedPayload  = 0x2
	headerTypeShift       = 3
)

// WriteRecord emits header(type, flags) | [trim fields] | uleb128(len) |
// payload, using gen to mint size/trim ULEB128s.
func WriteRecord(dst []byte, t Type, trim *Trim, invalidatesBitstream bool, payload []byte, gen LebGenerator) ([]byte, error) {
	var flags byte
	if trim != nil {
		flags |= flagTrimmingStatus
	}
	if invalidatesBitstream {
		flags |= flagTruncatedPayload
	}
	dst = append(dst, byte(t)<<headerTypeShift|flags)
	var err error
	if trim != nil {
		dst, err = gen.AppendUleb128(dst, uint64(trim.NumSamplesToTrimAtEnd))
		if err != nil {
			return nil, err
		}
		dst, err = gen.AppendUleb128(dst, uint64(trim.NumSamplesToTrimAtStart))
		if err != nil {
			return nil, err
		}
	}
	dst, err = gen.AppendUleb128(dst, uint64(len(payload)))
	if err != nil {
		return nil, err
	}
	dst = append(dst, payload...)
	return dst, nil
}

// WriteTemporalDelimiter appends the one-byte, empty-payload delimiter
// record.
func WriteTemporalDelimiter(dst []byte) []byte {
	return append(dst, byte(TypeTemporalDelimiter)<<headerTypeShift)
}

// ParsedHeader is the decoded prefix of a record: its type, optional trim,
// and the exact payload bytes (always payload_size long).
type ParsedHeader struct {
	Type                 Type
	Trim                 *Trim
	InvalidatesBitstream bool
	Payload              []byte
}

// ParseRecord consumes exactly one record from r, failing MalformedObu if
// the stream is short or the declared payload_size can't be satisfied.
func ParseRecord(r *bufio.Reader) (*ParsedHeader, error) {
	first, err := r.ReadByte()
	if err != nil {
		return nil, ierr.MalformedObu("reading header byte: %v", err)
	}
	t := Type(first >> headerTypeShift)
	flags := first & 0x7
	h := &ParsedHeader{Type: t, InvalidatesBitstream: flags&flagTruncatedPayload != 0}
	if t == TypeTemporalDelimiter {
		return h, nil
	}
	if flags&flagTrimmingStatus != 0 {
		end, err := ReadUleb128(r)
		if err != nil {
			return nil, ierr.MalformedObu("reading trim end: %v", err)
		}
		start, err := ReadUleb128(r)
		if err != nil {
			return nil, ierr.MalformedObu("reading trim start: %v", err)
		}
		h.Trim = &Trim{NumSamplesToTrimAtStart: uint32(start), NumSamplesToTrimAtEnd: uint32(end)}
	}
	size, err := ReadUleb128(r)
	if err != nil {
		return nil, ierr.MalformedObu("reading payload_size: %v", err)
	}
	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, ierr.MalformedObu("short payload: want %d bytes: %v", size, err)
	}
	h.Payload = payload
	return h, nil
}
