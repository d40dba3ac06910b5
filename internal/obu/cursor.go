package obu

import (
	"bufio"
	"bytes"
	"encoding/binary"

	"github.com/linuxmatters/iamfkit/internal/ierr"
)

// Reader is a cursor over one record's exact payload bytes. All payload
// parsing goes through it so malformed-length payloads surface as
// MalformedObu instead of silent truncation or panics.
type Reader struct {
	buf *bufio.Reader
	n   int // bytes consumed by U8, I16, U16 and Bytes (Uleb128 and Remaining do not count)
}

// NewReader wraps a payload for sequential decoding.
func NewReader(payload []byte) *Reader {
	return &Reader{buf: bufio.NewReader(bytes.NewReader(payload))}
}

// Uleb128 reads an unsigned LEB128 integer.
func (r *Reader) Uleb128() (uint64, error) {
	v, err := ReadUleb128(r.buf)
	return v, err
}

// U8 reads one byte.
func (r *Reader) U8() (uint8, error) {
	b, err := r.buf.ReadByte()
	if err != nil {
		return 0, ierr.MalformedObu("reading u8: %v", err)
	}
	r.n++
	return b, nil
}

// I16 reads a big-endian signed 16-bit integer.
func (r *Reader) I16() (int16, error) {
	var b [2]byte
	if _, err := readFull(r.buf, b[:]); err != nil {
		return 0, ierr.MalformedObu("reading i16: %v", err)
	}
	r.n += 2
	return int16(binary.BigEndian.Uint16(b[:])), nil
}

// U16 reads a big-endian unsigned 16-bit integer.
func (r *Reader) U16() (uint16, error) {
	var b [2]byte
	if _, err := readFull(r.buf, b[:]); err != nil {
		return 0, ierr.MalformedObu("reading u16: %v", err)
	}
	r.n += 2
	return binary.BigEndian.Uint16(b[:]), nil
}

// Bytes reads n raw bytes. A zero-length read returns nil, so an empty
// field parses back to the same nil slice a record was written from.
func (r *Reader) Bytes(n int) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}
	out := make([]byte, n)
	if _, err := readFull(r.buf, out); err != nil {
		return nil, ierr.MalformedObu("reading %d bytes: %v", n, err)
	}
	r.n += n
	return out, nil
}

// Remaining reads whatever bytes are left.
func (r *Reader) Remaining() ([]byte, error) {
	var out []byte
	buf := make([]byte, 4096)
	for {
		n, err := r.buf.Read(buf)
		out = append(out, buf[:n]...)
		if err != nil {
			break
		}
	}
	return out, nil
}

// Exhausted fails unless the payload has been fully consumed.
func (r *Reader) Exhausted() error {
	if r.buf.Buffered() > 0 {
		return ierr.MalformedObu("trailing bytes in payload")
	}
	// Nothing is buffered, but the underlying payload may still hold bytes
	// the buffer has not pulled in yet: Peek forces a fill attempt, and a
	// successful Peek means such a remainder exists.
	if _, err := r.buf.Peek(1); err == nil {
		return ierr.MalformedObu("trailing bytes in payload")
	}
	return nil
}

func readFull(r *bufio.Reader, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Writer accumulates a record payload.
type Writer struct {
	buf []byte
	gen LebGenerator
}

// NewWriter starts a payload writer using gen to mint ULEB128s.
func NewWriter(gen LebGenerator) *Writer {
	return &Writer{gen: gen}
}

func (w *Writer) Uleb128(v uint64) error {
	b, err := w.gen.AppendUleb128(w.buf, v)
	if err != nil {
		return err
	}
	w.buf = b
	return nil
}

func (w *Writer) U8(v uint8) {
	w.buf = append(w.buf, v)
}

func (w *Writer) I16(v int16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], uint16(v))
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) U16(v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) Bytes(b []byte) {
	w.buf = append(w.buf, b...)
}

// Done returns the accumulated payload.
func (w *Writer) Done() []byte {
	return w.buf
}
