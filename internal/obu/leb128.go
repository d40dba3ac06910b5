package obu

import (
	"io"

	"github.com/linuxmatters/iamfkit/internal/ierr"
)

// Uleb128MaxBytes bounds a conformant unsigned LEB128 encoding of a 32-bit
// value; readers refuse longer encodings as malformed.
const Uleb128MaxBytes = 5

// LebGenerator controls how ULEB128 values are minted on write. Tests use a
// non-minimal generator to exercise codec tolerance for padded encodings;
// production code uses the minimal generator.
type LebGenerator struct {
	// MinBytes pads every emitted ULEB128 to at least this many bytes,
	// using the continuation bit on trailing zero groups. 0 or 1 means
	// "minimal, no padding".
	MinBytes int
}

// Minimal is the default generator: shortest possible encoding.
var Minimal = LebGenerator{MinBytes: 1}

// AppendUleb128 appends the ULEB128 encoding of v to dst, honoring g's
// padding policy.
func (g LebGenerator) AppendUleb128(dst []byte, v uint64) ([]byte, error) {
	if v > 0xFFFFFFFF {
		return nil, ierr.InvalidArgument("value %d does not fit in 32 bits", v)
	}
	var groups []byte
	rest := v
	for {
		groups = append(groups, byte(rest&0x7F))
		rest >>= 7
		if rest == 0 {
			break
		}
	}
	for len(groups) < g.MinBytes && len(groups) < Uleb128MaxBytes {
		groups = append(groups, 0)
	}
	for i, group := range groups {
		if i != len(groups)-1 {
			dst = append(dst, group|0x80)
		} else {
			dst = append(dst, group)
		}
	}
	return dst, nil
}

// AppendUleb128 appends with the minimal generator; convenience for callers
// that don't need non-minimal encodings.
func AppendUleb128(dst []byte, v uint64) []byte {
	dst, _ = Minimal.AppendUleb128(dst, v)
	return dst
}

// ReadUleb128 decodes an unsigned LEB128 integer, failing MalformedObu if the
// encoding runs past Uleb128MaxBytes without terminating or if decoding
// overflows 32 bits.
func ReadUleb128(r io.ByteReader) (uint64, error) {
	var result uint64
	for i := 0; i < Uleb128MaxBytes; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, ierr.MalformedObu("reading uleb128: %v", err)
		}
		result |= uint64(b&0x7F) << (7 * i)
		if b&0x80 == 0 {
			if result > 0xFFFFFFFF {
				return 0, ierr.MalformedObu("uleb128 overflows 32 bits")
			}
			return result, nil
		}
	}
	return 0, ierr.MalformedObu("uleb128 longer than %d bytes", Uleb128MaxBytes)
}
