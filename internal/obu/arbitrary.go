package obu

import "github.com/linuxmatters/iamfkit/internal/ierr"

// IsPerTickHook reports whether h carries an insertion tick alongside
// itself (§3.8).
func IsPerTickHook(h InsertionHook) bool {
	switch h {
	case HookBeforeParameterBlocksAtTick, HookAfterParameterBlocksAtTick, HookAfterAudioFramesAtTick:
		return true
	default:
		return false
	}
}

// Arbitrary is an opaque, hook-targeted byte payload (§3.8). A record with
// InvalidatesBitstream set may stand in for an audio frame in an otherwise
// empty temporal unit (§3.9).
type Arbitrary struct {
	InsertionHook        InsertionHook
	InsertionTick        uint64 // valid iff InsertionHook is a per-tick hook
	InvalidatesBitstream bool
	Payload              []byte
}

// Write emits the record's payload.
func (a *Arbitrary) Write(gen LebGenerator) ([]byte, error) {
	w := NewWriter(gen)
	w.U8(byte(a.InsertionHook))
	if IsPerTickHook(a.InsertionHook) {
		if err := w.Uleb128(a.InsertionTick); err != nil {
			return nil, err
		}
	}
	w.Bytes(a.Payload)
	return w.Done(), nil
}

// ParseArbitrary parses exactly the payload bytes of an arbitrary record.
// invalidatesBitstream must be supplied from the record header's
// truncated-payload flag.
func ParseArbitrary(payload []byte, invalidatesBitstream bool) (*Arbitrary, error) {
	r := NewReader(payload)
	a := &Arbitrary{InvalidatesBitstream: invalidatesBitstream}
	hookByte, err := r.U8()
	if err != nil {
		return nil, err
	}
	a.InsertionHook = InsertionHook(hookByte)
	if a.InsertionHook > HookAfterAudioFramesAtTick {
		return nil, ierr.MalformedObu("unrecognised insertion hook %d", hookByte)
	}
	if IsPerTickHook(a.InsertionHook) {
		if a.InsertionTick, err = r.Uleb128(); err != nil {
			return nil, err
		}
	}
	if a.Payload, err = r.Remaining(); err != nil {
		return nil, err
	}
	return a, nil
}
