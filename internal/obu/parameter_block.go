package obu

import "github.com/linuxmatters/iamfkit/internal/ierr"

// MixGainAnimation is the tagged union of a MixGain subblock's animation
// payload (§3.6). Value-range checks upstream narrow proto int32/uint32
// fields into these already-narrow types.
type MixGainAnimation struct {
	Type                  AnimationType
	Start                 int16
	End                   int16 // valid iff Type != AnimationStep
	Control               int16 // valid iff Type == AnimationBezier
	ControlRelativeTime   uint8 // valid iff Type == AnimationBezier
}

func (a *MixGainAnimation) write(w *Writer) {
	w.U8(byte(a.Type))
	w.I16(a.Start)
	switch a.Type {
	case AnimationLinear:
		w.I16(a.End)
	case AnimationBezier:
		w.I16(a.End)
		w.I16(a.Control)
		w.U8(a.ControlRelativeTime)
	}
}

func readMixGainAnimation(r *Reader) (*MixGainAnimation, error) {
	t, err := r.U8()
	if err != nil {
		return nil, err
	}
	a := &MixGainAnimation{Type: AnimationType(t)}
	if a.Start, err = r.I16(); err != nil {
		return nil, err
	}
	switch a.Type {
	case AnimationStep:
	case AnimationLinear:
		if a.End, err = r.I16(); err != nil {
			return nil, err
		}
	case AnimationBezier:
		if a.End, err = r.I16(); err != nil {
			return nil, err
		}
		if a.Control, err = r.I16(); err != nil {
			return nil, err
		}
		if a.ControlRelativeTime, err = r.U8(); err != nil {
			return nil, err
		}
	default:
		return nil, ierr.MalformedObu("unrecognised mix gain animation type %d", t)
	}
	return a, nil
}

// ReconGainLayer is one layer's present bitmask and 12 packed gain bytes
// (§4.5).
type ReconGainLayer struct {
	PresentMask uint16 // 12 meaningful bits
	Gains       [12]uint8
}

// Subblock is the tagged union of one subblock's payload, shared across all
// three parameter families on a block.
type Subblock struct {
	// SubblockDuration is omitted on the wire when the per-id metadata's
	// constant_subblock_duration != 0; ParseParameterBlock fills it in from
	// that shared duration in that case.
	SubblockDuration uint64

	MixGain    *MixGainAnimation
	DMixPMode  *DMixPMode // 3 bits; 5 reserved bits follow on the wire
	ReconGain  []ReconGainLayer
}

// ParameterBlock is a fully-populated parameter-block record (§3.6).
type ParameterBlock struct {
	ParameterID              uint64
	Type                     ParamDefinitionType
	Mode                     uint8 // 0 = fixed duration (from definition), 1 = inline
	Duration                 uint64
	ConstantSubblockDuration uint64
	NumSubblocks             uint64 // mode 1 only
	Subblocks                []Subblock
}

// Write emits the record's payload. A ReconGain subblock is written as one
// entry per element of its ReconGain slice; the wire format carries no
// per-layer count of its own, so ParseParameterBlock takes numLayers from
// the per-id metadata instead.
func (p *ParameterBlock) Write(gen LebGenerator) ([]byte, error) {
	if p.Type == ParamDemixing && len(p.Subblocks) != 1 {
		return nil, ierr.InvalidArgument("demixing parameter block must have exactly one subblock, got %d", len(p.Subblocks))
	}
	if p.Type == ParamReconGain && len(p.Subblocks) != 1 {
		return nil, ierr.InvalidArgument("recon gain parameter block must have exactly one subblock, got %d", len(p.Subblocks))
	}
	w := NewWriter(gen)
	if err := w.Uleb128(p.ParameterID); err != nil {
		return nil, err
	}
	w.U8(p.Mode)
	if p.Mode == 1 {
		if err := w.Uleb128(p.Duration); err != nil {
			return nil, err
		}
		if err := w.Uleb128(p.ConstantSubblockDuration); err != nil {
			return nil, err
		}
		if err := w.Uleb128(uint64(len(p.Subblocks))); err != nil {
			return nil, err
		}
	}
	for i := range p.Subblocks {
		sb := &p.Subblocks[i]
		if p.ConstantSubblockDuration == 0 {
			if err := w.Uleb128(sb.SubblockDuration); err != nil {
				return nil, err
			}
		}
		switch p.Type {
		case ParamMixGain:
			if sb.MixGain == nil {
				return nil, ierr.InvalidArgument("mix gain subblock missing animation payload")
			}
			sb.MixGain.write(w)
		case ParamDemixing:
			if sb.DMixPMode == nil {
				return nil, ierr.InvalidArgument("demixing subblock missing dmixp_mode")
			}
			w.U8(byte(*sb.DMixPMode) << 5)
		case ParamReconGain:
			for _, layer := range sb.ReconGain {
				w.U16(layer.PresentMask << 4) // top 12 bits carry the mask
				w.Bytes(layer.Gains[:])
			}
		default:
			return nil, ierr.Unimplemented("unrecognised parameter definition type %d", p.Type)
		}
	}
	return w.Done(), nil
}

// ParseParameterBlock parses a parameter-block record given per-id metadata
// resolved by the caller (the generator's state, not carried on the wire):
// defType, defMode, defDuration, defConstantSubblockDuration, and, for
// recon-gain blocks, numLayers.
func ParseParameterBlock(payload []byte, defType ParamDefinitionType, defMode uint8, defDuration, defConstantSubblockDuration uint64, numLayers uint8) (*ParameterBlock, error) {
	r := NewReader(payload)
	p := &ParameterBlock{Type: defType}
	var err error
	if p.ParameterID, err = r.Uleb128(); err != nil {
		return nil, err
	}
	if p.Mode, err = r.U8(); err != nil {
		return nil, err
	}
	if p.Mode == 1 {
		if p.Duration, err = r.Uleb128(); err != nil {
			return nil, err
		}
		if p.ConstantSubblockDuration, err = r.Uleb128(); err != nil {
			return nil, err
		}
		if p.NumSubblocks, err = r.Uleb128(); err != nil {
			return nil, err
		}
	} else {
		p.Duration = defDuration
		p.ConstantSubblockDuration = defConstantSubblockDuration
		p.NumSubblocks = numSubblocksFor(defDuration, defConstantSubblockDuration)
	}
	p.Subblocks = make([]Subblock, p.NumSubblocks)
	for i := range p.Subblocks {
		sb := &p.Subblocks[i]
		if p.ConstantSubblockDuration == 0 {
			if sb.SubblockDuration, err = r.Uleb128(); err != nil {
				return nil, err
			}
		} else {
			sb.SubblockDuration = p.ConstantSubblockDuration
		}
		switch p.Type {
		case ParamMixGain:
			if sb.MixGain, err = readMixGainAnimation(r); err != nil {
				return nil, err
			}
		case ParamDemixing:
			b, err := r.U8()
			if err != nil {
				return nil, err
			}
			mode := DMixPMode(b >> 5)
			sb.DMixPMode = &mode
		case ParamReconGain:
			sb.ReconGain = make([]ReconGainLayer, numLayers)
			for l := range sb.ReconGain {
				mask, err := r.U16()
				if err != nil {
					return nil, err
				}
				sb.ReconGain[l].PresentMask = mask >> 4
				gains, err := r.Bytes(12)
				if err != nil {
					return nil, err
				}
				copy(sb.ReconGain[l].Gains[:], gains)
			}
		default:
			return nil, ierr.Unimplemented("unrecognised parameter definition type %d", p.Type)
		}
	}
	if err := r.Exhausted(); err != nil {
		return nil, err
	}
	if p.Type == ParamDemixing && len(p.Subblocks) != 1 {
		return nil, ierr.MalformedObu("demixing parameter block must have exactly one subblock, got %d", len(p.Subblocks))
	}
	if p.Type == ParamReconGain && len(p.Subblocks) != 1 {
		return nil, ierr.MalformedObu("recon gain parameter block must have exactly one subblock, got %d", len(p.Subblocks))
	}
	return p, nil
}

func numSubblocksFor(duration, constantSubblockDuration uint64) uint64 {
	if constantSubblockDuration == 0 || duration == 0 {
		return 1
	}
	n := duration / constantSubblockDuration
	if duration%constantSubblockDuration != 0 {
		n++
	}
	return n
}
