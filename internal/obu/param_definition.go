package obu

import "github.com/linuxmatters/iamfkit/internal/ierr"

// MixGainParamDefinitionData is the MixGain-only part of a parameter
// definition.
type MixGainParamDefinitionData struct {
	DefaultMixGain int16
}

// DemixingParamDefinitionData is the Demixing-only part of a parameter
// definition.
type DemixingParamDefinitionData struct {
	DefaultDMixPMode DMixPMode
	DefaultW         uint8 // 4 bits
}

// ReconGainParamDefinitionData is the ReconGain-only part of a parameter
// definition. Per-layer channel numbers are not stored here and are not
// carried on the wire; they are derived at generation time from the owning
// audio element's layer configs (audioelement.Derived).
type ReconGainParamDefinitionData struct {
	AudioElementID          uint64
	NumLayers               uint8
	ReconGainIsPresentFlags []bool
}

// ParamDefinition is the tagged union of per-parameter-id metadata attached
// to an audio element or referenced from a mix presentation (§3.4, §3.5,
// §3.6).
type ParamDefinition struct {
	Type                     ParamDefinitionType
	ParameterID              uint64
	ParameterRate            uint64
	Mode                     uint8 // 0 = fixed duration, 1 = inline duration
	Duration                 uint64
	ConstantSubblockDuration uint64

	MixGain    *MixGainParamDefinitionData
	Demixing   *DemixingParamDefinitionData
	ReconGain  *ReconGainParamDefinitionData
}

// Write appends the parameter definition to w.
func (p *ParamDefinition) Write(w *Writer) error {
	w.U8(byte(p.Type))
	if err := w.Uleb128(p.ParameterID); err != nil {
		return err
	}
	if err := w.Uleb128(p.ParameterRate); err != nil {
		return err
	}
	w.U8(p.Mode)
	if p.Mode == 0 {
		if err := w.Uleb128(p.Duration); err != nil {
			return err
		}
		if err := w.Uleb128(p.ConstantSubblockDuration); err != nil {
			return err
		}
	}
	switch p.Type {
	case ParamMixGain:
		if p.MixGain == nil {
			return ierr.InvalidArgument("mix gain parameter definition missing variant data")
		}
		w.I16(p.MixGain.DefaultMixGain)
	case ParamDemixing:
		if p.Demixing == nil {
			return ierr.InvalidArgument("demixing parameter definition missing variant data")
		}
		w.U8(byte(p.Demixing.DefaultDMixPMode)<<5 | (p.Demixing.DefaultW & 0xF))
	case ParamReconGain:
		if p.ReconGain == nil {
			return ierr.InvalidArgument("recon gain parameter definition missing variant data")
		}
		if err := w.Uleb128(p.ReconGain.AudioElementID); err != nil {
			return err
		}
		w.U8(p.ReconGain.NumLayers)
		for _, present := range p.ReconGain.ReconGainIsPresentFlags {
			if present {
				w.U8(1)
			} else {
				w.U8(0)
			}
		}
	}
	return nil
}

// ReadParamDefinition reads one parameter definition from r.
func ReadParamDefinition(r *Reader) (*ParamDefinition, error) {
	t, err := r.U8()
	if err != nil {
		return nil, err
	}
	p := &ParamDefinition{Type: ParamDefinitionType(t)}
	if p.ParameterID, err = r.Uleb128(); err != nil {
		return nil, err
	}
	if p.ParameterRate, err = r.Uleb128(); err != nil {
		return nil, err
	}
	if p.Mode, err = r.U8(); err != nil {
		return nil, err
	}
	if p.Mode == 0 {
		if p.Duration, err = r.Uleb128(); err != nil {
			return nil, err
		}
		if p.ConstantSubblockDuration, err = r.Uleb128(); err != nil {
			return nil, err
		}
	}
	switch p.Type {
	case ParamMixGain:
		v, err := r.I16()
		if err != nil {
			return nil, err
		}
		p.MixGain = &MixGainParamDefinitionData{DefaultMixGain: v}
	case ParamDemixing:
		b, err := r.U8()
		if err != nil {
			return nil, err
		}
		p.Demixing = &DemixingParamDefinitionData{DefaultDMixPMode: DMixPMode(b >> 5), DefaultW: b & 0xF}
	case ParamReconGain:
		rg := &ReconGainParamDefinitionData{}
		if rg.AudioElementID, err = r.Uleb128(); err != nil {
			return nil, err
		}
		if rg.NumLayers, err = r.U8(); err != nil {
			return nil, err
		}
		rg.ReconGainIsPresentFlags = make([]bool, rg.NumLayers)
		for i := range rg.ReconGainIsPresentFlags {
			b, err := r.U8()
			if err != nil {
				return nil, err
			}
			rg.ReconGainIsPresentFlags[i] = b != 0
		}
		p.ReconGain = rg
	default:
		return nil, ierr.Unimplemented("unrecognised parameter definition type %d", t)
	}
	return p, nil
}
