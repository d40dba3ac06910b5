package obu

import "github.com/linuxmatters/iamfkit/internal/ierr"

const sentinelInactiveChannel = 255

// LayerConfig is one scalable-channel layer (§3.4).
type LayerConfig struct {
	LoudspeakerLayout         LoudspeakerLayout
	OutputGainIsPresent       bool
	ReconGainIsPresent        bool
	SubstreamCount            uint8
	CoupledSubstreamCount     uint8
	ExpandedLoudspeakerLayout *ExpandedLoudspeakerLayout
	OutputGainFlag            uint8 // 6 bits, valid iff OutputGainIsPresent
	OutputGain                int16 // valid iff OutputGainIsPresent
}

// ScalableChannelConfig is the channel-based audio element config (§3.4).
type ScalableChannelConfig struct {
	Layers []LayerConfig
}

// AmbisonicsMonoConfig is the scene-based mono Ambisonics config (§3.4).
type AmbisonicsMonoConfig struct {
	OutputChannelCount uint8
	SubstreamCount     uint8
	ChannelMapping     []uint8 // length OutputChannelCount; entries are substream index or 255
}

// AmbisonicsProjectionConfig is the scene-based projection Ambisonics
// config (§3.4).
type AmbisonicsProjectionConfig struct {
	OutputChannelCount    uint8
	SubstreamCount        uint8
	CoupledSubstreamCount uint8
	DemixingMatrix        []int16 // length (N+M)*C
}

// ObjectsConfig is the object-based audio element config (§3.4).
type ObjectsConfig struct {
	NumObjects uint64
	Extension  []byte
}

// ExtensionConfig is the opaque extension audio element config (§3.4).
type ExtensionConfig struct {
	Data []byte
}

// AudioElementConfig is the type-specific config tagged union; exactly one
// field is non-nil, matching AudioElement.Type.
type AudioElementConfig struct {
	Scalable             *ScalableChannelConfig
	AmbisonicsMono       *AmbisonicsMonoConfig
	AmbisonicsProjection *AmbisonicsProjectionConfig
	Objects              *ObjectsConfig
	Extension            *ExtensionConfig
}

// AudioElement is a fully-populated audio element record (§3.4).
type AudioElement struct {
	AudioElementID   uint64
	Type             AudioElementType
	CodecConfigID    uint64
	SubstreamIDs     []uint64
	ParamDefinitions []*ParamDefinition
	Config           AudioElementConfig
}

// Write emits the record's payload.
func (a *AudioElement) Write(gen LebGenerator) ([]byte, error) {
	w := NewWriter(gen)
	if err := w.Uleb128(a.AudioElementID); err != nil {
		return nil, err
	}
	w.U8(byte(a.Type))
	if err := w.Uleb128(a.CodecConfigID); err != nil {
		return nil, err
	}
	if err := w.Uleb128(uint64(len(a.SubstreamIDs))); err != nil {
		return nil, err
	}
	for _, id := range a.SubstreamIDs {
		if err := w.Uleb128(id); err != nil {
			return nil, err
		}
	}
	if err := w.Uleb128(uint64(len(a.ParamDefinitions))); err != nil {
		return nil, err
	}
	for _, p := range a.ParamDefinitions {
		if p.Type == ParamMixGain {
			return nil, ierr.InvalidArgument("MixGain parameter definitions are forbidden on an audio element")
		}
		if err := p.Write(w); err != nil {
			return nil, err
		}
	}
	if err := writeAudioElementConfig(w, a.Type, a.Config); err != nil {
		return nil, err
	}
	return w.Done(), nil
}

func writeAudioElementConfig(w *Writer, t AudioElementType, cfg AudioElementConfig) error {
	switch t {
	case AudioElementChannelBased:
		if cfg.Scalable == nil {
			return ierr.InvalidArgument("channel-based audio element missing scalable config")
		}
		return writeScalableConfig(w, cfg.Scalable)
	case AudioElementSceneBased:
		switch {
		case cfg.AmbisonicsMono != nil:
			w.U8(byte(AmbisonicsMono))
			return writeAmbisonicsMono(w, cfg.AmbisonicsMono)
		case cfg.AmbisonicsProjection != nil:
			w.U8(byte(AmbisonicsProjection))
			return writeAmbisonicsProjection(w, cfg.AmbisonicsProjection)
		default:
			return ierr.InvalidArgument("scene-based audio element missing ambisonics config")
		}
	case AudioElementObjectBased:
		if cfg.Objects == nil {
			return ierr.InvalidArgument("object-based audio element missing objects config")
		}
		if err := w.Uleb128(cfg.Objects.NumObjects); err != nil {
			return err
		}
		if err := w.Uleb128(uint64(len(cfg.Objects.Extension))); err != nil {
			return err
		}
		w.Bytes(cfg.Objects.Extension)
		return nil
	default:
		if cfg.Extension == nil {
			return ierr.InvalidArgument("reserved/extension audio element missing extension config")
		}
		if err := w.Uleb128(uint64(len(cfg.Extension.Data))); err != nil {
			return err
		}
		w.Bytes(cfg.Extension.Data)
		return nil
	}
}

func writeScalableConfig(w *Writer, c *ScalableChannelConfig) error {
	w.U8(uint8(len(c.Layers)))
	for i := range c.Layers {
		l := &c.Layers[i]
		var flags byte
		if l.OutputGainIsPresent {
			flags |= 0x02
		}
		if l.ReconGainIsPresent {
			flags |= 0x01
		}
		w.U8(byte(l.LoudspeakerLayout)<<4 | flags)
		w.U8(l.SubstreamCount)
		w.U8(l.CoupledSubstreamCount)
		if l.LoudspeakerLayout == LayoutExpanded {
			if l.ExpandedLoudspeakerLayout == nil {
				return ierr.InvalidArgument("layer with Expanded layout missing expanded_loudspeaker_layout")
			}
			w.U8(byte(*l.ExpandedLoudspeakerLayout))
		}
		if l.OutputGainIsPresent {
			w.U8(l.OutputGainFlag & 0x3F)
			w.I16(l.OutputGain)
		}
	}
	return nil
}

func writeAmbisonicsMono(w *Writer, c *AmbisonicsMonoConfig) error {
	if len(c.ChannelMapping) != int(c.OutputChannelCount) {
		return ierr.InvalidArgument("channel_mapping length %d != output_channel_count %d", len(c.ChannelMapping), c.OutputChannelCount)
	}
	w.U8(c.OutputChannelCount)
	w.U8(c.SubstreamCount)
	w.Bytes(c.ChannelMapping)
	return nil
}

func writeAmbisonicsProjection(w *Writer, c *AmbisonicsProjectionConfig) error {
	want := int(c.SubstreamCount+c.CoupledSubstreamCount) * int(c.OutputChannelCount)
	if len(c.DemixingMatrix) != want {
		return ierr.InvalidArgument("demixing_matrix length %d != (N+M)*C %d", len(c.DemixingMatrix), want)
	}
	w.U8(c.OutputChannelCount)
	w.U8(c.SubstreamCount)
	w.U8(c.CoupledSubstreamCount)
	for _, v := range c.DemixingMatrix {
		w.I16(v)
	}
	return nil
}

// ParseAudioElement parses exactly the payload bytes of an audio-element
// record.
func ParseAudioElement(payload []byte) (*AudioElement, error) {
	r := NewReader(payload)
	a := &AudioElement{}
	var err error
	if a.AudioElementID, err = r.Uleb128(); err != nil {
		return nil, err
	}
	t, err := r.U8()
	if err != nil {
		return nil, err
	}
	a.Type = AudioElementType(t)
	if a.CodecConfigID, err = r.Uleb128(); err != nil {
		return nil, err
	}
	numSubstreams, err := r.Uleb128()
	if err != nil {
		return nil, err
	}
	a.SubstreamIDs = make([]uint64, numSubstreams)
	for i := range a.SubstreamIDs {
		if a.SubstreamIDs[i], err = r.Uleb128(); err != nil {
			return nil, err
		}
	}
	numParams, err := r.Uleb128()
	if err != nil {
		return nil, err
	}
	for i := uint64(0); i < numParams; i++ {
		p, err := ReadParamDefinition(r)
		if err != nil {
			return nil, err
		}
		a.ParamDefinitions = append(a.ParamDefinitions, p)
	}
	if a.Config, err = readAudioElementConfig(r, a.Type); err != nil {
		return nil, err
	}
	if err := r.Exhausted(); err != nil {
		return nil, err
	}
	return a, nil
}

func readAudioElementConfig(r *Reader, t AudioElementType) (AudioElementConfig, error) {
	var cfg AudioElementConfig
	switch t {
	case AudioElementChannelBased:
		sc, err := readScalableConfig(r)
		if err != nil {
			return cfg, err
		}
		cfg.Scalable = sc
	case AudioElementSceneBased:
		modeByte, err := r.U8()
		if err != nil {
			return cfg, err
		}
		switch AmbisonicsMode(modeByte) {
		case AmbisonicsMono:
			m, err := readAmbisonicsMono(r)
			if err != nil {
				return cfg, err
			}
			cfg.AmbisonicsMono = m
		case AmbisonicsProjection:
			p, err := readAmbisonicsProjection(r)
			if err != nil {
				return cfg, err
			}
			cfg.AmbisonicsProjection = p
		default:
			return cfg, ierr.Unimplemented("unrecognised ambisonics mode %d", modeByte)
		}
	case AudioElementObjectBased:
		numObjects, err := r.Uleb128()
		if err != nil {
			return cfg, err
		}
		extLen, err := r.Uleb128()
		if err != nil {
			return cfg, err
		}
		ext, err := r.Bytes(int(extLen))
		if err != nil {
			return cfg, err
		}
		cfg.Objects = &ObjectsConfig{NumObjects: numObjects, Extension: ext}
	default:
		dataLen, err := r.Uleb128()
		if err != nil {
			return cfg, err
		}
		data, err := r.Bytes(int(dataLen))
		if err != nil {
			return cfg, err
		}
		cfg.Extension = &ExtensionConfig{Data: data}
	}
	return cfg, nil
}

func readScalableConfig(r *Reader) (*ScalableChannelConfig, error) {
	numLayers, err := r.U8()
	if err != nil {
		return nil, err
	}
	c := &ScalableChannelConfig{Layers: make([]LayerConfig, numLayers)}
	for i := range c.Layers {
		l := &c.Layers[i]
		b, err := r.U8()
		if err != nil {
			return nil, err
		}
		l.LoudspeakerLayout = LoudspeakerLayout(b >> 4)
		l.OutputGainIsPresent = b&0x02 != 0
		l.ReconGainIsPresent = b&0x01 != 0
		if l.SubstreamCount, err = r.U8(); err != nil {
			return nil, err
		}
		if l.CoupledSubstreamCount, err = r.U8(); err != nil {
			return nil, err
		}
		if l.LoudspeakerLayout == LayoutExpanded {
			eb, err := r.U8()
			if err != nil {
				return nil, err
			}
			e := ExpandedLoudspeakerLayout(eb)
			l.ExpandedLoudspeakerLayout = &e
		}
		if l.OutputGainIsPresent {
			flag, err := r.U8()
			if err != nil {
				return nil, err
			}
			l.OutputGainFlag = flag & 0x3F
			if l.OutputGain, err = r.I16(); err != nil {
				return nil, err
			}
		}
	}
	return c, nil
}

func readAmbisonicsMono(r *Reader) (*AmbisonicsMonoConfig, error) {
	c := &AmbisonicsMonoConfig{}
	var err error
	if c.OutputChannelCount, err = r.U8(); err != nil {
		return nil, err
	}
	if c.SubstreamCount, err = r.U8(); err != nil {
		return nil, err
	}
	if c.ChannelMapping, err = r.Bytes(int(c.OutputChannelCount)); err != nil {
		return nil, err
	}
	for _, idx := range c.ChannelMapping {
		if idx != sentinelInactiveChannel && idx >= c.SubstreamCount {
			return nil, ierr.InvalidArgument("channel_mapping entry %d >= substream_count %d", idx, c.SubstreamCount)
		}
	}
	return c, nil
}

func readAmbisonicsProjection(r *Reader) (*AmbisonicsProjectionConfig, error) {
	c := &AmbisonicsProjectionConfig{}
	var err error
	if c.OutputChannelCount, err = r.U8(); err != nil {
		return nil, err
	}
	if c.SubstreamCount, err = r.U8(); err != nil {
		return nil, err
	}
	if c.CoupledSubstreamCount, err = r.U8(); err != nil {
		return nil, err
	}
	n := int(c.SubstreamCount+c.CoupledSubstreamCount) * int(c.OutputChannelCount)
	c.DemixingMatrix = make([]int16, n)
	for i := range c.DemixingMatrix {
		if c.DemixingMatrix[i], err = r.I16(); err != nil {
			return nil, err
		}
	}
	return c, nil
}
