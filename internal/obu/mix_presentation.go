package obu

import "github.com/linuxmatters/iamfkit/internal/ierr"

// RenderingConfig carries a sub-mix element's headphones rendering mode and
// an opaque, byte-preserved extension.
type RenderingConfig struct {
	HeadphonesRenderingMode HeadphonesRenderingMode
	Extension               []byte
}

// SubMixElement is one audio element attached to a sub-mix, together with
// its rendering config and element-level mix gain.
type SubMixElement struct {
	AudioElementID                   uint64
	LocalizedElementAnnotations      []string // parallel to the mix's annotations_language
	RenderingConfig                  RenderingConfig
	ElementMixGain                   *ParamDefinition // Type == ParamMixGain
}

// AnchoredLoudnessElement is one entry of an anchored-loudness list.
type AnchoredLoudnessElement struct {
	AnchorElement  uint8
	AnchoredLoudness int16
}

const (
	loudnessInfoTruePeak         = 0x1
	loudnessInfoAnchoredLoudness = 0x2
	loudnessInfoExtension4       = 0x4
	loudnessInfoExtension64      = 0x40
)

// LoudnessInfo is the loudness measurement attached to one layout (§3.5).
type LoudnessInfo struct {
	InfoType           uint8
	IntegratedLoudness int16
	DigitalPeak        int16
	TruePeak           int16 // valid iff InfoType&TruePeak
	AnchoredLoudness   []AnchoredLoudnessElement
	LayoutExtension    []byte
}

func (l *LoudnessInfo) write(w *Writer) error {
	w.U8(l.InfoType)
	w.I16(l.IntegratedLoudness)
	w.I16(l.DigitalPeak)
	if l.InfoType&loudnessInfoTruePeak != 0 {
		w.I16(l.TruePeak)
	}
	if l.InfoType&loudnessInfoAnchoredLoudness != 0 {
		w.U8(uint8(len(l.AnchoredLoudness)))
		for _, a := range l.AnchoredLoudness {
			w.U8(a.AnchorElement)
			w.I16(a.AnchoredLoudness)
		}
	}
	if l.InfoType&(loudnessInfoExtension4|loudnessInfoExtension64) != 0 {
		if err := w.Uleb128(uint64(len(l.LayoutExtension))); err != nil {
			return err
		}
		w.Bytes(l.LayoutExtension)
	}
	return nil
}

func readLoudnessInfo(r *Reader) (*LoudnessInfo, error) {
	l := &LoudnessInfo{}
	var err error
	if l.InfoType, err = r.U8(); err != nil {
		return nil, err
	}
	if l.IntegratedLoudness, err = r.I16(); err != nil {
		return nil, err
	}
	if l.DigitalPeak, err = r.I16(); err != nil {
		return nil, err
	}
	if l.InfoType&loudnessInfoTruePeak != 0 {
		if l.TruePeak, err = r.I16(); err != nil {
			return nil, err
		}
	}
	if l.InfoType&loudnessInfoAnchoredLoudness != 0 {
		n, err := r.U8()
		if err != nil {
			return nil, err
		}
		l.AnchoredLoudness = make([]AnchoredLoudnessElement, n)
		for i := range l.AnchoredLoudness {
			if l.AnchoredLoudness[i].AnchorElement, err = r.U8(); err != nil {
				return nil, err
			}
			if l.AnchoredLoudness[i].AnchoredLoudness, err = r.I16(); err != nil {
				return nil, err
			}
		}
	}
	if l.InfoType&(loudnessInfoExtension4|loudnessInfoExtension64) != 0 {
		n, err := r.Uleb128()
		if err != nil {
			return nil, err
		}
		if l.LayoutExtension, err = r.Bytes(int(n)); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Layout is the loudness-layout tagged union: loudspeakers-SS-convention or
// binaural.
type Layout struct {
	Kind        LayoutKind
	SoundSystem SoundSystem // valid iff Kind == LayoutKindLoudspeakersSsConvention
}

// SubMixLayout pairs one loudness layout with its measured loudness info.
type SubMixLayout struct {
	Layout       Layout
	LoudnessInfo LoudnessInfo
}

// SubMix is one rendering group within a mix presentation (§3.5).
type SubMix struct {
	Elements      []SubMixElement
	OutputMixGain ParamDefinition // Type == ParamMixGain
	Layouts       []SubMixLayout
}

// MixPresentationTag is one {tag_name, tag_value} pair.
type MixPresentationTag struct {
	TagName  string
	TagValue string
}

const buildInformationTagName = "iamfkit_build_information"

// MixPresentation is a fully-populated mix-presentation record (§3.5).
type MixPresentation struct {
	MixPresentationID              uint64
	AnnotationsLanguage            []string
	LocalizedPresentationAnnotations []string
	SubMixes                       []SubMix
	Tags                           []MixPresentationTag // nil means no tags block
}

// Write emits the record's payload.
func (m *MixPresentation) Write(gen LebGenerator) ([]byte, error) {
	if len(m.AnnotationsLanguage) != len(m.LocalizedPresentationAnnotations) {
		return nil, ierr.InvalidArgument("annotations_language length %d != localized_presentation_annotations length %d", len(m.AnnotationsLanguage), len(m.LocalizedPresentationAnnotations))
	}
	if len(m.Tags) > 255 {
		return nil, ierr.InvalidArgument("mix presentation tags count %d exceeds 255", len(m.Tags))
	}
	w := NewWriter(gen)
	if err := w.Uleb128(m.MixPresentationID); err != nil {
		return nil, err
	}
	if err := w.Uleb128(uint64(len(m.AnnotationsLanguage))); err != nil {
		return nil, err
	}
	for i, lang := range m.AnnotationsLanguage {
		writeString(w, lang)
		writeString(w, m.LocalizedPresentationAnnotations[i])
	}
	if err := w.Uleb128(uint64(len(m.SubMixes))); err != nil {
		return nil, err
	}
	for i := range m.SubMixes {
		if err := writeSubMix(w, &m.SubMixes[i], len(m.AnnotationsLanguage)); err != nil {
			return nil, err
		}
	}
	if m.Tags == nil {
		w.U8(0)
	} else {
		w.U8(1)
		if err := w.Uleb128(uint64(len(m.Tags))); err != nil {
			return nil, err
		}
		for _, t := range m.Tags {
			writeString(w, t.TagName)
			writeString(w, t.TagValue)
		}
	}
	return w.Done(), nil
}

// WithBuildInformationTag returns a copy of m with a build-information tag
// appended, failing if that would exceed 255 tags (§4.4).
func (m MixPresentation) WithBuildInformationTag(version string) (MixPresentation, error) {
	if m.Tags == nil {
		m.Tags = []MixPresentationTag{}
	}
	if len(m.Tags)+1 > 255 {
		return m, ierr.InvalidArgument("appending build_information tag would exceed 255 tags")
	}
	m.Tags = append(append([]MixPresentationTag{}, m.Tags...), MixPresentationTag{TagName: buildInformationTagName, TagValue: version})
	return m, nil
}

func writeSubMix(w *Writer, s *SubMix, annotationCount int) error {
	if err := w.Uleb128(uint64(len(s.Elements))); err != nil {
		return err
	}
	for i := range s.Elements {
		e := &s.Elements[i]
		if len(e.LocalizedElementAnnotations) != annotationCount {
			return ierr.InvalidArgument("localized_element_annotations length %d != count_label %d", len(e.LocalizedElementAnnotations), annotationCount)
		}
		if err := w.Uleb128(e.AudioElementID); err != nil {
			return err
		}
		for _, a := range e.LocalizedElementAnnotations {
			writeString(w, a)
		}
		w.U8(byte(e.RenderingConfig.HeadphonesRenderingMode))
		if err := w.Uleb128(uint64(len(e.RenderingConfig.Extension))); err != nil {
			return err
		}
		w.Bytes(e.RenderingConfig.Extension)
		if e.ElementMixGain == nil {
			return ierr.InvalidArgument("sub-mix element missing element_mix_gain")
		}
		if e.ElementMixGain.Type != ParamMixGain {
			return ierr.InvalidArgument("element_mix_gain must be a MixGain parameter definition")
		}
		if err := e.ElementMixGain.Write(w); err != nil {
			return err
		}
	}
	if s.OutputMixGain.Type != ParamMixGain {
		return ierr.InvalidArgument("output_mix_gain must be a MixGain parameter definition")
	}
	if err := s.OutputMixGain.Write(w); err != nil {
		return err
	}
	if len(s.Layouts) == 0 {
		return ierr.InvalidArgument("sub-mix must declare at least one layout")
	}
	w.U8(uint8(len(s.Layouts)))
	for _, l := range s.Layouts {
		w.U8(byte(l.Layout.Kind)<<6 | byte(l.Layout.SoundSystem))
		if err := l.LoudnessInfo.write(w); err != nil {
			return err
		}
	}
	return nil
}

func writeString(w *Writer, s string) {
	w.U8(uint8(len(s)))
	w.Bytes([]byte(s))
}

func readString(r *Reader) (string, error) {
	n, err := r.U8()
	if err != nil {
		return "", err
	}
	b, err := r.Bytes(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ParseMixPresentation parses exactly the payload bytes of a
// mix-presentation record.
func ParseMixPresentation(payload []byte) (*MixPresentation, error) {
	r := NewReader(payload)
	m := &MixPresentation{}
	var err error
	if m.MixPresentationID, err = r.Uleb128(); err != nil {
		return nil, err
	}
	countLabel, err := r.Uleb128()
	if err != nil {
		return nil, err
	}
	for i := uint64(0); i < countLabel; i++ {
		lang, err := readString(r)
		if err != nil {
			return nil, err
		}
		annot, err := readString(r)
		if err != nil {
			return nil, err
		}
		m.AnnotationsLanguage = append(m.AnnotationsLanguage, lang)
		m.LocalizedPresentationAnnotations = append(m.LocalizedPresentationAnnotations, annot)
	}
	numSubMixes, err := r.Uleb128()
	if err != nil {
		return nil, err
	}
	for i := uint64(0); i < numSubMixes; i++ {
		sm, err := readSubMix(r, int(countLabel))
		if err != nil {
			return nil, err
		}
		m.SubMixes = append(m.SubMixes, *sm)
	}
	hasTags, err := r.U8()
	if err != nil {
		return nil, err
	}
	if hasTags != 0 {
		numTags, err := r.Uleb128()
		if err != nil {
			return nil, err
		}
		m.Tags = make([]MixPresentationTag, numTags)
		for i := range m.Tags {
			if m.Tags[i].TagName, err = readString(r); err != nil {
				return nil, err
			}
			if m.Tags[i].TagValue, err = readString(r); err != nil {
				return nil, err
			}
		}
	}
	if err := r.Exhausted(); err != nil {
		return nil, err
	}
	return m, nil
}

func readSubMix(r *Reader, annotationCount int) (*SubMix, error) {
	s := &SubMix{}
	numElements, err := r.Uleb128()
	if err != nil {
		return nil, err
	}
	s.Elements = make([]SubMixElement, numElements)
	for i := range s.Elements {
		e := &s.Elements[i]
		if e.AudioElementID, err = r.Uleb128(); err != nil {
			return nil, err
		}
		e.LocalizedElementAnnotations = make([]string, annotationCount)
		for j := range e.LocalizedElementAnnotations {
			if e.LocalizedElementAnnotations[j], err = readString(r); err != nil {
				return nil, err
			}
		}
		modeByte, err := r.U8()
		if err != nil {
			return nil, err
		}
		e.RenderingConfig.HeadphonesRenderingMode = HeadphonesRenderingMode(modeByte)
		extLen, err := r.Uleb128()
		if err != nil {
			return nil, err
		}
		if e.RenderingConfig.Extension, err = r.Bytes(int(extLen)); err != nil {
			return nil, err
		}
		pd, err := ReadParamDefinition(r)
		if err != nil {
			return nil, err
		}
		if pd.Type != ParamMixGain {
			return nil, ierr.MalformedObu("sub-mix element_mix_gain has non-MixGain type %d", pd.Type)
		}
		e.ElementMixGain = pd
	}
	outGain, err := ReadParamDefinition(r)
	if err != nil {
		return nil, err
	}
	if outGain.Type != ParamMixGain {
		return nil, ierr.MalformedObu("sub-mix output_mix_gain has non-MixGain type %d", outGain.Type)
	}
	s.OutputMixGain = *outGain
	numLayouts, err := r.U8()
	if err != nil {
		return nil, err
	}
	if numLayouts == 0 {
		return nil, ierr.MalformedObu("sub-mix declares zero layouts")
	}
	s.Layouts = make([]SubMixLayout, numLayouts)
	for i := range s.Layouts {
		b, err := r.U8()
		if err != nil {
			return nil, err
		}
		s.Layouts[i].Layout = Layout{Kind: LayoutKind(b >> 6), SoundSystem: SoundSystem(b & 0x3F)}
		li, err := readLoudnessInfo(r)
		if err != nil {
			return nil, err
		}
		s.Layouts[i].LoudnessInfo = *li
	}
	return s, nil
}

// CheckProfileCardinality enforces §3.5's profile compatibility rule: each
// sub-mix's set of distinct referenced audio elements must fit within the
// declared profile's cardinality limit.
func CheckProfileCardinality(m *MixPresentation, profile Profile) error {
	limit := profile.MaxAudioElements()
	for i, sm := range m.SubMixes {
		seen := make(map[uint64]struct{})
		for _, e := range sm.Elements {
			seen[e.AudioElementID] = struct{}{}
		}
		if len(seen) > limit {
			return ierr.InvalidArgument("sub-mix %d references %d distinct audio elements, exceeding profile limit %d", i, len(seen), limit)
		}
	}
	return nil
}
