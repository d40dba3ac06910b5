// Package mixpresentation implements the Mix-Presentation Generator (§D):
// user metadata → wire MixPresentation records, resolving deprecated-field
// precedence and the tags/build-information/profile-cardinality rules.
//
// Grounded on
// _examples/original_source/iamf/cli/mix_presentation_finalizer.h.
package mixpresentation

import (
	"strconv"

	"github.com/linuxmatters/iamfkit/internal/ierr"
	"github.com/linuxmatters/iamfkit/internal/metadata"
	"github.com/linuxmatters/iamfkit/internal/obu"
)

const buildInformationVersion = "iamfkit/1"

// Generate builds one MixPresentation per metadata item, enforcing
// deprecated-field precedence, the tags/build-information rule, and the
// declared profile's cardinality limit on every sub-mix.
func Generate(appendBuildInformation bool, items []metadata.MixPresentationMetadata, profile obu.Profile) ([]*obu.MixPresentation, error) {
	var out []*obu.MixPresentation
	for _, item := range items {
		mp, err := buildOne(appendBuildInformation, item)
		if err != nil {
			return nil, err
		}
		if err := obu.CheckProfileCardinality(mp, profile); err != nil {
			return nil, err
		}
		out = append(out, mp)
	}
	return out, nil
}

func buildOne(appendBuildInformation bool, item metadata.MixPresentationMetadata) (*obu.MixPresentation, error) {
	lang, annot := resolveAnnotations(item)
	if len(lang) != len(annot) {
		return nil, ierr.InvalidArgument("mix presentation %d: annotations_language length %d != localized_presentation_annotations length %d", item.MixPresentationID, len(lang), len(annot))
	}
	mp := &obu.MixPresentation{
		MixPresentationID:                 item.MixPresentationID,
		AnnotationsLanguage:                lang,
		LocalizedPresentationAnnotations: annot,
	}
	for _, sm := range item.SubMixes {
		built, err := buildSubMix(item.MixPresentationID, sm, len(lang))
		if err != nil {
			return nil, err
		}
		mp.SubMixes = append(mp.SubMixes, *built)
	}

	if item.IncludeTags {
		mp.Tags = make([]obu.MixPresentationTag, 0, len(item.Tags))
		for _, t := range item.Tags {
			mp.Tags = append(mp.Tags, obu.MixPresentationTag{TagName: t.TagName, TagValue: t.TagValue})
		}
	}
	if appendBuildInformation {
		if mp.Tags == nil {
			mp.Tags = []obu.MixPresentationTag{}
		}
		built, err := mp.WithBuildInformationTag(buildInformationVersion)
		if err != nil {
			return nil, ierr.Wrap(err, "mix presentation "+strconv.FormatUint(item.MixPresentationID, 10))
		}
		*mp = built
	}
	return mp, nil
}

// resolveAnnotations applies §4.4's deprecated-field precedence: the modern
// fields win when both are present; otherwise whichever is present is used.
func resolveAnnotations(item metadata.MixPresentationMetadata) ([]string, []string) {
	if len(item.AnnotationsLanguage) > 0 || len(item.LocalizedPresentationAnnotations) > 0 {
		return item.AnnotationsLanguage, item.LocalizedPresentationAnnotations
	}
	return item.DeprecatedLanguageLabels, item.DeprecatedMixPresentationAnnotationsArray
}

func buildSubMix(mixID uint64, sm metadata.SubMixMetadata, annotationCount int) (*obu.SubMix, error) {
	out := &obu.SubMix{}
	for _, e := range sm.Elements {
		if len(e.LocalizedElementAnnotations) != annotationCount {
			return nil, ierr.InvalidArgument("mix presentation %d: sub-mix element %d localized_element_annotations length %d != count_label %d", mixID, e.AudioElementID, len(e.LocalizedElementAnnotations), annotationCount)
		}
		gain := e.ElementMixGain
		if gain == nil {
			gain = e.DeprecatedElementMixConfigGain
		}
		if gain == nil {
			return nil, ierr.InvalidArgument("mix presentation %d: sub-mix element %d missing element_mix_gain", mixID, e.AudioElementID)
		}
		out.Elements = append(out.Elements, obu.SubMixElement{
			AudioElementID:              e.AudioElementID,
			LocalizedElementAnnotations: append([]string{}, e.LocalizedElementAnnotations...),
			RenderingConfig: obu.RenderingConfig{
				HeadphonesRenderingMode: e.HeadphonesRenderingMode,
				Extension:               e.RenderingConfigExtension,
			},
			ElementMixGain: &obu.ParamDefinition{
				Type:    obu.ParamMixGain,
				MixGain: &obu.MixGainParamDefinitionData{DefaultMixGain: *gain},
			},
		})
	}

	outGain := sm.OutputMixGain
	if outGain == nil {
		outGain = sm.DeprecatedOutputMixConfigGain
	}
	if outGain == nil {
		return nil, ierr.InvalidArgument("mix presentation %d: sub-mix missing output_mix_gain", mixID)
	}
	out.OutputMixGain = obu.ParamDefinition{
		Type:    obu.ParamMixGain,
		MixGain: &obu.MixGainParamDefinitionData{DefaultMixGain: *outGain},
	}

	if len(sm.Layouts) == 0 {
		return nil, ierr.InvalidArgument("mix presentation %d: sub-mix must declare at least one layout", mixID)
	}
	for _, l := range sm.Layouts {
		li, err := copyLoudnessInfo(mixID, l.LoudnessInfo)
		if err != nil {
			return nil, err
		}
		out.Layouts = append(out.Layouts, obu.SubMixLayout{
			Layout:       obu.Layout{Kind: l.Kind, SoundSystem: l.SoundSystem},
			LoudnessInfo: *li,
		})
	}
	return out, nil
}

// copyLoudnessInfo is copy_user_integrated_loudness_and_peaks +
// copy_user_anchored_loudness + copy_user_layout_extension combined (§4.4).
// It fails only when info_type declares TruePeak and no true_peak is
// supplied; anchored-loudness entries and layout-extension bytes are copied
// as given when their bits are set, with no further checks.
func copyLoudnessInfo(mixID uint64, m metadata.LoudnessInfoMetadata) (*obu.LoudnessInfo, error) {
	out := &obu.LoudnessInfo{
		InfoType:           m.InfoType,
		IntegratedLoudness: m.IntegratedLoudness,
		DigitalPeak:        m.DigitalPeak,
	}
	const truePeakBit = 0x1
	const anchoredBit = 0x2
	const extBits = 0x4 | 0x40
	if m.InfoType&truePeakBit != 0 {
		if m.TruePeak == nil {
			return nil, ierr.InvalidArgument("mix presentation %d: info_type declares TruePeak but no true_peak supplied", mixID)
		}
		out.TruePeak = *m.TruePeak
	}
	if m.InfoType&anchoredBit != 0 {
		for _, a := range m.AnchoredLoudness {
			out.AnchoredLoudness = append(out.AnchoredLoudness, obu.AnchoredLoudnessElement{
				AnchorElement:    a.AnchorElement,
				AnchoredLoudness: a.AnchoredLoudness,
			})
		}
	}
	if m.InfoType&extBits != 0 {
		out.LayoutExtension = m.LayoutExtension
	}
	return out, nil
}
