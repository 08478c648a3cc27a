package orchestrator

import (
	"github.com/valpere/lexpure/internal"
)

// SameLanguage reports whether unit is already in its target language. A
// known source is compared directly. An unknown source counts as the target
// only when every letter is in the target's script and either the detector
// names the target or, when it cannot decide, no other configured language
// shares that script. Text without letters is neutral and always passes.
func (o *Orchestrator) SameLanguage(unit internal.ContentUnit) bool {
	if unit.SourceLanguage != "" {
		return unit.SourceLanguage == unit.TargetLanguage
	}

	profile := o.classifier.Classify(unit.RawText)
	if profile.Letters == 0 {
		return true
	}
	if o.classifier.PurityOf(profile, unit.TargetLanguage) < 100 {
		return false
	}

	if o.detector != nil {
		if lang, ok := o.detector.DetectISO(unit.RawText); ok {
			return lang == unit.TargetLanguage
		}
	}
	return o.uniqueFamily(unit)
}

func (o *Orchestrator) uniqueFamily(unit internal.ContentUnit) bool {
	family, ok := o.classifier.FamilyOf(unit.TargetLanguage)
	if !ok {
		return false
	}
	for _, l := range o.languages {
		if l == unit.TargetLanguage {
			continue
		}
		if f, ok := o.classifier.FamilyOf(l); ok && f == family {
			return false
		}
	}
	return true
}
