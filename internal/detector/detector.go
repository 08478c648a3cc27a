package detector

import (
	"strings"

	lingua "github.com/pemistahl/lingua-go"

	"github.com/valpere/lexpure/internal/script"
)

// Detector guesses the language of a text among a fixed set of candidates.
// A nil underlying detector (fewer than two usable candidates) never decides.
type Detector struct {
	detector lingua.LanguageDetector
}

// New builds a detector restricted to langs. Codes lingua does not know are
// ignored.
func New(langs []script.Language) *Detector {
	var candidates []lingua.Language
	for _, l := range lingua.AllLanguages() {
		code := script.Language(strings.ToLower(l.IsoCode639_1().String()))
		for _, want := range langs {
			if code == want {
				candidates = append(candidates, l)
				break
			}
		}
	}
	if len(candidates) < 2 {
		return &Detector{}
	}

	detector := lingua.NewLanguageDetectorBuilder().
		FromLanguages(candidates...).
		WithMinimumRelativeDistance(0.1).
		Build()

	return &Detector{detector: detector}
}

func (d *Detector) Detect(text string) (lingua.Language, bool) {
	if d.detector == nil || strings.TrimSpace(text) == "" {
		return lingua.Unknown, false
	}
	return d.detector.DetectLanguageOf(text)
}

// DetectISO returns the ISO 639-1 code of the detected language.
func (d *Detector) DetectISO(text string) (script.Language, bool) {
	lang, ok := d.Detect(text)
	if !ok {
		return script.Unknown, false
	}
	return script.Language(strings.ToLower(lang.IsoCode639_1().String())), true
}
