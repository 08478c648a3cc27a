// Package gate decides whether a candidate text is pure enough in its target
// language to be shown for a given content type.
package gate

import (
	"fmt"
	"strings"

	"github.com/valpere/lexpure/internal"
	"github.com/valpere/lexpure/internal/script"
)

// Thresholds holds the minimum purity score per content type.
type Thresholds map[internal.ContentType]float64

// DefaultThresholds returns the built-in thresholds. Short, highly visible
// labels are held to the strictest bound.
func DefaultThresholds() Thresholds {
	return Thresholds{
		internal.UILabel:       98,
		internal.ChatMessage:   90,
		internal.LegalDocument: 85,
	}
}

// Validate checks that every content type has a threshold in (0, 100].
func (t Thresholds) Validate() error {
	for _, ct := range internal.ContentTypes() {
		v, ok := t[ct]
		if !ok {
			return fmt.Errorf("missing threshold for %s", ct)
		}
		if v <= 0 || v > 100 {
			return fmt.Errorf("threshold for %s must be in (0, 100], got %v", ct, v)
		}
	}
	return nil
}

// Verdict is the outcome of one gate evaluation.
type Verdict struct {
	Score     float64
	Threshold float64
	Accepted  bool
}

type Gate struct {
	classifier *script.Classifier
	thresholds Thresholds
}

// New returns a gate over a copy of t.
func New(c *script.Classifier, t Thresholds) (*Gate, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	cp := make(Thresholds, len(t))
	for k, v := range t {
		cp[k] = v
	}
	return &Gate{classifier: c, thresholds: cp}, nil
}

func (g *Gate) Threshold(ct internal.ContentType) float64 {
	return g.thresholds[ct]
}

// Score returns the purity of text in lang.
func (g *Gate) Score(text string, lang script.Language) float64 {
	return g.classifier.Purity(text, lang)
}

// Evaluate scores text and compares it to the threshold of ct. Blank text
// is always rejected.
func (g *Gate) Evaluate(text string, lang script.Language, ct internal.ContentType) Verdict {
	v := Verdict{Score: g.Score(text, lang), Threshold: g.Threshold(ct)}
	v.Accepted = strings.TrimSpace(text) != "" && v.Score >= v.Threshold
	return v
}

// EvaluateProfile is Evaluate for an already classified text.
func (g *Gate) EvaluateProfile(text string, p script.Profile, lang script.Language, ct internal.ContentType) Verdict {
	v := Verdict{Score: g.classifier.PurityOf(p, lang), Threshold: g.Threshold(ct)}
	v.Accepted = strings.TrimSpace(text) != "" && v.Score >= v.Threshold
	return v
}

// Accept reports whether text passes the gate.
func (g *Gate) Accept(text string, lang script.Language, ct internal.ContentType) bool {
	return g.Evaluate(text, lang, ct).Accepted
}
