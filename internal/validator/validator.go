// Package validator checks that accepted provider output is written in the
// requested language, not only in its script.
package validator

import (
	"fmt"
	"strings"

	"github.com/valpere/lexpure/internal/detector"
	"github.com/valpere/lexpure/internal/script"
)

// MinLength is the minimum rune count required to attempt language detection.
// Shorter texts produce unreliable results and are accepted without validation.
const MinLength = 20

// MismatchError reports output detected as another configured language.
type MismatchError struct {
	Expected script.Language
	Detected script.Language
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("expected %s but detected %s", e.Expected, e.Detected)
}

// Validator checks output language with a shared detector. The detector is
// expensive to build; reuse the instance.
type Validator struct {
	det *detector.Detector
}

func New(det *detector.Detector) *Validator {
	return &Validator{det: det}
}

// Check returns a *MismatchError when text is detected as a language other
// than target. Empty targets, short texts, and texts whose language cannot
// be determined pass.
func (v *Validator) Check(text string, target script.Language) error {
	if v == nil || v.det == nil || target == script.Unknown {
		return nil
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("output is empty")
	}
	if len([]rune(text)) < MinLength {
		return nil
	}

	detected, ok := v.det.DetectISO(text)
	if !ok {
		return nil
	}
	if detected != target {
		return &MismatchError{Expected: target, Detected: detected}
	}
	return nil
}
