// Package placeholder shields structured content (code, markup, URLs,
// e-mail addresses) from providers by swapping it for numbered markers
// before the call and putting it back afterwards.
//
// Markers use mathematical white square brackets around digits, ⟦0⟧, ⟦1⟧, …
// They contain no letters, so a marker a provider fails to consume never
// counts against the purity of the output.
package placeholder

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	reFencedCode = regexp.MustCompile("(?s)```.*?```")
	reInlineCode = regexp.MustCompile("`[^`\n]+`")
	reHTMLTag    = regexp.MustCompile(`</?[A-Za-z][^<>]*>`)
	reURL        = regexp.MustCompile(`https?://[^\s<>"'«»]+[^\s<>"'«».,;:!?)]`)
	reEmail      = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

	reMarker = regexp.MustCompile(`⟦(\d+)⟧`)
)

// protected lists the patterns in the order they are applied; longer
// constructs first so inner matches are not split.
var protected = []*regexp.Regexp{reFencedCode, reInlineCode, reHTMLTag, reURL, reEmail}

func marker(i int) string { return fmt.Sprintf("⟦%d⟧", i) }

// Protect replaces structured content with markers numbered in the order
// they are created. It returns the rewritten text and the originals.
func Protect(text string) (string, []string) {
	var originals []string
	replace := func(match string) string {
		originals = append(originals, match)
		return marker(len(originals) - 1)
	}
	for _, re := range protected {
		text = re.ReplaceAllStringFunc(text, replace)
	}
	return text, originals
}

// Restore puts the originals back. Unknown indices are left untouched.
func Restore(text string, originals []string) string {
	if len(originals) == 0 {
		return text
	}
	return reMarker.ReplaceAllStringFunc(text, func(m string) string {
		sub := reMarker.FindStringSubmatch(m)
		idx, err := strconv.Atoi(sub[1])
		if err != nil || idx < 0 || idx >= len(originals) {
			return m
		}
		return originals[idx]
	})
}

// Missing returns the indices of markers absent from text.
func Missing(text string, originals []string) []int {
	var missing []int
	for i := range originals {
		if !strings.Contains(text, marker(i)) {
			missing = append(missing, i)
		}
	}
	return missing
}

// InstructionHint is appended to LLM prompts when markers are present.
func InstructionHint() string {
	return "Keep every ⟦n⟧ marker exactly as it appears; do not translate, move or remove it."
}
