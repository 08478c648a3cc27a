package script

import "unicode/utf8"

// Run is a contamination run: a span of text that starts and ends with a
// letter foreign to the target language and contains no target letter.
// Neutral characters between foreign letters belong to the run.
type Run struct {
	Start   int // byte offset of the first foreign letter
	End     int // byte offset just past the last foreign letter
	Letters int // foreign letters in the run
}

// Len returns the byte length of the run.
func (r Run) Len() int { return r.End - r.Start }

// Runs returns the contamination runs of text relative to lang, in order.
// When lang has no known family every letter is foreign.
func (c *Classifier) Runs(text string, lang Language) []Run {
	target, hasTarget := c.languages[lang]

	var (
		runs []Run
		cur  Run
		open bool
	)
	for i, r := range text {
		f, letter := c.familyOfRune(r)
		switch {
		case !letter:
			continue
		case hasTarget && f == target:
			if open {
				runs = append(runs, cur)
				open = false
			}
		default:
			if !open {
				cur = Run{Start: i}
				open = true
			}
			cur.End = i + utf8.RuneLen(r)
			cur.Letters++
		}
	}
	if open {
		runs = append(runs, cur)
	}
	return runs
}

// IsTargetLetter reports whether r is a letter of lang's script family.
func (c *Classifier) IsTargetLetter(r rune, lang Language) bool {
	f, letter := c.familyOfRune(r)
	if !letter {
		return false
	}
	target, ok := c.languages[lang]
	return ok && f == target
}

// IsLetter reports whether r counts as a letter for classification.
func (c *Classifier) IsLetter(r rune) bool {
	_, letter := c.familyOfRune(r)
	return letter
}
