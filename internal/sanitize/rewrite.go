package sanitize

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/valpere/lexpure/internal/script"
)

type match struct {
	start, end int
	rule       int
}

// applyPatterns runs every pattern rule over text in a single pass. Longer
// matches win over shorter overlapping ones; equal lengths go to the rule
// declared first.
func (s *Sanitizer) applyPatterns(text string, lang script.Language) (string, []string) {
	if len(s.patterns) == 0 {
		return text, nil
	}

	var candidates []match
	for i, r := range s.patterns {
		for _, loc := range r.re.FindAllStringIndex(text, -1) {
			if loc[0] < loc[1] {
				candidates = append(candidates, match{start: loc[0], end: loc[1], rule: i})
			}
		}
	}
	if len(candidates) == 0 {
		return text, nil
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if la, lb := a.end-a.start, b.end-b.start; la != lb {
			return la > lb
		}
		if a.rule != b.rule {
			return a.rule < b.rule
		}
		return a.start < b.start
	})

	runs := s.classifier.Runs(text, lang)
	var chosen []match
	for _, m := range candidates {
		if overlapsAny(chosen, m) || !s.eligible(text, m, lang, runs) {
			continue
		}
		chosen = append(chosen, m)
	}
	if len(chosen) == 0 {
		return text, nil
	}
	sort.Slice(chosen, func(i, j int) bool { return chosen[i].start < chosen[j].start })

	var (
		b     strings.Builder
		fired []string
		seen  = make(map[int]bool)
		prev  int
	)
	b.Grow(len(text))
	for _, m := range chosen {
		r := s.patterns[m.rule]
		b.WriteString(text[prev:m.start])
		repl := r.re.ReplaceAllString(text[m.start:m.end], r.replace)
		s.writeJoined(&b, text, m.start, m.end, repl)
		prev = m.end
		if !seen[m.rule] {
			seen[m.rule] = true
			fired = append(fired, r.name)
		}
	}
	b.WriteString(text[prev:])
	return b.String(), fired
}

func overlapsAny(chosen []match, m match) bool {
	for _, c := range chosen {
		if m.start < c.end && c.start < m.end {
			return true
		}
	}
	return false
}

// eligible reports whether a pattern match may be rewritten: it holds at
// least one and at most N foreign letters, no target letter, and does not
// touch a refused run.
func (s *Sanitizer) eligible(text string, m match, lang script.Language, runs []script.Run) bool {
	foreign := 0
	for _, r := range text[m.start:m.end] {
		switch {
		case s.classifier.IsTargetLetter(r, lang):
			return false
		case s.classifier.IsLetter(r):
			foreign++
		}
	}
	if foreign == 0 || foreign > s.maxRun {
		return false
	}
	for _, run := range runs {
		if run.Letters > s.maxRun && m.start < run.End && run.Start < m.end {
			return false
		}
	}
	return true
}

// removeRuns deletes contamination runs of at most N foreign letters that
// sit between target letters, and reports how many were removed and how many
// were refused for exceeding N. Runs at the start or end of the text are not
// embedded in anything and are left alone.
func (s *Sanitizer) removeRuns(text string, lang script.Language) (string, int, int) {
	runs := s.classifier.Runs(text, lang)
	first, last := s.targetBounds(text, lang)
	var (
		b                strings.Builder
		prev             int
		removed, refused int
	)
	b.Grow(len(text))
	for _, run := range runs {
		if run.Letters > s.maxRun {
			refused++
			continue
		}
		if first < 0 || run.Start < first || run.End > last {
			continue
		}
		b.WriteString(text[prev:run.Start])
		s.writeJoined(&b, text, run.Start, run.End, "")
		prev = run.End
		removed++
	}
	if removed == 0 {
		return text, 0, refused
	}
	b.WriteString(text[prev:])
	return b.String(), removed, refused
}

// targetBounds returns the byte offsets of the first and last target letter
// in text, or -1, -1 when there is none.
func (s *Sanitizer) targetBounds(text string, lang script.Language) (first, last int) {
	first, last = -1, -1
	for i, r := range text {
		if s.classifier.IsTargetLetter(r, lang) {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	return first, last
}

// writeJoined writes the replacement for text[start:end]. When the
// replacement is empty and the removed span sat directly between two
// letters, a single space keeps the neighbours from fusing into one word.
func (s *Sanitizer) writeJoined(b *strings.Builder, text string, start, end int, repl string) {
	if repl != "" {
		b.WriteString(repl)
		return
	}
	before, _ := utf8.DecodeLastRuneInString(text[:start])
	after, _ := utf8.DecodeRuneInString(text[end:])
	if start > 0 && end < len(text) && s.classifier.IsLetter(before) && s.classifier.IsLetter(after) {
		b.WriteByte(' ')
	}
}

var (
	emptyPairs     = regexp.MustCompile(`\(\s*\)|\[\s*\]|\{\s*\}|«\s*»`)
	spaceBeforeEnd = regexp.MustCompile(`[ \t]+([.,،)\]}])`)
	horizontalWS   = regexp.MustCompile(`[ \t\p{Zs}]+`)
	trailingWS     = regexp.MustCompile(`[ \t]+\n`)
	blankLineRuns  = regexp.MustCompile(`\n{3,}`)
	edgeSeparators = regexp.MustCompile(`^[\s:;\-\x{2013}\x{2014}،؛]+|[\s:;\-\x{2013}\x{2014}،؛]+$`)
)

// dropEmptyPairs removes brackets emptied by a rewrite along with the
// space a removal left in front of closing punctuation.
func dropEmptyPairs(text string) string {
	for {
		next := emptyPairs.ReplaceAllString(text, "")
		if next == text {
			break
		}
		text = next
	}
	return spaceBeforeEnd.ReplaceAllString(text, "$1")
}

// trimSeparators drops colons, dashes and semicolons a rewrite left dangling
// at either end of the text.
func trimSeparators(text string) string {
	return edgeSeparators.ReplaceAllString(text, "")
}

// normalizeSpace collapses horizontal whitespace to one space and keeps at
// most one blank line between paragraphs.
func normalizeSpace(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = horizontalWS.ReplaceAllString(text, " ")
	text = trailingWS.ReplaceAllString(text, "\n")
	text = blankLineRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
