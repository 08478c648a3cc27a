// Package chunker splits long legal documents into pieces a provider can
// translate in one call, cutting at paragraph, sentence or word boundaries,
// and extracts the sliding-window context passed along with the next piece.
package chunker

import (
	"strings"
	"unicode"
)

// DefaultContextWords is the window ExtractContext uses when given a
// non-positive word count.
const DefaultContextWords = 25

// sentenceEnd holds the sentence terminators recognised for both Latin and
// Arabic script text.
var sentenceEnd = map[rune]bool{
	'.': true, '!': true, '?': true, '…': true,
	'؟': true, // Arabic question mark
	'۔': true, // Arabic full stop
	'؛': true, // Arabic semicolon, ends clauses in legal prose
}

// Chunk splits text into trimmed pieces of at most maxChars runes. Cuts are
// made, in order of preference, after a blank line, after sentence-ending
// punctuation followed by whitespace, at whitespace, or hard at maxChars.
// maxChars <= 0 disables chunking.
func Chunk(text string, maxChars int) []string {
	runes := []rune(text)
	if maxChars <= 0 || len(runes) <= maxChars {
		return []string{text}
	}

	var chunks []string
	for len(runes) > maxChars {
		cut := findCut(runes[:maxChars+1])
		if piece := strings.TrimSpace(string(runes[:cut])); piece != "" {
			chunks = append(chunks, piece)
		}
		runes = trimLeftSpace(runes[cut:])
	}
	if piece := strings.TrimSpace(string(runes)); piece != "" {
		chunks = append(chunks, piece)
	}
	return chunks
}

// findCut returns the rune index at which to cut window. window holds one
// rune more than the limit so a boundary right at the limit is visible.
func findCut(window []rune) int {
	limit := len(window) - 1

	for i := limit - 1; i > 0; i-- {
		if window[i] == '\n' && isBlankLineEnd(window[:i]) {
			return i + 1
		}
	}
	for i := limit - 1; i > 0; i-- {
		if sentenceEnd[window[i]] && unicode.IsSpace(window[i+1]) {
			return i + 1
		}
	}
	for i := limit; i > 0; i-- {
		if unicode.IsSpace(window[i]) {
			return i
		}
	}
	return limit
}

// isBlankLineEnd reports whether prefix ends with a line break, so that the
// line break following it closes an empty line. CRLF input is accepted.
func isBlankLineEnd(prefix []rune) bool {
	n := len(prefix)
	if n > 0 && prefix[n-1] == '\n' {
		return true
	}
	return n > 1 && prefix[n-1] == '\r' && prefix[n-2] == '\n'
}

func trimLeftSpace(r []rune) []rune {
	for len(r) > 0 && unicode.IsSpace(r[0]) {
		r = r[1:]
	}
	return r
}

// ExtractContext returns the last wordCount words of text joined by single
// spaces, or the whole trimmed text when it is shorter.
func ExtractContext(text string, wordCount int) string {
	if wordCount <= 0 {
		wordCount = DefaultContextWords
	}
	words := strings.Fields(text)
	if len(words) <= wordCount {
		return strings.TrimSpace(text)
	}
	return strings.Join(words[len(words)-wordCount:], " ")
}
