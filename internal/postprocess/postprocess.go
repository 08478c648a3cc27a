// Package postprocess strips the artifacts LLM providers wrap around a
// translation before the output reaches the quality gate.
//
// Only removals anchored to the edges of the output or delimited by explicit
// tags are performed here. Mid-sentence contamination is the sanitizer's job.
package postprocess

import (
	"regexp"
	"strings"
)

// Clean removes, in order: reasoning blocks, leading labels the model
// echoes from the prompt (in English, French or Arabic), and a pair of
// quotes wrapping the whole output.
func Clean(text string) string {
	text = removeReasoning(text)
	text = removeLeadingLabels(text)
	text = removeQuoteWrapping(text)
	return strings.TrimSpace(text)
}

// Go's RE2 has no backreferences, so each tag pair is spelled out.
var (
	reasoningBlockRe = regexp.MustCompile(
		`(?is)<thinking>.*?</thinking>|<think>.*?</think>|<reasoning>.*?</reasoning>|<reflection>.*?</reflection>`,
	)
	// an opening tag whose closing tag never came: the model was cut off
	truncatedReasoningRe = regexp.MustCompile(`(?is)(?:<thinking>|<think>|<reasoning>|<reflection>).*$`)
)

func removeReasoning(text string) string {
	text = reasoningBlockRe.ReplaceAllString(text, "")
	text = truncatedReasoningRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// leadingLabels are anchored at the start and require a colon so that a
// sentence which merely begins with "Translation" is kept.
var leadingLabels = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(?:certainly|sure|of course)[,.!]?\s+here(?:'s| is)(?: the)? (?:refined |polished |translated )?(?:translation|text)\s*:`),
	regexp.MustCompile(`(?i)^here(?:'s| is)(?: the)? (?:refined |polished |translated )?(?:translation|text)\s*:`),
	regexp.MustCompile(`(?i)^(?:the )?(?:[a-z]+ )?(?:translation|translated text)(?: \([a-z-]{2,5}\))?\s*:`),
	regexp.MustCompile(`(?i)^(?:voici )?(?:la )?traduction(?: en [a-zéèêàç]+| \([a-z-]{2,5}\))?\s*:`),
	regexp.MustCompile(`^(?:ال)?ترجمة(?:\s+\S+)?\s*[:：]`),
}

func removeLeadingLabels(text string) string {
	for _, re := range leadingLabels {
		if loc := re.FindStringIndex(text); loc != nil {
			text = strings.TrimSpace(text[loc[1]:])
		}
	}
	return text
}

// quotePairs are the outer quote pairs providers wrap whole outputs in.
var quotePairs = [][2]rune{
	{'"', '"'},
	{'\'', '\''},
	{'«', '»'},
	{'“', '”'},
	{'‘', '’'},
	{'„', '“'}, // „…“
}

func removeQuoteWrapping(text string) string {
	runes := []rune(text)
	n := len(runes)
	if n < 2 {
		return text
	}
	for _, p := range quotePairs {
		if runes[0] == p[0] && runes[n-1] == p[1] {
			inner := runes[1 : n-1]
			// «a» et «b» is two quotations, not one wrapped output
			if containsRune(inner, p[0]) && p[0] != p[1] {
				return text
			}
			return strings.TrimSpace(string(inner))
		}
	}
	return text
}

func containsRune(rs []rune, r rune) bool {
	for _, x := range rs {
		if x == r {
			return true
		}
	}
	return false
}
