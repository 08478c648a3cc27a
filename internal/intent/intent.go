// Package intent maps free text to a legal topic. The topic only selects
// which fallback template is shown, so classification must hold up on the
// worst input the pipeline sees: text already mixing both scripts.
package intent

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// Category is a legal topic bucket.
type Category string

const (
	General     Category = "general"
	Witnesses   Category = "witnesses"
	Criminal    Category = "criminal"
	Family      Category = "family"
	Inheritance Category = "inheritance"
	Employment  Category = "employment"
	Property    Category = "property"
	Contract    Category = "contract"
	Procedure   Category = "procedure"
)

// Categories lists every category, General first.
func Categories() []Category {
	return []Category{General, Witnesses, Criminal, Family, Inheritance, Employment, Property, Contract, Procedure}
}

// ParseCategory validates a category name.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Categories() {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown intent category %q", s)
}

//go:embed rules.yaml
var defaultRules []byte

type ruleFile struct {
	Rules []struct {
		Category string   `yaml:"category"`
		Keywords []string `yaml:"keywords"`
	} `yaml:"rules"`
}

type keyword struct {
	text      string
	wordStart bool
	script    *unicode.RangeTable // script of the first rune, nil if unknown
}

type rule struct {
	category Category
	keywords []keyword
}

// Classifier evaluates an ordered rule list. It is immutable and safe for
// concurrent use.
type Classifier struct {
	rules []rule
}

// Default returns a classifier over the embedded rule table.
func Default() (*Classifier, error) {
	return Parse(defaultRules)
}

// LoadFile reads a rule table from path.
func LoadFile(path string) (*Classifier, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open intent rules: %w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read intent rules: %w", err)
	}
	return Parse(data)
}

// Parse builds a classifier from a YAML rule table.
func Parse(data []byte) (*Classifier, error) {
	var rf ruleFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("failed to parse intent rules: %w", err)
	}

	c := &Classifier{}
	for i, r := range rf.Rules {
		cat, err := ParseCategory(r.Category)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		if cat == General {
			return nil, fmt.Errorf("rule %d: %q is the default and cannot have keywords", i, General)
		}
		compiled := rule{category: cat}
		for _, kw := range r.Keywords {
			folded := fold(kw)
			if folded == "" {
				continue
			}
			first, _ := utf8.DecodeRuneInString(folded)
			compiled.keywords = append(compiled.keywords, keyword{
				text:      folded,
				wordStart: isCased(first),
				script:    scriptOf(first),
			})
		}
		if len(compiled.keywords) == 0 {
			return nil, fmt.Errorf("rule %d (%s) has no keywords", i, cat)
		}
		c.rules = append(c.rules, compiled)
	}
	return c, nil
}

// isCased reports whether r belongs to a script with letter case.
func isCased(r rune) bool {
	return unicode.ToUpper(r) != unicode.ToLower(r)
}

var casedScripts = []*unicode.RangeTable{
	unicode.Latin, unicode.Cyrillic, unicode.Greek, unicode.Armenian, unicode.Georgian,
}

func scriptOf(r rune) *unicode.RangeTable {
	for _, t := range casedScripts {
		if unicode.Is(t, r) {
			return t
		}
	}
	return nil
}

// startsWord reports whether a keyword beginning right after prev starts a
// word. A letter of another script glued in front does not count, so a Latin
// keyword stuck to Arabic text still matches.
func startsWord(prev rune, kw keyword) bool {
	if !unicode.IsLetter(prev) {
		return true
	}
	return kw.script != nil && !unicode.Is(kw.script, prev)
}

// Classify returns the category of the first rule with a keyword present in
// text, or General.
func (c *Classifier) Classify(text string) Category {
	normalized := Normalize(text)
	if normalized == "" {
		return General
	}
	for _, r := range c.rules {
		for _, kw := range r.keywords {
			if contains(normalized, kw) {
				return r.category
			}
		}
	}
	return General
}

func contains(text string, kw keyword) bool {
	if !kw.wordStart {
		return strings.Contains(text, kw.text)
	}
	for off := 0; off < len(text); {
		i := strings.Index(text[off:], kw.text)
		if i < 0 {
			return false
		}
		i += off
		prev, _ := utf8.DecodeLastRuneInString(text[:i])
		if i == 0 || startsWord(prev, kw) {
			return true
		}
		off = i + len(kw.text)
	}
	return false
}
