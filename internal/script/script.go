// Package script measures how much of a text is written in the script
// family of a given language.
//
// Classification is a pure function of the input: letters are bucketed by
// Unicode range tables, everything that is not a letter (digits,
// punctuation, symbols, whitespace, combining marks) is neutral and takes no
// part in purity scores.
package script

import (
	"fmt"
	"sort"
	"unicode"

	"golang.org/x/text/language"
)

// Family names a group of alphabetic characters sharing a writing system.
type Family string

const (
	Latin      Family = "Latin"
	Cyrillic   Family = "Cyrillic"
	Greek      Family = "Greek"
	Arabic     Family = "Arabic"
	Hebrew     Family = "Hebrew"
	Han        Family = "Han"
	Hangul     Family = "Hangul"
	Devanagari Family = "Devanagari"
	Thai       Family = "Thai"

	// Other collects letters that belong to no registered family. They are
	// foreign to every language.
	Other Family = "Other"
)

// Language is an ISO 639-1 base language code such as "fr" or "ar".
type Language string

// Unknown is the zero Language, used when the source language is not given.
const Unknown Language = ""

func (l Language) String() string { return string(l) }

// ParseLanguage normalizes a BCP 47 tag ("fr-FR", "AR") to its base code.
func ParseLanguage(s string) (Language, error) {
	if s == "" || s == "auto" {
		return Unknown, nil
	}
	tag, err := language.Parse(s)
	if err != nil {
		return Unknown, fmt.Errorf("invalid language %q: %w", s, err)
	}
	base, _ := tag.Base()
	return Language(base.String()), nil
}

type familyTable struct {
	family Family
	table  *unicode.RangeTable
}

var defaultFamilies = []familyTable{
	{Latin, unicode.Latin},
	{Cyrillic, unicode.Cyrillic},
	{Greek, unicode.Greek},
	{Arabic, unicode.Arabic},
	{Hebrew, unicode.Hebrew},
	{Han, unicode.Han},
	{Hangul, unicode.Hangul},
	{Devanagari, unicode.Devanagari},
	{Thai, unicode.Thai},
}

var defaultLanguages = map[Language]Family{
	"en": Latin, "fr": Latin, "es": Latin, "de": Latin, "it": Latin, "pt": Latin, "nl": Latin,
	"ru": Cyrillic, "uk": Cyrillic, "bg": Cyrillic,
	"el": Greek,
	"ar": Arabic, "fa": Arabic, "ur": Arabic,
	"he": Hebrew,
	"zh": Han,
	"ko": Hangul,
	"hi": Devanagari,
	"th": Thai,
}

// Classifier buckets letters into script families. It is immutable after
// construction and safe for concurrent use.
type Classifier struct {
	families  []familyTable
	languages map[Language]Family
}

// Option customizes a Classifier.
type Option func(*Classifier)

// WithFamily registers an additional script family. Families are matched
// in registration order, built-ins first.
func WithFamily(f Family, table *unicode.RangeTable) Option {
	return func(c *Classifier) {
		c.families = append(c.families, familyTable{family: f, table: table})
	}
}

// WithLanguage maps a language to a script family, overriding any built-in
// mapping for that language.
func WithLanguage(lang Language, f Family) Option {
	return func(c *Classifier) {
		c.languages[lang] = f
	}
}

// NewClassifier returns a classifier with the built-in families and
// language mapping plus any options.
func NewClassifier(opts ...Option) *Classifier {
	c := &Classifier{
		families:  append([]familyTable(nil), defaultFamilies...),
		languages: make(map[Language]Family, len(defaultLanguages)),
	}
	for l, f := range defaultLanguages {
		c.languages[l] = f
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FamilyOf returns the script family of lang.
func (c *Classifier) FamilyOf(lang Language) (Family, bool) {
	f, ok := c.languages[lang]
	return f, ok
}

// Supports reports whether lang has a known script family.
func (c *Classifier) Supports(lang Language) bool {
	_, ok := c.languages[lang]
	return ok
}

// Languages returns the languages sharing family f, sorted.
func (c *Classifier) Languages(f Family) []Language {
	var out []Language
	for l, lf := range c.languages {
		if lf == f {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// familyOfRune returns the family of r and whether r is a letter at all.
func (c *Classifier) familyOfRune(r rune) (Family, bool) {
	if r < utf8RuneSelf {
		if ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') {
			return Latin, true
		}
		return "", false
	}
	if !unicode.IsLetter(r) {
		return "", false
	}
	for _, ft := range c.families {
		if unicode.Is(ft.table, r) {
			return ft.family, true
		}
	}
	return Other, true
}

const utf8RuneSelf = 0x80

// Profile is the per-family letter census of a text.
type Profile struct {
	Counts   map[Family]int
	Neutral  int
	Letters  int
	Dominant Family
}

// Classify counts the letters of text by script family.
func (c *Classifier) Classify(text string) Profile {
	p := Profile{Counts: make(map[Family]int)}
	for _, r := range text {
		f, ok := c.familyOfRune(r)
		if !ok {
			p.Neutral++
			continue
		}
		p.Counts[f]++
		p.Letters++
	}
	p.Dominant = c.dominant(p.Counts)
	return p
}

// dominant picks the family with the most letters; ties go to the family
// registered first, Other last.
func (c *Classifier) dominant(counts map[Family]int) Family {
	var best Family
	bestN := 0
	for _, ft := range c.families {
		if n := counts[ft.family]; n > bestN {
			best, bestN = ft.family, n
		}
	}
	if n := counts[Other]; n > bestN {
		best = Other
	}
	return best
}

// Share returns the percentage of letters in family f. A profile without
// letters is vacuously pure: Share is 100 for every family.
func (p Profile) Share(f Family) float64 {
	if p.Letters == 0 {
		return 100
	}
	return 100 * float64(p.Counts[f]) / float64(p.Letters)
}

// Foreign returns the number of letters outside family f.
func (p Profile) Foreign(f Family) int {
	return p.Letters - p.Counts[f]
}

// PurityOf returns the purity of an already computed profile for lang.
// Languages without a family score 0 unless the profile has no letters.
func (c *Classifier) PurityOf(p Profile, lang Language) float64 {
	if p.Letters == 0 {
		return 100
	}
	f, ok := c.languages[lang]
	if !ok {
		return 0
	}
	return p.Share(f)
}

// Purity returns the percentage of the letters of text that belong to the
// script family of lang, in [0,100].
func (c *Classifier) Purity(text string, lang Language) float64 {
	return c.PurityOf(c.Classify(text), lang)
}
