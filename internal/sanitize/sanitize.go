// Package sanitize removes short runs of foreign-script text from otherwise
// monolingual output.
//
// Rewrites come from a single versioned rule table. Every rule is bounded by
// the maximum run length N: a contamination run with more than N foreign
// letters is never rewritten, neither by a run rule nor by a pattern that
// touches it, so the purity of the result reflects what is really there.
package sanitize

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/valpere/lexpure/internal/script"
)

// DefaultMaxRun is the default maximum number of foreign letters a single
// rewrite may remove.
const DefaultMaxRun = 12

// Kind selects how a rule finds its targets.
type Kind string

const (
	// KindPattern rules match a regular expression.
	KindPattern Kind = "pattern"
	// KindRun rules remove whole contamination runs.
	KindRun Kind = "run"
)

type Rule struct {
	Name    string `yaml:"name"`
	Kind    Kind   `yaml:"kind"`
	Pattern string `yaml:"pattern"`
	Replace string `yaml:"replace"`
}

// RuleSet is a versioned rule table.
type RuleSet struct {
	Version int    `yaml:"version"`
	Rules   []Rule `yaml:"rules"`
}

//go:embed rules.yaml
var defaultRules []byte

// DefaultRules returns the embedded rule table.
func DefaultRules() (*RuleSet, error) {
	return ParseRules(defaultRules)
}

// LoadRules reads a rule table from path.
func LoadRules(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sanitizer rules: %w", err)
	}
	return ParseRules(data)
}

// ParseRules decodes a YAML rule table.
func ParseRules(data []byte) (*RuleSet, error) {
	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("failed to parse sanitizer rules: %w", err)
	}
	if rs.Version <= 0 {
		return nil, fmt.Errorf("sanitizer rules: version must be positive, got %d", rs.Version)
	}
	return &rs, nil
}

type compiledRule struct {
	name    string
	re      *regexp.Regexp
	replace string
}

// Sanitizer applies a compiled rule set. It is immutable and safe for
// concurrent use.
type Sanitizer struct {
	classifier *script.Classifier
	patterns   []compiledRule
	runRule    string
	maxRun     int
	version    string
}

// New compiles rs. maxRun is the refusal bound N and must be positive.
func New(c *script.Classifier, rs *RuleSet, maxRun int) (*Sanitizer, error) {
	if maxRun <= 0 {
		return nil, fmt.Errorf("sanitizer max run must be positive, got %d", maxRun)
	}
	s := &Sanitizer{
		classifier: c,
		maxRun:     maxRun,
		version:    fmt.Sprintf("v%d-n%d", rs.Version, maxRun),
	}
	seen := make(map[string]bool, len(rs.Rules))
	for i, r := range rs.Rules {
		if r.Name == "" {
			return nil, fmt.Errorf("sanitizer rule %d has no name", i)
		}
		if seen[r.Name] {
			return nil, fmt.Errorf("duplicate sanitizer rule %q", r.Name)
		}
		seen[r.Name] = true

		switch r.Kind {
		case KindPattern:
			if r.Pattern == "" {
				return nil, fmt.Errorf("sanitizer rule %q: empty pattern", r.Name)
			}
			re, err := regexp.Compile(r.Pattern)
			if err != nil {
				return nil, fmt.Errorf("sanitizer rule %q: %w", r.Name, err)
			}
			s.patterns = append(s.patterns, compiledRule{name: r.Name, re: re, replace: r.Replace})
		case KindRun:
			if s.runRule != "" {
				return nil, fmt.Errorf("sanitizer rule %q: only one run rule allowed, have %q", r.Name, s.runRule)
			}
			s.runRule = r.Name
		default:
			return nil, fmt.Errorf("sanitizer rule %q: unknown kind %q", r.Name, r.Kind)
		}
	}
	return s, nil
}

// Version identifies the rule table together with the refusal bound.
func (s *Sanitizer) Version() string { return s.version }

// MaxRun returns the refusal bound N.
func (s *Sanitizer) MaxRun() int { return s.maxRun }

// Result describes one sanitize pass.
type Result struct {
	Text    string
	Profile script.Profile
	Fired   []string // names of rules that rewrote something, in order
	Refused int      // contamination runs left in place for exceeding N
}

// Sanitize rewrites text for lang and returns the result with its new
// script profile.
func (s *Sanitizer) Sanitize(text string, lang script.Language) (string, script.Profile) {
	r := s.Apply(text, lang)
	return r.Text, r.Profile
}

// Apply is Sanitize with a report of what happened.
func (s *Sanitizer) Apply(text string, lang script.Language) Result {
	var res Result
	family, ok := s.classifier.FamilyOf(lang)
	before := s.classifier.Classify(text)

	if ok && before.Counts[family] > 0 {
		text, res.Fired = s.applyPatterns(text, lang)
		if s.runRule != "" {
			var removed int
			text, removed, res.Refused = s.removeRuns(text, lang)
			if removed > 0 {
				res.Fired = append(res.Fired, s.runRule)
			}
		}
		if len(res.Fired) > 0 {
			text = trimSeparators(dropEmptyPairs(text))
		}
	}

	res.Text = normalizeSpace(text)
	res.Profile = s.classifier.Classify(res.Text)
	return res
}
