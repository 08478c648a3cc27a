// Package fallback holds the canonical per-topic texts shown when no other
// stage produced an acceptable result. Tables are validated once at load
// time, so Generate itself cannot fail for a configured language.
package fallback

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/valpere/lexpure/internal/intent"
	"github.com/valpere/lexpure/internal/script"
)

//go:embed templates.yaml
var defaultTemplates []byte

type templateFile struct {
	Templates map[string]map[string]string `yaml:"templates"`
}

// Table is an immutable (category, language) → text lookup.
type Table struct {
	templates map[intent.Category]map[script.Language]string
}

// Default loads the embedded table and validates it for langs.
func Default(c *script.Classifier, langs []script.Language) (*Table, error) {
	return Parse(defaultTemplates, c, langs)
}

// LoadFile loads a table from path and validates it for langs.
func LoadFile(path string, c *script.Classifier, langs []script.Language) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fallback templates: %w", err)
	}
	return Parse(data, c, langs)
}

// Parse decodes a YAML table. Every template must be 100% pure in its own
// language and a general template must exist for each of langs.
func Parse(data []byte, c *script.Classifier, langs []script.Language) (*Table, error) {
	var tf templateFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("failed to parse fallback templates: %w", err)
	}

	t := &Table{templates: make(map[intent.Category]map[script.Language]string, len(tf.Templates))}
	for name, byLang := range tf.Templates {
		cat, err := intent.ParseCategory(name)
		if err != nil {
			return nil, err
		}
		texts := make(map[script.Language]string, len(byLang))
		for code, text := range byLang {
			lang, err := script.ParseLanguage(code)
			if err != nil {
				return nil, fmt.Errorf("template %s/%s: %w", cat, code, err)
			}
			if !c.Supports(lang) {
				return nil, fmt.Errorf("template %s/%s: language has no script family", cat, lang)
			}
			if strings.TrimSpace(text) == "" {
				return nil, fmt.Errorf("template %s/%s is empty", cat, lang)
			}
			if p := c.Purity(text, lang); p < 100 {
				return nil, fmt.Errorf("template %s/%s is %.1f%% pure, want 100%%", cat, lang, p)
			}
			texts[lang] = text
		}
		t.templates[cat] = texts
	}

	for _, lang := range langs {
		if _, ok := t.templates[intent.General][lang]; !ok {
			return nil, fmt.Errorf("missing %s template for language %q", intent.General, lang)
		}
	}
	return t, nil
}

// Generate returns the template for (cat, lang), or the general template
// for lang when the category has none. ok is false only for a language the
// table was not validated for.
func (t *Table) Generate(cat intent.Category, lang script.Language) (text string, ok bool) {
	if text, ok := t.templates[cat][lang]; ok {
		return text, true
	}
	text, ok = t.templates[intent.General][lang]
	return text, ok
}

// Languages returns every language with a general template, sorted.
func (t *Table) Languages() []script.Language {
	var out []script.Language
	for lang := range t.templates[intent.General] {
		out = append(out, lang)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
