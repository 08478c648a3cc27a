package fallback

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valpere/lexpure/internal/intent"
	"github.com/valpere/lexpure/internal/script"
)

var langs = []script.Language{"fr", "ar", "en"}

func TestDefault_EveryTemplateIsPure(t *testing.T) {
	c := script.NewClassifier()
	table, err := Default(c, langs)
	require.NoError(t, err)

	for _, cat := range intent.Categories() {
		for _, lang := range langs {
			text, ok := table.Generate(cat, lang)
			require.True(t, ok, "%s/%s", cat, lang)
			assert.NotEmpty(t, text)
			assert.Equal(t, 100.0, c.Purity(text, lang), "%s/%s: %q", cat, lang, text)
		}
	}
	assert.Equal(t, []script.Language{"ar", "en", "fr"}, table.Languages())
}

func TestGenerate_Deterministic(t *testing.T) {
	table, err := Default(script.NewClassifier(), langs)
	require.NoError(t, err)

	a, _ := table.Generate(intent.Witnesses, "ar")
	b, _ := table.Generate(intent.Witnesses, "ar")
	assert.Equal(t, a, b)
	assert.Equal(t, "يجري إعداد إفادات الشهود.", a)
}

func TestGenerate_FallsBackToGeneral(t *testing.T) {
	table, err := Parse([]byte(`
templates:
  general:
    fr: "Contenu indisponible."
  witnesses:
    en: "Statements pending."
`), script.NewClassifier(), []script.Language{"fr"})
	require.NoError(t, err)

	text, ok := table.Generate(intent.Witnesses, "fr")
	assert.True(t, ok)
	assert.Equal(t, "Contenu indisponible.", text)

	text, ok = table.Generate(intent.Witnesses, "en")
	assert.True(t, ok)
	assert.Equal(t, "Statements pending.", text)

	_, ok = table.Generate(intent.General, "ar")
	assert.False(t, ok)
}

func TestParse_Errors(t *testing.T) {
	tests := map[string]string{
		"impure template":   "templates:\n  general:\n    fr: \"Contenu الشاهد indisponible\"\n",
		"missing general":   "templates:\n  witnesses:\n    fr: \"Témoins\"\n",
		"unknown category":  "templates:\n  tax:\n    fr: \"Impôts\"\n  general:\n    fr: \"Indisponible\"\n",
		"empty template":    "templates:\n  general:\n    fr: \"  \"\n",
		"unsupported lang":  "templates:\n  general:\n    fr: \"Indisponible\"\n    am: \"ሰላም\"\n",
		"malformed yaml":    "templates: [",
		"invalid lang code": "templates:\n  general:\n    fr: \"Indisponible\"\n    \"!!\": \"x\"\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc), script.NewClassifier(), []script.Language{"fr"})
			assert.Error(t, err)
		})
	}
}
