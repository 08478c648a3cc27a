package script

import (
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLanguage(t *testing.T) {
	tests := []struct {
		in   string
		want Language
	}{
		{"fr", "fr"},
		{"fr-FR", "fr"},
		{"AR", "ar"},
		{"uk-UA", "uk"},
		{"", Unknown},
		{"auto", Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLanguage(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseLanguage("not a tag!")
	assert.Error(t, err)
}

func TestClassify_Counts(t *testing.T) {
	c := NewClassifier()

	p := c.Classify("Le témoin 42, الشاهد!")
	assert.Equal(t, 8, p.Counts[Latin])
	assert.Equal(t, 6, p.Counts[Arabic])
	assert.Equal(t, 14, p.Letters)
	assert.Equal(t, Latin, p.Dominant)
	assert.Equal(t, 7, p.Neutral) // 3 spaces, 2 digits, comma, bang
}

func TestPurity(t *testing.T) {
	c := NewClassifier()

	tests := []struct {
		name string
		text string
		lang Language
		want float64
	}{
		{"pure french", "Bonjour, le témoin est présent.", "fr", 100},
		{"pure arabic", "حضر الشاهد أمام المحكمة.", "ar", 100},
		{"arabic in french", "حضر الشاهد", "fr", 0},
		{"half and half", "abcd شهود", "ar", 50},
		{"digits and punctuation only", "12/05/2024 — 15:30 !", "ar", 100},
		{"empty", "", "fr", 100},
		{"english shares latin with french", "The witness", "fr", 100},
		{"cyrillic", "Свідок з'явився", "uk", 100},
		{"unknown language", "Bonjour", "xx", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, c.Purity(tt.text, tt.lang), 0.001)
		})
	}
}

func TestPurity_Range(t *testing.T) {
	c := NewClassifier()
	for _, text := range []string{"a", "ا", "aا", "日本語 text", "ሰላም"} {
		for _, lang := range []Language{"fr", "ar", "zh", "uk"} {
			got := c.Purity(text, lang)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 100.0)
		}
	}
}

func TestClassify_Deterministic(t *testing.T) {
	c := NewClassifier()
	text := "Article 12 — الشاهد witness свідок"
	assert.Equal(t, c.Classify(text), c.Classify(text))
}

func TestClassify_OtherFamily(t *testing.T) {
	c := NewClassifier()

	p := c.Classify("ሰላም") // Ethiopic is not registered
	assert.Equal(t, 3, p.Counts[Other])
	assert.Equal(t, Other, p.Dominant)
	assert.Equal(t, 0.0, c.PurityOf(p, "fr"))
}

func TestWithFamilyAndLanguage(t *testing.T) {
	c := NewClassifier(
		WithFamily("Ethiopic", unicode.Ethiopic),
		WithLanguage("am", "Ethiopic"),
	)

	assert.True(t, c.Supports("am"))
	assert.Equal(t, 100.0, c.Purity("ሰላም", "am"))
}

func TestLanguages(t *testing.T) {
	c := NewClassifier()
	assert.Equal(t, []Language{"ar", "fa", "ur"}, c.Languages(Arabic))
}

func TestRuns(t *testing.T) {
	c := NewClassifier()

	t.Run("glued fragment", func(t *testing.T) {
		text := "الشاهدwitnessحضر"
		runs := c.Runs(text, "ar")
		require.Len(t, runs, 1)
		assert.Equal(t, "witness", text[runs[0].Start:runs[0].End])
		assert.Equal(t, 7, runs[0].Letters)
	})

	t.Run("neutral characters join foreign words", func(t *testing.T) {
		text := "قال the court, 2024 يوم"
		runs := c.Runs(text, "ar")
		require.Len(t, runs, 1)
		assert.Equal(t, "the court", text[runs[0].Start:runs[0].End])
		assert.Equal(t, 8, runs[0].Letters)
	})

	t.Run("several runs", func(t *testing.T) {
		runs := c.Runs("ab جج cd", "ar")
		require.Len(t, runs, 2)
	})

	t.Run("pure text has no runs", func(t *testing.T) {
		assert.Empty(t, c.Runs("Le témoin a juré.", "fr"))
	})

	t.Run("unknown language makes everything foreign", func(t *testing.T) {
		runs := c.Runs("abc", "xx")
		require.Len(t, runs, 1)
		assert.Equal(t, 3, runs[0].Letters)
	})
}
