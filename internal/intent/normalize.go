package intent

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/valpere/lexpure/internal/markdown"
)

// variants folds spellings that differ only by convention: Arabic alef
// maqsura, teh marbuta and kashida, and typographic apostrophes.
var variants = strings.NewReplacer(
	"ى", "ي",
	"ة", "ه",
	"ـ", "",
	"’", "'",
	"ʼ", "'",
)

// Normalize renders markdown to plain text, strips diacritics (Latin accents
// and Arabic harakat alike), folds case and collapses whitespace.
func Normalize(text string) string {
	return fold(markdown.ToPlainText(text))
}

// fold is Normalize without the markdown pass; keywords go through it.
func fold(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, text)
	if err != nil {
		stripped = text
	}
	folded := cases.Fold().String(stripped)
	folded = variants.Replace(folded)
	return strings.Join(strings.Fields(folded), " ")
}
