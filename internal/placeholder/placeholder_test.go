package placeholder_test

import (
	"strings"
	"testing"

	"github.com/valpere/lexpure/internal/placeholder"
)

func TestProtect_NoMarkup(t *testing.T) {
	text := "Le témoin a prêté serment."
	got, originals := placeholder.Protect(text)
	if got != text {
		t.Errorf("expected unchanged text, got %q", got)
	}
	if len(originals) != 0 {
		t.Errorf("expected 0 originals, got %d", len(originals))
	}
}

func TestProtect_HTMLTags(t *testing.T) {
	text := "<p>Le <b>témoin</b></p>"
	got, originals := placeholder.Protect(text)

	if len(originals) != 4 {
		t.Fatalf("expected 4 originals, got %d: %v", len(originals), originals)
	}
	for _, tag := range []string{"<p>", "<b>", "</b>", "</p>"} {
		if strings.Contains(got, tag) {
			t.Errorf("tag %q still present in %q", tag, got)
		}
	}
	if !strings.Contains(got, "⟦0⟧") {
		t.Errorf("expected ⟦0⟧ in %q", got)
	}
}

func TestProtect_FencedAndInlineCode(t *testing.T) {
	text := "Avant\n```\nART-12\n```\nutiliser `ref-7` ici"
	got, originals := placeholder.Protect(text)

	if len(originals) != 2 {
		t.Fatalf("expected 2 originals, got %d: %v", len(originals), originals)
	}
	if strings.Contains(got, "```") || strings.Contains(got, "`ref-7`") {
		t.Errorf("code still present in %q", got)
	}
}

func TestProtect_URLAndEmail(t *testing.T) {
	text := "راجع https://example.org/case/12. أو راسل greffe@example.org"
	got, originals := placeholder.Protect(text)

	if len(originals) != 2 {
		t.Fatalf("expected 2 originals, got %d: %v", len(originals), originals)
	}
	if originals[0] != "https://example.org/case/12" {
		t.Errorf("URL should not swallow trailing punctuation, got %q", originals[0])
	}
	if originals[1] != "greffe@example.org" {
		t.Errorf("unexpected e-mail capture %q", originals[1])
	}
	if strings.ContainsAny(got, "abcdefghijklmnopqrstuvwxyz") {
		t.Errorf("protected text should carry no Latin letters: %q", got)
	}
}

func TestRestore_RoundTrip(t *testing.T) {
	for _, original := range []string{
		"<p>Hello <b>world</b></p>",
		"Before\n```go\nfmt.Println(\"hi\")\n```\nAfter",
		"Voir https://example.org et `code`.",
	} {
		protected, originals := placeholder.Protect(original)
		if restored := placeholder.Restore(protected, originals); restored != original {
			t.Errorf("round-trip failed:\n  original: %q\n  restored: %q", original, restored)
		}
	}
}

func TestRestore_OutOfRangeIndexIgnored(t *testing.T) {
	restored := placeholder.Restore("⟦99⟧ نص", []string{"<p>"})
	if !strings.Contains(restored, "⟦99⟧") {
		t.Errorf("expected ⟦99⟧ to remain, got %q", restored)
	}
}

func TestRestore_ReorderedMarkers(t *testing.T) {
	restored := placeholder.Restore("⟦1⟧ puis ⟦0⟧", []string{"<a>", "<b>"})
	if restored != "<b> puis <a>" {
		t.Errorf("unexpected restore %q", restored)
	}
}

func TestMissing(t *testing.T) {
	originals := []string{"<p>", "</p>", "<b>"}

	if missing := placeholder.Missing("⟦0⟧ نص ⟦1⟧ ⟦2⟧", originals); len(missing) != 0 {
		t.Errorf("expected no missing, got %v", missing)
	}

	missing := placeholder.Missing("⟦0⟧ نص", originals)
	if len(missing) != 2 || missing[0] != 1 || missing[1] != 2 {
		t.Errorf("expected missing [1 2], got %v", missing)
	}
}

func TestInstructionHint_NotEmpty(t *testing.T) {
	if placeholder.InstructionHint() == "" {
		t.Error("InstructionHint should not return empty string")
	}
}
