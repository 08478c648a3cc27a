package markdown

import (
	"strings"
	"testing"
)

func TestToPlainText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		contains []string
		absent   []string
	}{
		{
			name:     "emphasis",
			input:    "Le **témoin** est _présent_",
			contains: []string{"Le témoin est présent"},
			absent:   []string{"*", "_"},
		},
		{
			name:     "link target dropped",
			input:    "راجع [الحكم](https://example.org/judgement)",
			contains: []string{"راجع الحكم"},
			absent:   []string{"https", "example"},
		},
		{
			name:     "entities unescaped",
			input:    "Tom & Jerry",
			contains: []string{"Tom & Jerry"},
			absent:   []string{"&amp;"},
		},
		{
			name:     "paragraphs separated",
			input:    "premier\n\nsecond",
			contains: []string{"premier\n", "second"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToPlainText(tt.input)
			for _, s := range tt.contains {
				if !strings.Contains(got, s) {
					t.Errorf("ToPlainText(%q) = %q, want it to contain %q", tt.input, got, s)
				}
			}
			for _, s := range tt.absent {
				if strings.Contains(got, s) {
					t.Errorf("ToPlainText(%q) = %q, want no %q", tt.input, got, s)
				}
			}
		})
	}
}

func TestToPlainText_Empty(t *testing.T) {
	if got := ToPlainText("   "); got != "" {
		t.Errorf("expected empty output, got %q", got)
	}
}

func TestStripTags(t *testing.T) {
	if got := StripTags("<p>a</p><p>b</p>"); got != "a\nb\n" {
		t.Errorf("unexpected %q", got)
	}
	if got := StripTags("x <> y"); got != "x  y" {
		t.Errorf("unexpected %q", got)
	}
}
