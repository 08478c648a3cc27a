package detector

import (
	"testing"

	"github.com/valpere/lexpure/internal/script"
)

func TestDetector_DetectISO(t *testing.T) {
	d := New([]script.Language{"fr", "ar", "en"})

	tests := []struct {
		name   string
		text   string
		want   script.Language
		wantOK bool
	}{
		{
			name:   "empty text",
			text:   "",
			want:   script.Unknown,
			wantOK: false,
		},
		{
			name:   "blank text",
			text:   "   ",
			want:   script.Unknown,
			wantOK: false,
		},
		{
			name:   "french text",
			text:   "Bonjour, le témoin a été entendu par le juge d'instruction.",
			want:   "fr",
			wantOK: true,
		},
		{
			name:   "english text",
			text:   "The witness was heard by the investigating judge yesterday.",
			want:   "en",
			wantOK: true,
		},
		{
			name:   "arabic text",
			text:   "استمعت المحكمة إلى الشهود في الجلسة العلنية.",
			want:   "ar",
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := d.DetectISO(tt.text)
			if ok != tt.wantOK {
				t.Fatalf("DetectISO(%q) ok = %v, want %v", tt.text, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("DetectISO(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestDetector_TooFewCandidates(t *testing.T) {
	d := New([]script.Language{"fr", "xx"})

	if _, ok := d.DetectISO("Bonjour, ceci est un test en français."); ok {
		t.Error("expected a detector with one candidate to stay undecided")
	}
}
