package postprocess

import "testing"

func TestRemoveReasoning(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty string", input: "", expected: ""},
		{name: "no blocks", input: "Le témoin a été entendu.", expected: "Le témoin a été entendu."},
		{name: "thinking block", input: "Some text<thinking>Let me translate this</thinking>More text", expected: "Some textMore text"},
		{name: "reasoning block", input: "Start<reasoning>grammar</reasoning>End", expected: "StartEnd"},
		{name: "multiple blocks", input: "<think>First</think>middle<think>Second</think>", expected: "middle"},
		{name: "truncated block", input: "<thinking>Translation in progress", expected: ""},
		{name: "truncated in middle", input: "الشاهد<reflection>unfinished", expected: "الشاهد"},
		{name: "case insensitive", input: "<THINKING>x</THINKING>نص", expected: "نص"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := removeReasoning(tt.input); got != tt.expected {
				t.Errorf("removeReasoning(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestRemoveLeadingLabels(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty string", input: "", expected: ""},
		{name: "no label", input: "Just a normal translation.", expected: "Just a normal translation."},
		{name: "here's the translation", input: "Here's the translation: Actual text", expected: "Actual text"},
		{name: "here is the refined translation", input: "Here is the refined translation: Done", expected: "Done"},
		{name: "certainly", input: "Certainly, here's the translation: Text", expected: "Text"},
		{name: "of course", input: "Of course here's the refined translation: Text", expected: "Text"},
		{name: "language named", input: "Arabic translation: حضر الشاهد", expected: "حضر الشاهد"},
		{name: "language code", input: "Translation (ar): حضر الشاهد", expected: "حضر الشاهد"},
		{name: "french label", input: "Traduction en arabe : حضر الشاهد", expected: "حضر الشاهد"},
		{name: "voici", input: "Voici la traduction : Le témoin", expected: "Le témoin"},
		{name: "arabic label", input: "الترجمة: حضر الشاهد", expected: "حضر الشاهد"},
		{name: "not at start", input: "Before Here's the translation: After", expected: "Before Here's the translation: After"},
		{name: "no colon", input: "Translation of the deed is attached", expected: "Translation of the deed is attached"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := removeLeadingLabels(tt.input); got != tt.expected {
				t.Errorf("removeLeadingLabels(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestRemoveQuoteWrapping(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty string", input: "", expected: ""},
		{name: "single char", input: "a", expected: "a"},
		{name: "no quotes", input: "Hello world", expected: "Hello world"},
		{name: "double quotes", input: "\"Hello world\"", expected: "Hello world"},
		{name: "single quotes", input: "'Hello world'", expected: "Hello world"},
		{name: "guillemets", input: "«Le témoin»", expected: "Le témoin"},
		{name: "curly double quotes", input: "“Hello world”", expected: "Hello world"},
		{name: "low-high quotes", input: "„Zeuge“", expected: "Zeuge"},
		{name: "unmatched quotes", input: "\"Hello world'", expected: "\"Hello world'"},
		{name: "only opening quote", input: "\"Hello world", expected: "\"Hello world"},
		{name: "whitespace inside", input: "\"  Hello  \"", expected: "Hello"},
		{name: "nested straight quotes", input: "\"He said \"hello\"\"", expected: "He said \"hello\""},
		{name: "two quotations", input: "«a» et «b»", expected: "«a» et «b»"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := removeQuoteWrapping(tt.input); got != tt.expected {
				t.Errorf("removeQuoteWrapping(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestClean(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty string", input: "", expected: ""},
		{name: "clean text", input: "حضر الشاهد.", expected: "حضر الشاهد."},
		{name: "full pipeline", input: "<thinking>Thinking</thinking>Here's the translation:\n\"Translated text\"", expected: "Translated text"},
		{name: "arabic label and guillemets", input: "<think>x</think>الترجمة: «حضر الشاهد»", expected: "حضر الشاهد"},
		{name: "truncated thinking at end", input: "Text<thinking>Incomplete", expected: "Text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clean(tt.input); got != tt.expected {
				t.Errorf("Clean(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
