// Package markdown flattens chat-style markdown to the plain words a reader
// sees, so keyword matching is not thrown off by link targets, emphasis
// markers or raw HTML.
package markdown

import (
	"html"
	"strings"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// ToHTML renders md with the common extensions.
func ToHTML(md []byte) string {
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags})
	p := parser.NewWithExtensions(parser.CommonExtensions)
	return string(markdown.Render(p.Parse(md), renderer))
}

// ToPlainText renders md and keeps only the visible text. Block boundaries
// become line breaks.
func ToPlainText(md string) string {
	if strings.TrimSpace(md) == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(StripTags(ToHTML([]byte(md)))))
}

// StripTags drops everything between '<' and '>'. Closing block tags are
// replaced by a newline so paragraphs do not run together.
func StripTags(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inTag := false
	var tag strings.Builder
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
			tag.Reset()
		case r == '>' && inTag:
			inTag = false
			if isBlockClose(tag.String()) {
				b.WriteByte('\n')
			}
		case inTag:
			tag.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isBlockClose(tag string) bool {
	fields := strings.Fields(tag)
	if len(fields) == 0 {
		return false
	}
	switch strings.ToLower(fields[0]) {
	case "/p", "/li", "/h1", "/h2", "/h3", "/h4", "/h5", "/h6", "/blockquote", "/pre", "br", "br/":
		return true
	}
	return false
}
