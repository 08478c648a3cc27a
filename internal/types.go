package internal

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/valpere/lexpure/internal/script"
)

// ErrInvalidRequest is the only error Purify returns. It is raised before
// any stage runs, for structurally invalid input.
var ErrInvalidRequest = errors.New("invalid request")

type ContentType int

const (
	ChatMessage ContentType = iota
	LegalDocument
	UILabel
)

var contentTypeNames = map[ContentType]string{
	ChatMessage:   "chat_message",
	LegalDocument: "legal_document",
	UILabel:       "ui_label",
}

func (t ContentType) String() string {
	if s, ok := contentTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("content_type(%d)", int(t))
}

// ContentTypes lists every content type in declaration order.
func ContentTypes() []ContentType {
	return []ContentType{ChatMessage, LegalDocument, UILabel}
}

// ParseContentType accepts the snake_case names used in configuration and
// on the command line ("chat" and "label" are accepted as short forms).
func ParseContentType(s string) (ContentType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "chat_message", "chat":
		return ChatMessage, nil
	case "legal_document", "document", "legal":
		return LegalDocument, nil
	case "ui_label", "label":
		return UILabel, nil
	}
	return 0, fmt.Errorf("unknown content type %q", s)
}

type Priority int

const (
	Interactive Priority = iota
	Batch
)

func (p Priority) String() string {
	if p == Batch {
		return "batch"
	}
	return "interactive"
}

// Path records which stage produced a PurifiedResult.
type Path string

const (
	PassThrough      Path = "pass_through"
	ProviderAccepted Path = "provider_accepted"
	Sanitized        Path = "sanitized"
	Fallback         Path = "fallback"
)

// ContentUnit is the immutable input of a purification request.
type ContentUnit struct {
	RawText        string
	SourceLanguage script.Language // script.Unknown when not given
	TargetLanguage script.Language
	ContentType    ContentType
	Priority       Priority
}

// PurifiedResult is the only object returned to callers.
type PurifiedResult struct {
	Text        string  `json:"text"`
	PurityScore float64 `json:"purity_score"`
	Path        Path    `json:"path"`
}

// TranslationAttempt is one provider's try at a content unit. Failed
// attempts carry an empty Text and the failure kind.
type TranslationAttempt struct {
	Provider    string
	Text        string
	Profile     script.Profile
	Score       float64
	Accepted    bool
	PassThrough bool
	Latency     time.Duration
	FailureKind string
	Failure     string
}

// Failed reports whether the provider produced no usable text.
func (a *TranslationAttempt) Failed() bool { return a.FailureKind != "" }
