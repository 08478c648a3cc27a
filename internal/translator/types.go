package translator

import (
	"context"
	"time"
)

// Request is one provider call. Caller is the opaque value supplied by the
// host's authorization layer; it is forwarded unmodified and never inspected
// by the pipeline.
type Request struct {
	Text            string `json:"text"`
	SourceLang      string `json:"source_lang"`
	TargetLang      string `json:"target_lang"`
	PreviousContext string `json:"previous_context,omitempty"`
	Instructions    string `json:"instructions,omitempty"`
	Caller          any    `json:"-"`
}

type Result struct {
	ServiceName    string            `json:"service_name"`
	TranslatedText string            `json:"translated_text"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	Latency        time.Duration     `json:"latency"`
}

// Service is a translation or generation provider. Providers are untrusted
// for purity: their output is always scored before use.
type Service interface {
	Name() string
	Translate(ctx context.Context, req Request) (*Result, error)
	IsAvailable(ctx context.Context) error
}
