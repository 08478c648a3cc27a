package translator

import (
	"context"
	"errors"
	"fmt"
	"time"

	translate "cloud.google.com/go/translate"
	"golang.org/x/text/language"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GoogleService calls Cloud Translation (v2). Credentials come from a
// service-account file, an API key or the ambient application default.
type GoogleService struct {
	credentials string
	apiKey      string
}

func NewGoogleService(credentials, apiKey string) *GoogleService {
	return &GoogleService{credentials: credentials, apiKey: apiKey}
}

func (s *GoogleService) Name() string {
	return "google"
}

func (s *GoogleService) clientOptions() []option.ClientOption {
	var opts []option.ClientOption
	if s.credentials != "" {
		opts = append(opts, option.WithCredentialsFile(s.credentials))
	}
	if s.apiKey != "" {
		opts = append(opts, option.WithAPIKey(s.apiKey))
	}
	return opts
}

func (s *GoogleService) Translate(ctx context.Context, req Request) (*Result, error) {
	result := &Result{ServiceName: s.Name()}
	start := time.Now()
	defer func() { result.Latency = time.Since(start) }()

	target, err := language.Parse(req.TargetLang)
	if err != nil {
		return result, malformed(s.Name(), "invalid target language: %v", err)
	}

	opts := &translate.Options{Format: translate.Text}
	if req.SourceLang != "" && req.SourceLang != "auto" {
		source, err := language.Parse(req.SourceLang)
		if err != nil {
			return result, malformed(s.Name(), "invalid source language: %v", err)
		}
		opts.Source = source
	}

	client, err := translate.NewClient(ctx, s.clientOptions()...)
	if err != nil {
		return result, errorf(s.Name(), KindAuth, "failed to create client: %v", err)
	}
	defer client.Close()

	translations, err := client.Translate(ctx, []string{req.Text}, target, opts)
	if err != nil {
		return result, s.classify(err)
	}
	if len(translations) == 0 {
		return result, malformed(s.Name(), "no translation returned")
	}
	if err := requireText(s.Name(), translations[0].Text); err != nil {
		return result, err
	}

	result.TranslatedText = translations[0].Text
	if translations[0].Source != language.Und {
		result.Metadata = map[string]string{"detected_source": translations[0].Source.String()}
	}
	return result, nil
}

func (s *GoogleService) classify(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return statusError(s.Name(), gerr.Code, gerr.Message)
	}
	if isTimeout(err) {
		return newError(s.Name(), KindTimeout, err)
	}
	return newError(s.Name(), KindUnavailable, fmt.Errorf("translation failed: %w", err))
}

func (s *GoogleService) IsAvailable(ctx context.Context) error {
	return nil
}
