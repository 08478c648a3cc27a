package translator

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

const systranHost = "api-systran-systran-translation-v1.p.rapidapi.com"

type SystranService struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewSystranService(apiKey string) *SystranService {
	return &SystranService{
		apiKey:  apiKey,
		baseURL: "https://" + systranHost,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *SystranService) Name() string {
	return "systran"
}

func (s *SystranService) Translate(ctx context.Context, req Request) (*Result, error) {
	result := &Result{ServiceName: s.Name()}
	start := time.Now()
	defer func() { result.Latency = time.Since(start) }()

	if s.apiKey == "" {
		return result, errorf(s.Name(), KindAuth, "Systran API key required")
	}

	source := req.SourceLang
	if source == "" {
		source = "auto"
	}
	body := map[string]any{
		"text":   []string{req.Text},
		"source": source,
		"target": req.TargetLang,
		"format": "text",
	}
	headers := map[string]string{
		"X-RapidAPI-Key":  s.apiKey,
		"X-RapidAPI-Host": systranHost,
	}

	var resp struct {
		Outputs []struct {
			Output string `json:"output"`
		} `json:"outputs"`
	}
	if err := doJSON(ctx, s.client, s.Name(), http.MethodPost, s.baseURL+"/translation/text/translate", headers, body, &resp); err != nil {
		return result, err
	}
	if len(resp.Outputs) == 0 {
		return result, malformed(s.Name(), "empty translation response")
	}
	if err := requireText(s.Name(), resp.Outputs[0].Output); err != nil {
		return result, err
	}

	result.TranslatedText = resp.Outputs[0].Output
	return result, nil
}

func (s *SystranService) IsAvailable(ctx context.Context) error {
	if s.apiKey == "" {
		return fmt.Errorf("Systran API key not configured")
	}
	return nil
}
