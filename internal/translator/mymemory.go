package translator

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// MyMemoryService is the free translation-memory API. It needs an explicit
// source language; unknown sources are sent as "autodetect".
type MyMemoryService struct {
	email   string
	baseURL string
	client  *http.Client
}

func NewMyMemoryService(email string) *MyMemoryService {
	return &MyMemoryService{
		email:   email,
		baseURL: "https://api.mymemory.translated.net",
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *MyMemoryService) Name() string {
	return "mymemory"
}

func (s *MyMemoryService) Translate(ctx context.Context, req Request) (*Result, error) {
	result := &Result{ServiceName: s.Name()}
	start := time.Now()
	defer func() { result.Latency = time.Since(start) }()

	source := req.SourceLang
	if source == "" || source == "auto" {
		source = "autodetect"
	}

	q := url.Values{}
	q.Set("q", req.Text)
	q.Set("langpair", fmt.Sprintf("%s|%s", source, req.TargetLang))
	if s.email != "" {
		q.Set("de", s.email)
	}

	var resp struct {
		ResponseData struct {
			TranslatedText string  `json:"translatedText"`
			Match          float64 `json:"match"`
		} `json:"responseData"`
		ResponseStatus  any    `json:"responseStatus"`
		ResponseDetails string `json:"responseDetails"`
	}
	if err := doJSON(ctx, s.client, s.Name(), http.MethodGet, s.baseURL+"/get?"+q.Encode(), nil, nil, &resp); err != nil {
		return result, err
	}

	// responseStatus is a number on success and sometimes a string on error.
	if code, ok := resp.ResponseStatus.(float64); !ok || code != http.StatusOK {
		status := http.StatusBadGateway
		if ok {
			status = int(code)
		}
		return result, statusError(s.Name(), status, resp.ResponseDetails)
	}
	if err := requireText(s.Name(), resp.ResponseData.TranslatedText); err != nil {
		return result, err
	}

	result.TranslatedText = resp.ResponseData.TranslatedText
	result.Metadata = map[string]string{"match": fmt.Sprintf("%.2f", resp.ResponseData.Match)}
	return result, nil
}

func (s *MyMemoryService) IsAvailable(ctx context.Context) error {
	return nil
}
