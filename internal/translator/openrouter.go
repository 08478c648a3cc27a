package translator

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/valpere/lexpure/internal/postprocess"
)

var DefaultOpenRouterModels = []string{
	"google/gemini-2.0-flash-exp:free",
	"qwen/qwen2.5-72b-instruct:free",
	"mistralai/mistral-nemo:free",
}

// OpenRouterService calls the OpenRouter chat completions API.
type OpenRouterService struct {
	apiKey  string
	baseURL string
	models  *modelRing
	client  *http.Client
}

func NewOpenRouterService(apiKey string, baseURL string, models []string) *OpenRouterService {
	if baseURL == "" {
		baseURL = "https://openrouter.ai/api/v1"
	}
	return &OpenRouterService{
		apiKey:  apiKey,
		baseURL: baseURL,
		models:  newModelRing(models, DefaultOpenRouterModels),
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

func (s *OpenRouterService) Name() string { return "openrouter" }

func (s *OpenRouterService) Translate(ctx context.Context, req Request) (*Result, error) {
	result := &Result{ServiceName: s.Name()}
	start := time.Now()
	defer func() { result.Latency = time.Since(start) }()

	if s.apiKey == "" {
		return result, errorf(s.Name(), KindAuth, "API key required")
	}

	model := s.models.pick()
	body := map[string]any{
		"model":       model,
		"messages":    chatMessages(req),
		"max_tokens":  4096,
		"temperature": 0,
	}
	headers := map[string]string{
		"Authorization": "Bearer " + s.apiKey,
		"HTTP-Referer":  "https://lexpure.local",
		"X-Title":       "LexPure",
	}

	var resp struct {
		Choices []struct {
			Message      chatMessage `json:"message"`
			FinishReason string      `json:"finish_reason"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
		} `json:"usage"`
	}
	if err := doJSON(ctx, s.client, s.Name(), http.MethodPost, s.baseURL+"/chat/completions", headers, body, &resp); err != nil {
		return result, err
	}
	if len(resp.Choices) == 0 {
		return result, malformed(s.Name(), "empty response from API")
	}
	choice := resp.Choices[0]
	if choice.FinishReason == "length" {
		return result, malformed(s.Name(), "output truncated at max_tokens")
	}

	text := postprocess.Clean(choice.Message.Content)
	if err := requireText(s.Name(), text); err != nil {
		return result, err
	}
	result.TranslatedText = text
	result.Metadata = map[string]string{
		"model":             model,
		"prompt_tokens":     fmt.Sprint(resp.Usage.PromptTokens),
		"completion_tokens": fmt.Sprint(resp.Usage.CompletionTokens),
	}
	return result, nil
}

func (s *OpenRouterService) IsAvailable(ctx context.Context) error {
	if s.apiKey == "" {
		return fmt.Errorf("openrouter API key not configured")
	}
	return nil
}

// Models returns the models used in rotation.
func (s *OpenRouterService) Models() []string { return s.models.list() }
