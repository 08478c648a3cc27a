package translator

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/valpere/lexpure/internal/postprocess"
)

var DefaultOllamaModels = []string{
	"qwen2.5:7b",
	"llama3.1:8b",
	"aya-expanse:8b",
}

// OllamaService calls a local Ollama chat endpoint.
type OllamaService struct {
	baseURL string
	models  *modelRing
	client  *http.Client
}

func NewOllamaService(baseURL string, models []string) *OllamaService {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &OllamaService{
		baseURL: baseURL,
		models:  newModelRing(models, DefaultOllamaModels),
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

func (s *OllamaService) Name() string { return "ollama" }

func (s *OllamaService) Translate(ctx context.Context, req Request) (*Result, error) {
	result := &Result{ServiceName: s.Name()}
	start := time.Now()
	defer func() { result.Latency = time.Since(start) }()

	model := s.models.pick()
	body := map[string]any{
		"model":    model,
		"messages": chatMessages(req),
		"stream":   false,
		"options":  map[string]any{"temperature": 0},
	}

	var resp struct {
		Message         chatMessage `json:"message"`
		PromptEvalCount int         `json:"prompt_eval_count"`
		EvalCount       int         `json:"eval_count"`
	}
	if err := doJSON(ctx, s.client, s.Name(), http.MethodPost, s.baseURL+"/api/chat", nil, body, &resp); err != nil {
		return result, err
	}

	text := postprocess.Clean(resp.Message.Content)
	if err := requireText(s.Name(), text); err != nil {
		return result, err
	}
	result.TranslatedText = text
	result.Metadata = map[string]string{
		"model":             model,
		"prompt_tokens":     fmt.Sprint(resp.PromptEvalCount),
		"completion_tokens": fmt.Sprint(resp.EvalCount),
	}
	return result, nil
}

func (s *OllamaService) IsAvailable(ctx context.Context) error {
	if err := doJSON(ctx, s.client, s.Name(), http.MethodGet, s.baseURL+"/api/tags", nil, nil, nil); err != nil {
		return fmt.Errorf("ollama not available: %w", err)
	}
	return nil
}

// Models returns the models used in rotation.
func (s *OllamaService) Models() []string { return s.models.list() }
