package translator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestMyMemoryService_Translate_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("langpair"); got != "fr|ar" {
			t.Errorf("expected langpair fr|ar, got %q", got)
		}
		if got := r.URL.Query().Get("de"); got != "test@example.com" {
			t.Errorf("expected email param, got %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"responseData":   map[string]any{"translatedText": "الشاهد", "match": 0.85},
			"responseStatus": 200,
		})
	}))
	defer server.Close()

	svc := &MyMemoryService{email: "test@example.com", baseURL: server.URL, client: server.Client()}

	result, err := svc.Translate(context.Background(), Request{Text: "Le témoin", SourceLang: "fr", TargetLang: "ar"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TranslatedText != "الشاهد" {
		t.Errorf("expected 'الشاهد', got %q", result.TranslatedText)
	}
	if result.Metadata["match"] != "0.85" {
		t.Errorf("expected match metadata, got %v", result.Metadata)
	}
}

func TestMyMemoryService_Translate_QuotaError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"responseData":    map[string]any{"translatedText": "MYMEMORY WARNING"},
			"responseStatus":  429,
			"responseDetails": "daily limit reached",
		})
	}))
	defer server.Close()

	svc := &MyMemoryService{baseURL: server.URL, client: server.Client()}

	_, err := svc.Translate(context.Background(), Request{Text: "Hello", SourceLang: "en", TargetLang: "fr"})
	if KindOf(err) != KindRateLimited {
		t.Errorf("expected rate_limited, got %v", err)
	}
}

func TestMyMemoryService_Name(t *testing.T) {
	svc := NewMyMemoryService("")

	if svc.Name() != "mymemory" {
		t.Errorf("expected 'mymemory', got %q", svc.Name())
	}
}

func TestSystranService_Translate_NoAPIKey(t *testing.T) {
	svc := NewSystranService("")

	result, err := svc.Translate(context.Background(), Request{Text: "Hello", SourceLang: "en", TargetLang: "fr"})

	if KindOf(err) != KindAuth {
		t.Errorf("expected auth error, got %v", err)
	}
	if result == nil {
		t.Fatal("expected non-nil result")
	}
}

func TestSystranService_Translate_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte("Forbidden"))
	}))
	defer server.Close()

	svc := &SystranService{apiKey: "test-key", baseURL: server.URL, client: server.Client()}

	_, err := svc.Translate(context.Background(), Request{Text: "Hello", SourceLang: "en", TargetLang: "fr"})

	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if perr.Kind != KindAuth || perr.StatusCode != http.StatusForbidden {
		t.Errorf("unexpected error %+v", perr)
	}
	if perr.Retryable() {
		t.Error("auth errors must not be retryable")
	}
}

func TestSystranService_Translate_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-RapidAPI-Key") != "test-key" {
			t.Errorf("missing API key header")
		}
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if body["source"] != "auto" {
			t.Errorf("expected auto source, got %v", body["source"])
		}
		json.NewEncoder(w).Encode(map[string]any{"outputs": []map[string]string{{"output": "Le témoin"}}})
	}))
	defer server.Close()

	svc := &SystranService{apiKey: "test-key", baseURL: server.URL, client: server.Client()}

	result, err := svc.Translate(context.Background(), Request{Text: "The witness", TargetLang: "fr"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TranslatedText != "Le témoin" {
		t.Errorf("expected 'Le témoin', got %q", result.TranslatedText)
	}
}

func TestSystranService_IsAvailable(t *testing.T) {
	if err := NewSystranService("").IsAvailable(context.Background()); err == nil {
		t.Error("expected error when no API key")
	}
	if err := NewSystranService("test-key").IsAvailable(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func chatReply(content string) map[string]any {
	return map[string]any{
		"message":           map[string]string{"role": "assistant", "content": content},
		"prompt_eval_count": 40,
		"eval_count":        5,
	}
}

func TestOllamaService_Translate_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(chatReply("Translation: الشاهد"))
	}))
	defer server.Close()

	svc := NewOllamaService(server.URL, []string{"qwen2.5:7b"})

	result, err := svc.Translate(context.Background(), Request{Text: "The witness", SourceLang: "en", TargetLang: "ar"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TranslatedText != "الشاهد" {
		t.Errorf("expected cleaned 'الشاهد', got %q", result.TranslatedText)
	}
	if result.Metadata["model"] != "qwen2.5:7b" || result.Metadata["completion_tokens"] != "5" {
		t.Errorf("unexpected metadata %v", result.Metadata)
	}
}

func TestOllamaService_Translate_SendsMessages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model    string        `json:"model"`
			Messages []chatMessage `json:"messages"`
			Stream   bool          `json:"stream"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Messages) != 2 || req.Stream {
			t.Fatalf("unexpected request %+v", req)
		}
		if req.Messages[0].Role != "system" || !strings.Contains(req.Messages[0].Content, "Arabic") {
			t.Errorf("expected target language name in system message, got %+v", req.Messages[0])
		}
		if req.Messages[1].Role != "user" || req.Messages[1].Content != "The witness" {
			t.Errorf("expected raw text as user message, got %+v", req.Messages[1])
		}
		json.NewEncoder(w).Encode(chatReply("الشاهد"))
	}))
	defer server.Close()

	svc := NewOllamaService(server.URL, nil)

	if _, err := svc.Translate(context.Background(), Request{Text: "The witness", TargetLang: "ar"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestOllamaService_Translate_EmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(chatReply("  "))
	}))
	defer server.Close()

	svc := NewOllamaService(server.URL, nil)

	_, err := svc.Translate(context.Background(), Request{Text: "Hello", TargetLang: "fr"})
	if KindOf(err) != KindMalformed {
		t.Errorf("expected malformed, got %v", err)
	}
}

func TestOllamaService_Translate_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	svc := NewOllamaService(server.URL, nil)

	result, err := svc.Translate(context.Background(), Request{Text: "Hello", SourceLang: "en", TargetLang: "fr"})

	if !IsRetryable(err) {
		t.Errorf("expected retryable error for 500, got %v", err)
	}
	if result == nil {
		t.Fatal("expected non-nil result")
	}
}

func TestOllamaService_Translate_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	svc := NewOllamaService(server.URL, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := svc.Translate(ctx, Request{Text: "Hello", TargetLang: "fr"})
	if KindOf(err) != KindTimeout {
		t.Errorf("expected timeout, got %v", err)
	}
}

func TestOllamaService_IsAvailable_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	if err := NewOllamaService(server.URL, nil).IsAvailable(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestOllamaService_IsAvailable_NotRunning(t *testing.T) {
	svc := NewOllamaService("http://localhost:19999", nil)
	svc.client = &http.Client{Timeout: 100 * time.Millisecond}

	if err := svc.IsAvailable(context.Background()); err == nil {
		t.Error("expected error when Ollama not available")
	}
}

func TestOllamaService_Defaults(t *testing.T) {
	svc := NewOllamaService("", nil)

	if svc.Name() != "ollama" {
		t.Errorf("expected 'ollama', got %q", svc.Name())
	}
	if len(svc.Models()) != len(DefaultOllamaModels) {
		t.Errorf("expected default models, got %v", svc.Models())
	}
}

func TestModelRing_RotatesInOrder(t *testing.T) {
	r := newModelRing([]string{"a", "b", "c"}, nil)

	var got []string
	for range 5 {
		got = append(got, r.pick())
	}
	if strings.Join(got, ",") != "a,b,c,a,b" {
		t.Errorf("unexpected rotation %v", got)
	}
}

func TestModelRing_CopiesInput(t *testing.T) {
	models := []string{"a"}
	r := newModelRing(models, nil)
	models[0] = "z"

	if r.pick() != "a" {
		t.Error("ring should not alias the caller's slice")
	}
}

func TestOpenRouterService_Translate_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer key" {
			t.Errorf("missing bearer token")
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"content": "<think>hmm</think>\n\"Le témoin\""}}},
			"usage":   map[string]int{"prompt_tokens": 12, "completion_tokens": 3},
		})
	}))
	defer server.Close()

	svc := NewOpenRouterService("key", server.URL, []string{"test/model"})
	svc.client = server.Client()

	result, err := svc.Translate(context.Background(), Request{Text: "The witness", SourceLang: "en", TargetLang: "fr"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TranslatedText != "Le témoin" {
		t.Errorf("expected 'Le témoin', got %q", result.TranslatedText)
	}
	if result.Metadata["model"] != "test/model" || result.Metadata["prompt_tokens"] != "12" {
		t.Errorf("unexpected metadata %v", result.Metadata)
	}
}

func TestOpenRouterService_Translate_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	svc := NewOpenRouterService("key", server.URL, nil)
	svc.client = server.Client()

	_, err := svc.Translate(context.Background(), Request{Text: "Hello", TargetLang: "fr"})
	if KindOf(err) != KindRateLimited || !IsRetryable(err) {
		t.Errorf("expected retryable rate_limited, got %v", err)
	}
}

func TestOpenRouterService_Translate_Truncated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{
				"message":       map[string]string{"content": "Le témoin a"},
				"finish_reason": "length",
			}},
		})
	}))
	defer server.Close()

	svc := NewOpenRouterService("key", server.URL, nil)
	svc.client = server.Client()

	_, err := svc.Translate(context.Background(), Request{Text: "The witness said", TargetLang: "fr"})
	if KindOf(err) != KindMalformed {
		t.Errorf("expected malformed for truncated output, got %v", err)
	}
}

func TestOpenRouterService_Translate_NoAPIKey(t *testing.T) {
	svc := NewOpenRouterService("", "", nil)

	if _, err := svc.Translate(context.Background(), Request{Text: "Hello", TargetLang: "fr"}); KindOf(err) != KindAuth {
		t.Errorf("expected auth error, got %v", err)
	}
	if err := svc.IsAvailable(context.Background()); err == nil {
		t.Error("expected error when no API key")
	}
}

func TestBuildSystemPrompt(t *testing.T) {
	p := buildSystemPrompt(Request{SourceLang: "fr", TargetLang: "ar", PreviousContext: "الفقرة السابقة", Instructions: "Keep markers."})

	for _, want := range []string{"from French to Arabic", "Arabic only", "Keep markers.", "الفقرة السابقة"} {
		if !strings.Contains(p, want) {
			t.Errorf("expected prompt to contain %q, got %q", want, p)
		}
	}

	p = buildSystemPrompt(Request{TargetLang: "en"})
	if strings.Contains(p, "from") || !strings.Contains(p, "to English") {
		t.Errorf("unexpected prompt without source: %q", p)
	}
}

func TestStatusError_Kinds(t *testing.T) {
	tests := []struct {
		code int
		want Kind
	}{
		{http.StatusTooManyRequests, KindRateLimited},
		{http.StatusUnauthorized, KindAuth},
		{http.StatusForbidden, KindAuth},
		{http.StatusGatewayTimeout, KindTimeout},
		{http.StatusServiceUnavailable, KindUnavailable},
		{http.StatusBadRequest, KindMalformed},
	}
	for _, tt := range tests {
		if got := statusError("svc", tt.code, "").Kind; got != tt.want {
			t.Errorf("status %d: expected %s, got %s", tt.code, tt.want, got)
		}
	}
}

func TestKindOf_Unclassified(t *testing.T) {
	if KindOf(context.DeadlineExceeded) != KindTimeout {
		t.Error("expected deadline to classify as timeout")
	}
	if KindOf(errors.New("boom")) != KindUnavailable {
		t.Error("expected plain error to classify as unavailable")
	}
}
