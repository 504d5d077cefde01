package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/abhilashpatra04/Deepresercher/pkg/types"
)

func init() {
	// Use a tiny base delay so retry tests finish quickly.
	backoffBase = time.Millisecond
}

// --- mock backend ---

type mockBackend struct {
	reply    string
	err      error
	failures int
	calls    int
	lastReq  Request
}

func (m *mockBackend) Name() string { return "mock" }

func (m *mockBackend) Complete(_ context.Context, req Request) (string, error) {
	m.calls++
	m.lastReq = req
	if m.err != nil && m.calls <= m.failures {
		return "", m.err
	}
	if m.err != nil && m.failures == 0 {
		return "", m.err
	}
	return m.reply, nil
}

// --- StripFences ---

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a": 1}`, `{"a": 1}`},
		{"fenced with language", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"fenced bare", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"fenced no closing", "```json\n{\"a\": 1}", `{"a": 1}`},
		{"surrounding whitespace", "  {\"a\": 1}\n", `{"a": 1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripFences(tt.in); got != tt.want {
				t.Errorf("StripFences(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// --- Generate ---

func TestGenerateAppliesDefaultTemperature(t *testing.T) {
	backend := &mockBackend{reply: "hello"}
	client := NewWithBackend(backend, 0.7, 3)

	got, err := client.Generate(context.Background(), Request{Prompt: "hi"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got != "hello" {
		t.Errorf("Generate() = %q, want %q", got, "hello")
	}
	if backend.lastReq.Temperature != 0.7 {
		t.Errorf("temperature = %f, want 0.7", backend.lastReq.Temperature)
	}
}

func TestGenerateKeepsExplicitTemperature(t *testing.T) {
	backend := &mockBackend{reply: "ok"}
	client := NewWithBackend(backend, 0.7, 3)

	if _, err := client.Generate(context.Background(), Request{Prompt: "hi", Temperature: 0.1}); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if backend.lastReq.Temperature != 0.1 {
		t.Errorf("temperature = %f, want 0.1", backend.lastReq.Temperature)
	}
}

func TestGenerateRetriesTransientFailures(t *testing.T) {
	backend := &mockBackend{reply: "recovered", err: fmt.Errorf("boom"), failures: 2}
	client := NewWithBackend(backend, 0.7, 3)

	got, err := client.Generate(context.Background(), Request{Prompt: "hi"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got != "recovered" {
		t.Errorf("Generate() = %q, want %q", got, "recovered")
	}
	if backend.calls != 3 {
		t.Errorf("calls = %d, want 3", backend.calls)
	}
}

func TestGenerateExhaustsRetries(t *testing.T) {
	backend := &mockBackend{err: fmt.Errorf("down")}
	client := NewWithBackend(backend, 0.7, 2)

	if _, err := client.Generate(context.Background(), Request{Prompt: "hi"}); err == nil {
		t.Fatal("Generate() error = nil, want retry exhaustion error")
	}
	// 1 initial + 2 retries.
	if backend.calls != 3 {
		t.Errorf("calls = %d, want 3", backend.calls)
	}
}

// --- GenerateJSON ---

func TestGenerateJSONParsesFencedResponse(t *testing.T) {
	backend := &mockBackend{reply: "```json\n{\"score\": 0.8}\n```"}
	client := NewWithBackend(backend, 0.7, 3)

	result := client.GenerateJSON(context.Background(), Request{Prompt: "judge"})
	if !result.OK {
		t.Fatalf("GenerateJSON() OK = false, raw %q", result.Raw)
	}

	var payload struct {
		Score float64 `json:"score"`
	}
	if !result.Decode(&payload) {
		t.Fatal("Decode() = false, want true")
	}
	if payload.Score != 0.8 {
		t.Errorf("score = %f, want 0.8", payload.Score)
	}
	if backend.lastReq.Temperature != jsonTemperature {
		t.Errorf("temperature = %f, want %f", backend.lastReq.Temperature, jsonTemperature)
	}
}

func TestGenerateJSONTagsMalformedResponse(t *testing.T) {
	backend := &mockBackend{reply: "Sorry, I cannot respond in JSON."}
	client := NewWithBackend(backend, 0.7, 3)

	result := client.GenerateJSON(context.Background(), Request{Prompt: "plan"})
	if result.OK {
		t.Fatal("GenerateJSON() OK = true, want false for non-JSON text")
	}
	if result.Raw != "Sorry, I cannot respond in JSON." {
		t.Errorf("Raw = %q, want the original text", result.Raw)
	}
	if result.Decode(&struct{}{}) {
		t.Error("Decode() = true on malformed result, want false")
	}
}

func TestGenerateJSONTagsBackendFailure(t *testing.T) {
	backend := &mockBackend{err: fmt.Errorf("unreachable")}
	client := NewWithBackend(backend, 0.7, 1)

	result := client.GenerateJSON(context.Background(), Request{Prompt: "plan"})
	if result.OK {
		t.Fatal("GenerateJSON() OK = true, want false on backend failure")
	}
	if result.Raw == "" {
		t.Error("Raw = \"\", want a failure note")
	}
}

func TestStructuredDecodeRejectsWrongShape(t *testing.T) {
	s := Structured{OK: true, Data: json.RawMessage(`{"score": "high"}`)}
	var payload struct {
		Score float64 `json:"score"`
	}
	if s.Decode(&payload) {
		t.Error("Decode() = true for mismatched shape, want false")
	}
}

// --- provider construction ---

func TestNewRejectsUnknownProvider(t *testing.T) {
	if _, err := New(types.LLMConfig{Provider: "openrouter"}); err == nil {
		t.Fatal("New() error = nil, want unknown provider error")
	}
}

// --- Groq backend ---

func TestGroqBackendComplete(t *testing.T) {
	var gotPath string
	var gotBody struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"groq says hi"}}]}`)
	}))
	defer ts.Close()

	oldBase := groqAPIBase
	groqAPIBase = ts.URL
	defer func() { groqAPIBase = oldBase }()

	backend := NewGroqBackend(types.LLMConfig{Provider: types.ProviderGroq, APIKey: "k"})
	got, err := backend.Complete(context.Background(), Request{Prompt: "hi", System: "be brief", Temperature: 0.3})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != "groq says hi" {
		t.Errorf("Complete() = %q, want %q", got, "groq says hi")
	}
	if gotPath != "/chat/completions" {
		t.Errorf("path = %q, want /chat/completions", gotPath)
	}
	if gotBody.Model != DefaultGroqModel {
		t.Errorf("model = %q, want default %q", gotBody.Model, DefaultGroqModel)
	}
	if len(gotBody.Messages) != 2 || gotBody.Messages[0].Role != "system" {
		t.Errorf("messages = %+v, want system turn then user turn", gotBody.Messages)
	}
}

// --- Gemini backend ---

func TestGeminiBackendComplete(t *testing.T) {
	var gotPath, gotKey string
	var gotBody struct {
		Contents []struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"contents"`
	}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		json.NewDecoder(r.Body).Decode(&gotBody)
		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"gemini "},{"text":"says hi"}]}}]}`)
	}))
	defer ts.Close()

	oldBase := geminiAPIBase
	geminiAPIBase = ts.URL
	defer func() { geminiAPIBase = oldBase }()

	backend := NewGeminiBackend(types.LLMConfig{Provider: types.ProviderGemini, APIKey: "gk"})
	got, err := backend.Complete(context.Background(), Request{Prompt: "hi", System: "be brief", Temperature: 0.3})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != "gemini says hi" {
		t.Errorf("Complete() = %q, want %q", got, "gemini says hi")
	}
	if gotPath != "/models/"+DefaultGeminiModel+":generateContent" {
		t.Errorf("path = %q, want generateContent for default model", gotPath)
	}
	if gotKey != "gk" {
		t.Errorf("api key header = %q, want %q", gotKey, "gk")
	}
	if len(gotBody.Contents) != 1 || len(gotBody.Contents[0].Parts) != 1 {
		t.Fatalf("contents = %+v, want one content with one part", gotBody.Contents)
	}
	if want := "be brief\n\nhi"; gotBody.Contents[0].Parts[0].Text != want {
		t.Errorf("prompt = %q, want system folded in front: %q", gotBody.Contents[0].Parts[0].Text, want)
	}
}

func TestGeminiBackendErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error": {"message": "bad key"}}`, http.StatusBadRequest)
	}))
	defer ts.Close()

	oldBase := geminiAPIBase
	geminiAPIBase = ts.URL
	defer func() { geminiAPIBase = oldBase }()

	backend := NewGeminiBackend(types.LLMConfig{Provider: types.ProviderGemini, APIKey: "bad"})
	if _, err := backend.Complete(context.Background(), Request{Prompt: "hi"}); err == nil {
		t.Fatal("Complete() error = nil, want status error")
	}
}
