// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm provides the language model gateway used by every agent in
// the pipeline: unstructured generation plus structured generation with a
// tagged parse result. Provider selection is explicit configuration.
// Implements: prd007-llm (R1-R4); docs/ARCHITECTURE § Model Gateway.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/abhilashpatra04/Deepresercher/pkg/types"
)

// Request is one generation request. A zero Temperature selects the
// gateway's configured default.
type Request struct {
	// Prompt is the user-turn text.
	Prompt string

	// System is the optional system-turn text.
	System string

	// Temperature is the sampling temperature in [0,1].
	Temperature float64
}

// Structured is the tagged result of a structured generation call.
// OK carries parsed JSON in Data; not-OK carries the raw model text (or
// the failure note) in Raw. Consumers must handle both arms; a malformed
// response is a value here, never an error. Per prd007-llm R3.2.
type Structured struct {
	// OK reports whether the response parsed as JSON.
	OK bool

	// Data is the parsed JSON payload when OK.
	Data json.RawMessage

	// Raw is the unparsed model output, kept for feedback text.
	Raw string
}

// Decode unmarshals the structured payload into v. It returns false when
// the result is not OK or when the payload does not fit v's shape, so
// callers branch to their fallback on a single condition.
func (s Structured) Decode(v any) bool {
	if !s.OK {
		return false
	}
	return json.Unmarshal(s.Data, v) == nil
}

// Gateway is the two-operation surface the agents depend on.
// Per prd007-llm R2.1-R2.2.
type Gateway interface {
	// Generate returns the model's text for a prompt.
	Generate(ctx context.Context, req Request) (string, error)

	// GenerateJSON runs a generation expected to yield JSON and tags the
	// outcome. It never returns an error: failures land in the Structured
	// result's not-OK arm.
	GenerateJSON(ctx context.Context, req Request) Structured
}

// Backend abstracts a single provider API so tests can supply a mock.
// Per Strategy pattern (prd007-llm R1.3).
type Backend interface {
	Name() string
	Complete(ctx context.Context, req Request) (string, error)
}

// jsonInstruction is appended to every structured prompt.
const jsonInstruction = "\n\nRespond ONLY with valid JSON, no markdown formatting."

// jsonTemperature is the fixed sampling temperature for structured calls.
const jsonTemperature = 0.3

// Client adapts a provider backend into the Gateway surface, adding the
// default temperature, retry with backoff, and structured-result tagging.
type Client struct {
	backend     Backend
	temperature float64
	maxRetries  int
}

// New constructs the gateway for the configured provider. The provider
// value is the only ambient-free selection point; an unknown provider is
// a configuration error. Per prd007-llm R1.1-R1.2.
func New(cfg types.LLMConfig) (*Client, error) {
	var backend Backend
	switch cfg.Provider {
	case types.ProviderGroq:
		backend = NewGroqBackend(cfg)
	case types.ProviderGemini:
		backend = NewGeminiBackend(cfg)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}

	temperature := cfg.Temperature
	if temperature <= 0 {
		temperature = 0.7
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	return &Client{backend: backend, temperature: temperature, maxRetries: maxRetries}, nil
}

// NewWithBackend wraps an existing backend; used when a caller supplies
// its own provider implementation.
func NewWithBackend(backend Backend, temperature float64, maxRetries int) *Client {
	if temperature <= 0 {
		temperature = 0.7
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Client{backend: backend, temperature: temperature, maxRetries: maxRetries}
}

// Generate returns the model's text for the request, retrying transient
// backend failures with exponential backoff.
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	if req.Temperature <= 0 {
		req.Temperature = c.temperature
	}
	return callWithRetry(ctx, c.backend, req, c.maxRetries)
}

// GenerateJSON appends the JSON instruction, generates at the structured
// temperature, strips markdown fences, and tags the parse outcome.
func (c *Client) GenerateJSON(ctx context.Context, req Request) Structured {
	req.Prompt += jsonInstruction
	req.Temperature = jsonTemperature

	text, err := c.Generate(ctx, req)
	if err != nil {
		return Structured{Raw: fmt.Sprintf("generation failed: %v", err)}
	}

	cleaned := StripFences(text)
	if !json.Valid([]byte(cleaned)) {
		return Structured{Raw: text}
	}
	return Structured{OK: true, Data: json.RawMessage(cleaned), Raw: text}
}

// StripFences removes a surrounding markdown code fence from a model
// response, tolerating a language tag on the opening fence.
func StripFences(text string) string {
	cleaned := strings.TrimSpace(text)
	if !strings.HasPrefix(cleaned, "```") {
		return cleaned
	}

	lines := strings.Split(cleaned, "\n")
	lines = lines[1:]
	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// backoffBase controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var backoffBase = time.Second

// callWithRetry calls the backend with exponential backoff (R4.1).
func callWithRetry(ctx context.Context, backend Backend, req Request, maxRetries int) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		text, err := backend.Complete(ctx, req)
		if err == nil {
			return text, nil
		}
		lastErr = err
	}
	return "", fmt.Errorf("%s: after %d retries: %w", backend.Name(), maxRetries, lastErr)
}
