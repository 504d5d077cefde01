// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/abhilashpatra04/Deepresercher/pkg/types"
)

// groqAPIBase is the OpenAI-compatible Groq endpoint. Package-level var
// for test substitution.
var groqAPIBase = "https://api.groq.com/openai/v1"

// DefaultGroqModel is used when the configuration names no model.
const DefaultGroqModel = "llama-3.3-70b-versatile"

// GroqBackend calls Groq's chat completions API through the
// OpenAI-compatible client. Per prd007-llm R1.3.
type GroqBackend struct {
	client    *openai.Client
	model     string
	maxTokens int
}

// NewGroqBackend builds the Groq backend from configuration.
func NewGroqBackend(cfg types.LLMConfig) *GroqBackend {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = groqAPIBase

	model := cfg.Model
	if model == "" {
		model = DefaultGroqModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	return &GroqBackend{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     model,
		maxTokens: maxTokens,
	}
}

// Name identifies the backend in wrapped errors.
func (b *GroqBackend) Name() string { return "groq" }

// Complete sends one chat completion request and returns the first
// choice's content.
func (b *GroqBackend) Complete(ctx context.Context, req Request) (string, error) {
	var messages []openai.ChatCompletionMessage
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       b.model,
		Messages:    messages,
		Temperature: float32(req.Temperature),
		MaxTokens:   b.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("calling Groq API: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("Groq API returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
