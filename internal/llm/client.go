// Package llm provides LLM client interfaces and implementations.
package llm

import (
	"context"
)

// StreamCallback is called for each text chunk during streaming.
type StreamCallback func(chunk string, index int) error

// CompletionRequest represents a completion request.
type CompletionRequest struct {
	Model             string
	SystemInstruction string
	Messages          []ChatMessage
	MaxTokens         int
	Temperature       float64
}

// ChatMessage represents a chat message for the LLM.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionResponse represents a completion response.
type CompletionResponse struct {
	Content      string
	Model        string
	TokensIn     int
	TokensOut    int
	FinishReason string
	LatencyMs    int64
}

// Client is the interface for LLM providers. Both invocation shapes
// share one contract so the gate/ledger/recorder wiring upstream of
// the call is identical for streaming and single-shot requests.
type Client interface {
	// Complete sends a completion request and waits for the full response.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// CompleteStream sends a streaming completion request, invoking the
	// callback per chunk, and returns the aggregated response.
	CompleteStream(ctx context.Context, req *CompletionRequest, callback StreamCallback) (*CompletionResponse, error)

	// Name returns the provider name.
	Name() string
}

// Provider is the type of LLM provider.
type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderOpenAI Provider = "openai"
)

// NewClient creates a new LLM client based on provider.
func NewClient(provider Provider, apiKey, defaultModel string) (Client, error) {
	switch provider {
	case ProviderOpenAI:
		return NewOpenAIClient(apiKey, defaultModel)
	default:
		return NewGeminiClient(apiKey, defaultModel)
	}
}
