package llm

import (
	"context"
	"io"
)

// ChatMessage is one prompt message in provider wire order
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Usage is token accounting reported by a provider
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Completion is a full, non-streamed model response
type Completion struct {
	Text      string
	Model     string
	Usage     Usage
	LatencyMs int64
}

// StreamRequest carries the parameters for a streamed chat call
type StreamRequest struct {
	Messages  []ChatMessage
	Model     string
	MaxTokens int
}

// Provider is the base interface all model providers implement
type Provider interface {
	// Name returns the provider identifier
	Name() string

	// DefaultModel returns the default model
	DefaultModel() string

	// IsConfigured checks if provider has valid credentials
	IsConfigured() bool
}

// Completer produces a single full completion (the suggestions path)
type Completer interface {
	Provider

	Complete(ctx context.Context, messages []ChatMessage, model string) (*Completion, error)
}

// Streamer returns the provider's raw SSE response body for a chat call.
// The body carries OpenAI-style delta frames and is consumed by the stream
// splitter, which forwards one copy to the browser untouched.
type Streamer interface {
	Provider

	Stream(ctx context.Context, req StreamRequest) (io.ReadCloser, error)
}
