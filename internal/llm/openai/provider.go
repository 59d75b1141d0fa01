package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/askpage/askpage/internal/domain"
	"github.com/askpage/askpage/internal/llm"
)

// Provider implements llm.Streamer and llm.Completer against any
// OpenAI-compatible chat completions endpoint.
type Provider struct {
	apiKey       string
	defaultModel string
	client       *http.Client
	baseURL      string
}

// NewProvider creates a new OpenAI-compatible provider. baseURL may point at
// any service speaking the same API (DeepSeek, Ollama's compat endpoint).
func NewProvider(apiKey, defaultModel, baseURL string) *Provider {
	if defaultModel == "" {
		defaultModel = "gpt-4o-mini"
	}
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &Provider{
		apiKey:       apiKey,
		defaultModel: defaultModel,
		client:       &http.Client{Timeout: 120 * time.Second},
		baseURL:      baseURL,
	}
}

// Name returns the provider identifier
func (p *Provider) Name() string {
	return "openai"
}

// DefaultModel returns the default model
func (p *Provider) DefaultModel() string {
	return p.defaultModel
}

// IsConfigured checks if provider has valid credentials
func (p *Provider) IsConfigured() bool {
	return p.apiKey != ""
}

type chatRequest struct {
	Model         string            `json:"model"`
	Messages      []llm.ChatMessage `json:"messages"`
	Temperature   float64           `json:"temperature"`
	MaxTokens     int               `json:"max_tokens,omitempty"`
	Stream        bool              `json:"stream,omitempty"`
	StreamOptions *streamOptions    `json:"stream_options,omitempty"`
}

type streamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage llm.Usage `json:"usage"`
}

// Stream opens a streaming chat completion and returns the raw SSE body.
// The caller owns the body and must close it.
func (p *Provider) Stream(ctx context.Context, req llm.StreamRequest) (io.ReadCloser, error) {
	model := req.Model
	if model == "" {
		model = p.defaultModel
	}

	chatReq := chatRequest{
		Model:       model,
		Messages:    req.Messages,
		Temperature: 0.3,
		MaxTokens:   req.MaxTokens,
		Stream:      true,
		// Usage arrives in the final frame so the collector can account
		// tokens without a second request.
		StreamOptions: &streamOptions{IncludeUsage: true},
	}

	resp, err := p.post(ctx, chatReq)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, fmt.Errorf("%w: status %d: %s", domain.ErrUpstream, resp.StatusCode, bytes.TrimSpace(body))
	}

	return resp.Body, nil
}

// Complete performs a non-streamed chat completion
func (p *Provider) Complete(ctx context.Context, messages []llm.ChatMessage, model string) (*llm.Completion, error) {
	if model == "" {
		model = p.defaultModel
	}

	chatReq := chatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: 0.3,
	}

	start := time.Now()
	resp, err := p.post(ctx, chatReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", domain.ErrUpstream, resp.StatusCode)
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty response", domain.ErrUpstream)
	}

	return &llm.Completion{
		Text:      chatResp.Choices[0].Message.Content,
		Model:     model,
		Usage:     chatResp.Usage,
		LatencyMs: time.Since(start).Milliseconds(),
	}, nil
}

func (p *Provider) post(ctx context.Context, chatReq chatRequest) (*http.Response, error) {
	body, err := json.Marshal(chatReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	return resp, nil
}
