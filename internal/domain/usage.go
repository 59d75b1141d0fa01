package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TokenUsage records model token accounting for one completed answer
type TokenUsage struct {
	ID               uuid.UUID `json:"id"`
	ProjectID        uuid.UUID `json:"project_id"`
	ConversationID   uuid.UUID `json:"conversation_id"`
	Model            string    `json:"model"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	TotalTokens      int       `json:"total_tokens"`
	CreatedAt        time.Time `json:"created_at"`
}

// UsageRepository defines the interface for token usage accounting
type UsageRepository interface {
	Record(ctx context.Context, usage *TokenUsage) error
}
