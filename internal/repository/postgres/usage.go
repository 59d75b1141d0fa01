package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/askpage/askpage/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UsageRepository implements domain.UsageRepository
type UsageRepository struct {
	pool *pgxpool.Pool
}

// NewUsageRepository creates a new token usage repository
func NewUsageRepository(pool *pgxpool.Pool) *UsageRepository {
	return &UsageRepository{pool: pool}
}

// Record inserts a token usage row
func (r *UsageRepository) Record(ctx context.Context, usage *domain.TokenUsage) error {
	if usage.ID == uuid.Nil {
		usage.ID = uuid.New()
	}
	if usage.CreatedAt.IsZero() {
		usage.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO token_usage (id, project_id, conversation_id, model, prompt_tokens, completion_tokens, total_tokens, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.pool.Exec(ctx, query,
		usage.ID,
		usage.ProjectID,
		usage.ConversationID,
		usage.Model,
		usage.PromptTokens,
		usage.CompletionTokens,
		usage.TotalTokens,
		usage.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record token usage: %w", err)
	}
	return nil
}
