package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/askpage/askpage/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ConversationRepository implements domain.ConversationRepository
type ConversationRepository struct {
	pool *pgxpool.Pool
}

// NewConversationRepository creates a new conversation repository
func NewConversationRepository(pool *pgxpool.Pool) *ConversationRepository {
	return &ConversationRepository{pool: pool}
}

const conversationColumns = `
	id, project_id, article_uid, visitor_id, session_id,
	article_title, article_content, article_url, messages,
	started_at, last_message_at, message_count, total_chars
`

// GetOrCreate returns the conversation for the (visitor, article, project)
// triple, inserting an empty row if none exists. The unique constraint on
// the triple plus ON CONFLICT DO NOTHING makes concurrent first requests
// converge on one row: the loser of the insert race re-fetches the winner's.
func (r *ConversationRepository) GetOrCreate(ctx context.Context, conv *domain.Conversation) (*domain.Conversation, error) {
	existing, err := r.getByTriple(ctx, conv.VisitorID, conv.ArticleUID, conv.ProjectID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	now := time.Now()
	insert := `
		INSERT INTO conversations (
			id, project_id, article_uid, visitor_id, session_id,
			article_title, article_content, article_url, messages,
			started_at, last_message_at, message_count, total_chars
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, '[]'::jsonb, $9, $9, 0, 0)
		ON CONFLICT (visitor_id, article_uid, project_id) DO NOTHING
	`
	_, err = r.pool.Exec(ctx, insert,
		uuid.New(),
		conv.ProjectID,
		conv.ArticleUID,
		conv.VisitorID,
		conv.SessionID,
		conv.ArticleTitle,
		conv.ArticleContent,
		conv.ArticleURL,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}

	return r.getByTriple(ctx, conv.VisitorID, conv.ArticleUID, conv.ProjectID)
}

func (r *ConversationRepository) getByTriple(ctx context.Context, visitorID, articleUID string, projectID uuid.UUID) (*domain.Conversation, error) {
	query := `
		SELECT ` + conversationColumns + `
		FROM conversations
		WHERE visitor_id = $1 AND article_uid = $2 AND project_id = $3
	`
	return r.scanOne(r.pool.QueryRow(ctx, query, visitorID, articleUID, projectID))
}

// Get retrieves a conversation by id
func (r *ConversationRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Conversation, error) {
	query := `
		SELECT ` + conversationColumns + `
		FROM conversations
		WHERE id = $1
	`
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

func (r *ConversationRepository) scanOne(row pgx.Row) (*domain.Conversation, error) {
	var c domain.Conversation
	var messagesJSON []byte

	err := row.Scan(
		&c.ID,
		&c.ProjectID,
		&c.ArticleUID,
		&c.VisitorID,
		&c.SessionID,
		&c.ArticleTitle,
		&c.ArticleContent,
		&c.ArticleURL,
		&messagesJSON,
		&c.StartedAt,
		&c.LastMessageAt,
		&c.MessageCount,
		&c.TotalChars,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}

	if len(messagesJSON) > 0 {
		if err := json.Unmarshal(messagesJSON, &c.Messages); err != nil {
			return nil, fmt.Errorf("failed to unmarshal messages: %w", err)
		}
	}
	return &c, nil
}

// AppendMessages appends one user/assistant pair and updates the counters
// in the same statement, keeping message_count and total_chars consistent
// with the messages array.
func (r *ConversationRepository) AppendMessages(ctx context.Context, id uuid.UUID, userMsg, assistantMsg domain.Message, priorCount, priorChars int) error {
	pair, err := json.Marshal([]domain.Message{userMsg, assistantMsg})
	if err != nil {
		return fmt.Errorf("failed to marshal message pair: %w", err)
	}

	query := `
		UPDATE conversations
		SET messages = messages || $2::jsonb,
		    message_count = $3,
		    total_chars = $4,
		    last_message_at = $5
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query,
		id,
		pair,
		priorCount+2,
		priorChars+userMsg.CharCount+assistantMsg.CharCount,
		assistantMsg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append messages: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Reset clears messages and counters for the matching row, keeping the
// article snapshot, and returns the row's id.
func (r *ConversationRepository) Reset(ctx context.Context, visitorID, articleUID string, projectID uuid.UUID) (uuid.UUID, error) {
	query := `
		UPDATE conversations
		SET messages = '[]'::jsonb,
		    message_count = 0,
		    total_chars = 0,
		    last_message_at = $4
		WHERE visitor_id = $1 AND article_uid = $2 AND project_id = $3
		RETURNING id
	`
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, query, visitorID, articleUID, projectID, time.Now()).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, domain.ErrNotFound
		}
		return uuid.Nil, fmt.Errorf("failed to reset conversation: %w", err)
	}
	return id, nil
}

// ListByVisitor returns the visitor's conversations, most recent first
func (r *ConversationRepository) ListByVisitor(ctx context.Context, visitorID string, projectID uuid.UUID) ([]domain.ConversationSummary, error) {
	query := `
		SELECT id, article_title, article_url, last_message_at, message_count
		FROM conversations
		WHERE visitor_id = $1 AND project_id = $2
		ORDER BY last_message_at DESC
	`
	rows, err := r.pool.Query(ctx, query, visitorID, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	var summaries []domain.ConversationSummary
	for rows.Next() {
		var s domain.ConversationSummary
		if err := rows.Scan(
			&s.ID,
			&s.ArticleTitle,
			&s.ArticleURL,
			&s.LastMessageAt,
			&s.MessageCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}

// Delete removes a conversation by id
func (r *ConversationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM conversations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
