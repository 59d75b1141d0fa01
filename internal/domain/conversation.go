package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MessageRole represents the sender of a message
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Valid reports whether the role is one the model may receive.
// Anything else stored in history is dropped, never forwarded.
func (r MessageRole) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Message is a single turn in a conversation. Immutable once appended.
type Message struct {
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	CharCount int         `json:"char_count"`
	CreatedAt time.Time   `json:"created_at"`
}

// NewMessage builds a message with its char count cached
func NewMessage(role MessageRole, content string, at time.Time) Message {
	return Message{
		Role:      role,
		Content:   content,
		CharCount: len(content),
		CreatedAt: at,
	}
}

// Conversation is the message history between one visitor and one article.
// Identity is the (visitor, article, project) triple, unique per combination.
// MessageCount and TotalChars are maintained transactionally on every append.
type Conversation struct {
	ID             uuid.UUID `json:"id"`
	ProjectID      uuid.UUID `json:"project_id"`
	ArticleUID     string    `json:"article_unique_id"`
	VisitorID      string    `json:"visitor_id"`
	SessionID      string    `json:"session_id,omitempty"`
	ArticleTitle   string    `json:"article_title"`
	ArticleContent string    `json:"article_content"`
	ArticleURL     string    `json:"article_url"`
	Messages       []Message `json:"messages"`
	StartedAt      time.Time `json:"started_at"`
	LastMessageAt  time.Time `json:"last_message_at"`
	MessageCount   int       `json:"message_count"`
	TotalChars     int       `json:"total_chars"`
}

// ConversationSummary is the list-view projection returned to the widget
type ConversationSummary struct {
	ID            uuid.UUID `json:"id"`
	ArticleTitle  string    `json:"article_title"`
	ArticleURL    string    `json:"article_url"`
	LastMessageAt time.Time `json:"last_message_at"`
	MessageCount  int       `json:"message_count"`
}

// ConversationRepository defines the interface for conversation storage
type ConversationRepository interface {
	// GetOrCreate returns the conversation for the (visitor, article,
	// project) triple, inserting an empty one if none exists. The insert
	// is conflict-tolerant: a concurrent winner's row is re-fetched.
	GetOrCreate(ctx context.Context, conv *Conversation) (*Conversation, error)

	Get(ctx context.Context, id uuid.UUID) (*Conversation, error)

	// AppendMessages appends exactly one user/assistant pair and updates
	// last_message_at, message_count and total_chars in the same statement.
	AppendMessages(ctx context.Context, id uuid.UUID, userMsg, assistantMsg Message, priorCount, priorChars int) error

	// Reset clears messages and counters, keeping the article snapshot.
	// Returns the id of the cleared row.
	Reset(ctx context.Context, visitorID, articleUID string, projectID uuid.UUID) (uuid.UUID, error)

	ListByVisitor(ctx context.Context, visitorID string, projectID uuid.UUID) ([]ConversationSummary, error)

	Delete(ctx context.Context, id uuid.UUID) error
}
