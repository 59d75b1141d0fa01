package service

import (
	"context"
	"fmt"

	"github.com/askpage/askpage/internal/domain"
	"github.com/askpage/askpage/internal/security"
	"github.com/google/uuid"
)

// ConversationService exposes conversation management guarded by visitor
// token ownership: every operation proves the caller owns the conversation
// before touching it.
type ConversationService struct {
	repo domain.ConversationRepository
}

// NewConversationService creates a new conversation service
func NewConversationService(repo domain.ConversationRepository) *ConversationService {
	return &ConversationService{repo: repo}
}

// List returns the visitor's conversations for the project, newest first.
// The token must cover the requested visitor/project pair.
func (s *ConversationService) List(ctx context.Context, visitorID string, projectID uuid.UUID, claims *security.TokenClaims) ([]domain.ConversationSummary, error) {
	if claims == nil {
		return nil, domain.ErrUnauthorized
	}
	if claims.VisitorID != visitorID || claims.ProjectID != projectID.String() {
		return nil, fmt.Errorf("%w: token does not cover this visitor", domain.ErrForbidden)
	}
	return s.repo.ListByVisitor(ctx, visitorID, projectID)
}

// Messages returns a conversation with its full message history
func (s *ConversationService) Messages(ctx context.Context, id uuid.UUID, claims *security.TokenClaims) (*domain.Conversation, error) {
	return s.owned(ctx, id, claims)
}

// Reset clears the conversation for the (visitor, article, project) triple,
// keeping its identity and article snapshot. The token must cover the triple
// being reset: a valid token for another visitor or project is a 403, not a
// 401.
func (s *ConversationService) Reset(ctx context.Context, visitorID, articleUID string, projectID uuid.UUID, claims *security.TokenClaims) (uuid.UUID, error) {
	if claims == nil {
		return uuid.Nil, domain.ErrUnauthorized
	}
	if claims.VisitorID != visitorID || claims.ProjectID != projectID.String() {
		return uuid.Nil, fmt.Errorf("%w: token does not cover this conversation", domain.ErrForbidden)
	}
	return s.repo.Reset(ctx, visitorID, articleUID, projectID)
}

// Delete removes a conversation entirely
func (s *ConversationService) Delete(ctx context.Context, id uuid.UUID, claims *security.TokenClaims) error {
	if _, err := s.owned(ctx, id, claims); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// owned fetches the conversation and verifies the token covers it. Existence
// is checked before ownership, so an owner probing a deleted conversation
// still sees not-found.
func (s *ConversationService) owned(ctx context.Context, id uuid.UUID, claims *security.TokenClaims) (*domain.Conversation, error) {
	if claims == nil {
		return nil, domain.ErrUnauthorized
	}

	conv, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if conv.VisitorID != claims.VisitorID || conv.ProjectID.String() != claims.ProjectID {
		return nil, fmt.Errorf("%w: conversation belongs to another visitor", domain.ErrForbidden)
	}
	return conv, nil
}
