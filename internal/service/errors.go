package service

import (
	"fmt"

	"github.com/askpage/askpage/internal/domain"
)

// RateLimitError reports an exceeded request-rate window
type RateLimitError struct {
	Scope             string
	RetryAfterSeconds int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded (%s scope), retry in %ds", e.Scope, e.RetryAfterSeconds)
}

func (e *RateLimitError) Unwrap() error {
	return domain.ErrRateLimited
}

// ConversationLimitError reports a conversation that reached its message cap
type ConversationLimitError struct {
	Limit int
}

func (e *ConversationLimitError) Error() string {
	return fmt.Sprintf("conversation limit of %d messages reached", e.Limit)
}
