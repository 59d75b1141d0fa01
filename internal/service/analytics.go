package service

import (
	"context"
	"fmt"
	"time"

	"github.com/askpage/askpage/internal/domain"
	"github.com/askpage/askpage/internal/repository/redis"
	"github.com/askpage/askpage/internal/sanitize"
	"github.com/google/uuid"
)

const analyticsDataMaxKeys = 20

// AnalyticsEvent is a widget telemetry submission
type AnalyticsEvent struct {
	ProjectID uuid.UUID
	EventType string
	Label     string
	VisitorID string
	SessionID string
	Data      map[string]any
	Origin    string
}

// AnalyticsService validates and records widget events
type AnalyticsService struct {
	projects *ProjectService
	events   domain.EventRepository
	limiter  *redis.RateLimiter
	allowed  domain.EventTypes
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(projects *ProjectService, events domain.EventRepository, limiter *redis.RateLimiter) *AnalyticsService {
	return &AnalyticsService{
		projects: projects,
		events:   events,
		limiter:  limiter,
		allowed:  domain.DefaultEventTypes(),
	}
}

// Track validates the event against the allow-list and records it
func (s *AnalyticsService) Track(ctx context.Context, ev AnalyticsEvent) error {
	if !s.allowed.Allowed(ev.EventType) {
		return fmt.Errorf("%w: unknown event type %q", domain.ErrInvalid, ev.EventType)
	}

	project, err := s.projects.Authorize(ctx, ev.ProjectID, ev.Origin)
	if err != nil {
		return err
	}

	if res := s.limiter.Check(ctx, "analytics", ev.VisitorID, project.ID); res.Limited {
		return &RateLimitError{Scope: res.Scope, RetryAfterSeconds: res.RetryAfterSeconds}
	}

	if len(ev.Data) > analyticsDataMaxKeys {
		return fmt.Errorf("%w: event data too large", domain.ErrInvalid)
	}

	return s.events.Insert(ctx, &domain.Event{
		ProjectID: project.ID,
		Type:      ev.EventType,
		Label:     sanitize.Clean(ev.Label),
		VisitorID: ev.VisitorID,
		SessionID: ev.SessionID,
		Data:      ev.Data,
		CreatedAt: time.Now(),
	})
}
