package redis

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/askpage/askpage/internal/config"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const rateLimitPrefix = "ratelimit:"

// CounterStore is the storage operation the limiter needs: an atomic
// increment with an expiry on first write.
type CounterStore interface {
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// Result is the outcome of a rate limit check
type Result struct {
	Limited           bool
	Scope             string
	RetryAfterSeconds int
}

// RateLimiter enforces per-endpoint tumbling-window limits with project-wide
// and per-visitor scopes. Storage failures fail open: a missed check degrades
// to cost risk, a false positive would break the widget outright.
type RateLimiter struct {
	store  CounterStore
	limits config.LimitsConfig
	now    func() time.Time
}

// NewRateLimiter creates a rate limiter backed by the given counter store
func NewRateLimiter(store CounterStore, limits config.LimitsConfig) *RateLimiter {
	return &RateLimiter{store: store, limits: limits, now: time.Now}
}

// Check applies the endpoint's limits. The project-scoped key is always
// checked; the visitor-scoped key only when a visitor id is supplied.
// The first exceeded limit wins and remaining keys are not checked.
func (r *RateLimiter) Check(ctx context.Context, endpoint string, visitorID string, projectID uuid.UUID) Result {
	limit, ok := r.limits.ForEndpoint(endpoint)
	if !ok {
		return Result{}
	}

	now := r.now().UTC()
	windowStart := now.Truncate(time.Minute)

	if res := r.checkKey(ctx, endpoint, "project", projectID.String(), limit.Project, now, windowStart); res.Limited {
		return res
	}
	if visitorID != "" {
		if res := r.checkKey(ctx, endpoint, "visitor", visitorID, limit.Visitor, now, windowStart); res.Limited {
			return res
		}
	}
	return Result{}
}

func (r *RateLimiter) checkKey(ctx context.Context, endpoint, scope, id string, limit int, now, windowStart time.Time) Result {
	if limit <= 0 {
		return Result{}
	}

	key := fmt.Sprintf("%s%s:%s:%s:%d", rateLimitPrefix, endpoint, scope, id, windowStart.Unix())

	count, err := r.store.Incr(ctx, key, 2*time.Minute)
	if err != nil {
		log.Warn().Err(err).
			Str("endpoint", endpoint).
			Str("scope", scope).
			Msg("rate limit check failed, allowing request")
		return Result{}
	}

	if count <= int64(limit) {
		return Result{}
	}

	windowEnd := windowStart.Add(time.Minute)
	retry := int(math.Ceil(windowEnd.Sub(now).Seconds()))
	if retry < 1 {
		retry = 1
	}
	if retry > 60 {
		retry = 60
	}

	return Result{Limited: true, Scope: scope, RetryAfterSeconds: retry}
}
