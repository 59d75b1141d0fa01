package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/askpage/askpage/internal/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fakeCounterStore struct {
	counts map[string]int64
	err    error
	calls  []string
}

func (f *fakeCounterStore) Incr(_ context.Context, key string, _ time.Duration) (int64, error) {
	f.calls = append(f.calls, key)
	if f.err != nil {
		return 0, f.err
	}
	if f.counts == nil {
		f.counts = make(map[string]int64)
	}
	f.counts[key]++
	return f.counts[key], nil
}

func testLimits() config.LimitsConfig {
	return config.LimitsConfig{
		Chat:        config.EndpointLimit{Visitor: 20, Project: 500},
		Suggestions: config.EndpointLimit{Visitor: 5, Project: 200},
	}
}

func TestRateLimiterUnderLimit(t *testing.T) {
	store := &fakeCounterStore{}
	limiter := NewRateLimiter(store, testLimits())

	for i := 0; i < 5; i++ {
		res := limiter.Check(context.Background(), "chat", "v1", uuid.New())
		assert.False(t, res.Limited)
	}
}

func TestRateLimiterVisitorLimitExceeded(t *testing.T) {
	store := &fakeCounterStore{}
	limiter := NewRateLimiter(store, testLimits())
	projectID := uuid.New()

	var res Result
	for i := 0; i < 6; i++ {
		res = limiter.Check(context.Background(), "suggestions", "v1", projectID)
	}

	assert.True(t, res.Limited)
	assert.Equal(t, "visitor", res.Scope)
	assert.GreaterOrEqual(t, res.RetryAfterSeconds, 1)
	assert.LessOrEqual(t, res.RetryAfterSeconds, 60)
}

func TestRateLimiterCrossEndpointIndependence(t *testing.T) {
	// Six requests per minute pass on chat (limit 20) but trip suggestions
	// (limit 5) for the same visitor.
	store := &fakeCounterStore{}
	limiter := NewRateLimiter(store, testLimits())
	projectID := uuid.New()

	var chatRes, suggRes Result
	for i := 0; i < 6; i++ {
		chatRes = limiter.Check(context.Background(), "chat", "v1", projectID)
		suggRes = limiter.Check(context.Background(), "suggestions", "v1", projectID)
	}

	assert.False(t, chatRes.Limited)
	assert.True(t, suggRes.Limited)
}

func TestRateLimiterSkipsVisitorKeyWhenAnonymous(t *testing.T) {
	store := &fakeCounterStore{}
	limiter := NewRateLimiter(store, testLimits())

	limiter.Check(context.Background(), "chat", "", uuid.New())

	assert.Len(t, store.calls, 1)
	assert.Contains(t, store.calls[0], ":project:")
}

func TestRateLimiterFailsOpenOnStoreError(t *testing.T) {
	store := &fakeCounterStore{err: errors.New("connection refused")}
	limiter := NewRateLimiter(store, testLimits())

	res := limiter.Check(context.Background(), "chat", "v1", uuid.New())
	assert.False(t, res.Limited)
}

func TestRateLimiterWindowBoundary(t *testing.T) {
	store := &fakeCounterStore{}
	limiter := NewRateLimiter(store, testLimits())
	projectID := uuid.New()

	// 10 seconds into the window, 50 to go.
	base := time.Date(2025, 6, 1, 12, 30, 10, 0, time.UTC)
	limiter.now = func() time.Time { return base }

	var res Result
	for i := 0; i < 7; i++ {
		res = limiter.Check(context.Background(), "suggestions", "v1", projectID)
	}
	assert.True(t, res.Limited)
	assert.Equal(t, 50, res.RetryAfterSeconds)

	// Crossing the minute boundary resets the counter via a new key.
	limiter.now = func() time.Time { return base.Add(time.Minute) }
	res = limiter.Check(context.Background(), "suggestions", "v1", projectID)
	assert.False(t, res.Limited)
}

func TestRateLimiterUnknownEndpoint(t *testing.T) {
	store := &fakeCounterStore{}
	limiter := NewRateLimiter(store, testLimits())

	res := limiter.Check(context.Background(), "unknown", "v1", uuid.New())
	assert.False(t, res.Limited)
	assert.Empty(t, store.calls)
}
