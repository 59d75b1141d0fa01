package service

import (
	"context"
	"testing"

	"github.com/askpage/askpage/internal/domain"
	"github.com/askpage/askpage/internal/repository/redis"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newAnalyticsFixture() (*AnalyticsService, *MockProjectRepository, *MockEventRepository, *domain.Project) {
	projectRepo := new(MockProjectRepository)
	eventRepo := new(MockEventRepository)

	project := &domain.Project{ID: uuid.New(), AllowedOrigins: []string{"example.com"}}

	svc := NewAnalyticsService(
		NewProjectService(projectRepo, nil),
		eventRepo,
		redis.NewRateLimiter(newMemoryCounter(), testLimits()),
	)
	return svc, projectRepo, eventRepo, project
}

func TestAnalyticsService_Track(t *testing.T) {
	svc, projectRepo, eventRepo, project := newAnalyticsFixture()
	ctx := context.Background()

	projectRepo.On("Get", mock.Anything, project.ID).Return(project, nil)
	eventRepo.On("Insert", mock.Anything, mock.AnythingOfType("*domain.Event")).Return(nil)

	err := svc.Track(ctx, AnalyticsEvent{
		ProjectID: project.ID,
		EventType: "widget_opened",
		VisitorID: "visitor-1",
		Origin:    "https://example.com",
		Data:      map[string]any{"page": "/post"},
	})
	require.NoError(t, err)

	inserted := eventRepo.Calls[0].Arguments.Get(1).(*domain.Event)
	assert.Equal(t, "widget_opened", inserted.Type)
	assert.Equal(t, project.ID, inserted.ProjectID)
	assert.False(t, inserted.CreatedAt.IsZero())
}

func TestAnalyticsService_RejectsUnknownEventType(t *testing.T) {
	svc, projectRepo, eventRepo, project := newAnalyticsFixture()
	ctx := context.Background()

	err := svc.Track(ctx, AnalyticsEvent{
		ProjectID: project.ID,
		EventType: "drop_tables",
		Origin:    "https://example.com",
	})
	assert.ErrorIs(t, err, domain.ErrInvalid)

	// Rejected before any lookup or write.
	projectRepo.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	eventRepo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestAnalyticsService_RejectsOversizedData(t *testing.T) {
	svc, projectRepo, eventRepo, project := newAnalyticsFixture()
	ctx := context.Background()

	projectRepo.On("Get", mock.Anything, project.ID).Return(project, nil)

	data := make(map[string]any)
	for i := 0; i < analyticsDataMaxKeys+1; i++ {
		data[uuid.New().String()] = i
	}

	err := svc.Track(ctx, AnalyticsEvent{
		ProjectID: project.ID,
		EventType: "feedback",
		Origin:    "https://example.com",
		Data:      data,
	})
	assert.ErrorIs(t, err, domain.ErrInvalid)
	eventRepo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestAnalyticsService_OriginChecked(t *testing.T) {
	svc, projectRepo, eventRepo, project := newAnalyticsFixture()
	ctx := context.Background()

	projectRepo.On("Get", mock.Anything, project.ID).Return(project, nil)

	err := svc.Track(ctx, AnalyticsEvent{
		ProjectID: project.ID,
		EventType: "widget_loaded",
		Origin:    "https://evil.com",
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	eventRepo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}
