package service

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/askpage/askpage/internal/domain"
	"github.com/askpage/askpage/internal/llm"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockProjectRepository mocks the ProjectRepository interface
type MockProjectRepository struct {
	mock.Mock
}

func (m *MockProjectRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Project), args.Error(1)
}

// MockArticleRepository mocks the ArticleRepository interface
type MockArticleRepository struct {
	mock.Mock
}

func (m *MockArticleRepository) GetOrCreate(ctx context.Context, article *domain.Article) (*domain.Article, error) {
	args := m.Called(ctx, article)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Article), args.Error(1)
}

func (m *MockArticleRepository) GetByUniqueID(ctx context.Context, uniqueID string) (*domain.Article, error) {
	args := m.Called(ctx, uniqueID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Article), args.Error(1)
}

func (m *MockArticleRepository) UpdateImage(ctx context.Context, id uuid.UUID, imageURL string) error {
	args := m.Called(ctx, id, imageURL)
	return args.Error(0)
}

func (m *MockArticleRepository) UpdateCache(ctx context.Context, id uuid.UUID, cache *domain.ArticleCache) error {
	args := m.Called(ctx, id, cache)
	return args.Error(0)
}

// MockConversationRepository mocks the ConversationRepository interface
type MockConversationRepository struct {
	mock.Mock
}

func (m *MockConversationRepository) GetOrCreate(ctx context.Context, conv *domain.Conversation) (*domain.Conversation, error) {
	args := m.Called(ctx, conv)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Conversation), args.Error(1)
}

func (m *MockConversationRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Conversation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Conversation), args.Error(1)
}

func (m *MockConversationRepository) AppendMessages(ctx context.Context, id uuid.UUID, userMsg, assistantMsg domain.Message, priorCount, priorChars int) error {
	args := m.Called(ctx, id, userMsg, assistantMsg, priorCount, priorChars)
	return args.Error(0)
}

func (m *MockConversationRepository) Reset(ctx context.Context, visitorID, articleUID string, projectID uuid.UUID) (uuid.UUID, error) {
	args := m.Called(ctx, visitorID, articleUID, projectID)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockConversationRepository) ListByVisitor(ctx context.Context, visitorID string, projectID uuid.UUID) ([]domain.ConversationSummary, error) {
	args := m.Called(ctx, visitorID, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ConversationSummary), args.Error(1)
}

func (m *MockConversationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockUsageRepository mocks the UsageRepository interface
type MockUsageRepository struct {
	mock.Mock
}

func (m *MockUsageRepository) Record(ctx context.Context, usage *domain.TokenUsage) error {
	args := m.Called(ctx, usage)
	return args.Error(0)
}

// MockEventRepository mocks the EventRepository interface
type MockEventRepository struct {
	mock.Mock
}

func (m *MockEventRepository) Insert(ctx context.Context, event *domain.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// memoryCounter is an in-process CounterStore for limiter wiring in tests
type memoryCounter struct {
	mu     sync.Mutex
	counts map[string]int64
}

func newMemoryCounter() *memoryCounter {
	return &memoryCounter{counts: make(map[string]int64)}
}

func (f *memoryCounter) Incr(_ context.Context, key string, _ time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[key]++
	return f.counts[key], nil
}

// mockStreamer implements llm.Streamer, serving a fixed SSE body
type mockStreamer struct {
	mock.Mock
	body string
}

func (m *mockStreamer) Name() string         { return "openai" }
func (m *mockStreamer) DefaultModel() string { return "test-model" }
func (m *mockStreamer) IsConfigured() bool   { return true }

func (m *mockStreamer) Stream(ctx context.Context, req llm.StreamRequest) (io.ReadCloser, error) {
	args := m.Called(ctx, req)
	if args.Error(0) != nil {
		return nil, args.Error(0)
	}
	return io.NopCloser(strings.NewReader(m.body)), nil
}

// mockCompleter implements llm.Completer
type mockCompleter struct {
	mock.Mock
}

func (m *mockCompleter) Name() string         { return "gemini" }
func (m *mockCompleter) DefaultModel() string { return "test-model" }
func (m *mockCompleter) IsConfigured() bool   { return true }

func (m *mockCompleter) Complete(ctx context.Context, messages []llm.ChatMessage, model string) (*llm.Completion, error) {
	args := m.Called(ctx, messages, model)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*llm.Completion), args.Error(1)
}
