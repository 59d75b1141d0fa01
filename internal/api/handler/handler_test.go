package handler

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/askpage/askpage/internal/config"
	"github.com/askpage/askpage/internal/domain"
	"github.com/askpage/askpage/internal/llm"
	"github.com/askpage/askpage/internal/repository/redis"
	"github.com/askpage/askpage/internal/security"
	"github.com/askpage/askpage/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubProjectRepo serves one fixed project
type stubProjectRepo struct {
	project *domain.Project
}

func (s *stubProjectRepo) Get(context.Context, uuid.UUID) (*domain.Project, error) {
	return s.project, nil
}

// stubArticleRepo serves one fixed article
type stubArticleRepo struct {
	article *domain.Article
}

func (s *stubArticleRepo) GetOrCreate(context.Context, *domain.Article) (*domain.Article, error) {
	return s.article, nil
}

func (s *stubArticleRepo) GetByUniqueID(context.Context, string) (*domain.Article, error) {
	return s.article, nil
}

func (s *stubArticleRepo) UpdateImage(context.Context, uuid.UUID, string) error { return nil }

func (s *stubArticleRepo) UpdateCache(context.Context, uuid.UUID, *domain.ArticleCache) error {
	return nil
}

type stubCounter struct{}

func (stubCounter) Incr(context.Context, string, time.Duration) (int64, error) { return 1, nil }

func testLimits() config.LimitsConfig {
	return config.LimitsConfig{
		Suggestions: config.EndpointLimit{Visitor: 5, Project: 200},
		Config:      config.EndpointLimit{Visitor: 30, Project: 1000},
	}
}

func makeJSONRequest(method, path string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestHealthCheck(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()

	HealthCheck(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestChatHandler_RejectsMalformedBody(t *testing.T) {
	h := NewChatHandler(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()

	h.Stream(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid request body")
}

func TestChatHandler_RejectsMissingFields(t *testing.T) {
	h := NewChatHandler(nil)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing question", map[string]any{
			"projectId":  "b3f4e0ae-5b54-4c8c-9f0d-2f4f4b6e8a10",
			"questionId": "q1",
			"url":        "https://example.com/post",
			"visitor_id": "v1",
		}},
		{"missing question id", map[string]any{
			"projectId":  "b3f4e0ae-5b54-4c8c-9f0d-2f4f4b6e8a10",
			"question":   "what?",
			"url":        "https://example.com/post",
			"visitor_id": "v1",
		}},
		{"missing visitor id", map[string]any{
			"projectId":  "b3f4e0ae-5b54-4c8c-9f0d-2f4f4b6e8a10",
			"questionId": "q1",
			"question":   "what?",
			"url":        "https://example.com/post",
		}},
		{"project id not a uuid", map[string]any{
			"projectId":  "nope",
			"questionId": "q1",
			"question":   "what?",
			"url":        "https://example.com/post",
			"visitor_id": "v1",
		}},
		{"url not a url", map[string]any{
			"projectId":  "b3f4e0ae-5b54-4c8c-9f0d-2f4f4b6e8a10",
			"questionId": "q1",
			"question":   "what?",
			"url":        "not a url",
			"visitor_id": "v1",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Stream(rec, makeJSONRequest(http.MethodPost, "/api/v1/chat", tt.body))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestWriteCachedFrames(t *testing.T) {
	rec := httptest.NewRecorder()
	writeCachedFrames(rec, "The cached answer.")

	scanner := bufio.NewScanner(rec.Body)
	var dataLines []string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "data: ") {
			dataLines = append(dataLines, strings.TrimPrefix(line, "data: "))
		}
	}

	require.Len(t, dataLines, 2)
	assert.Equal(t, "[DONE]", dataLines[1])

	var frame struct {
		Choices []struct {
			Delta struct {
				Content string `json:"content"`
			} `json:"delta"`
		} `json:"choices"`
	}
	require.NoError(t, json.Unmarshal([]byte(dataLines[0]), &frame))
	require.Len(t, frame.Choices, 1)
	assert.Equal(t, "The cached answer.", frame.Choices[0].Delta.Content)
}

func TestConversationHandler_RejectsBadID(t *testing.T) {
	h := NewConversationHandler(nil)

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("conversationID", "not-a-uuid")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/conversations/not-a-uuid", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	rec := httptest.NewRecorder()

	h.Messages(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid conversation ID")
}

func TestAnalyticsHandler_RejectsMalformedBody(t *testing.T) {
	h := NewAnalyticsHandler(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analytics/events", strings.NewReader("["))
	rec := httptest.NewRecorder()

	h.Track(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWidgetHandler_RejectsBadProjectID(t *testing.T) {
	h := NewWidgetHandler(nil, nil)

	t.Run("missing identifier", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.Config(rec, makeJSONRequest(http.MethodPost, "/api/v1/config", map[string]any{"url": "https://example.com"}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "missing project identifier")
	})

	t.Run("malformed identifier", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.Config(rec, makeJSONRequest(http.MethodPost, "/api/v1/config", map[string]any{"client_id": "abc"}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestWidgetHandler_RefererNeverTrusted(t *testing.T) {
	project := &domain.Project{ID: uuid.New(), AllowedOrigins: []string{"example.com"}}
	h := NewWidgetHandler(
		service.NewProjectService(&stubProjectRepo{project: project}, nil),
		redis.NewRateLimiter(stubCounter{}, testLimits()),
	)
	body := map[string]any{"projectId": project.ID.String()}

	t.Run("referer matching an allowed host is ignored", func(t *testing.T) {
		req := makeJSONRequest(http.MethodPost, "/api/v1/config", body)
		req.Header.Set("Referer", "https://example.com/post")

		rec := httptest.NewRecorder()
		h.Config(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("origin header alone decides", func(t *testing.T) {
		req := makeJSONRequest(http.MethodPost, "/api/v1/config", body)
		req.Header.Set("Origin", "https://example.com")
		req.Header.Set("Referer", "https://evil.com/phish")

		rec := httptest.NewRecorder()
		h.Config(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestSuggestionHandler_AnonymousVisitor(t *testing.T) {
	project := &domain.Project{ID: uuid.New(), AllowedOrigins: []string{"example.com"}}
	article := &domain.Article{
		ID:        uuid.New(),
		ProjectID: project.ID,
		Cache: &domain.ArticleCache{
			Suggestions: []domain.Suggestion{{ID: "s1", Question: "What is this about?"}},
		},
	}

	svc := service.NewSuggestionService(
		service.NewProjectService(&stubProjectRepo{project: project}, nil),
		&stubArticleRepo{article: article},
		redis.NewRateLimiter(stubCounter{}, testLimits()),
		llm.NewRouter(),
		config.LLMConfig{},
	)
	h := NewSuggestionHandler(svc, security.NewTokenIssuer("secret", 0))

	req := makeJSONRequest(http.MethodPost, "/api/v1/suggestions", map[string]any{
		"projectId": project.ID.String(),
		"url":       "https://example.com/post",
		"content":   "The article body.",
	})
	req.Header.Set("Origin", "https://example.com")

	rec := httptest.NewRecorder()
	h.Get(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "What is this about?")
	// No visitor to bind a token to.
	assert.Empty(t, rec.Header().Get("X-Visitor-Token"))
}
