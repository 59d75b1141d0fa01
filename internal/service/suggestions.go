package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/askpage/askpage/internal/config"
	"github.com/askpage/askpage/internal/domain"
	"github.com/askpage/askpage/internal/llm"
	"github.com/askpage/askpage/internal/repository/redis"
	"github.com/askpage/askpage/internal/sanitize"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// suggestionContentLimit caps how much article text goes into the generation
// prompt.
const suggestionContentLimit = 20000

// SuggestionRequest asks for suggested questions for an article
type SuggestionRequest struct {
	ProjectID uuid.UUID
	URL       string
	Title     string
	Content   string
	ImageURL  string
	VisitorID string
	Origin    string
}

// SuggestionService produces suggested questions for an article, generating
// them once per article and serving the cached set afterwards.
type SuggestionService struct {
	projects  *ProjectService
	articles  domain.ArticleRepository
	limiter   *redis.RateLimiter
	providers *llm.Router
	provider  string
	model     string
}

// NewSuggestionService creates a new suggestion service
func NewSuggestionService(
	projects *ProjectService,
	articles domain.ArticleRepository,
	limiter *redis.RateLimiter,
	providers *llm.Router,
	cfg config.LLMConfig,
) *SuggestionService {
	return &SuggestionService{
		projects:  projects,
		articles:  articles,
		limiter:   limiter,
		providers: providers,
		provider:  cfg.SuggestionsProvider,
		model:     cfg.Gemini.Model,
	}
}

// Suggest returns the article's suggested questions, generating and caching
// them on first sight of the article.
func (s *SuggestionService) Suggest(ctx context.Context, req SuggestionRequest) ([]domain.Suggestion, error) {
	project, err := s.projects.Authorize(ctx, req.ProjectID, req.Origin)
	if err != nil {
		return nil, err
	}

	if res := s.limiter.Check(ctx, "suggestions", req.VisitorID, project.ID); res.Limited {
		return nil, &RateLimitError{Scope: res.Scope, RetryAfterSeconds: res.RetryAfterSeconds}
	}

	title := sanitize.Clean(req.Title)
	content := sanitize.Clean(req.Content)

	article, err := s.articles.GetOrCreate(ctx, &domain.Article{
		ProjectID: project.ID,
		UniqueID:  domain.ArticleUniqueID(req.URL, project.ID),
		URL:       req.URL,
		Title:     title,
		Content:   content,
		ImageURL:  req.ImageURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve article: %w", err)
	}

	if article.Cache != nil && len(article.Cache.Suggestions) > 0 {
		return article.Cache.Suggestions, nil
	}

	suggestions, err := s.generate(ctx, title, content, project.SuggestionCount)
	if err != nil {
		return nil, err
	}

	cache := article.Cache
	if cache == nil {
		cache = &domain.ArticleCache{}
	}
	cache.Suggestions = suggestions
	if err := s.articles.UpdateCache(ctx, article.ID, cache); err != nil {
		// Serve the generated set anyway; the next request regenerates.
		log.Error().Err(err).Str("article_id", article.ID.String()).Msg("failed to cache suggestions")
	}

	return suggestions, nil
}

func (s *SuggestionService) generate(ctx context.Context, title, content string, count int) ([]domain.Suggestion, error) {
	if count <= 0 {
		count = 3
	}
	if len(content) > suggestionContentLimit {
		content = content[:suggestionContentLimit]
	}

	completer, err := s.providers.Completer(s.provider)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}

	prompt := fmt.Sprintf(
		"You are given an article. Propose %d short questions a reader would most likely ask about it.\n"+
			"Respond with a JSON array of strings and nothing else.\n\n"+
			"Title: %s\n\nArticle:\n%s",
		count, title, content,
	)

	completion, err := completer.Complete(ctx, []llm.ChatMessage{{Role: "user", Content: prompt}}, s.model)
	if err != nil {
		return nil, err
	}

	questions, err := parseQuestionList(completion.Text)
	if err != nil {
		return nil, fmt.Errorf("%w: unparseable suggestion response: %v", domain.ErrUpstream, err)
	}

	suggestions := make([]domain.Suggestion, 0, count)
	for _, q := range questions {
		q = sanitize.Clean(q)
		if q == "" {
			continue
		}
		suggestions = append(suggestions, domain.Suggestion{
			ID:       uuid.New().String(),
			Question: q,
		})
		if len(suggestions) == count {
			break
		}
	}
	if len(suggestions) == 0 {
		return nil, fmt.Errorf("%w: model returned no usable questions", domain.ErrUpstream)
	}
	return suggestions, nil
}

// parseQuestionList extracts a JSON string array from model output, tolerating
// markdown code fences around it.
func parseQuestionList(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		if i := strings.LastIndex(raw, "```"); i >= 0 {
			raw = raw[:i]
		}
		raw = strings.TrimSpace(raw)
	}

	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON array found")
	}

	var questions []string
	if err := json.Unmarshal([]byte(raw[start:end+1]), &questions); err != nil {
		return nil, err
	}
	return questions, nil
}
