package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/askpage/askpage/internal/chat"
	"github.com/askpage/askpage/internal/config"
	"github.com/askpage/askpage/internal/domain"
	"github.com/askpage/askpage/internal/llm"
	"github.com/askpage/askpage/internal/repository/redis"
	"github.com/askpage/askpage/internal/sanitize"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ChatRequest is a validated, pre-sanitization chat call
type ChatRequest struct {
	ProjectID  uuid.UUID
	QuestionID string
	Question   string
	Title      string
	Content    string
	URL        string
	ImageURL   string
	VisitorID  string
	SessionID  string
	Origin     string
}

// ChatResult is the orchestrator's answer: either a live stream to relay or
// a cached answer to deliver as-is. Exactly one of Stream/CachedAnswer is set.
type ChatResult struct {
	ConversationID uuid.UUID
	Stream         io.ReadCloser
	CachedAnswer   string
}

// ChatService drives a chat request through origin and rate checks,
// article/conversation resolution, context assembly and the streamed model
// call, handing the persistence tail to a background worker.
type ChatService struct {
	projects      *ProjectService
	articles      domain.ArticleRepository
	conversations domain.ConversationRepository
	usage         domain.UsageRepository
	limiter       *redis.RateLimiter
	providers     *llm.Router
	tail          *TailWorker
	limits        config.LimitsConfig
	chatProvider  string
	chatModel     string
}

// NewChatService creates a new chat orchestrator
func NewChatService(
	projects *ProjectService,
	articles domain.ArticleRepository,
	conversations domain.ConversationRepository,
	usage domain.UsageRepository,
	limiter *redis.RateLimiter,
	providers *llm.Router,
	tail *TailWorker,
	limits config.LimitsConfig,
	chatProvider, chatModel string,
) *ChatService {
	return &ChatService{
		projects:      projects,
		articles:      articles,
		conversations: conversations,
		usage:         usage,
		limiter:       limiter,
		providers:     providers,
		tail:          tail,
		limits:        limits,
		chatProvider:  chatProvider,
		chatModel:     chatModel,
	}
}

// Chat runs the per-request state machine. Error taxonomy: domain.ErrNotFound
// and domain.ErrForbidden sentinels, *RateLimitError, *ConversationLimitError,
// and wrapped domain.ErrUpstream for provider failures.
func (s *ChatService) Chat(ctx context.Context, req ChatRequest) (*ChatResult, error) {
	// All model-bound text is sanitized before storage or prompt use.
	question := sanitize.Clean(req.Question)
	title := sanitize.Clean(req.Title)
	content := sanitize.Clean(req.Content)

	project, err := s.projects.Authorize(ctx, req.ProjectID, req.Origin)
	if err != nil {
		return nil, err
	}

	if res := s.limiter.Check(ctx, "chat", req.VisitorID, project.ID); res.Limited {
		return nil, &RateLimitError{Scope: res.Scope, RetryAfterSeconds: res.RetryAfterSeconds}
	}

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

	if article.ImageURL == "" && req.ImageURL != "" {
		if err := s.articles.UpdateImage(ctx, article.ID, req.ImageURL); err != nil {
			log.Warn().Err(err).Str("article_id", article.ID.String()).Msg("failed to update article image")
		}
	}

	conv, err := s.conversations.GetOrCreate(ctx, &domain.Conversation{
		ProjectID:      project.ID,
		ArticleUID:     article.UniqueID,
		VisitorID:      req.VisitorID,
		SessionID:      req.SessionID,
		ArticleTitle:   article.Title,
		ArticleContent: article.Content,
		ArticleURL:     article.URL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve conversation: %w", err)
	}

	if conv.MessageCount >= s.limits.MaxConversationMessages {
		return nil, &ConversationLimitError{Limit: s.limits.MaxConversationMessages}
	}

	suggestion := article.Cache.Suggestion(req.QuestionID)

	// Cached answer short-circuit: only before any conversational turns,
	// since later turns need live context.
	if suggestion != nil && suggestion.Answer != "" && conv.MessageCount == 0 {
		s.submitTail(conv, question, suggestion.Answer, article, suggestion.ID, llm.Usage{}, "")
		return &ChatResult{ConversationID: conv.ID, CachedAnswer: suggestion.Answer}, nil
	}

	if !project.FreeformEnabled {
		if article.Cache == nil || len(article.Cache.Suggestions) == 0 {
			return nil, fmt.Errorf("%w: no suggestions available for this article", domain.ErrNotFound)
		}
		if suggestion == nil {
			return nil, fmt.Errorf("%w: only suggested questions are allowed", domain.ErrForbidden)
		}
	}

	messages := chat.BuildMessages(
		conv.ArticleTitle,
		conv.ArticleContent,
		question,
		conv.Messages,
		s.limits.ContextBudgetChars,
		chat.PromptConfig{
			AnswerMaxChars: s.limits.AnswerMaxChars,
			RefuseOffTopic: project.RefuseOffTopic,
		},
	)

	streamer, err := s.providers.Streamer(s.chatProvider)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}

	upstream, err := streamer.Stream(ctx, llm.StreamRequest{
		Messages: messages,
		Model:    s.chatModel,
	})
	if err != nil {
		return nil, err
	}

	clientBranch, collectorBranch := chat.Tee(upstream)

	suggestionID := ""
	if suggestion != nil {
		suggestionID = suggestion.ID
	}
	s.submitCollector(collectorBranch, conv, question, article, suggestionID)

	return &ChatResult{ConversationID: conv.ID, Stream: clientBranch}, nil
}

// submitCollector drains the server-side branch in the background, then
// persists the finished answer.
func (s *ChatService) submitCollector(branch io.ReadCloser, conv *domain.Conversation, question string, article *domain.Article, suggestionID string) {
	s.tail.Submit(func(ctx context.Context) {
		defer branch.Close()

		collected, err := chat.Collect(branch)
		if err != nil {
			log.Error().Err(err).
				Str("conversation_id", conv.ID.String()).
				Msg("failed to collect answer stream")
			return
		}
		if collected.Text == "" {
			log.Warn().Str("conversation_id", conv.ID.String()).Msg("collected empty answer, skipping persistence")
			return
		}

		s.persistAnswer(ctx, conv, question, sanitize.Clean(collected.Text), article, suggestionID, collected.Usage, collected.Model)
	})
}

// submitTail persists a cached-answer turn without a model call
func (s *ChatService) submitTail(conv *domain.Conversation, question, answer string, article *domain.Article, suggestionID string, usage llm.Usage, model string) {
	s.tail.Submit(func(ctx context.Context) {
		s.persistAnswer(ctx, conv, question, answer, article, suggestionID, usage, model)
	})
}

// persistAnswer appends the user/assistant pair, records token usage, and
// updates the article's cached artifacts. Every failure here is logged only:
// the client stream has already been delivered.
func (s *ChatService) persistAnswer(ctx context.Context, conv *domain.Conversation, question, answer string, article *domain.Article, suggestionID string, usage llm.Usage, model string) {
	now := time.Now()
	userMsg := domain.NewMessage(domain.RoleUser, question, now)
	assistantMsg := domain.NewMessage(domain.RoleAssistant, answer, now)

	if err := s.conversations.AppendMessages(ctx, conv.ID, userMsg, assistantMsg, conv.MessageCount, conv.TotalChars); err != nil {
		log.Error().Err(err).
			Str("conversation_id", conv.ID.String()).
			Msg("failed to append messages")
	}

	if usage.TotalTokens > 0 {
		err := s.usage.Record(ctx, &domain.TokenUsage{
			ProjectID:        conv.ProjectID,
			ConversationID:   conv.ID,
			Model:            model,
			PromptTokens:     usage.PromptTokens,
			CompletionTokens: usage.CompletionTokens,
			TotalTokens:      usage.TotalTokens,
		})
		if err != nil {
			log.Error().Err(err).Str("conversation_id", conv.ID.String()).Msg("failed to record token usage")
		}
	}

	s.updateArticleCache(ctx, article, question, answer, suggestionID)
}

func (s *ChatService) updateArticleCache(ctx context.Context, article *domain.Article, question, answer, suggestionID string) {
	cache := article.Cache
	if cache == nil {
		cache = &domain.ArticleCache{}
	}

	if suggestionID != "" {
		suggestion := cache.Suggestion(suggestionID)
		if suggestion == nil || suggestion.Answer != "" {
			return
		}
		suggestion.Answer = answer
	} else {
		cache.Freeform = append(cache.Freeform, domain.FreeformQA{
			Question:  question,
			Answer:    answer,
			CreatedAt: time.Now(),
		})
	}

	if err := s.articles.UpdateCache(ctx, article.ID, cache); err != nil {
		log.Error().Err(err).Str("article_id", article.ID.String()).Msg("failed to update article cache")
	}
}
