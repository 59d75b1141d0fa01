package api

import (
	"net/http"

	"github.com/askpage/askpage/internal/api/handler"
	customMiddleware "github.com/askpage/askpage/internal/api/middleware"
	"github.com/askpage/askpage/internal/config"
	"github.com/askpage/askpage/internal/llm"
	"github.com/askpage/askpage/internal/llm/gemini"
	"github.com/askpage/askpage/internal/llm/openai"
	"github.com/askpage/askpage/internal/repository/mongo"
	"github.com/askpage/askpage/internal/repository/postgres"
	"github.com/askpage/askpage/internal/repository/redis"
	"github.com/askpage/askpage/internal/security"
	"github.com/askpage/askpage/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"
)

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, db *postgres.DB, redisClient *redis.Client, mongoClient *mongo.Client, tail *service.TailWorker) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.Server.MiddlewareTimeout))

	// CORS is wide open at the transport level; the per-project origin
	// allow-list is enforced in the services, where it can 403 with a body.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Visitor-Token"},
		ExposedHeaders: []string{"X-Request-ID", "X-Conversation-Id", "X-Visitor-Token", "Retry-After"},
		MaxAge:         300,
	}))

	// Visitor ownership tokens
	tokenIssuer := security.NewTokenIssuer(cfg.Auth.VisitorTokenSecret, cfg.Auth.VisitorTokenTTL)

	// Repositories
	projectRepo := postgres.NewProjectRepository(db.Pool)
	articleRepo := postgres.NewArticleRepository(db.Pool)
	conversationRepo := postgres.NewConversationRepository(db.Pool)
	usageRepo := postgres.NewUsageRepository(db.Pool)

	// Rate limiter and project cache
	rateLimiter := redis.NewRateLimiter(redisClient, cfg.Limits)
	projectCache := redis.NewProjectCache(redisClient)

	// Model providers
	llmRouter := llm.NewRouter()
	if cfg.LLM.OpenAI.APIKey != "" {
		llmRouter.Register(openai.NewProvider(cfg.LLM.OpenAI.APIKey, cfg.LLM.OpenAI.Model, cfg.LLM.OpenAI.BaseURL))
	} else {
		log.Warn().Msg("OpenAI API key is empty, chat streaming disabled")
	}
	if cfg.LLM.Gemini.APIKey != "" {
		llmRouter.Register(gemini.NewProvider(cfg.LLM.Gemini))
	} else {
		log.Warn().Msg("Gemini API key is empty, suggestion generation disabled")
	}

	// Services
	projectService := service.NewProjectService(projectRepo, projectCache)
	chatService := service.NewChatService(
		projectService, articleRepo, conversationRepo, usageRepo,
		rateLimiter, llmRouter, tail, cfg.Limits,
		cfg.LLM.ChatProvider, cfg.LLM.OpenAI.Model,
	)
	suggestionService := service.NewSuggestionService(projectService, articleRepo, rateLimiter, llmRouter, cfg.LLM)
	conversationService := service.NewConversationService(conversationRepo)

	// Handlers
	widgetHandler := handler.NewWidgetHandler(projectService, rateLimiter)
	chatHandler := handler.NewChatHandler(chatService)
	suggestionHandler := handler.NewSuggestionHandler(suggestionService, tokenIssuer)
	conversationHandler := handler.NewConversationHandler(conversationService)

	var analyticsHandler *handler.AnalyticsHandler
	if mongoClient != nil {
		eventRepo := mongo.NewEventRepository(mongoClient)
		analyticsHandler = handler.NewAnalyticsHandler(service.NewAnalyticsService(projectService, eventRepo, rateLimiter))
	}

	visitorToken := customMiddleware.NewVisitorTokenMiddleware(tokenIssuer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", handler.HealthCheck)
		r.Get("/ready", handler.ReadyCheck(db, redisClient, mongoClient))

		r.Group(func(r chi.Router) {
			r.Use(visitorToken.Extract)

			r.Post("/config", widgetHandler.Config)
			r.Post("/suggestions", suggestionHandler.Get)
			r.Post("/chat", chatHandler.Stream)

			r.Route("/conversations", func(r chi.Router) {
				r.Get("/", conversationHandler.List)
				r.Post("/reset", conversationHandler.Reset)
				r.Get("/{conversationID}/messages", conversationHandler.Messages)
				r.Delete("/{conversationID}", conversationHandler.Delete)
			})

			if analyticsHandler != nil {
				r.Post("/analytics", analyticsHandler.Track)
			}
		})
	})

	return r
}
