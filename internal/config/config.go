package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Mongo    MongoConfig    `mapstructure:"mongo"`
	Auth     AuthConfig     `mapstructure:"auth"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Limits   LimitsConfig   `mapstructure:"limits"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type ServerConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	MiddlewareTimeout time.Duration `mapstructure:"middleware_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type MongoConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type AuthConfig struct {
	VisitorTokenSecret string        `mapstructure:"visitor_token_secret"`
	VisitorTokenTTL    time.Duration `mapstructure:"visitor_token_ttl"`
}

type LLMConfig struct {
	ChatProvider        string       `mapstructure:"chat_provider"`
	SuggestionsProvider string       `mapstructure:"suggestions_provider"`
	OpenAI              OpenAIConfig `mapstructure:"openai"`
	Gemini              GeminiConfig `mapstructure:"gemini"`
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// EndpointLimit holds the per-minute request caps for one endpoint
type EndpointLimit struct {
	Visitor int `mapstructure:"visitor"`
	Project int `mapstructure:"project"`
}

type LimitsConfig struct {
	Chat        EndpointLimit `mapstructure:"chat"`
	Suggestions EndpointLimit `mapstructure:"suggestions"`
	Config      EndpointLimit `mapstructure:"config"`
	Analytics   EndpointLimit `mapstructure:"analytics"`

	ContextBudgetChars      int `mapstructure:"context_budget_chars"`
	MaxConversationMessages int `mapstructure:"max_conversation_messages"`
	AnswerMaxChars          int `mapstructure:"answer_max_chars"`
}

// ForEndpoint returns the limit pair for a rate-limited endpoint name
func (c LimitsConfig) ForEndpoint(endpoint string) (EndpointLimit, bool) {
	switch endpoint {
	case "chat":
		return c.Chat, true
	case "suggestions":
		return c.Suggestions, true
	case "config":
		return c.Config, true
	case "analytics":
		return c.Analytics, true
	}
	return EndpointLimit{}, false
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// Load reads configuration from file and environment variables
func Load() (*Config, error) {
	v := viper.New()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./configs/config.yaml"
	}

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if _, statErr := os.Stat(configPath); statErr == nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
		// Config file not found, use defaults and env vars
	}

	v.AutomaticEnv()
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "300s") // must outlive a full SSE stream
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.middleware_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "15s")

	// Database
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "askpage")
	v.SetDefault("database.database", "askpage")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)

	// Redis
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	// Mongo
	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "askpage")

	// Auth
	v.SetDefault("auth.visitor_token_ttl", "24h")

	// LLM
	v.SetDefault("llm.chat_provider", "openai")
	v.SetDefault("llm.suggestions_provider", "gemini")
	v.SetDefault("llm.openai.model", "gpt-4o-mini")
	v.SetDefault("llm.openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.gemini.model", "gemini-2.5-flash")

	// Limits
	v.SetDefault("limits.chat.visitor", 20)
	v.SetDefault("limits.chat.project", 500)
	v.SetDefault("limits.suggestions.visitor", 5)
	v.SetDefault("limits.suggestions.project", 200)
	v.SetDefault("limits.config.visitor", 30)
	v.SetDefault("limits.config.project", 1000)
	v.SetDefault("limits.analytics.visitor", 60)
	v.SetDefault("limits.analytics.project", 2000)
	v.SetDefault("limits.context_budget_chars", 100000)
	v.SetDefault("limits.max_conversation_messages", 200)
	v.SetDefault("limits.answer_max_chars", 1000)

	// Logging
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

func bindEnvVars(v *viper.Viper) {
	// Database
	v.BindEnv("database.password", "POSTGRES_PASSWORD")

	// Redis
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// Mongo
	v.BindEnv("mongo.uri", "MONGO_URI")

	// Auth
	v.BindEnv("auth.visitor_token_secret", "VISITOR_TOKEN_SECRET")

	// LLM API keys
	v.BindEnv("llm.openai.api_key", "OPENAI_API_KEY")
	v.BindEnv("llm.openai.base_url", "OPENAI_BASE_URL")
	v.BindEnv("llm.gemini.api_key", "GEMINI_API_KEY")
}
