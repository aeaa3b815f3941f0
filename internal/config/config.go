package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// EnvDevelopment is the APP_ENV value that enables client diagnostics.
const EnvDevelopment = "development"

// Config holds all application configuration.
type Config struct {
	AppEnv     string `env:"APP_ENV" envDefault:"development"`
	ServerPort string `env:"SERVER_PORT" envDefault:"8080"`
	GinMode    string `env:"GIN_MODE" envDefault:"debug"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat  string `env:"LOG_FORMAT" envDefault:"pretty"`

	// APIBaseURL points at the question API every page delegates to.
	APIBaseURL string        `env:"API_BASE_URL" envDefault:"http://localhost:8000"`
	APITimeout time.Duration `env:"API_TIMEOUT" envDefault:"10s"`

	QuizQuestionCount int           `env:"QUIZ_QUESTION_COUNT" envDefault:"15"`
	SearchDebounce    time.Duration `env:"SEARCH_DEBOUNCE" envDefault:"300ms"`

	// RedisURL enables the read-through question cache when set.
	RedisURL string        `env:"REDIS_URL"`
	CacheTTL time.Duration `env:"CACHE_TTL" envDefault:"5m"`

	HealthInterval     time.Duration `env:"HEALTH_INTERVAL" envDefault:"30s"`
	RateLimitPerMinute int           `env:"RATE_LIMIT_PER_MINUTE" envDefault:"120"`

	// AllowedOrigins controls HTTP CORS and WebSocket origin validation.
	// Empty slice means all origins are permitted (dev default).
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`
}

// Load reads configuration from environment variables with sensible defaults.
// It loads .env file if present but does not fail if missing.
func Load() (*Config, error) {
	_ = godotenv.Load() // .env is optional

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.AllowedOrigins = trimOrigins(cfg.AllowedOrigins)

	if cfg.QuizQuestionCount < 1 || cfg.QuizQuestionCount > 50 {
		return nil, fmt.Errorf("QUIZ_QUESTION_COUNT must be between 1 and 50, got %d", cfg.QuizQuestionCount)
	}
	if cfg.APITimeout <= 0 {
		return nil, fmt.Errorf("API_TIMEOUT must be positive, got %s", cfg.APITimeout)
	}
	return cfg, nil
}

// IsDevelopment reports whether the app runs in the development environment.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.AppEnv, EnvDevelopment)
}

// trimOrigins drops blank entries and surrounding whitespace.
// Returns nil (allow-all) if nothing is left.
func trimOrigins(raw []string) []string {
	origins := make([]string, 0, len(raw))
	for _, p := range raw {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	if len(origins) == 0 {
		return nil
	}
	return origins
}
