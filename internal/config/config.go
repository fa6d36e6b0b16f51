package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	Port        int    `envconfig:"PORT" default:"8080"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	Version     string `envconfig:"VERSION" default:"dev"`

	AnthropicAPIKey      string        `envconfig:"ANTHROPIC_API_KEY"`
	LLMBaseURL           string        `envconfig:"LLM_BASE_URL" default:"https://api.anthropic.com/v1"`
	LLMModel             string        `envconfig:"LLM_MODEL" default:"claude-sonnet-4-5"`
	LLMFallbackModel     string        `envconfig:"LLM_FALLBACK_MODEL" default:"claude-haiku-4-5"`
	LLMMaxTokens         int           `envconfig:"LLM_MAX_TOKENS" default:"1024"`
	LLMTimeout           time.Duration `envconfig:"LLM_TIMEOUT" default:"30s"`
	LLMRequestsPerMinute int           `envconfig:"LLM_REQUESTS_PER_MINUTE" default:"50"`
	LLMTokensPerMinute   int           `envconfig:"LLM_TOKENS_PER_MINUTE" default:"40000"`

	BridgePublicKey string `envconfig:"BRIDGE_PUBLIC_KEY"`
	RequireAPIKey   bool   `envconfig:"REQUIRE_API_KEY" default:"false"`
	BcryptCost      int    `envconfig:"BCRYPT_COST" default:"12"`
}

// Load reads configuration from environment variables into a Config struct.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
