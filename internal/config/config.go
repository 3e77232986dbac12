// Package config loads process configuration from the environment.
//
// Values are resolved from the OS environment, with an optional .env file
// as a fallback for local development. Required values are validated once
// at startup; a misconfigured process refuses to boot.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	DatabaseURI   string `envconfig:"DATABASE_URI" validate:"required"`
	TelegramToken string `envconfig:"TELEGRAM_TOKEN" validate:"required"`

	AIAPIKey  string `envconfig:"AI_API_KEY" validate:"required"`
	AIBaseURL string `envconfig:"AI_BASE_URL" default:"https://openrouter.ai/api/v1" validate:"url"`
	AIModel   string `envconfig:"AI_MODEL" default:"openai/gpt-4o-mini"`

	// Monthly spend guard. Rates are USD per 1000 tokens.
	MonthlyBudgetUSD float64 `envconfig:"AI_MONTHLY_BUDGET_USD" default:"10.0" validate:"gt=0"`
	InputCostPer1K   float64 `envconfig:"AI_INPUT_COST_PER_1K" default:"0.0003"`
	OutputCostPer1K  float64 `envconfig:"AI_OUTPUT_COST_PER_1K" default:"0.0012"`
	EstimatedCallUSD float64 `envconfig:"AI_ESTIMATED_CALL_USD" default:"0.001"`

	RateLimitRequests int           `envconfig:"CHAT_RATE_LIMIT_REQUESTS" default:"5" validate:"min=1"`
	RateLimitWindow   time.Duration `envconfig:"CHAT_RATE_LIMIT_WINDOW" default:"60s"`

	CircuitFailureThreshold int           `envconfig:"AI_CIRCUIT_FAILURE_THRESHOLD" default:"3" validate:"min=1"`
	CircuitOpenDuration     time.Duration `envconfig:"AI_CIRCUIT_OPEN_DURATION" default:"60s"`

	DedupTTL time.Duration `envconfig:"UPDATE_DEDUP_TTL" default:"10m"`

	DispatchInterval  time.Duration `envconfig:"DISPATCH_INTERVAL" default:"1m"`
	DispatchBatchSize int           `envconfig:"DISPATCH_BATCH_SIZE" default:"100" validate:"min=1"`

	// IANA name of the zone user-facing times are interpreted in. Storage
	// is always UTC.
	Timezone string `envconfig:"APP_TIMEZONE" default:"UTC"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogPretty bool   `envconfig:"LOG_PRETTY" default:"false"`
}

func Load() (*Config, error) {
	// .env file is optional in production.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE %q: %w", cfg.Timezone, err)
	}
	return &cfg, nil
}

// Location resolves the configured interpretation timezone. Load has
// already verified it parses.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
