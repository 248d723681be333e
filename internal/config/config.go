package config

import (
	"fmt"
	"time"

	"github.com/joeshaw/envdecode"
)

// Config holds the configuration for the application.
type Config struct {
	// Model backends
	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	GeminiModel  string `env:"GEMINI_MODEL,default=gemini-1.5-flash"`
	GroqAPIKey   string `env:"GROQ_API_KEY"`
	TextBackend  string `env:"TEXT_BACKEND,default=gemini"`

	// Storage
	DBPath string `env:"DB_PATH,default=data/nutriplan.db"`

	// Generation policy
	MaxRetries         int           `env:"MAX_RETRIES,default=3"`
	StageTimeout       time.Duration `env:"STAGE_TIMEOUT,default=45s"`
	NutritionThreshold float64       `env:"NUTRITION_THRESHOLD,default=15"`
	CoherenceThreshold int           `env:"COHERENCE_THRESHOLD,default=7"`

	// Candidate selection
	TargetCandidates   int     `env:"TARGET_CANDIDATES,default=30"`
	WorkingSetCap      int     `env:"WORKING_SET_CAP,default=50"`
	RelaxAfterFraction float64 `env:"RELAX_AFTER_FRACTION,default=0.5"`

	// Scorer cache
	ScoreCacheSize int           `env:"SCORE_CACHE_SIZE,default=256"`
	ScoreCacheTTL  time.Duration `env:"SCORE_CACHE_TTL,default=10m"`
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config from environment: %w", err)
	}

	switch cfg.TextBackend {
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
		}
	case "groq":
		if cfg.GroqAPIKey == "" {
			return nil, fmt.Errorf("GROQ_API_KEY environment variable not set")
		}
	default:
		return nil, fmt.Errorf("unknown TEXT_BACKEND %q (want gemini or groq)", cfg.TextBackend)
	}

	return &cfg, nil
}
