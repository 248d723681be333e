package config

import (
	"os"
	"testing"
	"time"
)

func TestNewFromEnv(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "gemini_key")
		os.Unsetenv("TEXT_BACKEND")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.TextBackend != "gemini" {
			t.Errorf("Expected default backend 'gemini', got '%s'", cfg.TextBackend)
		}
		if cfg.MaxRetries != 3 {
			t.Errorf("Expected default MaxRetries 3, got %d", cfg.MaxRetries)
		}
		if cfg.StageTimeout != 45*time.Second {
			t.Errorf("Expected default StageTimeout 45s, got %v", cfg.StageTimeout)
		}
		if cfg.NutritionThreshold != 15 {
			t.Errorf("Expected default NutritionThreshold 15, got %v", cfg.NutritionThreshold)
		}
		if cfg.CoherenceThreshold != 7 {
			t.Errorf("Expected default CoherenceThreshold 7, got %d", cfg.CoherenceThreshold)
		}
		if cfg.TargetCandidates != 30 {
			t.Errorf("Expected default TargetCandidates 30, got %d", cfg.TargetCandidates)
		}
	})

	t.Run("Overrides", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "gemini_key")
		t.Setenv("MAX_RETRIES", "5")
		t.Setenv("STAGE_TIMEOUT", "90s")
		t.Setenv("DB_PATH", "/tmp/test.db")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.MaxRetries != 5 {
			t.Errorf("Expected MaxRetries 5, got %d", cfg.MaxRetries)
		}
		if cfg.StageTimeout != 90*time.Second {
			t.Errorf("Expected StageTimeout 90s, got %v", cfg.StageTimeout)
		}
		if cfg.DBPath != "/tmp/test.db" {
			t.Errorf("Expected DBPath '/tmp/test.db', got '%s'", cfg.DBPath)
		}
	})

	t.Run("MissingGeminiKey", func(t *testing.T) {
		os.Unsetenv("GEMINI_API_KEY")
		t.Setenv("TEXT_BACKEND", "gemini")

		if _, err := NewFromEnv(); err == nil {
			t.Fatal("Expected an error for missing GEMINI_API_KEY, got nil")
		}
	})

	t.Run("GroqBackend", func(t *testing.T) {
		os.Unsetenv("GEMINI_API_KEY")
		t.Setenv("TEXT_BACKEND", "groq")
		t.Setenv("GROQ_API_KEY", "groq_key")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.TextBackend != "groq" {
			t.Errorf("Expected backend 'groq', got '%s'", cfg.TextBackend)
		}
	})

	t.Run("UnknownBackend", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "gemini_key")
		t.Setenv("TEXT_BACKEND", "openai")

		if _, err := NewFromEnv(); err == nil {
			t.Fatal("Expected an error for unknown TEXT_BACKEND, got nil")
		}
	})
}
