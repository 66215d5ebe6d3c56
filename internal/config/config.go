// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Sandbox execution modes.
const (
	SandboxLocal  = "local"
	SandboxDocker = "docker"
)

// Config holds all application configuration.
type Config struct {
	Port       string
	Email      string
	Secret     string
	DataDir    string
	DBPath     string
	SessionTTL time.Duration

	// ChainTimeout bounds a whole quiz chain. Kept under the grader's
	// 180s limit so the final submission still lands.
	ChainTimeout time.Duration
	// SolveTimeout caps a single question's solve phase.
	SolveTimeout time.Duration
	MaxAttempts  int
	MaxRounds    int

	LLM     LLMConfig
	Sandbox SandboxConfig
}

// LLMConfig configures the OpenAI-compatible chat completion endpoint.
type LLMConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// SandboxConfig configures generated-code execution.
type SandboxConfig struct {
	Mode      string // "local" = subprocess (no isolation), "docker" = ephemeral container
	Image     string
	PythonBin string
	Timeout   time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:         getEnv("PORT", "8000"),
		Email:        getEnv("EMAIL", ""),
		Secret:       getEnv("SECRET_KEY", ""),
		DataDir:      getEnv("DATA_DIR", "./data"),
		DBPath:       getEnv("DB_PATH", "./data/quiz.db"),
		SessionTTL:   getEnvDuration("SESSION_TTL", 24*time.Hour),
		ChainTimeout: getEnvDuration("QUIZ_TIMEOUT", 170*time.Second),
		SolveTimeout: getEnvDuration("SOLVE_TIMEOUT", 90*time.Second),
		MaxAttempts:  getEnvInt("MAX_ATTEMPTS", 2),
		MaxRounds:    getEnvInt("MAX_ROUNDS", 5),
		LLM: LLMConfig{
			APIKey:    getEnv("LLM_API_KEY", ""),
			BaseURL:   getEnv("LLM_BASE_URL", "https://integrate.api.nvidia.com/v1"),
			Model:     getEnv("LLM_MODEL", "meta/llama-3.3-70b-instruct"),
			MaxTokens: getEnvInt("LLM_MAX_TOKENS", 4096),
			Timeout:   getEnvDuration("LLM_TIMEOUT", 60*time.Second),
		},
		Sandbox: SandboxConfig{
			Mode:      getEnv("SANDBOX_MODE", SandboxLocal),
			Image:     getEnv("SANDBOX_IMAGE", "quiz-sandbox:latest"),
			PythonBin: getEnv("SANDBOX_PYTHON", "python3"),
			Timeout:   getEnvDuration("SANDBOX_TIMEOUT", 30*time.Second),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.Secret == "" {
		return fmt.Errorf("SECRET_KEY cannot be empty")
	}
	if c.DataDir == "" {
		return fmt.Errorf("DATA_DIR cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("MAX_ATTEMPTS must be >= 1")
	}
	if c.MaxRounds < 1 {
		return fmt.Errorf("MAX_ROUNDS must be >= 1")
	}
	if c.Sandbox.Mode != SandboxLocal && c.Sandbox.Mode != SandboxDocker {
		return fmt.Errorf("SANDBOX_MODE must be %q or %q", SandboxLocal, SandboxDocker)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

// getEnvDuration accepts either a Go duration string ("90s") or a bare
// number of seconds ("90").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value = strings.TrimSpace(value)
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
