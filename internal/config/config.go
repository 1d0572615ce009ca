package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the SEOScout server.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Fetch    FetchConfig
	AI       AIConfig
	Worker   WorkerConfig
}

type ServerConfig struct {
	Port           int
	Env            string
	RequestsPerMin int
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL string
}

type FetchConfig struct {
	Timeout   time.Duration
	UserAgent string
}

type AIConfig struct {
	Provider         string
	InferenceTimeout time.Duration
	OpenAI           OpenAIConfig
	Anthropic        AnthropicConfig
	Ollama           OllamaConfig
}

type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string // override for OpenAI-compatible endpoints; empty uses the default
}

type AnthropicConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type OllamaConfig struct {
	BaseURL string
	Model   string
}

// WorkerConfig controls the task pool and the optimization retry policy.
type WorkerConfig struct {
	Count          int
	MaxAttempts    int
	RetryBaseDelay time.Duration
	PollInterval   time.Duration
}

var validProviders = map[string]bool{
	"openai":    true,
	"anthropic": true,
	"ollama":    true,
}

// Load reads configuration from environment variables and returns a validated Config.
// Returns an error with a descriptive message if any required value is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:           envInt("SEOSCOUT_PORT", 8080),
			Env:            envString("SEOSCOUT_ENV", "development"),
			RequestsPerMin: envInt("SEOSCOUT_REQUESTS_PER_MIN", 60),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Fetch: FetchConfig{
			Timeout:   envDuration("FETCH_TIMEOUT", 10*time.Second),
			UserAgent: envString("FETCH_USER_AGENT", "seoscout/1.0"),
		},
		AI: AIConfig{
			Provider:         os.Getenv("AI_PROVIDER"),
			InferenceTimeout: envDurationSecs("AI_INFERENCE_TIMEOUT_SECS", 60*time.Second),
			OpenAI: OpenAIConfig{
				APIKey:  os.Getenv("OPENAI_API_KEY"),
				Model:   envString("OPENAI_MODEL", "gpt-4o-mini"),
				BaseURL: os.Getenv("OPENAI_BASE_URL"),
			},
			Anthropic: AnthropicConfig{
				APIKey:  os.Getenv("ANTHROPIC_API_KEY"),
				Model:   envString("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929"),
				BaseURL: os.Getenv("ANTHROPIC_BASE_URL"),
			},
			Ollama: OllamaConfig{
				BaseURL: envString("OLLAMA_BASE_URL", "http://localhost:11434"),
				Model:   envString("OLLAMA_MODEL", "llama3"),
			},
		},
		Worker: WorkerConfig{
			Count:          envInt("WORKER_COUNT", 4),
			MaxAttempts:    envInt("WORKER_MAX_ATTEMPTS", 3),
			RetryBaseDelay: envDurationSecs("WORKER_RETRY_BASE_DELAY_SECS", 10*time.Second),
			PollInterval:   envDuration("WORKER_POLL_INTERVAL", time.Second),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.AI.Provider == "" {
		return fmt.Errorf("AI_PROVIDER is required")
	}
	if !validProviders[c.AI.Provider] {
		return fmt.Errorf("AI_PROVIDER must be one of openai, anthropic, ollama; got %q", c.AI.Provider)
	}

	if c.AI.Provider == "openai" && c.AI.OpenAI.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required when AI_PROVIDER is openai")
	}
	if c.AI.Provider == "anthropic" && c.AI.Anthropic.APIKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is required when AI_PROVIDER is anthropic")
	}

	if c.Worker.Count < 1 {
		return fmt.Errorf("WORKER_COUNT must be at least 1")
	}
	if c.Worker.MaxAttempts < 1 {
		return fmt.Errorf("WORKER_MAX_ATTEMPTS must be at least 1")
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func envDurationSecs(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return time.Duration(secs) * time.Second
}
