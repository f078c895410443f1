package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the FieldOps server.
type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Database DatabaseConfig
	Redis    RedisConfig
	AI       AIConfig
}

type ServerConfig struct {
	Port               int
	Env                string
	RateLimitPerMinute int
	ShutdownTimeout    time.Duration
}

// StoreConfig selects the job store backend.
type StoreConfig struct {
	Driver     string
	SQLitePath string
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	MigrationsDir   string
}

// RedisConfig is optional. With an empty URL the server runs without the
// assistant cache, rate limiting and the audit stream.
type RedisConfig struct {
	URL            string
	AuditStream    string
	AssistCacheTTL time.Duration
}

type AIConfig struct {
	Provider         string
	InferenceTimeout time.Duration
	Ollama           OllamaConfig
	VLLM             VLLMConfig
	OpenAI           OpenAIConfig
	Anthropic        AnthropicConfig
	Gemini           GeminiConfig
}

type OllamaConfig struct {
	BaseURL string
	Model   string
}

type VLLMConfig struct {
	BaseURL string
	Model   string
}

type OpenAIConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

type AnthropicConfig struct {
	BaseURL   string
	APIKey    string
	Model     string
	MaxTokens int
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

const (
	StoreDriverPostgres = "postgres"
	StoreDriverSQLite   = "sqlite"
	StoreDriverMemory   = "memory"
)

var validProviders = map[string]bool{
	"ollama":    true,
	"vllm":      true,
	"openai":    true,
	"anthropic": true,
	"gemini":    true,
	"mock":      true,
}

var validDrivers = map[string]bool{
	StoreDriverPostgres: true,
	StoreDriverSQLite:   true,
	StoreDriverMemory:   true,
}

// Load reads configuration from environment variables and returns a validated Config.
// Returns an error with a descriptive message if any required value is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:               envInt("FIELDOPS_PORT", 8080),
			Env:                envString("FIELDOPS_ENV", "development"),
			RateLimitPerMinute: envInt("RATE_LIMIT_PER_MINUTE", 120),
			ShutdownTimeout:    envDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Store: StoreConfig{
			Driver:     strings.ToLower(envString("STORE_DRIVER", StoreDriverPostgres)),
			SQLitePath: envString("SQLITE_PATH", "fieldops.db"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
			MigrationsDir:   envString("MIGRATIONS_DIR", "migrations"),
		},
		Redis: RedisConfig{
			URL:            os.Getenv("REDIS_URL"),
			AuditStream:    envString("AUDIT_STREAM", "fieldops:audit"),
			AssistCacheTTL: envDuration("ASSIST_CACHE_TTL", time.Hour),
		},
		AI: AIConfig{
			Provider:         strings.ToLower(os.Getenv("AI_PROVIDER")),
			InferenceTimeout: envDurationSecs("AI_INFERENCE_TIMEOUT_SECS", 60*time.Second),
			Ollama: OllamaConfig{
				BaseURL: envString("OLLAMA_BASE_URL", "http://localhost:11434"),
				Model:   envString("OLLAMA_MODEL", "llama3"),
			},
			VLLM: VLLMConfig{
				BaseURL: envString("VLLM_BASE_URL", "http://localhost:8000"),
				Model:   envString("VLLM_MODEL", ""),
			},
			OpenAI: OpenAIConfig{
				BaseURL: envString("OPENAI_BASE_URL", "https://api.openai.com"),
				APIKey:  os.Getenv("OPENAI_API_KEY"),
				Model:   envString("OPENAI_MODEL", "gpt-4o-mini"),
			},
			Anthropic: AnthropicConfig{
				BaseURL:   envString("ANTHROPIC_BASE_URL", "https://api.anthropic.com"),
				APIKey:    os.Getenv("ANTHROPIC_API_KEY"),
				Model:     envString("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929"),
				MaxTokens: envInt("ANTHROPIC_MAX_TOKENS", 1024),
			},
			Gemini: GeminiConfig{
				APIKey: os.Getenv("GEMINI_API_KEY"),
				Model:  envString("GEMINI_MODEL", "gemini-1.5-flash"),
			},
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("FIELDOPS_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}

	if !validDrivers[c.Store.Driver] {
		return fmt.Errorf("STORE_DRIVER must be one of postgres, sqlite, memory; got %q", c.Store.Driver)
	}
	if c.Store.Driver == StoreDriverPostgres && c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER is postgres")
	}
	if c.Store.Driver == StoreDriverSQLite && c.Store.SQLitePath == "" {
		return fmt.Errorf("SQLITE_PATH is required when STORE_DRIVER is sqlite")
	}

	if c.Redis.URL != "" && !strings.HasPrefix(c.Redis.URL, "redis://") && !strings.HasPrefix(c.Redis.URL, "rediss://") {
		return fmt.Errorf("REDIS_URL must start with redis:// or rediss://, got %q", c.Redis.URL)
	}
	if c.Server.RateLimitPerMinute < 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must not be negative")
	}

	if c.AI.Provider == "" {
		return fmt.Errorf("AI_PROVIDER is required")
	}
	if !validProviders[c.AI.Provider] {
		return fmt.Errorf("AI_PROVIDER must be one of ollama, vllm, openai, anthropic, gemini, mock; got %q", c.AI.Provider)
	}
	if c.AI.InferenceTimeout <= 0 {
		return fmt.Errorf("AI_INFERENCE_TIMEOUT_SECS must be positive")
	}

	switch c.AI.Provider {
	case "openai":
		if c.AI.OpenAI.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when AI_PROVIDER is openai")
		}
	case "anthropic":
		if c.AI.Anthropic.APIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required when AI_PROVIDER is anthropic")
		}
	case "gemini":
		if c.AI.Gemini.APIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required when AI_PROVIDER is gemini")
		}
	case "vllm":
		if c.AI.VLLM.Model == "" {
			return fmt.Errorf("VLLM_MODEL is required when AI_PROVIDER is vllm")
		}
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
