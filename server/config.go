package server

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds the application configuration.
type Config struct {
	// Server configuration
	ServerHost  string
	ServerPort  string
	AllowOrigin string

	// LLM configuration
	OpenAIKey      string
	OpenAIBaseURL  string
	Model          string
	EmbeddingModel string

	// Web search configuration
	WebSearch string // "tavily", "brave" or "" (disabled)
	TavilyKey string
	BraveKey  string

	// History configuration
	RedisAddr string // empty means in-memory history

	// Transaction store configuration
	DBBackend   string // "sqlite" or "postgres"
	SqlitePath  string
	PostgresURL string

	// Retrieval configuration
	TopK       int
	MaxRetries int
}

// LoadConfig loads configuration from environment variables with sensible defaults.
func LoadConfig() Config {
	return Config{
		ServerHost:     getEnv("SERVER_HOST", "0.0.0.0"),
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		AllowOrigin:    getEnv("CORS_ALLOW_ORIGIN", "http://localhost:3000"),
		OpenAIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:  getEnv("OPENAI_BASE_URL", ""),
		Model:          getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		EmbeddingModel: getEnv("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
		WebSearch:      getEnv("WEB_SEARCH", "tavily"),
		TavilyKey:      os.Getenv("TAVILY_API_KEY"),
		BraveKey:       os.Getenv("BRAVE_API_KEY"),
		RedisAddr:      getEnv("REDIS_ADDR", ""),
		DBBackend:      getEnv("DB_BACKEND", "sqlite"),
		SqlitePath:     getEnv("SQLITE_PATH", "adaptiverag.db"),
		PostgresURL:    os.Getenv("POSTGRES_URL"),
		TopK:           getEnvInt("RETRIEVAL_TOP_K", 4),
		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
	}
}

// ValidateConfig checks that the required configuration is present.
func ValidateConfig(cfg Config) error {
	if cfg.OpenAIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY environment variable is required")
	}
	switch cfg.WebSearch {
	case "":
		// Web search disabled on purpose.
	case "tavily":
		if cfg.TavilyKey == "" {
			return fmt.Errorf("TAVILY_API_KEY environment variable is required when WEB_SEARCH is tavily")
		}
	case "brave":
		if cfg.BraveKey == "" {
			return fmt.Errorf("BRAVE_API_KEY environment variable is required when WEB_SEARCH is brave")
		}
	default:
		return fmt.Errorf("unknown WEB_SEARCH backend: %s", cfg.WebSearch)
	}
	switch cfg.DBBackend {
	case "sqlite":
	case "postgres":
		if cfg.PostgresURL == "" {
			return fmt.Errorf("POSTGRES_URL environment variable is required when DB_BACKEND is postgres")
		}
	default:
		return fmt.Errorf("unknown DB_BACKEND: %s", cfg.DBBackend)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
