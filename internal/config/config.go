// Package config centralises configuration parsing for the activity memory service.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures runtime configuration values for the service.
type Config struct {
	HTTPAddress         string
	LLMBaseURL          string
	LLMAPIKey           string
	LLMModel            string
	LLMTimeout          time.Duration
	EmbeddingsBaseURL   string
	EmbeddingsAPIKey    string
	EmbeddingsModel     string
	EmbeddingDimensions int
	KafkaBrokers        []string // Empty disables event publishing.
	JWTSecret           string
	JWTIssuer           string
	DefaultSearchLimit  int
	SimilarityThreshold float64
}

// Load reads environment variables into Config, applying sensible defaults for local dev.
func Load() Config {
	cfg := Config{
		HTTPAddress:         getEnv("HTTP_ADDRESS", ":8080"),
		LLMBaseURL:          getEnv("LLM_BASE_URL", "https://api.openai.com/v1"),
		LLMAPIKey:           getEnv("LLM_API_KEY", ""),
		LLMModel:            getEnv("LLM_MODEL", "gpt-4o-mini"),
		LLMTimeout:          getDurationEnv("LLM_TIMEOUT", 30*time.Second),
		EmbeddingsBaseURL:   getEnv("EMBEDDINGS_BASE_URL", "https://api.openai.com/v1"),
		EmbeddingsAPIKey:    getEnv("EMBEDDINGS_API_KEY", ""),
		EmbeddingsModel:     getEnv("EMBEDDINGS_MODEL", "text-embedding-3-small"),
		EmbeddingDimensions: getIntEnv("EMBEDDING_DIMENSIONS", 384),
		JWTSecret:           getEnv("JWT_SECRET", "dev-secret-change-me"),
		JWTIssuer:           getEnv("JWT_ISSUER", "activity-memory.identity"),
		DefaultSearchLimit:  getIntEnv("DEFAULT_SEARCH_LIMIT", 10),
		SimilarityThreshold: getFloatEnv("SIMILARITY_THRESHOLD", 0.3),
	}

	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		cfg.KafkaBrokers = splitAndTrim(brokers)
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getFloatEnv(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}
