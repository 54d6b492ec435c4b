package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"f1gpt/types"
)

const (
	defaultServerAddr  = ":3000"
	defaultGroqBaseURL = "https://api.groq.com/openai/v1"
	defaultLLMModel    = "llama-3.3-70b-versatile"

	defaultMistralBaseURL = "https://api.mistral.ai/v1"
	defaultEmbedModel     = "mistral-embed"

	// mistral-embed output length, must match the collection schema.
	defaultDimension = 1024
)

// Config is everything both binaries read from the environment. All required
// values are checked once at startup.
type Config struct {
	ServerAddr string

	PGHost   string
	PGPort   int
	PGUser   string
	PGPass   string
	PGDBName string

	Namespace  string
	Collection string
	Metric     types.SimilarityMetric
	Dimension  int

	GroqAPIKey  string
	GroqBaseURL string
	LLMModel    string

	MistralAPIKey  string
	MistralBaseURL string
	EmbedModel     string

	RequestTimeout time.Duration
}

// Load reads the environment. Missing required variables surface as a
// *types.ConfigError.
func Load() (*Config, error) {
	cfg := &Config{
		ServerAddr:     envOr("SERVER_ADDR", defaultServerAddr),
		PGHost:         os.Getenv("PG_HOST"),
		PGUser:         os.Getenv("PG_USER"),
		PGPass:         os.Getenv("PG_PASS"),
		PGDBName:       os.Getenv("PG_DB_NAME"),
		Namespace:      os.Getenv("VECTOR_NAMESPACE"),
		Collection:     os.Getenv("VECTOR_COLLECTION"),
		GroqAPIKey:     os.Getenv("GROQ_API_KEY"),
		GroqBaseURL:    envOr("GROQ_BASE_URL", defaultGroqBaseURL),
		LLMModel:       envOr("LLM_MODEL", defaultLLMModel),
		MistralAPIKey:  os.Getenv("MISTRAL_API_KEY"),
		MistralBaseURL: envOr("MISTRAL_BASE_URL", defaultMistralBaseURL),
		EmbedModel:     envOr("EMBEDDING_MODEL", defaultEmbedModel),
	}

	required := []struct{ key, val string }{
		{"PG_HOST", cfg.PGHost},
		{"PG_USER", cfg.PGUser},
		{"PG_PASS", cfg.PGPass},
		{"PG_DB_NAME", cfg.PGDBName},
		{"VECTOR_NAMESPACE", cfg.Namespace},
		{"VECTOR_COLLECTION", cfg.Collection},
		{"GROQ_API_KEY", cfg.GroqAPIKey},
		{"MISTRAL_API_KEY", cfg.MistralAPIKey},
	}
	for _, r := range required {
		if r.val == "" {
			return nil, &types.ConfigError{Key: r.key, Reason: "required but not set"}
		}
	}

	port, err := strconv.Atoi(envOr("PG_PORT", "5432"))
	if err != nil {
		return nil, &types.ConfigError{Key: "PG_PORT", Reason: "not a number"}
	}
	cfg.PGPort = port

	metric, err := types.ParseMetric(envOr("VECTOR_METRIC", string(types.MetricDotProduct)))
	if err != nil {
		return nil, &types.ConfigError{Key: "VECTOR_METRIC", Reason: err.Error()}
	}
	cfg.Metric = metric

	dim, err := strconv.Atoi(envOr("EMBEDDING_DIMENSION", strconv.Itoa(defaultDimension)))
	if err != nil || dim <= 0 {
		return nil, &types.ConfigError{Key: "EMBEDDING_DIMENSION", Reason: "not a positive number"}
	}
	cfg.Dimension = dim

	timeout, err := time.ParseDuration(envOr("REQUEST_TIMEOUT", "30s"))
	if err != nil {
		return nil, &types.ConfigError{Key: "REQUEST_TIMEOUT", Reason: "not a duration"}
	}
	cfg.RequestTimeout = timeout

	return cfg, nil
}

// ConnString builds the Postgres DSN the way the store expects it.
func (c *Config) ConnString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.PGHost, c.PGPort, c.PGUser, c.PGPass, c.PGDBName)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
