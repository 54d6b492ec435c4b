package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"f1gpt/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("PG_HOST", "localhost")
	t.Setenv("PG_USER", "postgres")
	t.Setenv("PG_PASS", "postgres")
	t.Setenv("PG_DB_NAME", "f1gpt")
	t.Setenv("VECTOR_NAMESPACE", "f1gpt")
	t.Setenv("VECTOR_COLLECTION", "f1_chunks")
	t.Setenv("GROQ_API_KEY", "gsk_test")
	t.Setenv("MISTRAL_API_KEY", "mst_test")

	// Clear optional overrides so defaults are observable.
	for _, key := range []string{
		"SERVER_ADDR", "PG_PORT", "VECTOR_METRIC", "EMBEDDING_DIMENSION",
		"EMBEDDING_MODEL", "LLM_MODEL", "GROQ_BASE_URL", "MISTRAL_BASE_URL",
		"REQUEST_TIMEOUT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.ServerAddr)
	assert.Equal(t, 5432, cfg.PGPort)
	assert.Equal(t, types.MetricDotProduct, cfg.Metric)
	assert.Equal(t, 1024, cfg.Dimension)
	assert.Equal(t, "mistral-embed", cfg.EmbedModel)
	assert.Equal(t, "llama-3.3-70b-versatile", cfg.LLMModel)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Contains(t, cfg.ConnString(), "dbname=f1gpt")
}

func TestLoadMissingRequiredIsConfigError(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("GROQ_API_KEY", "")

	_, err := Load()
	var cfgErr *types.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "GROQ_API_KEY", cfgErr.Key)
}

func TestLoadRejectsBadMetric(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("VECTOR_METRIC", "manhattan")

	_, err := Load()
	var cfgErr *types.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "VECTOR_METRIC", cfgErr.Key)
}

func TestLoadRejectsBadDimension(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("EMBEDDING_DIMENSION", "-1")

	_, err := Load()
	var cfgErr *types.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "EMBEDDING_DIMENSION", cfgErr.Key)
}

func TestLoadSourcesDefaultsWhenFileMissing(t *testing.T) {
	src, err := LoadSources(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Len(t, src.URLs, 6)
	assert.Equal(t, 512, src.ChunkSize)
	assert.Equal(t, 100, src.ChunkOverlap)
	assert.Equal(t, 4, src.Workers)
}

func TestLoadSourcesOverridesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"urls:\n  - https://example.com/f1\nchunk_size: 256\n"), 0o644))

	src, err := LoadSources(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"https://example.com/f1"}, src.URLs)
	assert.Equal(t, 256, src.ChunkSize)
	// Omitted fields keep defaults.
	assert.Equal(t, 100, src.ChunkOverlap)
	assert.Equal(t, 4, src.Workers)
}

func TestLoadSourcesRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte("urls: [unclosed"), 0o644))

	_, err := LoadSources(path)
	assert.Error(t, err)
}
