package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("DATA_DIR", "/data")
	t.Setenv("LOG_LEVEL", "")
	for _, key := range []string{"HTTP_PORT", "PORT", "RETRIEVAL_K", "RETRIEVER", "CHUNK_SIZE", "CHUNK_OVERLAP", "CHAT_TIMEOUT_MS", "DATASET_REFRESH", "WORLD_DATA_CSV", "GEM_PDF", "LLM_MAX_TOKENS"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, EnvDevelopment, cfg.Environment)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "/data/world_data.csv", cfg.WorldDataCSV)
	assert.Equal(t, "/data/GEM_Report.pdf", cfg.GEMPDF)
	assert.Equal(t, 4, cfg.RetrievalK)
	assert.Equal(t, 2000, cfg.ChunkSize)
	assert.Equal(t, 200, cfg.ChunkOverlap)
	assert.Equal(t, RetrieverVector, cfg.Retriever)
	assert.Equal(t, 512, cfg.LLMMaxTokens)
	assert.Equal(t, 180*time.Second, cfg.ChatTimeout)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.DatasetRefresh)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "Production")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("RETRIEVAL_K", "6")
	t.Setenv("RETRIEVER", "BLEVE")
	t.Setenv("CHAT_TIMEOUT_MS", "1500")
	t.Setenv("DATASET_REFRESH", "false")
	t.Setenv("WORLDRAG_MODE", "mock")
	t.Setenv("LOG_LEVEL", "")

	cfg := Load()

	assert.Equal(t, EnvProduction, cfg.Environment)
	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, 6, cfg.RetrievalK)
	assert.Equal(t, RetrieverBleve, cfg.Retriever)
	assert.Equal(t, 1500*time.Millisecond, cfg.ChatTimeout)
	assert.False(t, cfg.DatasetRefresh)
	assert.True(t, cfg.IsMock())
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("RETRIEVAL_K", "four")
	t.Setenv("HTTP_PORT", "")
	t.Setenv("PORT", "80")

	cfg := Load()
	assert.Equal(t, 4, cfg.RetrievalK)
	assert.Equal(t, 80, cfg.HTTPPort)
}

func validConfig() *Config {
	return &Config{
		Environment:   EnvTesting,
		HTTPPort:      8080,
		RetrievalK:    4,
		ChunkSize:     2000,
		ChunkOverlap:  200,
		Retriever:     RetrieverVector,
		MaxQueryChars: 100,
		Mode:          ModeMock,
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"zero k", func(c *Config) { c.RetrievalK = 0 }, "RETRIEVAL_K"},
		{"negative k", func(c *Config) { c.RetrievalK = -3 }, "RETRIEVAL_K"},
		{"overlap too large", func(c *Config) { c.ChunkOverlap = 2000 }, "CHUNK_OVERLAP"},
		{"unknown retriever", func(c *Config) { c.Retriever = "faiss" }, "RETRIEVER"},
		{"unknown environment", func(c *Config) { c.Environment = "staging" }, "ENVIRONMENT"},
		{"missing token", func(c *Config) { c.Mode = "" }, "HUGGINGFACEHUB_API_TOKEN"},
		{"bad port", func(c *Config) { c.HTTPPort = 70000 }, "HTTP_PORT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
