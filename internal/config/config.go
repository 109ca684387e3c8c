// Package config provides configuration for worldrag.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environments accepted in ENVIRONMENT.
const (
	EnvDevelopment = "development"
	EnvTesting     = "testing"
	EnvProduction  = "production"
)

// Retriever backends accepted in RETRIEVER.
const (
	RetrieverVector = "vector"
	RetrieverBleve  = "bleve"
)

// ModeMock selects the mock LLM and embedder in WORLDRAG_MODE.
const ModeMock = "MOCK"

// Config holds the worldrag configuration.
type Config struct {
	Environment string

	// Server settings
	HTTPPort int

	// Database
	DatabaseURL string

	// Datasets
	DataDir        string
	WorldDataCSV   string
	GEMPDF         string
	GEMPDFURL      string
	WorldBankURL   string
	DatasetRefresh bool
	SkipDownload   bool

	// Hosted inference
	HFToken        string
	LLMBaseURL     string
	LLMModel       string
	LLMMaxTokens   int
	LLMRepetition  float64
	LLMTimeout     time.Duration
	EmbeddingURL   string
	EmbeddingModel string
	EmbeddingBatch int
	EmbeddingDims  int
	Mode           string

	// Retrieval
	Retriever    string
	RetrievalK   int
	ChunkSize    int
	ChunkOverlap int

	// Chat
	ChatTimeout    time.Duration
	SessionIdleTTL time.Duration
	MaxQueryChars  int

	// Logging
	LogLevel string
}

// Load loads configuration from the environment, after merging a .env file
// from the working directory if there is one.
func Load() *Config {
	_ = godotenv.Load()

	dataDir := getEnv("DATA_DIR", ".")
	cfg := &Config{
		Environment:    strings.ToLower(getEnv("ENVIRONMENT", EnvDevelopment)),
		HTTPPort:       getEnvInt("HTTP_PORT", getEnvInt("PORT", 8080)),
		DatabaseURL:    getEnv("DATABASE_URL", "file:worldrag.db?cache=shared&mode=rwc"),
		DataDir:        dataDir,
		WorldDataCSV:   getEnv("WORLD_DATA_CSV", filepath.Join(dataDir, "world_data.csv")),
		GEMPDF:         getEnv("GEM_PDF", filepath.Join(dataDir, "GEM_Report.pdf")),
		GEMPDFURL:      getEnv("GEM_PDF_URL", "https://gemconsortium.org/file/open?fileId=51377"),
		WorldBankURL:   getEnv("WORLDBANK_API_URL", "https://api.worldbank.org/v2"),
		DatasetRefresh: getEnvBool("DATASET_REFRESH", true),
		HFToken:        getEnv("HUGGINGFACEHUB_API_TOKEN", ""),
		LLMBaseURL:     getEnv("LLM_BASE_URL", "https://router.huggingface.co/v1"),
		LLMModel:       getEnv("LLM_MODEL", "HuggingFaceH4/zephyr-7b-beta"),
		LLMMaxTokens:   getEnvInt("LLM_MAX_TOKENS", 512),
		LLMRepetition:  getEnvFloat("LLM_REPETITION_PENALTY", 1.03),
		LLMTimeout:     getEnvDuration("LLM_TIMEOUT_MS", 120000),
		EmbeddingURL:   getEnv("EMBEDDING_URL", "https://router.huggingface.co/hf-inference/models"),
		EmbeddingModel: getEnv("EMBEDDING_MODEL", "sentence-transformers/all-mpnet-base-v2"),
		EmbeddingBatch: getEnvInt("EMBEDDING_BATCH", 32),
		EmbeddingDims:  getEnvInt("EMBEDDING_DIMS", 768),
		Mode:           strings.ToUpper(getEnv("WORLDRAG_MODE", "")),
		Retriever:      strings.ToLower(getEnv("RETRIEVER", RetrieverVector)),
		RetrievalK:     getEnvInt("RETRIEVAL_K", 4),
		ChunkSize:      getEnvInt("CHUNK_SIZE", 2000),
		ChunkOverlap:   getEnvInt("CHUNK_OVERLAP", 200),
		ChatTimeout:    getEnvDuration("CHAT_TIMEOUT_MS", 180000),
		SessionIdleTTL: getEnvDuration("SESSION_IDLE_TTL_MS", 1800000),
		MaxQueryChars:  getEnvInt("MAX_QUERY_CHARS", 2000),
		LogLevel:       getEnv("LOG_LEVEL", ""),
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
		if cfg.Environment == EnvDevelopment {
			cfg.LogLevel = "debug"
		}
	}
	return cfg
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	switch c.Environment {
	case EnvDevelopment, EnvTesting, EnvProduction:
	default:
		errs = append(errs, fmt.Errorf("ENVIRONMENT %q is not one of development, testing, production", c.Environment))
	}
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("HTTP_PORT %d out of range", c.HTTPPort))
	}
	if c.RetrievalK <= 0 {
		errs = append(errs, fmt.Errorf("RETRIEVAL_K must be positive, got %d", c.RetrievalK))
	}
	if c.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("CHUNK_SIZE must be positive, got %d", c.ChunkSize))
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		errs = append(errs, fmt.Errorf("CHUNK_OVERLAP must be in [0, CHUNK_SIZE), got %d", c.ChunkOverlap))
	}
	switch c.Retriever {
	case RetrieverVector, RetrieverBleve:
	default:
		errs = append(errs, fmt.Errorf("RETRIEVER %q is not one of vector, bleve", c.Retriever))
	}
	if c.MaxQueryChars <= 0 {
		errs = append(errs, fmt.Errorf("MAX_QUERY_CHARS must be positive, got %d", c.MaxQueryChars))
	}
	if c.Mode != ModeMock && c.HFToken == "" {
		errs = append(errs, errors.New("HUGGINGFACEHUB_API_TOKEN is required unless WORLDRAG_MODE=MOCK"))
	}
	return errors.Join(errs...)
}

// IsMock reports whether hosted inference is replaced by local mocks.
func (c *Config) IsMock() bool {
	return c.Mode == ModeMock
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

// getEnvDuration reads a millisecond count.
func getEnvDuration(key string, defaultMs int) time.Duration {
	return time.Duration(getEnvInt(key, defaultMs)) * time.Millisecond
}
