package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	KeyStorageURL = "LITNOTES_STORAGE_URL"
	KeyStorageKey = "LITNOTES_STORAGE_KEY"
)

const (
	IndexModeInline   = "inline"
	IndexModeTemporal = "temporal"
)

// Embedding backends. Auto picks openai when EMBEDDING_API_KEY is set and
// hash otherwise.
const (
	EmbedProviderAuto   = "auto"
	EmbedProviderOpenAI = "openai"
	EmbedProviderOllama = "ollama"
	EmbedProviderHash   = "hash"
)

type Config struct {
	APIAddr string

	StorageURL string
	StorageKey string

	OpenAIKey          string
	OpenAIBaseURL      string
	AnthropicKey       string
	AnthropicBaseURL   string
	GroqKey            string
	GroqBaseURL        string
	GroqModel          string
	DefaultAIProvider  string
	EnableMockProvider bool
	StreamFramePolicy  string

	EmbedProvider string
	EmbedAPIKey   string
	EmbedBaseURL  string
	OllamaBaseURL string
	EmbedModel    string
	EmbedDim      int
	EmbedMaxChars int

	ChunkSize        int
	ChunkOverlap     int
	IndexConcurrency int
	IndexMode        string

	SearchThreshold  float64
	SearchMatchCount int
	SearchLimit      int

	TemporalAddress     string
	TemporalTaskQueue   string
	BackfillMaxChildren int

	LogLevel  string
	LogFormat string
}

func Load() Config {
	return Config{
		APIAddr:             getenv("LITNOTES_API_ADDR", ":8080"),
		StorageURL:          os.Getenv(KeyStorageURL),
		StorageKey:          os.Getenv(KeyStorageKey),
		OpenAIKey:           os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:       os.Getenv("LITNOTES_OPENAI_BASE_URL"),
		AnthropicKey:        os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicBaseURL:    os.Getenv("LITNOTES_ANTHROPIC_BASE_URL"),
		GroqKey:             os.Getenv("GROQ_API_KEY"),
		GroqBaseURL:         os.Getenv("LITNOTES_GROQ_BASE_URL"),
		GroqModel:           os.Getenv("LITNOTES_GROQ_MODEL"),
		DefaultAIProvider:   getenv("LITNOTES_DEFAULT_AI_PROVIDER", "openai"),
		EnableMockProvider:  getenvBool("LITNOTES_MOCK_PROVIDER", false),
		StreamFramePolicy:   getenv("LITNOTES_STREAM_FRAME_POLICY", "skip"),
		EmbedProvider:       strings.ToLower(getenv("LITNOTES_EMBED_PROVIDER", EmbedProviderAuto)),
		EmbedAPIKey:         os.Getenv("EMBEDDING_API_KEY"),
		OllamaBaseURL:       getenv("LITNOTES_OLLAMA_BASE_URL", "http://localhost:11434"),
		EmbedBaseURL:        getenv("LITNOTES_EMBED_BASE_URL", "https://open.bigmodel.cn/api/paas/v4"),
		EmbedModel:          getenv("LITNOTES_EMBED_MODEL", "embedding-2"),
		EmbedDim:            getenvInt("LITNOTES_EMBED_DIM", 1024),
		EmbedMaxChars:       getenvInt("LITNOTES_EMBED_MAX_CHARS", 2000),
		ChunkSize:           getenvInt("LITNOTES_CHUNK_SIZE", 2000),
		ChunkOverlap:        getenvInt("LITNOTES_CHUNK_OVERLAP", 200),
		IndexConcurrency:    getenvInt("LITNOTES_INDEX_CONCURRENCY", 1),
		IndexMode:           strings.ToLower(getenv("LITNOTES_INDEX_MODE", IndexModeInline)),
		SearchThreshold:     getenvFloat("LITNOTES_SEARCH_THRESHOLD", 0.3),
		SearchMatchCount:    getenvInt("LITNOTES_SEARCH_MATCH_COUNT", 20),
		SearchLimit:         getenvInt("LITNOTES_SEARCH_LIMIT", 10),
		TemporalAddress:     getenv("LITNOTES_TEMPORAL_ADDRESS", "localhost:7233"),
		TemporalTaskQueue:   getenv("LITNOTES_TEMPORAL_TASK_QUEUE", "litnotes"),
		BackfillMaxChildren: getenvInt("LITNOTES_BACKFILL_MAX_CHILDREN", 3),
		LogLevel:            getenv("LITNOTES_LOG_LEVEL", "info"),
		LogFormat:           getenv("LITNOTES_LOG_FORMAT", "json"),
	}
}

// ValidationError lists every required key that was missing at startup.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "missing required environment variables: " + strings.Join(e.Missing, ", ")
}

// Validate fails fast before the process serves traffic.
func (c Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.StorageURL) == "" {
		missing = append(missing, KeyStorageURL)
	}
	if strings.TrimSpace(c.StorageKey) == "" {
		missing = append(missing, KeyStorageKey)
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	if c.ChunkSize <= 0 || c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("invalid chunking: size=%d overlap=%d", c.ChunkSize, c.ChunkOverlap)
	}
	if c.EmbedDim <= 0 {
		return fmt.Errorf("invalid embedding dimension %d", c.EmbedDim)
	}
	switch c.IndexMode {
	case IndexModeInline, IndexModeTemporal:
	default:
		return fmt.Errorf("unknown index mode %q", c.IndexMode)
	}
	switch c.EmbedProvider {
	case EmbedProviderAuto, EmbedProviderHash, EmbedProviderOllama:
	case EmbedProviderOpenAI:
		if strings.TrimSpace(c.EmbedAPIKey) == "" {
			return fmt.Errorf("embedding provider %q requires EMBEDDING_API_KEY", c.EmbedProvider)
		}
	default:
		return fmt.Errorf("unknown embedding provider %q", c.EmbedProvider)
	}
	return nil
}

func getenv(k, fallback string) string {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	return v
}

func getenvInt(k string, fallback int) int {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvFloat(k string, fallback float64) float64 {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getenvBool(k string, fallback bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
