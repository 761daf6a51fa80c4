package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dgallion1/medbot/internal/chunker"
	"github.com/joho/godotenv"
)

// Provider names.
const (
	ProviderOpenAI    = "openai"
	ProviderOllama    = "ollama"
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
)

// Backend presets pair an embedding provider with a generation provider.
const (
	BackendLocal  = "local"
	BackendHosted = "hosted"
)

// Vector stores.
const (
	StorePinecone = "pinecone"
	StoreMemory   = "memory"
)

type Config struct {
	Port     string
	LogLevel string

	// Provider selection
	Backend           string
	EmbeddingProvider string
	LLMProvider       string

	// OpenAI
	OpenAIAPIKey         string
	OpenAIBaseURL        string
	OpenAIEmbeddingModel string
	OpenAIChatModel      string

	// Ollama
	OllamaURL            string
	OllamaEmbeddingModel string
	OllamaChatModel      string

	// Gemini
	GeminiAPIKey         string
	GeminiEmbeddingModel string
	GeminiChatModel      string

	// Anthropic
	AnthropicAPIKey string
	AnthropicModel  string

	EmbeddingDimension int

	// Vector store
	VectorStore       string
	PineconeAPIKey    string
	PineconeIndex     string
	PineconeHost      string
	PineconeNamespace string
	PineconeCloud     string
	PineconeRegion    string

	// Indexing
	DataDir              string
	IndexExtensions      []string
	ChunkSize            int
	ChunkOverlap         int
	UpsertBatchSize      int
	PDFFallbackPdftotext bool

	// Answering
	TopK            int
	MaxContextChars int
	Temperature     float64
	MaxTokens       int
	PromptTemplate  string
	PromptFile      string

	StatsWindow time.Duration
}

// LoadDotEnv loads variables from path into the environment if the file
// exists. Variables already set win.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func Load() Config {
	cfg := Config{
		Port:     envOr("PORT", "8080"),
		LogLevel: envOr("LOG_LEVEL", "info"),

		Backend: strings.ToLower(envOr("RAG_BACKEND", BackendHosted)),

		OpenAIAPIKey:         os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:        os.Getenv("OPENAI_BASE_URL"),
		OpenAIEmbeddingModel: envOr("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
		OpenAIChatModel:      envOr("OPENAI_CHAT_MODEL", "gpt-4o-mini"),

		OllamaURL:            envOr("OLLAMA_URL", "http://localhost:11434"),
		OllamaEmbeddingModel: envOr("OLLAMA_EMBEDDING_MODEL", "all-minilm"),
		OllamaChatModel:      envOr("OLLAMA_CHAT_MODEL", "llama3.2"),

		GeminiAPIKey:         os.Getenv("GEMINI_API_KEY"),
		GeminiEmbeddingModel: envOr("GEMINI_EMBEDDING_MODEL", "text-embedding-004"),
		GeminiChatModel:      envOr("GEMINI_CHAT_MODEL", "gemini-2.0-flash"),

		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:  envOr("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929"),

		VectorStore:       strings.ToLower(envOr("VECTOR_STORE", StorePinecone)),
		PineconeAPIKey:    os.Getenv("PINECONE_API_KEY"),
		PineconeIndex:     envOr("PINECONE_INDEX", "medical-chatbot"),
		PineconeHost:      os.Getenv("PINECONE_HOST"),
		PineconeNamespace: os.Getenv("PINECONE_NAMESPACE"),
		PineconeCloud:     envOr("PINECONE_CLOUD", "aws"),
		PineconeRegion:    envOr("PINECONE_REGION", "us-east-1"),

		DataDir:              envOr("DATA_DIR", "data"),
		IndexExtensions:      envList("INDEX_EXTENSIONS", []string{".pdf"}),
		ChunkSize:            envInt("CHUNK_SIZE", 500),
		ChunkOverlap:         envInt("CHUNK_OVERLAP", 20),
		UpsertBatchSize:      envInt("UPSERT_BATCH_SIZE", 100),
		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),

		TopK:            envInt("TOP_K", 6),
		MaxContextChars: envInt("MAX_CONTEXT_CHARS", 3000),
		Temperature:     envFloat("TEMPERATURE", 0.2),
		MaxTokens:       envInt("MAX_TOKENS", 512),
		PromptTemplate:  envOr("PROMPT_TEMPLATE", "structured"),
		PromptFile:      os.Getenv("PROMPT_FILE"),

		StatsWindow: envDuration("STATS_WINDOW", 1*time.Hour),
	}

	embed, gen := presetProviders(cfg.Backend)
	cfg.EmbeddingProvider = strings.ToLower(envOr("EMBEDDING_PROVIDER", embed))
	cfg.LLMProvider = strings.ToLower(envOr("LLM_PROVIDER", gen))
	cfg.EmbeddingDimension = envInt("EMBEDDING_DIMENSION", defaultDimension(cfg.EmbeddingProvider))

	if cfg.UpsertBatchSize <= 0 {
		cfg.UpsertBatchSize = 100
	}
	if cfg.StatsWindow <= 0 {
		cfg.StatsWindow = 1 * time.Hour
	}

	return cfg
}

// presetProviders returns the embedding and generation providers of a
// backend preset. Unknown presets fall back to hosted and fail Validate.
func presetProviders(backend string) (embed, gen string) {
	if backend == BackendLocal {
		return ProviderOllama, ProviderOllama
	}
	return ProviderOpenAI, ProviderOpenAI
}

// defaultDimension is the vector length of each provider's default model.
func defaultDimension(provider string) int {
	if provider == ProviderGemini {
		return 768
	}
	return 384
}

// Chunk returns the chunking parameters.
func (c Config) Chunk() chunker.Config {
	return chunker.Config{ChunkSize: c.ChunkSize, ChunkOverlap: c.ChunkOverlap}
}

// Validate checks the settings needed by the selected providers and store.
func (c Config) Validate() error {
	if c.Backend != BackendLocal && c.Backend != BackendHosted {
		return fmt.Errorf("RAG_BACKEND must be %q or %q, got %q", BackendLocal, BackendHosted, c.Backend)
	}

	switch c.EmbeddingProvider {
	case ProviderOpenAI, ProviderOllama, ProviderGemini:
	default:
		return fmt.Errorf("EMBEDDING_PROVIDER %q is not supported", c.EmbeddingProvider)
	}
	switch c.LLMProvider {
	case ProviderOpenAI, ProviderOllama, ProviderGemini, ProviderAnthropic:
	default:
		return fmt.Errorf("LLM_PROVIDER %q is not supported", c.LLMProvider)
	}

	for _, p := range []string{c.EmbeddingProvider, c.LLMProvider} {
		if err := c.requireKey(p); err != nil {
			return err
		}
	}

	switch c.VectorStore {
	case StorePinecone:
		if c.PineconeAPIKey == "" {
			return fmt.Errorf("PINECONE_API_KEY is required")
		}
		if c.PineconeIndex == "" {
			return fmt.Errorf("PINECONE_INDEX is required")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("VECTOR_STORE must be %q or %q, got %q", StorePinecone, StoreMemory, c.VectorStore)
	}

	if err := c.Chunk().Validate(); err != nil {
		return err
	}
	if c.EmbeddingDimension <= 0 {
		return fmt.Errorf("EMBEDDING_DIMENSION must be positive")
	}
	if c.TopK <= 0 {
		return fmt.Errorf("TOP_K must be positive")
	}
	if c.MaxContextChars <= 0 {
		return fmt.Errorf("MAX_CONTEXT_CHARS must be positive")
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("MAX_TOKENS must be positive")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("TEMPERATURE must be between 0 and 2, got %g", c.Temperature)
	}
	return nil
}

func (c Config) requireKey(provider string) error {
	switch provider {
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required")
		}
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required")
		}
	case ProviderAnthropic:
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required")
		}
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// envList splits a comma-separated variable, dropping empty items.
func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
