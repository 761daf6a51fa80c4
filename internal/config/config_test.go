package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dgallion1/medbot/internal/chunker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every variable Load reads so the host environment does
// not leak into tests.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "LOG_LEVEL", "RAG_BACKEND", "EMBEDDING_PROVIDER", "LLM_PROVIDER",
		"OPENAI_API_KEY", "OPENAI_BASE_URL", "OPENAI_EMBEDDING_MODEL", "OPENAI_CHAT_MODEL",
		"OLLAMA_URL", "OLLAMA_EMBEDDING_MODEL", "OLLAMA_CHAT_MODEL",
		"GEMINI_API_KEY", "GEMINI_EMBEDDING_MODEL", "GEMINI_CHAT_MODEL",
		"ANTHROPIC_API_KEY", "ANTHROPIC_MODEL", "EMBEDDING_DIMENSION",
		"VECTOR_STORE", "PINECONE_API_KEY", "PINECONE_INDEX", "PINECONE_HOST",
		"PINECONE_NAMESPACE", "PINECONE_CLOUD", "PINECONE_REGION",
		"DATA_DIR", "INDEX_EXTENSIONS", "CHUNK_SIZE", "CHUNK_OVERLAP", "UPSERT_BATCH_SIZE",
		"PDF_FALLBACK_PDFTOTEXT", "TOP_K", "MAX_CONTEXT_CHARS", "TEMPERATURE", "MAX_TOKENS",
		"PROMPT_TEMPLATE", "PROMPT_FILE", "STATS_WINDOW",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, BackendHosted, cfg.Backend)
	assert.Equal(t, ProviderOpenAI, cfg.EmbeddingProvider)
	assert.Equal(t, ProviderOpenAI, cfg.LLMProvider)
	assert.Equal(t, 384, cfg.EmbeddingDimension)
	assert.Equal(t, "medical-chatbot", cfg.PineconeIndex)
	assert.Equal(t, chunker.DefaultConfig(), cfg.Chunk())
	assert.Equal(t, 6, cfg.TopK)
	assert.Equal(t, 3000, cfg.MaxContextChars)
	assert.Equal(t, 512, cfg.MaxTokens)
	assert.Equal(t, 0.2, cfg.Temperature)
	assert.Equal(t, []string{".pdf"}, cfg.IndexExtensions)
	assert.Equal(t, time.Hour, cfg.StatsWindow)
}

func TestLoad_LocalPresetAndOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("RAG_BACKEND", "LOCAL")
	cfg := Load()
	assert.Equal(t, ProviderOllama, cfg.EmbeddingProvider)
	assert.Equal(t, ProviderOllama, cfg.LLMProvider)

	t.Setenv("EMBEDDING_PROVIDER", "gemini")
	t.Setenv("LLM_PROVIDER", "anthropic")
	cfg = Load()
	assert.Equal(t, ProviderGemini, cfg.EmbeddingProvider)
	assert.Equal(t, ProviderAnthropic, cfg.LLMProvider)
	assert.Equal(t, 768, cfg.EmbeddingDimension, "gemini default dimension")
}

func TestLoad_ListAndInvalidNumbers(t *testing.T) {
	clearEnv(t)
	t.Setenv("INDEX_EXTENSIONS", " .pdf, md ,,.txt")
	t.Setenv("TOP_K", "many")
	t.Setenv("TEMPERATURE", "0.7")
	cfg := Load()

	assert.Equal(t, []string{".pdf", "md", ".txt"}, cfg.IndexExtensions)
	assert.Equal(t, 6, cfg.TopK, "unparsable TOP_K falls back to the default")
	assert.Equal(t, 0.7, cfg.Temperature)
}

func validConfig() Config {
	return Config{
		Backend:            BackendHosted,
		EmbeddingProvider:  ProviderOpenAI,
		LLMProvider:        ProviderOpenAI,
		OpenAIAPIKey:       "sk",
		EmbeddingDimension: 384,
		VectorStore:        StorePinecone,
		PineconeAPIKey:     "pc",
		PineconeIndex:      "medical-chatbot",
		ChunkSize:          500,
		ChunkOverlap:       20,
		TopK:               6,
		MaxContextChars:    3000,
		MaxTokens:          512,
		Temperature:        0.2,
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown backend", func(c *Config) { c.Backend = "cloud" }, "RAG_BACKEND"},
		{"unknown embedder", func(c *Config) { c.EmbeddingProvider = "anthropic" }, "EMBEDDING_PROVIDER"},
		{"unknown llm", func(c *Config) { c.LLMProvider = "bard" }, "LLM_PROVIDER"},
		{"missing openai key", func(c *Config) { c.OpenAIAPIKey = "" }, "OPENAI_API_KEY"},
		{"missing gemini key", func(c *Config) { c.EmbeddingProvider = ProviderGemini }, "GEMINI_API_KEY"},
		{"missing anthropic key", func(c *Config) { c.LLMProvider = ProviderAnthropic }, "ANTHROPIC_API_KEY"},
		{"missing pinecone key", func(c *Config) { c.PineconeAPIKey = "" }, "PINECONE_API_KEY"},
		{"unknown store", func(c *Config) { c.VectorStore = "redis" }, "VECTOR_STORE"},
		{"zero dimension", func(c *Config) { c.EmbeddingDimension = 0 }, "EMBEDDING_DIMENSION"},
		{"zero top k", func(c *Config) { c.TopK = 0 }, "TOP_K"},
		{"zero context chars", func(c *Config) { c.MaxContextChars = 0 }, "MAX_CONTEXT_CHARS"},
		{"negative context chars", func(c *Config) { c.MaxContextChars = -1 }, "MAX_CONTEXT_CHARS"},
		{"zero max tokens", func(c *Config) { c.MaxTokens = 0 }, "MAX_TOKENS"},
		{"temperature", func(c *Config) { c.Temperature = 3 }, "TEMPERATURE"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			assert.ErrorContains(t, cfg.Validate(), tc.want)
		})
	}
}

func TestValidate_ChunkConfig(t *testing.T) {
	cfg := validConfig()
	cfg.ChunkOverlap = cfg.ChunkSize
	assert.ErrorIs(t, cfg.Validate(), chunker.ErrInvalidConfig)
}

func TestValidate_LocalNeedsNoKeys(t *testing.T) {
	cfg := validConfig()
	cfg.Backend = BackendLocal
	cfg.EmbeddingProvider = ProviderOllama
	cfg.LLMProvider = ProviderOllama
	cfg.OpenAIAPIKey = ""
	cfg.VectorStore = StoreMemory
	cfg.PineconeAPIKey = ""
	assert.NoError(t, cfg.Validate())
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("PINECONE_INDEX=from-dotenv\nPORT=9000\n"), 0o600))
	// godotenv never overrides variables that exist, even empty ones.
	os.Unsetenv("PORT")
	os.Unsetenv("PINECONE_INDEX")

	require.NoError(t, LoadDotEnv(path))
	cfg := Load()
	assert.Equal(t, "from-dotenv", cfg.PineconeIndex)
	assert.Equal(t, "9000", cfg.Port)

	assert.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env")), "missing .env is ignored")
}
