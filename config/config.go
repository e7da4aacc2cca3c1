package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the document Q&A service.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Security  SecurityConfig  `mapstructure:"security"`
	Retrieval RetrievalConfig `mapstructure:"retrieval"`
	Ingest    IngestConfig    `mapstructure:"ingest"`
	LLM       LLMConfig       `mapstructure:"llm"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// StorageConfig covers conversation persistence and the vector index.
type StorageConfig struct {
	ConversationDir string            `mapstructure:"conversation_dir"`
	VectorStore     VectorStoreConfig `mapstructure:"vector_store"`
}

// VectorStoreConfig selects and configures the vector index backend.
// Type is "memory" (embedded, snapshot on disk) or "qdrant".
type VectorStoreConfig struct {
	Type   string       `mapstructure:"type"`
	Path   string       `mapstructure:"path"`
	Qdrant QdrantConfig `mapstructure:"qdrant"`
}

type QdrantConfig struct {
	URL        string        `mapstructure:"url"`
	APIKey     string        `mapstructure:"api_key"`
	Collection string        `mapstructure:"collection"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// SecurityConfig contains access-gate settings. RateWindow type is
// "memory" (per-process counters) or "redis" (shared quota).
type SecurityConfig struct {
	MaxRequestsPerHour int              `mapstructure:"max_requests_per_hour"`
	MaxQuestionLength  int              `mapstructure:"max_question_length"`
	RateWindow         RateWindowConfig `mapstructure:"rate_window"`
}

type RateWindowConfig struct {
	Type  string      `mapstructure:"type"`
	Redis RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// RetrievalConfig tunes the answering pipeline. MinRelevance of 0 accepts
// every returned chunk; the default keeps a nonzero cutoff for stronger
// grounding. MaxContextChunks bounds how many retrieved chunks reach the
// prompt (0 means all of TopK).
type RetrievalConfig struct {
	TopK             int     `mapstructure:"top_k"`
	MaxContextChunks int     `mapstructure:"max_context_chunks"`
	MinRelevance     float64 `mapstructure:"min_relevance"`
	ContextMessages  int     `mapstructure:"context_messages"`
}

// IngestConfig controls document loading and chunking.
type IngestConfig struct {
	DocsDir      string `mapstructure:"docs_dir"`
	ChunkSize    int    `mapstructure:"chunk_size"`
	ChunkOverlap int    `mapstructure:"chunk_overlap"`
}

// LLMConfig selects the generation/embedding provider.
type LLMConfig struct {
	Provider string       `mapstructure:"provider"`
	OpenAI   OpenAIConfig `mapstructure:"openai"`
	Ollama   OllamaConfig `mapstructure:"ollama"`
}

type OpenAIConfig struct {
	APIKey         string        `mapstructure:"api_key"`
	BaseURL        string        `mapstructure:"base_url"`
	Model          string        `mapstructure:"model"`
	EmbeddingModel string        `mapstructure:"embedding_model"`
	Temperature    float64       `mapstructure:"temperature"`
	MaxTokens      int           `mapstructure:"max_tokens"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

type OllamaConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	Model          string        `mapstructure:"model"`
	EmbeddingModel string        `mapstructure:"embedding_model"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

func (s SecurityConfig) Validate() error {
	if s.MaxRequestsPerHour <= 0 {
		return errors.New("security.max_requests_per_hour must be > 0")
	}
	if s.MaxQuestionLength <= 0 {
		return errors.New("security.max_question_length must be > 0")
	}
	if s.RateWindow.Type == "redis" && s.RateWindow.Redis.Addr == "" {
		return errors.New("security.rate_window.redis.addr required for redis window")
	}
	return nil
}

func (r RetrievalConfig) Validate() error {
	if r.TopK <= 0 {
		return errors.New("retrieval.top_k must be > 0")
	}
	if r.MaxContextChunks < 0 || r.MaxContextChunks > r.TopK {
		return errors.New("retrieval.max_context_chunks must be in [0, top_k]")
	}
	if r.MinRelevance < 0 || r.MinRelevance > 1 {
		return errors.New("retrieval.min_relevance must be in [0,1]")
	}
	return nil
}

func setDefaults() {
	viper.SetDefault("server.address", ":10010")
	viper.SetDefault("storage.conversation_dir", "./data/conversations")
	viper.SetDefault("storage.vector_store.type", "memory")
	viper.SetDefault("storage.vector_store.path", "./data/index.json")
	viper.SetDefault("storage.vector_store.qdrant.collection", "corpusqa")
	viper.SetDefault("storage.vector_store.qdrant.timeout", 15*time.Second)
	viper.SetDefault("security.max_requests_per_hour", 100)
	viper.SetDefault("security.max_question_length", 1000)
	viper.SetDefault("security.rate_window.type", "memory")
	viper.SetDefault("retrieval.top_k", 5)
	viper.SetDefault("retrieval.max_context_chunks", 0)
	viper.SetDefault("retrieval.min_relevance", 0.25)
	viper.SetDefault("retrieval.context_messages", 6)
	viper.SetDefault("ingest.docs_dir", "./data/documents")
	viper.SetDefault("ingest.chunk_size", 1000)
	viper.SetDefault("ingest.chunk_overlap", 200)
	viper.SetDefault("llm.provider", "ollama")
	viper.SetDefault("llm.openai.model", "gpt-4o-mini")
	viper.SetDefault("llm.openai.embedding_model", "text-embedding-3-small")
	viper.SetDefault("llm.openai.temperature", 0.2)
	viper.SetDefault("llm.openai.max_tokens", 1024)
	viper.SetDefault("llm.openai.timeout", 60*time.Second)
	viper.SetDefault("llm.ollama.base_url", "http://localhost:11434")
	viper.SetDefault("llm.ollama.model", "llama3.2")
	viper.SetDefault("llm.ollama.embedding_model", "nomic-embed-text")
	viper.SetDefault("llm.ollama.timeout", 120*time.Second)
}

// LoadConfig reads configuration from the given file (optional), the working
// directory and CORPUSQA_* environment variables, in that order of
// precedence, and validates the result.
func LoadConfig(path string) (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	setDefaults()

	if path == "" {
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("CORPUSQA")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// A missing file is fine, defaults and env cover everything.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Security.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Retrieval.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
