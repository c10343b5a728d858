package config

import (
	"errors"
	"fmt"
	"strings"
)

// MaxTopKLimit is the largest top_k a request may ask for; it matches the
// validation tag on types.TextRequest.
const MaxTopKLimit = 50

// Embedding backends understood by the embedding package.
const (
	EmbeddingONNX   = "onnx"
	EmbeddingOpenAI = "openai"
	EmbeddingLlama  = "llama"
)

// Config holds runtime parameters for the service.
// Empty strings mean "not configured"; the matching component stays unloaded.
type Config struct {
	Server      ServerConfig      `json:"server" yaml:"server" toml:"server"`
	Log         LogConfig         `json:"log" yaml:"log" toml:"log"`
	Model       ModelConfig       `json:"model" yaml:"model" toml:"model"`
	VectorStore VectorStoreConfig `json:"vector_store" yaml:"vector_store" toml:"vector_store"`
	Embedding   EmbeddingConfig   `json:"embedding" yaml:"embedding" toml:"embedding"`
	Recommend   RecommendConfig   `json:"recommend" yaml:"recommend" toml:"recommend"`
	Breaker     BreakerConfig     `json:"breaker" yaml:"breaker" toml:"breaker"`
}

type ServerConfig struct {
	Addr                  string   `json:"addr" yaml:"addr" toml:"addr"`
	MaxBodyBytes          int64    `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`
	RequestTimeoutSeconds int64    `json:"request_timeout_seconds" yaml:"request_timeout_seconds" toml:"request_timeout_seconds"`
	CORSEnabled           bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSOrigins           []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
	RateLimitRequests     int      `json:"rate_limit_requests" yaml:"rate_limit_requests" toml:"rate_limit_requests"`
	RateLimitWindowSecs   int      `json:"rate_limit_window_seconds" yaml:"rate_limit_window_seconds" toml:"rate_limit_window_seconds"`
}

type LogConfig struct {
	Level  string `json:"level" yaml:"level" toml:"level"`
	Format string `json:"format" yaml:"format" toml:"format"`
}

// ModelConfig locates the sentiment classifier.
type ModelConfig struct {
	Path          string   `json:"path" yaml:"path" toml:"path"`
	TokenizerPath string   `json:"tokenizer_path" yaml:"tokenizer_path" toml:"tokenizer_path"`
	MetadataPath  string   `json:"metadata_path" yaml:"metadata_path" toml:"metadata_path"`
	Labels        []string `json:"labels" yaml:"labels" toml:"labels"`
	MaxSeqLen     int      `json:"max_seq_len" yaml:"max_seq_len" toml:"max_seq_len"`
	// Path to libonnxruntime; empty uses the loader default.
	RuntimeLib string `json:"onnxruntime_lib" yaml:"onnxruntime_lib" toml:"onnxruntime_lib"`
}

// VectorStoreConfig selects Qdrant when Host is set, else the local store at Path.
type VectorStoreConfig struct {
	Path       string `json:"path" yaml:"path" toml:"path"`
	Host       string `json:"qdrant_host" yaml:"qdrant_host" toml:"qdrant_host"`
	// Qdrant gRPC port (QDRANT_PORT), default 6334. The REST port 6333 used by
	// HTTP clients does not work here.
	Port       int    `json:"qdrant_port" yaml:"qdrant_port" toml:"qdrant_port"`
	Collection string `json:"qdrant_collection" yaml:"qdrant_collection" toml:"qdrant_collection"`
	VectorSize int    `json:"qdrant_vector_size" yaml:"qdrant_vector_size" toml:"qdrant_vector_size"`
	APIKey     string `json:"qdrant_api_key" yaml:"qdrant_api_key" toml:"qdrant_api_key"`
	UseTLS     bool   `json:"qdrant_tls" yaml:"qdrant_tls" toml:"qdrant_tls"`
}

type EmbeddingConfig struct {
	Backend       string `json:"backend" yaml:"backend" toml:"backend"`
	ModelPath     string `json:"model_path" yaml:"model_path" toml:"model_path"`
	TokenizerPath string `json:"tokenizer_path" yaml:"tokenizer_path" toml:"tokenizer_path"`
	MaxSeqLen     int    `json:"max_seq_len" yaml:"max_seq_len" toml:"max_seq_len"`
	// OpenAI-compatible endpoint settings.
	Host   string `json:"host" yaml:"host" toml:"host"`
	Model  string `json:"model" yaml:"model" toml:"model"`
	APIKey string `json:"api_key" yaml:"api_key" toml:"api_key"`
	// llama.cpp settings.
	ContextSize int `json:"context_size" yaml:"context_size" toml:"context_size"`
	Threads     int `json:"threads" yaml:"threads" toml:"threads"`
}

type RecommendConfig struct {
	DefaultTopK int `json:"default_top_k" yaml:"default_top_k" toml:"default_top_k"`
	MaxTopK     int `json:"max_top_k" yaml:"max_top_k" toml:"max_top_k"`
}

// BreakerConfig tunes the circuit breaker in front of the embedder and vector store.
type BreakerConfig struct {
	FailureThreshold   uint32 `json:"failure_threshold" yaml:"failure_threshold" toml:"failure_threshold"`
	OpenTimeoutSeconds int    `json:"open_timeout_seconds" yaml:"open_timeout_seconds" toml:"open_timeout_seconds"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:                ":8080",
			MaxBodyBytes:        1 << 20,
			CORSOrigins:         []string{"*"},
			RateLimitWindowSecs: 60,
		},
		Log: LogConfig{Level: "info", Format: "console"},
		Model: ModelConfig{
			Labels:    []string{"negative", "positive"},
			MaxSeqLen: 128,
		},
		VectorStore: VectorStoreConfig{
			Port:       6334, // gRPC
			Collection: "products",
			VectorSize: 768,
		},
		Embedding: EmbeddingConfig{
			Backend:     EmbeddingONNX,
			MaxSeqLen:   128,
			ContextSize: 512,
			Threads:     4,
		},
		Recommend: RecommendConfig{DefaultTopK: 5, MaxTopK: MaxTopKLimit},
		Breaker:   BreakerConfig{FailureThreshold: 5, OpenTimeoutSeconds: 30},
	}
}

// Validate rejects values no component can work with.
func (c Config) Validate() error {
	var errs []error
	switch c.Embedding.Backend {
	case EmbeddingONNX, EmbeddingOpenAI, EmbeddingLlama:
	default:
		errs = append(errs, fmt.Errorf("embedding.backend: unknown backend %q", c.Embedding.Backend))
	}
	switch strings.ToLower(c.Log.Format) {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: must be console or json, got %q", c.Log.Format))
	}
	if c.VectorStore.VectorSize <= 0 {
		errs = append(errs, errors.New("vector_store.qdrant_vector_size: must be positive"))
	}
	if c.VectorStore.Port <= 0 || c.VectorStore.Port > 65535 {
		errs = append(errs, fmt.Errorf("vector_store.qdrant_port: out of range: %d", c.VectorStore.Port))
	}
	if c.Model.MaxSeqLen <= 0 || c.Embedding.MaxSeqLen <= 0 {
		errs = append(errs, errors.New("max_seq_len: must be positive"))
	}
	if c.Recommend.DefaultTopK <= 0 || c.Recommend.MaxTopK < c.Recommend.DefaultTopK ||
		c.Recommend.MaxTopK > MaxTopKLimit {
		errs = append(errs, fmt.Errorf("recommend: need 0 < default_top_k <= max_top_k <= %d, got %d/%d",
			MaxTopKLimit, c.Recommend.DefaultTopK, c.Recommend.MaxTopK))
	}
	if len(c.Model.Labels) < 2 {
		errs = append(errs, errors.New("model.labels: need at least two labels"))
	}
	return errors.Join(errs...)
}
