package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment without overriding variables that are already set.
// A missing file is not an error; with no arguments ".env" is tried.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load env file %s: %w", p, err)
		}
	}
	return nil
}

// FromEnv overlays the process environment on cfg.
func FromEnv(cfg *Config) error { return ApplyEnv(cfg, os.LookupEnv) }

// ApplyEnv overlays environment variables on cfg. Variable names follow the
// deployment conventions (MODEL_PATH, QDRANT_HOST, ...) plus SENTIREC_* for
// service settings.
func ApplyEnv(cfg *Config, lookup LookupFunc) error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = n
	}
	flag := func(key string, dst *bool) {
		v, ok := lookup(key)
		if !ok || v == "" {
			return
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = b
	}

	str("MODEL_PATH", &cfg.Model.Path)
	str("TOKENIZER_PATH", &cfg.Model.TokenizerPath)
	str("MODEL_METADATA_PATH", &cfg.Model.MetadataPath)
	str("ONNXRUNTIME_LIB", &cfg.Model.RuntimeLib)
	num("MODEL_MAX_SEQ_LEN", &cfg.Model.MaxSeqLen)
	if v, ok := lookup("MODEL_LABELS"); ok && v != "" {
		cfg.Model.Labels = SplitCSV(v)
	}

	str("VECTOR_STORE_PATH", &cfg.VectorStore.Path)
	str("QDRANT_HOST", &cfg.VectorStore.Host)
	num("QDRANT_PORT", &cfg.VectorStore.Port)
	str("QDRANT_COLLECTION", &cfg.VectorStore.Collection)
	num("QDRANT_VECTOR_SIZE", &cfg.VectorStore.VectorSize)
	str("QDRANT_API_KEY", &cfg.VectorStore.APIKey)
	flag("QDRANT_TLS", &cfg.VectorStore.UseTLS)

	str("EMBEDDING_BACKEND", &cfg.Embedding.Backend)
	str("EMBEDDING_MODEL_PATH", &cfg.Embedding.ModelPath)
	str("EMBEDDING_TOKENIZER_PATH", &cfg.Embedding.TokenizerPath)
	num("EMBEDDING_MAX_SEQ_LEN", &cfg.Embedding.MaxSeqLen)
	str("EMBEDDING_HOST", &cfg.Embedding.Host)
	str("EMBEDDING_MODEL", &cfg.Embedding.Model)
	str("EMBEDDING_API_KEY", &cfg.Embedding.APIKey)
	num("EMBEDDING_CONTEXT_SIZE", &cfg.Embedding.ContextSize)
	num("EMBEDDING_THREADS", &cfg.Embedding.Threads)

	str("SENTIREC_ADDR", &cfg.Server.Addr)
	str("SENTIREC_LOG_LEVEL", &cfg.Log.Level)
	str("SENTIREC_LOG_FORMAT", &cfg.Log.Format)
	flag("SENTIREC_CORS_ENABLED", &cfg.Server.CORSEnabled)
	if v, ok := lookup("SENTIREC_CORS_ORIGINS"); ok && v != "" {
		cfg.Server.CORSOrigins = SplitCSV(v)
	}
	num("SENTIREC_RATE_LIMIT_REQUESTS", &cfg.Server.RateLimitRequests)
	num("SENTIREC_RATE_LIMIT_WINDOW_SECONDS", &cfg.Server.RateLimitWindowSecs)
	num("SENTIREC_DEFAULT_TOP_K", &cfg.Recommend.DefaultTopK)
	if v, ok := lookup("SENTIREC_MAX_BODY_BYTES"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("SENTIREC_MAX_BODY_BYTES: %w", err))
		} else {
			cfg.Server.MaxBodyBytes = n
		}
	}
	if v, ok := lookup("SENTIREC_REQUEST_TIMEOUT_SECONDS"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("SENTIREC_REQUEST_TIMEOUT_SECONDS: %w", err))
		} else {
			cfg.Server.RequestTimeoutSeconds = n
		}
	}

	// The embedding model shares the classifier tokenizer unless told otherwise.
	if cfg.Embedding.TokenizerPath == "" && cfg.Embedding.Backend == EmbeddingONNX {
		cfg.Embedding.TokenizerPath = cfg.Model.TokenizerPath
	}
	return errors.Join(errs...)
}

// SplitCSV splits a comma-separated list, trimming blanks and dropping empties.
func SplitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
