// Package app builds the service from configuration.
//
// Every component is optional: a component that fails to load is logged,
// left out and reported by /status, and the endpoints that need it answer 503.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"sentirec/internal/artifacts"
	"sentirec/internal/catalog"
	"sentirec/internal/classifier"
	"sentirec/internal/config"
	"sentirec/internal/embedding"
	"sentirec/internal/service"
	"sentirec/internal/tokenize"
	"sentirec/internal/vectorstore"
)

// collectionTimeout bounds the startup check of the vector store.
const collectionTimeout = 10 * time.Second

// App owns the service and its components.
type App struct {
	Service *service.Service
	cfg     config.Config
	log     zerolog.Logger
}

// Option customizes New.
type Option func(*options)

type options struct {
	logger     zerolog.Logger
	classifier service.Classifier
	embedder   embedding.Embedder
	store      vectorstore.Store
}

// WithLogger sets the logger passed to every component.
func WithLogger(l zerolog.Logger) Option { return func(o *options) { o.logger = l } }

// WithClassifier uses c instead of loading the configured model.
func WithClassifier(c service.Classifier) Option { return func(o *options) { o.classifier = c } }

// WithEmbedder uses e instead of building the configured embedding backend.
func WithEmbedder(e embedding.Embedder) Option { return func(o *options) { o.embedder = e } }

// WithStore uses s instead of opening the configured vector store.
func WithStore(s vectorstore.Store) Option { return func(o *options) { o.store = s } }

// New builds every component it can. It only fails on invalid configuration.
func New(ctx context.Context, cfg config.Config, opts ...Option) (*App, error) {
	o := options{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	log := o.logger.With().Str("component", "app").Logger()
	loadErrs := map[string]error{}

	cls := o.classifier
	if cls == nil {
		c, err := LoadClassifier(cfg, o.logger)
		switch {
		case artifacts.IsNotFound(err):
			log.Warn().Err(err).Msg("sentiment model not found; /predict will return 503")
			loadErrs[service.ComponentClassifier] = err
		case err != nil:
			log.Error().Err(err).Msg("sentiment model failed to load; /predict will return 503")
			loadErrs[service.ComponentClassifier] = err
		default:
			log.Info().Strs("labels", c.Labels()).Msg("sentiment model loaded")
			cls = c
		}
	}

	emb := o.embedder
	if emb == nil {
		e, err := NewEmbedder(cfg, o.logger)
		switch {
		case embedding.IsUnavailable(err):
			log.Warn().Err(err).Str("backend", cfg.Embedding.Backend).
				Bool("llama_built", embedding.LlamaAvailable()).
				Msg("embedding backend not available in this build; /recommend will return 503")
			loadErrs[service.ComponentEmbedder] = err
		case err != nil:
			log.Warn().Err(err).Msg("embedding model not loaded; /recommend will return 503")
			loadErrs[service.ComponentEmbedder] = err
		default:
			emb = e
		}
	}

	store := o.store
	if store == nil {
		s, err := OpenStore(ctx, cfg, o.logger)
		if err != nil {
			log.Warn().Err(err).Msg("vector store not available; /recommend will return 503")
			loadErrs[service.ComponentVectorStore] = err
		} else {
			store = s
		}
	}

	svc := service.New(service.Config{
		Classifier:        cls,
		ClassifierBackend: "onnx",
		Embedder:          emb,
		Store:             store,
		LoadErrors:        loadErrs,
		DefaultTopK:       cfg.Recommend.DefaultTopK,
		MaxTopK:           cfg.Recommend.MaxTopK,
		FailureThreshold:  cfg.Breaker.FailureThreshold,
		OpenTimeout:       time.Duration(cfg.Breaker.OpenTimeoutSeconds) * time.Second,
		Logger:            o.logger,
	})
	log.Info().Bool("ready", svc.Ready()).Msg("service built")
	return &App{Service: svc, cfg: cfg, log: log}, nil
}

// Close releases every component.
func (a *App) Close() error { return a.Service.Close() }

// LoadClassifier resolves the model artifacts and loads the ONNX classifier.
func LoadClassifier(cfg config.Config, logger zerolog.Logger) (*classifier.Classifier, error) {
	set, err := artifacts.Resolve(cfg.Model.Path, cfg.Model.TokenizerPath, cfg.Model.MetadataPath)
	if err != nil {
		return nil, err
	}
	maxLen := cfg.Model.MaxSeqLen
	if set.Metadata != "" {
		// The metadata max length wins so the tensor shape matches the export.
		meta, err := classifier.ReadMetadata(set.Metadata, cfg.Model.Labels)
		if err != nil {
			return nil, err
		}
		if meta.MaxLength > 0 {
			maxLen = meta.MaxLength
		}
	}
	tok, err := tokenize.Load(set.Tokenizer, maxLen)
	if err != nil {
		return nil, err
	}
	return classifier.New(classifier.Options{
		ModelPath:    set.Model,
		MetadataPath: set.Metadata,
		RuntimeLib:   cfg.Model.RuntimeLib,
		Labels:       cfg.Model.Labels,
		Logger:       logger,
	}, tok)
}

// NewEmbedder builds the configured embedding backend with the vector size
// of the store.
func NewEmbedder(cfg config.Config, logger zerolog.Logger) (embedding.Embedder, error) {
	e := cfg.Embedding
	return embedding.New(embedding.Options{
		Backend:       e.Backend,
		Dimensions:    cfg.VectorStore.VectorSize,
		ModelPath:     e.ModelPath,
		TokenizerPath: e.TokenizerPath,
		RuntimeLib:    cfg.Model.RuntimeLib,
		MaxSeqLen:     e.MaxSeqLen,
		Host:          e.Host,
		Model:         e.Model,
		APIKey:        e.APIKey,
		ContextSize:   e.ContextSize,
		Threads:       e.Threads,
		Logger:        logger,
	})
}

// OpenStore opens the configured vector store and makes sure its collection exists.
func OpenStore(ctx context.Context, cfg config.Config, logger zerolog.Logger) (vectorstore.Store, error) {
	vs := cfg.VectorStore
	s, err := vectorstore.Open(vectorstore.Options{
		Path:       vs.Path,
		Host:       vs.Host,
		Port:       vs.Port,
		Collection: vs.Collection,
		VectorSize: vs.VectorSize,
		APIKey:     vs.APIKey,
		UseTLS:     vs.UseTLS,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}
	cctx, cancel := context.WithTimeout(ctx, collectionTimeout)
	defer cancel()
	if err := s.EnsureCollection(cctx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("%s vector store: %w", s.Backend(), err)
	}
	if l, ok := s.(*vectorstore.Local); ok {
		n, err := l.Count(cctx)
		if err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("local vector store: %w", err)
		}
		if n == 0 {
			logger.Warn().Str("path", vs.Path).Msg("local vector store is empty; run `sentirec index` to add products")
		} else {
			logger.Info().Str("path", vs.Path).Int("products", n).Msg("local vector store opened")
		}
	}
	return s, nil
}

// Indexer builds the embedder and store for an indexing run. Unlike New,
// failures are fatal. The returned close func releases both.
func Indexer(ctx context.Context, cfg config.Config, batchSize, workers int, logger zerolog.Logger) (*catalog.Indexer, func() error, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	emb, err := NewEmbedder(cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("embedder: %w", err)
	}
	store, err := OpenStore(ctx, cfg, logger)
	if err != nil {
		_ = emb.Close()
		return nil, nil, fmt.Errorf("vector store: %w", err)
	}
	closeFn := func() error { return errors.Join(emb.Close(), store.Close()) }
	return catalog.NewIndexer(emb, store, batchSize, workers, logger), closeFn, nil
}
