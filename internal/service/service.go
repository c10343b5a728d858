package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"sentirec/internal/embedding"
	"sentirec/internal/vectorstore"
	"sentirec/pkg/types"
)

// Service answers prediction and recommendation queries.
type Service struct {
	classifier Classifier
	embedder   embedding.Embedder
	store      vectorstore.Store

	classifierBackend string
	loadErrors        map[string]string

	defaultTopK int
	maxTopK     int

	embedBreaker  *gobreaker.CircuitBreaker[[]float32]
	searchBreaker *gobreaker.CircuitBreaker[[]types.Recommendation]
	storeHealth   *storeCheck

	predictions     atomic.Uint64
	recommendations atomic.Uint64
	startTime       time.Time
	log             zerolog.Logger
}

// New constructs a Service from cfg. Nil components are allowed.
func New(cfg Config) *Service {
	cfg.applyDefaults()
	log := cfg.Logger.With().Str("component", "service").Logger()
	s := &Service{
		classifier:        cfg.Classifier,
		embedder:          cfg.Embedder,
		store:             cfg.Store,
		classifierBackend: cfg.ClassifierBackend,
		loadErrors:        make(map[string]string, len(cfg.LoadErrors)),
		defaultTopK:       cfg.DefaultTopK,
		maxTopK:           cfg.MaxTopK,
		startTime:         time.Now(),
		log:               log,
	}
	for k, err := range cfg.LoadErrors {
		if err != nil {
			s.loadErrors[k] = err.Error()
		}
	}
	s.embedBreaker = newBreaker[[]float32](ComponentEmbedder, cfg, log)
	s.searchBreaker = newBreaker[[]types.Recommendation](ComponentVectorStore, cfg, log)
	if cfg.Store != nil {
		s.storeHealth = &storeCheck{store: cfg.Store, timeout: cfg.PingTimeout, interval: cfg.PingInterval, log: log}
	}
	return s
}

// Predict classifies text. Blank text is invalid input; a missing model is a
// dependency-unavailable error.
func (s *Service) Predict(ctx context.Context, text string) (types.Prediction, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return types.Prediction{}, ErrInvalidInput("text must not be empty")
	}
	if s.classifier == nil {
		return types.Prediction{}, s.unavailable(ComponentClassifier, "model not loaded")
	}
	p, err := s.classifier.Predict(ctx, text)
	if err != nil {
		return types.Prediction{}, fmt.Errorf("predict: %w", err)
	}
	s.predictions.Add(1)
	predictionsTotal.WithLabelValues(p.Label).Inc()
	return p, nil
}

// Recommend returns up to k products similar to text, best first. k of zero
// selects the configured default. The result is never nil.
func (s *Service) Recommend(ctx context.Context, text string, k int) ([]types.Recommendation, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrInvalidInput("text must not be empty")
	}
	if k == 0 {
		k = s.defaultTopK
	}
	if k < 0 || k > s.maxTopK {
		return nil, ErrInvalidInput(fmt.Sprintf("top_k must be between 1 and %d", s.maxTopK))
	}
	if s.store == nil {
		return nil, s.unavailable(ComponentVectorStore, "vector store not available")
	}
	if s.embedder == nil {
		return nil, s.unavailable(ComponentEmbedder, "embedding model not available")
	}

	vec, err := s.embedBreaker.Execute(func() ([]float32, error) {
		return s.embedder.EmbedQuery(ctx, text)
	})
	if err != nil {
		return nil, s.callFailed(ctx, ComponentEmbedder, "embed query", err)
	}
	recs, err := s.searchBreaker.Execute(func() ([]types.Recommendation, error) {
		return s.store.Search(ctx, vec, k)
	})
	if err != nil {
		return nil, s.callFailed(ctx, ComponentVectorStore, "vector search", err)
	}
	if recs == nil {
		recs = []types.Recommendation{}
	}
	s.recommendations.Add(1)
	recommendationResults.Observe(float64(len(recs)))
	return recs, nil
}

// Close releases every component.
func (s *Service) Close() error {
	var errs []error
	if s.classifier != nil {
		errs = append(errs, s.classifier.Close())
	}
	if s.embedder != nil {
		errs = append(errs, s.embedder.Close())
	}
	if s.store != nil {
		errs = append(errs, s.store.Close())
	}
	return errors.Join(errs...)
}

func (s *Service) unavailable(component, msg string) error {
	dependencyUnavailableTotal.WithLabelValues(component).Inc()
	return ErrDependencyUnavailable(component, msg)
}

// callFailed maps an embedder or store failure. Cancellation and deadlines
// pass through unchanged; anything else means the dependency is unusable.
func (s *Service) callFailed(ctx context.Context, component, op string, err error) error {
	if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return err
	}
	dependencyUnavailableTotal.WithLabelValues(component).Inc()
	if isBreakerRejection(err) {
		return dependencyFailed(component, component+" circuit open", err)
	}
	s.log.Warn().Err(err).Str("dependency", component).Msg(op + " failed")
	return dependencyFailed(component, op+" failed", err)
}
