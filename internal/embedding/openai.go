package embedding

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// openAIEmbedder calls an OpenAI-compatible embeddings endpoint
// (OpenAI, Ollama, LocalAI, vLLM, ...).
type openAIEmbedder struct {
	embedder embeddings.Embedder
	dim      int
	log      zerolog.Logger
}

func newOpenAI(opts Options) (*openAIEmbedder, error) {
	if opts.Host == "" || opts.Model == "" {
		return nil, errors.New("embedding: openai backend needs host and model")
	}
	// Local OpenAI-compatible servers accept any token.
	token := opts.APIKey
	if token == "" {
		token = "none"
	}
	client, err := openai.New(
		openai.WithBaseURL(opts.Host),
		openai.WithToken(token),
		openai.WithEmbeddingModel(opts.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("openai client: %w", err)
	}
	emb, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, fmt.Errorf("openai embedder: %w", err)
	}
	return &openAIEmbedder{
		embedder: emb,
		dim:      opts.Dimensions,
		log:      opts.Logger.With().Str("component", "embedder").Str("backend", "openai").Logger(),
	}, nil
}

func (e *openAIEmbedder) Dimensions() int { return e.dim }
func (e *openAIEmbedder) Backend() string { return "openai" }
func (e *openAIEmbedder) Close() error    { return nil }

func (e *openAIEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	v, err := e.embedder.EmbedQuery(ctx, text)
	if err != nil {
		e.log.Error().Err(err).Msg("failed to generate embedding")
		return nil, err
	}
	if err := checkDim(v, e.dim); err != nil {
		return nil, err
	}
	return v, nil
}

func (e *openAIEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	e.log.Debug().Int("count", len(texts)).Msg("generating embeddings")
	vs, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		e.log.Error().Err(err).Int("count", len(texts)).Msg("failed to generate embeddings")
		return nil, err
	}
	if len(vs) != len(texts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vs), len(texts))
	}
	for _, v := range vs {
		if err := checkDim(v, e.dim); err != nil {
			return nil, err
		}
	}
	return vs, nil
}
