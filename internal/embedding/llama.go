//go:build llama

package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	llama "github.com/go-skynet/go-llama.cpp"
	"github.com/rs/zerolog"
)

// llamaBuilt indicates this binary was compiled with real llama support.
var llamaBuilt = true

// llamaEmbedder owns a GGUF model loaded with embeddings enabled.
type llamaEmbedder struct {
	mu      sync.Mutex
	model   *llama.LLama
	threads int
	dim     int
	log     zerolog.Logger
}

func newLlama(opts Options) (*llamaEmbedder, error) {
	if strings.TrimSpace(opts.ModelPath) == "" {
		return nil, errors.New("model path is empty")
	}
	mo := []llama.ModelOption{
		llama.EnableEmbeddings,
		llama.SetContext(opts.ContextSize),
	}
	m, err := llama.New(opts.ModelPath, mo...)
	if err != nil {
		return nil, fmt.Errorf("load llama model: %w", err)
	}
	return &llamaEmbedder{
		model:   m,
		threads: opts.Threads,
		dim:     opts.Dimensions,
		log:     opts.Logger.With().Str("component", "embedder").Str("backend", "llama").Logger(),
	}, nil
}

func (e *llamaEmbedder) Dimensions() int { return e.dim }
func (e *llamaEmbedder) Backend() string { return "llama" }

func (e *llamaEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.model == nil {
		return nil, errors.New("llama model not initialized")
	}
	v, err := e.model.Embeddings(text, llama.SetThreads(e.threads))
	if err != nil {
		return nil, err
	}
	if err := checkDim(v, e.dim); err != nil {
		return nil, err
	}
	return Normalize(v), nil
}

func (e *llamaEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := e.EmbedQuery(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func (e *llamaEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.model != nil {
		e.model.Free()
		e.model = nil
	}
	return nil
}
