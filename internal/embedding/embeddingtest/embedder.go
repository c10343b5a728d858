// Package embeddingtest provides a deterministic Embedder for tests.
package embeddingtest

import (
	"context"
	"hash/fnv"
	"strings"
	"sync/atomic"

	"sentirec/internal/embedding"
)

// Embedder produces bag-of-words vectors: each lower-cased word is hashed to
// a dimension, so texts sharing words are similar. EmbedQueryFunc and
// EmbedDocumentsFunc override the default behavior when set.
type Embedder struct {
	Dim                int
	EmbedQueryFunc     func(ctx context.Context, text string) ([]float32, error)
	EmbedDocumentsFunc func(ctx context.Context, texts []string) ([][]float32, error)

	calls atomic.Int64
}

var _ embedding.Embedder = (*Embedder)(nil)

// New returns an Embedder of the given dimensionality.
func New(dim int) *Embedder { return &Embedder{Dim: dim} }

// Vector is the default deterministic embedding of text.
func Vector(text string, dim int) []float32 {
	v := make([]float32, dim)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(strings.Trim(w, ".,!?;:")))
		v[h.Sum32()%uint32(dim)]++
	}
	return embedding.Normalize(v)
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	e.calls.Add(1)
	if e.EmbedQueryFunc != nil {
		return e.EmbedQueryFunc(ctx, text)
	}
	return Vector(text, e.Dim), nil
}

func (e *Embedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	e.calls.Add(1)
	if e.EmbedDocumentsFunc != nil {
		return e.EmbedDocumentsFunc(ctx, texts)
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = Vector(t, e.Dim)
	}
	return out, nil
}

func (e *Embedder) Dimensions() int { return e.Dim }
func (e *Embedder) Backend() string { return "test" }
func (e *Embedder) Close() error    { return nil }

// Calls returns how many embed calls were made.
func (e *Embedder) Calls() int64 { return e.calls.Load() }
