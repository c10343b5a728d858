// Package vectorstore searches product embeddings by cosine similarity.
//
// Two backends are available: Qdrant (remote, gRPC) and a local store kept
// in a BadgerDB directory. Open picks Qdrant when a host is configured and
// falls back to the local store when only a path is set.
package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"

	"sentirec/pkg/types"
)

// Item is a product with its embedding, ready to be stored.
type Item struct {
	Product types.Product
	Vector  []float32
}

// Store is implemented by every backend. Implementations are safe for concurrent use.
type Store interface {
	// Search returns up to k products closest to vector, best first.
	Search(ctx context.Context, vector []float32, k int) ([]types.Recommendation, error)
	// Upsert inserts or replaces products keyed by product id.
	Upsert(ctx context.Context, items []Item) error
	// EnsureCollection prepares the backend for vectors of the configured size.
	EnsureCollection(ctx context.Context) error
	// Ping checks the backend is reachable.
	Ping(ctx context.Context) error
	Backend() string
	Close() error
}

// ErrNotConfigured is returned by Open when neither a Qdrant host nor a local path is set.
var ErrNotConfigured = errors.New("vector store not configured")

// Options configures Open.
type Options struct {
	Path       string
	Host       string
	Port       int
	Collection string
	VectorSize int
	APIKey     string
	UseTLS     bool
	Logger     zerolog.Logger
}

// Open connects to the configured backend.
func Open(opts Options) (Store, error) {
	if opts.VectorSize <= 0 {
		return nil, fmt.Errorf("vector size must be positive, got %d", opts.VectorSize)
	}
	switch {
	case opts.Host != "":
		s, err := NewQdrant(opts)
		if err != nil {
			return nil, err
		}
		return s, nil
	case opts.Path != "":
		s, err := OpenLocal(opts.Path, opts.VectorSize, opts.Logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, ErrNotConfigured
	}
}

// Cosine returns the cosine similarity of a and b, 0 when either is zero.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func checkVector(v []float32, size int) error {
	if len(v) != size {
		return fmt.Errorf("vector has %d dimensions, collection expects %d", len(v), size)
	}
	return nil
}

// topK keeps the k best recommendations, best first. Ties break on product id.
func topK(recs []types.Recommendation, k int) []types.Recommendation {
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].SimilarityScore != recs[j].SimilarityScore {
			return recs[i].SimilarityScore > recs[j].SimilarityScore
		}
		return recs[i].ProductID < recs[j].ProductID
	})
	if len(recs) > k {
		recs = recs[:k]
	}
	return recs
}
