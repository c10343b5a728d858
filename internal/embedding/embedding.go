// Package embedding turns text into dense vectors for similarity search.
//
// Backends:
//
//   - onnx: a sentence-transformer exported to ONNX, mean pooled and L2
//     normalized. Needs a tokenizer.json.
//   - openai: any OpenAI-compatible /v1/embeddings endpoint.
//   - llama: a GGUF embedding model through go-llama.cpp. Enabled with
//     `-tags=llama`; without the tag the backend reports itself unavailable.
package embedding

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"
)

// Embedder generates embeddings. Implementations are safe for concurrent use.
type Embedder interface {
	// EmbedQuery embeds a search query.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	// EmbedDocuments embeds texts in order.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	// Dimensions is the length of every returned vector.
	Dimensions() int
	// Backend names the implementation (onnx, openai, llama).
	Backend() string
	Close() error
}

// Options configures New.
type Options struct {
	Backend       string
	Dimensions    int
	ModelPath     string
	TokenizerPath string
	RuntimeLib    string
	MaxSeqLen     int
	Host          string
	Model         string
	APIKey        string
	ContextSize   int
	Threads       int
	Logger        zerolog.Logger
}

// unavailableError marks a backend that cannot run in this build or setup.
type unavailableError struct{ msg string }

func (e unavailableError) Error() string { return e.msg }

// IsUnavailable reports whether err means the backend cannot be used at all.
func IsUnavailable(err error) bool {
	_, ok := err.(unavailableError)
	return ok
}

// New builds the embedder selected by opts.Backend.
func New(opts Options) (Embedder, error) {
	if opts.Dimensions <= 0 {
		return nil, fmt.Errorf("embedding: dimensions must be positive, got %d", opts.Dimensions)
	}
	var (
		e   Embedder
		err error
	)
	switch opts.Backend {
	case "onnx", "":
		e, err = newONNX(opts)
	case "openai":
		e, err = newOpenAI(opts)
	case "llama":
		e, err = newLlama(opts)
	default:
		return nil, fmt.Errorf("embedding: unknown backend %q", opts.Backend)
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// LlamaAvailable reports whether the binary was built with the 'llama' tag.
func LlamaAvailable() bool { return llamaBuilt }

func checkDim(v []float32, want int) error {
	if len(v) != want {
		return fmt.Errorf("embedding has %d dimensions, vector store expects %d", len(v), want)
	}
	return nil
}

// Normalize scales v to unit length in place. Zero vectors are left as is.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	n := float32(math.Sqrt(sum))
	for i := range v {
		v[i] /= n
	}
	return v
}

// MeanPool averages hidden states of shape [seqLen, dim] over positions whose
// mask is non-zero.
func MeanPool(hidden []float32, mask []int64, seqLen, dim int) []float32 {
	out := make([]float32, dim)
	var count float32
	for t := 0; t < seqLen && t < len(mask); t++ {
		if mask[t] == 0 {
			continue
		}
		row := hidden[t*dim : (t+1)*dim]
		for i, x := range row {
			out[i] += x
		}
		count++
	}
	if count == 0 {
		return out
	}
	for i := range out {
		out[i] /= count
	}
	return out
}
