//go:build !llama

package embedding

// Without the 'llama' build tag the GGUF backend is compiled out, keeping
// default builds CGO-free. The real implementation lives in llama.go.

// llamaBuilt indicates this binary was compiled with real llama support.
var llamaBuilt = false

func newLlama(opts Options) (Embedder, error) {
	return nil, unavailableError{msg: "llama support not built (missing 'llama' build tag)"}
}
