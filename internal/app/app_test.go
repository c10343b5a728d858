package app

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentirec/internal/catalog"
	"sentirec/internal/config"
	"sentirec/internal/embedding"
	"sentirec/internal/embedding/embeddingtest"
	"sentirec/internal/service"
	"sentirec/pkg/types"
)

func TestNewWithNothingConfigured(t *testing.T) {
	a, err := New(context.Background(), config.Default())
	require.NoError(t, err)
	defer a.Close()

	assert.False(t, a.Service.Ready())
	st := a.Service.Status()
	require.Len(t, st.Components, 3)
	for _, c := range st.Components {
		assert.Equal(t, string(service.StateUnavailable), c.State, c.Name)
		assert.NotEmpty(t, c.Error, c.Name)
	}

	_, err = a.Service.Predict(context.Background(), "hello")
	assert.True(t, service.IsDependencyUnavailable(err))
	_, err = a.Service.Recommend(context.Background(), "hello", 0)
	assert.True(t, service.IsDependencyUnavailable(err))
}

func TestNewMissingModelFile(t *testing.T) {
	cfg := config.Default()
	cfg.Model.Path = filepath.Join(t.TempDir(), "missing.onnx")
	var logs bytes.Buffer
	a, err := New(context.Background(), cfg, WithLogger(zerolog.New(&logs)))
	require.NoError(t, err)
	defer a.Close()
	assert.Contains(t, a.Service.Status().Components[0].Error, "not found")
	assert.Contains(t, logs.String(), `"level":"warn"`)
	assert.Contains(t, logs.String(), "sentiment model not found")
}

func TestNewLlamaBackendWithoutBuildTag(t *testing.T) {
	if embedding.LlamaAvailable() {
		t.Skip("built with llama support")
	}
	cfg := config.Default()
	cfg.Embedding.Backend = config.EmbeddingLlama
	cfg.Embedding.ModelPath = "/models/embed.gguf"
	var logs bytes.Buffer
	a, err := New(context.Background(), cfg, WithLogger(zerolog.New(&logs)))
	require.NoError(t, err)
	defer a.Close()
	assert.Contains(t, logs.String(), `"llama_built":false`)
	assert.Contains(t, a.Service.Status().Components[1].Error, "llama")
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Embedding.Backend = "word2vec"
	_, err := New(context.Background(), cfg)
	assert.Error(t, err)
}

func TestNewWithLocalStore(t *testing.T) {
	cfg := config.Default()
	cfg.VectorStore.VectorSize = 16
	cfg.VectorStore.Path = filepath.Join(t.TempDir(), "vectors")

	ctx := context.Background()
	ix, closeIx, err := indexerWith(ctx, cfg, embeddingtest.New(16))
	require.NoError(t, err)
	_, err = ix.Index(ctx, []types.Product{
		{ID: "p1", Title: "fast laptop"},
		{ID: "p2", Title: "wireless headphones"},
	})
	require.NoError(t, err)
	require.NoError(t, closeIx())

	var logs bytes.Buffer
	a, err := New(ctx, cfg, WithEmbedder(embeddingtest.New(16)), WithLogger(zerolog.New(&logs)))
	require.NoError(t, err)
	defer a.Close()
	assert.Contains(t, logs.String(), `"products":2`)

	recs, err := a.Service.Recommend(ctx, "fast laptop", 1)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "p1", recs[0].ProductID)
	assert.Equal(t, "local", a.Service.Status().Components[2].Backend)
}

func TestIndexerNeedsEmbedder(t *testing.T) {
	cfg := config.Default()
	cfg.VectorStore.Path = t.TempDir()
	_, _, err := Indexer(context.Background(), cfg, 8, 2, zerolog.Nop())
	assert.Error(t, err)
}

// indexerWith mirrors Indexer with an injected embedder.
func indexerWith(ctx context.Context, cfg config.Config, emb *embeddingtest.Embedder) (*catalog.Indexer, func() error, error) {
	store, err := OpenStore(ctx, cfg, zerolog.Nop())
	if err != nil {
		return nil, nil, err
	}
	return catalog.NewIndexer(emb, store, 0, 0, zerolog.Nop()), store.Close, nil
}
