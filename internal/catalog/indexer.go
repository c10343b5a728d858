package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog"

	"sentirec/internal/embedding"
	"sentirec/internal/vectorstore"
	"sentirec/pkg/types"
)

// Defaults for Indexer.
const (
	DefaultBatchSize = 32
	DefaultWorkers   = 4
)

// Result summarizes an indexing run.
type Result struct {
	Products int
	Batches  int
	Duration time.Duration
}

// Indexer embeds products in batches on a worker pool and upserts them.
type Indexer struct {
	embedder  embedding.Embedder
	store     vectorstore.Store
	batchSize int
	workers   int
	log       zerolog.Logger
}

// NewIndexer returns an Indexer. Non-positive sizes use the defaults.
func NewIndexer(e embedding.Embedder, s vectorstore.Store, batchSize, workers int, logger zerolog.Logger) *Indexer {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Indexer{
		embedder:  e,
		store:     s,
		batchSize: batchSize,
		workers:   workers,
		log:       logger.With().Str("component", "indexer").Logger(),
	}
}

// Index embeds and stores products. The first failing batch cancels the
// remaining work and its error is returned.
func (ix *Indexer) Index(ctx context.Context, products []types.Product) (Result, error) {
	start := time.Now()
	if ix.embedder == nil || ix.store == nil {
		return Result{}, errors.New("indexer needs an embedder and a vector store")
	}
	if err := ix.store.EnsureCollection(ctx); err != nil {
		return Result{}, fmt.Errorf("ensure collection: %w", err)
	}
	if len(products) == 0 {
		return Result{Duration: time.Since(start)}, nil
	}

	pool, err := ants.NewPool(ix.workers)
	if err != nil {
		return Result{}, fmt.Errorf("worker pool: %w", err)
	}
	defer pool.Release()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
		done     atomic.Int64
		batches  atomic.Int64
	)
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for lo := 0; lo < len(products); lo += ix.batchSize {
		if ctx.Err() != nil {
			break
		}
		hi := min(lo+ix.batchSize, len(products))
		batch := products[lo:hi]
		first := lo
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			if err := ix.indexBatch(ctx, batch); err != nil {
				fail(fmt.Errorf("batch at %d: %w", first, err))
				return
			}
			n := done.Add(int64(len(batch)))
			batches.Add(1)
			ix.log.Debug().Int64("indexed", n).Int("total", len(products)).Msg("batch stored")
		})
		if err != nil {
			wg.Done()
			fail(fmt.Errorf("submit batch: %w", err))
			break
		}
	}
	wg.Wait()

	res := Result{Products: int(done.Load()), Batches: int(batches.Load()), Duration: time.Since(start)}
	if firstErr != nil {
		return res, firstErr
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}
	ix.log.Info().Int("products", res.Products).Int("batches", res.Batches).Dur("took", res.Duration).Msg("catalog indexed")
	return res, nil
}

func (ix *Indexer) indexBatch(ctx context.Context, batch []types.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	texts := make([]string, len(batch))
	for i, p := range batch {
		texts[i] = p.EmbeddingText()
	}
	vecs, err := ix.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed: %w", err)
	}
	if len(vecs) != len(batch) {
		return fmt.Errorf("embedder returned %d vectors for %d texts", len(vecs), len(batch))
	}
	items := make([]vectorstore.Item, len(batch))
	for i, p := range batch {
		items[i] = vectorstore.Item{Product: p, Vector: vecs[i]}
	}
	return ix.store.Upsert(ctx, items)
}
