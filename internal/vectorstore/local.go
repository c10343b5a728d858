package vectorstore

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"sentirec/internal/common/fsutil"
	"sentirec/pkg/types"
)

var (
	productPrefix = []byte("product/")
	sizeKey       = []byte("meta/vector_size")
)

// record is the stored form of a product.
type record struct {
	ProductID   string    `json:"product_id"`
	Title       string    `json:"product_title"`
	Description string    `json:"description,omitempty"`
	Vector      []float32 `json:"vector"`
}

// Local keeps vectors in a BadgerDB directory and searches them with an exact scan.
// It suits catalogues of up to a few hundred thousand products.
type Local struct {
	db   *badger.DB
	size int
	log  zerolog.Logger
}

// badgerLogger routes badger's internal logs through zerolog.
type badgerLogger struct{ log zerolog.Logger }

var _ badger.Logger = badgerLogger{}

func (b badgerLogger) Errorf(msg string, args ...any)   { b.log.Error().Msgf(msg, args...) }
func (b badgerLogger) Warningf(msg string, args ...any) { b.log.Warn().Msgf(msg, args...) }
func (b badgerLogger) Infof(msg string, args ...any)    { b.log.Debug().Msgf(msg, args...) }
func (b badgerLogger) Debugf(msg string, args ...any)   { b.log.Trace().Msgf(msg, args...) }

// OpenLocal opens (creating when missing) the store at dir.
func OpenLocal(dir string, size int, logger zerolog.Logger) (*Local, error) {
	dir, err := fsutil.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	if fsutil.PathExists(dir) && !fsutil.IsDir(dir) {
		return nil, fmt.Errorf("vector store path %s is not a directory", dir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create vector store dir: %w", err)
	}
	return openLocal(badger.DefaultOptions(dir), size, logger)
}

// NewInMemory returns a local store that lives only as long as the process.
func NewInMemory(size int, logger zerolog.Logger) (*Local, error) {
	return openLocal(badger.DefaultOptions("").WithInMemory(true), size, logger)
}

func openLocal(opts badger.Options, size int, logger zerolog.Logger) (*Local, error) {
	if size <= 0 {
		return nil, fmt.Errorf("vector size must be positive, got %d", size)
	}
	log := logger.With().Str("component", "vectorstore").Str("backend", "local").Logger()
	opts.Logger = badgerLogger{log: log}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &Local{db: db, size: size, log: log}, nil
}

func (l *Local) Backend() string { return "local" }

func (l *Local) Ping(context.Context) error {
	if l.db.IsClosed() {
		return errors.New("local vector store is closed")
	}
	return nil
}

// EnsureCollection records the vector size on first use and rejects a
// store that was built with a different size.
func (l *Local) EnsureCollection(context.Context) error {
	return l.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(sizeKey)
		if errors.Is(err, badger.ErrKeyNotFound) {
			buf := make([]byte, 8)
			binary.BigEndian.PutUint64(buf, uint64(l.size))
			return txn.Set(sizeKey, buf)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if len(val) != 8 {
				return fmt.Errorf("corrupt vector size record")
			}
			if got := int(binary.BigEndian.Uint64(val)); got != l.size {
				return fmt.Errorf("store holds %d-dimensional vectors, configured size is %d", got, l.size)
			}
			return nil
		})
	})
}

func (l *Local) Upsert(ctx context.Context, items []Item) error {
	if len(items) == 0 {
		return nil
	}
	wb := l.db.NewWriteBatch()
	defer wb.Cancel()
	for _, it := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		if it.Product.ID == "" {
			return errors.New("product id is required")
		}
		if err := checkVector(it.Vector, l.size); err != nil {
			return fmt.Errorf("product %s: %w", it.Product.ID, err)
		}
		b, err := json.Marshal(record{
			ProductID:   it.Product.ID,
			Title:       it.Product.Title,
			Description: it.Product.Description,
			Vector:      it.Vector,
		})
		if err != nil {
			return err
		}
		if err := wb.Set(productKey(it.Product.ID), b); err != nil {
			return err
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("flush batch: %w", err)
	}
	l.log.Debug().Int("points", len(items)).Msg("upserted")
	return nil
}

func (l *Local) Search(ctx context.Context, vector []float32, k int) ([]types.Recommendation, error) {
	if err := checkVector(vector, l.size); err != nil {
		return nil, err
	}
	if k <= 0 {
		return []types.Recommendation{}, nil
	}
	var recs []types.Recommendation
	err := l.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: productPrefix, PrefetchValues: true, PrefetchSize: 100})
		defer it.Close()
		n := 0
		for it.Rewind(); it.Valid(); it.Next() {
			if n++; n%1024 == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			var rec record
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			if len(rec.Vector) != l.size {
				continue
			}
			recs = append(recs, types.Recommendation{
				ProductID:       rec.ProductID,
				ProductTitle:    rec.Title,
				SimilarityScore: Cosine(vector, rec.Vector),
			})
			// Keep memory bounded on large catalogues.
			if len(recs) >= 4*k+1024 {
				recs = topK(recs, k)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := topK(recs, k)
	if out == nil {
		out = []types.Recommendation{}
	}
	return out, nil
}

// Count returns the number of stored products.
func (l *Local) Count(ctx context.Context) (int, error) {
	n := 0
	err := l.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: productPrefix})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return ctx.Err()
	})
	return n, err
}

func (l *Local) Close() error { return l.db.Close() }

func productKey(id string) []byte {
	return bytes.Join([][]byte{productPrefix, []byte(id)}, nil)
}
