package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"sentirec/internal/app"
	"sentirec/internal/catalog"
	"sentirec/internal/config"
	"sentirec/internal/embedding/embeddingtest"
	"sentirec/internal/httpapi"
	"sentirec/internal/service"
	"sentirec/pkg/types"
)

const dim = 256

// keywordClassifier labels text positive when it contains a positive word.
type keywordClassifier struct{}

func (keywordClassifier) Predict(ctx context.Context, text string) (types.Prediction, error) {
	for _, w := range []string{"fantastic", "great", "love"} {
		if bytes.Contains(bytes.ToLower([]byte(text)), []byte(w)) {
			return types.Prediction{Label: types.LabelPositive, Confidence: 0.95}, nil
		}
	}
	return types.Prediction{Label: types.LabelNegative, Confidence: 0.7}, nil
}

func (keywordClassifier) Close() error { return nil }

var testCatalog = []types.Product{
	{ID: "p1", Title: "fast laptop", Description: "thin and light"},
	{ID: "p2", Title: "wireless headphones", Description: "noise cancelling"},
	{ID: "p3", Title: "gaming laptop", Description: "fast graphics"},
	{ID: "p4", Title: "running shoes"},
}

// newServer builds the full stack over a local vector store seeded with
// testCatalog. withModel controls whether a classifier is installed.
func newServer(t *testing.T, withModel bool) *httptest.Server {
	t.Helper()
	ctx := context.Background()
	cfg := config.Default()
	cfg.VectorStore.VectorSize = dim
	cfg.VectorStore.Path = filepath.Join(t.TempDir(), "vectors")

	store, err := app.OpenStore(ctx, cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if _, err := catalog.NewIndexer(embeddingtest.New(dim), store, 2, 2, zerolog.Nop()).Index(ctx, testCatalog); err != nil {
		t.Fatalf("index: %v", err)
	}

	opts := []app.Option{app.WithStore(store), app.WithEmbedder(embeddingtest.New(dim))}
	if withModel {
		opts = append(opts, app.WithClassifier(keywordClassifier{}))
	}
	a, err := app.New(ctx, cfg, opts...)
	if err != nil {
		t.Fatalf("app: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return newServerFor(t, a.Service)
}

// newBareServer has no components at all.
func newBareServer(t *testing.T) *httptest.Server {
	t.Helper()
	return newServerFor(t, service.New(service.Config{}))
}

func newServerFor(t *testing.T, svc httpapi.Service) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(httpapi.NewMux(svc))
	t.Cleanup(srv.Close)
	return srv
}

func httpGet(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp, b
}

func httpPostJSON(t *testing.T, url string, body any) (*http.Response, []byte) {
	t.Helper()
	var buf bytes.Buffer
	if s, ok := body.(string); ok {
		buf.WriteString(s)
	} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
		t.Fatalf("encode: %v", err)
	}
	resp, err := http.Post(url, "application/json", &buf)
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp, b
}
