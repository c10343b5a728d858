package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sentirec/pkg/types"
)

func TestJoinContexts_CancelsWhenEitherDone(t *testing.T) {
	a, cancelA := context.WithCancel(context.Background())
	b := context.Background()
	ctx, cancel := joinContexts(a, b)
	defer cancel()
	cancelA()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("joined context not canceled")
	}
}

func TestJoinContexts_CancelReleases(t *testing.T) {
	ctx, cancel := joinContexts(context.Background(), context.Background())
	cancel()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("cancel did not close joined context")
	}
}

func TestSetBaseContextNilResets(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	SetBaseContext(ctx)
	cancel()
	SetBaseContext(nil)
	if serverBaseCtx.Err() != nil {
		t.Fatal("expected background base context")
	}
}

func TestRequestContextTimeout(t *testing.T) {
	SetRequestTimeoutSeconds(1)
	defer SetRequestTimeoutSeconds(0)
	ctx, cancel := requestContext(httptest.NewRequest(http.MethodGet, "/", nil))
	defer cancel()
	dl, ok := ctx.Deadline()
	if !ok || time.Until(dl) > time.Second {
		t.Fatalf("expected deadline within 1s, got %v ok=%v", dl, ok)
	}
}

// blockService waits for the request context to end.
type blockService struct{ mockService }

func (b *blockService) Recommend(ctx context.Context, text string, k int) ([]types.Recommendation, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestRequestTimeoutReturns500(t *testing.T) {
	SetRequestTimeoutSeconds(1)
	defer SetRequestTimeoutSeconds(0)
	rec := postJSON(NewMux(&blockService{}), "/recommend", `{"text":"laptop"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 on timeout, got %d", rec.Code)
	}
	if e := decodeError(t, rec); e.Error != "request timed out" {
		t.Fatalf("unexpected error payload %+v", e)
	}
}

func TestShutdownDropsResponse(t *testing.T) {
	base, cancel := context.WithCancel(context.Background())
	SetBaseContext(base)
	defer SetBaseContext(nil)
	cancel()
	rec := postJSON(NewMux(&blockService{}), "/recommend", `{"text":"laptop"}`)
	if rec.Body.Len() != 0 {
		t.Fatalf("expected no body after shutdown, got %q", rec.Body.String())
	}
}
