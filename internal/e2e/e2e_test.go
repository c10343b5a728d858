package e2e

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"sentirec/pkg/types"
)

func TestE2E_PredictValidInput(t *testing.T) {
	srv := newServer(t, true)
	resp, body := httpPostJSON(t, srv.URL+"/predict", map[string]string{"text": "This movie was absolutely fantastic!"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d body=%s", resp.StatusCode, body)
	}
	var out types.PredictResponse
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("json: %v", err)
	}
	if out.Label != types.LabelPositive && out.Label != types.LabelNegative {
		t.Fatalf("unexpected label %q", out.Label)
	}
	if out.Confidence < 0 || out.Confidence > 1 {
		t.Fatalf("confidence out of range: %v", out.Confidence)
	}
}

func TestE2E_PredictInvalidInput(t *testing.T) {
	srv := newServer(t, true)
	for _, body := range []any{map[string]string{"text": ""}, map[string]string{}} {
		resp, b := httpPostJSON(t, srv.URL+"/predict", body)
		if resp.StatusCode != http.StatusUnprocessableEntity {
			t.Fatalf("body %v: expected 422, got %d (%s)", body, resp.StatusCode, b)
		}
	}
}

func TestE2E_PredictWithoutModel503(t *testing.T) {
	srv := newServer(t, false)
	resp, body := httpPostJSON(t, srv.URL+"/predict", map[string]string{"text": "hello"})
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d (%s)", resp.StatusCode, body)
	}
	// Input errors still win over the missing model.
	resp, _ = httpPostJSON(t, srv.URL+"/predict", map[string]string{"text": ""})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestE2E_Recommend(t *testing.T) {
	srv := newServer(t, true)
	resp, body := httpPostJSON(t, srv.URL+"/recommend", map[string]any{"text": "Looking for a fast laptop", "top_k": 2})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d body=%s", resp.StatusCode, body)
	}
	var out types.RecommendResponse
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(out.RecommendedProducts) != 2 {
		t.Fatalf("expected 2 products, got %v", out.RecommendedProducts)
	}
	for _, title := range out.RecommendedProducts {
		if !strings.Contains(title, "laptop") {
			t.Fatalf("expected laptops first, got %v", out.RecommendedProducts)
		}
	}
}

func TestE2E_RecommendDetailed(t *testing.T) {
	srv := newServer(t, true)
	resp, body := httpPostJSON(t, srv.URL+"/recommend/detailed", map[string]string{"text": "wireless headphones"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d body=%s", resp.StatusCode, body)
	}
	var out types.DetailedRecommendResponse
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(out.Recommendations) == 0 {
		t.Fatal("expected recommendations")
	}
	first := out.Recommendations[0]
	if first.ProductID != "p2" || first.ProductTitle != "wireless headphones" {
		t.Fatalf("unexpected best match %+v", first)
	}
	for i := 1; i < len(out.Recommendations); i++ {
		if out.Recommendations[i].SimilarityScore > out.Recommendations[i-1].SimilarityScore {
			t.Fatalf("not ordered by score: %+v", out.Recommendations)
		}
	}
}

func TestE2E_RecommendInvalidInput(t *testing.T) {
	srv := newBareServer(t)
	for _, path := range []string{"/recommend", "/recommend/detailed"} {
		for _, body := range []any{map[string]string{"text": ""}, map[string]string{}} {
			resp, _ := httpPostJSON(t, srv.URL+path, body)
			if resp.StatusCode != http.StatusUnprocessableEntity {
				t.Fatalf("%s %v: expected 422, got %d", path, body, resp.StatusCode)
			}
		}
	}
}

func TestE2E_RecommendWithoutStore503(t *testing.T) {
	srv := newBareServer(t)
	for _, path := range []string{"/recommend", "/recommend/detailed"} {
		resp, body := httpPostJSON(t, srv.URL+path, map[string]string{"text": "laptop"})
		if resp.StatusCode != http.StatusServiceUnavailable {
			t.Fatalf("%s: expected 503, got %d (%s)", path, resp.StatusCode, body)
		}
		var e types.ErrorResponse
		if err := json.Unmarshal(body, &e); err != nil || e.Code != http.StatusServiceUnavailable {
			t.Fatalf("%s: unexpected error body %s", path, body)
		}
	}
}

func TestE2E_ReadinessAndStatus(t *testing.T) {
	srv := newServer(t, true)
	if resp, _ := httpGet(t, srv.URL+"/readyz"); resp.StatusCode != http.StatusOK {
		t.Fatalf("readyz=%d", resp.StatusCode)
	}
	_, _ = httpPostJSON(t, srv.URL+"/predict", map[string]string{"text": "great"})
	resp, body := httpGet(t, srv.URL+"/status")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d", resp.StatusCode)
	}
	var st types.StatusResponse
	if err := json.Unmarshal(body, &st); err != nil {
		t.Fatalf("json: %v", err)
	}
	if st.State != "ready" || st.PredictionsTotal != 1 {
		t.Fatalf("unexpected status %+v", st)
	}

	bare := newBareServer(t)
	if resp, _ := httpGet(t, bare.URL+"/readyz"); resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("bare readyz=%d", resp.StatusCode)
	}
	if resp, _ := httpGet(t, bare.URL+"/healthz"); resp.StatusCode != http.StatusOK {
		t.Fatalf("bare healthz=%d", resp.StatusCode)
	}
}

func TestE2E_MetricsExposed(t *testing.T) {
	srv := newServer(t, true)
	_, _ = httpPostJSON(t, srv.URL+"/recommend", map[string]string{"text": "laptop"})
	resp, body := httpGet(t, srv.URL+"/metrics")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics=%d", resp.StatusCode)
	}
	for _, name := range []string{"sentirec_http_requests_total", "sentirec_service_recommendation_results"} {
		if !strings.Contains(string(body), name) {
			t.Fatalf("missing %s in /metrics", name)
		}
	}
}
