package httpapi

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"sentirec/pkg/types"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"":      LevelOff,
		"off":   LevelOff,
		"error": LevelError,
		"INFO":  LevelInfo,
		"debug": LevelDebug,
		"weird": LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestRequestLogLevel_Overrides(t *testing.T) {
	r := httptest.NewRequest("GET", "/x?log=debug", nil)
	if got := requestLogLevel(r); got != LevelDebug {
		t.Fatalf("query override failed: %v", got)
	}
	r = httptest.NewRequest("GET", "/x?log=1", nil)
	if got := requestLogLevel(r); got != LevelDebug {
		t.Fatalf("short query override failed: %v", got)
	}
	r = httptest.NewRequest("GET", "/x", nil)
	r.Header.Set("X-Log-Level", "error")
	if got := requestLogLevel(r); got != LevelError {
		t.Fatalf("header override failed: %v", got)
	}
	SetDefaultLogLevel("info")
	defer SetDefaultLogLevel("")
	if got := requestLogLevel(httptest.NewRequest("GET", "/x", nil)); got != LevelInfo {
		t.Fatalf("default level not applied: %v", got)
	}
}

func TestRequestLoggingWithZerolog(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf))
	defer SetLogger(zerolog.Nop())

	h := NewMux(&mockService{pred: types.Prediction{Label: "positive", Confidence: 0.9}})
	rec := postJSON(h, "/predict?log=debug", `{"text":"great"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	out := buf.String()
	if !strings.Contains(out, `"op":"predict"`) || !strings.Contains(out, `"status":200`) {
		t.Fatalf("expected request log, got %q", out)
	}
	if !strings.Contains(out, "predict start") {
		t.Fatalf("expected debug start line, got %q", out)
	}
}

func TestErrorLevelSkipsClientErrors(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf))
	defer SetLogger(zerolog.Nop())

	h := NewMux(&mockService{})
	_ = postJSON(h, "/predict?log=error", `{"text":""}`)
	if buf.Len() != 0 {
		t.Fatalf("expected no log for 422 at error level, got %q", buf.String())
	}
	h = NewMux(&mockService{predictErr: errInternal("boom")})
	_ = postJSON(h, "/predict?log=error", `{"text":"x"}`)
	if !strings.Contains(buf.String(), `"status":500`) {
		t.Fatalf("expected 500 logged at error level, got %q", buf.String())
	}
}
