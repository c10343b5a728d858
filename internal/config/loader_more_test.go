package config

import (
	"testing"
)

func TestLoad_NonexistentFile(t *testing.T) {
	if _, err := Load("/definitely/not/a/real/file-12345.yaml"); err == nil {
		t.Fatalf("expected error for nonexistent file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "bad.yaml", "server:\n  addr: :8080\n: broken\n")
	if _, err := Load(p); err == nil {
		t.Fatalf("expected YAML unmarshal error")
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "bad.json", `{ "server": { "addr": } }`)
	if _, err := Load(p); err == nil {
		t.Fatalf("expected JSON unmarshal error")
	}
}

func TestLoad_InvalidTOML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "bad.toml", "[server]\naddr=:8080\nmodel\n")
	if _, err := Load(p); err == nil {
		t.Fatalf("expected TOML unmarshal error")
	}
}

func TestValidate(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	cfg := Default()
	cfg.Embedding.Backend = "word2vec"
	cfg.VectorStore.VectorSize = 0
	cfg.Log.Format = "xml"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected validation errors")
	}
	cfg = Default()
	cfg.Recommend.DefaultTopK = 60
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected top-k validation error")
	}
}

func TestValidateCapsMaxTopK(t *testing.T) {
	cfg := Default()
	cfg.Recommend.MaxTopK = MaxTopKLimit + 1
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected max_top_k above %d to be rejected", MaxTopKLimit)
	}
	cfg.Recommend.MaxTopK = MaxTopKLimit
	if err := cfg.Validate(); err != nil {
		t.Fatalf("max_top_k at the limit should validate: %v", err)
	}
}
