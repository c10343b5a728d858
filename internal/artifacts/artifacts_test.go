package artifacts

import (
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), []byte(""), 0o644); err != nil {
			t.Fatalf("write %s: %v", n, err)
		}
	}
}

func TestResolve_Directory(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "sentiment.onnx", "tokenizer.json", "model_metadata.json", "README.md")
	s, err := Resolve(dir, "", "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if filepath.Base(s.Model) != "sentiment.onnx" || filepath.Base(s.Tokenizer) != "tokenizer.json" || filepath.Base(s.Metadata) != "model_metadata.json" {
		t.Fatalf("unexpected set: %+v", s)
	}
}

func TestResolve_PrefersModelONNX(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "model.onnx", "model_quantized.onnx", "tokenizer.json")
	s, err := Resolve(dir, "", "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if filepath.Base(s.Model) != "model.onnx" {
		t.Fatalf("model=%s", s.Model)
	}
	if s.Metadata != "" {
		t.Fatalf("metadata should be empty, got %s", s.Metadata)
	}
}

func TestResolve_Ambiguous(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.onnx", "b.onnx", "tokenizer.json")
	if _, err := Resolve(dir, "", ""); err == nil || IsNotFound(err) {
		t.Fatalf("expected ambiguity error, got %v", err)
	}
}

func TestResolve_ExplicitFiles(t *testing.T) {
	mdir, tdir := t.TempDir(), t.TempDir()
	touch(t, mdir, "clf.onnx")
	touch(t, tdir, "vocab-tokenizer.json")
	s, err := Resolve(filepath.Join(mdir, "clf.onnx"), filepath.Join(tdir, "vocab-tokenizer.json"), "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if s.Tokenizer != filepath.Join(tdir, "vocab-tokenizer.json") {
		t.Fatalf("tokenizer=%s", s.Tokenizer)
	}
}

func TestResolve_NotFound(t *testing.T) {
	if _, err := Resolve("", "", ""); !IsNotFound(err) {
		t.Fatalf("expected not found for empty path, got %v", err)
	}
	dir := t.TempDir()
	if _, err := Resolve(filepath.Join(dir, "missing.onnx"), "", ""); !IsNotFound(err) {
		t.Fatalf("expected not found for missing model, got %v", err)
	}
	touch(t, dir, "m.onnx")
	if _, err := Resolve(dir, "", ""); !IsNotFound(err) {
		t.Fatalf("expected not found for missing tokenizer, got %v", err)
	}
	empty := t.TempDir()
	if _, err := Resolve(empty, "", ""); !IsNotFound(err) {
		t.Fatalf("expected not found for empty dir, got %v", err)
	}
}
