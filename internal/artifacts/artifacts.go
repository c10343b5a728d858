// Package artifacts locates the on-disk files a local ONNX model needs: the
// model itself, its tokenizer.json and an optional metadata file.
package artifacts

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"sentirec/internal/common/fsutil"
)

// Default file names looked up beside the model when not given explicitly.
const (
	TokenizerFile = "tokenizer.json"
	PreferredFile = "model.onnx"
)

var metadataFiles = []string{"model_metadata.json", "metadata.json"}

// Set holds absolute paths of resolved model artifacts. Metadata is empty when absent.
type Set struct {
	Model     string
	Tokenizer string
	Metadata  string
}

// notFoundError reports a missing or unconfigured artifact.
type notFoundError struct {
	what string
	path string
}

func (e notFoundError) Error() string {
	if e.path == "" {
		return e.what + " path not configured"
	}
	return e.what + " not found: " + e.path
}

// IsNotFound reports whether err indicates a missing artifact.
func IsNotFound(err error) bool {
	_, ok := err.(notFoundError)
	return ok
}

// Resolve expands and validates artifact paths. modelPath may point at an
// .onnx file or at a directory holding one. Empty tokenizer/metadata paths
// are looked up beside the model.
func Resolve(modelPath, tokenizerPath, metadataPath string) (Set, error) {
	var s Set
	if strings.TrimSpace(modelPath) == "" {
		return s, notFoundError{what: "model"}
	}
	abs, err := fsutil.AbsPath(modelPath)
	if err != nil {
		return s, err
	}
	if fsutil.IsDir(abs) {
		if abs, err = scanONNX(abs); err != nil {
			return s, err
		}
	} else if !fsutil.IsFile(abs) {
		return s, notFoundError{what: "model", path: abs}
	}
	s.Model = abs
	dir := filepath.Dir(abs)

	if tokenizerPath == "" {
		tokenizerPath = filepath.Join(dir, TokenizerFile)
	}
	if s.Tokenizer, err = fsutil.AbsPath(tokenizerPath); err != nil {
		return s, err
	}
	if !fsutil.IsFile(s.Tokenizer) {
		return s, notFoundError{what: "tokenizer", path: s.Tokenizer}
	}

	if metadataPath != "" {
		if s.Metadata, err = fsutil.AbsPath(metadataPath); err != nil {
			return s, err
		}
		if !fsutil.IsFile(s.Metadata) {
			return s, notFoundError{what: "metadata", path: s.Metadata}
		}
		return s, nil
	}
	for _, name := range metadataFiles {
		if p := filepath.Join(dir, name); fsutil.IsFile(p) {
			s.Metadata = p
			break
		}
	}
	return s, nil
}

// scanONNX picks the model file inside dir: the only *.onnx file, or
// model.onnx when there are several.
func scanONNX(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read dir: %w", err)
	}
	var found []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(e.Name()), ".onnx") {
			found = append(found, e.Name())
		}
	}
	switch len(found) {
	case 0:
		return "", notFoundError{what: "model", path: filepath.Join(dir, "*.onnx")}
	case 1:
		return filepath.Join(dir, found[0]), nil
	}
	for _, n := range found {
		if n == PreferredFile {
			return filepath.Join(dir, n), nil
		}
	}
	sort.Strings(found)
	return "", fmt.Errorf("ambiguous model directory %s: %s", dir, strings.Join(found, ", "))
}
