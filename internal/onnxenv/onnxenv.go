// Package onnxenv shares one ONNX Runtime environment between every session
// in the process.
package onnxenv

import (
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

var (
	mu   sync.Mutex
	refs int
)

// Acquire initializes the environment on first use. libPath overrides the
// onnxruntime shared library location when non-empty; it only takes effect
// on the first call.
func Acquire(libPath string) error {
	mu.Lock()
	defer mu.Unlock()
	if refs == 0 && !ort.IsInitialized() {
		if libPath != "" {
			ort.SetSharedLibraryPath(libPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return fmt.Errorf("failed to initialize ONNX environment: %w", err)
		}
	}
	refs++
	return nil
}

// Release drops one reference and destroys the environment with the last one.
func Release() {
	mu.Lock()
	defer mu.Unlock()
	if refs == 0 {
		return
	}
	refs--
	if refs == 0 && ort.IsInitialized() {
		_ = ort.DestroyEnvironment()
	}
}
