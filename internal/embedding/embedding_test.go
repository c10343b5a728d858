package embedding

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	v := Normalize([]float32{3, 4})
	assert.InDelta(t, 0.6, v[0], 1e-6)
	assert.InDelta(t, 0.8, v[1], 1e-6)

	zero := Normalize([]float32{0, 0, 0})
	assert.Equal(t, []float32{0, 0, 0}, zero)
}

func TestMeanPoolIgnoresPadding(t *testing.T) {
	// seqLen=3, dim=2; the third position is padding.
	hidden := []float32{
		1, 2,
		3, 4,
		100, 100,
	}
	got := MeanPool(hidden, []int64{1, 1, 0}, 3, 2)
	assert.Equal(t, []float32{2, 3}, got)
}

func TestMeanPoolAllMasked(t *testing.T) {
	got := MeanPool([]float32{1, 2}, []int64{0}, 1, 2)
	assert.Equal(t, []float32{0, 0}, got)
}

func TestNew_RejectsBadOptions(t *testing.T) {
	_, err := New(Options{Backend: "onnx", Dimensions: 0})
	require.Error(t, err)

	_, err = New(Options{Backend: "word2vec", Dimensions: 8})
	require.Error(t, err)

	_, err = New(Options{Backend: "openai", Dimensions: 8})
	require.Error(t, err, "openai needs host and model")

	_, err = New(Options{Backend: "onnx", Dimensions: 8, ModelPath: "/nonexistent/model.onnx"})
	require.Error(t, err)
}

func TestNew_LlamaStubUnavailable(t *testing.T) {
	if LlamaAvailable() {
		t.Skip("built with llama support")
	}
	_, err := New(Options{Backend: "llama", Dimensions: 8, ModelPath: "/m.gguf"})
	require.Error(t, err)
	assert.True(t, IsUnavailable(err))
}

func TestCheckDim(t *testing.T) {
	assert.NoError(t, checkDim(make([]float32, 4), 4))
	assert.Error(t, checkDim(make([]float32, 3), 4))
}

func TestNormalizeUnitLength(t *testing.T) {
	v := Normalize([]float32{1, 2, 3, 4})
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-6)
}
