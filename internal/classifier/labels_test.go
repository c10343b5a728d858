package classifier

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentirec/pkg/types"
)

func TestNormalizeLabel(t *testing.T) {
	cases := map[string]string{
		"POSITIVE": types.LabelPositive,
		"pos":      types.LabelPositive,
		"LABEL_1":  types.LabelPositive,
		"negative": types.LabelNegative,
		" NEG ":    types.LabelNegative,
		"LABEL_0":  types.LabelNegative,
		"Neutral":  "neutral",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeLabel(in), in)
	}
}

func TestSoftmaxSumsToOne(t *testing.T) {
	p := Softmax([]float32{2.5, -1.0, 0.3})
	var sum float64
	for _, v := range p {
		assert.True(t, v >= 0 && v <= 1)
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.Empty(t, Softmax(nil))
}

func TestSoftmaxLargeLogitsStable(t *testing.T) {
	p := Softmax([]float32{1000, 999})
	assert.False(t, math.IsNaN(p[0]))
	assert.Greater(t, p[0], p[1])
}

func TestDecide_TwoLogits(t *testing.T) {
	labels := []string{types.LabelNegative, types.LabelPositive}
	p, err := Decide([]float32{-2.1, 3.4}, labels)
	require.NoError(t, err)
	assert.Equal(t, types.LabelPositive, p.Label)
	assert.Greater(t, p.Confidence, 0.5)
	assert.LessOrEqual(t, p.Confidence, 1.0)

	p, err = Decide([]float32{4, -4}, labels)
	require.NoError(t, err)
	assert.Equal(t, types.LabelNegative, p.Label)
}

func TestDecide_SingleLogit(t *testing.T) {
	labels := []string{types.LabelNegative, types.LabelPositive}
	p, err := Decide([]float32{0.0}, labels)
	require.NoError(t, err)
	assert.Equal(t, types.LabelPositive, p.Label)
	assert.InDelta(t, 0.5, p.Confidence, 1e-9)

	p, err = Decide([]float32{-3}, labels)
	require.NoError(t, err)
	assert.Equal(t, types.LabelNegative, p.Label)
	assert.InDelta(t, 1-Sigmoid(-3), p.Confidence, 1e-9)
}

func TestDecide_Mismatch(t *testing.T) {
	_, err := Decide([]float32{1, 2, 3}, []string{"negative", "positive"})
	assert.Error(t, err)
	_, err = Decide([]float32{1}, []string{"positive"})
	assert.Error(t, err)
}

func TestReadMetadata(t *testing.T) {
	meta, err := ReadMetadata("", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{types.LabelNegative, types.LabelPositive}, meta.Labels)
	assert.Equal(t, []string{"input_ids", "attention_mask"}, meta.InputNames)
	assert.Equal(t, "logits", meta.OutputName)
	assert.Equal(t, 2, meta.OutputSize)

	p := filepath.Join(t.TempDir(), "model_metadata.json")
	require.NoError(t, os.WriteFile(p, []byte(`{"labels":["LABEL_0","LABEL_1"],"input_names":["input_ids","attention_mask","token_type_ids"],"output_size":1}`), 0o644))
	meta, err = ReadMetadata(p, []string{"ignored", "too"})
	require.NoError(t, err)
	assert.Equal(t, []string{types.LabelNegative, types.LabelPositive}, meta.Labels)
	assert.Len(t, meta.InputNames, 3)
	assert.Equal(t, 1, meta.OutputSize)
}

func TestReadMetadata_Rejects(t *testing.T) {
	_, err := ReadMetadata("", []string{"negative", "neutral", "positive"})
	assert.Error(t, err)

	p := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(p, []byte(`{"input_names":["pixel_values"]}`), 0o644))
	_, err = ReadMetadata(p, nil)
	assert.Error(t, err)

	_, err = ReadMetadata(filepath.Join(t.TempDir(), "missing.json"), nil)
	assert.Error(t, err)
}
