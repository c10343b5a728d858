package classifier

import (
	"fmt"
	"math"
	"strings"

	"sentirec/pkg/types"
)

// NormalizeLabel maps common model label spellings to positive/negative.
// Unknown labels are returned lower-cased.
func NormalizeLabel(l string) string {
	switch strings.ToLower(strings.TrimSpace(l)) {
	case "positive", "pos", "label_1", "1":
		return types.LabelPositive
	case "negative", "neg", "label_0", "0":
		return types.LabelNegative
	default:
		return strings.ToLower(strings.TrimSpace(l))
	}
}

// Softmax converts logits to probabilities.
func Softmax(logits []float32) []float64 {
	out := make([]float64, len(logits))
	if len(logits) == 0 {
		return out
	}
	hi := float64(logits[0])
	for _, v := range logits[1:] {
		if float64(v) > hi {
			hi = float64(v)
		}
	}
	var sum float64
	for i, v := range logits {
		out[i] = math.Exp(float64(v) - hi)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// Sigmoid is the logistic function.
func Sigmoid(x float32) float64 { return 1 / (1 + math.Exp(-float64(x))) }

// Decide turns raw model output into a prediction. A single logit is read as
// the score of labels[1]; otherwise logits align with labels.
func Decide(logits []float32, labels []string) (types.Prediction, error) {
	if len(labels) < 2 {
		return types.Prediction{}, fmt.Errorf("need at least two labels, got %d", len(labels))
	}
	switch {
	case len(logits) == 1:
		p := Sigmoid(logits[0])
		if p >= 0.5 {
			return types.Prediction{Label: labels[1], Confidence: clamp01(p)}, nil
		}
		return types.Prediction{Label: labels[0], Confidence: clamp01(1 - p)}, nil
	case len(logits) == len(labels):
		probs := Softmax(logits)
		best := 0
		for i := range probs {
			if probs[i] > probs[best] {
				best = i
			}
		}
		return types.Prediction{Label: labels[best], Confidence: clamp01(probs[best])}, nil
	default:
		return types.Prediction{}, fmt.Errorf("model returned %d logits for %d labels", len(logits), len(labels))
	}
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
