package service

import (
	"context"

	"sentirec/pkg/types"
)

// State is the lifecycle state of a component or of the whole service.
type State string

const (
	StateReady       State = "ready"
	StateUnavailable State = "unavailable"
	StateDegraded    State = "degraded"
)

// Component names used in errors, status and metrics.
const (
	ComponentClassifier  = "classifier"
	ComponentEmbedder    = "embedder"
	ComponentVectorStore = "vector_store"
)

// Classifier labels text with a sentiment.
type Classifier interface {
	Predict(ctx context.Context, text string) (types.Prediction, error)
	Close() error
}
