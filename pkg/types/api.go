package types

// TextRequest is the payload accepted by /predict, /recommend and /recommend/detailed.
type TextRequest struct {
	// Required free text to classify or to search products with.
	// example: This movie was absolutely fantastic!
	Text string `json:"text" validate:"notblank" example:"This movie was absolutely fantastic!"`
	// Optional number of products to return (recommend endpoints only).
	// Zero or omitted uses the server default.
	// example: 5
	TopK int `json:"top_k,omitempty" validate:"omitempty,min=1,max=50" example:"5"`
}

// PredictResponse is returned by POST /predict.
type PredictResponse struct {
	// Sentiment label.
	// example: positive
	Label string `json:"label" example:"positive" enums:"positive,negative"`
	// Probability of the label, in [0,1].
	// example: 0.98
	Confidence float64 `json:"confidence" example:"0.98"`
}

// RecommendResponse is returned by POST /recommend.
type RecommendResponse struct {
	// Titles of the most similar products, best match first. May be empty.
	// example: ["UltraBook Pro 14","Gaming Laptop X"]
	RecommendedProducts []string `json:"recommended_products"`
}

// DetailedRecommendResponse is returned by POST /recommend/detailed.
type DetailedRecommendResponse struct {
	// Most similar products, best match first. May be empty.
	Recommendations []Recommendation `json:"recommendations"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: text is required
	Error string `json:"error" example:"text is required"`
	// HTTP status code.
	// example: 422
	Code int `json:"code" example:"422"`
}

// ComponentStatus summarizes one dependency for /status.
type ComponentStatus struct {
	// Component name (classifier, embedder, vector_store).
	// example: classifier
	Name string `json:"name" example:"classifier"`
	// Lifecycle state (ready, unavailable).
	// example: ready
	State string `json:"state" example:"ready"`
	// Backend in use, when applicable (onnx, openai, llama, qdrant, local).
	// example: qdrant
	Backend string `json:"backend,omitempty" example:"qdrant"`
	// Circuit breaker state guarding the component, when applicable.
	// example: closed
	Breaker string `json:"breaker,omitempty" example:"closed"`
	// Last error observed while loading or calling the component.
	Error string `json:"error,omitempty"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Overall state: ready when every component is ready, degraded otherwise.
	// example: ready
	State string `json:"state" example:"ready"`
	// Per-component status.
	Components []ComponentStatus `json:"components"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
	// Total predictions served.
	// example: 42
	PredictionsTotal uint64 `json:"predictions_total" example:"42"`
	// Total recommendation queries served.
	// example: 17
	RecommendationsTotal uint64 `json:"recommendations_total" example:"17"`
}
