package types

// Sentiment labels produced by the classifier.
const (
	LabelPositive = "positive"
	LabelNegative = "negative"
)

// Prediction is the outcome of classifying a piece of text.
type Prediction struct {
	Label      string
	Confidence float64
}

// Product is a catalogue entry that can be embedded and recommended.
type Product struct {
	// Stable product identifier.
	// example: B07XJ8C8F5
	ID string `json:"product_id" example:"B07XJ8C8F5"`
	// Human-readable product title.
	// example: UltraBook Pro 14
	Title string `json:"product_title" example:"UltraBook Pro 14"`
	// Optional longer description, embedded together with the title.
	Description string `json:"description,omitempty"`
}

// Recommendation is a product matched by similarity search.
type Recommendation struct {
	// example: B07XJ8C8F5
	ProductID string `json:"product_id" example:"B07XJ8C8F5"`
	// example: UltraBook Pro 14
	ProductTitle string `json:"product_title" example:"UltraBook Pro 14"`
	// Similarity between the query and the product, higher is closer.
	// example: 0.83
	SimilarityScore float64 `json:"similarity_score" example:"0.83"`
}

// EmbeddingText is the text embedded for a product.
func (p Product) EmbeddingText() string {
	if p.Description == "" {
		return p.Title
	}
	return p.Title + ". " + p.Description
}
