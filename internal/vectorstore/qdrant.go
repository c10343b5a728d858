package vectorstore

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"github.com/rs/zerolog"

	"sentirec/pkg/types"
)

// Payload keys written for every point.
const (
	payloadProductID    = "product_id"
	payloadProductTitle = "product_title"
	payloadDescription  = "description"
)

// Qdrant listens for gRPC on 6334 and REST on 6333. This client speaks gRPC only.
const (
	QdrantGRPCPort = 6334
	QdrantRESTPort = 6333
)

// pointNamespace derives stable Qdrant point ids from product ids.
var pointNamespace = uuid.MustParse("5b0c4f4e-6f1d-4a53-9a43-3b1f2f0e7c21")

// Qdrant stores vectors in a Qdrant collection over gRPC.
type Qdrant struct {
	client     *qdrant.Client
	collection string
	size       int
	log        zerolog.Logger
}

// NewQdrant connects to Qdrant over gRPC (QdrantGRPCPort by default).
func NewQdrant(opts Options) (*Qdrant, error) {
	if opts.Collection == "" {
		return nil, fmt.Errorf("qdrant: collection name is required")
	}
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   opts.Host,
		Port:   opts.Port,
		APIKey: opts.APIKey,
		UseTLS: opts.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant client: %w", err)
	}
	q := &Qdrant{
		client:     client,
		collection: opts.Collection,
		size:       opts.VectorSize,
		log: opts.Logger.With().Str("component", "vectorstore").Str("backend", "qdrant").
			Str("collection", opts.Collection).Logger(),
	}
	if hint := portHint(opts.Port); hint != "" {
		q.log.Warn().Int("port", opts.Port).Msg(hint)
	}
	return q, nil
}

// portHint explains a port that cannot work with the gRPC client.
func portHint(port int) string {
	if port == QdrantRESTPort {
		return fmt.Sprintf("port %d is Qdrant's REST port; this client uses gRPC, set QDRANT_PORT=%d", QdrantRESTPort, QdrantGRPCPort)
	}
	return ""
}

// PointID maps a product id to the UUID used as Qdrant point id.
func PointID(productID string) string {
	return uuid.NewSHA1(pointNamespace, []byte(productID)).String()
}

func (q *Qdrant) Backend() string { return "qdrant" }

func (q *Qdrant) Ping(ctx context.Context) error {
	if _, err := q.client.HealthCheck(ctx); err != nil {
		return fmt.Errorf("qdrant health check: %w", err)
	}
	return nil
}

// EnsureCollection creates the collection with cosine distance when missing.
func (q *Qdrant) EnsureCollection(ctx context.Context) error {
	exists, err := q.client.CollectionExists(ctx, q.collection)
	if err != nil {
		return fmt.Errorf("qdrant collection exists: %w", err)
	}
	if exists {
		return nil
	}
	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(q.size),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("qdrant create collection: %w", err)
	}
	q.log.Info().Int("size", q.size).Msg("created collection")
	return nil
}

func (q *Qdrant) Search(ctx context.Context, vector []float32, k int) ([]types.Recommendation, error) {
	if err := checkVector(vector, q.size); err != nil {
		return nil, err
	}
	if k <= 0 {
		return []types.Recommendation{}, nil
	}
	points, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant query: %w", err)
	}
	out := make([]types.Recommendation, 0, len(points))
	for _, p := range points {
		payload := p.GetPayload()
		id := payloadString(payload, payloadProductID, "id")
		if id == "" {
			id = pointIDString(p.GetId())
		}
		out = append(out, types.Recommendation{
			ProductID:       id,
			ProductTitle:    payloadString(payload, payloadProductTitle, "title", "name"),
			SimilarityScore: float64(p.GetScore()),
		})
	}
	return out, nil
}

func (q *Qdrant) Upsert(ctx context.Context, items []Item) error {
	if len(items) == 0 {
		return nil
	}
	points := make([]*qdrant.PointStruct, 0, len(items))
	for _, it := range items {
		if err := checkVector(it.Vector, q.size); err != nil {
			return fmt.Errorf("product %s: %w", it.Product.ID, err)
		}
		payload := map[string]any{
			payloadProductID:    it.Product.ID,
			payloadProductTitle: it.Product.Title,
		}
		if it.Product.Description != "" {
			payload[payloadDescription] = it.Product.Description
		}
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewID(PointID(it.Product.ID)),
			Vectors: qdrant.NewVectors(it.Vector...),
			Payload: qdrant.NewValueMap(payload),
		})
	}
	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("qdrant upsert: %w", err)
	}
	q.log.Debug().Int("points", len(points)).Msg("upserted")
	return nil
}

func (q *Qdrant) Close() error { return q.client.Close() }

// payloadString returns the first non-empty payload value among keys.
// Integer payloads are formatted in base 10.
func payloadString(payload map[string]*qdrant.Value, keys ...string) string {
	for _, k := range keys {
		v, ok := payload[k]
		if !ok || v == nil {
			continue
		}
		if s := v.GetStringValue(); s != "" {
			return s
		}
		if _, ok := v.GetKind().(*qdrant.Value_IntegerValue); ok {
			return strconv.FormatInt(v.GetIntegerValue(), 10)
		}
	}
	return ""
}

func pointIDString(id *qdrant.PointId) string {
	if id == nil {
		return ""
	}
	if u := id.GetUuid(); u != "" {
		return u
	}
	return strconv.FormatUint(id.GetNum(), 10)
}
