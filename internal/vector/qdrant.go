// Package vector adapts the external embedding service and the Qdrant
// similarity index behind the capability interfaces the forecast package
// consumes.
package vector

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"

	"maitred/internal/forecast"
)

// QdrantIndex implements forecast.SimilarityIndex over a Qdrant collection
// of service-day patterns.
type QdrantIndex struct {
	client     *qdrant.Client
	collection string
	dimension  uint64
}

// Options configure the Qdrant connection.
type Options struct {
	Host       string
	Port       int
	APIKey     string
	UseTLS     bool
	Collection string
	Dimension  int
}

// NewQdrantIndex connects to Qdrant. Returns an error when the host is not
// configured; callers treat that as "index unavailable" and run degraded.
func NewQdrantIndex(opts Options) (*QdrantIndex, error) {
	if opts.Host == "" {
		return nil, fmt.Errorf("qdrant host not configured")
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   opts.Host,
		Port:   opts.Port,
		APIKey: opts.APIKey,
		UseTLS: opts.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to qdrant: %w", err)
	}

	return &QdrantIndex{
		client:     client,
		collection: opts.Collection,
		dimension:  uint64(opts.Dimension),
	}, nil
}

// Query runs a k-nearest-neighbor search. A non-empty serviceType adds an
// exact-match payload filter.
func (q *QdrantIndex) Query(ctx context.Context, vector []float32, serviceType string, limit int) ([]forecast.IndexHit, error) {
	var filter *qdrant.Filter
	if serviceType != "" {
		filter = &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch("service_type", serviceType),
			},
		}
	}

	points, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQuery(vector...),
		Filter:         filter,
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant query: %w", err)
	}

	hits := make([]forecast.IndexHit, 0, len(points))
	for _, p := range points {
		hits = append(hits, scoredPointToHit(p))
	}
	return hits, nil
}

func scoredPointToHit(p *qdrant.ScoredPoint) forecast.IndexHit {
	payload := p.GetPayload()

	var events []string
	if list := payload["events"].GetListValue(); list != nil {
		for _, v := range list.GetValues() {
			events = append(events, v.GetStringValue())
		}
	}

	id := p.GetId().GetUuid()
	if id == "" {
		id = fmt.Sprintf("%d", p.GetId().GetNum())
	}

	return forecast.IndexHit{
		ID:          id,
		Score:       float64(p.GetScore()),
		PatternID:   payload["pattern_id"].GetStringValue(),
		Date:        payload["date"].GetStringValue(),
		ServiceType: payload["service_type"].GetStringValue(),
		DayOfWeek:   payload["day_of_week"].GetStringValue(),
		DayType:     payload["day_type"].GetStringValue(),
		Covers:      int(payload["actual_covers"].GetIntegerValue()),
		Weather:     payload["weather_condition"].GetStringValue(),
		Events:      events,
		IsHoliday:   payload["is_holiday"].GetBoolValue(),
		HolidayName: payload["holiday_name"].GetStringValue(),
	}
}

// EnsureCollection recreates the pattern collection with a cosine-distance
// vector index. Used by the seeder only; the serving path never writes.
func (q *QdrantIndex) EnsureCollection(ctx context.Context) error {
	exists, err := q.client.CollectionExists(ctx, q.collection)
	if err != nil {
		return fmt.Errorf("checking collection: %w", err)
	}
	if exists {
		if err := q.client.DeleteCollection(ctx, q.collection); err != nil {
			return fmt.Errorf("deleting collection: %w", err)
		}
	}

	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     q.dimension,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("creating collection: %w", err)
	}
	return nil
}

// UpsertRecord is one indexed pattern: vector plus the full payload,
// including the literal embedded text for debugging.
type UpsertRecord struct {
	ID      uint64
	Vector  []float32
	Payload map[string]any
}

// Upsert writes a batch of pattern records.
func (q *QdrantIndex) Upsert(ctx context.Context, records []UpsertRecord) error {
	points := make([]*qdrant.PointStruct, 0, len(records))
	for _, r := range records {
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDNum(r.ID),
			Vectors: qdrant.NewVectors(r.Vector...),
			Payload: qdrant.NewValueMap(r.Payload),
		})
	}

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collection,
		Points:         points,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("qdrant upsert: %w", err)
	}
	return nil
}

// Count returns the number of indexed patterns.
func (q *QdrantIndex) Count(ctx context.Context) (uint64, error) {
	n, err := q.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: q.collection,
	})
	if err != nil {
		return 0, fmt.Errorf("qdrant count: %w", err)
	}
	return n, nil
}
