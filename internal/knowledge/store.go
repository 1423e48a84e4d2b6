package knowledge

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

// Chunk is one embedded document slice stored in the vector collection.
type Chunk struct {
	Source string
	Index  int
	Text   string
}

// Scored is a search hit with its similarity score.
type Scored struct {
	Chunk
	Score float32
}

// QdrantStore keeps document chunks in a Qdrant collection.
type QdrantStore struct {
	logger     *slog.Logger
	client     *qdrant.Client
	collection string
}

// StoreConfig carries the Qdrant connection settings.
type StoreConfig struct {
	Host       string
	Port       int
	APIKey     string
	UseTLS     bool
	Collection string
}

// NewQdrantStore connects the Qdrant client.
func NewQdrantStore(log *slog.Logger, cfg StoreConfig) (*QdrantStore, error) {
	if log == nil {
		log = slog.Default()
	}
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("connect qdrant: %w", err)
	}
	return &QdrantStore{
		logger:     log.With(slog.String("component", "qdrant")),
		client:     client,
		collection: cfg.Collection,
	}, nil
}

// EnsureCollection creates the collection when absent. With recreate set,
// an existing collection is dropped first so stale chunks disappear.
func (s *QdrantStore) EnsureCollection(ctx context.Context, dims int, recreate bool) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("check collection: %w", err)
	}
	if exists && recreate {
		if err := s.client.DeleteCollection(ctx, s.collection); err != nil {
			return fmt.Errorf("drop collection: %w", err)
		}
		exists = false
	}
	if exists {
		return nil
	}
	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dims),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	s.logger.Info("collection created", slog.String("collection", s.collection), slog.Int("dims", dims))
	return nil
}

// Upsert writes chunks with their vectors. Point IDs derive from source
// name and chunk index, so re-ingesting the same folder overwrites in
// place instead of duplicating.
func (s *QdrantStore) Upsert(ctx context.Context, chunks []Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunk/vector count mismatch: %d vs %d", len(chunks), len(vectors))
	}
	if len(chunks) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, len(chunks))
	for i, chunk := range chunks {
		id := uuid.NewSHA1(uuid.NameSpaceOID, fmt.Appendf(nil, "%s#%d", chunk.Source, chunk.Index))
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(id.String()),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(map[string]any{
				"source": chunk.Source,
				"index":  int64(chunk.Index),
				"text":   chunk.Text,
			}),
		}
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points:         points,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("upsert points: %w", err)
	}
	return nil
}

// Query returns the k nearest chunks for the vector.
func (s *QdrantStore) Query(ctx context.Context, vector []float32, k int) ([]Scored, error) {
	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("query points: %w", err)
	}

	results := make([]Scored, 0, len(points))
	for _, point := range points {
		hit := Scored{Score: point.GetScore()}
		payload := point.GetPayload()
		if payload != nil {
			hit.Source = payload["source"].GetStringValue()
			hit.Index = int(payload["index"].GetIntegerValue())
			hit.Text = payload["text"].GetStringValue()
		}
		results = append(results, hit)
	}
	return results, nil
}
