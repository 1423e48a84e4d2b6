// Package knowledge ingests the document folder into a vector collection
// and answers similarity searches for the agent.
package knowledge

import (
	"context"
	"fmt"
	"log/slog"
	"os"
)

// VectorStore is the persistence behind the knowledge index.
type VectorStore interface {
	EnsureCollection(ctx context.Context, dims int, recreate bool) error
	Upsert(ctx context.Context, chunks []Chunk, vectors [][]float32) error
	Query(ctx context.Context, vector []float32, k int) ([]Scored, error)
}

// Options tune ingestion and search.
type Options struct {
	DocsPath   string
	SearchTopK int
	// EmbedBatch bounds how many chunks go into one embedding call.
	EmbedBatch int
}

// Service is the document knowledge base.
type Service struct {
	logger   *slog.Logger
	store    VectorStore
	embedder Embedder
	chunker  *Chunker
	opts     Options
}

// NewService creates the knowledge base. The docs folder must exist; its
// absence is a configuration error the process should not start with.
func NewService(log *slog.Logger, store VectorStore, embedder Embedder, chunker *Chunker, opts Options) (*Service, error) {
	if log == nil {
		log = slog.Default()
	}
	if info, err := os.Stat(opts.DocsPath); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("knowledge base folder not found: %s", opts.DocsPath)
	}
	if opts.SearchTopK <= 0 {
		opts.SearchTopK = 4
	}
	if opts.EmbedBatch <= 0 {
		opts.EmbedBatch = 32
	}
	return &Service{
		logger:   log.With(slog.String("service", "knowledge")),
		store:    store,
		embedder: embedder,
		chunker:  chunker,
		opts:     opts,
	}, nil
}

// Load ingests the docs folder: read, chunk, embed, upsert. With recreate
// set the collection is rebuilt from scratch.
func (s *Service) Load(ctx context.Context, recreate bool) error {
	docs, problems := LoadDocuments(s.opts.DocsPath)
	for _, problem := range problems {
		s.logger.Warn("skipping document", slog.Any("error", problem))
	}

	var chunks []Chunk
	for _, doc := range docs {
		for i, piece := range s.chunker.Split(doc.Content) {
			chunks = append(chunks, Chunk{Source: doc.Name, Index: i, Text: piece})
		}
	}

	if err := s.store.EnsureCollection(ctx, s.embedder.Dimensions(), recreate); err != nil {
		return err
	}
	if len(chunks) == 0 {
		s.logger.Warn("no documents to index", slog.String("path", s.opts.DocsPath))
		return nil
	}

	for start := 0; start < len(chunks); start += s.opts.EmbedBatch {
		end := start + s.opts.EmbedBatch
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]
		inputs := make([]string, len(batch))
		for i, chunk := range batch {
			inputs[i] = chunk.Text
		}
		vectors, err := s.embedder.Embed(ctx, inputs)
		if err != nil {
			return fmt.Errorf("embed batch at %d: %w", start, err)
		}
		if err := s.store.Upsert(ctx, batch, vectors); err != nil {
			return fmt.Errorf("store batch at %d: %w", start, err)
		}
	}

	s.logger.Info("knowledge base loaded",
		slog.Int("documents", len(docs)),
		slog.Int("chunks", len(chunks)))
	return nil
}

// Search embeds the query and returns the closest chunks.
func (s *Service) Search(ctx context.Context, query string, k int) ([]Scored, error) {
	if k <= 0 {
		k = s.opts.SearchTopK
	}
	vectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embedder returned no vector")
	}
	return s.store.Query(ctx, vectors[0], k)
}

// TopK returns the configured default search depth.
func (s *Service) TopK() int {
	return s.opts.SearchTopK
}
