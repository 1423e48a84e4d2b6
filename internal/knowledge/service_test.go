package knowledge

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

type fakeStore struct {
	ensured   bool
	recreated bool
	dims      int
	chunks    []Chunk
	queryHits []Scored
	queryErr  error
	upsertErr error
}

func (s *fakeStore) EnsureCollection(ctx context.Context, dims int, recreate bool) error {
	s.ensured = true
	s.recreated = recreate
	s.dims = dims
	return nil
}

func (s *fakeStore) Upsert(ctx context.Context, chunks []Chunk, vectors [][]float32) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	if len(chunks) != len(vectors) {
		return fmt.Errorf("mismatch")
	}
	s.chunks = append(s.chunks, chunks...)
	return nil
}

func (s *fakeStore) Query(ctx context.Context, vector []float32, k int) ([]Scored, error) {
	return s.queryHits, s.queryErr
}

type fakeEmbedder struct {
	calls [][]string
	err   error
}

func (e *fakeEmbedder) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	e.calls = append(e.calls, inputs)
	vectors := make([][]float32, len(inputs))
	for i := range inputs {
		vectors[i] = []float32{float32(len(inputs[i])), 1}
	}
	return vectors, nil
}

func (e *fakeEmbedder) Dimensions() int { return 2 }

func writeDocs(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func newTestService(t *testing.T, dir string, store VectorStore, embedder Embedder) *Service {
	t.Helper()
	chunker, err := NewChunker(64, 8)
	if err != nil {
		t.Fatalf("chunker: %v", err)
	}
	svc, err := NewService(nil, store, embedder, chunker, Options{DocsPath: dir, SearchTopK: 3, EmbedBatch: 2})
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	return svc
}

func TestNewServiceMissingFolderIsFatal(t *testing.T) {
	t.Parallel()

	chunker, _ := NewChunker(64, 8)
	_, err := NewService(nil, &fakeStore{}, &fakeEmbedder{}, chunker, Options{DocsPath: filepath.Join(t.TempDir(), "missing")})
	if err == nil {
		t.Fatal("missing docs folder must abort startup")
	}
}

func TestLoadIngestsDocuments(t *testing.T) {
	t.Parallel()

	dir := writeDocs(t, map[string]string{
		"hours.txt":    "The library opens at 9am and closes at 8pm.",
		"fees.md":      "Late returns cost 50 cents per day.",
		"ignored.docx": "binary-ish content",
		"empty.txt":    "   ",
	})
	store := &fakeStore{}
	embedder := &fakeEmbedder{}
	svc := newTestService(t, dir, store, embedder)

	if err := svc.Load(context.Background(), true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !store.ensured || !store.recreated || store.dims != 2 {
		t.Fatalf("collection not prepared: %+v", store)
	}
	if len(store.chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(store.chunks))
	}
	sources := map[string]bool{}
	for _, chunk := range store.chunks {
		sources[chunk.Source] = true
	}
	if !sources["hours.txt"] || !sources["fees.md"] {
		t.Fatalf("unexpected sources: %v", sources)
	}
	if sources["ignored.docx"] || sources["empty.txt"] {
		t.Fatalf("unsupported or empty files must be skipped: %v", sources)
	}
}

func TestLoadEmbedsInBatches(t *testing.T) {
	t.Parallel()

	files := map[string]string{}
	for i := 0; i < 5; i++ {
		files[fmt.Sprintf("doc%d.txt", i)] = fmt.Sprintf("Document number %d about the library.", i)
	}
	store := &fakeStore{}
	embedder := &fakeEmbedder{}
	svc := newTestService(t, writeDocs(t, files), store, embedder)

	if err := svc.Load(context.Background(), false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 5 chunks with batch size 2 -> 3 embedding calls.
	if len(embedder.calls) != 3 {
		t.Fatalf("expected 3 embedding calls, got %d", len(embedder.calls))
	}
	if len(store.chunks) != 5 {
		t.Fatalf("expected 5 chunks stored, got %d", len(store.chunks))
	}
}

func TestLoadEmbedderFailure(t *testing.T) {
	t.Parallel()

	dir := writeDocs(t, map[string]string{"a.txt": "content"})
	svc := newTestService(t, dir, &fakeStore{}, &fakeEmbedder{err: errors.New("quota")})

	if err := svc.Load(context.Background(), false); err == nil {
		t.Fatal("expected an error")
	}
}

func TestLoadEmptyFolder(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	svc := newTestService(t, t.TempDir(), store, &fakeEmbedder{})

	if err := svc.Load(context.Background(), false); err != nil {
		t.Fatalf("empty folder must not fail: %v", err)
	}
	if !store.ensured {
		t.Fatal("collection must still be ensured")
	}
	if len(store.chunks) != 0 {
		t.Fatalf("nothing to store, got %d chunks", len(store.chunks))
	}
}

func TestSearch(t *testing.T) {
	t.Parallel()

	store := &fakeStore{queryHits: []Scored{
		{Chunk: Chunk{Source: "hours.txt", Text: "opens at 9am"}, Score: 0.9},
	}}
	svc := newTestService(t, writeDocs(t, map[string]string{"hours.txt": "x"}), store, &fakeEmbedder{})

	hits, err := svc.Search(context.Background(), "when does it open", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 1 || hits[0].Source != "hours.txt" {
		t.Fatalf("unexpected hits: %+v", hits)
	}
}
