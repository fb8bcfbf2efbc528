package retrieval_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/clinicore/docrag/internal/config"
	"github.com/clinicore/docrag/internal/data/docStore"
	"github.com/clinicore/docrag/internal/domain/docModel"
	"github.com/clinicore/docrag/internal/domain/faults"
	"github.com/clinicore/docrag/internal/rag/retrieval"
)

type MockEmbedder struct {
	OnEmbed      func(ctx context.Context, text string) ([]float32, error)
	OnEmbedBatch func(ctx context.Context, texts []string) ([][]float32, error)
}

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if m.OnEmbed != nil {
		return m.OnEmbed(ctx, text)
	}
	return []float32{1, 0, 0}, nil
}

func (m *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if m.OnEmbedBatch != nil {
		return m.OnEmbedBatch(ctx, texts)
	}
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

func (m *MockEmbedder) ModelId() string { return "mock-embedder" }
func (m *MockEmbedder) Dimension() int  { return 3 }

type MockSource struct {
	OnCandidates func(ctx context.Context, queryVector []float32, tenantId string, category docModel.Category, limit int) ([]docModel.Chunk, error)
}

func (m *MockSource) Candidates(ctx context.Context, queryVector []float32, tenantId string, category docModel.Category, limit int) ([]docModel.Chunk, error) {
	return m.OnCandidates(ctx, queryVector, tenantId, category, limit)
}

func testCtx() context.Context {
	return context.WithValue(context.Background(), config.TRACE_ID_KEY, "test-trace")
}

func chunkWithVector(id string, index int, vec []float32) docModel.Chunk {
	return docModel.Chunk{
		Id:         id,
		DocumentId: "doc-1",
		TenantId:   "clinic-a",
		Category:   docModel.CategoryGeneral,
		Index:      index,
		Content:    "content " + id,
		Embedding:  vec,
	}
}

func TestSearch_RanksByCosine(t *testing.T) {
	source := &MockSource{
		OnCandidates: func(ctx context.Context, _ []float32, tenantId string, _ docModel.Category, _ int) ([]docModel.Chunk, error) {
			return []docModel.Chunk{
				chunkWithVector("far", 0, []float32{0, 1, 0}),
				chunkWithVector("near", 1, []float32{1, 0.1, 0}),
				chunkWithVector("exact", 2, []float32{1, 0, 0}),
			}, nil
		},
	}
	s := retrieval.NewService(&MockEmbedder{}, source, docStore.InitInMemoryDocStore())

	matches, err := s.Search(testCtx(), "clinic-a", "ashwagandha dosing", retrieval.Options{Limit: 2, Threshold: 0.5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].ChunkIndex != 2 {
		t.Errorf("best match should be the exact chunk, got index %d", matches[0].ChunkIndex)
	}
	if matches[0].Score < matches[1].Score {
		t.Error("matches must be sorted by descending score")
	}
}

func TestSearch_EmptyCandidatesIsEmptyResult(t *testing.T) {
	source := &MockSource{
		OnCandidates: func(ctx context.Context, _ []float32, _ string, _ docModel.Category, _ int) ([]docModel.Chunk, error) {
			return nil, nil
		},
	}
	s := retrieval.NewService(&MockEmbedder{}, source, docStore.InitInMemoryDocStore())

	matches, err := s.Search(testCtx(), "clinic-a", "anything", retrieval.DefaultOptions())
	if err != nil {
		t.Fatalf("empty corpus must not be an error, got %v", err)
	}
	if matches == nil || len(matches) != 0 {
		t.Errorf("expected empty non-nil result, got %v", matches)
	}
}

func TestSearch_ThresholdFiltersWeakMatches(t *testing.T) {
	source := &MockSource{
		OnCandidates: func(ctx context.Context, _ []float32, _ string, _ docModel.Category, _ int) ([]docModel.Chunk, error) {
			return []docModel.Chunk{
				chunkWithVector("orthogonal", 0, []float32{0, 1, 0}),
				chunkWithVector("aligned", 1, []float32{1, 0, 0}),
			}, nil
		},
	}
	s := retrieval.NewService(&MockEmbedder{}, source, docStore.InitInMemoryDocStore())

	strict, err := s.Search(testCtx(), "clinic-a", "q", retrieval.Options{Limit: 10, Threshold: 0.9})
	if err != nil {
		t.Fatal(err)
	}
	loose, err := s.Search(testCtx(), "clinic-a", "q", retrieval.Options{Limit: 10, Threshold: 0})
	if err != nil {
		t.Fatal(err)
	}
	if len(strict) != 1 {
		t.Errorf("strict threshold should keep only the aligned chunk, got %d", len(strict))
	}
	if len(loose) < len(strict) {
		t.Error("lowering the threshold must never shrink the result")
	}
}

func TestSearch_InvalidParameters(t *testing.T) {
	s := retrieval.NewService(&MockEmbedder{}, &MockSource{}, docStore.InitInMemoryDocStore())

	tests := []struct {
		name     string
		tenantId string
		query    string
		opts     retrieval.Options
	}{
		{"missing tenant", "", "q", retrieval.DefaultOptions()},
		{"blank query", "clinic-a", "   ", retrieval.DefaultOptions()},
		{"zero limit", "clinic-a", "q", retrieval.Options{Limit: 0, Threshold: 0.5}},
		{"negative limit", "clinic-a", "q", retrieval.Options{Limit: -3, Threshold: 0.5}},
		{"threshold above one", "clinic-a", "q", retrieval.Options{Limit: 5, Threshold: 1.5}},
		{"threshold below minus one", "clinic-a", "q", retrieval.Options{Limit: 5, Threshold: -2}},
		{"unknown category", "clinic-a", "q", retrieval.Options{Limit: 5, Threshold: 0.5, Category: "astrology"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Search(testCtx(), tt.tenantId, tt.query, tt.opts)
			if err == nil {
				t.Fatal("expected error")
			}
			if !faults.IsKind(err, faults.InvalidParameter) {
				t.Errorf("expected InvalidParameter, got %v", faults.KindOf(err))
			}
		})
	}
}

func TestSearch_OversizedQueryRejected(t *testing.T) {
	s := retrieval.NewService(&MockEmbedder{}, &MockSource{}, docStore.InitInMemoryDocStore())

	query := strings.Repeat("x", config.MaxEmbedInputChars+1)
	_, err := s.Search(testCtx(), "clinic-a", query, retrieval.DefaultOptions())
	if !faults.IsKind(err, faults.InputTooLarge) {
		t.Errorf("expected InputTooLarge, got %v", err)
	}
}

func TestSearch_EmbedderFailurePropagates(t *testing.T) {
	embedder := &MockEmbedder{
		OnEmbed: func(ctx context.Context, text string) ([]float32, error) {
			return nil, errors.New("provider down")
		},
	}
	s := retrieval.NewService(embedder, &MockSource{}, docStore.InitInMemoryDocStore())

	_, err := s.Search(testCtx(), "clinic-a", "q", retrieval.DefaultOptions())
	if err == nil {
		t.Fatal("expected embedder failure to propagate")
	}
}

func TestStoreSource_TenantVisibility(t *testing.T) {
	ctx := testCtx()
	store := docStore.InitInMemoryDocStore()

	seed := func(tenantId, docId string) {
		doc := docModel.Document{
			Id: docId, TenantId: tenantId,
			Category: docModel.CategoryGeneral,
			Status:   docModel.StatusPending,
		}
		if err := store.CreateDocument(ctx, doc); err != nil {
			t.Fatal(err)
		}
		chunk := docModel.Chunk{
			Id: docId + "-c0", DocumentId: docId, TenantId: tenantId,
			Category: docModel.CategoryGeneral, Index: 0,
			Content: "text", Embedding: []float32{1, 0, 0},
		}
		if err := store.AppendChunks(ctx, tenantId, docId, []docModel.Chunk{chunk}); err != nil {
			t.Fatal(err)
		}
		if err := store.UpdateStatus(ctx, tenantId, docId, docModel.StatusProcessing, nil); err != nil {
			t.Fatal(err)
		}
		if err := store.UpdateStatus(ctx, tenantId, docId, docModel.StatusCompleted, nil); err != nil {
			t.Fatal(err)
		}
	}
	seed("clinic-a", "own")
	seed("clinic-b", "foreign")
	seed(docModel.TenantGlobal, "shared")

	source := retrieval.NewStoreSource(store)
	chunks, err := source.Candidates(ctx, nil, "clinic-a", "", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected own plus global chunks, got %d", len(chunks))
	}
	for _, c := range chunks {
		if c.TenantId == "clinic-b" {
			t.Error("foreign tenant chunk leaked into candidate set")
		}
	}
}
