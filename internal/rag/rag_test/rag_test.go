package rag_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/clinicore/docrag/internal/config"
	"github.com/clinicore/docrag/internal/data/docStore"
	"github.com/clinicore/docrag/internal/domain/docModel"
	"github.com/clinicore/docrag/internal/domain/faults"
	"github.com/clinicore/docrag/internal/rag"
	"github.com/clinicore/docrag/internal/rag/extract"
	"github.com/clinicore/docrag/internal/rag/pipeline"
	"github.com/clinicore/docrag/internal/rag/retrieval"
	"github.com/clinicore/docrag/internal/storage"
)

// MockEmbedder maps text deterministically onto a tiny vector space so
// round-trip searches have predictable winners.
type MockEmbedder struct{}

func embedText(text string) []float32 {
	switch {
	case strings.Contains(text, "ashwagandha"):
		return []float32{1, 0, 0}
	case strings.Contains(text, "vitamin"):
		return []float32{0, 1, 0}
	default:
		return []float32{0, 0, 1}
	}
}

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return embedText(text), nil
}

func (m *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = embedText(t)
	}
	return out, nil
}

func (m *MockEmbedder) ModelId() string { return "mock-embedder" }
func (m *MockEmbedder) Dimension() int  { return 3 }

func newService(t *testing.T) rag.Service {
	t.Helper()
	store := docStore.InitInMemoryDocStore()
	objects := storage.NewMemoryStore()
	embedder := &MockEmbedder{}

	pipe := pipeline.New(store, embedder, objects, extract.NewExtractor(nil), nil, pipeline.ChunkOptions{Size: 200, Overlap: 20})
	retr := retrieval.NewService(embedder, retrieval.NewStoreSource(store), store)
	return rag.NewService(store, objects, pipe, retr, nil)
}

func testCtx() context.Context {
	return context.WithValue(context.Background(), config.TRACE_ID_KEY, "test-trace")
}

func upload(tenantId, fileName, content string) rag.IngestRequest {
	return rag.IngestRequest{
		TenantId:   tenantId,
		UploaderId: "practitioner-1",
		Category:   docModel.CategoryPhytotherapy,
		FileName:   fileName,
		MediaType:  "text/plain",
		Data:       bytes.NewReader([]byte(content)),
		Size:       int64(len(content)),
	}
}

func TestIngestDocument_Validation(t *testing.T) {
	s := newService(t)
	ctx := testCtx()

	tests := []struct {
		name     string
		mutate   func(r *rag.IngestRequest)
		wantKind faults.Kind
	}{
		{
			name:     "missing tenant",
			mutate:   func(r *rag.IngestRequest) { r.TenantId = "" },
			wantKind: faults.InvalidParameter,
		},
		{
			name:     "unknown category",
			mutate:   func(r *rag.IngestRequest) { r.Category = "astrology" },
			wantKind: faults.InvalidParameter,
		},
		{
			name:     "missing file name",
			mutate:   func(r *rag.IngestRequest) { r.FileName = "" },
			wantKind: faults.InvalidParameter,
		},
		{
			name: "declared size over limit",
			mutate: func(r *rag.IngestRequest) {
				r.Size = config.MaxUploadBytes + 1
			},
			wantKind: faults.FileTooLarge,
		},
		{
			name: "unsupported media",
			mutate: func(r *rag.IngestRequest) {
				r.FileName = "labs.xlsx"
				r.MediaType = "application/vnd.ms-excel"
			},
			wantKind: faults.UnsupportedMediaType,
		},
		{
			name: "empty body",
			mutate: func(r *rag.IngestRequest) {
				r.Data = bytes.NewReader(nil)
				r.Size = 0
			},
			wantKind: faults.InvalidParameter,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := upload("clinic-a", "herbs.txt", "ashwagandha monograph")
			tt.mutate(&req)

			_, err := s.IngestDocument(ctx, req)
			if err == nil {
				t.Fatal("expected error")
			}
			if !faults.IsKind(err, tt.wantKind) {
				t.Errorf("expected kind %s, got %v", tt.wantKind, faults.KindOf(err))
			}
		})
	}
}

func TestIngestDocument_DuplicateRejected(t *testing.T) {
	s := newService(t)
	ctx := testCtx()

	if _, err := s.IngestDocument(ctx, upload("clinic-a", "herbs.txt", "ashwagandha monograph")); err != nil {
		t.Fatal(err)
	}
	_, err := s.IngestDocument(ctx, upload("clinic-a", "herbs.txt", "ashwagandha monograph"))
	if !faults.IsKind(err, faults.DuplicateDocument) {
		t.Fatalf("expected DuplicateDocument, got %v", err)
	}

	// Same bytes under a different name are a fresh document.
	if _, err := s.IngestDocument(ctx, upload("clinic-a", "herbs-copy.txt", "ashwagandha monograph")); err != nil {
		t.Errorf("renamed upload should not be blocked: %v", err)
	}

	// Same file under another tenant is a fresh document.
	if _, err := s.IngestDocument(ctx, upload("clinic-b", "herbs.txt", "ashwagandha monograph")); err != nil {
		t.Errorf("other tenant should not be blocked: %v", err)
	}
}

func TestIngestSearchDelete_RoundTrip(t *testing.T) {
	s := newService(t)
	ctx := testCtx()

	herbId, err := s.IngestDocument(ctx, upload("clinic-a", "herbs.txt", "ashwagandha monograph and dosing"))
	if err != nil {
		t.Fatal(err)
	}
	labId, err := s.IngestDocument(ctx, upload("clinic-a", "labs.txt", "vitamin d reference ranges"))
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{herbId, labId} {
		if err := s.RunIngestion(ctx, "clinic-a", id); err != nil {
			t.Fatal(err)
		}
	}

	matches, err := s.Search(ctx, "clinic-a", "ashwagandha interactions", retrieval.Options{Limit: 5, Threshold: 0.5})
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected only the herb document to match, got %d matches", len(matches))
	}
	if matches[0].DocumentId != herbId {
		t.Errorf("expected document %s, got %s", herbId, matches[0].DocumentId)
	}

	deleted, err := s.DeleteDocument(ctx, "clinic-a", herbId)
	if err != nil || !deleted {
		t.Fatalf("delete failed: deleted=%v err=%v", deleted, err)
	}

	matches, err = s.Search(ctx, "clinic-a", "ashwagandha interactions", retrieval.Options{Limit: 5, Threshold: 0.5})
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 0 {
		t.Errorf("deleted document still surfaced in search: %v", matches)
	}

	stats, err := s.Stats(ctx, "clinic-a")
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalDocuments != 1 {
		t.Errorf("expected 1 remaining document, got %d", stats.TotalDocuments)
	}
}

func TestDeleteDocument_MissingIsFalseNotError(t *testing.T) {
	s := newService(t)

	deleted, err := s.DeleteDocument(testCtx(), "clinic-a", "ghost-id")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted {
		t.Error("expected deleted=false for unknown document")
	}
}

func TestListDocuments_FiltersAndTenantScope(t *testing.T) {
	s := newService(t)
	ctx := testCtx()

	if _, err := s.IngestDocument(ctx, upload("clinic-a", "herbs.txt", "ashwagandha monograph")); err != nil {
		t.Fatal(err)
	}
	if _, err := s.IngestDocument(ctx, upload("clinic-b", "labs.txt", "vitamin d ranges")); err != nil {
		t.Fatal(err)
	}

	page, err := s.ListDocuments(ctx, "clinic-a", docStore.ListFilters{}, docStore.PageRequest{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatal(err)
	}
	if page.TotalCount != 1 {
		t.Errorf("expected clinic-a to see 1 document, got %d", page.TotalCount)
	}

	page, err = s.ListDocuments(ctx, "clinic-a", docStore.ListFilters{Status: docModel.StatusPending}, docStore.PageRequest{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatal(err)
	}
	if page.TotalCount != 1 {
		t.Errorf("expected pending filter to match, got %d", page.TotalCount)
	}

	_, err = s.ListDocuments(ctx, "clinic-a", docStore.ListFilters{Category: "astrology"}, docStore.PageRequest{Page: 1, PageSize: 10})
	if !faults.IsKind(err, faults.InvalidParameter) {
		t.Errorf("expected InvalidParameter for unknown category, got %v", err)
	}
}
