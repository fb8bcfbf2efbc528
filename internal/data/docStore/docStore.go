package docStore

import (
	"context"
	"time"

	"github.com/clinicore/docrag/internal/domain/docModel"
)

type ListFilters struct {
	Category docModel.Category
	Status   docModel.Status
}

type PageRequest struct {
	Page     int // 1-based
	PageSize int
}

type DocumentPage struct {
	Documents  []docModel.Document
	TotalCount int
	Page       int
	PageSize   int
}

type TenantStats struct {
	TotalDocuments int                       `json:"total_documents"`
	ByStatus       map[docModel.Status]int   `json:"by_status"`
	ByCategory     map[docModel.Category]int `json:"by_category"`
	TotalChunks    int                       `json:"total_chunks"`
}

// ProcessingResult is the metadata recorded alongside a status
// transition at the end of a pipeline run.
type ProcessingResult struct {
	ChunkCount     int
	AvgChunkSize   int
	EmbeddingModel string
	Duration       time.Duration
	ErrorMessage   string
	ExtractedText  string
}

// Store persists documents and their chunks. Every operation is
// tenant-scoped; an unscoped query is a correctness bug, so the
// tenant id is a required argument everywhere.
type Store interface {
	CreateDocument(ctx context.Context, doc docModel.Document) error
	GetDocument(ctx context.Context, tenantId, documentId string) (docModel.Document, bool, error)

	// UpdateStatus enforces the forward-only lifecycle and merges the
	// optional processing result into the document.
	UpdateStatus(ctx context.Context, tenantId, documentId string, status docModel.Status, result *ProcessingResult) error

	// AppendChunks writes all chunks for a document or none of them.
	AppendChunks(ctx context.Context, tenantId, documentId string, chunks []docModel.Chunk) error
	DeleteChunks(ctx context.Context, tenantId, documentId string) error

	// DeleteDocument removes the document and its chunks as one unit.
	// A missing or foreign document returns false, not an error.
	DeleteDocument(ctx context.Context, tenantId, documentId string) (bool, error)

	ListDocuments(ctx context.Context, tenantId string, filters ListFilters, page PageRequest) (DocumentPage, error)

	// GetCandidateChunks returns the chunks of completed documents
	// owned by the tenant plus the reserved global tenant.
	GetCandidateChunks(ctx context.Context, tenantId string, category docModel.Category) ([]docModel.Chunk, error)

	GetStats(ctx context.Context, tenantId string) (TenantStats, error)

	// FindActiveDuplicate reports a non-error document with the same
	// content hash, used to suppress duplicate uploads.
	FindActiveDuplicate(ctx context.Context, tenantId, contentHash string) (string, bool, error)

	// ListStaleProcessing reports documents stuck in processing since
	// before the cutoff, across all tenants.
	ListStaleProcessing(ctx context.Context, cutoff time.Time) ([]docModel.Document, error)

	Close() error
}
