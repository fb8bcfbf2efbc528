package vectorDB

import (
	"context"

	"github.com/clinicore/docrag/internal/domain/docModel"
)

// Index is an optional ANN accelerator in front of the document store.
// Retrieval re-scores whatever candidates come back, so an index only
// has to be approximately right about which chunks to return.
type Index interface {
	UpsertChunks(ctx context.Context, chunks []docModel.Chunk) error

	// DeleteDocument removes every point belonging to the document so
	// a store-side delete never leaves searchable orphans.
	DeleteDocument(ctx context.Context, tenantId, documentId string) error

	// Candidates returns chunks visible to the tenant, vectors
	// included. Limit caps the ANN fetch, not the final result.
	Candidates(ctx context.Context, queryVector []float32, tenantId string, category docModel.Category, limit int) ([]docModel.Chunk, error)

	Close() error
}
