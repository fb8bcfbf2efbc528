package docStore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/clinicore/docrag/internal/domain/docModel"
	"github.com/clinicore/docrag/internal/domain/faults"
	"github.com/clinicore/docrag/pkg/logger_i"
)

// InMemoryDocStore is the fallback and test implementation. All
// mutation happens under one mutex scoped to a single operation; no
// lock is ever held across external I/O because there is none.
type InMemoryDocStore struct {
	mu     sync.RWMutex
	docs   map[string]map[string]docModel.Document // tenantId -> documentId -> doc
	chunks map[string][]docModel.Chunk             // documentId -> chunks
	logger *logger_i.Logger
}

func InitInMemoryDocStore() *InMemoryDocStore {
	return &InMemoryDocStore{
		docs:   make(map[string]map[string]docModel.Document),
		chunks: make(map[string][]docModel.Chunk),
		logger: logger_i.NewLogger("InMem DocStore"),
	}
}

func (s *InMemoryDocStore) CreateDocument(ctx context.Context, doc docModel.Document) error {
	if doc.TenantId == "" || doc.Id == "" {
		return faults.New(faults.InvalidParameter, "document requires tenant id and id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tenant := s.docs[doc.TenantId]
	if tenant == nil {
		tenant = make(map[string]docModel.Document)
		s.docs[doc.TenantId] = tenant
	}
	if _, exists := tenant[doc.Id]; exists {
		return faults.Newf(faults.StoreWrite, "document %s already exists", doc.Id)
	}
	tenant[doc.Id] = doc
	return nil
}

func (s *InMemoryDocStore) GetDocument(ctx context.Context, tenantId, documentId string) (docModel.Document, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, found := s.docs[tenantId][documentId]
	return doc, found, nil
}

func (s *InMemoryDocStore) UpdateStatus(ctx context.Context, tenantId, documentId string, status docModel.Status, result *ProcessingResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, found := s.docs[tenantId][documentId]
	if !found {
		return faults.Newf(faults.StoreWrite, "document %s not found for tenant", documentId)
	}
	if !docModel.CanTransition(doc.Status, status) {
		return faults.Newf(faults.StoreWrite, "illegal status transition %s -> %s for document %s", doc.Status, status, documentId)
	}

	doc.Status = status
	doc.UpdatedAt = time.Now()
	applyResult(&doc, result)
	s.docs[tenantId][documentId] = doc
	return nil
}

func applyResult(doc *docModel.Document, result *ProcessingResult) {
	if result == nil {
		return
	}
	doc.ChunkCount = result.ChunkCount
	doc.AvgChunkSize = result.AvgChunkSize
	doc.ProcessingMS = result.Duration.Milliseconds()
	doc.ErrorMessage = result.ErrorMessage
	if result.EmbeddingModel != "" {
		doc.EmbeddingModel = result.EmbeddingModel
	}
	if result.ExtractedText != "" {
		doc.ExtractedText = result.ExtractedText
	}
}

func (s *InMemoryDocStore) AppendChunks(ctx context.Context, tenantId, documentId string, chunks []docModel.Chunk) error {
	if err := validateChunkSet(documentId, chunks); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.docs[tenantId][documentId]; !found {
		return faults.Newf(faults.StoreWrite, "document %s not found for tenant", documentId)
	}
	if len(s.chunks[documentId]) > 0 {
		return faults.Newf(faults.StoreWrite, "document %s already has chunks", documentId)
	}
	s.chunks[documentId] = append([]docModel.Chunk(nil), chunks...)
	return nil
}

// validateChunkSet guards the chunk invariants: contiguous 0-based
// ordinals and a constant embedding dimensionality.
func validateChunkSet(documentId string, chunks []docModel.Chunk) error {
	if len(chunks) == 0 {
		return faults.New(faults.StoreWrite, "refusing to append an empty chunk set")
	}
	dim := len(chunks[0].Embedding)
	for i, c := range chunks {
		if c.Index != i {
			return faults.Newf(faults.StoreWrite, "chunk ordinals not contiguous: position %d has index %d", i, c.Index)
		}
		if c.DocumentId != documentId {
			return faults.Newf(faults.StoreWrite, "chunk %d belongs to document %s, not %s", i, c.DocumentId, documentId)
		}
		if len(c.Embedding) != dim {
			return faults.Newf(faults.DimensionMismatch, "chunk %d has %d dims, chunk 0 has %d", i, len(c.Embedding), dim)
		}
	}
	return nil
}

func (s *InMemoryDocStore) DeleteChunks(ctx context.Context, tenantId, documentId string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.docs[tenantId][documentId]; !found {
		return faults.Newf(faults.StoreWrite, "document %s not found for tenant", documentId)
	}
	delete(s.chunks, documentId)
	return nil
}

func (s *InMemoryDocStore) DeleteDocument(ctx context.Context, tenantId, documentId string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.docs[tenantId][documentId]; !found {
		return false, nil
	}
	delete(s.docs[tenantId], documentId)
	delete(s.chunks, documentId)
	return true, nil
}

func (s *InMemoryDocStore) ListDocuments(ctx context.Context, tenantId string, filters ListFilters, page PageRequest) (DocumentPage, error) {
	if err := validatePage(page); err != nil {
		return DocumentPage{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []docModel.Document
	for _, doc := range s.docs[tenantId] {
		if filters.Category != "" && doc.Category != filters.Category {
			continue
		}
		if filters.Status != "" && doc.Status != filters.Status {
			continue
		}
		matched = append(matched, doc)
	}
	sortDocuments(matched)
	return paginate(matched, page), nil
}

func validatePage(page PageRequest) error {
	if page.Page < 1 || page.PageSize < 1 {
		return faults.Newf(faults.InvalidParameter, "invalid pagination: page %d size %d", page.Page, page.PageSize)
	}
	return nil
}

func sortDocuments(docs []docModel.Document) {
	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].CreatedAt.After(docs[j].CreatedAt)
		}
		return docs[i].Id < docs[j].Id
	})
}

func paginate(docs []docModel.Document, page PageRequest) DocumentPage {
	total := len(docs)
	start := (page.Page - 1) * page.PageSize
	if start > total {
		start = total
	}
	end := start + page.PageSize
	if end > total {
		end = total
	}
	return DocumentPage{
		Documents:  docs[start:end],
		TotalCount: total,
		Page:       page.Page,
		PageSize:   page.PageSize,
	}
}

func (s *InMemoryDocStore) GetCandidateChunks(ctx context.Context, tenantId string, category docModel.Category) ([]docModel.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tenants := []string{tenantId}
	if tenantId != docModel.TenantGlobal {
		tenants = append(tenants, docModel.TenantGlobal)
	}

	var candidates []docModel.Chunk
	for _, tenant := range tenants {
		for docId, doc := range s.docs[tenant] {
			if doc.Status != docModel.StatusCompleted {
				continue
			}
			if category != "" && doc.Category != category {
				continue
			}
			candidates = append(candidates, s.chunks[docId]...)
		}
	}
	return candidates, nil
}

func (s *InMemoryDocStore) GetStats(ctx context.Context, tenantId string) (TenantStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := TenantStats{
		ByStatus:   make(map[docModel.Status]int),
		ByCategory: make(map[docModel.Category]int),
	}
	for docId, doc := range s.docs[tenantId] {
		stats.TotalDocuments++
		stats.ByStatus[doc.Status]++
		stats.ByCategory[doc.Category]++
		stats.TotalChunks += len(s.chunks[docId])
	}
	return stats, nil
}

func (s *InMemoryDocStore) FindActiveDuplicate(ctx context.Context, tenantId, contentHash string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for docId, doc := range s.docs[tenantId] {
		if doc.ContentHash == contentHash && doc.Status != docModel.StatusError {
			return docId, true, nil
		}
	}
	return "", false, nil
}

func (s *InMemoryDocStore) ListStaleProcessing(ctx context.Context, cutoff time.Time) ([]docModel.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stale []docModel.Document
	for _, tenant := range s.docs {
		for _, doc := range tenant {
			if doc.Status == docModel.StatusProcessing && doc.UpdatedAt.Before(cutoff) {
				stale = append(stale, doc)
			}
		}
	}
	return stale, nil
}

func (s *InMemoryDocStore) Close() error {
	return nil
}
