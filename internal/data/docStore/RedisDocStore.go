package docStore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/clinicore/docrag/internal/config"
	"github.com/clinicore/docrag/internal/data/redisStore"
	"github.com/clinicore/docrag/internal/domain/docModel"
	"github.com/clinicore/docrag/internal/domain/faults"
	"github.com/clinicore/docrag/pkg/logger_i"
)

// RedisDocStore keys:
//
//	doc:{tenant}:{id}     JSON document
//	docs:{tenant}         set of document ids
//	chunks:{tenant}:{id}  JSON array, written as one value so the
//	                      append is all-or-nothing
//	hash:{tenant}:{sha}   duplicate-suppression claim -> document id
//	tenants               set of tenant ids, for the stale reaper
type RedisDocStore struct {
	store  *redisStore.Store
	logger *logger_i.Logger
}

func OpenRedisDocStore(ctx context.Context, addr string) (*RedisDocStore, error) {
	store, err := redisStore.Open(ctx, addr, config.RedisDocumentDB)
	if err != nil {
		return nil, err
	}
	return &RedisDocStore{
		store:  store,
		logger: logger_i.NewLogger("Redis DocStore"),
	}, nil
}

// TestRedisDocStore wires a miniredis-backed wrapper.
func TestRedisDocStore(store *redisStore.Store) *RedisDocStore {
	return &RedisDocStore{
		store:  store,
		logger: logger_i.NewLogger("Redis DocStore (test)"),
	}
}

func docKey(tenantId, documentId string) string {
	return fmt.Sprintf("doc:%s:%s", tenantId, documentId)
}

func docSetKey(tenantId string) string {
	return fmt.Sprintf("docs:%s", tenantId)
}

func chunksKey(tenantId, documentId string) string {
	return fmt.Sprintf("chunks:%s:%s", tenantId, documentId)
}

func hashKey(tenantId, contentHash string) string {
	return fmt.Sprintf("hash:%s:%s", tenantId, contentHash)
}

const tenantsKey = "tenants"

func (s *RedisDocStore) CreateDocument(ctx context.Context, doc docModel.Document) error {
	if doc.TenantId == "" || doc.Id == "" {
		return faults.New(faults.InvalidParameter, "document requires tenant id and id")
	}
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "documentId", doc.Id)

	if doc.ContentHash != "" {
		claimed, err := s.store.SetNX(ctx, hashKey(doc.TenantId, doc.ContentHash), doc.Id)
		if err != nil {
			return faults.Wrap(faults.StoreWrite, "claiming content hash", err)
		}
		if !claimed {
			return faults.Newf(faults.DuplicateDocument, "content hash %s already claimed for tenant", doc.ContentHash)
		}
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return faults.Wrap(faults.StoreWrite, "marshalling document", err)
	}

	pipe := s.store.TxPipeline()
	pipe.Set(ctx, docKey(doc.TenantId, doc.Id), data, 0)
	pipe.SAdd(ctx, docSetKey(doc.TenantId), doc.Id)
	pipe.SAdd(ctx, tenantsKey, doc.TenantId)
	if _, err := pipe.Exec(ctx); err != nil {
		return faults.Wrap(faults.StoreWrite, "writing document", err)
	}
	log.Debug("created document")
	return nil
}

func (s *RedisDocStore) GetDocument(ctx context.Context, tenantId, documentId string) (docModel.Document, bool, error) {
	var doc docModel.Document
	val, err := s.store.Get(ctx, docKey(tenantId, documentId))
	if s.store.IsNil(err) {
		return doc, false, nil
	}
	if err != nil {
		return doc, false, faults.Wrap(faults.StoreWrite, "reading document", err)
	}
	if err := json.Unmarshal([]byte(val), &doc); err != nil {
		return doc, false, faults.Wrap(faults.StoreWrite, "unmarshalling document", err)
	}
	return doc, true, nil
}

func (s *RedisDocStore) UpdateStatus(ctx context.Context, tenantId, documentId string, status docModel.Status, result *ProcessingResult) error {
	doc, found, err := s.GetDocument(ctx, tenantId, documentId)
	if err != nil {
		return err
	}
	if !found {
		return faults.Newf(faults.StoreWrite, "document %s not found for tenant", documentId)
	}
	if !docModel.CanTransition(doc.Status, status) {
		return faults.Newf(faults.StoreWrite, "illegal status transition %s -> %s for document %s", doc.Status, status, documentId)
	}

	doc.Status = status
	doc.UpdatedAt = time.Now()
	applyResult(&doc, result)

	data, err := json.Marshal(doc)
	if err != nil {
		return faults.Wrap(faults.StoreWrite, "marshalling document", err)
	}

	pipe := s.store.TxPipeline()
	pipe.Set(ctx, docKey(tenantId, documentId), data, 0)
	if doc.ContentHash != "" {
		switch status {
		case docModel.StatusError:
			// An errored document no longer blocks a re-upload.
			pipe.Del(ctx, hashKey(tenantId, doc.ContentHash))
		case docModel.StatusPending:
			// A retry out of error takes the claim back.
			pipe.SetNX(ctx, hashKey(tenantId, doc.ContentHash), doc.Id, 0)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return faults.Wrap(faults.StoreWrite, "updating document status", err)
	}
	return nil
}

func (s *RedisDocStore) AppendChunks(ctx context.Context, tenantId, documentId string, chunks []docModel.Chunk) error {
	if err := validateChunkSet(documentId, chunks); err != nil {
		return err
	}
	if _, found, err := s.GetDocument(ctx, tenantId, documentId); err != nil {
		return err
	} else if !found {
		return faults.Newf(faults.StoreWrite, "document %s not found for tenant", documentId)
	}

	data, err := json.Marshal(chunks)
	if err != nil {
		return faults.Wrap(faults.StoreWrite, "marshalling chunks", err)
	}

	// One SETNX for the whole set: either every chunk lands or none.
	written, err := s.store.SetNX(ctx, chunksKey(tenantId, documentId), data)
	if err != nil {
		return faults.Wrap(faults.StoreWrite, "writing chunks", err)
	}
	if !written {
		return faults.Newf(faults.StoreWrite, "document %s already has chunks", documentId)
	}
	return nil
}

func (s *RedisDocStore) DeleteChunks(ctx context.Context, tenantId, documentId string) error {
	if err := s.store.Del(ctx, chunksKey(tenantId, documentId)); err != nil {
		return faults.Wrap(faults.StoreWrite, "deleting chunks", err)
	}
	return nil
}

func (s *RedisDocStore) DeleteDocument(ctx context.Context, tenantId, documentId string) (bool, error) {
	doc, found, err := s.GetDocument(ctx, tenantId, documentId)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}

	pipe := s.store.TxPipeline()
	pipe.Del(ctx, docKey(tenantId, documentId))
	pipe.Del(ctx, chunksKey(tenantId, documentId))
	pipe.SRem(ctx, docSetKey(tenantId), documentId)
	if doc.ContentHash != "" {
		pipe.Del(ctx, hashKey(tenantId, doc.ContentHash))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return false, faults.Wrap(faults.StoreWrite, "deleting document", err)
	}
	return true, nil
}

func (s *RedisDocStore) listTenantDocuments(ctx context.Context, tenantId string) ([]docModel.Document, error) {
	ids, err := s.store.SMembers(ctx, docSetKey(tenantId))
	if err != nil {
		return nil, faults.Wrap(faults.StoreWrite, "listing document ids", err)
	}

	docs := make([]docModel.Document, 0, len(ids))
	for _, id := range ids {
		doc, found, err := s.GetDocument(ctx, tenantId, id)
		if err != nil {
			return nil, err
		}
		if found {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

func (s *RedisDocStore) ListDocuments(ctx context.Context, tenantId string, filters ListFilters, page PageRequest) (DocumentPage, error) {
	if err := validatePage(page); err != nil {
		return DocumentPage{}, err
	}

	docs, err := s.listTenantDocuments(ctx, tenantId)
	if err != nil {
		return DocumentPage{}, err
	}

	matched := docs[:0]
	for _, doc := range docs {
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

func (s *RedisDocStore) GetCandidateChunks(ctx context.Context, tenantId string, category docModel.Category) ([]docModel.Chunk, error) {
	tenants := []string{tenantId}
	if tenantId != docModel.TenantGlobal {
		tenants = append(tenants, docModel.TenantGlobal)
	}

	var candidates []docModel.Chunk
	for _, tenant := range tenants {
		docs, err := s.listTenantDocuments(ctx, tenant)
		if err != nil {
			return nil, err
		}
		for _, doc := range docs {
			if doc.Status != docModel.StatusCompleted {
				continue
			}
			if category != "" && doc.Category != category {
				continue
			}
			chunks, err := s.getChunks(ctx, tenant, doc.Id)
			if err != nil {
				return nil, err
			}
			candidates = append(candidates, chunks...)
		}
	}
	return candidates, nil
}

func (s *RedisDocStore) getChunks(ctx context.Context, tenantId, documentId string) ([]docModel.Chunk, error) {
	val, err := s.store.Get(ctx, chunksKey(tenantId, documentId))
	if s.store.IsNil(err) {
		return nil, nil
	}
	if err != nil {
		return nil, faults.Wrap(faults.StoreWrite, "reading chunks", err)
	}
	var chunks []docModel.Chunk
	if err := json.Unmarshal([]byte(val), &chunks); err != nil {
		return nil, faults.Wrap(faults.StoreWrite, "unmarshalling chunks", err)
	}
	return chunks, nil
}

func (s *RedisDocStore) GetStats(ctx context.Context, tenantId string) (TenantStats, error) {
	docs, err := s.listTenantDocuments(ctx, tenantId)
	if err != nil {
		return TenantStats{}, err
	}

	stats := TenantStats{
		ByStatus:   make(map[docModel.Status]int),
		ByCategory: make(map[docModel.Category]int),
	}
	for _, doc := range docs {
		stats.TotalDocuments++
		stats.ByStatus[doc.Status]++
		stats.ByCategory[doc.Category]++
		chunks, err := s.getChunks(ctx, tenantId, doc.Id)
		if err != nil {
			return TenantStats{}, err
		}
		stats.TotalChunks += len(chunks)
	}
	return stats, nil
}

func (s *RedisDocStore) FindActiveDuplicate(ctx context.Context, tenantId, contentHash string) (string, bool, error) {
	val, err := s.store.Get(ctx, hashKey(tenantId, contentHash))
	if s.store.IsNil(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, faults.Wrap(faults.StoreWrite, "reading content hash claim", err)
	}
	return val, true, nil
}

func (s *RedisDocStore) ListStaleProcessing(ctx context.Context, cutoff time.Time) ([]docModel.Document, error) {
	tenants, err := s.store.SMembers(ctx, tenantsKey)
	if err != nil {
		return nil, faults.Wrap(faults.StoreWrite, "listing tenants", err)
	}

	var stale []docModel.Document
	for _, tenant := range tenants {
		docs, err := s.listTenantDocuments(ctx, tenant)
		if err != nil {
			return nil, err
		}
		for _, doc := range docs {
			if doc.Status == docModel.StatusProcessing && doc.UpdatedAt.Before(cutoff) {
				stale = append(stale, doc)
			}
		}
	}
	return stale, nil
}

func (s *RedisDocStore) Close() error {
	return s.store.Close()
}
