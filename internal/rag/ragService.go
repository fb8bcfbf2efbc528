package rag

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/clinicore/docrag/internal/adapter/utils"
	"github.com/clinicore/docrag/internal/config"
	"github.com/clinicore/docrag/internal/data/docStore"
	"github.com/clinicore/docrag/internal/domain/docModel"
	"github.com/clinicore/docrag/internal/domain/faults"
	"github.com/clinicore/docrag/internal/rag/extract"
	"github.com/clinicore/docrag/internal/rag/pipeline"
	"github.com/clinicore/docrag/internal/rag/retrieval"
	"github.com/clinicore/docrag/internal/rag/vectorDB"
	"github.com/clinicore/docrag/internal/storage"
	"github.com/clinicore/docrag/pkg/logger_i"
)

// IngestRequest carries one upload. Data is read fully during
// IngestDocument; the pipeline later works from object storage.
type IngestRequest struct {
	TenantId   string
	UploaderId string
	Category   docModel.Category
	FileName   string
	MediaType  string
	Data       io.Reader
	Size       int64
}

// Service is the public contract. Handlers and workers depend on this
// interface only, so the store, embedder and index stay swappable in
// tests.
type Service interface {
	// IngestDocument validates and records the upload, leaving the
	// document pending. RunIngestion does the heavy lifting later.
	IngestDocument(ctx context.Context, req IngestRequest) (string, error)
	RunIngestion(ctx context.Context, tenantId, documentId string) error
	ReprocessDocument(ctx context.Context, tenantId, documentId string) error
	DeleteDocument(ctx context.Context, tenantId, documentId string) (bool, error)
	GetDocument(ctx context.Context, tenantId, documentId string) (docModel.Document, bool, error)
	ListDocuments(ctx context.Context, tenantId string, filters docStore.ListFilters, page docStore.PageRequest) (docStore.DocumentPage, error)
	Search(ctx context.Context, tenantId, query string, opts retrieval.Options) ([]retrieval.Match, error)
	Stats(ctx context.Context, tenantId string) (docStore.TenantStats, error)
}

type service struct {
	store     docStore.Store
	objects   storage.ObjectStore
	pipeline  *pipeline.Pipeline
	retrieval *retrieval.Service
	index     vectorDB.Index //optional
	logger    *logger_i.Logger
}

// NewService constructor
func NewService(store docStore.Store, objects storage.ObjectStore, pipe *pipeline.Pipeline, retr *retrieval.Service, index vectorDB.Index) Service {
	return &service{
		store:     store,
		objects:   objects,
		pipeline:  pipe,
		retrieval: retr,
		index:     index,
		logger:    logger_i.NewLogger("RAG Service :"),
	}
}

func (s *service) IngestDocument(ctx context.Context, req IngestRequest) (string, error) {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "tenantId", req.TenantId)

	if req.TenantId == "" {
		return "", faults.New(faults.InvalidParameter, "tenant id is required")
	}
	if !docModel.ValidCategory(req.Category) {
		return "", faults.Newf(faults.InvalidParameter, "unknown category %q", req.Category)
	}
	if req.FileName == "" {
		return "", faults.New(faults.InvalidParameter, "file name is required")
	}
	if req.Size > config.MaxUploadBytes {
		return "", faults.Newf(faults.FileTooLarge, "upload is %d bytes, limit is %d", req.Size, config.MaxUploadBytes)
	}
	if _, err := extract.ResolveKind(req.FileName, req.MediaType); err != nil {
		return "", err
	}

	// The declared size is advisory; the read enforces the cap.
	data, err := io.ReadAll(io.LimitReader(req.Data, config.MaxUploadBytes+1))
	if err != nil {
		return "", faults.Wrap(faults.StoreWrite, "reading upload body", err)
	}
	if int64(len(data)) > config.MaxUploadBytes {
		return "", faults.Newf(faults.FileTooLarge, "upload exceeds %d byte limit", config.MaxUploadBytes)
	}
	if len(data) == 0 {
		return "", faults.New(faults.InvalidParameter, "upload is empty")
	}

	// The dedupe key covers filename and content: the same file twice
	// is a duplicate, the same bytes under a new name is a new document.
	hasher := sha256.New()
	hasher.Write([]byte(req.FileName))
	hasher.Write([]byte{0})
	hasher.Write(data)
	contentHash := hex.EncodeToString(hasher.Sum(nil))

	if dupId, found, err := s.store.FindActiveDuplicate(ctx, req.TenantId, contentHash); err != nil {
		return "", err
	} else if found {
		return "", faults.Newf(faults.DuplicateDocument, "identical content already ingested as document %s", dupId)
	}

	documentId := utils.GetNewUUID()
	objectKey := fmt.Sprintf("uploads/%s/%s", req.TenantId, documentId)
	now := time.Now()

	if err := s.objects.Put(ctx, objectKey, bytes.NewReader(data), int64(len(data)), req.MediaType); err != nil {
		return "", faults.Wrap(faults.StoreWrite, "storing upload", err)
	}

	doc := docModel.Document{
		Id:          documentId,
		TenantId:    req.TenantId,
		UploaderId:  req.UploaderId,
		Category:    req.Category,
		FileName:    req.FileName,
		FileSize:    int64(len(data)),
		MediaType:   req.MediaType,
		ObjectKey:   objectKey,
		ContentHash: contentHash,
		Status:      docModel.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateDocument(ctx, doc); err != nil {
		// The orphaned object is harmless; remove it anyway.
		_ = s.objects.Delete(ctx, objectKey)
		return "", err
	}

	log.Info("document accepted", "documentId", documentId, "fileName", req.FileName, "bytes", len(data))
	return documentId, nil
}

func (s *service) RunIngestion(ctx context.Context, tenantId, documentId string) error {
	return s.pipeline.Run(ctx, tenantId, documentId)
}

func (s *service) ReprocessDocument(ctx context.Context, tenantId, documentId string) error {
	if tenantId == "" {
		return faults.New(faults.InvalidParameter, "tenant id is required")
	}
	return s.pipeline.Reprocess(ctx, tenantId, documentId)
}

func (s *service) DeleteDocument(ctx context.Context, tenantId, documentId string) (bool, error) {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "tenantId", tenantId, "documentId", documentId)

	if tenantId == "" {
		return false, faults.New(faults.InvalidParameter, "tenant id is required")
	}

	doc, found, err := s.store.GetDocument(ctx, tenantId, documentId)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}

	deleted, err := s.store.DeleteDocument(ctx, tenantId, documentId)
	if err != nil || !deleted {
		return deleted, err
	}

	// Store truth is gone; scrub the accelerator and the raw upload.
	if s.index != nil {
		if err := s.index.DeleteDocument(ctx, tenantId, documentId); err != nil {
			log.Error("vector index cleanup failed after delete", "error", err)
		}
	}
	if doc.ObjectKey != "" {
		if err := s.objects.Delete(ctx, doc.ObjectKey); err != nil {
			log.Error("object storage cleanup failed after delete", "error", err)
		}
	}

	log.Info("document deleted")
	return true, nil
}

func (s *service) GetDocument(ctx context.Context, tenantId, documentId string) (docModel.Document, bool, error) {
	if tenantId == "" {
		return docModel.Document{}, false, faults.New(faults.InvalidParameter, "tenant id is required")
	}
	return s.store.GetDocument(ctx, tenantId, documentId)
}

func (s *service) ListDocuments(ctx context.Context, tenantId string, filters docStore.ListFilters, page docStore.PageRequest) (docStore.DocumentPage, error) {
	if tenantId == "" {
		return docStore.DocumentPage{}, faults.New(faults.InvalidParameter, "tenant id is required")
	}
	if filters.Category != "" && !docModel.ValidCategory(filters.Category) {
		return docStore.DocumentPage{}, faults.Newf(faults.InvalidParameter, "unknown category %q", filters.Category)
	}
	return s.store.ListDocuments(ctx, tenantId, filters, page)
}

func (s *service) Search(ctx context.Context, tenantId, query string, opts retrieval.Options) ([]retrieval.Match, error) {
	return s.retrieval.Search(ctx, tenantId, query, opts)
}

func (s *service) Stats(ctx context.Context, tenantId string) (docStore.TenantStats, error) {
	return s.retrieval.Stats(ctx, tenantId)
}
