package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/clinicore/docrag/internal/adapter/utils"
	"github.com/clinicore/docrag/internal/config"
	"github.com/clinicore/docrag/internal/data/docStore"
	"github.com/clinicore/docrag/internal/domain/docModel"
	"github.com/clinicore/docrag/internal/domain/faults"
	"github.com/clinicore/docrag/internal/metrics"
	"github.com/clinicore/docrag/internal/rag/chunker"
	"github.com/clinicore/docrag/internal/rag/embedding"
	"github.com/clinicore/docrag/internal/rag/extract"
	"github.com/clinicore/docrag/internal/rag/vectorDB"
	"github.com/clinicore/docrag/internal/storage"
	"github.com/clinicore/docrag/pkg/logger_i"
)

type ChunkOptions struct {
	Size    int
	Overlap int
}

func DefaultChunkOptions() ChunkOptions {
	return ChunkOptions{
		Size:    config.DefaultChunkSize,
		Overlap: config.DefaultChunkOverlap,
	}
}

// Pipeline drives one document from pending to completed or error.
// The store is the source of truth; the vector index is an
// accelerator that is allowed to lag.
type Pipeline struct {
	store     docStore.Store
	embedder  embedding.Embedder
	objects   storage.ObjectStore
	extractor *extract.Extractor
	index     vectorDB.Index //optional
	chunkOpts ChunkOptions
	logger    *logger_i.Logger
}

func New(store docStore.Store, embedder embedding.Embedder, objects storage.ObjectStore, extractor *extract.Extractor, index vectorDB.Index, chunkOpts ChunkOptions) *Pipeline {
	if chunkOpts.Size <= 0 {
		chunkOpts = DefaultChunkOptions()
	}
	return &Pipeline{
		store:     store,
		embedder:  embedder,
		objects:   objects,
		extractor: extractor,
		index:     index,
		chunkOpts: chunkOpts,
		logger:    logger_i.NewLogger("Ingestion Pipeline"),
	}
}

// Run processes one pending document. The processing transition is the
// durable claim: a second Run on the same document fails there and
// never double-writes chunks.
func (p *Pipeline) Run(ctx context.Context, tenantId, documentId string) error {
	log := p.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "tenantId", tenantId, "documentId", documentId)
	started := time.Now()

	doc, found, err := p.store.GetDocument(ctx, tenantId, documentId)
	if err != nil {
		return err
	}
	if !found {
		return faults.Newf(faults.InvalidParameter, "document %s not found for tenant", documentId)
	}

	if err := p.store.UpdateStatus(ctx, tenantId, documentId, docModel.StatusProcessing, nil); err != nil {
		return err
	}

	runCtx, cancel := context.WithTimeout(ctx, config.IngestionTimeout)
	defer cancel()

	result, err := p.process(runCtx, doc, log)
	elapsed := time.Since(started)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && runCtx.Err() != nil {
			err = faults.Newf(faults.IngestionTimeout, "ingestion exceeded %s ceiling", config.IngestionTimeout)
		}
		p.failDocument(ctx, tenantId, documentId, elapsed, err, log)
		metrics.CountIngestOutcome("error")
		metrics.CaptureIngestMetrics("error", elapsed)
		return err
	}

	result.Duration = elapsed
	if err := p.store.UpdateStatus(ctx, tenantId, documentId, docModel.StatusCompleted, result); err != nil {
		return err
	}

	metrics.CountIngestOutcome("completed")
	metrics.CaptureIngestMetrics("completed", elapsed)
	log.Info("ingestion completed", "chunks", result.ChunkCount, "elapsed", elapsed)
	return nil
}

// Reprocess drops a document's chunks and runs the pipeline again.
// Useful after a chunking-parameter or embedding-model change.
func (p *Pipeline) Reprocess(ctx context.Context, tenantId, documentId string) error {
	log := p.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "tenantId", tenantId, "documentId", documentId)

	doc, found, err := p.store.GetDocument(ctx, tenantId, documentId)
	if err != nil {
		return err
	}
	if !found {
		return faults.Newf(faults.InvalidParameter, "document %s not found for tenant", documentId)
	}
	if doc.Status != docModel.StatusCompleted && doc.Status != docModel.StatusError {
		return faults.Newf(faults.InvalidParameter, "document %s is %s, only completed or error documents can be reprocessed", documentId, doc.Status)
	}

	if err := p.store.DeleteChunks(ctx, tenantId, documentId); err != nil {
		return err
	}
	if p.index != nil {
		// Old points must go before new ones land under fresh ids.
		if err := p.index.DeleteDocument(ctx, tenantId, documentId); err != nil {
			return err
		}
	}
	if err := p.store.UpdateStatus(ctx, tenantId, documentId, docModel.StatusPending, nil); err != nil {
		return err
	}

	log.Info("document reset for reprocessing", "previousStatus", doc.Status)
	return p.Run(ctx, tenantId, documentId)
}

func (p *Pipeline) process(ctx context.Context, doc docModel.Document, log *logger_i.Logger) (*docStore.ProcessingResult, error) {
	pages, extractedText, err := p.loadText(ctx, doc, log)
	if err != nil {
		return nil, err
	}

	chunks, err := p.buildChunks(doc, pages)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, faults.New(faults.IngestionFailed, "document has no extractable text")
	}
	log.Debug("chunking finished", "chunks", len(chunks))

	if err := p.embedChunks(ctx, chunks); err != nil {
		return nil, err
	}

	if err := p.store.AppendChunks(ctx, doc.TenantId, doc.Id, chunks); err != nil {
		return nil, err
	}

	if p.index != nil {
		// Best effort: the store already holds the truth, and the
		// store-backed source keeps search correct meanwhile.
		if err := p.index.UpsertChunks(ctx, chunks); err != nil {
			log.Error("vector index upsert failed, search will fall back to the store", "error", err)
		}
	}

	return &docStore.ProcessingResult{
		ChunkCount:     len(chunks),
		AvgChunkSize:   avgChunkSize(chunks),
		EmbeddingModel: p.embedder.ModelId(),
		ExtractedText:  extractedText,
	}, nil
}

// loadText prefers text retained from an earlier run; otherwise it
// pulls the original upload from object storage and extracts.
func (p *Pipeline) loadText(ctx context.Context, doc docModel.Document, log *logger_i.Logger) ([]extract.Page, string, error) {
	if strings.TrimSpace(doc.ExtractedText) != "" {
		log.Debug("reusing retained extracted text")
		return []extract.Page{{Content: doc.ExtractedText}}, "", nil
	}

	started := time.Now()
	path, cleanup, err := p.download(ctx, doc)
	if err != nil {
		return nil, "", err
	}
	defer cleanup()

	pages, err := p.extractor.Text(ctx, path, doc.FileName, doc.MediaType)
	metrics.CaptureExecutionMetrics("extract", time.Since(started))
	if err != nil {
		return nil, "", err
	}

	contents := make([]string, 0, len(pages))
	for _, page := range pages {
		contents = append(contents, page.Content)
	}
	return pages, strings.Join(contents, "\n\n"), nil
}

func (p *Pipeline) download(ctx context.Context, doc docModel.Document) (string, func(), error) {
	obj, err := p.objects.Get(ctx, doc.ObjectKey)
	if err != nil {
		return "", nil, faults.Wrap(faults.IngestionFailed, "fetching original upload", err)
	}
	defer obj.Close()

	dir, err := os.MkdirTemp("", "docrag-ingest-*")
	if err != nil {
		return "", nil, faults.Wrap(faults.IngestionFailed, "creating scratch dir", err)
	}
	cleanup := func() { _ = os.RemoveAll(dir) }

	path := filepath.Join(dir, filepath.Base(doc.FileName))
	f, err := os.Create(path)
	if err != nil {
		cleanup()
		return "", nil, faults.Wrap(faults.IngestionFailed, "creating scratch file", err)
	}
	if _, err := io.Copy(f, obj); err != nil {
		f.Close()
		cleanup()
		return "", nil, faults.Wrap(faults.IngestionFailed, "downloading original upload", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, faults.Wrap(faults.IngestionFailed, "flushing scratch file", err)
	}
	return path, cleanup, nil
}

// buildChunks splits each page and assigns document-wide ordinals.
// Offsets are rune positions relative to the whole extracted text,
// pages joined with a blank line.
func (p *Pipeline) buildChunks(doc docModel.Document, pages []extract.Page) ([]docModel.Chunk, error) {
	var chunks []docModel.Chunk
	base := 0
	for _, page := range pages {
		segments, err := chunker.Split(page.Content, p.chunkOpts.Size, p.chunkOpts.Overlap)
		if err != nil {
			return nil, err
		}
		for _, seg := range segments {
			chunks = append(chunks, docModel.Chunk{
				Id:          utils.GetNewUUID(),
				DocumentId:  doc.Id,
				TenantId:    doc.TenantId,
				Category:    doc.Category,
				Index:       len(chunks),
				Content:     seg.Content,
				StartOffset: base + seg.Start,
				EndOffset:   base + seg.End,
				PageNum:     page.Number,
			})
		}
		base += len([]rune(page.Content)) + 2 //the joining blank line
	}
	return chunks, nil
}

// embedChunks fills in embeddings batch by batch with bounded
// concurrency. Order is preserved by writing into fixed slots.
func (p *Pipeline) embedChunks(ctx context.Context, chunks []docModel.Chunk) error {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	if err := embedding.ValidateInputs(texts); err != nil {
		return err
	}

	started := time.Now()
	vectors := make([][]float32, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(config.EmbedConcurrency)
	for start := 0; start < len(texts); start += config.EmbedBatchSize {
		end := min(start+config.EmbedBatchSize, len(texts))
		g.Go(func() error {
			batch, err := p.embedder.EmbedBatch(gctx, texts[start:end])
			if err != nil {
				return fmt.Errorf("embedding batch at %d failed: %w", start, err)
			}
			copy(vectors[start:end], batch)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	metrics.CaptureExecutionMetrics("embed", time.Since(started))

	for i := range chunks {
		chunks[i].Embedding = vectors[i]
	}
	return nil
}

// failDocument persists the error outcome even when the run context is
// already dead.
func (p *Pipeline) failDocument(ctx context.Context, tenantId, documentId string, elapsed time.Duration, cause error, log *logger_i.Logger) {
	result := &docStore.ProcessingResult{
		Duration:     elapsed,
		ErrorMessage: cause.Error(),
	}
	persistCtx := context.WithoutCancel(ctx)
	if err := p.store.UpdateStatus(persistCtx, tenantId, documentId, docModel.StatusError, result); err != nil {
		log.Error("could not persist error status", "cause", cause, "error", err)
		return
	}
	log.Error("ingestion failed", "error", cause)
}

func avgChunkSize(chunks []docModel.Chunk) int {
	if len(chunks) == 0 {
		return 0
	}
	total := 0
	for _, c := range chunks {
		total += len([]rune(c.Content))
	}
	return total / len(chunks)
}
