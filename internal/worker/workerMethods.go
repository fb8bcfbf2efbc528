package worker

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/clinicore/docrag/internal/config"
	"github.com/clinicore/docrag/internal/job"
	"github.com/clinicore/docrag/internal/metrics"
)

func executeTask(task job.IngestTask) {
	ctxTrace := context.WithValue(context.Background(), config.TRACE_ID_KEY, task.TraceId)
	ctx, cancel := context.WithTimeout(ctxTrace, config.IngestionTimeout+time.Minute)
	defer cancel()

	log := logger.With("traceId", task.TraceId, "documentId", task.DocumentId)
	log.Debug("Processing ingest task", "reprocess", task.Reprocess)

	var err error
	if task.Reprocess {
		err = _ragService.ReprocessDocument(ctx, task.TenantId, task.DocumentId)
	} else {
		err = _ragService.RunIngestion(ctx, task.TenantId, task.DocumentId)
	}
	if err != nil {
		// Pipeline already persisted the error outcome on the document.
		log.Error("Ingest task failed", "error", err)
	}
}

func removeWorker(reason string) {
	workerWaitGroup.Done()
	atomic.AddInt64(&currentWorkerCount, -1)
	logger.Info("Removed worker ", "reason", reason, "workerCount", currentWorkerCount)
	metrics.DecrementActiveWorkerCount()
}
