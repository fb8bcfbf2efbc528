package worker

import (
	"context"
	"time"

	"github.com/clinicore/docrag/internal/config"
	"github.com/clinicore/docrag/internal/data/docStore"
	"github.com/clinicore/docrag/internal/domain/docModel"
	"github.com/clinicore/docrag/internal/metrics"
	"github.com/clinicore/docrag/pkg/logger_i"
)

// StartStaleReaper fails documents stuck in processing, which happens
// when the process dies mid-ingestion. Runs until ctx is cancelled.
func StartStaleReaper(ctx context.Context, store docStore.Store) {
	log := logger_i.NewLogger("Stale Reaper")
	ticker := time.NewTicker(config.StaleReaperInterval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				log.Info("Stale reaper stopped")
				return
			case <-ticker.C:
				reapOnce(ctx, store, log)
			}
		}
	}()
}

func reapOnce(ctx context.Context, store docStore.Store, log *logger_i.Logger) {
	cutoff := time.Now().Add(-config.StaleProcessingThreshold)
	stale, err := store.ListStaleProcessing(ctx, cutoff)
	if err != nil {
		log.Error("Could not scan for stale documents", "error", err)
		return
	}

	for _, doc := range stale {
		result := &docStore.ProcessingResult{
			ErrorMessage: "ingestion worker lost - document was stuck in processing",
		}
		if err := store.UpdateStatus(ctx, doc.TenantId, doc.Id, docModel.StatusError, result); err != nil {
			log.Error("Could not fail stale document", "documentId", doc.Id, "error", err)
			continue
		}
		metrics.CountStaleReaped()
		log.Warn("Failed stale processing document", "documentId", doc.Id, "tenantId", doc.TenantId, "stuckSince", doc.UpdatedAt)
	}
}
