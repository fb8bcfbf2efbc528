package handlers

import (
	"sync"
	"sync/atomic"

	"github.com/clinicore/docrag/internal/job"
	"github.com/clinicore/docrag/internal/metrics"
	"github.com/clinicore/docrag/internal/rag"
	"github.com/clinicore/docrag/pkg/logger_i"
)

var (
	handlerInstance *TaskHandler //private singleton
	once            sync.Once
	logTH           *logger_i.Logger
	logRH           *logger_i.Logger
)

type TaskHandler struct {
	service    *job.Service
	ragService rag.Service
}

func InitTaskHandler(jobService *job.Service, ragService rag.Service) {
	once.Do(func() {
		handlerInstance = &TaskHandler{service: jobService, ragService: ragService}

		logTH = logger_i.NewLogger("TaskHandler")
		logRH = logger_i.NewLogger("RequestHandler")
		logTH.Info("Starting task handler")
	})
}

func EnqueueIngestTask(task job.IngestTask) {
	logTH.With("traceId", task.TraceId, "documentId", task.DocumentId)
	logTH.Info("Queueing ingest task", "reprocess", task.Reprocess)
	handlerInstance.pushToTaskChannel(task)
}

// private methods
func (h *TaskHandler) pushToTaskChannel(task job.IngestTask) {
	//metrics
	metrics.IncrementTasksInQueue()

	h.service.TaskChannel <- task //blocking send to prevent the system from being overwhelmed
	logTH.Info("Queued ingest task")

	//every ingest task may block a worker on external calls for a
	//while, so each one is allowed to wake the dispatcher - workers
	//retire on idle, keeping the pool small at rest
	accurateCount := atomic.AddInt64(&h.service.RequestCount, 1)
	metrics.StartDispatcherSignalCount() //metrics
	logTH.Debug("Dispatcher signal", "taskCount", accurateCount)
	h.service.DispatcherChannel <- true
}
