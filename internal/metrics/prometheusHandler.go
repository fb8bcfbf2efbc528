package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var HttpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "http_requests_total",
	Help: "Total number of requests labelled by path and status",
}, []string{"path", "status"})

var countTasksInQueue = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "count_ingest_tasks_in_queue",
	Help: "Number of ingestion tasks in queue",
})

var dispatcherSignalCount = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "dispatcher_signal_count",
	Help: "How often the dispatcher has signaled to start worker",
})

var activeWorkerCount = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "active_worker_count",
	Help: "Number of active workers",
})

var documentsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "documents_ingested_total",
	Help: "Documents that finished ingestion, labelled by outcome",
}, []string{"outcome"})

var staleDocumentsReaped = promauto.NewCounter(prometheus.CounterOpts{
	Name: "stale_processing_reaped_total",
	Help: "Documents forced out of a stuck processing state",
})

type HttpStatusRecorder struct {
	http.ResponseWriter
	Status int
}

func (r *HttpStatusRecorder) CaptureWriteHeaderMetrics(code int) {
	r.Status = code
	r.ResponseWriter.WriteHeader(code)
}

func IncrementTasksInQueue() {
	countTasksInQueue.Inc()
}

func DecrementTasksInQueue() {
	countTasksInQueue.Dec()
}

func StartDispatcherSignalCount() {
	dispatcherSignalCount.Inc()
}

func IncrementActiveWorkerCount() {
	activeWorkerCount.Inc()
}
func DecrementActiveWorkerCount() {
	activeWorkerCount.Dec()
}

func CountIngestOutcome(outcome string) {
	documentsIngested.WithLabelValues(outcome).Inc()
}

func CountStaleReaped() {
	staleDocumentsReaped.Inc()
}

var ingestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "ingest_duration_seconds",
	Help:    "Total time spent ingesting one document.",
	Buckets: []float64{.5, 1, 2, 5, 10, 30, 60, 300},
}, []string{"outcome"})

var stageLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "ingest_stage_latency_seconds",
	Help:    "Latency of individual pipeline stages and external calls.",
	Buckets: []float64{.05, .1, .25, .5, 1, 2, 5, 10, 30},
}, []string{"stage"})

func CaptureExecutionMetrics(stage string, timeElapsed time.Duration) {
	stageLatency.WithLabelValues(stage).Observe(timeElapsed.Seconds())
}

func CaptureIngestMetrics(outcome string, timeElapsed time.Duration) {
	ingestDuration.WithLabelValues(outcome).Observe(timeElapsed.Seconds())
}
