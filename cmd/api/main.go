package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/clinicore/docrag/internal/config"
	"github.com/clinicore/docrag/internal/customHttpClient"
	"github.com/clinicore/docrag/internal/data/docStore"
	"github.com/clinicore/docrag/internal/handlers"
	"github.com/clinicore/docrag/internal/job"
	"github.com/clinicore/docrag/internal/rag"
	"github.com/clinicore/docrag/internal/rag/embedding"
	"github.com/clinicore/docrag/internal/rag/embedding/googleEmbedding"
	"github.com/clinicore/docrag/internal/rag/embedding/openaiEmbedding"
	"github.com/clinicore/docrag/internal/rag/extract"
	"github.com/clinicore/docrag/internal/rag/extract/gosseractOCR"
	"github.com/clinicore/docrag/internal/rag/pipeline"
	"github.com/clinicore/docrag/internal/rag/retrieval"
	"github.com/clinicore/docrag/internal/rag/vectorDB"
	"github.com/clinicore/docrag/internal/rag/vectorDB/qdrantIndex"
	"github.com/clinicore/docrag/internal/server"
	"github.com/clinicore/docrag/internal/storage"
	"github.com/clinicore/docrag/internal/storage/minioStore"
	"github.com/clinicore/docrag/internal/worker"
	"github.com/clinicore/docrag/pkg/logger_i"
)

var (
	listenAddr        string
	requestCount      int64
	stopWorkerChannel chan bool
	workerWaitGroup   sync.WaitGroup
)

func main() {

	logger_i.Init()
	var logger = logger_i.NewLogger("main")

	//config
	flag.StringVar(&listenAddr, "listen-addr", config.ServerListenAddr, "server listen address")
	flag.Parse()

	//init buffered task channel
	taskChannel := make(chan job.IngestTask, config.BufferLimit)
	dispatcherChannel := make(chan bool, 1)
	stopWorkerChannel = make(chan bool, 1)

	serviceContext, closeExternalServices := context.WithCancel(context.Background())
	defer closeExternalServices()

	//document store - redis when asked for, memory otherwise
	var store docStore.Store
	if config.DocStoreBackend == "redis" {
		redisDocStore, err := docStore.OpenRedisDocStore(serviceContext, config.RedisAddr)
		if err != nil {
			logger.Error("Redis document store is offline, falling back to memory", "error", err)
			store = docStore.InitInMemoryDocStore()
		} else {
			store = redisDocStore
		}
	} else {
		store = docStore.InitInMemoryDocStore()
	}

	//object storage for the raw uploads
	var objects storage.ObjectStore
	minioClient, err := minioStore.Open(serviceContext)
	if err != nil {
		logger.Error("Minio is offline, falling back to in-memory object storage", "error", err)
		objects = storage.NewMemoryStore()
	} else {
		objects = minioClient
	}

	//embedding provider
	var embedder embedding.Embedder
	switch config.EmbeddingProvider {
	case "google":
		googleClient, err := googleEmbedding.NewClient(serviceContext, config.GoogleAPIKey)
		if err != nil {
			logger.Error("Google embedding client failed to initialize. Shutting down.", "error", err)
			return
		}
		embedder = googleClient
	default:
		embedder = openaiEmbedding.NewClient(config.OpenAIAPIKey, customHttpClient.Pooled())
	}

	//optional ANN index - the document store stays the source of truth
	var index vectorDB.Index
	if config.QdrantHost != "" {
		qdrant, err := qdrantIndex.Open(serviceContext, config.QdrantHost)
		if err != nil {
			logger.Error("Qdrant is offline, retrieval will scan the document store", "error", err)
		} else {
			index = qdrant
			defer qdrant.Close()
		}
	}

	extractor := extract.NewExtractor(gosseractOCR.NewClient("eng"))
	pipe := pipeline.New(store, embedder, objects, extractor, index, pipeline.DefaultChunkOptions())

	var source retrieval.CandidateSource
	if index != nil {
		source = index
	} else {
		source = retrieval.NewStoreSource(store)
	}
	retrievalService := retrieval.NewService(embedder, source, store)

	ragService := rag.NewService(store, objects, pipe, retrievalService, index)

	logger.Info("Starting job service")
	jobService := job.InitJobService(job.ServiceConfig{
		TaskChannel:       taskChannel,
		RequestCount:      requestCount,
		DispatcherChannel: dispatcherChannel,
	})

	handlers.InitTaskHandler(jobService, ragService)

	//init worker pool
	worker.InitServices(jobService, ragService)
	worker.InitWorkerPool(stopWorkerChannel, &workerWaitGroup)
	worker.StartStaleReaper(serviceContext, store)

	//server handling
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool, 1)

	shutdownParams := server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
		WorkerStop:       stopWorkerChannel,
		Group:            &workerWaitGroup,
		CloseServices:    closeExternalServices,
	}
	go server.ShutDownHandler(shutdownParams)
	go server.CreateServer(listenAddr)

	<-stopExecution
	logger.Info("Server stopped")
}
