package config

import (
	"log/slog"
	"os"
	"time"
)

const (
	IS_PROD        = false
	LOG_LEVEL_PROD = slog.LevelInfo
	TRACE_ID_KEY   = "traceId"

	RATE_LIMIT_PER_SECOND       = 5
	BURST_RATE_LIMIT_PER_SECOND = 10

	//chunking defaults - callers may override per tenant
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200

	//embeddings
	EmbeddingOutputDimensionality int32 = 1536
	OpenAIEmbeddingModel                = "text-embedding-3-small"
	GoogleEmbeddingModel                = "gemini-embedding-001"
	MaxEmbedInputChars                  = 20000 //reject, never truncate
	EmbedRetryAttempts                  = 3
	EmbedRetryBaseDelay                 = 500 * time.Millisecond
	EmbedCallTimeout                    = 20 * time.Second
	EmbedBatchSize                      = 100
	EmbedConcurrency                    = 4

	//retrieval defaults
	DefaultSearchLimit         = 5
	DefaultSearchThreshold     = 0.7
	CandidateFetchLimit        = 200 //only honored by index-backed sources
	QdrantCollectionName       = "clinical-doc-chunks"
	QdrantConnectionTimeout    = 30 * time.Second
	QdrantGrpcPort             = 6334
	QdrantUseTLS               = false
	QdrantPoolSize             = 1
	StaleProcessingThreshold   = 30 * time.Minute
	StaleReaperInterval        = 5 * time.Minute
	IngestionTimeout           = 10 * time.Minute
	PDFPageExtractTimeout      = 10 * time.Second
	OCRMinConfidence           = 40.0
	MaxUploadBytes       int64 = 32 << 20

	//worker pool
	RequestsPerNewWorkerCount int64 = 10
	MaxWorkerCount            int64 = 10
	MinWorkerCount            int64 = 1
	IdleWorkerTimeout               = 1 * time.Minute

	//server timeouts
	ReadTimeout            = 5 * time.Second
	WriteTimeout           = 30 * time.Second
	IdleTimeout            = 120 * time.Second
	ShutdownContextTimeout = 10 * time.Second

	ServerListenAddr = ":3000"

	//ingest task buffer limit
	BufferLimit = 100

	//outbound http pooling
	MaxIdleConns        = 50
	MaxIdleConnsPerHost = 25
	IdleConnTimeout     = 60 * time.Second

	//redis
	redisHost = "127.0.0.1"
	redisPort = "6379"
	RedisAddr = redisHost + ":" + redisPort

	RedisDocumentDB = 0

	//minio
	MinioEndpoint = "127.0.0.1:9000"
	MinioBucket   = "clinical-uploads"
	MinioUseSSL   = false

	NoAuthBypass = false
)

// Secrets and host overrides come from the environment so the const
// block above stays committable.
var (
	OpenAIAPIKey  = os.Getenv("OPENAI_API_KEY")
	GoogleAPIKey  = os.Getenv("GOOGLE_API_KEY")
	AuthToken     = os.Getenv("DOCRAG_AUTH_TOKEN")
	RedisPassword = os.Getenv("REDIS_PASSWORD")
	MinioAccess   = os.Getenv("MINIO_ACCESS_KEY")
	MinioSecret   = os.Getenv("MINIO_SECRET_KEY")

	//"openai" or "google"
	EmbeddingProvider = getEnvOr("DOCRAG_EMBED_PROVIDER", "openai")
	//"memory" or "redis"
	DocStoreBackend = getEnvOr("DOCRAG_STORE", "memory")
	//set to enable the qdrant-backed candidate source
	QdrantHost = os.Getenv("QDRANT_HOST")
)

func getEnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
