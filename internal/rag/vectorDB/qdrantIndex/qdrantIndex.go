package qdrantIndex

import (
	"context"
	"errors"
	"fmt"

	"github.com/qdrant/go-client/qdrant"

	"github.com/clinicore/docrag/internal/config"
	"github.com/clinicore/docrag/internal/domain/docModel"
	"github.com/clinicore/docrag/pkg/logger_i"
)

var dimension = uint64(config.EmbeddingOutputDimensionality)

type Index struct {
	client         *qdrant.Client
	collectionName string
	logger         *logger_i.Logger
}

// Open connects and makes sure the collection exists. The caller owns
// the handle and closes it on shutdown.
func Open(ctx context.Context, host string) (*Index, error) {
	logger := logger_i.NewLogger("Qdrant Index")

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:     host,
		Port:     config.QdrantGrpcPort,
		UseTLS:   config.QdrantUseTLS,
		PoolSize: uint(config.QdrantPoolSize),
	})
	if err != nil {
		return nil, fmt.Errorf("could not instantiate qdrant client: %w", err)
	}

	idx := &Index{
		client:         client,
		collectionName: config.QdrantCollectionName,
		logger:         logger,
	}
	if err := idx.createCollection(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("could not create collection %s: %w", idx.collectionName, err)
	}

	logger.Info("Qdrant connection established", "host", host, "collection", idx.collectionName)
	return idx, nil
}

func (db *Index) createCollection(ctx context.Context) error {
	if db.collectionName == "" {
		return errors.New("empty collection name")
	}

	exists, err := db.client.CollectionExists(ctx, db.collectionName)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	return db.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: db.collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     dimension,
			Distance: qdrant.Distance_Cosine,
		}),
	})
}

func (db *Index) UpsertChunks(ctx context.Context, chunks []docModel.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	qdrantPoints := make([]*qdrant.PointStruct, len(chunks))
	for i, chunk := range chunks {
		qdrantPoints[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(chunk.Id),
			Vectors: qdrant.NewVectors(chunk.Embedding...),
			Payload: qdrant.NewValueMap(map[string]any{
				"content":      chunk.Content,
				"tenant_id":    chunk.TenantId,
				"category":     string(chunk.Category),
				"document_id":  chunk.DocumentId,
				"chunk_index":  chunk.Index,
				"page_num":     chunk.PageNum,
				"start_offset": chunk.StartOffset,
				"end_offset":   chunk.EndOffset,
			}),
		}
	}

	_, err := db.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: db.collectionName,
		Points:         qdrantPoints,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("qdrant upsert failed: %w", err)
	}
	return nil
}

func (db *Index) DeleteDocument(ctx context.Context, tenantId, documentId string) error {
	loggr := db.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	_, err := db.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: db.collectionName,
		Points: qdrant.NewPointsSelectorFilter(&qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch("tenant_id", tenantId),
				qdrant.NewMatch("document_id", documentId),
			},
		}),
		Wait: qdrant.PtrOf(true),
	})
	if err != nil {
		loggr.Error("Error deleting document points", "documentId", documentId, "error", err)
		return fmt.Errorf("qdrant delete failed: %w", err)
	}
	return nil
}

func (db *Index) Candidates(ctx context.Context, queryVector []float32, tenantId string, category docModel.Category, limit int) ([]docModel.Chunk, error) {
	loggr := db.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	visibleTenants := []string{tenantId}
	if tenantId != docModel.TenantGlobal {
		visibleTenants = append(visibleTenants, docModel.TenantGlobal)
	}
	must := []*qdrant.Condition{
		qdrant.NewMatchKeywords("tenant_id", visibleTenants...),
	}
	if category != "" {
		must = append(must, qdrant.NewMatch("category", string(category)))
	}

	if limit <= 0 {
		limit = config.CandidateFetchLimit
	}

	result, err := db.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: db.collectionName,
		Query:          qdrant.NewQuery(queryVector...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		Filter:         &qdrant.Filter{Must: must},
		WithPayload:    qdrant.NewWithPayload(true),
		// Vectors come back so retrieval can re-score exactly.
		WithVectors: qdrant.NewWithVectors(true),
	})
	if err != nil {
		loggr.Error("Error querying Qdrant", "error", err)
		return nil, fmt.Errorf("qdrant query failed: %w", err)
	}

	chunks := make([]docModel.Chunk, 0, len(result))
	for _, hit := range result {
		chunk := docModel.Chunk{
			Content:     hit.Payload["content"].GetStringValue(),
			TenantId:    hit.Payload["tenant_id"].GetStringValue(),
			Category:    docModel.Category(hit.Payload["category"].GetStringValue()),
			DocumentId:  hit.Payload["document_id"].GetStringValue(),
			Index:       int(hit.Payload["chunk_index"].GetIntegerValue()),
			PageNum:     int(hit.Payload["page_num"].GetIntegerValue()),
			StartOffset: int(hit.Payload["start_offset"].GetIntegerValue()),
			EndOffset:   int(hit.Payload["end_offset"].GetIntegerValue()),
		}
		if id := hit.Id.GetUuid(); id != "" {
			chunk.Id = id
		}
		if v := hit.Vectors.GetVector(); v != nil {
			chunk.Embedding = v.Data
		}
		chunks = append(chunks, chunk)
	}

	loggr.Debug("Qdrant candidates", "count", len(chunks))
	return chunks, nil
}

func (db *Index) Close() error {
	return db.client.Close()
}
