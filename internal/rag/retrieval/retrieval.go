package retrieval

import (
	"context"
	"strings"

	"github.com/clinicore/docrag/internal/config"
	"github.com/clinicore/docrag/internal/data/docStore"
	"github.com/clinicore/docrag/internal/domain/docModel"
	"github.com/clinicore/docrag/internal/domain/faults"
	"github.com/clinicore/docrag/internal/rag/embedding"
	"github.com/clinicore/docrag/internal/rag/similarity"
	"github.com/clinicore/docrag/pkg/logger_i"
)

// CandidateSource yields chunks visible to a tenant. A store-backed
// source returns everything and ignores the query vector; an
// index-backed source may prefilter with it.
type CandidateSource interface {
	Candidates(ctx context.Context, queryVector []float32, tenantId string, category docModel.Category, limit int) ([]docModel.Chunk, error)
}

type Options struct {
	Category  docModel.Category
	Limit     int
	Threshold float64
}

// DefaultOptions are what the HTTP layer fills in when the caller
// leaves a knob out. The service itself validates strictly.
func DefaultOptions() Options {
	return Options{
		Limit:     config.DefaultSearchLimit,
		Threshold: config.DefaultSearchThreshold,
	}
}

type Match struct {
	Content     string            `json:"content"`
	DocumentId  string            `json:"document_id"`
	ChunkIndex  int               `json:"chunk_index"`
	Score       float64           `json:"score"`
	Category    docModel.Category `json:"category"`
	PageNum     int               `json:"page_num,omitempty"`
	StartOffset int               `json:"start_offset"`
	EndOffset   int               `json:"end_offset"`
}

type Service struct {
	embedder embedding.Embedder
	source   CandidateSource
	store    docStore.Store
	logger   *logger_i.Logger
}

func NewService(embedder embedding.Embedder, source CandidateSource, store docStore.Store) *Service {
	return &Service{
		embedder: embedder,
		source:   source,
		store:    store,
		logger:   logger_i.NewLogger("Retrieval"),
	}
}

func (s *Service) Search(ctx context.Context, tenantId, query string, opts Options) ([]Match, error) {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "tenantId", tenantId)

	if tenantId == "" {
		return nil, faults.New(faults.InvalidParameter, "tenant id is required")
	}
	if strings.TrimSpace(query) == "" {
		return nil, faults.New(faults.InvalidParameter, "query must not be empty")
	}
	if opts.Limit <= 0 {
		return nil, faults.Newf(faults.InvalidParameter, "limit must be positive, got %d", opts.Limit)
	}
	if opts.Threshold < -1 || opts.Threshold > 1 {
		return nil, faults.Newf(faults.InvalidParameter, "threshold must be in [-1, 1], got %v", opts.Threshold)
	}
	if opts.Category != "" && !docModel.ValidCategory(opts.Category) {
		return nil, faults.Newf(faults.InvalidParameter, "unknown category %q", opts.Category)
	}
	if err := embedding.ValidateInputs([]string{query}); err != nil {
		return nil, err
	}

	queryVector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	candidates, err := s.source.Candidates(ctx, queryVector, tenantId, opts.Category, config.CandidateFetchLimit)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		// No corpus yet is a normal state, not an error.
		log.Debug("search with empty candidate set")
		return []Match{}, nil
	}

	vectors := make([][]float32, len(candidates))
	for i, c := range candidates {
		vectors[i] = c.Embedding
	}
	ranked, err := similarity.TopK(queryVector, vectors, opts.Limit)
	if err != nil {
		return nil, err
	}

	matches := make([]Match, 0, len(ranked))
	for _, r := range ranked {
		if r.Score < opts.Threshold {
			continue
		}
		c := candidates[r.Index]
		matches = append(matches, Match{
			Content:     c.Content,
			DocumentId:  c.DocumentId,
			ChunkIndex:  c.Index,
			Score:       r.Score,
			Category:    c.Category,
			PageNum:     c.PageNum,
			StartOffset: c.StartOffset,
			EndOffset:   c.EndOffset,
		})
	}

	log.Debug("search finished", "candidates", len(candidates), "matches", len(matches))
	return matches, nil
}

func (s *Service) Stats(ctx context.Context, tenantId string) (docStore.TenantStats, error) {
	if tenantId == "" {
		return docStore.TenantStats{}, faults.New(faults.InvalidParameter, "tenant id is required")
	}
	return s.store.GetStats(ctx, tenantId)
}

// StoreSource serves candidates straight from the document store. The
// query vector and limit are unused: exact scoring happens in Search.
type StoreSource struct {
	store docStore.Store
}

func NewStoreSource(store docStore.Store) *StoreSource {
	return &StoreSource{store: store}
}

func (s *StoreSource) Candidates(ctx context.Context, _ []float32, tenantId string, category docModel.Category, _ int) ([]docModel.Chunk, error) {
	return s.store.GetCandidateChunks(ctx, tenantId, category)
}
