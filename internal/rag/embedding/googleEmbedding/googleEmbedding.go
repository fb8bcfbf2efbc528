package googleEmbedding

import (
	"context"
	"fmt"

	"google.golang.org/genai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/clinicore/docrag/internal/config"
	"github.com/clinicore/docrag/internal/domain/faults"
	"github.com/clinicore/docrag/internal/rag/embedding"
	"github.com/clinicore/docrag/pkg/logger_i"
)

type Client struct {
	genAi  *genai.Client
	model  string
	dim    int32
	policy embedding.RetryPolicy
	logger *logger_i.Logger
}

func NewClient(ctx context.Context, apiKey string) (*Client, error) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("creating google embedding client: %w", err)
	}
	return &Client{
		genAi:  c,
		model:  config.GoogleEmbeddingModel,
		dim:    config.EmbeddingOutputDimensionality,
		policy: embedding.DefaultRetryPolicy(),
		logger: logger_i.NewLogger("google_embedding"),
	}, nil
}

func (c *Client) ModelId() string {
	return c.model
}

func (c *Client) Dimension() int {
	return int(c.dim)
}

func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if err := embedding.ValidateInputs(texts); err != nil {
		return nil, err
	}

	log := c.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	contents := make([]*genai.Content, 0, len(texts))
	for _, t := range texts {
		contents = append(contents, &genai.Content{
			Parts: []*genai.Part{{Text: t}},
		})
	}

	var result [][]float32
	err := c.policy.Do(ctx, log, func(callCtx context.Context) error {
		res, err := c.genAi.Models.EmbedContent(callCtx, c.model, contents, &genai.EmbedContentConfig{
			OutputDimensionality: &c.dim,
			TaskType:             "RETRIEVAL_DOCUMENT",
		})
		if err != nil {
			return classify(err)
		}
		if len(res.Embeddings) != len(texts) {
			return faults.Newf(faults.EmbeddingProvider, "provider returned %d embeddings for %d inputs", len(res.Embeddings), len(texts))
		}

		result = make([][]float32, len(res.Embeddings))
		for i, e := range res.Embeddings {
			result[i] = e.Values
		}
		return nil
	})
	if err != nil {
		log.Error("embedding batch failed", "inputs", len(texts), "error", err)
		return nil, err
	}
	return result, nil
}

func classify(err error) error {
	if s, ok := status.FromError(err); ok {
		switch s.Code() {
		case codes.ResourceExhausted, codes.Unavailable, codes.DeadlineExceeded, codes.Internal:
			return faults.Transient("google embeddings unavailable", err)
		case codes.Unauthenticated, codes.PermissionDenied, codes.InvalidArgument:
			return faults.Wrap(faults.EmbeddingProvider, "google embeddings rejected request", err)
		}
	}
	return faults.Transient("google embeddings call failed", err)
}
