package openaiEmbedding

import (
	"context"
	"errors"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/clinicore/docrag/internal/config"
	"github.com/clinicore/docrag/internal/domain/faults"
	"github.com/clinicore/docrag/internal/rag/embedding"
	"github.com/clinicore/docrag/pkg/logger_i"
)

type Client struct {
	api    openai.Client
	model  string
	dim    int
	policy embedding.RetryPolicy
	logger *logger_i.Logger
}

func NewClient(apiKey string, httpClient *http.Client) *Client {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		// The SDK's own retries would stack on top of ours.
		option.WithMaxRetries(0),
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}

	return &Client{
		api:    openai.NewClient(opts...),
		model:  config.OpenAIEmbeddingModel,
		dim:    int(config.EmbeddingOutputDimensionality),
		policy: embedding.DefaultRetryPolicy(),
		logger: logger_i.NewLogger("openai_embedding"),
	}
}

func (c *Client) ModelId() string {
	return c.model
}

func (c *Client) Dimension() int {
	return c.dim
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

	var result [][]float32
	err := c.policy.Do(ctx, log, func(callCtx context.Context) error {
		res, err := c.api.Embeddings.New(callCtx, openai.EmbeddingNewParams{
			Input:      openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
			Model:      c.model,
			Dimensions: openai.Int(int64(c.dim)),
		})
		if err != nil {
			return classify(err)
		}
		if len(res.Data) != len(texts) {
			return faults.Newf(faults.EmbeddingProvider, "provider returned %d embeddings for %d inputs", len(res.Data), len(texts))
		}

		result = make([][]float32, len(texts))
		for _, d := range res.Data {
			vec := make([]float32, len(d.Embedding))
			for i, v := range d.Embedding {
				vec[i] = float32(v)
			}
			result[d.Index] = vec
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
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500 {
			return faults.Transient("openai embeddings unavailable", err)
		}
		return faults.Wrap(faults.EmbeddingProvider, "openai embeddings rejected request", err)
	}
	if errors.Is(err, context.Canceled) {
		return faults.Wrap(faults.EmbeddingProvider, "openai embeddings cancelled", err)
	}
	// Timeouts and transport errors are worth another attempt.
	return faults.Transient("openai embeddings call failed", err)
}
