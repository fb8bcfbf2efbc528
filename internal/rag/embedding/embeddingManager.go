package embedding

import (
	"context"

	"github.com/clinicore/docrag/internal/config"
	"github.com/clinicore/docrag/internal/domain/faults"
)

// Embedder turns text into vectors. Every call is a billable external
// request - callers batch per chunk, never per character.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	ModelId() string
	Dimension() int
}

// ValidateInputs rejects oversized inputs up front. Truncating
// silently would embed a different document than the one stored, so
// the only safe answer is a hard error.
func ValidateInputs(texts []string) error {
	for i, t := range texts {
		if len(t) > config.MaxEmbedInputChars {
			return faults.Newf(faults.InputTooLarge, "input %d is %d chars, limit is %d", i, len(t), config.MaxEmbedInputChars)
		}
	}
	return nil
}
