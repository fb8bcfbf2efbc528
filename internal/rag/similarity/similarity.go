package similarity

import (
	"math"
	"sort"

	"github.com/clinicore/docrag/internal/domain/faults"
)

// Cosine returns dot(a,b) / (|a|*|b|) in [-1, 1]. A zero vector on
// either side scores 0 so malformed embeddings never poison ranking.
// Mismatched lengths indicate stale embeddings after a model change
// and fail with DimensionMismatch.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, faults.Newf(faults.DimensionMismatch, "vector lengths differ: %d vs %d", len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}

	score := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	// Clamp floating point drift so callers can rely on the bounds.
	if score > 1 {
		score = 1
	} else if score < -1 {
		score = -1
	}
	return score, nil
}

// Ranked pairs a candidate's position in the input slice with its
// similarity score.
type Ranked struct {
	Index int
	Score float64
}

// TopK scores every candidate against query and returns at most k
// results sorted descending by score. Ties keep the original candidate
// order. k <= 0 returns nothing.
func TopK(query []float32, candidates [][]float32, k int) ([]Ranked, error) {
	if k <= 0 || len(candidates) == 0 {
		return nil, nil
	}

	ranked := make([]Ranked, 0, len(candidates))
	for i, c := range candidates {
		score, err := Cosine(query, c)
		if err != nil {
			return nil, err
		}
		ranked = append(ranked, Ranked{Index: i, Score: score})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if k > len(ranked) {
		k = len(ranked)
	}
	return ranked[:k], nil
}
