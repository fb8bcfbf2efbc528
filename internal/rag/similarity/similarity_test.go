package similarity

import (
	"math"
	"testing"

	"github.com/clinicore/docrag/internal/domain/faults"
)

func TestCosine_SelfSimilarity(t *testing.T) {
	v := []float32{0.3, -1.2, 4.5, 0.01}
	score, err := Cosine(v, v)
	if err != nil {
		t.Fatalf("Cosine failed: %v", err)
	}
	if math.Abs(score-1.0) > 1e-9 {
		t.Errorf("Cosine(v, v) = %f, want 1.0", score)
	}
}

func TestCosine_Bounds(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"opposite vectors", []float32{1, 0}, []float32{-1, 0}, -1},
		{"orthogonal vectors", []float32{1, 0}, []float32{0, 1}, 0},
		{"same direction scaled", []float32{2, 2}, []float32{5, 5}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, err := Cosine(tt.a, tt.b)
			if err != nil {
				t.Fatalf("Cosine failed: %v", err)
			}
			if math.Abs(score-tt.want) > 1e-9 {
				t.Errorf("got %f, want %f", score, tt.want)
			}
			if score < -1 || score > 1 {
				t.Errorf("score %f outside [-1, 1]", score)
			}
		})
	}
}

func TestCosine_ZeroVector(t *testing.T) {
	score, err := Cosine([]float32{0, 0, 0}, []float32{1, 2, 3})
	if err != nil {
		t.Fatalf("Cosine failed: %v", err)
	}
	if score != 0 {
		t.Errorf("zero vector score = %f, want 0", score)
	}
	if math.IsNaN(score) {
		t.Error("zero vector produced NaN")
	}
}

func TestCosine_DimensionMismatch(t *testing.T) {
	_, err := Cosine([]float32{1, 2}, []float32{1, 2, 3})
	if !faults.IsKind(err, faults.DimensionMismatch) {
		t.Errorf("expected DimensionMismatch, got %v", err)
	}
}

func TestTopK_Cardinality(t *testing.T) {
	query := []float32{1, 0}
	candidates := [][]float32{
		{1, 0},
		{0.9, 0.1},
		{0, 1},
		{-1, 0},
	}

	tests := []struct {
		k    int
		want int
	}{
		{0, 0},
		{-3, 0},
		{2, 2},
		{4, 4},
		{10, 4},
	}
	for _, tt := range tests {
		got, err := TopK(query, candidates, tt.k)
		if err != nil {
			t.Fatalf("TopK failed: %v", err)
		}
		if len(got) != tt.want {
			t.Errorf("TopK(k=%d) returned %d results, want %d", tt.k, len(got), tt.want)
		}
	}
}

func TestTopK_SortedDescending(t *testing.T) {
	query := []float32{1, 0}
	candidates := [][]float32{
		{0, 1},
		{1, 0},
		{0.5, 0.5},
		{-1, 0},
	}

	got, err := TopK(query, candidates, 4)
	if err != nil {
		t.Fatalf("TopK failed: %v", err)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Score > got[i-1].Score {
			t.Errorf("results not descending at %d: %f > %f", i, got[i].Score, got[i-1].Score)
		}
	}
	if got[0].Index != 1 {
		t.Errorf("best candidate index = %d, want 1", got[0].Index)
	}

	// Every returned score >= every cut candidate's score.
	cut, err := TopK(query, candidates, 2)
	if err != nil {
		t.Fatalf("TopK failed: %v", err)
	}
	worstKept := cut[len(cut)-1].Score
	kept := map[int]bool{}
	for _, r := range cut {
		kept[r.Index] = true
	}
	for i, c := range candidates {
		if kept[i] {
			continue
		}
		score, _ := Cosine(query, c)
		if score > worstKept {
			t.Errorf("unreturned candidate %d scores %f above kept %f", i, score, worstKept)
		}
	}
}

func TestTopK_StableTies(t *testing.T) {
	query := []float32{1, 0}
	// Candidates 0 and 2 tie exactly.
	candidates := [][]float32{
		{2, 0},
		{0, 1},
		{7, 0},
	}

	got, err := TopK(query, candidates, 3)
	if err != nil {
		t.Fatalf("TopK failed: %v", err)
	}
	if got[0].Index != 0 || got[1].Index != 2 {
		t.Errorf("tie broken out of input order: %+v", got)
	}
}

func TestTopK_DimensionMismatch(t *testing.T) {
	_, err := TopK([]float32{1, 0}, [][]float32{{1, 0, 0}}, 1)
	if !faults.IsKind(err, faults.DimensionMismatch) {
		t.Errorf("expected DimensionMismatch, got %v", err)
	}
}
