package vector

import "testing"

func TestMaxMarginalRelevancePrefersDiversity(t *testing.T) {
	query := []float32{1, 0}
	candidates := [][]float32{
		{1, 0},       // identical to query
		{0.99, 0.05}, // near-duplicate of the first
		{0.6, 0.8},   // relevant but different direction
	}
	order := MaxMarginalRelevance(query, candidates, 2)
	if len(order) != 2 {
		t.Fatalf("expected 2 selections, got %d", len(order))
	}
	if order[0] != 0 {
		t.Fatalf("expected most relevant candidate first, got %d", order[0])
	}
	if order[1] != 2 {
		t.Fatalf("expected diverse candidate second, got %d", order[1])
	}
}

func TestMaxMarginalRelevanceClampsK(t *testing.T) {
	query := []float32{1, 0}
	candidates := [][]float32{{1, 0}, {0, 1}}
	order := MaxMarginalRelevance(query, candidates, 5)
	if len(order) != 2 {
		t.Fatalf("expected selection clamped to candidate count, got %d", len(order))
	}
}

func TestCosineSimilarity(t *testing.T) {
	if got := CosineSimilarity([]float32{1, 0}, []float32{1, 0}); got < 0.999 {
		t.Fatalf("identical vectors should score ~1, got %f", got)
	}
	if got := CosineSimilarity([]float32{1, 0}, []float32{0, 1}); got > 0.001 {
		t.Fatalf("orthogonal vectors should score ~0, got %f", got)
	}
}
