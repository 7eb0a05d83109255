package vectorindex

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineSymmetryAndBounds(t *testing.T) {
	a := []float64{1, 2, 3}
	b := []float64{-2, 0.5, 4}

	assert.Equal(t, Cosine(a, b), Cosine(b, a))
	assert.InDelta(t, 1.0, Cosine(a, a), 1e-12, "self-similarity of a non-zero vector is the maximum score")
	assert.LessOrEqual(t, Cosine(a, b), 1.0)
	assert.GreaterOrEqual(t, Cosine(a, b), -1.0)
}

func TestCosineZeroVector(t *testing.T) {
	zero := []float64{0, 0, 0}
	a := []float64{1, 2, 3}

	assert.Equal(t, 0.0, Cosine(zero, a))
	assert.Equal(t, 0.0, Cosine(a, zero))
	assert.Equal(t, 0.0, Cosine(zero, zero))
}

func TestSearchOrdering(t *testing.T) {
	x := New()
	now := time.Now()
	x.Add("close", []float64{1, 0, 0}, nil, now)
	x.Add("closer", []float64{0.9, 0.1, 0}, nil, now)
	x.Add("far", []float64{0, 1, 0}, nil, now)

	results := x.Search([]float64{0.9, 0.1, 0}, 10, 0.5, nil)
	require.Len(t, results, 2)
	assert.Equal(t, "closer", results[0].ID)
	assert.Equal(t, "close", results[1].ID)
}

func TestSearchTieBreakByRecency(t *testing.T) {
	x := New()
	old := time.Now().Add(-time.Hour)
	recent := time.Now()
	x.Add("old", []float64{1, 0}, nil, old)
	x.Add("recent", []float64{1, 0}, nil, recent)

	results := x.Search([]float64{1, 0}, 10, 0, nil)
	require.Len(t, results, 2)
	assert.Equal(t, "recent", results[0].ID)
}

func TestSearchMetadataFilter(t *testing.T) {
	x := New()
	now := time.Now()
	x.Add("a", []float64{1, 0}, map[string]string{"conversation_id": "7"}, now)
	x.Add("b", []float64{1, 0}, map[string]string{"conversation_id": "8"}, now)

	results := x.Search([]float64{1, 0}, 10, 0, map[string]string{"conversation_id": "7"})
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].ID)
}

// The value-set restriction is applied before the cut to k: a matching entry
// survives even when k higher-scored entries of excluded types exist.
func TestSearchInValueSetBeforeCut(t *testing.T) {
	x := New()
	now := time.Now()
	x.Add("wanted", []float64{0.8, 0.2}, map[string]string{"memory_type": "fact"}, now)
	for i := 0; i < 10; i++ {
		x.Add(fmt.Sprintf("noise%d", i), []float64{1, 0}, map[string]string{"memory_type": "conversation"}, now)
	}

	results := x.SearchIn([]float64{1, 0}, 3, 0.1, nil, map[string][]string{"memory_type": {"fact"}})
	require.Len(t, results, 1)
	assert.Equal(t, "wanted", results[0].ID)

	results = x.SearchIn([]float64{1, 0}, 3, 0.1, nil, map[string][]string{"memory_type": {"fact", "conversation"}})
	require.Len(t, results, 3)

	// empty value set means no restriction on that key
	results = x.SearchIn([]float64{1, 0}, 20, 0.1, nil, map[string][]string{"memory_type": nil})
	assert.Len(t, results, 11)
}

func TestSearchSkipsMissingEmbedding(t *testing.T) {
	x := New()
	x.Add("empty", nil, nil, time.Now())
	x.Add("zero", []float64{0, 0}, nil, time.Now())
	x.Add("real", []float64{1, 0}, nil, time.Now())

	results := x.Search([]float64{1, 0}, 10, 0.1, nil)
	require.Len(t, results, 1)
	assert.Equal(t, "real", results[0].ID)
}

func TestSearchTruncatesToK(t *testing.T) {
	x := New()
	for i := 0; i < 20; i++ {
		x.Add(fmt.Sprintf("e%d", i), []float64{1, 0}, nil, time.Now())
	}
	results := x.Search([]float64{1, 0}, 5, 0, nil)
	assert.Len(t, results, 5)
}

func TestRemoveWhere(t *testing.T) {
	x := New()
	now := time.Now()
	x.Add("c1", []float64{1, 0}, map[string]string{"document_id": "3"}, now)
	x.Add("c2", []float64{0, 1}, map[string]string{"document_id": "3"}, now)
	x.Add("c3", []float64{1, 1}, map[string]string{"document_id": "4"}, now)

	removed := x.RemoveWhere(map[string]string{"document_id": "3"})
	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, x.Len())
}
