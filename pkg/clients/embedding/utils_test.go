package embedding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZeroVector(t *testing.T) {
	vec := ZeroVector()
	assert.Len(t, vec, FixedDimension)
	assert.True(t, IsZeroVector(vec))
	assert.False(t, IsZeroVector([]float64{0, 0.1, 0}))
}

func TestVectorStringRoundTrip(t *testing.T) {
	vec := []float64{1.5, -0.25, 0, 3.125}
	s := VectorToString(vec)
	assert.Equal(t, "[1.500000,-0.250000,0.000000,3.125000]", s)

	parsed, err := VectorFromString(s)
	require.NoError(t, err)
	require.Len(t, parsed, len(vec))
	for i := range vec {
		assert.InDelta(t, vec[i], parsed[i], 1e-6)
	}
}

func TestVectorFromStringRejectsGarbage(t *testing.T) {
	_, err := VectorFromString("1,2,3")
	assert.Error(t, err)

	_, err = VectorFromString("[a,b]")
	assert.Error(t, err)
}

func TestLRUCacheEviction(t *testing.T) {
	lru := NewLRUCache(2)
	lru.Put("a", []float64{1})
	lru.Put("b", []float64{2})
	lru.Put("c", []float64{3})

	_, ok := lru.Get("a")
	assert.False(t, ok, "oldest entry should be evicted")

	v, ok := lru.Get("b")
	require.True(t, ok)
	assert.Equal(t, []float64{2}, v)
}

func TestLRUCacheGetRefreshes(t *testing.T) {
	lru := NewLRUCache(2)
	lru.Put("a", []float64{1})
	lru.Put("b", []float64{2})

	_, _ = lru.Get("a") // a becomes most recent
	lru.Put("c", []float64{3})

	_, ok := lru.Get("b")
	assert.False(t, ok)
	_, ok = lru.Get("a")
	assert.True(t, ok)
}
