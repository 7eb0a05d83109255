package vectorindex

import (
	"math"
	"sort"
	"sync"
	"time"
)

// Result is one similarity match, produced only at query time.
type Result struct {
	ID        string
	Score     float64
	Metadata  map[string]string
	Timestamp time.Time
}

type entry struct {
	id        string
	embedding []float64
	metadata  map[string]string
	timestamp time.Time
}

// Index is an in-memory brute-force cosine-similarity index. Entries carry
// free-form metadata used for exact-match filtering at query time. Safe for
// concurrent use.
type Index struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

func New() *Index {
	return &Index{entries: make(map[string]*entry)}
}

// Add inserts or replaces an entry. Entries without an embedding are kept (so
// they can be removed by id later) but never match a search.
func (x *Index) Add(id string, embedding []float64, metadata map[string]string, ts time.Time) {
	meta := make(map[string]string, len(metadata))
	for k, v := range metadata {
		meta[k] = v
	}
	vec := make([]float64, len(embedding))
	copy(vec, embedding)

	x.mu.Lock()
	defer x.mu.Unlock()
	x.entries[id] = &entry{id: id, embedding: vec, metadata: meta, timestamp: ts}
}

// Remove drops an entry by id. Missing ids are a no-op.
func (x *Index) Remove(id string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.entries, id)
}

// RemoveWhere drops every entry whose metadata matches all provided keys.
// Used for cascade removal of a document's chunks.
func (x *Index) RemoveWhere(filter map[string]string) int {
	x.mu.Lock()
	defer x.mu.Unlock()

	removed := 0
	for id, e := range x.entries {
		if matchesFilter(e.metadata, filter) {
			delete(x.entries, id)
			removed++
		}
	}
	return removed
}

// Len reports the number of stored entries.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.entries)
}

// Search ranks stored entries against the query vector: metadata filter first,
// then the similarity threshold, then descending score with ties broken by the
// most recent timestamp, truncated to k. Entries lacking an embedding never
// match. The query itself is embedded by the caller.
func (x *Index) Search(query []float64, k int, minSimilarity float64, filter map[string]string) []Result {
	return x.SearchIn(query, k, minSimilarity, filter, nil)
}

// SearchIn is Search with an extra value-set restriction: for each key in
// anyOf, an entry's metadata value must be one of the listed values. Both
// restrictions narrow the candidate set before the threshold and the cut to
// k, so a matching entry can never be crowded out by higher-ranked entries it
// was meant to exclude.
func (x *Index) SearchIn(query []float64, k int, minSimilarity float64, filter map[string]string, anyOf map[string][]string) []Result {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if k <= 0 {
		k = 5
	}

	results := make([]Result, 0, k)
	for _, e := range x.entries {
		if len(e.embedding) == 0 {
			continue
		}
		if !matchesFilter(e.metadata, filter) {
			continue
		}
		if !matchesAnyOf(e.metadata, anyOf) {
			continue
		}
		score := Cosine(query, e.embedding)
		if score < minSimilarity {
			continue
		}
		meta := make(map[string]string, len(e.metadata))
		for key, v := range e.metadata {
			meta[key] = v
		}
		results = append(results, Result{ID: e.id, Score: score, Metadata: meta, Timestamp: e.timestamp})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Timestamp.After(results[j].Timestamp)
	})

	if len(results) > k {
		results = results[:k]
	}
	return results
}

func matchesFilter(metadata, filter map[string]string) bool {
	for k, want := range filter {
		if got, ok := metadata[k]; !ok || got != want {
			return false
		}
	}
	return true
}

func matchesAnyOf(metadata map[string]string, anyOf map[string][]string) bool {
	for k, values := range anyOf {
		if len(values) == 0 {
			continue
		}
		got, ok := metadata[k]
		if !ok {
			return false
		}
		found := false
		for _, v := range values {
			if v == got {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Cosine returns dot(a,b)/(|a||b|). Zero-norm vectors score 0 against
// anything, so degenerate embeddings never rank and never divide by zero.
func Cosine(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	for i := n; i < len(a); i++ {
		normA += a[i] * a[i]
	}
	for i := n; i < len(b); i++ {
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
