// Package vectorindex is the in-process similarity index over embedded chunks.
package vectorindex

import (
	"math"
	"sort"
	"sync"

	"github.com/hangarops/docsense/internal/domain"
)

// Index is a brute-force cosine similarity index. Vectors are L2-normalized
// on insert so search reduces to a dot product. Readers take a snapshot of
// the chunk slice under the read lock, so an answer running concurrently
// with a rebuild sees either the old or the new index in its entirety.
type Index struct {
	mu     sync.RWMutex
	chunks []domain.Chunk
}

// New creates an empty index.
func New() *Index {
	return &Index{}
}

// Insert adds embedded chunks to the index.
func (ix *Index) Insert(chunks []domain.Chunk) {
	normalized := make([]domain.Chunk, len(chunks))
	for i, c := range chunks {
		c.Vector = normalize(c.Vector)
		normalized[i] = c
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.chunks = append(ix.chunks, normalized...)
}

// Clear empties the index. Safe to call on an already-empty index.
func (ix *Index) Clear() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.chunks = nil
}

// Len returns the number of indexed chunks.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.chunks)
}

// DocumentCount returns the number of distinct source documents in the index.
func (ix *Index) DocumentCount() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	seen := make(map[string]struct{})
	for i := range ix.chunks {
		seen[ix.chunks[i].DocPath] = struct{}{}
	}
	return len(seen)
}

// Search returns the topK most similar chunks. Ties are broken by document
// path ascending, then chunk sequence, for deterministic ordering.
func (ix *Index) Search(vector []float32, topK int) []domain.Hit {
	if topK <= 0 {
		return nil
	}
	query := normalize(vector)

	ix.mu.RLock()
	chunks := ix.chunks
	ix.mu.RUnlock()

	hits := make([]domain.Hit, len(chunks))
	for i := range chunks {
		hits[i] = domain.Hit{Chunk: chunks[i], Score: dot(chunks[i].Vector, query)}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		if hits[i].Chunk.DocPath != hits[j].Chunk.DocPath {
			return hits[i].Chunk.DocPath < hits[j].Chunk.DocPath
		}
		return hits[i].Chunk.Seq < hits[j].Chunk.Seq
	})

	if topK > len(hits) {
		topK = len(hits)
	}
	return hits[:topK]
}

func dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	norm := math.Sqrt(sum)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}
