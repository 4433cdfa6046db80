// Package dense finds the passages whose embeddings lie closest to a query
// vector by inner product. Indexes are immutable after construction; rebuilds
// produce a fresh index.
package dense

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrEmptyIndex indicates an index build was attempted with zero vectors.
var ErrEmptyIndex = errors.New("dense: index holds no vectors")

// ErrDimensionMismatch indicates vector dimension mismatch.
type ErrDimensionMismatch struct {
	Expected int
	Got      int
}

func (e ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dense: dimension mismatch: expected %d, got %d", e.Expected, e.Got)
}

// Candidate is one scored passage from a dense search.
type Candidate struct {
	ID    int
	Score float64
}

// Index matches query vectors against stored passage embeddings.
// Implementations are immutable once constructed and safe for concurrent
// searches.
type Index interface {
	// Search returns up to breadth candidates ordered by descending inner
	// product, ties broken by ascending passage ID. The query must be
	// L2-normalized; stored vectors are normalized at build time.
	Search(ctx context.Context, query []float32, breadth int) ([]Candidate, error)

	// Dimensions returns the vector width the index was built with.
	Dimensions() int

	// Len returns the number of indexed vectors.
	Len() int
}

// Normalize scales v to unit length in place. Zero vectors are left as is.
func Normalize(v []float32) {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	if sumSquares == 0 {
		return
	}
	inv := float32(1.0 / math.Sqrt(sumSquares))
	for i := range v {
		v[i] *= inv
	}
}

// dot accumulates in float64 to limit rounding error on long vectors.
func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// copyNormalized validates that every vector has the same width and returns
// unit-length copies, leaving the caller's slices untouched.
func copyNormalized(vectors [][]float32) ([][]float32, int, error) {
	if len(vectors) == 0 {
		return nil, 0, ErrEmptyIndex
	}
	dims := len(vectors[0])
	owned := make([][]float32, len(vectors))
	for i, v := range vectors {
		if len(v) != dims {
			return nil, 0, ErrDimensionMismatch{Expected: dims, Got: len(v)}
		}
		c := make([]float32, dims)
		copy(c, v)
		Normalize(c)
		owned[i] = c
	}
	return owned, dims, nil
}

// sortCandidates orders by descending score, ties by ascending passage ID.
func sortCandidates(cands []Candidate) {
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].Score != cands[j].Score {
			return cands[i].Score > cands[j].Score
		}
		return cands[i].ID < cands[j].ID
	})
}
