package search

import (
	"fmt"
	"sort"

	"github.com/docsift/docsift/internal/dense"
)

// Fused is one passage after signal blending, before materialization.
type Fused struct {
	// ID is the passage id.
	ID int

	// Score is the combined score: w*Dense + (1-w)*Lexical.
	Score float64

	// Dense is the inner-product score (0 if absent from the candidate pool).
	Dense float64

	// Lexical is the TF-IDF cosine score (0 if no term overlap).
	Lexical float64
}

// Fuse merges the dense candidate list and the lexical score map into one
// ranking over the union of passage ids touched by either signal:
//
//	combined = w*dense + (1-w)*lexical
//
// with a missing signal contributing zero. Results are sorted by descending
// combined score, ties broken by ascending passage id, and truncated to k.
// The caller sizes the dense pool; fetching fewer than 2k dense candidates
// risks dropping a passage that is lexically strong but dense-weak.
func Fuse(candidates []dense.Candidate, lexicalScores map[int]float64, w float64, k int) ([]Fused, error) {
	if w < 0 || w > 1 {
		return nil, fmt.Errorf("%w: got %g", ErrInvalidWeight, w)
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidK, k)
	}

	merged := make(map[int]*Fused, len(candidates)+len(lexicalScores))
	for _, c := range candidates {
		merged[c.ID] = &Fused{ID: c.ID, Dense: c.Score}
	}
	for id, score := range lexicalScores {
		f, ok := merged[id]
		if !ok {
			f = &Fused{ID: id}
			merged[id] = f
		}
		f.Lexical = score
	}

	// Return empty slice, not nil, for consistent API behavior.
	results := make([]Fused, 0, len(merged))
	for _, f := range merged {
		f.Score = w*f.Dense + (1-w)*f.Lexical
		results = append(results, *f)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}
