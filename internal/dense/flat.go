package dense

import "context"

// Flat is the exact backend: a brute-force inner product scan over every
// stored vector. Scanning is exact and deterministic, which makes it the
// default for corpora that fit comfortably in memory.
type Flat struct {
	vectors [][]float32
	dims    int
}

// NewFlat builds a flat index over vectors, normalizing each to unit length.
func NewFlat(vectors [][]float32) (*Flat, error) {
	owned, dims, err := copyNormalized(vectors)
	if err != nil {
		return nil, err
	}
	return &Flat{vectors: owned, dims: dims}, nil
}

// Search scans all vectors and returns the top breadth candidates.
func (f *Flat) Search(ctx context.Context, query []float32, breadth int) ([]Candidate, error) {
	if len(query) != f.dims {
		return nil, ErrDimensionMismatch{Expected: f.dims, Got: len(query)}
	}
	if breadth <= 0 {
		return []Candidate{}, nil
	}
	if breadth > len(f.vectors) {
		breadth = len(f.vectors)
	}

	cands := make([]Candidate, 0, len(f.vectors))
	for id, vec := range f.vectors {
		cands = append(cands, Candidate{ID: id, Score: dot(query, vec)})
	}
	sortCandidates(cands)
	return cands[:breadth], nil
}

// Dimensions returns the vector width the index was built with.
func (f *Flat) Dimensions() int {
	return f.dims
}

// Len returns the number of indexed vectors.
func (f *Flat) Len() int {
	return len(f.vectors)
}

// Verify interface implementation
var _ Index = (*Flat)(nil)
