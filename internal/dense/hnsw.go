package dense

import (
	"context"

	"github.com/coder/hnsw"
)

// Graph parameters follow the library's recommendations for small to medium
// corpora.
const (
	hnswM        = 16
	hnswEfSearch = 64
	hnswMl       = 0.25
)

// HNSW is the approximate backend. A hierarchical small-world graph selects
// candidates, whose scores are then recomputed as exact inner products so
// that both backends rank identically when the graph finds the true
// neighbors.
type HNSW struct {
	graph   *hnsw.Graph[int]
	vectors [][]float32
	dims    int
}

// NewHNSW builds a graph index over vectors, normalizing each to unit length.
func NewHNSW(vectors [][]float32) (*HNSW, error) {
	owned, dims, err := copyNormalized(vectors)
	if err != nil {
		return nil, err
	}

	graph := hnsw.NewGraph[int]()
	graph.Distance = hnsw.CosineDistance
	graph.M = hnswM
	graph.EfSearch = hnswEfSearch
	graph.Ml = hnswMl

	for id, vec := range owned {
		graph.Add(hnsw.MakeNode(id, vec))
	}

	return &HNSW{graph: graph, vectors: owned, dims: dims}, nil
}

// Search walks the graph for up to breadth candidates and rescores them with
// exact inner products.
func (h *HNSW) Search(ctx context.Context, query []float32, breadth int) ([]Candidate, error) {
	if len(query) != h.dims {
		return nil, ErrDimensionMismatch{Expected: h.dims, Got: len(query)}
	}
	if breadth <= 0 {
		return []Candidate{}, nil
	}
	if breadth > len(h.vectors) {
		breadth = len(h.vectors)
	}

	nodes := h.graph.Search(query, breadth)

	cands := make([]Candidate, 0, len(nodes))
	for _, node := range nodes {
		// Graph order is approximate; the exact product keeps scoring
		// uniform across backends.
		cands = append(cands, Candidate{ID: node.Key, Score: dot(query, h.vectors[node.Key])})
	}
	sortCandidates(cands)
	if len(cands) > breadth {
		cands = cands[:breadth]
	}
	return cands, nil
}

// Dimensions returns the vector width the index was built with.
func (h *HNSW) Dimensions() int {
	return h.dims
}

// Len returns the number of indexed vectors.
func (h *HNSW) Len() int {
	return len(h.vectors)
}

// Verify interface implementation
var _ Index = (*HNSW)(nil)
