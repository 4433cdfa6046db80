package dense

import "fmt"

// Backend represents the dense index backend type.
type Backend string

const (
	// BackendFlat scans every vector with exact inner products (default).
	// Deterministic and fast enough for corpora in the tens of thousands.
	BackendFlat Backend = "flat"

	// BackendHNSW walks an approximate small-world graph. Worth it for
	// large corpora where a full scan per query becomes noticeable.
	BackendHNSW Backend = "hnsw"

	// BackendAuto picks flat below AutoThreshold vectors, hnsw above.
	BackendAuto Backend = "auto"
)

// AutoThreshold is the corpus size at which BackendAuto switches from the
// exact scan to the graph.
const AutoThreshold = 10000

// New creates a dense Index over vectors using the specified backend.
//
// backend options:
//   - "flat" (default): exact brute-force scan
//   - "hnsw": approximate graph with exact rescoring
//   - "auto": flat for small corpora, hnsw beyond AutoThreshold
func New(backend string, vectors [][]float32) (Index, error) {
	switch backend {
	case string(BackendFlat), "":
		return NewFlat(vectors)

	case string(BackendHNSW):
		return NewHNSW(vectors)

	case string(BackendAuto):
		if len(vectors) > AutoThreshold {
			return NewHNSW(vectors)
		}
		return NewFlat(vectors)

	default:
		return nil, fmt.Errorf("unknown dense backend: %s (valid options: flat, hnsw, auto)", backend)
	}
}
