package dense

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Test Helpers
// ============================================================================

// builders lets every semantics test run against both backends.
var builders = map[string]func([][]float32) (Index, error){
	"flat": func(vs [][]float32) (Index, error) { return NewFlat(vs) },
	"hnsw": func(vs [][]float32) (Index, error) { return NewHNSW(vs) },
}

func oneHotVectors() [][]float32 {
	return [][]float32{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}
}

// ============================================================================
// Construction
// ============================================================================

func TestNew_EmptyVectorsRejected(t *testing.T) {
	for name, build := range builders {
		t.Run(name, func(t *testing.T) {
			_, err := build(nil)
			assert.ErrorIs(t, err, ErrEmptyIndex)

			_, err = build([][]float32{})
			assert.ErrorIs(t, err, ErrEmptyIndex)
		})
	}
}

func TestNew_MixedDimensionsRejected(t *testing.T) {
	for name, build := range builders {
		t.Run(name, func(t *testing.T) {
			_, err := build([][]float32{{1, 0, 0}, {1, 0}})
			require.Error(t, err)

			var mismatch ErrDimensionMismatch
			require.True(t, errors.As(err, &mismatch), "error should be ErrDimensionMismatch, got %T", err)
			assert.Equal(t, 3, mismatch.Expected)
			assert.Equal(t, 2, mismatch.Got)
		})
	}
}

func TestNew_ReportsDimensionsAndLen(t *testing.T) {
	for name, build := range builders {
		t.Run(name, func(t *testing.T) {
			ix, err := build(oneHotVectors())
			require.NoError(t, err)
			assert.Equal(t, 3, ix.Dimensions())
			assert.Equal(t, 3, ix.Len())
		})
	}
}

func TestNew_NormalizesStoredVectors(t *testing.T) {
	for name, build := range builders {
		t.Run(name, func(t *testing.T) {
			// Given: an un-normalized stored vector
			ix, err := build([][]float32{{3, 4, 0}})
			require.NoError(t, err)

			// When: searching with a unit query
			cands, err := ix.Search(context.Background(), []float32{1, 0, 0}, 1)
			require.NoError(t, err)

			// Then: the score reflects the normalized vector (3/5)
			require.Len(t, cands, 1)
			assert.InDelta(t, 0.6, cands[0].Score, 1e-6)
		})
	}
}

// ============================================================================
// Search
// ============================================================================

func TestSearch_RanksByInnerProduct(t *testing.T) {
	for name, build := range builders {
		t.Run(name, func(t *testing.T) {
			ix, err := build(oneHotVectors())
			require.NoError(t, err)

			cands, err := ix.Search(context.Background(), []float32{1, 0, 0}, 3)
			require.NoError(t, err)

			require.Len(t, cands, 3)
			assert.Equal(t, 0, cands[0].ID, "aligned vector should rank first")
			assert.InDelta(t, 1.0, cands[0].Score, 1e-6)
			assert.InDelta(t, 0.0, cands[1].Score, 1e-6)
			assert.InDelta(t, 0.0, cands[2].Score, 1e-6)
		})
	}
}

func TestSearch_TiesBreakByAscendingID(t *testing.T) {
	for name, build := range builders {
		t.Run(name, func(t *testing.T) {
			// Given: two identical vectors and one orthogonal
			vectors := [][]float32{
				{0, 1, 0},
				{1, 0, 0},
				{1, 0, 0},
			}
			ix, err := build(vectors)
			require.NoError(t, err)

			// When: the query ties passages 1 and 2
			cands, err := ix.Search(context.Background(), []float32{1, 0, 0}, 3)
			require.NoError(t, err)

			// Then: the lower passage ID comes first
			require.Len(t, cands, 3)
			assert.Equal(t, 1, cands[0].ID)
			assert.Equal(t, 2, cands[1].ID)
			assert.Equal(t, 0, cands[2].ID)
		})
	}
}

func TestSearch_BreadthClampedToCorpusSize(t *testing.T) {
	for name, build := range builders {
		t.Run(name, func(t *testing.T) {
			ix, err := build(oneHotVectors())
			require.NoError(t, err)

			cands, err := ix.Search(context.Background(), []float32{1, 0, 0}, 100)
			require.NoError(t, err)
			assert.Len(t, cands, 3, "breadth beyond the corpus should return every vector")
		})
	}
}

func TestSearch_NonPositiveBreadthReturnsNothing(t *testing.T) {
	for name, build := range builders {
		t.Run(name, func(t *testing.T) {
			ix, err := build(oneHotVectors())
			require.NoError(t, err)

			for _, breadth := range []int{0, -1} {
				cands, err := ix.Search(context.Background(), []float32{1, 0, 0}, breadth)
				require.NoError(t, err)
				assert.Empty(t, cands)
			}
		})
	}
}

func TestSearch_QueryDimensionMismatch(t *testing.T) {
	for name, build := range builders {
		t.Run(name, func(t *testing.T) {
			ix, err := build(oneHotVectors())
			require.NoError(t, err)

			_, err = ix.Search(context.Background(), []float32{1, 0}, 2)
			require.Error(t, err)

			var mismatch ErrDimensionMismatch
			require.True(t, errors.As(err, &mismatch))
			assert.Equal(t, 3, mismatch.Expected)
			assert.Equal(t, 2, mismatch.Got)
		})
	}
}

func TestSearch_OppositeVectorsScoreNegative(t *testing.T) {
	for name, build := range builders {
		t.Run(name, func(t *testing.T) {
			ix, err := build([][]float32{{-1, 0, 0}})
			require.NoError(t, err)

			cands, err := ix.Search(context.Background(), []float32{1, 0, 0}, 1)
			require.NoError(t, err)
			require.Len(t, cands, 1)
			assert.InDelta(t, -1.0, cands[0].Score, 1e-6)
		})
	}
}

func TestSearch_BackendsAgreeWhenAllCandidatesRequested(t *testing.T) {
	// Given: a small corpus where the graph must find every vector
	vectors := [][]float32{
		{0.9, 0.1, 0.2, 0.1},
		{0.1, 0.8, 0.1, 0.3},
		{0.2, 0.2, 0.7, 0.1},
		{0.4, 0.4, 0.4, 0.4},
		{0.1, 0.1, 0.1, 0.9},
		{0.7, 0.7, 0.1, 0.1},
		{0.3, 0.1, 0.9, 0.2},
		{0.5, 0.5, 0.5, 0.1},
	}
	query := []float32{0.6, 0.3, 0.5, 0.2}
	Normalize(query)

	flat, err := NewFlat(vectors)
	require.NoError(t, err)
	graph, err := NewHNSW(vectors)
	require.NoError(t, err)

	// When: both backends return the full corpus
	exact, err := flat.Search(context.Background(), query, len(vectors))
	require.NoError(t, err)
	approx, err := graph.Search(context.Background(), query, len(vectors))
	require.NoError(t, err)

	// Then: order and scores match because hnsw rescores exactly
	require.Len(t, approx, len(exact))
	for i := range exact {
		assert.Equal(t, exact[i].ID, approx[i].ID, "rank %d", i)
		assert.InDelta(t, exact[i].Score, approx[i].Score, 1e-6, "rank %d", i)
	}
}

// ============================================================================
// Normalize
// ============================================================================

func TestNormalize_ScalesToUnitLength(t *testing.T) {
	v := []float32{3, 4}
	Normalize(v)
	assert.InDelta(t, 0.6, v[0], 1e-6)
	assert.InDelta(t, 0.8, v[1], 1e-6)
}

func TestNormalize_LeavesZeroVectorAlone(t *testing.T) {
	v := []float32{0, 0, 0}
	Normalize(v)
	assert.Equal(t, []float32{0, 0, 0}, v)
}

func TestNormalize_UnitVectorUnchanged(t *testing.T) {
	v := []float32{1, 0, 0}
	Normalize(v)
	assert.InDelta(t, 1.0, v[0], 1e-6)
	assert.InDelta(t, 0.0, v[1], 1e-6)
	assert.InDelta(t, 0.0, v[2], 1e-6)
}

// ============================================================================
// Benchmarks
// ============================================================================

func BenchmarkFlatSearch(b *testing.B) {
	rng := rand.New(rand.NewSource(42))

	vectors := make([][]float32, 1000)
	for i := range vectors {
		v := make([]float32, 256)
		for j := range v {
			v[j] = rng.Float32()
		}
		vectors[i] = v
	}
	flat, err := NewFlat(vectors)
	if err != nil {
		b.Fatal(err)
	}

	query := make([]float32, 256)
	for j := range query {
		query[j] = rng.Float32()
	}
	Normalize(query)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := flat.Search(ctx, query, 20); err != nil {
			b.Fatal(err)
		}
	}
}
