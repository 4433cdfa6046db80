// Package embed turns passages and queries into vectors. Providers share the
// Embedder interface so the engine never knows which backend produced a
// vector.
package embed

import (
	"context"
	"math"
)

// Common embedding constants
const (
	// DefaultBatchSize is how many texts go into one provider request.
	DefaultBatchSize = 32

	// MaxBatchSize caps a single provider request (prevents memory
	// exhaustion and oversized API payloads).
	MaxBatchSize = 256

	// DefaultMaxConcurrency limits parallel provider requests for backends
	// that embed one text per call.
	DefaultMaxConcurrency = 4

	// StaticDimensions is the embedding dimension for the static embedder.
	StaticDimensions = 256
)

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed generates an embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, preserving order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding dimension.
	Dimensions() int

	// ModelName returns the model identifier.
	ModelName() string

	// Close releases resources.
	Close() error
}

// normalizeVector scales a vector to unit length, returning a new slice.
// Zero vectors are returned as is.
func normalizeVector(v []float32) []float32 {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}

	magnitude := math.Sqrt(sumSquares)
	if magnitude == 0 {
		return v
	}

	normalized := make([]float32, len(v))
	for i, val := range v {
		normalized[i] = float32(float64(val) / magnitude)
	}
	return normalized
}
