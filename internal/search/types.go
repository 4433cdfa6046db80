// Package search implements hybrid retrieval over one immutable corpus
// generation: a dense embedding pass and a lexical TF-IDF pass run side by
// side, and a weighted linear blend merges the two signals into a single
// ranking.
package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/docsift/docsift/internal/corpus"
	"github.com/docsift/docsift/internal/dense"
	"github.com/docsift/docsift/internal/embed"
	"github.com/docsift/docsift/internal/lexical"
)

// Sentinel errors surfaced by the query pipeline. Gateways map these to
// their own external representation; the engine never formats user-facing
// messages.
var (
	// ErrNotReady is returned when a query arrives before the first corpus
	// load has completed.
	ErrNotReady = errors.New("search: no corpus loaded")

	// ErrInvalidWeight is returned when the fusion weight falls outside [0, 1].
	ErrInvalidWeight = errors.New("search: fusion weight must be in [0, 1]")

	// ErrInvalidK is returned when the requested result count is not positive.
	ErrInvalidK = errors.New("search: result count must be positive")
)

// EmbeddingError reports that the embedding provider failed while embedding
// the query. The provider's error is preserved for errors.Is/errors.As. The
// pipeline fails the whole query on embedding failure; it never degrades to
// lexical-only scoring on its own.
type EmbeddingError struct {
	Err error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("search: query embedding failed: %v", e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

// Result is one ranked passage with its fused and per-signal scores.
type Result struct {
	// Passage is the stored passage, exactly as loaded.
	Passage corpus.Passage

	// Score is the fused score: w*DenseScore + (1-w)*LexicalScore.
	Score float64

	// DenseScore is the inner-product similarity from the dense index,
	// zero when the passage was not among the dense candidates.
	DenseScore float64

	// LexicalScore is the TF-IDF cosine similarity, zero when the passage
	// shares no vocabulary terms with the query.
	LexicalScore float64

	// Highlighted is the passage text with query terms wrapped in markers.
	Highlighted string
}

// Options configures a single query.
type Options struct {
	// TopK is the maximum number of results. It must be positive; callers
	// that accept an optional count substitute Config.DefaultTopK before
	// calling Query. Values above Config.MaxTopK are clamped.
	TopK int

	// Weight overrides the engine's fusion weight for this query.
	// nil keeps the configured default.
	Weight *float64
}

// Config configures the search engine.
type Config struct {
	// DefaultTopK is the result count callers use when a request does not
	// ask for a specific number (default: 5).
	DefaultTopK int

	// MaxTopK caps the per-query result count (default: 100).
	MaxTopK int

	// Weight is the dense share of the fused score, in [0, 1]. The lexical
	// share is 1-Weight (default: 0.7).
	Weight float64

	// OverfetchFactor sizes the dense candidate pool as OverfetchFactor*k.
	// Minimum 2: fusion can promote a lexically strong passage from deep in
	// the dense ranking, so the pool has to reach past the cut line
	// (default: 2).
	OverfetchFactor int

	// DenseBackend selects the dense index implementation:
	// "flat", "hnsw", or "auto" (default: "auto").
	DenseBackend string

	// Lexical configures vocabulary construction for the lexical index.
	Lexical lexical.Config

	// EmbedWorkers bounds concurrent passage embedding during Load
	// (default: embed.DefaultMaxConcurrency).
	EmbedWorkers int
}

// DefaultConfig returns the engine defaults. The 0.7 dense weight and the
// 2x over-fetch factor are tunable starting points, not invariants.
func DefaultConfig() Config {
	return Config{
		DefaultTopK:     5,
		MaxTopK:         100,
		Weight:          0.7,
		OverfetchFactor: 2,
		DenseBackend:    string(dense.BackendAuto),
		Lexical:         lexical.DefaultConfig(),
		EmbedWorkers:    embed.DefaultMaxConcurrency,
	}
}

// withDefaults fills zero-valued fields from DefaultConfig. Weight is left
// alone: zero is a valid, lexical-only setting.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.DefaultTopK <= 0 {
		c.DefaultTopK = def.DefaultTopK
	}
	if c.MaxTopK <= 0 {
		c.MaxTopK = def.MaxTopK
	}
	if c.OverfetchFactor < 2 {
		c.OverfetchFactor = def.OverfetchFactor
	}
	if c.DenseBackend == "" {
		c.DenseBackend = def.DenseBackend
	}
	if c.EmbedWorkers <= 0 {
		c.EmbedWorkers = def.EmbedWorkers
	}
	return c
}

// Stats describes the engine's current generation.
type Stats struct {
	// Ready reports whether a corpus has been loaded.
	Ready bool

	// Passages is the number of passages in the current generation.
	Passages int

	// Vocabulary is the lexical index's term count.
	Vocabulary int

	// Dimensions is the dense index's vector width.
	Dimensions int
}

// Searcher is the query surface gateways and CLIs depend on.
type Searcher interface {
	// Query runs one hybrid search and returns at most opts.TopK results.
	Query(ctx context.Context, text string, opts Options) ([]Result, error)

	// Load replaces the corpus and rebuilds both indices atomically.
	Load(ctx context.Context, passages []corpus.Passage) error

	// Stats returns a snapshot of the current generation.
	Stats() Stats

	// Ready reports whether the engine can serve queries.
	Ready() bool
}
