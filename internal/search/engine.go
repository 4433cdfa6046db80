package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"golang.org/x/sync/errgroup"

	"github.com/docsift/docsift/internal/corpus"
	"github.com/docsift/docsift/internal/dense"
	"github.com/docsift/docsift/internal/embed"
	"github.com/docsift/docsift/internal/highlight"
	"github.com/docsift/docsift/internal/lexical"
	"github.com/docsift/docsift/internal/metrics"
)

// ErrNilDependency is returned when a required dependency is nil.
var ErrNilDependency = errors.New("nil dependency")

// generation bundles one corpus snapshot with the two indices built from it.
// A generation is immutable once constructed; a query holds the pointer it
// read for its whole lifetime, so a concurrent swap can never mix snapshots.
type generation struct {
	store   *corpus.Store
	lexical *lexical.Index
	dense   dense.Index
}

// Engine answers hybrid queries over the most recently loaded corpus.
type Engine struct {
	embedder embed.Embedder
	config   Config
	metrics  *metrics.SearchMetrics

	current atomic.Pointer[generation]

	// rebuildMu serializes loads. A load requested while another is in
	// flight queues behind it instead of failing.
	rebuildMu sync.Mutex

	embedPool *ants.Pool
}

// Ensure Engine implements the Searcher interface.
var _ Searcher = (*Engine)(nil)

// EngineOption configures the search engine.
type EngineOption func(*Engine)

// WithMetrics sets an optional collector for query and rebuild telemetry.
func WithMetrics(m *metrics.SearchMetrics) EngineOption {
	return func(e *Engine) {
		e.metrics = m
	}
}

// NewEngine creates a hybrid search engine around the given embedder.
// Zero-valued config fields fall back to their defaults.
func NewEngine(embedder embed.Embedder, cfg Config, opts ...EngineOption) (*Engine, error) {
	if embedder == nil {
		return nil, fmt.Errorf("%w: embedder is required", ErrNilDependency)
	}
	cfg = cfg.withDefaults()

	pool, err := ants.NewPool(cfg.EmbedWorkers)
	if err != nil {
		return nil, fmt.Errorf("create embed pool: %w", err)
	}

	e := &Engine{
		embedder:  embedder,
		config:    cfg,
		embedPool: pool,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Load replaces the corpus in one step: the new generation is built off to
// the side and swapped in atomically, so queries in flight keep the snapshot
// they started with. Concurrent loads are serialized in arrival order.
func (e *Engine) Load(ctx context.Context, passages []corpus.Passage) error {
	e.rebuildMu.Lock()
	defer e.rebuildMu.Unlock()

	start := time.Now()

	store, err := corpus.Load(passages)
	if err != nil {
		return err
	}
	texts := store.Texts()

	lex := lexical.Build(texts, e.config.Lexical)

	vectors, err := e.embedCorpus(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed corpus: %w", err)
	}

	dns, err := dense.New(e.config.DenseBackend, vectors)
	if err != nil {
		return fmt.Errorf("build dense index: %w", err)
	}

	e.current.Store(&generation{store: store, lexical: lex, dense: dns})

	elapsed := time.Since(start)
	if e.metrics != nil {
		e.metrics.ObserveRebuild(store.Len(), elapsed)
	}
	slog.Info("corpus rebuild complete",
		slog.Int("passages", store.Len()),
		slog.Int("vocabulary", lex.VocabSize()),
		slog.Int("dimensions", dns.Dimensions()),
		slog.Duration("duration", elapsed))

	return nil
}

// embedCorpus embeds every passage text in batches spread over the worker
// pool, preserving input order: batch i's vectors land at the offsets its
// texts came from.
func (e *Engine) embedCorpus(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	for begin := 0; begin < len(texts); begin += embed.DefaultBatchSize {
		begin := begin
		end := min(begin+embed.DefaultBatchSize, len(texts))

		wg.Add(1)
		submitErr := e.embedPool.Submit(func() {
			defer wg.Done()
			batch, embedErr := e.embedder.EmbedBatch(ctx, texts[begin:end])
			if embedErr != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("passages %d-%d: %w", begin, end-1, embedErr)
				}
				mu.Unlock()
				return
			}
			copy(vectors[begin:end], batch)
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			if firstErr == nil {
				firstErr = fmt.Errorf("submit embed batch: %w", submitErr)
			}
			mu.Unlock()
			break
		}
	}

	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	return vectors, nil
}

// Query runs one hybrid search against the generation captured at entry.
// The lexical pass and the embed+dense pass run concurrently; fusion waits
// for both, then each surviving passage is materialized and highlighted.
// Collaborator failures propagate; an empty result list is success.
func (e *Engine) Query(ctx context.Context, text string, opts Options) (results []Result, err error) {
	start := time.Now()
	defer func() {
		if e.metrics == nil {
			return
		}
		outcome := metrics.OutcomeOK
		if err != nil {
			outcome = metrics.OutcomeError
		}
		e.metrics.ObserveQuery(outcome, len(results), time.Since(start))
	}()

	gen := e.current.Load()
	if gen == nil {
		return nil, ErrNotReady
	}

	k, w, err := e.resolve(opts)
	if err != nil {
		return nil, err
	}

	// The length floor is checked before anything else so an all-short
	// query fails without an embedding round-trip.
	if len(lexical.Tokenize(text)) == 0 {
		return nil, fmt.Errorf("tokenize query: %w", lexical.ErrEmptyQuery)
	}

	breadth := k * e.config.OverfetchFactor

	var (
		lexScores  map[int]float64
		candidates []dense.Candidate
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		scores, scoreErr := gen.lexical.Score(text)
		if scoreErr != nil {
			return fmt.Errorf("lexical score: %w", scoreErr)
		}
		lexScores = scores
		return nil
	})
	g.Go(func() error {
		vector, embedErr := e.embedder.Embed(gctx, text)
		if embedErr != nil {
			return &EmbeddingError{Err: embedErr}
		}
		// The dense index expects a unit-length query vector.
		dense.Normalize(vector)
		hits, searchErr := gen.dense.Search(gctx, vector, breadth)
		if searchErr != nil {
			return fmt.Errorf("dense search: %w", searchErr)
		}
		candidates = hits
		return nil
	})
	if waitErr := g.Wait(); waitErr != nil {
		return nil, waitErr
	}

	fused, err := Fuse(candidates, lexScores, w, k)
	if err != nil {
		return nil, err
	}

	results = make([]Result, 0, len(fused))
	for _, f := range fused {
		passage, getErr := gen.store.Get(f.ID)
		if getErr != nil {
			return nil, fmt.Errorf("materialize passage %d: %w", f.ID, getErr)
		}
		results = append(results, Result{
			Passage:      passage,
			Score:        f.Score,
			DenseScore:   f.Dense,
			LexicalScore: f.Lexical,
			Highlighted:  highlight.Annotate(passage.Text, text),
		})
	}

	slog.Debug("search complete",
		slog.String("query", truncate(text, 80)),
		slog.Int("results", len(results)),
		slog.Duration("duration", time.Since(start)))

	return results, nil
}

// resolve validates per-query options against the engine configuration.
func (e *Engine) resolve(opts Options) (k int, w float64, err error) {
	k = opts.TopK
	if k <= 0 {
		return 0, 0, fmt.Errorf("%w: got %d", ErrInvalidK, k)
	}
	if k > e.config.MaxTopK {
		k = e.config.MaxTopK
	}
	w = e.config.Weight
	if opts.Weight != nil {
		w = *opts.Weight
	}
	if w < 0 || w > 1 {
		return 0, 0, fmt.Errorf("%w: got %g", ErrInvalidWeight, w)
	}
	return k, w, nil
}

// Ready reports whether a corpus has been loaded.
func (e *Engine) Ready() bool {
	return e.current.Load() != nil
}

// Stats returns a snapshot of the current generation.
func (e *Engine) Stats() Stats {
	gen := e.current.Load()
	if gen == nil {
		return Stats{}
	}
	return Stats{
		Ready:      true,
		Passages:   gen.store.Len(),
		Vocabulary: gen.lexical.VocabSize(),
		Dimensions: gen.dense.Dimensions(),
	}
}

// Close releases the embedding worker pool and the embedder.
func (e *Engine) Close() error {
	e.embedPool.Release()
	return e.embedder.Close()
}

// truncate shortens s for log output.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
