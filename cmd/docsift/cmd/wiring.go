package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/docsift/docsift/internal/config"
	"github.com/docsift/docsift/internal/corpus"
	"github.com/docsift/docsift/internal/embed"
	"github.com/docsift/docsift/internal/ingest"
	"github.com/docsift/docsift/internal/lexical"
	"github.com/docsift/docsift/internal/logging"
	"github.com/docsift/docsift/internal/search"
)

// loadConfig loads the effective configuration, honoring the persistent
// --config and --debug flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if debugMode {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

// setupLogging installs the configured logger as the slog default.
func setupLogging(cfg *config.Config) error {
	_, err := logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.AddSource,
	})
	return err
}

// engineConfig maps the file configuration onto the search engine's.
func engineConfig(cfg *config.Config) search.Config {
	return search.Config{
		DefaultTopK:     cfg.Search.DefaultTopK,
		MaxTopK:         cfg.Search.MaxTopK,
		Weight:          cfg.Search.FusionWeight,
		OverfetchFactor: cfg.Search.OverfetchFactor,
		DenseBackend:    cfg.Dense.Backend,
		Lexical: lexical.Config{
			MinDocFreq: cfg.Lexical.MinDocFreq,
			MaxVocab:   cfg.Lexical.MaxVocab,
		},
		EmbedWorkers: cfg.Embeddings.Workers,
	}
}

// buildEngine creates the embedding provider and the search engine.
//
// The embedder is returned alongside the engine so callers can inspect it;
// closing the engine closes the embedder.
func buildEngine(ctx context.Context, cfg *config.Config, opts ...search.EngineOption) (*search.Engine, embed.Embedder, error) {
	embedder, err := embed.NewEmbedder(ctx, embed.Options{
		Provider:     embed.ParseProvider(cfg.Embeddings.Provider),
		Model:        cfg.Embeddings.Model,
		Dimensions:   cfg.Embeddings.Dimensions,
		BaseURL:      cfg.Embeddings.BaseURL,
		Region:       cfg.Embeddings.Region,
		CacheSize:    cfg.Embeddings.CacheSize,
		DisableCache: cfg.Embeddings.DisableCache,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	engine, err := search.NewEngine(embedder, engineConfig(cfg), opts...)
	if err != nil {
		_ = embedder.Close()
		return nil, nil, err
	}

	info := embed.GetInfo(embedder)
	slog.Debug("embedder ready",
		slog.String("provider", info.Provider.String()),
		slog.String("model", info.Model),
		slog.Int("dimensions", info.Dimensions),
		slog.Bool("cached", info.Cached))

	return engine, embedder, nil
}

// loadCorpus reads the configured corpus file, or falls back to the
// embedded demo corpus when no path is set.
func loadCorpus(cfg *config.Config) ([]corpus.Passage, error) {
	if cfg.Corpus.Path == "" {
		slog.Warn("no corpus file configured, serving the embedded demo corpus")
		return ingest.SeedPassages(), nil
	}
	return ingest.LoadFile(cfg.Corpus.Path)
}
