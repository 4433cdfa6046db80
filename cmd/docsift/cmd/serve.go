package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/docsift/docsift/internal/config"
	"github.com/docsift/docsift/internal/embed"
	"github.com/docsift/docsift/internal/ingest"
	"github.com/docsift/docsift/internal/metrics"
	"github.com/docsift/docsift/internal/search"
	"github.com/docsift/docsift/internal/server"
	"github.com/docsift/docsift/internal/watcher"
)

// serveOptions holds CLI flags for serve. Flags override the config file.
type serveOptions struct {
	host    string
	port    int
	corpus  string
	noWatch bool
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP search service",
		Long: `Start the HTTP search service.

Endpoints:
  POST /search   hybrid search over the loaded corpus
  GET  /search   same, with query parameters
  POST /chat     conversational summary of the top results
  GET  /health   readiness and corpus statistics
  GET  /metrics  Prometheus metrics

With corpus watching enabled (the default when a corpus file is
configured), edits to the file rebuild the indices without a restart.

Examples:
  docsift serve
  docsift serve --corpus passages.jsonl --port 9090
  docsift serve --corpus passages.json --no-watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.host, "host", "", "Bind address (overrides config)")
	cmd.Flags().IntVarP(&opts.port, "port", "p", 0, "Listen port (overrides config)")
	cmd.Flags().StringVar(&opts.corpus, "corpus", "", "Corpus file, JSON or JSONL (overrides config)")
	cmd.Flags().BoolVar(&opts.noWatch, "no-watch", false, "Disable corpus file watching")

	return cmd
}

func runServe(ctx context.Context, opts serveOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Flags sit above the config file and environment.
	if opts.host != "" {
		cfg.Server.Host = opts.host
	}
	if opts.port != 0 {
		cfg.Server.Port = opts.port
	}
	if opts.corpus != "" {
		cfg.Corpus.Path = opts.corpus
	}
	if opts.noWatch {
		cfg.Corpus.Watch = false
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := setupLogging(cfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	searchMetrics := metrics.NewSearchMetrics()
	engine, embedder, err := buildEngine(ctx, cfg, search.WithMetrics(searchMetrics))
	if err != nil {
		return err
	}
	defer func() { _ = engine.Close() }()

	if cached, ok := embedder.(*embed.CachedEmbedder); ok {
		metrics.RegisterEmbedCache(cached.Stats)
	}

	passages, err := loadCorpus(cfg)
	if err != nil {
		return fmt.Errorf("failed to load corpus: %w", err)
	}
	if err := engine.Load(ctx, passages); err != nil {
		return fmt.Errorf("failed to build indices: %w", err)
	}

	stats := engine.Stats()
	slog.Info("corpus ready",
		slog.Int("passages", stats.Passages),
		slog.Int("vocabulary", stats.Vocabulary),
		slog.Int("dimensions", stats.Dimensions))

	srv, err := server.New(engine, server.Config{
		Addr:            cfg.Server.Addr(),
		DefaultTopK:     cfg.Search.DefaultTopK,
		ChatTopK:        cfg.Search.ChatTopK,
		ReadTimeout:     config.Duration(cfg.Server.ReadTimeout, 10*time.Second),
		WriteTimeout:    config.Duration(cfg.Server.WriteTimeout, 30*time.Second),
		ShutdownTimeout: config.Duration(cfg.Server.ShutdownTimeout, 10*time.Second),
	})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.Run(gctx)
	})

	if cfg.Corpus.Path != "" && cfg.Corpus.Watch {
		path := cfg.Corpus.Path
		w, err := watcher.New(path, func(ctx context.Context) error {
			passages, err := ingest.LoadFile(path)
			if err != nil {
				return err
			}
			return engine.Load(ctx, passages)
		}, config.Duration(cfg.Corpus.WatchDebounce, watcher.DefaultDebounceWindow))
		if err != nil {
			return err
		}
		g.Go(func() error {
			return w.Run(gctx)
		})
		slog.Info("corpus watcher started", slog.String("path", path))
	}

	return g.Wait()
}
