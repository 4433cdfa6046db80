package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/docsift/docsift/internal/search"
	"github.com/docsift/docsift/internal/ui"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	limit  int
	weight float64 // negative means "use the configured default"
	format string  // "text", "json"
	plain  bool    // suppress terminal styling even on a TTY
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the corpus from the command line",
		Long: `Search the corpus with hybrid retrieval.

Dense embedding similarity and lexical TF-IDF scores are blended into a
single ranking; matched query terms are highlighted in each passage.

Examples:
  docsift search "data retention policy"
  docsift search "breach notification" --limit 3
  docsift search "consent" --weight 0 --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return runSearch(cmd.Context(), cmd, query, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Maximum number of results (default: from config)")
	cmd.Flags().Float64VarP(&opts.weight, "weight", "w", -1, "Dense share of the fused score, 0..1 (default: from config)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")
	cmd.Flags().BoolVar(&opts.plain, "plain", false, "Disable terminal styling, keep <mark> tags")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, query string, opts searchOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Keep stderr quiet for one-shot CLI use; --debug restores verbosity.
	if !debugMode {
		cfg.Logging.Level = "warn"
	}
	if err := setupLogging(cfg); err != nil {
		return err
	}

	engine, _, err := buildEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = engine.Close() }()

	passages, err := loadCorpus(cfg)
	if err != nil {
		return fmt.Errorf("failed to load corpus: %w", err)
	}
	if err := engine.Load(ctx, passages); err != nil {
		return fmt.Errorf("failed to build indices: %w", err)
	}

	searchOpts := search.Options{TopK: cfg.Search.DefaultTopK}
	if opts.limit > 0 {
		searchOpts.TopK = opts.limit
	}
	if opts.weight >= 0 {
		w := opts.weight
		searchOpts.Weight = &w
	}

	results, err := engine.Query(ctx, query, searchOpts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	switch opts.format {
	case "json":
		return formatJSON(cmd, results)
	default:
		return formatText(cmd, query, results, opts.plain)
	}
}

// formatText renders results for humans: styled highlights on a TTY,
// marker tags preserved when piped or with --plain.
func formatText(cmd *cobra.Command, query string, results []search.Result, plain bool) error {
	out := ui.NewWriter(cmd.OutOrStdout())

	if len(results) == 0 {
		out.Statusf("", "No results found for %q", query)
		return nil
	}

	styled := !plain && ui.IsTTY(cmd.OutOrStdout()) && !ui.DetectNoColor()
	st := ui.GetStyles(!styled)

	out.Statusf("🔍", "%s", st.Header.Render(fmt.Sprintf("Found %d results for %q:", len(results), query)))
	out.Newline()

	for i, r := range results {
		title := r.Passage.Source
		if r.Passage.Location != "" {
			title = fmt.Sprintf("%s (%s)", r.Passage.Source, r.Passage.Location)
		}
		out.Statusf("", "%d. %s %s",
			i+1,
			st.Source.Render(title),
			st.Score.Render(fmt.Sprintf("(score: %.3f)", r.Score)))

		text := r.Highlighted
		if styled {
			text = ui.RenderHighlights(text, st.Highlight)
		}
		for _, line := range strings.Split(text, "\n") {
			out.Status("", "   "+line)
		}

		if r.Passage.Link != "" {
			out.Status("", "   "+st.Link.Render(r.Passage.Link))
		}
		out.Newline()
	}

	return nil
}

// formatJSON renders results for scripts.
func formatJSON(cmd *cobra.Command, results []search.Result) error {
	type jsonResult struct {
		Source       string  `json:"source"`
		Location     string  `json:"location,omitempty"`
		Text         string  `json:"text"`
		Link         string  `json:"link,omitempty"`
		Score        float64 `json:"score"`
		DenseScore   float64 `json:"dense_score"`
		LexicalScore float64 `json:"lexical_score"`
		Highlighted  string  `json:"highlighted_text"`
	}

	output := make([]jsonResult, 0, len(results))
	for _, r := range results {
		output = append(output, jsonResult{
			Source:       r.Passage.Source,
			Location:     r.Passage.Location,
			Text:         r.Passage.Text,
			Link:         r.Passage.Link,
			Score:        r.Score,
			DenseScore:   r.DenseScore,
			LexicalScore: r.LexicalScore,
			Highlighted:  r.Highlighted,
		})
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}
