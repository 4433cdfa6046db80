// Package cmd provides the CLI commands for docsift.
package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/docsift/docsift/pkg/version"
)

// Persistent flags shared by every command.
var (
	configPath string
	debugMode  bool
)

// NewRootCmd creates the root command for the docsift CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docsift",
		Short: "Hybrid search over document passages",
		Long: `DocSift ranks document passages with hybrid retrieval: dense embedding
similarity blended with lexical TF-IDF scoring, plus term highlighting.

It works out of the box: with no corpus file configured, 'docsift serve'
answers queries against a small embedded demo corpus using deterministic
offline embeddings. Point it at a JSON or JSONL passage file to search
your own documents.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			// A .env in the working directory can carry OPENAI_API_KEY
			// and friends; absence is not an error.
			_ = godotenv.Load()
		},
	}

	cmd.SetVersionTemplate("docsift version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: ./docsift.yaml)")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
