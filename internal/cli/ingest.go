package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ppiankov/reconcilia/internal/model"
	"github.com/ppiankov/reconcilia/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	separator   string
	tau         float64
	relTol      float64
	simProvider string
	simModel    string
	simTimeout  time.Duration
	httpTimeout time.Duration
	userAgent   string
	maxBytes    int64
	noCache     bool
	noRobots    bool
	noFooter    bool
	workers     int
	outJSON     string
	outMD       string
)

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest <source>",
	Short: "Ingest a corpus and report the reconciled knowledge state",
	Long: `Ingest reads a concatenated article export from a file, an HTTP(S) URL
or stdin ("-"), rebuilds the knowledge state from scratch and prints a
summary of documents, topics, claims and conflicts.

Example:
  reconcilia ingest kb-export.txt
  reconcilia ingest https://kb.example.com/export.txt --json snapshot.json
  cat export.txt | reconcilia ingest - --separator "=== ARTICLE BREAK ===" --md audit.md`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	addCorpusFlags(ingestCmd)

	// Output flags
	ingestCmd.Flags().StringVar(&outJSON, "json", "", "output snapshot JSON path (optional)")
	ingestCmd.Flags().StringVar(&outMD, "md", "", "output audit Markdown path (optional)")
}

// addCorpusFlags registers the flags shared by every command that builds a
// snapshot from a source.
func addCorpusFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&separator, "separator", model.DefaultSeparator, "inter-document separator token")
	cmd.Flags().Float64Var(&tau, "threshold", 0.6, "similarity threshold for topic membership and query mapping")
	cmd.Flags().Float64Var(&relTol, "tolerance", 0, "relative tolerance for numeric claim comparison (0 = exact)")
	cmd.Flags().StringVar(&simProvider, "similarity", "lexical", "similarity provider (lexical, openai)")
	cmd.Flags().StringVar(&simModel, "model", "text-embedding-3-small", "embedding model for the openai provider")
	cmd.Flags().DurationVar(&simTimeout, "similarity-timeout", 10*time.Second, "per-call similarity budget (timeouts fail closed)")
	cmd.Flags().DurationVar(&httpTimeout, "timeout", 30*time.Second, "HTTP fetch timeout for URL sources")
	cmd.Flags().StringVar(&userAgent, "ua", "Reconcilia/0.1 (+https://github.com/ppiankov/reconcilia)", "HTTP User-Agent")
	cmd.Flags().Int64Var(&maxBytes, "max-bytes", 4_000_000, "max response bytes to read from a URL source")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable fetch and similarity caches")
	cmd.Flags().BoolVar(&noRobots, "no-robots", false, "skip robots.txt checks for URL sources")
	cmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
	cmd.Flags().IntVar(&workers, "workers", 0, "extraction worker count (0 = CPU count)")
}

// buildConfig assembles configuration from defaults and flags.
func buildConfig() *model.Config {
	cfg := model.DefaultConfig()
	cfg.Ingest.Separator = separator
	cfg.Topics.Threshold = tau
	cfg.Conflicts.RelativeTolerance = relTol
	cfg.Similarity.Provider = simProvider
	cfg.Similarity.Model = simModel
	cfg.Similarity.Timeout = simTimeout
	cfg.HTTP.Timeout = httpTimeout
	cfg.HTTP.UserAgent = userAgent
	cfg.HTTP.MaxBodyBytes = maxBytes
	cfg.HTTP.RespectRobots = !noRobots
	cfg.Cache.Enabled = !noCache
	if workers > 0 {
		cfg.Concurrency.ExtractionWorkers = workers
	}
	cfg.Output.Verbose = verbose
	cfg.Output.IncludeFooter = !noFooter
	return cfg
}

func runIngest(cmd *cobra.Command, args []string) error {
	source := args[0]
	cfg := buildConfig()

	p, err := pipeline.New(cfg)
	if err != nil {
		return err
	}

	snap, err := p.IngestSource(context.Background(), source)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	pipeline.PrintSummary(os.Stdout, snap)

	if outJSON != "" {
		f, err := os.Create(outJSON)
		if err != nil {
			return fmt.Errorf("creating %s: %w", outJSON, err)
		}
		defer func() { _ = f.Close() }()
		if err := pipeline.WriteSnapshotJSON(f, snap); err != nil {
			return fmt.Errorf("writing %s: %w", outJSON, err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "Wrote snapshot: %s\n", outJSON)
		}
	}

	if outMD != "" {
		report := pipeline.AuditMarkdown(snap, cfg.Output.IncludeFooter)
		if err := os.WriteFile(outMD, []byte(report), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", outMD, err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "Wrote audit: %s\n", outMD)
		}
	}

	return nil
}
