package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/ppiankov/reconcilia/internal/pipeline"
	"github.com/spf13/cobra"
)

// auditCmd represents the audit command
var auditCmd = &cobra.Command{
	Use:   "audit <source>",
	Short: "Ingest a corpus and print the full reconciliation audit",
	Long: `Audit ingests a corpus and prints the Markdown reconciliation report to
stdout: every document with its authority score, the topic clusters, every
extracted claim, and each conflict with its arbitration outcome.

Example:
  reconcilia audit kb-export.txt
  reconcilia audit kb-export.txt > audit.md`,
	Args: cobra.ExactArgs(1),
	RunE: runAudit,
}

func init() {
	rootCmd.AddCommand(auditCmd)
	addCorpusFlags(auditCmd)
}

func runAudit(cmd *cobra.Command, args []string) error {
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

	fmt.Fprint(os.Stdout, pipeline.AuditMarkdown(snap, cfg.Output.IncludeFooter))
	return nil
}
