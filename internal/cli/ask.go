package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/ppiankov/reconcilia/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	corpusSource string
	answerJSON   bool
)

// askCmd represents the ask command
var askCmd = &cobra.Command{
	Use:   "ask <query>",
	Short: "Answer a free-text question from an ingested corpus",
	Long: `Ask ingests the corpus named by --corpus, maps the query onto a claimed
subject and answers it with a citation.

The answer status is one of:
  ANSWERED  the corpus agrees, or arbitration picked a clear winner
  CONFLICT  documents disagree and authority scores tie; all sides are shown
  UNKNOWN   no claimed subject matches the query

Example:
  reconcilia ask "how long is the password reset link valid" --corpus kb-export.txt
  reconcilia ask "api rate limit" --corpus https://kb.example.com/export.txt --json-answer`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	addCorpusFlags(askCmd)

	askCmd.Flags().StringVar(&corpusSource, "corpus", "", "corpus source: file path, URL or \"-\" for stdin (required)")
	askCmd.Flags().BoolVar(&answerJSON, "json-answer", false, "print the answer as JSON")
	_ = askCmd.MarkFlagRequired("corpus")
}

func runAsk(cmd *cobra.Command, args []string) error {
	query := args[0]
	cfg := buildConfig()

	p, err := pipeline.New(cfg)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if _, err := p.IngestSource(ctx, corpusSource); err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	answer, err := p.Ask(ctx, query)
	if err != nil {
		return err
	}

	if answerJSON {
		return pipeline.WriteAnswerJSON(os.Stdout, answer)
	}
	fmt.Print(pipeline.RenderAnswer(answer))
	return nil
}
