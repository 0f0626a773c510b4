package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/ppiankov/reconcilia/internal/model"
	"github.com/ppiankov/reconcilia/internal/resolve"
)

// WriteSnapshotJSON writes the full snapshot as indented JSON.
func WriteSnapshotJSON(w io.Writer, snap *model.Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}

// WriteAnswerJSON writes a query answer as indented JSON.
func WriteAnswerJSON(w io.Writer, answer resolve.Answer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(answer)
}

// AuditMarkdown renders a human-readable reconciliation report: documents
// with their authority scores, topics, conflicts with their arbitration
// outcome, and ingestion warnings.
func AuditMarkdown(snap *model.Snapshot, includeFooter bool) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Corpus Reconciliation Audit\n\n")
	fmt.Fprintf(&b, "Snapshot v%d, built %s.\n\n", snap.Version, snap.BuiltAt.Format("2006-01-02 15:04:05 UTC"))

	fmt.Fprintf(&b, "## Documents (%d)\n\n", len(snap.Documents))
	fmt.Fprintf(&b, "| ID | Title | Freshness | Authority |\n")
	fmt.Fprintf(&b, "|----|-------|-----------|----------|\n")
	for _, doc := range snap.Documents {
		fmt.Fprintf(&b, "| %s | %s | %s | %.2f |\n",
			doc.ID, escapeCell(doc.Title), doc.Freshness, snap.ScoreFor(doc.ID))
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "## Topics (%d)\n\n", len(snap.Topics))
	for _, t := range snap.Topics {
		fmt.Fprintf(&b, "- **%s** %s: %s\n", t.ID, escapeCell(t.Label), strings.Join(t.MemberIDs, ", "))
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "## Claims (%d)\n\n", len(snap.Claims))
	fmt.Fprintf(&b, "| ID | Document | Subject | Value |\n")
	fmt.Fprintf(&b, "|----|----------|---------|-------|\n")
	for _, c := range snap.Claims {
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", c.ID, c.DocumentID, c.Subject, escapeCell(c.Value.String()))
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "## Conflicts (%d)\n\n", len(snap.Conflicts))
	if len(snap.Conflicts) == 0 {
		b.WriteString("The corpus is internally consistent.\n\n")
	}
	for _, rec := range snap.Conflicts {
		fmt.Fprintf(&b, "### %s (%s)\n\n", rec.Subject, rec.Resolution)
		for _, id := range rec.ClaimIDs {
			claim := snap.ClaimByID(id)
			if claim == nil {
				continue
			}
			marker := ""
			if rec.Resolution == model.ResolutionResolved && id == rec.WinningClaimID {
				marker = " ← winner"
			}
			fmt.Fprintf(&b, "- %s (%s, authority %.2f): %s%s\n",
				claim.DocumentID, id, snap.ScoreFor(claim.DocumentID), escapeCell(claim.Value.String()), marker)
		}
		b.WriteString("\n")
	}

	if len(snap.Warnings) > 0 {
		fmt.Fprintf(&b, "## Warnings (%d)\n\n", len(snap.Warnings))
		for _, w := range snap.Warnings {
			fmt.Fprintf(&b, "- %s\n", w.String())
		}
		b.WriteString("\n")
	}

	if includeFooter {
		b.WriteString("---\n\nGenerated by reconcilia. Authority scores are heuristic estimates, not ground truth.\n")
	}
	return b.String()
}

// RenderAnswer formats a query answer for the terminal.
func RenderAnswer(answer resolve.Answer) string {
	var b strings.Builder
	switch answer.Status {
	case resolve.StatusAnswered:
		fmt.Fprintf(&b, "ANSWERED %s = %s\n", answer.Subject, answer.Value.String())
		fmt.Fprintf(&b, "  source: %s (%s)\n", answer.Citation, answer.ClaimID)
		if len(answer.Dissenting) > 0 {
			fmt.Fprintf(&b, "  dissenting: %s\n", strings.Join(answer.Dissenting, ", "))
		}
	case resolve.StatusConflict:
		fmt.Fprintf(&b, "CONFLICT %s\n", answer.Subject)
		for _, c := range answer.Claims {
			fmt.Fprintf(&b, "  %s says %s (%s)\n", c.DocumentID, c.Value.String(), c.ID)
		}
	default:
		b.WriteString("UNKNOWN\n")
	}
	if answer.Note != "" {
		fmt.Fprintf(&b, "  note: %s\n", answer.Note)
	}
	return b.String()
}

// PrintSummary writes a one-screen ingestion summary.
func PrintSummary(w io.Writer, snap *model.Snapshot) {
	fmt.Fprintf(w, "Snapshot v%d\n", snap.Version)
	fmt.Fprintf(w, "  documents: %d\n", len(snap.Documents))
	fmt.Fprintf(w, "  topics:    %d\n", len(snap.Topics))
	fmt.Fprintf(w, "  claims:    %d\n", len(snap.Claims))
	resolved := 0
	for _, rec := range snap.Conflicts {
		if rec.Resolution == model.ResolutionResolved {
			resolved++
		}
	}
	fmt.Fprintf(w, "  conflicts: %d (%d resolved)\n", len(snap.Conflicts), resolved)
	if len(snap.Warnings) > 0 {
		fmt.Fprintf(w, "  warnings:  %d\n", len(snap.Warnings))
	}
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}
