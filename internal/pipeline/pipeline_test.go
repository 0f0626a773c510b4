package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/reconcilia/internal/model"
	"github.com/ppiankov/reconcilia/internal/resolve"
)

func testPipeline(t *testing.T) *Pipeline {
	t.Helper()
	cfg := model.DefaultConfig()
	cfg.Concurrency.ExtractionWorkers = 2
	p, err := New(cfg)
	if err != nil {
		t.Fatalf("pipeline construction failed: %v", err)
	}
	return p
}

// resetCorpus: two password-reset articles that disagree on the method
// (stale SMS guidance vs current magic-link guidance) plus an unrelated
// webhook article.
const resetCorpus = `# Password Reset

STALE: superseded by newer guidance.
To reset your password we send a 6-digit code by SMS code. The code expires after 10 minutes.

=== ARTICLE BREAK ===

# Password Reset Help

Verified current as of March.
To reset your password we send a magic link. The magic link expires after 15 minutes.

=== ARTICLE BREAK ===

# Webhook Delivery

Failed webhook deliveries are retried up to 5 times.
`

func TestIngest_EndToEnd(t *testing.T) {
	p := testPipeline(t)
	snap, err := p.Ingest(context.Background(), resetCorpus)
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	if snap.Version != 1 {
		t.Errorf("expected snapshot version 1, got %d", snap.Version)
	}
	if len(snap.Documents) != 3 {
		t.Fatalf("expected 3 documents, got %d", len(snap.Documents))
	}
	if snap.Documents[0].Freshness != model.FreshnessStale {
		t.Errorf("expected doc-000 flagged stale, got %s", snap.Documents[0].Freshness)
	}
	if snap.Documents[1].Freshness != model.FreshnessCurrent {
		t.Errorf("expected doc-001 flagged current, got %s", snap.Documents[1].Freshness)
	}

	// The two reset articles cluster together; the webhook article stands alone.
	if len(snap.Topics) != 2 {
		t.Fatalf("expected 2 topics, got %d: %v", len(snap.Topics), snap.Topics)
	}
	if len(snap.Topics[0].MemberIDs) != 2 {
		t.Errorf("expected the reset articles in one topic, got %v", snap.Topics[0].MemberIDs)
	}

	// Claim ids are sequential in document order.
	for i, c := range snap.Claims {
		if c.ID != model.ClaimID(i) {
			t.Errorf("claim %d: expected id %s, got %s", i, model.ClaimID(i), c.ID)
		}
		if c.TopicID == "" {
			t.Errorf("claim %s: expected a topic binding", c.ID)
		}
	}

	// Only the reset method is disputed.
	if len(snap.Conflicts) != 1 {
		t.Fatalf("expected 1 conflict, got %d: %v", len(snap.Conflicts), snap.Conflicts)
	}
	rec := snap.Conflicts[0]
	if rec.Subject != "password_reset.method" {
		t.Errorf("expected password_reset.method disputed, got %s", rec.Subject)
	}
	if rec.Resolution != model.ResolutionResolved {
		t.Errorf("expected stale-vs-current arbitration to resolve, got %s", rec.Resolution)
	}
	winner := snap.ClaimByID(rec.WinningClaimID)
	if winner == nil || winner.Value.Text != "magic_link" {
		t.Errorf("expected the current document's magic_link to win, got %v", winner)
	}

	// Stale doc ranks below the current one.
	if snap.ScoreFor("doc-000") >= snap.ScoreFor("doc-001") {
		t.Errorf("expected stale doc-000 below current doc-001: %.3f vs %.3f",
			snap.ScoreFor("doc-000"), snap.ScoreFor("doc-001"))
	}
}

func TestIngest_CorpusLargerThanWorkerBuffers(t *testing.T) {
	// A single extraction worker against a corpus far past the pool's
	// channel buffers; ingestion must complete, not wedge mid-extraction.
	var b strings.Builder
	for i := 0; i < 12; i++ {
		if i > 0 {
			b.WriteString("\n=== ARTICLE BREAK ===\n")
		}
		fmt.Fprintf(&b, "# Article %d\n\nThe reset link expires after %d minutes.\n", i, i+1)
	}

	cfg := model.DefaultConfig()
	cfg.Concurrency.ExtractionWorkers = 1
	p, err := New(cfg)
	if err != nil {
		t.Fatalf("pipeline construction failed: %v", err)
	}

	type outcome struct {
		snap *model.Snapshot
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		snap, err := p.Ingest(context.Background(), b.String())
		done <- outcome{snap, err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			t.Fatalf("ingest failed: %v", out.err)
		}
		if len(out.snap.Documents) != 12 {
			t.Errorf("expected 12 documents, got %d", len(out.snap.Documents))
		}
		if len(out.snap.Claims) != 12 {
			t.Errorf("expected 12 claims, got %d", len(out.snap.Claims))
		}
	case <-time.After(10 * time.Second):
		t.Fatal("ingest did not complete on a 12-document corpus")
	}
}

func TestIngest_Idempotent(t *testing.T) {
	p := testPipeline(t)
	ctx := context.Background()

	first, err := p.Ingest(ctx, resetCorpus)
	if err != nil {
		t.Fatalf("first ingest failed: %v", err)
	}
	second, err := p.Ingest(ctx, resetCorpus)
	if err != nil {
		t.Fatalf("second ingest failed: %v", err)
	}

	if second.Version != first.Version+1 {
		t.Errorf("expected version to advance, got %d then %d", first.Version, second.Version)
	}
	if len(first.Claims) != len(second.Claims) {
		t.Fatalf("expected identical claim counts, got %d vs %d", len(first.Claims), len(second.Claims))
	}
	for i := range first.Claims {
		a, b := first.Claims[i], second.Claims[i]
		if a.ID != b.ID || a.Subject != b.Subject || a.Value.Key() != b.Value.Key() {
			t.Errorf("claim %d differs between runs: %v vs %v", i, a, b)
		}
	}
	if len(first.Conflicts) != len(second.Conflicts) {
		t.Errorf("expected identical conflicts, got %d vs %d", len(first.Conflicts), len(second.Conflicts))
	}
}

func TestIngest_FailureKeepsPriorSnapshot(t *testing.T) {
	p := testPipeline(t)
	ctx := context.Background()

	if _, err := p.Ingest(ctx, resetCorpus); err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	_, err := p.Ingest(ctx, "   ")
	var malformed *model.MalformedInputError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedInputError, got %v", err)
	}

	snap := p.Store().Current()
	if snap == nil || snap.Version != 1 {
		t.Errorf("expected the v1 snapshot to survive a failed ingest, got %v", snap)
	}
}

func TestAsk_ResolvedConflict(t *testing.T) {
	p := testPipeline(t)
	ctx := context.Background()
	if _, err := p.Ingest(ctx, resetCorpus); err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	answer, err := p.Ask(ctx, "password reset method")
	if err != nil {
		t.Fatalf("ask failed: %v", err)
	}
	if answer.Status != resolve.StatusAnswered {
		t.Fatalf("expected answered, got %s (%s)", answer.Status, answer.Note)
	}
	if answer.Value.Text != "magic_link" || answer.Citation != "doc-001" {
		t.Errorf("expected magic_link cited from doc-001, got %s from %s", answer.Value.String(), answer.Citation)
	}
	if len(answer.Dissenting) != 1 || answer.Dissenting[0] != "doc-000" {
		t.Errorf("expected doc-000 as dissent, got %v", answer.Dissenting)
	}
}

func TestAsk_UndisputedSubject(t *testing.T) {
	p := testPipeline(t)
	ctx := context.Background()
	if _, err := p.Ingest(ctx, resetCorpus); err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	answer, err := p.Ask(ctx, "webhook retry count")
	if err != nil {
		t.Fatalf("ask failed: %v", err)
	}
	if answer.Status != resolve.StatusAnswered {
		t.Fatalf("expected answered, got %s (%s)", answer.Status, answer.Note)
	}
	if answer.Value.Number != 5 || answer.Citation != "doc-002" {
		t.Errorf("expected 5 cited from doc-002, got %s from %s", answer.Value.String(), answer.Citation)
	}
}

func TestAsk_UnknownQuery(t *testing.T) {
	p := testPipeline(t)
	ctx := context.Background()
	if _, err := p.Ingest(ctx, resetCorpus); err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	answer, err := p.Ask(ctx, "quantum computing roadmap")
	if err != nil {
		t.Fatalf("ask failed: %v", err)
	}
	if answer.Status != resolve.StatusUnknown {
		t.Errorf("expected unknown, got %s", answer.Status)
	}
}

func TestAsk_WithoutSnapshot(t *testing.T) {
	p := testPipeline(t)
	if _, err := p.Ask(context.Background(), "anything"); err == nil {
		t.Error("expected an error before any ingest")
	}
}

func TestIngest_TiedAuthorityStaysConflict(t *testing.T) {
	// Two indistinguishable documents disagree on the session timeout:
	// no flags, no dates, 1-1 consensus split. Arbitration must refuse.
	corpus := `# Session Timeout

Your session expires after 30 minutes.

=== ARTICLE BREAK ===

# Session Timeout

Your session expires after 60 minutes.
`
	p := testPipeline(t)
	ctx := context.Background()
	if _, err := p.Ingest(ctx, corpus); err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	answer, err := p.Ask(ctx, "session timeout")
	if err != nil {
		t.Fatalf("ask failed: %v", err)
	}
	if answer.Status != resolve.StatusConflict {
		t.Fatalf("expected conflict on tied authority, got %s (%s)", answer.Status, answer.Note)
	}
	if len(answer.Claims) != 2 {
		t.Errorf("expected both sides disclosed, got %d", len(answer.Claims))
	}
}

func TestIngest_PlanScopedTableIsNotAConflict(t *testing.T) {
	corpus := `# Storage Plans

| Plan | Storage |
|------|---------|
| Free | 5 GB |
| Pro | 100 GB |
`
	p := testPipeline(t)
	ctx := context.Background()
	snap, err := p.Ingest(ctx, corpus)
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	if len(snap.Conflicts) != 0 {
		t.Errorf("expected plan-scoped limits not to conflict, got %v", snap.Conflicts)
	}

	answer, err := p.Ask(ctx, "free storage limit")
	if err != nil {
		t.Fatalf("ask failed: %v", err)
	}
	if answer.Status != resolve.StatusAnswered {
		t.Fatalf("expected answered, got %s (%s)", answer.Status, answer.Note)
	}
	if answer.Value.Number != 5368709120 {
		t.Errorf("expected 5 GB in bytes, got %v", answer.Value.Number)
	}
}

func TestIngest_NoSeparatorSingleDocument(t *testing.T) {
	p := testPipeline(t)
	snap, err := p.Ingest(context.Background(), "The reset link expires after 15 minutes.")
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if len(snap.Documents) != 1 || len(snap.Topics) != 1 {
		t.Errorf("expected one document and one topic, got %d/%d", len(snap.Documents), len(snap.Topics))
	}
	if len(snap.Conflicts) != 0 {
		t.Errorf("expected no conflicts in a singleton corpus, got %v", snap.Conflicts)
	}
}

func TestAuditMarkdown_CoversSnapshot(t *testing.T) {
	p := testPipeline(t)
	snap, err := p.Ingest(context.Background(), resetCorpus)
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	report := AuditMarkdown(snap, true)
	for _, want := range []string{
		"# Corpus Reconciliation Audit",
		"doc-000", "doc-002",
		"password_reset.method",
		"← winner",
		"heuristic estimates",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("expected audit to contain %q", want)
		}
	}

	bare := AuditMarkdown(snap, false)
	if strings.Contains(bare, "heuristic estimates") {
		t.Error("expected footer omitted when disabled")
	}
}

func TestRenderAnswer_Statuses(t *testing.T) {
	v := model.TextValue("magic_link")
	answered := RenderAnswer(resolve.Answer{
		Status: resolve.StatusAnswered, Subject: "password_reset.method",
		Value: &v, Citation: "doc-001", ClaimID: "clm-003",
	})
	if !strings.Contains(answered, "ANSWERED") || !strings.Contains(answered, "doc-001") {
		t.Errorf("unexpected answered rendering: %q", answered)
	}

	unknown := RenderAnswer(resolve.Answer{Status: resolve.StatusUnknown, Note: "no match"})
	if !strings.Contains(unknown, "UNKNOWN") || !strings.Contains(unknown, "no match") {
		t.Errorf("unexpected unknown rendering: %q", unknown)
	}
}
