package resolve

import (
	"context"
	"testing"

	"github.com/ppiankov/reconcilia/internal/model"
	"github.com/ppiankov/reconcilia/internal/similarity"
)

func newResolver() *Resolver {
	return New(similarity.NewLexical(), model.DefaultConfig())
}

// twoDocSnapshot builds a snapshot where doc-000 and doc-001 disagree on
// password_reset.method and agree on nothing else.
func twoDocSnapshot(score0, score1 float64) *model.Snapshot {
	return &model.Snapshot{
		Version: 1,
		Documents: []model.Document{
			{ID: "doc-000", IngestionOrder: 0},
			{ID: "doc-001", IngestionOrder: 1},
		},
		Claims: []model.Claim{
			{ID: "clm-000", DocumentID: "doc-000", TopicID: "topic-00", Subject: "password_reset.method", Value: model.TextValue("sms_code")},
			{ID: "clm-001", DocumentID: "doc-001", TopicID: "topic-00", Subject: "password_reset.method", Value: model.TextValue("magic_link")},
			{ID: "clm-002", DocumentID: "doc-001", TopicID: "topic-00", Subject: "password_reset.link_expiry", Value: model.NumberValue(900, "s")},
		},
		Conflicts: []model.ConflictRecord{
			{
				Subject:    "password_reset.method",
				TopicID:    "topic-00",
				ClaimIDs:   []string{"clm-000", "clm-001"},
				Resolution: model.ResolutionUnresolved,
			},
		},
		Scores: []model.AuthorityScore{
			{DocumentID: "doc-000", Score: score0},
			{DocumentID: "doc-001", Score: score1},
		},
	}
}

func TestResolveConflicts_ClearWinner(t *testing.T) {
	snap := twoDocSnapshot(0.35, 0.825)
	newResolver().ResolveConflicts(snap)

	rec := snap.Conflicts[0]
	if rec.Resolution != model.ResolutionResolved {
		t.Fatalf("expected resolved, got %s", rec.Resolution)
	}
	if rec.WinningClaimID != "clm-001" {
		t.Errorf("expected clm-001 to win, got %s", rec.WinningClaimID)
	}
}

func TestResolveConflicts_TieStaysUnresolved(t *testing.T) {
	snap := twoDocSnapshot(0.5, 0.5)
	newResolver().ResolveConflicts(snap)

	rec := snap.Conflicts[0]
	if rec.Resolution != model.ResolutionUnresolved {
		t.Errorf("expected unresolved on a tie, got %s", rec.Resolution)
	}
	if rec.WinningClaimID != "" {
		t.Errorf("expected no winner on a tie, got %s", rec.WinningClaimID)
	}
}

func TestResolveConflicts_MarginWithinEpsilonIsATie(t *testing.T) {
	snap := twoDocSnapshot(0.500, 0.505)
	newResolver().ResolveConflicts(snap)

	if snap.Conflicts[0].Resolution != model.ResolutionUnresolved {
		t.Error("expected margin within epsilon to stay unresolved")
	}
}

func TestAsk_ExactSubjectMatch(t *testing.T) {
	snap := twoDocSnapshot(0.35, 0.825)
	r := newResolver()
	r.ResolveConflicts(snap)

	answer := r.Ask(context.Background(), snap, "password reset link expiry")
	if answer.Status != StatusAnswered {
		t.Fatalf("expected answered, got %s (%s)", answer.Status, answer.Note)
	}
	if answer.Subject != "password_reset.link_expiry" {
		t.Errorf("expected exact subject match, got %s", answer.Subject)
	}
	if answer.Citation != "doc-001" || answer.Value.Number != 900 {
		t.Errorf("expected 900 s cited from doc-001, got %s from %s", answer.Value.String(), answer.Citation)
	}
}

func TestAsk_ResolvedConflictAnswersWithDissent(t *testing.T) {
	snap := twoDocSnapshot(0.35, 0.825)
	r := newResolver()
	r.ResolveConflicts(snap)

	answer := r.Ask(context.Background(), snap, "password reset method")
	if answer.Status != StatusAnswered {
		t.Fatalf("expected answered, got %s", answer.Status)
	}
	if answer.Value.Text != "magic_link" {
		t.Errorf("expected the winning value, got %s", answer.Value.String())
	}
	if len(answer.Dissenting) != 1 || answer.Dissenting[0] != "doc-000" {
		t.Errorf("expected doc-000 listed as dissenting, got %v", answer.Dissenting)
	}
}

func TestAsk_UnresolvedConflictDiscloses(t *testing.T) {
	snap := twoDocSnapshot(0.5, 0.5)
	r := newResolver()
	r.ResolveConflicts(snap)

	answer := r.Ask(context.Background(), snap, "password reset method")
	if answer.Status != StatusConflict {
		t.Fatalf("expected conflict, got %s", answer.Status)
	}
	if len(answer.Claims) != 2 {
		t.Errorf("expected both sides disclosed, got %d claims", len(answer.Claims))
	}
	if answer.Value != nil {
		t.Error("expected no value picked for an unresolved conflict")
	}
}

func TestAsk_PrefixFamilyPicksClosestSubject(t *testing.T) {
	snap := twoDocSnapshot(0.35, 0.825)
	r := newResolver()
	r.ResolveConflicts(snap)

	// "password reset" is a whole-word prefix of both subjects; similarity
	// should prefer the shorter password_reset.method.
	answer := r.Ask(context.Background(), snap, "password reset")
	if answer.Status == StatusUnknown {
		t.Fatalf("expected a family match, got unknown (%s)", answer.Note)
	}
	if answer.Subject != "password_reset.method" {
		t.Errorf("expected password_reset.method, got %s", answer.Subject)
	}
}

func TestAsk_GlobalSimilarityFallback(t *testing.T) {
	snap := &model.Snapshot{
		Version:   1,
		Documents: []model.Document{{ID: "doc-000"}},
		Claims: []model.Claim{
			{ID: "clm-000", DocumentID: "doc-000", TopicID: "topic-00", Subject: "session.timeout", Value: model.NumberValue(1800, "s")},
		},
		Scores: []model.AuthorityScore{{DocumentID: "doc-000", Score: 0.5}},
	}

	answer := newResolver().Ask(context.Background(), snap, "timeout of a session")
	if answer.Status != StatusAnswered {
		t.Fatalf("expected answered via similarity fallback, got %s (%s)", answer.Status, answer.Note)
	}
	if answer.Subject != "session.timeout" {
		t.Errorf("expected session.timeout, got %s", answer.Subject)
	}
}

func TestAsk_UnmappableQueryIsUnknown(t *testing.T) {
	snap := twoDocSnapshot(0.35, 0.825)
	answer := newResolver().Ask(context.Background(), snap, "quantum entanglement throughput")
	if answer.Status != StatusUnknown {
		t.Errorf("expected unknown for an unmappable query, got %s", answer.Status)
	}
	if answer.Value != nil || answer.Citation != "" {
		t.Error("expected no fabricated answer for an unknown query")
	}
}

func TestAsk_EmptyQueryIsUnknown(t *testing.T) {
	snap := twoDocSnapshot(0.35, 0.825)
	answer := newResolver().Ask(context.Background(), snap, "  !!  ")
	if answer.Status != StatusUnknown {
		t.Errorf("expected unknown for an empty query, got %s", answer.Status)
	}
}

func TestAsk_NoConflictPicksHighestAuthority(t *testing.T) {
	snap := &model.Snapshot{
		Version: 1,
		Documents: []model.Document{
			{ID: "doc-000", IngestionOrder: 0},
			{ID: "doc-001", IngestionOrder: 1},
		},
		Claims: []model.Claim{
			{ID: "clm-000", DocumentID: "doc-000", TopicID: "topic-00", Subject: "session.timeout", Value: model.NumberValue(1800, "s")},
			{ID: "clm-001", DocumentID: "doc-001", TopicID: "topic-00", Subject: "session.timeout", Value: model.NumberValue(1800, "s")},
		},
		Scores: []model.AuthorityScore{
			{DocumentID: "doc-000", Score: 0.4},
			{DocumentID: "doc-001", Score: 0.9},
		},
	}

	answer := newResolver().Ask(context.Background(), snap, "session timeout")
	if answer.Citation != "doc-001" {
		t.Errorf("expected the higher-authority citation, got %s", answer.Citation)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Password  Reset?!", "password reset"},
		{"password_reset.method", "password reset method"},
		{"  API   rate-limit ", "api rate limit"},
		{"???", ""},
	}
	for _, tt := range tests {
		if got := normalize(tt.in); got != tt.want {
			t.Errorf("normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
