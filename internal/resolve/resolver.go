package resolve

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ppiankov/reconcilia/internal/model"
	"github.com/ppiankov/reconcilia/internal/similarity"
)

// Status classifies a query outcome.
type Status string

const (
	StatusAnswered Status = "answered"
	StatusConflict Status = "conflict"
	StatusUnknown  Status = "unknown"
)

// Answer is the result of one query against a snapshot. A conflict that
// arbitration could not settle is disclosed rather than silently picking a
// side.
type Answer struct {
	Status     Status        `json:"status"`
	Subject    string        `json:"subject,omitempty"`
	Value      *model.Value  `json:"value,omitempty"`
	Citation   string        `json:"citation,omitempty"` // document id the value comes from
	ClaimID    string        `json:"claim_id,omitempty"`
	Dissenting []string      `json:"dissenting,omitempty"` // document ids that disagree
	Claims     []model.Claim `json:"claims,omitempty"`     // full disclosure for conflicts
	Note       string        `json:"note,omitempty"`
}

// Resolver arbitrates conflicts by authority score and maps free-text
// queries onto subject keys.
type Resolver struct {
	provider  similarity.Provider
	threshold float64
	epsilon   float64
	timeout   time.Duration
}

// New creates a resolver from configuration.
func New(provider similarity.Provider, cfg *model.Config) *Resolver {
	return &Resolver{
		provider:  provider,
		threshold: cfg.Topics.Threshold,
		epsilon:   cfg.Authority.TieEpsilon,
		timeout:   cfg.Similarity.Timeout,
	}
}

// ResolveConflicts arbitrates every conflict record in place at build time.
// A record resolves only when one claim's document strictly out-scores all
// others by more than the tie epsilon; near-ties stay unresolved.
func (r *Resolver) ResolveConflicts(snap *model.Snapshot) {
	for i := range snap.Conflicts {
		rec := &snap.Conflicts[i]
		winner, margin := r.arbitrate(snap, rec)
		if winner == "" || margin <= r.epsilon {
			rec.Resolution = model.ResolutionUnresolved
			continue
		}
		rec.Resolution = model.ResolutionResolved
		rec.WinningClaimID = winner
	}
}

// arbitrate returns the highest-authority claim id and its score margin over
// the runner-up.
func (r *Resolver) arbitrate(snap *model.Snapshot, rec *model.ConflictRecord) (string, float64) {
	best, second := -1.0, -1.0
	var bestClaim string
	for _, id := range rec.ClaimIDs {
		claim := snap.ClaimByID(id)
		if claim == nil {
			continue
		}
		score := snap.ScoreFor(claim.DocumentID)
		switch {
		case score > best:
			second = best
			best = score
			bestClaim = id
		case score > second:
			second = score
		}
	}
	if bestClaim == "" {
		return "", 0
	}
	if second < 0 {
		return bestClaim, best
	}
	return bestClaim, best - second
}

// Ask answers a free-text query against the snapshot. Unmapped queries
// return UNKNOWN rather than a guess.
func (r *Resolver) Ask(ctx context.Context, snap *model.Snapshot, query string) Answer {
	subject := r.mapSubject(ctx, snap, query)
	if subject == "" {
		return Answer{
			Status: StatusUnknown,
			Note:   "no claimed subject matches the query",
		}
	}

	claims := snap.ClaimsForSubject(subject)
	if len(claims) == 0 {
		return Answer{Status: StatusUnknown, Subject: subject, Note: "subject has no claims"}
	}

	rec := snap.ConflictForSubject(subject)
	if rec == nil {
		claim := pickByAuthority(snap, claims)
		return Answer{
			Status:   StatusAnswered,
			Subject:  subject,
			Value:    &claim.Value,
			Citation: claim.DocumentID,
			ClaimID:  claim.ID,
		}
	}

	if rec.Resolution == model.ResolutionResolved {
		winner := snap.ClaimByID(rec.WinningClaimID)
		return Answer{
			Status:     StatusAnswered,
			Subject:    subject,
			Value:      &winner.Value,
			Citation:   winner.DocumentID,
			ClaimID:    winner.ID,
			Dissenting: dissentingDocs(snap, rec, winner),
			Note:       "documents disagree; answered from the highest-authority source",
		}
	}

	return Answer{
		Status:  StatusConflict,
		Subject: subject,
		Claims:  conflictClaims(snap, rec),
		Note:    fmt.Sprintf("%d documents disagree and authority scores tie", len(rec.ClaimIDs)),
	}
}

// pickByAuthority picks the claim from the highest-scoring document; score
// ties break toward the earlier-ingested document.
func pickByAuthority(snap *model.Snapshot, claims []model.Claim) model.Claim {
	best := claims[0]
	bestScore := snap.ScoreFor(best.DocumentID)
	for _, c := range claims[1:] {
		if s := snap.ScoreFor(c.DocumentID); s > bestScore {
			best, bestScore = c, s
		}
	}
	return best
}

func dissentingDocs(snap *model.Snapshot, rec *model.ConflictRecord, winner *model.Claim) []string {
	var out []string
	for _, id := range rec.ClaimIDs {
		claim := snap.ClaimByID(id)
		if claim == nil || claim.ID == winner.ID {
			continue
		}
		if claim.Value.Equal(winner.Value, 0) {
			continue
		}
		out = append(out, claim.DocumentID)
	}
	return out
}

func conflictClaims(snap *model.Snapshot, rec *model.ConflictRecord) []model.Claim {
	var out []model.Claim
	for _, id := range rec.ClaimIDs {
		if claim := snap.ClaimByID(id); claim != nil {
			out = append(out, *claim)
		}
	}
	return out
}

// mapSubject resolves a free-text query to a claimed subject key. Exact
// normalized matches win; then the prefix family of an exact partial match
// (so "password reset" can choose among password_reset.* subjects by
// similarity); then the globally most similar subject above the threshold.
func (r *Resolver) mapSubject(ctx context.Context, snap *model.Snapshot, query string) string {
	norm := normalize(query)
	if norm == "" {
		return ""
	}
	subjects := snap.Subjects()

	for _, subject := range subjects {
		if subjectWords(subject) == norm {
			return subject
		}
	}

	if family := prefixFamily(subjects, norm); len(family) > 0 {
		if best := r.bestBySimilarity(ctx, norm, family, 0); best != "" {
			return best
		}
		return family[0]
	}

	return r.bestBySimilarity(ctx, norm, subjects, r.threshold)
}

// prefixFamily returns subjects whose word form starts with the normalized
// query as a whole-word prefix, sorted.
func prefixFamily(subjects []string, norm string) []string {
	var out []string
	for _, subject := range subjects {
		words := subjectWords(subject)
		if strings.HasPrefix(words, norm+" ") {
			out = append(out, subject)
		}
	}
	sort.Strings(out)
	return out
}

func (r *Resolver) bestBySimilarity(ctx context.Context, norm string, subjects []string, threshold float64) string {
	var best string
	bestScore := -1.0
	for _, subject := range subjects {
		score := r.similarityOrZero(ctx, norm, subjectWords(subject))
		if score > bestScore {
			best, bestScore = subject, score
		}
	}
	if bestScore < threshold || bestScore <= 0 {
		return ""
	}
	return best
}

func (r *Resolver) similarityOrZero(ctx context.Context, a, b string) float64 {
	callCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	score, err := r.provider.Similarity(callCtx, a, b)
	if err != nil {
		return 0
	}
	return score
}

// subjectWords turns "password_reset.link_expiry" into
// "password reset link expiry".
func subjectWords(subject string) string {
	return normalize(subject)
}

func normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
