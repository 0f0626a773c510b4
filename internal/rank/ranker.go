package rank

import (
	"fmt"
	"math"

	"github.com/ppiankov/reconcilia/internal/model"
)

// Ranker computes per-document authority scores from three signals: the
// explicit freshness flag, last-updated recency relative to the corpus, and
// agreement with the per-subject majority. Scores are heuristic estimates,
// not ground truth, and are recomputed from scratch for every snapshot.
type Ranker struct {
	cfg model.AuthorityConfig
}

// New creates a ranker from configuration.
func New(cfg *model.Config) *Ranker {
	return &Ranker{cfg: cfg.Authority}
}

// Score returns one authority score per document, in document order.
func (r *Ranker) Score(docs []model.Document, claims []model.Claim) []model.AuthorityScore {
	recency := recencyScores(docs)
	majority := majorityKeys(claims)

	out := make([]model.AuthorityScore, len(docs))
	for i, doc := range docs {
		flag, flagReason := flagScore(doc)
		rec := recency[doc.ID]
		cons := consensusScore(doc.ID, claims, majority)

		weightSum := r.cfg.FlagWeight + r.cfg.RecencyWeight + r.cfg.ConsensusWeight
		score := 0.5
		if weightSum > 0 {
			score = (r.cfg.FlagWeight*flag + r.cfg.RecencyWeight*rec + r.cfg.ConsensusWeight*cons) / weightSum
		}
		score = math.Max(0, math.Min(1, score))

		out[i] = model.AuthorityScore{
			DocumentID: doc.ID,
			Score:      score,
			Reasons: []string{
				flagReason,
				fmt.Sprintf("recency %.2f", rec),
				fmt.Sprintf("consensus agreement %.2f", cons),
			},
		}
	}
	return out
}

func flagScore(doc model.Document) (float64, string) {
	switch doc.Freshness {
	case model.FreshnessStale:
		return 0, "explicit freshness flag stale → 0.00"
	case model.FreshnessCurrent:
		return 1, "explicit freshness flag current → 1.00"
	}
	return 0.5, "no freshness flag → 0.50"
}

// recencyScores min-max normalizes last-updated dates across the corpus.
// Documents without a date sit at the neutral midpoint; when every dated
// document shares one date, all of them score 1.
func recencyScores(docs []model.Document) map[string]float64 {
	var min, max *model.Document
	for i := range docs {
		if docs[i].LastUpdated == nil {
			continue
		}
		if min == nil || docs[i].LastUpdated.Before(*min.LastUpdated) {
			min = &docs[i]
		}
		if max == nil || docs[i].LastUpdated.After(*max.LastUpdated) {
			max = &docs[i]
		}
	}

	out := make(map[string]float64, len(docs))
	for i := range docs {
		doc := &docs[i]
		if doc.LastUpdated == nil {
			out[doc.ID] = 0.5
			continue
		}
		if min == max || !max.LastUpdated.After(*min.LastUpdated) {
			out[doc.ID] = 1.0
			continue
		}
		span := max.LastUpdated.Sub(*min.LastUpdated).Seconds()
		out[doc.ID] = doc.LastUpdated.Sub(*min.LastUpdated).Seconds() / span
	}
	return out
}

// majorityKeys returns, per subject, the value class held by a strict
// majority of claiming documents. A tied subject has no majority and every
// claim on it contributes the neutral 0.5.
func majorityKeys(claims []model.Claim) map[string]string {
	type tally map[string]int
	perSubject := make(map[string]tally)
	counted := make(map[string]bool) // subject|document

	for _, c := range claims {
		dedupe := c.Subject + "|" + c.DocumentID
		if counted[dedupe] {
			continue
		}
		counted[dedupe] = true
		if perSubject[c.Subject] == nil {
			perSubject[c.Subject] = make(tally)
		}
		perSubject[c.Subject][c.Value.Key()]++
	}

	out := make(map[string]string, len(perSubject))
	for subject, counts := range perSubject {
		total := 0
		bestKey, bestCount := "", 0
		for key, n := range counts {
			total += n
			if n > bestCount {
				bestKey, bestCount = key, n
			}
		}
		if bestCount*2 > total {
			out[subject] = bestKey
		}
	}
	return out
}

func consensusScore(docID string, claims []model.Claim, majority map[string]string) float64 {
	var sum float64
	var n int
	for _, c := range claims {
		if c.DocumentID != docID {
			continue
		}
		n++
		key, ok := majority[c.Subject]
		if !ok {
			sum += 0.5
			continue
		}
		if c.Value.Key() == key {
			sum += 1
		}
	}
	if n == 0 {
		return 0.5
	}
	return sum / float64(n)
}
