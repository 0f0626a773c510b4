package conflict

import (
	"sort"

	"github.com/ppiankov/reconcilia/internal/model"
)

// Detector finds cross-document disagreement. Only claims with an identical
// subject key are ever compared, and only within the same topic; documents
// from different topics are about different things even when a subject key
// coincides.
type Detector struct {
	relTol float64
}

// New creates a detector with the configured relative tolerance for
// continuous quantities.
func New(cfg *model.Config) *Detector {
	return &Detector{relTol: cfg.Conflicts.RelativeTolerance}
}

// Detect returns at most one conflict record per subject. Disagreement is
// still judged within each topic group, but every disagreeing group for a
// subject merges into the same record so downstream arbitration sees the
// full claim set. A document restating its own value is not a conflict:
// each document contributes one representative claim (its first) per
// subject.
func (d *Detector) Detect(claims []model.Claim) []model.ConflictRecord {
	bySubject := make(map[string][]model.Claim)
	var subjects []string
	for _, c := range claims {
		if _, ok := bySubject[c.Subject]; !ok {
			subjects = append(subjects, c.Subject)
		}
		bySubject[c.Subject] = append(bySubject[c.Subject], c)
	}
	sort.Strings(subjects)

	var records []model.ConflictRecord
	for _, subject := range subjects {
		reps := representatives(bySubject[subject])

		var ids []string
		topicID := "" // first disagreeing topic, in topic order
		for _, tid := range topicOrder(reps) {
			group := filterTopic(reps, tid)
			if len(group) < 2 || !disagrees(group, d.relTol) {
				continue
			}
			if topicID == "" {
				topicID = tid
			}
			for _, c := range group {
				ids = append(ids, c.ID)
			}
		}
		if len(ids) < 2 {
			continue
		}
		// Claim ids are zero-padded, so a lexical sort restores
		// ingestion order across the merged groups.
		sort.Strings(ids)
		records = append(records, model.ConflictRecord{
			Subject:    subject,
			TopicID:    topicID,
			ClaimIDs:   ids,
			Resolution: model.ResolutionUnresolved,
		})
	}
	return records
}

// representatives keeps the first claim per document, preserving claim order
// (which follows document ingestion order).
func representatives(claims []model.Claim) []model.Claim {
	seen := make(map[string]bool)
	var out []model.Claim
	for _, c := range claims {
		if seen[c.DocumentID] {
			continue
		}
		seen[c.DocumentID] = true
		out = append(out, c)
	}
	return out
}

func topicOrder(claims []model.Claim) []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range claims {
		if !seen[c.TopicID] {
			seen[c.TopicID] = true
			out = append(out, c.TopicID)
		}
	}
	sort.Strings(out)
	return out
}

func filterTopic(claims []model.Claim, topicID string) []model.Claim {
	var out []model.Claim
	for _, c := range claims {
		if c.TopicID == topicID {
			out = append(out, c)
		}
	}
	return out
}

func disagrees(group []model.Claim, relTol float64) bool {
	for i := 0; i < len(group); i++ {
		for j := i + 1; j < len(group); j++ {
			if !group[i].Value.Equal(group[j].Value, relTol) {
				return true
			}
		}
	}
	return false
}
