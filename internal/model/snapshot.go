package model

import (
	"sort"
	"sync"
	"time"
)

// Snapshot is the immutable result of one ingestion run. Queries always run
// against a specific snapshot, so concurrent reads during a re-ingestion
// cutover stay consistent.
type Snapshot struct {
	Version   int                 `json:"version"`
	BuiltAt   time.Time           `json:"built_at"`
	Documents []Document          `json:"documents"`
	Topics    []Topic             `json:"topics"`
	Claims    []Claim             `json:"claims"`
	Conflicts []ConflictRecord    `json:"conflicts"`
	Scores    []AuthorityScore    `json:"scores"`
	Warnings  []ExtractionWarning `json:"warnings,omitempty"`
}

// DocumentByID returns the document with the given id, or nil.
func (s *Snapshot) DocumentByID(id string) *Document {
	for i := range s.Documents {
		if s.Documents[i].ID == id {
			return &s.Documents[i]
		}
	}
	return nil
}

// ClaimByID returns the claim with the given id, or nil.
func (s *Snapshot) ClaimByID(id string) *Claim {
	for i := range s.Claims {
		if s.Claims[i].ID == id {
			return &s.Claims[i]
		}
	}
	return nil
}

// ClaimsForSubject returns all claims bound to the subject, in claim order.
func (s *Snapshot) ClaimsForSubject(subject string) []Claim {
	var out []Claim
	for _, c := range s.Claims {
		if c.Subject == subject {
			out = append(out, c)
		}
	}
	return out
}

// ConflictForSubject returns the subject's conflict record, or nil if the
// corpus agrees on it.
func (s *Snapshot) ConflictForSubject(subject string) *ConflictRecord {
	for i := range s.Conflicts {
		if s.Conflicts[i].Subject == subject {
			return &s.Conflicts[i]
		}
	}
	return nil
}

// ScoreFor returns the authority score for a document. Unknown documents
// get the neutral 0.5.
func (s *Snapshot) ScoreFor(documentID string) float64 {
	for _, sc := range s.Scores {
		if sc.DocumentID == documentID {
			return sc.Score
		}
	}
	return 0.5
}

// Subjects returns the sorted set of subject keys claimed anywhere in the
// corpus.
func (s *Snapshot) Subjects() []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range s.Claims {
		if !seen[c.Subject] {
			seen[c.Subject] = true
			out = append(out, c.Subject)
		}
	}
	sort.Strings(out)
	return out
}

// Store holds the current published snapshot. Publish replaces it atomically
// once an ingestion fully succeeds; a failed ingestion leaves the prior
// snapshot queryable.
type Store struct {
	mu          sync.RWMutex
	current     *Snapshot
	nextVersion int
}

// NewStore creates an empty snapshot store.
func NewStore() *Store {
	return &Store{nextVersion: 1}
}

// Current returns the published snapshot, or nil if nothing has been
// ingested yet.
func (st *Store) Current() *Snapshot {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.current
}

// Publish assigns the next version to the snapshot and makes it current.
func (st *Store) Publish(snap *Snapshot) {
	st.mu.Lock()
	defer st.mu.Unlock()
	snap.Version = st.nextVersion
	st.nextVersion++
	st.current = snap
}
