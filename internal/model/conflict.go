package model

// Resolution is the arbitration state of a conflict record.
type Resolution string

const (
	ResolutionUnresolved Resolution = "unresolved"
	ResolutionResolved   Resolution = "resolved"
)

// ConflictRecord captures disagreement between documents on one subject.
// At most one record exists per subject per snapshot. Every referenced
// claim shares the record's subject and belongs to a distinct document.
type ConflictRecord struct {
	Subject        string     `json:"subject"`
	TopicID        string     `json:"topic_id"` // first disagreeing topic, in topic order
	ClaimIDs       []string   `json:"claims"`   // one per document, ingestion order
	Resolution     Resolution `json:"resolution"`
	WinningClaimID string     `json:"winning_claim_id,omitempty"`
}

// AuthorityScore is a per-document trust/freshness estimate in [0,1],
// recomputed for every snapshot. Reasons list the contributing signals.
type AuthorityScore struct {
	DocumentID string   `json:"document_id"`
	Score      float64  `json:"score"`
	Reasons    []string `json:"reasons"`
}
