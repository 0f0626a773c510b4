package model

import (
	"fmt"
	"time"
)

// Freshness is the explicit staleness annotation carried by a document.
type Freshness string

const (
	FreshnessCurrent     Freshness = "current"     // explicitly marked as reflecting current behavior
	FreshnessStale       Freshness = "stale"       // explicitly marked as stale / no longer valid
	FreshnessUnspecified Freshness = "unspecified" // no annotation found
)

// Document is one segment of the ingested corpus. Immutable once created;
// identity is the ID derived from ingestion order.
type Document struct {
	ID             string     `json:"id"`
	RawText        string     `json:"raw_text"`
	Title          string     `json:"title"`
	Headings       []string   `json:"headings,omitempty"` // heading text in document order, hashes stripped
	IngestionOrder int        `json:"ingestion_order"`
	Freshness      Freshness  `json:"freshness"`
	LastUpdated    *time.Time `json:"last_updated,omitempty"` // parsed "last updated" hint, if any
}

// DocumentID derives the stable identifier for the document at the given
// ingestion position (0-based).
func DocumentID(order int) string {
	return fmt.Sprintf("doc-%03d", order)
}
