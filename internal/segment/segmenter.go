package segment

import (
	"regexp"
	"strings"
	"time"

	"github.com/ppiankov/reconcilia/internal/model"
)

// Segmenter splits a raw ingestion stream into discrete document records on
// the configured separator token and derives each document's title, heading
// list, freshness annotation and last-updated hint.
type Segmenter struct {
	separator      string
	maxTitleLen    int
	staleMarkers   []string
	currentMarkers []string
}

// New creates a segmenter from configuration.
func New(cfg *model.Config) *Segmenter {
	return &Segmenter{
		separator:      cfg.Ingest.Separator,
		maxTitleLen:    cfg.Ingest.MaxTitleLength,
		staleMarkers:   lowerAll(cfg.Ingest.StaleMarkers),
		currentMarkers: lowerAll(cfg.Ingest.CurrentMarkers),
	}
}

// Segment splits raw into ordered documents. Empty segments are dropped with
// a warning; an empty or entirely unparsable stream is a MalformedInputError.
func (s *Segmenter) Segment(raw string) ([]model.Document, []model.ExtractionWarning, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil, &model.MalformedInputError{Reason: "empty ingestion stream"}
	}

	parts := strings.Split(raw, s.separator)

	var docs []model.Document
	var warnings []model.ExtractionWarning
	for i, part := range parts {
		text := strings.TrimSpace(part)
		if text == "" {
			warnings = append(warnings, model.Warn("segment", "segment %d empty after trim, dropped", i))
			continue
		}
		docs = append(docs, s.buildDocument(len(docs), text))
	}

	if len(docs) == 0 {
		return nil, warnings, &model.MalformedInputError{Reason: "stream contains no parsable text"}
	}
	return docs, warnings, nil
}

var (
	headingRe     = regexp.MustCompile(`^(#{1,6})\s+(.+?)\s*$`)
	lastUpdatedRe = regexp.MustCompile(`(?i)last[ _-]updated[:\s]+([A-Za-z0-9, /-]+)`)
)

func (s *Segmenter) buildDocument(order int, text string) model.Document {
	doc := model.Document{
		ID:             model.DocumentID(order),
		RawText:        text,
		IngestionOrder: order,
		Freshness:      s.detectFreshness(text),
		LastUpdated:    parseLastUpdated(text),
	}

	var firstNonEmpty string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if firstNonEmpty == "" {
			firstNonEmpty = line
		}
		if m := headingRe.FindStringSubmatch(line); m != nil {
			doc.Headings = append(doc.Headings, m[2])
			if doc.Title == "" && len(m[1]) == 1 {
				doc.Title = m[2]
			}
		}
	}
	if doc.Title == "" {
		doc.Title = truncate(firstNonEmpty, s.maxTitleLen)
	}
	return doc
}

// detectFreshness scans for explicit staleness annotations ("STALE",
// "NO LONGER VALID", ...). Stale markers win over current markers.
func (s *Segmenter) detectFreshness(text string) model.Freshness {
	lower := strings.ToLower(text)
	for _, marker := range s.staleMarkers {
		if strings.Contains(lower, marker) {
			return model.FreshnessStale
		}
	}
	for _, marker := range s.currentMarkers {
		if strings.Contains(lower, marker) {
			return model.FreshnessCurrent
		}
	}
	return model.FreshnessUnspecified
}

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"02 Jan 2006",
}

func parseLastUpdated(text string) *time.Time {
	m := lastUpdatedRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	hint := strings.TrimSpace(m[1])
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, hint); err == nil {
			return &t
		}
		// The capture is greedy; retry with trailing words trimmed.
		fields := strings.Fields(hint)
		for n := len(fields) - 1; n > 0; n-- {
			if t, err := time.Parse(layout, strings.Join(fields[:n], " ")); err == nil {
				return &t
			}
		}
	}
	return nil
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
