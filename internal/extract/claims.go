package extract

import (
	"github.com/ppiankov/reconcilia/internal/model"
)

// Extractor runs the matcher library over a document's logical lines. The
// extractor is necessarily incomplete: unmatched text produces no claim and
// no error. Multiple claims with the same subject from one document are all
// kept; a restated fact is not a conflict.
type Extractor struct {
	matchers []Matcher
}

// NewExtractor creates an extractor with the default matcher library.
func NewExtractor() *Extractor {
	return &Extractor{matchers: []Matcher{
		newDurationMatcher(),
		newSizeMatcher(),
		newCountMatcher(),
		newRateMatcher(),
		newEnumMatcher(),
		newBoolMatcher(),
	}}
}

// Register adds a matcher after the defaults. Matcher order is claim order
// within a line, so registration order matters for determinism.
func (e *Extractor) Register(m Matcher) {
	e.matchers = append(e.matchers, m)
}

// Extract returns the document's claims in line order. IDs and topic
// bindings are assigned by the pipeline after clustering.
func (e *Extractor) Extract(doc model.Document) []model.Claim {
	var claims []model.Claim
	for _, line := range logicalLines(doc.RawText) {
		for _, matcher := range e.matchers {
			for _, match := range matcher.Match(line) {
				claims = append(claims, model.Claim{
					DocumentID: doc.ID,
					Subject:    match.Subject,
					Value:      match.Value,
					RawSpan:    match.Span,
				})
			}
		}
	}
	return claims
}
