package topic

import (
	"context"
	"strings"
	"time"

	"github.com/ppiankov/reconcilia/internal/model"
	"github.com/ppiankov/reconcilia/internal/similarity"
)

// Extractor clusters documents into topics with a single greedy pass in
// ingestion order: a document joins the first existing topic whose centroid
// similarity reaches the threshold, else it founds a new one. The ordering
// dependence is deliberate; determinism over optimality, so re-running the
// same ordered input always yields the same clusters.
type Extractor struct {
	provider     similarity.Provider
	threshold    float64
	maxSecondary int
	timeout      time.Duration
}

// New creates a topic extractor from configuration.
func New(provider similarity.Provider, cfg *model.Config) *Extractor {
	return &Extractor{
		provider:     provider,
		threshold:    cfg.Topics.Threshold,
		maxSecondary: cfg.Topics.MaxSecondary,
		timeout:      cfg.Similarity.Timeout,
	}
}

type cluster struct {
	topic    model.Topic
	features []string // feature text of primary members only
}

func (c *cluster) centroid() string {
	return strings.Join(c.features, "\n")
}

// Cluster folds the ordered document slice into topics. A document may gain
// secondary memberships in later-scanned topics that also clear the
// threshold. Similarity failures degrade to non-matches with a warning.
func (e *Extractor) Cluster(ctx context.Context, docs []model.Document) ([]model.Topic, []model.ExtractionWarning, error) {
	var clusters []*cluster
	var warnings []model.ExtractionWarning

	for _, doc := range docs {
		feat := featureText(doc)

		primary := -1
		secondary := 0
		var secondaries []int
		for i, c := range clusters {
			score, warn := e.similarityOrZero(ctx, feat, c.centroid())
			if warn != nil {
				warnings = append(warnings, *warn)
			}
			if score < e.threshold {
				continue
			}
			if primary < 0 {
				primary = i
				continue
			}
			if secondary < e.maxSecondary {
				secondaries = append(secondaries, i)
				secondary++
			}
		}

		if primary < 0 {
			clusters = append(clusters, &cluster{
				topic: model.Topic{
					ID:        model.TopicID(len(clusters)),
					Label:     label(doc),
					MemberIDs: []string{doc.ID},
				},
				features: []string{feat},
			})
			continue
		}

		clusters[primary].topic.MemberIDs = append(clusters[primary].topic.MemberIDs, doc.ID)
		clusters[primary].features = append(clusters[primary].features, feat)
		// Secondary members do not shift the centroid.
		for _, i := range secondaries {
			clusters[i].topic.MemberIDs = append(clusters[i].topic.MemberIDs, doc.ID)
		}
	}

	topics := make([]model.Topic, len(clusters))
	for i, c := range clusters {
		topics[i] = c.topic
	}
	return topics, warnings, nil
}

// similarityOrZero bounds the provider call and fails closed: a timed-out or
// failed similarity call counts as "no match", forcing a new topic rather
// than hanging ingestion.
func (e *Extractor) similarityOrZero(ctx context.Context, a, b string) (float64, *model.ExtractionWarning) {
	callCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	score, err := e.provider.Similarity(callCtx, a, b)
	if err != nil {
		w := model.Warn("topics", "similarity call failed, treated as non-match: %v", err)
		return 0, &w
	}
	return score, nil
}

// featureText weights structure over body: title counts three times,
// headings twice, then the (bounded) body.
func featureText(doc model.Document) string {
	var b strings.Builder
	for i := 0; i < 3; i++ {
		b.WriteString(doc.Title)
		b.WriteString("\n")
	}
	for _, h := range doc.Headings {
		b.WriteString(h)
		b.WriteString("\n")
		b.WriteString(h)
		b.WriteString("\n")
	}
	body := doc.RawText
	if runes := []rune(body); len(runes) > 2000 {
		body = string(runes[:2000])
	}
	b.WriteString(body)
	return b.String()
}

func label(doc model.Document) string {
	if l := strings.TrimSpace(doc.Title); l != "" {
		return l
	}
	return "untitled"
}

// PrimaryTopic returns the id of the first topic (in topic order) listing
// the document, which is its primary topic by construction.
func PrimaryTopic(topics []model.Topic, documentID string) string {
	for _, t := range topics {
		for _, id := range t.MemberIDs {
			if id == documentID {
				return t.ID
			}
		}
	}
	return ""
}
