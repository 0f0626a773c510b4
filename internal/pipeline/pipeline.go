package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/ppiankov/reconcilia/internal/cache"
	"github.com/ppiankov/reconcilia/internal/conflict"
	"github.com/ppiankov/reconcilia/internal/extract"
	"github.com/ppiankov/reconcilia/internal/model"
	"github.com/ppiankov/reconcilia/internal/rank"
	"github.com/ppiankov/reconcilia/internal/resolve"
	"github.com/ppiankov/reconcilia/internal/segment"
	"github.com/ppiankov/reconcilia/internal/similarity"
	"github.com/ppiankov/reconcilia/internal/topic"
	"github.com/ppiankov/reconcilia/internal/worker"
)

// Pipeline wires the full reconciliation flow: segment, cluster, extract,
// detect, rank, resolve, publish. Each successful ingestion publishes a new
// immutable snapshot; a failed one leaves the prior snapshot in place.
type Pipeline struct {
	cfg       *model.Config
	segmenter *segment.Segmenter
	topics    *topic.Extractor
	extractor *extract.Extractor
	detector  *conflict.Detector
	ranker    *rank.Ranker
	resolver  *resolve.Resolver
	fetcher   *Fetcher
	store     *model.Store
	verbose   bool
}

// New assembles a pipeline from configuration.
func New(cfg *model.Config) (*Pipeline, error) {
	provider, err := similarity.NewProvider(cfg.Similarity)
	if err != nil {
		return nil, err
	}

	var store cache.Cache
	if cfg.Cache.Enabled {
		if cfg.Cache.Dir != "" {
			store = cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
		} else {
			store = cache.NewMemoryCache(cfg.Cache.MemoryTTL, 10*time.Minute)
		}
		provider = similarity.NewCached(provider, store, cfg.Cache.MemoryTTL)
	}

	return &Pipeline{
		cfg:       cfg,
		segmenter: segment.New(cfg),
		topics:    topic.New(provider, cfg),
		extractor: extract.NewExtractor(),
		detector:  conflict.New(cfg),
		ranker:    rank.New(cfg),
		resolver:  resolve.New(provider, cfg),
		fetcher:   NewFetcher(cfg, store),
		store:     model.NewStore(),
		verbose:   cfg.Output.Verbose,
	}, nil
}

// Store exposes the snapshot store for direct inspection.
func (p *Pipeline) Store() *model.Store {
	return p.store
}

// IngestSource reads a corpus from a file path, an HTTP(S) URL or stdin
// ("-") and ingests it.
func (p *Pipeline) IngestSource(ctx context.Context, source string) (*model.Snapshot, error) {
	var raw string
	switch {
	case source == "-":
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		raw = string(data)
	case IsURL(source):
		body, err := p.fetcher.Fetch(ctx, source)
		if err != nil {
			return nil, err
		}
		raw = body
	default:
		data, err := os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", source, err)
		}
		raw = string(data)
	}
	return p.Ingest(ctx, raw)
}

// Ingest rebuilds the knowledge state from a raw corpus stream and publishes
// it as a new snapshot.
func (p *Pipeline) Ingest(ctx context.Context, raw string) (*model.Snapshot, error) {
	docs, warnings, err := p.segmenter.Segment(raw)
	if err != nil {
		return nil, err
	}
	p.logf("segmented %d documents", len(docs))

	topics, topicWarnings, err := p.topics.Cluster(ctx, docs)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, topicWarnings...)
	p.logf("clustered into %d topics", len(topics))

	claims := p.extractClaims(docs, topics)
	p.logf("extracted %d claims", len(claims))

	conflicts := p.detector.Detect(claims)
	scores := p.ranker.Score(docs, claims)

	for _, w := range warnings {
		p.logf("warning: %s", w.String())
	}

	snap := &model.Snapshot{
		BuiltAt:   time.Now().UTC(),
		Documents: docs,
		Topics:    topics,
		Claims:    claims,
		Conflicts: conflicts,
		Scores:    scores,
		Warnings:  warnings,
	}
	p.resolver.ResolveConflicts(snap)

	p.store.Publish(snap)
	p.logf("published snapshot v%d: %d conflicts", snap.Version, len(conflicts))
	return snap, nil
}

// Ask answers a free-text query against the current snapshot.
func (p *Pipeline) Ask(ctx context.Context, query string) (resolve.Answer, error) {
	snap := p.store.Current()
	if snap == nil {
		return resolve.Answer{}, fmt.Errorf("no snapshot published; ingest a corpus first")
	}
	return p.resolver.Ask(ctx, snap, query), nil
}

type extractJob struct {
	doc       model.Document
	extractor *extract.Extractor
}

type extractResult struct {
	order  int
	claims []model.Claim
}

func (r extractResult) Err() error { return nil }

func (j extractJob) Execute(_ context.Context) worker.Result {
	return extractResult{order: j.doc.IngestionOrder, claims: j.extractor.Extract(j.doc)}
}

// extractClaims runs extraction document-parallel, then re-imposes ingestion
// order before assigning claim ids so the output is deterministic regardless
// of worker scheduling.
func (p *Pipeline) extractClaims(docs []model.Document, topics []model.Topic) []model.Claim {
	pool := worker.NewPool(p.cfg.Concurrency.ExtractionWorkers)
	pool.Start()
	for _, doc := range docs {
		pool.Submit(extractJob{doc: doc, extractor: p.extractor})
	}
	results := pool.Wait()

	perDoc := make([]extractResult, 0, len(results))
	for _, r := range results {
		perDoc = append(perDoc, r.(extractResult))
	}
	sort.Slice(perDoc, func(i, j int) bool { return perDoc[i].order < perDoc[j].order })

	var claims []model.Claim
	for _, r := range perDoc {
		for _, c := range r.claims {
			c.ID = model.ClaimID(len(claims))
			c.TopicID = topic.PrimaryTopic(topics, c.DocumentID)
			claims = append(claims, c)
		}
	}
	return claims
}

func (p *Pipeline) logf(format string, args ...any) {
	if p.verbose {
		fmt.Fprintf(os.Stderr, "reconcilia: "+format+"\n", args...)
	}
}
