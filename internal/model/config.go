package model

import (
	"runtime"
	"time"
)

// Config holds all reconcilia configuration. Every arbitration policy knob
// (threshold, tolerance, weights, tie epsilon) lives here rather than in
// code; the defaults are policy, not contract.
type Config struct {
	Ingest      IngestConfig      `yaml:"ingest" json:"ingest"`
	Topics      TopicsConfig      `yaml:"topics" json:"topics"`
	Conflicts   ConflictsConfig   `yaml:"conflicts" json:"conflicts"`
	Authority   AuthorityConfig   `yaml:"authority" json:"authority"`
	Similarity  SimilarityConfig  `yaml:"similarity" json:"similarity"`
	HTTP        HTTPConfig        `yaml:"http" json:"http"`
	Cache       CacheConfig       `yaml:"cache" json:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" json:"concurrency"`
	Output      OutputConfig      `yaml:"output" json:"output"`
}

// IngestConfig controls segmentation and freshness detection.
type IngestConfig struct {
	Separator      string   `yaml:"separator" json:"separator"`
	MaxTitleLength int      `yaml:"max_title_length" json:"max_title_length"`
	StaleMarkers   []string `yaml:"stale_markers" json:"stale_markers"`
	CurrentMarkers []string `yaml:"current_markers" json:"current_markers"`
}

// TopicsConfig controls clustering.
type TopicsConfig struct {
	Threshold    float64 `yaml:"threshold" json:"threshold"`         // τ: minimum centroid similarity
	MaxSecondary int     `yaml:"max_secondary" json:"max_secondary"` // secondary topic memberships per document
}

// ConflictsConfig controls claim comparison.
type ConflictsConfig struct {
	RelativeTolerance float64 `yaml:"relative_tolerance" json:"relative_tolerance"` // for continuous quantities; 0 = exact
}

// AuthorityConfig controls document ranking and tie detection.
type AuthorityConfig struct {
	FlagWeight      float64 `yaml:"flag_weight" json:"flag_weight"`
	RecencyWeight   float64 `yaml:"recency_weight" json:"recency_weight"`
	ConsensusWeight float64 `yaml:"consensus_weight" json:"consensus_weight"`
	TieEpsilon      float64 `yaml:"tie_epsilon" json:"tie_epsilon"`
}

// SimilarityConfig selects and tunes the similarity provider.
type SimilarityConfig struct {
	Provider          string        `yaml:"provider" json:"provider"` // lexical, openai
	Model             string        `yaml:"model" json:"model"`
	APIKey            string        `yaml:"api_key,omitempty" json:"api_key,omitempty"`
	BaseURL           string        `yaml:"base_url,omitempty" json:"base_url,omitempty"`
	Timeout           time.Duration `yaml:"timeout" json:"timeout"` // per-call budget; timeouts fail closed
	RequestsPerSecond float64       `yaml:"requests_per_second" json:"requests_per_second"`
	Burst             int           `yaml:"burst" json:"burst"`
}

// HTTPConfig controls corpus fetches when the source is a URL.
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout" json:"timeout"`
	UserAgent     string        `yaml:"user_agent" json:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" json:"max_body_bytes"`
	RespectRobots bool          `yaml:"respect_robots" json:"respect_robots"`
	HTTPProxy     string        `yaml:"http_proxy,omitempty" json:"http_proxy,omitempty"`
	HTTPSProxy    string        `yaml:"https_proxy,omitempty" json:"https_proxy,omitempty"`
	NoProxy       string        `yaml:"no_proxy,omitempty" json:"no_proxy,omitempty"`
}

// CacheConfig controls the fetch cache and similarity memoization.
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" json:"enabled"`
	Dir       string        `yaml:"dir,omitempty" json:"dir,omitempty"` // empty = memory only
	MemoryTTL time.Duration `yaml:"memory_ttl" json:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" json:"disk_ttl"`
}

// ConcurrencyConfig controls document-level parallelism.
type ConcurrencyConfig struct {
	ExtractionWorkers int `yaml:"extraction_workers" json:"extraction_workers"`
}

// OutputConfig controls rendering.
type OutputConfig struct {
	Verbose       bool `yaml:"verbose" json:"verbose"`
	IncludeFooter bool `yaml:"include_footer" json:"include_footer"`
}

// DefaultSeparator is the inter-document separator token used when the
// corpus does not declare one.
const DefaultSeparator = "=== ARTICLE BREAK ==="

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Ingest: IngestConfig{
			Separator:      DefaultSeparator,
			MaxTitleLength: 80,
			StaleMarkers:   []string{"stale", "no longer valid", "out of date", "outdated", "superseded"},
			CurrentMarkers: []string{"verified current", "up to date", "up-to-date", "confirmed current"},
		},
		Topics: TopicsConfig{
			Threshold:    0.6,
			MaxSecondary: 1,
		},
		Conflicts: ConflictsConfig{
			RelativeTolerance: 0,
		},
		Authority: AuthorityConfig{
			FlagWeight:      0.5,
			RecencyWeight:   0.2,
			ConsensusWeight: 0.3,
			TieEpsilon:      0.01,
		},
		Similarity: SimilarityConfig{
			Provider:          "lexical",
			Model:             "text-embedding-3-small",
			Timeout:           10 * time.Second,
			RequestsPerSecond: 5,
			Burst:             5,
		},
		HTTP: HTTPConfig{
			Timeout:       30 * time.Second,
			UserAgent:     "Reconcilia/0.1 (+https://github.com/ppiankov/reconcilia)",
			MaxBodyBytes:  4_000_000,
			RespectRobots: true,
		},
		Cache: CacheConfig{
			Enabled:   true,
			MemoryTTL: 15 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			ExtractionWorkers: runtime.NumCPU(),
		},
		Output: OutputConfig{
			IncludeFooter: true,
		},
	}
}
