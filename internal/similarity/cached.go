package similarity

import (
	"context"
	"strconv"
	"time"

	"github.com/ppiankov/reconcilia/internal/cache"
)

// Cached memoizes similarity results in a cache layer. The same (a, b) pair
// is asked for repeatedly during clustering and query mapping; memoization
// also keeps approximate providers self-consistent within a snapshot build.
type Cached struct {
	inner Provider
	store cache.Cache
	ttl   time.Duration
}

// NewCached wraps a provider with memoization.
func NewCached(inner Provider, store cache.Cache, ttl time.Duration) *Cached {
	return &Cached{inner: inner, store: store, ttl: ttl}
}

func (c *Cached) Name() string {
	return c.inner.Name()
}

func (c *Cached) Similarity(ctx context.Context, a, b string) (float64, error) {
	key := cache.PairKey(c.inner.Name(), a, b)
	if raw, found := c.store.Get(key); found {
		if score, err := strconv.ParseFloat(string(raw), 64); err == nil {
			return score, nil
		}
	}

	score, err := c.inner.Similarity(ctx, a, b)
	if err != nil {
		return 0, err
	}

	_ = c.store.Set(key, []byte(strconv.FormatFloat(score, 'g', -1, 64)), c.ttl)
	return score, nil
}
