package pipeline

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ppiankov/reconcilia/internal/cache"
	"github.com/ppiankov/reconcilia/internal/model"
	"github.com/ppiankov/reconcilia/internal/util"
)

const maxRedirects = 3

// Fetcher retrieves corpus streams over HTTP. Fetched bodies are cached so a
// repeated audit of the same source does not hammer the origin.
type Fetcher struct {
	client *http.Client
	robots *util.RobotsChecker
	store  cache.Cache
	cfg    model.HTTPConfig
}

// NewFetcher creates a fetcher from configuration. store may be nil to
// disable the fetch cache.
func NewFetcher(cfg *model.Config, store cache.Cache) *Fetcher {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = util.NewProxyFunc(cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy)

	f := &Fetcher{
		client: &http.Client{
			Timeout:   cfg.HTTP.Timeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		store: store,
		cfg:   cfg.HTTP,
	}
	if cfg.HTTP.RespectRobots {
		f.robots = util.NewRobotsChecker(cfg.HTTP.UserAgent, cfg.HTTP.Timeout)
	}
	return f
}

// Fetch retrieves the raw corpus text at rawURL, consulting the cache and
// robots.txt first.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	key := cache.SourceKey(rawURL)
	if f.store != nil {
		if body, found := f.store.Get(key); found {
			return string(body), nil
		}
	}

	if f.robots != nil && !f.robots.Allowed(ctx, rawURL) {
		return "", fmt.Errorf("robots.txt disallows fetching %s", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "text/plain, text/markdown, text/html;q=0.8, */*;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching %s: unexpected status %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", rawURL, err)
	}

	if f.store != nil {
		_ = f.store.Set(key, body, 0)
	}
	return string(body), nil
}

// IsURL reports whether the source names an HTTP(S) resource.
func IsURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}
