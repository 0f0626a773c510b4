package similarity

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/ppiankov/reconcilia/internal/model"
)

// OpenAI scores texts by cosine similarity of their embeddings. Calls are
// rate limited; callers own the per-call timeout.
type OpenAI struct {
	client  *openai.Client
	model   string
	limiter *rate.Limiter
}

// NewOpenAI creates the embeddings-backed provider. The API key comes from
// the config or the OPENAI_API_KEY environment variable.
func NewOpenAI(cfg model.SimilarityConfig) (*OpenAI, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required (set OPENAI_API_KEY)")
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 5
	}

	embedModel := cfg.Model
	if embedModel == "" {
		embedModel = "text-embedding-3-small"
	}

	return &OpenAI{
		client:  openai.NewClientWithConfig(clientConfig),
		model:   embedModel,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}, nil
}

func (p *OpenAI) Name() string {
	return "openai"
}

func (p *OpenAI) Similarity(ctx context.Context, a, b string) (float64, error) {
	started := time.Now()

	if err := p.limiter.Wait(ctx); err != nil {
		return 0, p.wrapErr(err, started)
	}

	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{a, b},
		Model: openai.EmbeddingModel(p.model),
	})
	if err != nil {
		return 0, p.wrapErr(err, started)
	}
	if len(resp.Data) < 2 {
		return 0, fmt.Errorf("embeddings response: expected 2 vectors, got %d", len(resp.Data))
	}

	score := cosine(resp.Data[0].Embedding, resp.Data[1].Embedding)
	return clamp01(score), nil
}

func (p *OpenAI) wrapErr(err error, started time.Time) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &model.SimilarityTimeoutError{Provider: p.Name(), Elapsed: time.Since(started)}
	}
	return fmt.Errorf("openai embeddings: %w", err)
}

func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
