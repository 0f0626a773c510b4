package similarity

import "context"

// Provider is the black-box similarity function consumed by clustering and
// query mapping: similarity(a, b) in [0,1], deterministic for identical
// inputs within one snapshot build. The embedding model behind it is out of
// scope; implementations only have to honor the contract.
type Provider interface {
	// Name returns the provider name.
	Name() string

	// Similarity scores how close two texts are, 0 (unrelated) to 1
	// (identical). Blocking providers must respect ctx.
	Similarity(ctx context.Context, a, b string) (float64, error)
}
