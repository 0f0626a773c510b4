package similarity

import (
	"fmt"
	"strings"

	"github.com/ppiankov/reconcilia/internal/model"
)

// NewProvider creates a similarity provider from configuration.
func NewProvider(cfg model.SimilarityConfig) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "lexical":
		return NewLexical(), nil

	case "openai":
		return NewOpenAI(cfg)

	default:
		return nil, fmt.Errorf("unknown similarity provider: %s (supported: lexical, openai)", cfg.Provider)
	}
}
