package similarity

import (
	"context"
	"math"
	"strings"
	"unicode"
)

// Lexical scores texts by term-frequency cosine over lowercased tokens.
// It is fully deterministic, needs no network, and is the default provider;
// the pipeline stays usable without an embeddings API key.
type Lexical struct{}

// NewLexical creates the lexical provider.
func NewLexical() *Lexical {
	return &Lexical{}
}

func (l *Lexical) Name() string {
	return "lexical"
}

func (l *Lexical) Similarity(ctx context.Context, a, b string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	va := termFrequencies(a)
	vb := termFrequencies(b)
	if len(va) == 0 || len(vb) == 0 {
		return 0, nil
	}

	var dot, na, nb float64
	for tok, fa := range va {
		na += fa * fa
		if fb, ok := vb[tok]; ok {
			dot += fa * fb
		}
	}
	for _, fb := range vb {
		nb += fb * fb
	}
	if dot == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb)), nil
}

var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "to": true,
	"of": true, "in": true, "on": true, "for": true, "is": true, "are": true,
	"was": true, "be": true, "with": true, "your": true, "you": true,
	"we": true, "our": true, "this": true, "that": true, "it": true,
	"as": true, "at": true, "by": true, "from": true, "if": true,
	"can": true, "will": true, "after": true,
}

func termFrequencies(text string) map[string]float64 {
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tf := make(map[string]float64, len(tokens))
	for _, tok := range tokens {
		if len(tok) < 2 || stopwords[tok] {
			continue
		}
		tf[tok]++
	}
	return tf
}
