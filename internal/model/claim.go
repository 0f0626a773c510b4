package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ValueKind categorizes a normalized predicate value.
type ValueKind string

const (
	ValueNumber ValueKind = "number" // quantity in a canonical unit
	ValueText   ValueKind = "text"   // enumerated token (e.g. "magic_link")
	ValueBool   ValueKind = "bool"   // capability statement
)

// Value is a claim's normalized predicate value. Numbers are stored in a
// canonical unit (seconds for durations, bytes for sizes, "count" for plain
// counts, "req/min" for rates) so values from differently phrased documents
// stay comparable.
type Value struct {
	Kind   ValueKind `json:"kind"`
	Number float64   `json:"number,omitempty"`
	Unit   string    `json:"unit,omitempty"`
	Text   string    `json:"text,omitempty"`
	Bool   bool      `json:"bool,omitempty"`
}

// NumberValue builds a numeric value in the given canonical unit.
func NumberValue(n float64, unit string) Value {
	return Value{Kind: ValueNumber, Number: n, Unit: unit}
}

// TextValue builds an enumerated value.
func TextValue(s string) Value {
	return Value{Kind: ValueText, Text: s}
}

// BoolValue builds a capability value.
func BoolValue(b bool) Value {
	return Value{Kind: ValueBool, Bool: b}
}

// Equal reports whether two values agree. Enumerations and booleans compare
// exactly; numbers compare within the given relative tolerance (0 means
// exact). Values of different kinds or units never agree.
func (v Value) Equal(o Value, relTol float64) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case ValueNumber:
		if v.Unit != o.Unit {
			return false
		}
		if relTol <= 0 {
			return v.Number == o.Number
		}
		scale := math.Max(math.Abs(v.Number), math.Abs(o.Number))
		return math.Abs(v.Number-o.Number) <= relTol*scale
	case ValueText:
		return strings.EqualFold(v.Text, o.Text)
	case ValueBool:
		return v.Bool == o.Bool
	}
	return false
}

// Key returns a canonical class key for majority counting. Two values with
// the same key are the same claim value.
func (v Value) Key() string {
	switch v.Kind {
	case ValueNumber:
		return "num:" + strconv.FormatFloat(v.Number, 'f', -1, 64) + "|" + v.Unit
	case ValueText:
		return "text:" + strings.ToLower(v.Text)
	case ValueBool:
		return "bool:" + strconv.FormatBool(v.Bool)
	}
	return "none"
}

func (v Value) String() string {
	switch v.Kind {
	case ValueNumber:
		n := strconv.FormatFloat(v.Number, 'f', -1, 64)
		if v.Unit != "" && v.Unit != "count" {
			return n + " " + v.Unit
		}
		return n
	case ValueText:
		return v.Text
	case ValueBool:
		return strconv.FormatBool(v.Bool)
	}
	return ""
}

// Claim is one atomic factual assertion extracted from a document, bound to
// a canonical subject key (e.g. "password_reset.link_expiry"). Claims are
// rebuilt from scratch on every ingestion.
type Claim struct {
	ID         string `json:"id"`
	DocumentID string `json:"document_id"`
	TopicID    string `json:"topic_id"`
	Subject    string `json:"subject"`
	Value      Value  `json:"value"`
	RawSpan    string `json:"raw_span"` // the source line the claim was matched in
}

// ClaimID derives the identifier for the claim at the given extraction
// position (0-based).
func ClaimID(n int) string {
	return fmt.Sprintf("clm-%03d", n)
}
