package model

import (
	"fmt"
	"time"
)

// MalformedInputError reports an ingestion stream that cannot produce any
// documents (empty, or no parsable text). Ingestion aborts and no snapshot
// is published.
type MalformedInputError struct {
	Reason string
}

func (e *MalformedInputError) Error() string {
	return "malformed input: " + e.Reason
}

// SimilarityTimeoutError reports a similarity call that exceeded its budget.
// Callers treat it as a non-match and keep going.
type SimilarityTimeoutError struct {
	Provider string
	Elapsed  time.Duration
}

func (e *SimilarityTimeoutError) Error() string {
	return fmt.Sprintf("similarity provider %q timed out after %s", e.Provider, e.Elapsed)
}

// ExtractionWarning is a recoverable processing note (empty segment,
// unmatched text, degraded similarity call). Warnings are collected into the
// snapshot for the audit surface; they never abort ingestion.
type ExtractionWarning struct {
	Stage  string `json:"stage"`
	Detail string `json:"detail"`
}

func (w ExtractionWarning) String() string {
	return w.Stage + ": " + w.Detail
}

// Warn builds an ExtractionWarning with a formatted detail message.
func Warn(stage, format string, args ...interface{}) ExtractionWarning {
	return ExtractionWarning{Stage: stage, Detail: fmt.Sprintf(format, args...)}
}
