package engine

import (
	"errors"
	"fmt"
)

// Sentinel errors for the two hard failure modes callers are expected to
// branch on. Everything else is wrapped in GenerationError or handled
// internally as a ParseError.
var (
	// ErrEmptyInput means chunking produced no usable chunks - the document
	// is too short to index, not a crash.
	ErrEmptyInput = errors.New("document too short to index")

	// ErrIndexNotReady means the memory index was queried before a
	// successful build, or after a rebuild that failed.
	ErrIndexNotReady = errors.New("memory index not ready")
)

// GenerationError wraps any failure of an external call (model, embeddings,
// video search), including deadline expiry. The cause is preserved for logs.
type GenerationError struct {
	Op    string
	Cause error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed (%s): %v", e.Op, e.Cause)
}

func (e *GenerationError) Unwrap() error { return e.Cause }

// ParseError classifies model output that did not match the expected
// structure. It never crosses the engine boundary: quiz and topic parsing
// convert it into the fail-soft empty/fallback result and log it.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "unexpected model output: " + e.Reason
}
