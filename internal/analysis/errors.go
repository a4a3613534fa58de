package analysis

import (
	"errors"
	"fmt"

	"github.com/jonathan/cv-keyword-analyzer/internal/llm"
)

// ErrInputTooShort is returned before any provider call when the résumé text is too short.
var ErrInputTooShort = errors.New("résumé text is too short to analyze")

// Error aggregates a run of failed attempts. Kind is the classification of the last failure.
type Error struct {
	Kind     llm.ErrorKind
	Attempts int
	Cause    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("analysis failed after %d attempt(s) (%s): %v", e.Attempts, e.Kind, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// UserMessage returns a human-readable hint for a failure kind.
func UserMessage(kind llm.ErrorKind) string {
	switch kind {
	case llm.KindTimeout:
		return "The analysis service took too long to respond. Please try again in a few minutes."
	case llm.KindRateLimited:
		return "The analysis service is receiving too many requests. Please wait a moment and try again."
	case llm.KindConnection:
		return "Could not connect to the analysis service. Check your connection and try again."
	case llm.KindProvider:
		return "The analysis service returned an error. Please try again later."
	default:
		return "An unexpected error occurred during the analysis. Please try again."
	}
}
