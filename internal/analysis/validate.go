package analysis

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonathan/cv-keyword-analyzer/internal/llm"
)

// MaxKeywordWords is the longest keyword the model may return.
const MaxKeywordWords = 3

// CheckResponse reports whether raw is an acceptable model answer: a JSON
// object, fenced or bare, whose all_job_keywords entries are short enough.
// The returned error explains a rejection.
func CheckResponse(raw string) error {
	candidate, ok := llm.FencedBlock(raw)
	if !ok {
		candidate, ok = llm.BareObject(raw)
	}
	if !ok {
		return fmt.Errorf("no JSON object in response")
	}

	var payload struct {
		AllJobKeywords []any `json:"all_job_keywords"`
	}
	if err := json.Unmarshal([]byte(candidate), &payload); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	var long []string
	for _, kw := range payload.AllJobKeywords {
		if s, ok := kw.(string); ok && len(strings.Fields(s)) > MaxKeywordWords {
			long = append(long, s)
		}
	}
	if len(long) > 0 {
		return fmt.Errorf("%d keyword(s) longer than %d words: %q", len(long), MaxKeywordWords, long)
	}
	return nil
}
