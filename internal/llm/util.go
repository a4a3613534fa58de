package llm

import (
	"regexp"
	"strings"
)

// fencedBlock matches the first ``` or ```json fenced block.
var fencedBlock = regexp.MustCompile("(?s)```(?i:json)?\\s*(.*?)\\s*```")

// FencedBlock returns the content of the first markdown code fence in text.
func FencedBlock(text string) (string, bool) {
	m := fencedBlock.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// BareObject returns the trimmed text when the whole reply is brace-delimited.
func BareObject(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}") {
		return trimmed, true
	}
	return "", false
}
