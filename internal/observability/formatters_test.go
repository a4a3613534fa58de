package observability

import (
	"bytes"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/cv-keyword-analyzer/internal/normalize"
)

func TestPrintAnalysis(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	r := &normalize.Result{
		AllJobKeywords: []string{"Python", "SQL", "Docker", "AWS"},
		KeywordsFound:  []string{"Python"},
		TechnicalTerms: map[string]normalize.TechnicalTerm{
			"Python": {Term: "Python", Frequency: 3, Relevance: normalize.RelevanceHigh},
			"Docker": {Term: "Docker", Frequency: 1, Relevance: normalize.RelevanceLow},
		},
		ATSRecommendations:     []string{"Quantifique resultados"},
		MotivationalConclusion: "Continue assim!",
	}
	r.Reconcile()

	p.PrintAnalysis(r)
	output := buf.String()

	assert.Contains(t, output, "KEYWORD ANALYSIS")
	assert.Contains(t, output, "1 found of 4 (25%)")
	assert.Contains(t, output, "Missing:")
	assert.Contains(t, output, "Python ×3 (Alta)")
	assert.Contains(t, output, "Quantifique resultados")
	assert.Contains(t, output, "Continue assim!")
	assert.Less(t, strings.Index(output, "Python ×3"), strings.Index(output, "Docker ×1"))
	assert.NotContains(t, output, "⚠")
}

func TestPrintAnalysis_Degraded(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintAnalysis(normalize.Fallback(normalize.MsgEmptyReply))

	assert.Contains(t, buf.String(), "⚠ no valid response")
}

func TestPrintAnalysis_Nil(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintAnalysis(nil)

	assert.Empty(t, buf.String())
}

func TestPrintAnalysis_TruncatesLists(t *testing.T) {
	var buf bytes.Buffer
	r := &normalize.Result{AllJobKeywords: []string{"a", "b", "c", "d", "e", "f", "g"}}
	r.Reconcile()

	NewPrinter(&buf).PrintAnalysis(r)

	assert.Contains(t, buf.String(), "... and 2 more")
}

func TestPrintBox_LongLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.printBox("TITLE", strings.Repeat("ação ", 30))

	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		assert.Equal(t, boxWidth, utf8.RuneCountInString(line), line)
	}
}

func TestPrintProgress(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintProgress("fetch_jobs", "Fetched 1 of 2 job postings")

	assert.Equal(t, "[fetch_jobs] Fetched 1 of 2 job postings\n", buf.String())
}
