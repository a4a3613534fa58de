// Package normalize turns whatever the analysis model replied into a
// schema-complete Result. It never fails: unusable replies degrade to a
// heuristic parse and finally to a fixed fallback payload.
package normalize

import (
	"strings"
)

// DefaultConclusion replaces a missing or blank motivational conclusion.
const DefaultConclusion = "Continue aprimorando seu currículo para aumentar suas chances de sucesso."

// MaxKeywordWords is the longest keyword kept in the keyword lists.
const MaxKeywordWords = 3

// Relevance grades a technical term.
type Relevance string

// Relevance levels.
const (
	RelevanceHigh   Relevance = "Alta"
	RelevanceMedium Relevance = "Média"
	RelevanceLow    Relevance = "Baixa"
)

// TechnicalTerm is one entry of termos_tecnicos.
type TechnicalTerm struct {
	Term      string    `json:"termo"`
	Frequency int       `json:"frequencia"`
	Relevance Relevance `json:"relevancia"`
}

// CriticalKeyword reports whether a job keyword appears in the résumé.
type CriticalKeyword struct {
	Term    string `json:"termo"`
	Present bool   `json:"presente"`
}

// Result is the analysis returned to callers. The last four list fields are
// aliases derived from the core fields by Reconcile.
type Result struct {
	AllJobKeywords         []string                 `json:"all_job_keywords"`
	KeywordsFound          []string                 `json:"keywords_found"`
	KeywordsMissing        []string                 `json:"keywords_missing"`
	ATSRecommendations     []string                 `json:"ats_recommendations"`
	TechnicalTerms         map[string]TechnicalTerm `json:"termos_tecnicos"`
	BehavioralCompetencies []string                 `json:"competencias_comportamentais"`
	MotivationalConclusion string                   `json:"motivational_conclusion"`

	CriticalKeywords     []CriticalKeyword `json:"palavras_chave_criticas"`
	PriorityAdjustments  []string          `json:"ajustes_prioritarios"`
	ConsolidatedKeywords []string          `json:"consolidated_keywords"`
	Recommendations      []string          `json:"recommendations"`

	// Error is set when the result was recovered heuristically or is the fallback payload.
	Error string `json:"error,omitempty"`
}

// Reconcile enforces the keyword invariants and recomputes the derived
// fields. Keywords longer than MaxKeywordWords are dropped from all three
// keyword lists, found keywords not listed among the job keywords are
// dropped, and missing keywords are recomputed as all minus found.
// Applying Reconcile twice gives the same result as applying it once.
func (r *Result) Reconcile() {
	all := shortKeywords(r.AllJobKeywords)
	listed := foldSet(all)

	found := make([]string, 0, len(r.KeywordsFound))
	for _, kw := range shortKeywords(r.KeywordsFound) {
		if listed[fold(kw)] {
			found = append(found, kw)
		}
	}
	present := foldSet(found)

	missing := make([]string, 0, len(all))
	critical := make([]CriticalKeyword, 0, len(all))
	for _, kw := range all {
		isPresent := present[fold(kw)]
		if !isPresent {
			missing = append(missing, kw)
		}
		critical = append(critical, CriticalKeyword{Term: kw, Present: isPresent})
	}

	r.AllJobKeywords = all
	r.KeywordsFound = found
	r.KeywordsMissing = missing
	r.ATSRecommendations = nonNil(r.ATSRecommendations)
	r.BehavioralCompetencies = nonNil(r.BehavioralCompetencies)
	if r.TechnicalTerms == nil {
		r.TechnicalTerms = map[string]TechnicalTerm{}
	}
	if strings.TrimSpace(r.MotivationalConclusion) == "" {
		r.MotivationalConclusion = DefaultConclusion
	}

	r.CriticalKeywords = critical
	r.PriorityAdjustments = clone(r.ATSRecommendations)
	r.ConsolidatedKeywords = clone(r.AllJobKeywords)
	r.Recommendations = clone(r.ATSRecommendations)
}

// WordCount counts the whitespace-separated words of s.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

func shortKeywords(in []string) []string {
	out := make([]string, 0, len(in))
	for _, kw := range in {
		if WordCount(kw) <= MaxKeywordWords {
			out = append(out, kw)
		}
	}
	return out
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func foldSet(in []string) map[string]bool {
	set := make(map[string]bool, len(in))
	for _, s := range in {
		set[fold(s)] = true
	}
	return set
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

func clone(in []string) []string {
	return append(make([]string, 0, len(in)), in...)
}
