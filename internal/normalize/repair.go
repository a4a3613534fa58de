package normalize

import (
	"math"
	"strconv"
	"strings"
)

// Repair builds a Result from a decoded JSON object, tolerating missing keys
// and wrong types. Unknown keys are ignored and derived fields are recomputed.
func Repair(obj map[string]any) *Result {
	r := &Result{
		AllJobKeywords:         stringList(obj["all_job_keywords"]),
		KeywordsFound:          stringList(obj["keywords_found"]),
		KeywordsMissing:        stringList(obj["keywords_missing"]),
		ATSRecommendations:     stringList(obj["ats_recommendations"]),
		TechnicalTerms:         technicalTerms(obj["termos_tecnicos"]),
		BehavioralCompetencies: stringList(obj["competencias_comportamentais"]),
	}
	if s, ok := obj["motivational_conclusion"].(string); ok {
		r.MotivationalConclusion = strings.TrimSpace(s)
	}
	if s, ok := obj["error"].(string); ok {
		r.Error = s
	}
	r.Reconcile()
	return r
}

// stringList keeps the non-blank string entries of a JSON array. Anything
// that is not an array becomes an empty list.
func stringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func technicalTerms(v any) map[string]TechnicalTerm {
	terms := map[string]TechnicalTerm{}
	obj, ok := v.(map[string]any)
	if !ok {
		return terms
	}
	for key, raw := range obj {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		terms[key] = technicalTerm(key, raw)
	}
	return terms
}

func technicalTerm(key string, raw any) TechnicalTerm {
	term := TechnicalTerm{Term: key, Frequency: 1, Relevance: RelevanceMedium}

	switch v := raw.(type) {
	case map[string]any:
		if s, ok := v["termo"].(string); ok && strings.TrimSpace(s) != "" {
			term.Term = strings.TrimSpace(s)
		}
		if f, ok := frequency(v["frequencia"]); ok {
			term.Frequency = f
		}
		if s, ok := v["relevancia"].(string); ok {
			term.Relevance = ParseRelevance(s)
		}
	default:
		if f, ok := frequency(v); ok {
			term.Frequency = f
		}
	}
	return term
}

// frequency accepts JSON numbers and numeric strings, clamping negatives to zero.
func frequency(v any) (int, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || f < 0 {
		return 0, true
	}
	if f > math.MaxInt32 {
		return math.MaxInt32, true
	}
	return int(f), true
}

// ParseRelevance maps Portuguese or English relevance labels, with or without
// accents, to a Relevance. Unknown labels are Média.
func ParseRelevance(s string) Relevance {
	switch stripAccents(strings.ToLower(strings.TrimSpace(s))) {
	case "alta", "alto", "high":
		return RelevanceHigh
	case "baixa", "baixo", "low":
		return RelevanceLow
	default:
		return RelevanceMedium
	}
}

var accentFolder = strings.NewReplacer(
	"á", "a", "à", "a", "â", "a", "ã", "a",
	"é", "e", "ê", "e",
	"í", "i",
	"ó", "o", "ô", "o", "õ", "o",
	"ú", "u", "ü", "u",
	"ç", "c",
)

func stripAccents(s string) string {
	return accentFolder.Replace(s)
}
