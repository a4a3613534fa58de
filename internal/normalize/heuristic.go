package normalize

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// field names a Result field a heuristic section feeds.
type field int

const (
	fieldTechnicalTerms field = iota
	fieldCompetencies
	fieldCriticalKeywords
	fieldAdjustments
	fieldConclusion
)

// sectionRule binds the headers of a prose section to the field it fills.
// Headers are written without accents; matching tolerates accents and case.
type sectionRule struct {
	field   field
	headers []string
}

// sectionRules is the ordered rule table for replies that are not JSON.
var sectionRules = []sectionRule{
	{fieldTechnicalTerms, []string{"termos tecnicos", "technical terms"}},
	{fieldCompetencies, []string{"competencias comportamentais", "behavioral competencies", "soft skills"}},
	{fieldCriticalKeywords, []string{"palavras-chave criticas", "palavras chave criticas", "critical keywords"}},
	{fieldAdjustments, []string{"ajustes prioritarios", "priority adjustments"}},
	{fieldConclusion, []string{"conclusao", "conclusion"}},
}

var accentClasses = map[rune]string{
	'a': "[aáàâã]", 'e': "[eéê]", 'i': "[ií]", 'o': "[oóôõ]", 'u': "[uúü]", 'c': "[cç]",
}

// headerPattern builds an accent- and case-tolerant regexp for a header that
// starts a line (allowing markdown emphasis) and is followed by a colon or
// whitespace.
func headerPattern(headers []string) *regexp.Regexp {
	alts := make([]string, len(headers))
	for i, h := range headers {
		var sb strings.Builder
		for _, r := range h {
			switch {
			case accentClasses[r] != "":
				sb.WriteString(accentClasses[r])
			case r == ' ' || r == '-':
				sb.WriteString(`[\s-]+`)
			default:
				sb.WriteString(regexp.QuoteMeta(string(r)))
			}
		}
		alts[i] = sb.String()
	}
	return regexp.MustCompile(`(?im)^[\s#*_]*(?:` + strings.Join(alts, "|") + `)[*_]*(?:[:\s]+|$)`)
}

var (
	sectionPatterns = func() []*regexp.Regexp {
		out := make([]*regexp.Regexp, len(sectionRules))
		for i, rule := range sectionRules {
			out[i] = headerPattern(rule.headers)
		}
		return out
	}()

	blankLineRe     = regexp.MustCompile(`\n[ \t]*\n`)
	bulletRe        = regexp.MustCompile(`^\s*(?:[-*•·]|\d+[.)])\s*`)
	freqRe          = regexp.MustCompile(`[(:\-–]\s*(\d+)`)
	relevanceWordRe = regexp.MustCompile(`(?i)\b(alta|alto|high|m[eé]dia|medium|baixa|baixo|low)\b`)

	// trailingRelevanceRe matches "Docker - Baixa" or "Go (relevância alta)".
	trailingRelevanceRe = regexp.MustCompile(`(?i)\s*[(:\-–,]\s*(?:relev[aâ]ncia\s*:?\s*)?(alta|alto|high|m[eé]dia|medium|baixa|baixo|low)\)?\s*$`)
	statusRe            = regexp.MustCompile(`(?i)\s*[(:\-–]\s*(presente|ausente|sim|n[aã]o|present|absent|yes|no)\)?\s*$`)
	markRe              = regexp.MustCompile(`\s*([✓✗])\s*$`)
)

// section is a header match inside the reply.
type section struct {
	rule       int
	start, end int // header span
}

// parseHeuristic recovers fields from a prose reply. It reports false when no
// list section yielded anything.
func parseHeuristic(text string) (*Result, bool) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	sections := locateSections(text)

	r := &Result{TechnicalTerms: map[string]TechnicalTerm{}}
	var critical []CriticalKeyword
	for i, sec := range sections {
		bodyEnd := len(text)
		if i+1 < len(sections) {
			bodyEnd = sections[i+1].start
		}
		body := text[sec.end:bodyEnd]
		if loc := blankLineRe.FindStringIndex(body); loc != nil {
			body = body[:loc[0]]
		}
		body = strings.TrimSpace(body)
		if body == "" {
			continue
		}

		switch sectionRules[sec.rule].field {
		case fieldTechnicalTerms:
			for _, item := range lineItems(body) {
				if term, ok := parseTermItem(item); ok {
					r.TechnicalTerms[term.Term] = term
				}
			}
		case fieldCompetencies:
			r.BehavioralCompetencies = append(r.BehavioralCompetencies, listItems(body)...)
		case fieldCriticalKeywords:
			for _, item := range listItems(body) {
				if kw, ok := parseKeywordItem(item); ok {
					critical = append(critical, kw)
				}
			}
		case fieldAdjustments:
			r.ATSRecommendations = append(r.ATSRecommendations, lineItems(body)...)
		case fieldConclusion:
			if r.MotivationalConclusion == "" {
				r.MotivationalConclusion = strings.Join(strings.Fields(body), " ")
			}
		}
	}

	for _, kw := range critical {
		r.AllJobKeywords = append(r.AllJobKeywords, kw.Term)
		if kw.Present {
			r.KeywordsFound = append(r.KeywordsFound, kw.Term)
		}
	}

	if len(r.TechnicalTerms) == 0 && len(r.BehavioralCompetencies) == 0 &&
		len(critical) == 0 && len(r.ATSRecommendations) == 0 {
		return nil, false
	}
	r.Error = MsgHeuristicParse
	r.Reconcile()
	return r, true
}

// locateSections returns the first header match of each rule, ordered by
// position in the text.
func locateSections(text string) []section {
	var out []section
	for i, re := range sectionPatterns {
		if loc := re.FindStringIndex(text); loc != nil {
			out = append(out, section{rule: i, start: loc[0], end: loc[1]})
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].start < out[b].start })
	return out
}

// lineItems splits a section body into one item per line, without bullets.
func lineItems(body string) []string {
	var out []string
	for _, line := range strings.Split(body, "\n") {
		if item := cleanItem(line); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// listItems splits on lines and commas, for sections of short labels.
func listItems(body string) []string {
	var out []string
	for _, line := range lineItems(body) {
		for _, part := range strings.FieldsFunc(line, func(r rune) bool { return r == ',' || r == ';' }) {
			if item := cleanItem(part); item != "" {
				out = append(out, item)
			}
		}
	}
	return out
}

func cleanItem(s string) string {
	s = bulletRe.ReplaceAllString(s, "")
	s = strings.Trim(s, " \t*_.")
	return strings.Join(strings.Fields(s), " ")
}

// parseTermItem reads "Python (3) - Alta", "Go: 2, relevância alta",
// "Docker - Baixa" or a bare name.
func parseTermItem(item string) (TechnicalTerm, bool) {
	term := TechnicalTerm{Frequency: 1, Relevance: RelevanceMedium}
	name := item

	if loc := freqRe.FindStringSubmatchIndex(item); loc != nil && loc[0] > 0 {
		if n, err := strconv.Atoi(item[loc[2]:loc[3]]); err == nil {
			term.Frequency = n
		}
		name = item[:loc[0]]
		if m := relevanceWordRe.FindStringSubmatch(item[loc[1]:]); m != nil {
			term.Relevance = ParseRelevance(m[1])
		}
	} else if loc := trailingRelevanceRe.FindStringSubmatchIndex(item); loc != nil && loc[0] > 0 {
		term.Relevance = ParseRelevance(item[loc[2]:loc[3]])
		name = item[:loc[0]]
	}

	term.Term = strings.Trim(strings.TrimSpace(name), " -–:(),")
	if term.Term == "" {
		return TechnicalTerm{}, false
	}
	return term, true
}

// parseKeywordItem reads "SQL (ausente)", "Python: sim", "Go ✓" or a bare
// keyword, which counts as present.
func parseKeywordItem(item string) (CriticalKeyword, bool) {
	kw := CriticalKeyword{Present: true}
	name := item

	if m := statusRe.FindStringSubmatchIndex(name); m != nil && m[0] > 0 {
		switch stripAccents(strings.ToLower(name[m[2]:m[3]])) {
		case "presente", "sim", "present", "yes":
			kw.Present = true
		default:
			kw.Present = false
		}
		name = name[:m[0]]
	} else if m := markRe.FindStringSubmatchIndex(name); m != nil && m[0] > 0 {
		kw.Present = name[m[2]:m[3]] == "✓"
		name = name[:m[0]]
	}

	kw.Term = strings.Trim(strings.TrimSpace(name), " -–:()")
	if kw.Term == "" {
		return CriticalKeyword{}, false
	}
	return kw, true
}
