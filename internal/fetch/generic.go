package fetch

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// MinSectionChars is the length a requirement section must exceed to replace the full text.
const MinSectionChars = 100

// containerTerms mark divs that probably hold a job description.
var containerTerms = []string{"job", "description", "vacancy", "requisites", "requirements"}

// requirementHeadings are tried in order; the first that matches wins.
var requirementHeadings = []*regexp.Regexp{
	regexp.MustCompile(`(?is)(?:Requisitos|Requirements|Qualifications)[\s:]+(.+)`),
	regexp.MustCompile(`(?is)(?:Experiência|Experience|Skills)[\s:]+(.+)`),
	regexp.MustCompile(`(?is)(?:O que buscamos|We are looking for|Perfil)[\s:]+(.+)`),
}

var blankLine = regexp.MustCompile(`\n\s*\n`)

// GenericText extracts a description from a page of unknown layout: the
// largest job-like div, else body, else the whole document. A requirement
// section is preferred over the full text when one is found.
func GenericText(doc *goquery.Document) string {
	doc.Find("script, style, nav, header, footer, noscript").Remove()

	var (
		best      *goquery.Selection
		bestChars int
	)
	doc.Find("div").Each(func(_ int, div *goquery.Selection) {
		if !looksLikeJobContainer(div) {
			return
		}
		if n := utf8.RuneCountInString(div.Text()); best == nil || n > bestChars {
			best, bestChars = div, n
		}
	})

	var text string
	switch {
	case best != nil:
		text = nodeText(best)
	case doc.Find("body").Length() > 0:
		text = nodeText(doc.Find("body"))
	default:
		text = nodeText(doc.Selection)
	}

	if section, ok := RequirementSection(text); ok {
		return section
	}
	return text
}

func looksLikeJobContainer(div *goquery.Selection) bool {
	id, _ := div.Attr("id")
	class, _ := div.Attr("class")
	id, class = strings.ToLower(id), strings.ToLower(class)
	for _, term := range containerTerms {
		if strings.Contains(id, term) || strings.Contains(class, term) {
			return true
		}
	}
	return false
}

// RequirementSection finds the text under the first recognized requirement
// heading. The section ends at the first blank line or the end of text and is
// reported only when longer than MinSectionChars.
func RequirementSection(text string) (string, bool) {
	for _, re := range requirementHeadings {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		section := m[1]
		if loc := blankLine.FindStringIndex(section); loc != nil {
			section = section[:loc[0]]
		}
		if utf8.RuneCountInString(section) > MinSectionChars {
			return strings.TrimSpace(section), true
		}
		return "", false
	}
	return "", false
}
