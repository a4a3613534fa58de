package fetch

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Site describes a job board with a known description container.
type Site struct {
	Name string
	// Hosts are matched as substrings of the lower-cased URL host.
	Hosts []string
	// Selectors are tried in order; the first one that matches wins.
	Selectors []string
	// Noise is removed before the selectors run.
	Noise []string
}

// commonNoise strips application forms and legal boilerplate found on ATS boards.
var commonNoise = []string{
	"script", "style", "noscript",
	"form", "#application-form", ".application-form", ".apply-button-container",
	".eeo-statement", ".eeo-section", ".voluntary-disclosure", ".self-identification",
	".social-share", ".share-buttons", ".cookie-banner", ".cookie-consent", ".gdpr-notice",
}

// Sites is the ordered dispatch table. The first site whose host pattern
// matches handles the URL; unmatched URLs go to the generic extractor.
var Sites = []Site{
	{
		Name:      "linkedin",
		Hosts:     []string{"linkedin.com"},
		Selectors: []string{".description__text", ".show-more-less-html__markup"},
	},
	{
		Name:      "glassdoor",
		Hosts:     []string{"glassdoor.com"},
		Selectors: []string{".jobDescriptionContent", "#JobDesc"},
	},
	{
		Name:      "indeed",
		Hosts:     []string{"indeed.com"},
		Selectors: []string{"#jobDescriptionText", ".job-description"},
	},
	{
		Name:      "greenhouse",
		Hosts:     []string{"greenhouse.io"},
		Selectors: []string{".job__description.body", ".job__description", ".job-description__content", "#content"},
		Noise:     []string{".application--wrapper", ".voluntary-self-id", "#usa_self_id_section", ".post-apply"},
	},
	{
		Name:      "lever",
		Hosts:     []string{"lever.co"},
		Selectors: []string{".posting-page", ".section-wrapper.page-full-width", ".posting-description"},
		Noise:     []string{".apply-section", ".lever-application-form", ".posting-apply"},
	},
	{
		Name:      "workday",
		Hosts:     []string{"myworkdayjobs.com", "workday.com"},
		Selectors: []string{"[data-automation-id='jobPostingDescription']", "[data-automation-id='jobDescription']"},
		Noise:     []string{"[data-automation-id='applyButton']", ".application-section"},
	},
}

// MatchSite returns the dispatch table entry for rawURL.
func MatchSite(rawURL string) (Site, bool) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return Site{}, false
	}
	host := strings.ToLower(parsed.Hostname())
	for _, site := range Sites {
		for _, pattern := range site.Hosts {
			if strings.Contains(host, pattern) {
				return site, true
			}
		}
	}
	return Site{}, false
}

// Extract returns the collapsed text of the first matching container, or ""
// when none of the site's selectors match.
func (s Site) Extract(doc *goquery.Document) string {
	removeAll(doc, commonNoise)
	removeAll(doc, s.Noise)

	for _, selector := range s.Selectors {
		if sel := doc.Find(selector); sel.Length() > 0 {
			return nodeText(sel.First())
		}
	}
	return ""
}

func removeAll(doc *goquery.Document, selectors []string) {
	if len(selectors) > 0 {
		doc.Find(strings.Join(selectors, ", ")).Remove()
	}
}
