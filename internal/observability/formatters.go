// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/cv-keyword-analyzer/internal/normalize"
	"github.com/jonathan/cv-keyword-analyzer/internal/textutil"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		if utf8.RuneCountInString(line) > boxWidth-4 {
			line = textutil.Truncate(line, boxWidth-4-len(textutil.Ellipsis))
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintProgress writes a one-line progress update.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintProgress(step, message string) {
	fmt.Fprintf(p.out, "[%s] %s\n", step, message)
}

// PrintAnalysis outputs a human-readable summary of an analysis result.
func (p *Printer) PrintAnalysis(r *normalize.Result) {
	if r == nil {
		return
	}

	var sb strings.Builder

	total := len(r.AllJobKeywords)
	found := len(r.KeywordsFound)
	sb.WriteString(fmt.Sprintf("Keywords: %d found of %d", found, total))
	if total > 0 {
		sb.WriteString(fmt.Sprintf(" (%d%%)", found*100/total))
	}
	sb.WriteString("\n\n")

	writeList(&sb, "Found", r.KeywordsFound)
	writeList(&sb, "Missing", r.KeywordsMissing)

	if len(r.TechnicalTerms) > 0 {
		sb.WriteString("Technical terms:\n")
		terms := make([]normalize.TechnicalTerm, 0, len(r.TechnicalTerms))
		for _, term := range r.TechnicalTerms {
			terms = append(terms, term)
		}
		sort.Slice(terms, func(i, j int) bool {
			if terms[i].Frequency != terms[j].Frequency {
				return terms[i].Frequency > terms[j].Frequency
			}
			return terms[i].Term < terms[j].Term
		})
		count := min(len(terms), maxItemsToShow)
		for _, term := range terms[:count] {
			sb.WriteString(fmt.Sprintf("  • %s ×%d (%s)\n", term.Term, term.Frequency, term.Relevance))
		}
		if len(terms) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(terms)-maxItemsToShow))
		}
		sb.WriteString("\n")
	}

	writeList(&sb, "Recommendations", r.ATSRecommendations)
	sb.WriteString(r.MotivationalConclusion)
	if r.Error != "" {
		sb.WriteString("\n\n⚠ " + r.Error)
	}

	p.printBox("KEYWORD ANALYSIS", sb.String())
}

func writeList(sb *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	sb.WriteString(title + ":\n")
	count := min(len(items), maxItemsToShow)
	for _, item := range items[:count] {
		sb.WriteString(fmt.Sprintf("  • %s\n", item))
	}
	if len(items) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(items)-maxItemsToShow))
	}
	sb.WriteString("\n")
}
