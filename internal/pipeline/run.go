// Package pipeline wires extraction, job fetching, analysis and normalization
// into a single request-scoped run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/jonathan/cv-keyword-analyzer/internal/extraction"
	"github.com/jonathan/cv-keyword-analyzer/internal/logging"
	"github.com/jonathan/cv-keyword-analyzer/internal/normalize"
	"github.com/jonathan/cv-keyword-analyzer/internal/schemas"
)

// ErrNoText is returned when the résumé was readable but yielded no text.
var ErrNoText = errors.New("could not extract text from the résumé")

// Step names reported through ProgressEvent.
const (
	StepExtract   = "extract_resume"
	StepFetch     = "fetch_jobs"
	StepAnalyze   = "analyze"
	StepNormalize = "normalize"
)

// ProgressEvent represents a progress update during a run
type ProgressEvent struct {
	Step    string `json:"step"`
	Message string `json:"message"`
	Content any    `json:"content,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

// Input is one analysis request. Kind may be empty, in which case it is
// derived from the ResumePath extension.
type Input struct {
	ResumePath string
	Kind       extraction.Kind
	JobURLs    []string

	// OnProgress, when set, receives an event after each stage.
	OnProgress ProgressCallback
}

// TextExtractor reads résumé text from disk.
type TextExtractor interface {
	Extract(path string, kind extraction.Kind) (string, bool, error)
}

// JobFetcher returns the requirement text of every reachable job URL, in order.
type JobFetcher interface {
	FetchAll(ctx context.Context, urls []string) []string
}

// Analyzer returns the raw model reply for a résumé and its job texts.
type Analyzer interface {
	Analyze(ctx context.Context, resumeText string, jobTexts []string) (string, error)
}

// Pipeline runs the analysis stages in order.
type Pipeline struct {
	extractor  TextExtractor
	fetcher    JobFetcher
	analyzer   Analyzer
	normalizer *normalize.Normalizer
	log        logrus.FieldLogger
}

// New creates a Pipeline. A nil logger discards output.
func New(extractor TextExtractor, fetcher JobFetcher, analyzer Analyzer, log logrus.FieldLogger) *Pipeline {
	log = logging.OrDiscard(log)
	return &Pipeline{
		extractor:  extractor,
		fetcher:    fetcher,
		analyzer:   analyzer,
		normalizer: normalize.New(log),
		log:        log,
	}
}

func (in *Input) emit(step, message string, content any) {
	if in.OnProgress != nil {
		in.OnProgress(ProgressEvent{Step: step, Message: message, Content: content})
	}
}

// Run extracts the résumé, fetches the job texts, analyzes them and returns
// the normalized result. Job fetch failures never fail the run.
func (p *Pipeline) Run(ctx context.Context, in Input) (*normalize.Result, error) {
	kind := in.Kind
	if kind == "" {
		kind = extraction.KindFromFilename(in.ResumePath)
	}

	resumeText, ok, err := p.extractor.Extract(in.ResumePath, kind)
	if err != nil {
		return nil, fmt.Errorf("résumé extraction failed: %w", err)
	}
	if !ok {
		return nil, ErrNoText
	}
	in.emit(StepExtract, fmt.Sprintf("Extracted %d characters from the résumé", len([]rune(resumeText))), nil)

	urls := JobLinks(in.JobURLs)
	var jobTexts []string
	if len(urls) > 0 {
		jobTexts = p.fetcher.FetchAll(ctx, urls)
	}
	p.log.WithFields(logrus.Fields{"requested": len(urls), "fetched": len(jobTexts)}).Info("fetched job requirements")
	in.emit(StepFetch, fmt.Sprintf("Fetched %d of %d job postings", len(jobTexts), len(urls)), nil)

	raw, err := p.analyzer.Analyze(ctx, resumeText, jobTexts)
	if err != nil {
		return nil, err
	}
	in.emit(StepAnalyze, "Received analysis reply", nil)

	result := p.normalizer.Normalize(raw)
	if verr := schemas.ValidateAnalysisResult(result); verr != nil {
		p.log.WithError(verr).Error("normalized result does not match the result schema")
	}
	if result.Error != "" {
		p.log.WithField("reason", result.Error).Warn("returning degraded analysis")
	}
	in.emit(StepNormalize, "Analysis complete", result)
	return result, nil
}

// JobLinks drops blank links and prefixes https:// when a link has no scheme.
func JobLinks(links []string) []string {
	out := make([]string, 0, len(links))
	for _, link := range links {
		link = strings.TrimSpace(link)
		if link == "" {
			continue
		}
		if !strings.HasPrefix(link, "http://") && !strings.HasPrefix(link, "https://") {
			link = "https://" + link
		}
		out = append(out, link)
	}
	return out
}
