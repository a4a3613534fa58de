package fetch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/cv-keyword-analyzer/internal/logging"
	"github.com/jonathan/cv-keyword-analyzer/internal/textutil"
)

// MaxRequirementChars caps each job text, in runes.
const MaxRequirementChars = 10000

// DefaultConcurrency is the number of postings fetched at once by FetchAll.
const DefaultConcurrency = 2

// Fetcher turns job posting URLs into requirement text. Failures are logged
// and reported as absence, never as errors.
type Fetcher struct {
	opts        *Options
	renderer    Renderer
	concurrency int
	log         logrus.FieldLogger
}

// Option customizes a Fetcher.
type Option func(*Fetcher)

// WithOptions replaces the HTTP request options.
func WithOptions(opts *Options) Option {
	return func(f *Fetcher) { f.opts = opts }
}

// WithRenderer enables the headless browser pass for short pages.
func WithRenderer(r Renderer) Option {
	return func(f *Fetcher) { f.renderer = r }
}

// WithConcurrency bounds FetchAll; values below 1 mean sequential.
func WithConcurrency(n int) Option {
	return func(f *Fetcher) { f.concurrency = max(n, 1) }
}

// NewFetcher creates a Fetcher with browser-like defaults and no renderer.
func NewFetcher(log logrus.FieldLogger, opts ...Option) *Fetcher {
	f := &Fetcher{
		opts:        DefaultOptions(),
		concurrency: DefaultConcurrency,
		log:         logging.OrDiscard(log),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchRequirements returns the requirement text of the posting at rawURL.
// The boolean is false when nothing usable was obtained.
func (f *Fetcher) FetchRequirements(ctx context.Context, rawURL string) (text string, ok bool) {
	log := f.log.WithField("url", rawURL)
	defer func() {
		if rec := recover(); rec != nil {
			log.WithField("panic", rec).Error("job posting extraction panicked")
			text, ok = "", false
		}
	}()

	if strings.TrimSpace(rawURL) == "" {
		return "", false
	}

	text, err := f.fetchText(ctx, rawURL)
	if err != nil {
		entry := log.WithError(err)
		var fetchErr *Error
		if errors.As(err, &fetchErr) {
			entry = entry.WithField("kind", fetchErr.Kind)
			if fetchErr.StatusCode != 0 {
				entry = entry.WithField("status", fetchErr.StatusCode)
			}
		}
		entry.Warn("could not fetch job posting")
		return "", false
	}

	if f.renderer != nil && ShouldUseBrowser(text) {
		if rendered, err := f.renderText(ctx, rawURL); err != nil {
			log.WithError(err).Warn("browser rendering failed, keeping HTTP text")
		} else if len(rendered) > len(text) {
			text = rendered
		}
	}

	if text == "" {
		log.Warn("no description found in job posting")
		return "", false
	}

	chars := len([]rune(text))
	if chars > MaxRequirementChars {
		log.WithField("chars", chars).Warn("job description too long, truncating")
	}
	log.WithField("chars", chars).Info("extracted job requirements")
	return textutil.Truncate(text, MaxRequirementChars), true
}

func (f *Fetcher) fetchText(ctx context.Context, rawURL string) (string, error) {
	result, err := URL(ctx, rawURL, f.opts)
	if err != nil {
		return "", err
	}
	return ExtractText(rawURL, result.HTML)
}

func (f *Fetcher) renderText(ctx context.Context, rawURL string) (string, error) {
	html, err := f.renderer.Render(ctx, rawURL)
	if err != nil {
		return "", err
	}
	return ExtractText(rawURL, html)
}

// ExtractText picks the extractor for rawURL from the dispatch table and runs it on html.
func ExtractText(rawURL, html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	if site, ok := MatchSite(rawURL); ok {
		return site.Extract(doc), nil
	}
	return GenericText(doc), nil
}

// FetchAll fetches every non-blank URL and returns the texts that were
// obtained, in input order.
func (f *Fetcher) FetchAll(ctx context.Context, urls []string) []string {
	texts := make([]string, len(urls))
	found := make([]bool, len(urls))

	var g errgroup.Group
	g.SetLimit(max(f.concurrency, 1))
	for i, u := range urls {
		if strings.TrimSpace(u) == "" {
			continue
		}
		g.Go(func() error {
			texts[i], found[i] = f.FetchRequirements(ctx, u)
			return nil
		})
	}
	_ = g.Wait()

	out := make([]string, 0, len(urls))
	for i, ok := range found {
		if ok {
			out = append(out, texts[i])
		}
	}
	return out
}
