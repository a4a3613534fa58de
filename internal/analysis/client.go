// Package analysis drives the keyword-gap analysis against an LLM provider:
// it renders the prompt, calls the primary and fallback models, and retries
// with a corrective addendum until the reply looks like the expected JSON.
package analysis

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/jonathan/cv-keyword-analyzer/internal/llm"
	"github.com/jonathan/cv-keyword-analyzer/internal/logging"
)

const (
	// MinResumeChars is the shortest trimmed résumé text accepted.
	MinResumeChars = 50
	// LargePromptChars triggers a warning about prompt size.
	LargePromptChars = 100000
)

// Options tunes the retry loop and the generation settings.
type Options struct {
	PrimaryModel  string
	FallbackModel string
	MaxAttempts   int
	Temperature   float64
	MaxTokens     int
	// Backoff is the pause between attempts; zero retries immediately.
	Backoff time.Duration
}

// DefaultOptions returns generation settings for the given model configuration.
func DefaultOptions(cfg *llm.Config) Options {
	if cfg == nil {
		cfg = llm.DefaultConfig()
	}
	return Options{
		PrimaryModel:  cfg.GetModel(llm.TierPrimary),
		FallbackModel: cfg.GetModel(llm.TierFallback),
		MaxAttempts:   3,
		Temperature:   0.1,
		MaxTokens:     4000,
	}
}

// Client runs analyses against a provider.
type Client struct {
	provider llm.Provider
	opts     Options
	log      logrus.FieldLogger
}

// NewClient creates a Client. A nil logger discards output.
func NewClient(provider llm.Provider, opts Options, log logrus.FieldLogger) *Client {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	return &Client{provider: provider, opts: opts, log: logging.OrDiscard(log)}
}

// Analyze returns the raw model reply for the résumé and up to two job texts.
// A reply is returned even when it fails validation on the last attempt; the
// normalizer repairs it. Provider failures on every attempt yield an *Error.
func (c *Client) Analyze(ctx context.Context, resumeText string, jobTexts []string) (string, error) {
	if utf8.RuneCountInString(strings.TrimSpace(resumeText)) < MinResumeChars {
		return "", ErrInputTooShort
	}
	if len(jobTexts) > MaxJobs {
		c.log.WithField("jobs", len(jobTexts)).Warn("only the first two job texts are analyzed")
	}
	if len(jobTexts) == 0 {
		c.log.Warn("no job texts available, analyzing résumé alone")
	}

	base := BuildPrompt(resumeText, jobTexts)
	if n := utf8.RuneCountInString(base); n > LargePromptChars {
		c.log.WithField("chars", n).Warn("prompt is very large and may be rejected by the provider")
	}

	var lastErr error
	for attempt := 1; attempt <= c.opts.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", c.contextError(err, attempt-1)
		}

		log := c.log.WithField("attempt", attempt)
		prompt := base
		if attempt > 1 {
			prompt += CorrectionAddendum()
		}

		text, err := c.complete(ctx, prompt, log)
		if err != nil {
			lastErr = err
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", c.contextError(ctxErr, attempt)
			}
			log.WithError(err).WithField("kind", llm.KindOf(err)).Warn("analysis attempt failed")
			if attempt < c.opts.MaxAttempts {
				if err := c.wait(ctx); err != nil {
					return "", c.contextError(err, attempt)
				}
			}
			continue
		}

		verr := CheckResponse(text)
		if verr == nil {
			log.WithField("chars", len(text)).Info("received valid analysis")
			return text, nil
		}
		if attempt == c.opts.MaxAttempts {
			log.WithError(verr).Warn("returning unvalidated reply from last attempt")
			return text, nil
		}
		log.WithError(verr).Warn("reply rejected, retrying with correction")
		if err := c.wait(ctx); err != nil {
			return "", c.contextError(err, attempt)
		}
	}

	return "", &Error{Kind: llm.KindOf(lastErr), Attempts: c.opts.MaxAttempts, Cause: lastErr}
}

// complete tries the primary model, then the fallback model once.
func (c *Client) complete(ctx context.Context, prompt string, log logrus.FieldLogger) (string, error) {
	req := llm.Request{
		Model:       c.opts.PrimaryModel,
		System:      SystemInstruction(),
		Prompt:      prompt,
		Temperature: c.opts.Temperature,
		MaxTokens:   c.opts.MaxTokens,
	}

	text, err := c.provider.Complete(ctx, req)
	if err == nil {
		return text, nil
	}
	if c.opts.FallbackModel == "" || c.opts.FallbackModel == c.opts.PrimaryModel || ctx.Err() != nil {
		return "", err
	}

	log.WithError(err).WithField("model", c.opts.FallbackModel).Warn("primary model failed, trying fallback")
	req.Model = c.opts.FallbackModel
	return c.provider.Complete(ctx, req)
}

func (c *Client) wait(ctx context.Context) error {
	if c.opts.Backoff <= 0 {
		return nil
	}
	timer := time.NewTimer(c.opts.Backoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// contextError reports a deadline as a timeout and passes cancellation through.
func (c *Client) contextError(err error, attempts int) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: llm.KindTimeout, Attempts: attempts, Cause: err}
	}
	return err
}
