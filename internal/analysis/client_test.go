package analysis

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/cv-keyword-analyzer/internal/llm"
)

type reply struct {
	text string
	err  error
}

// scriptedProvider returns replies in order and records every request.
type scriptedProvider struct {
	mu       sync.Mutex
	replies  []reply
	requests []llm.Request
}

func (p *scriptedProvider) Complete(_ context.Context, req llm.Request) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, req)
	if len(p.replies) == 0 {
		return "", &llm.Error{Kind: llm.KindUnexpected, Cause: errors.New("script exhausted")}
	}
	r := p.replies[0]
	p.replies = p.replies[1:]
	return r.text, r.err
}

func (p *scriptedProvider) Close() error { return nil }

var resume = strings.Repeat("Experienced Go engineer with Python and SQL. ", 3)

const validReply = "```json\n{\"all_job_keywords\": [\"Python\", \"SQL\"], \"keywords_found\": [\"Python\"]}\n```"

func testOptions() Options {
	return Options{PrimaryModel: "primary", FallbackModel: "fallback", MaxAttempts: 3, Temperature: 0.1, MaxTokens: 4000}
}

func rateLimited(model string) error {
	return &llm.Error{Kind: llm.KindRateLimited, Model: model}
}

func TestAnalyze_FirstReplyValid(t *testing.T) {
	p := &scriptedProvider{replies: []reply{{text: validReply}}}

	got, err := NewClient(p, testOptions(), nil).Analyze(context.Background(), resume, []string{"Job wants Python"})
	require.NoError(t, err)
	assert.Equal(t, validReply, got)

	require.Len(t, p.requests, 1)
	req := p.requests[0]
	assert.Equal(t, "primary", req.Model)
	assert.Equal(t, 0.1, req.Temperature)
	assert.Equal(t, 4000, req.MaxTokens)
	assert.NotEmpty(t, req.System)
	assert.Contains(t, req.Prompt, "Job wants Python")
	assert.Contains(t, req.Prompt, "(not provided)")
	assert.NotContains(t, req.Prompt, CorrectionAddendum())
}

func TestAnalyze_RetriesLongKeywords(t *testing.T) {
	bad := "```json\n{\"all_job_keywords\": [\"gestão de projetos e metodologias ágeis\"]}\n```"
	p := &scriptedProvider{replies: []reply{{text: bad}, {text: validReply}}}

	got, err := NewClient(p, testOptions(), nil).Analyze(context.Background(), resume, nil)
	require.NoError(t, err)
	assert.Equal(t, validReply, got)

	require.Len(t, p.requests, 2)
	assert.NotContains(t, p.requests[0].Prompt, CorrectionAddendum())
	assert.True(t, strings.HasSuffix(p.requests[1].Prompt, CorrectionAddendum()))
}

func TestAnalyze_LastAttemptReturnsRawText(t *testing.T) {
	p := &scriptedProvider{replies: []reply{{text: "no json"}, {text: "still prose"}, {text: "final prose"}}}

	got, err := NewClient(p, testOptions(), nil).Analyze(context.Background(), resume, nil)
	require.NoError(t, err)
	assert.Equal(t, "final prose", got)
	assert.Len(t, p.requests, 3)
}

func TestAnalyze_FallbackModelWithinAttempt(t *testing.T) {
	p := &scriptedProvider{replies: []reply{
		{err: &llm.Error{Kind: llm.KindProvider, Model: "primary"}},
		{text: validReply},
	}}

	got, err := NewClient(p, testOptions(), nil).Analyze(context.Background(), resume, nil)
	require.NoError(t, err)
	assert.Equal(t, validReply, got)

	require.Len(t, p.requests, 2)
	assert.Equal(t, "primary", p.requests[0].Model)
	assert.Equal(t, "fallback", p.requests[1].Model)
	assert.NotContains(t, p.requests[1].Prompt, CorrectionAddendum())
}

func TestAnalyze_AllAttemptsRateLimited(t *testing.T) {
	var replies []reply
	for i := 0; i < 3; i++ {
		replies = append(replies, reply{err: rateLimited("primary")}, reply{err: rateLimited("fallback")})
	}
	p := &scriptedProvider{replies: replies}

	_, err := NewClient(p, testOptions(), nil).Analyze(context.Background(), resume, nil)
	require.Error(t, err)

	var aerr *Error
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, llm.KindRateLimited, aerr.Kind)
	assert.Equal(t, 3, aerr.Attempts)
	assert.Len(t, p.requests, 6)
	assert.Equal(t, llm.KindRateLimited, llm.KindOf(err))
}

func TestAnalyze_NoFallbackConfigured(t *testing.T) {
	opts := testOptions()
	opts.FallbackModel = ""
	opts.MaxAttempts = 2
	p := &scriptedProvider{replies: []reply{
		{err: &llm.Error{Kind: llm.KindConnection}},
		{err: &llm.Error{Kind: llm.KindTimeout}},
	}}

	_, err := NewClient(p, opts, nil).Analyze(context.Background(), resume, nil)
	var aerr *Error
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, llm.KindTimeout, aerr.Kind)
	assert.Len(t, p.requests, 2)
}

func TestAnalyze_InputTooShort(t *testing.T) {
	p := &scriptedProvider{}

	_, err := NewClient(p, testOptions(), nil).Analyze(context.Background(), "   short résumé   ", nil)
	assert.ErrorIs(t, err, ErrInputTooShort)
	assert.Empty(t, p.requests)
}

func TestAnalyze_ContextCancelled(t *testing.T) {
	p := &scriptedProvider{replies: []reply{{text: validReply}}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient(p, testOptions(), nil).Analyze(ctx, resume, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, p.requests)
}

func TestAnalyze_BackoffHonorsDeadline(t *testing.T) {
	opts := testOptions()
	opts.FallbackModel = ""
	opts.Backoff = time.Minute
	p := &scriptedProvider{replies: []reply{{err: &llm.Error{Kind: llm.KindProvider}}}}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := NewClient(p, opts, nil).Analyze(ctx, resume, nil)
	assert.Less(t, time.Since(start), 5*time.Second)

	var aerr *Error
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, llm.KindTimeout, aerr.Kind)
	assert.Len(t, p.requests, 1)
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions(llm.DefaultAnthropicConfig())
	assert.Equal(t, 3, opts.MaxAttempts)
	assert.Equal(t, 0.1, opts.Temperature)
	assert.Equal(t, 4000, opts.MaxTokens)
	assert.NotEmpty(t, opts.PrimaryModel)
	assert.NotEmpty(t, opts.FallbackModel)
}

func TestUserMessage_Distinct(t *testing.T) {
	kinds := []llm.ErrorKind{llm.KindTimeout, llm.KindRateLimited, llm.KindConnection, llm.KindProvider, llm.KindUnexpected}
	seen := map[string]bool{}
	for _, k := range kinds {
		msg := UserMessage(k)
		assert.NotEmpty(t, msg)
		assert.False(t, seen[msg], "duplicate message for %s", k)
		seen[msg] = true
	}
}
