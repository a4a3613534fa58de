package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/cv-keyword-analyzer/internal/analysis"
	"github.com/jonathan/cv-keyword-analyzer/internal/extraction"
	"github.com/jonathan/cv-keyword-analyzer/internal/llm"
	"github.com/jonathan/cv-keyword-analyzer/internal/normalize"
)

type fakeExtractor struct {
	text string
	ok   bool
	err  error

	gotKind extraction.Kind
}

func (f *fakeExtractor) Extract(_ string, kind extraction.Kind) (string, bool, error) {
	f.gotKind = kind
	return f.text, f.ok, f.err
}

type fakeFetcher struct {
	texts map[string]string
	calls int
}

func (f *fakeFetcher) FetchAll(_ context.Context, urls []string) []string {
	f.calls++
	var out []string
	for _, u := range urls {
		if text, ok := f.texts[u]; ok {
			out = append(out, text)
		}
	}
	return out
}

type fakeAnalyzer struct {
	reply string
	err   error

	gotJobs []string
}

func (f *fakeAnalyzer) Analyze(_ context.Context, _ string, jobs []string) (string, error) {
	f.gotJobs = jobs
	return f.reply, f.err
}

const reply = "```json\n{\"all_job_keywords\": [\"Python\", \"SQL\"], \"keywords_found\": [\"Python\"]}\n```"

func TestRun_Success(t *testing.T) {
	ex := &fakeExtractor{text: "résumé text", ok: true}
	fe := &fakeFetcher{texts: map[string]string{"https://jobs.example.com/1": "Python and SQL"}}
	an := &fakeAnalyzer{reply: reply}

	var steps []string
	p := New(ex, fe, an, nil)

	got, err := p.Run(context.Background(), Input{
		ResumePath: "/tmp/cv.PDF",
		JobURLs:    []string{"jobs.example.com/1", "  "},
		OnProgress: func(ev ProgressEvent) { steps = append(steps, ev.Step) },
	})
	require.NoError(t, err)

	assert.Equal(t, extraction.KindPDF, ex.gotKind)
	assert.Equal(t, []string{"Python and SQL"}, an.gotJobs)
	assert.Equal(t, []string{"SQL"}, got.KeywordsMissing)
	assert.Equal(t, []string{StepExtract, StepFetch, StepAnalyze, StepNormalize}, steps)
}

func TestRun_DeadLinksStillAnalyze(t *testing.T) {
	an := &fakeAnalyzer{reply: ""}
	p := New(&fakeExtractor{text: "text", ok: true}, &fakeFetcher{}, an, nil)

	got, err := p.Run(context.Background(), Input{ResumePath: "cv.docx", JobURLs: []string{"https://gone.example.com/404"}})
	require.NoError(t, err)

	assert.Empty(t, an.gotJobs)
	assert.Equal(t, normalize.Fallback(normalize.MsgEmptyReply), got)
}

func TestRun_NoLinksSkipsFetch(t *testing.T) {
	fe := &fakeFetcher{}
	p := New(&fakeExtractor{text: "text", ok: true}, fe, &fakeAnalyzer{reply: reply}, nil)

	_, err := p.Run(context.Background(), Input{ResumePath: "cv.pdf", Kind: extraction.KindPDF})
	require.NoError(t, err)
	assert.Zero(t, fe.calls)
}

func TestRun_ExtractionErrors(t *testing.T) {
	p := New(&fakeExtractor{err: extraction.ErrCorruptDocument}, &fakeFetcher{}, &fakeAnalyzer{}, nil)
	_, err := p.Run(context.Background(), Input{ResumePath: "cv.pdf"})
	assert.ErrorIs(t, err, extraction.ErrCorruptDocument)

	p = New(&fakeExtractor{ok: false}, &fakeFetcher{}, &fakeAnalyzer{}, nil)
	_, err = p.Run(context.Background(), Input{ResumePath: "cv.pdf"})
	assert.ErrorIs(t, err, ErrNoText)
}

func TestRun_AnalysisError(t *testing.T) {
	cause := &analysis.Error{Kind: llm.KindRateLimited, Attempts: 3, Cause: errors.New("429")}
	p := New(&fakeExtractor{text: "text", ok: true}, &fakeFetcher{}, &fakeAnalyzer{err: cause}, nil)

	_, err := p.Run(context.Background(), Input{ResumePath: "cv.pdf"})

	var aerr *analysis.Error
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, llm.KindRateLimited, aerr.Kind)
}

func TestJobLinks(t *testing.T) {
	got := JobLinks([]string{" example.com/a ", "", "http://b.example.com", "https://c.example.com", "\t"})
	assert.Equal(t, []string{"https://example.com/a", "http://b.example.com", "https://c.example.com"}, got)
	assert.Equal(t, []string{}, JobLinks(nil))
}
