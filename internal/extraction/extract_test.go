package extraction

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/cv-keyword-analyzer/internal/logging"
	"github.com/jonathan/cv-keyword-analyzer/internal/textutil"
)

func TestKindFromFilename(t *testing.T) {
	assert.Equal(t, KindPDF, KindFromFilename("CV.PDF"))
	assert.Equal(t, KindDOCX, KindFromFilename("/tmp/resume.docx"))
	assert.Equal(t, Kind("doc"), KindFromFilename("old.doc"))
	assert.Equal(t, Kind(""), KindFromFilename("noext"))
}

func TestExtract_DOCX(t *testing.T) {
	path := writeDOCX(t, "Jane Doe", "Senior Go Engineer", "Skills: Go, PostgreSQL, Kubernetes")

	text, ok, err := New(nil).Extract(path, KindDOCX)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Jane Doe\nSenior Go Engineer\nSkills: Go, PostgreSQL, Kubernetes", text)
}

func TestExtract_DOCXTabsAndBreaks(t *testing.T) {
	body := `<w:p><w:r><w:t>Go</w:t><w:tab/><w:t>5 years</w:t><w:br/><w:t>SQL</w:t></w:r></w:p>`
	path := writeDOCXBody(t, body)

	text, ok, err := New(nil).Extract(path, KindDOCX)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Go 5 years\nSQL", text)
}

func TestExtract_DOCXNoText(t *testing.T) {
	path := writeDOCX(t, "", "   ")

	text, ok, err := New(nil).Extract(path, KindDOCX)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, text)
}

func TestExtract_DOCXTruncates(t *testing.T) {
	long := strings.Repeat("a", MaxChars+500)
	path := writeDOCX(t, long)

	text, ok, err := New(nil).Extract(path, KindDOCX)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, MaxChars+len(textutil.Ellipsis), utf8.RuneCountInString(text))
	assert.True(t, strings.HasSuffix(text, textutil.Ellipsis))
}

func TestExtract_DOCXCorrupt(t *testing.T) {
	path := writeFile(t, "broken.docx", []byte("this is not a zip archive"))

	_, _, err := New(nil).Extract(path, KindDOCX)
	assert.ErrorIs(t, err, ErrCorruptDocument)
}

func TestExtract_PDF(t *testing.T) {
	path := writePDF(t, "Hello PDF resume", "Second page Go")

	text, ok, err := New(nil).Extract(path, KindPDF)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, text, "Hello PDF resume")
	assert.Contains(t, text, "Second page Go")
}

func TestExtract_PDFCorrupt(t *testing.T) {
	path := writeFile(t, "broken.pdf", []byte("definitely not a pdf document"))

	_, _, err := New(nil).Extract(path, KindPDF)
	assert.ErrorIs(t, err, ErrCorruptDocument)
}

func TestExtract_Errors(t *testing.T) {
	empty := writeFile(t, "empty.pdf", nil)

	_, _, err := New(nil).Extract(empty, KindPDF)
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, _, err = New(nil).Extract(filepath.Join(t.TempDir(), "missing.pdf"), KindPDF)
	assert.ErrorIs(t, err, ErrFileNotFound)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	legacy := writeFile(t, "old.doc", []byte("binary word file"))
	_, _, err = New(nil).Extract(legacy, Kind("doc"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

type fakePages struct {
	pages []func() (string, error)
}

func (f fakePages) NumPage() int { return len(f.pages) }

func (f fakePages) PageText(i int) (string, error) { return f.pages[i-1]() }

func TestReadPages_SkipsBadPages(t *testing.T) {
	src := fakePages{pages: []func() (string, error){
		func() (string, error) { return "first", nil },
		func() (string, error) { panic("bad font dictionary") },
		func() (string, error) { return "", errors.New("decode failure") },
		func() (string, error) { return "   ", nil },
		func() (string, error) { return "last", nil },
	}}

	text, err := readPages(src, logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, "first\nlast", text)
}

func TestReadPages_NoPages(t *testing.T) {
	text, err := readPages(fakePages{}, logging.Discard())
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestParagraphs_MalformedXML(t *testing.T) {
	_, err := paragraphs("<w:document><w:body><w:p>")
	assert.Error(t, err)
}
