package extraction

import (
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/sirupsen/logrus"
)

// pageSource is the subset of a PDF reader the page loop needs.
type pageSource interface {
	NumPage() int
	PageText(i int) (string, error)
}

type pdfPages struct {
	r *pdf.Reader
}

func (p pdfPages) NumPage() int { return p.r.NumPage() }

func (p pdfPages) PageText(i int) (string, error) {
	page := p.r.Page(i)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}

func (e *Extractor) extractPDF(path string, log logrus.FieldLogger) (string, error) {
	f, reader, err := openPDF(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrCorruptDocument, err)
	}
	defer f.Close()

	return readPages(pdfPages{r: reader}, log)
}

// openPDF guards pdf.Open, which panics on some malformed trailers.
func openPDF(path string) (f *os.File, r *pdf.Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			if f != nil {
				f.Close()
			}
			f, r, err = nil, nil, fmt.Errorf("pdf parser panic: %v", rec)
		}
	}()
	return pdf.Open(path)
}

// readPages concatenates the text of every readable page. Pages that fail or
// panic are skipped.
func readPages(src pageSource, log logrus.FieldLogger) (string, error) {
	total, err := numPages(src)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrCorruptDocument, err)
	}
	if total == 0 {
		log.Warn("pdf has no pages")
		return "", nil
	}

	parts := make([]string, 0, total)
	for i := 1; i <= total; i++ {
		text, err := pageText(src, i)
		if err != nil {
			log.WithError(err).WithField("page", i).Warn("skipping unreadable pdf page")
			continue
		}
		if strings.TrimSpace(text) == "" {
			log.WithField("page", i).Debug("pdf page has no text")
			continue
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, "\n"), nil
}

func numPages(src pageSource) (n int, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("reading page tree: %v", rec)
		}
	}()
	return src.NumPage(), nil
}

func pageText(src pageSource, i int) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("page %d: %v", i, rec)
		}
	}()
	return src.PageText(i)
}
