// Package extraction turns uploaded résumé documents (PDF and DOCX) into plain text.
//
// Extraction is tolerant at page level: a PDF page that cannot be decoded is
// skipped instead of failing the whole document. A document that yields no
// text at all is reported as absent, which is distinct from a failure.
package extraction

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/jonathan/cv-keyword-analyzer/internal/logging"
	"github.com/jonathan/cv-keyword-analyzer/internal/textutil"
)

// Kind is the declared document format.
type Kind string

// Supported document kinds.
const (
	KindPDF  Kind = "pdf"
	KindDOCX Kind = "docx"
)

const (
	// MaxChars caps the extracted text, in runes.
	MaxChars = 50000
	// LargeFileBytes is the size above which a warning is logged.
	LargeFileBytes = 10 << 20
)

var (
	// ErrEmptyInput is returned for zero-byte files.
	ErrEmptyInput = errors.New("input file is empty")
	// ErrFileNotFound is returned when the path does not exist.
	ErrFileNotFound = errors.New("input file not found")
	// ErrUnsupportedFormat is returned for kinds other than pdf and docx.
	ErrUnsupportedFormat = errors.New("unsupported document format")
	// ErrCorruptDocument is returned when the container cannot be opened or parsed.
	ErrCorruptDocument = errors.New("corrupt or unreadable document")
)

// KindFromFilename derives the kind from the file extension, lower-cased.
func KindFromFilename(name string) Kind {
	return Kind(strings.ToLower(strings.TrimPrefix(filepath.Ext(name), ".")))
}

// Extractor reads résumé files from disk.
type Extractor struct {
	log logrus.FieldLogger
}

// New creates an Extractor. A nil logger discards output.
func New(log logrus.FieldLogger) *Extractor {
	return &Extractor{log: logging.OrDiscard(log)}
}

// Extract returns the text of the document at path. The boolean is false when
// the document was readable but contained no text.
func (e *Extractor) Extract(path string, kind Kind) (string, bool, error) {
	log := e.log.WithFields(logrus.Fields{"path": filepath.Base(path), "kind": kind})

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, fmt.Errorf("%w: %w", ErrFileNotFound, err)
		}
		return "", false, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.Size() == 0 {
		return "", false, ErrEmptyInput
	}
	if info.Size() > LargeFileBytes {
		log.WithField("bytes", info.Size()).Warn("large document, extraction may be slow")
	}

	var text string
	switch kind {
	case KindPDF:
		text, err = e.extractPDF(path, log)
	case KindDOCX:
		text, err = e.extractDOCX(path, log)
	default:
		return "", false, fmt.Errorf("%w: %q", ErrUnsupportedFormat, string(kind))
	}
	if err != nil {
		return "", false, err
	}

	text = textutil.CleanText(text)
	if text == "" {
		log.Warn("no text could be extracted from document")
		return "", false, nil
	}

	log.WithField("chars", len([]rune(text))).Info("extracted document text")
	return textutil.Truncate(text, MaxChars), true, nil
}
