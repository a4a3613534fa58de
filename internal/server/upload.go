package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/jonathan/cv-keyword-analyzer/internal/pipeline"
)

// multipartOverhead is the slack allowed above MaxUploadBytes for form
// boundaries and the job link fields.
const multipartOverhead = 1 << 20

// sniffBytes is how much of an upload is inspected for its content type.
const sniffBytes = 3072

// allowedExtensions maps each accepted extension to the detected type its
// content must have or descend from.
var allowedExtensions = map[string]string{
	"pdf":  "application/pdf",
	"docx": "application/zip",
	"doc":  "application/x-ole-storage",
}

// contentMatches reports whether head is of type want or one of its subtypes.
func contentMatches(head []byte, want string) bool {
	for m := mimetype.Detect(head); m != nil; m = m.Parent() {
		if m.Is(want) {
			return true
		}
	}
	return false
}

// upload is a résumé saved to a temporary file.
type upload struct {
	Path     string
	Filename string
	JobLinks []string
}

// remove deletes the temporary file.
func (u *upload) remove() {
	if u != nil && u.Path != "" {
		_ = os.Remove(u.Path)
	}
}

// saveUpload reads the multipart form of r, checks the résumé and writes it
// to a temporary file. Callers must call remove on the returned upload.
func saveUpload(w http.ResponseWriter, r *http.Request) (*upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(MaxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, ErrFileTooLarge
		}
		return nil, fmt.Errorf("%w: %v", ErrNoFile, err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, ErrNoFile
	}
	defer file.Close()

	if header.Filename == "" {
		return nil, ErrNoFile
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(header.Filename), "."))
	want, ok := allowedExtensions[ext]
	if !ok {
		return nil, ErrFileType
	}
	if header.Size > MaxUploadBytes {
		return nil, ErrFileTooLarge
	}

	path, err := writeTemp(file, ext, want)
	if err != nil {
		return nil, err
	}

	return &upload{
		Path:     path,
		Filename: filepath.Base(header.Filename),
		JobLinks: pipeline.JobLinks(formLinks(r.MultipartForm)),
	}, nil
}

// writeTemp copies file into a temporary file after checking its leading bytes.
func writeTemp(file multipart.File, ext, want string) (string, error) {
	head := make([]byte, sniffBytes)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	head = head[:n]
	if n == 0 || !contentMatches(head, want) {
		return "", ErrInvalidContent
	}

	tmp, err := os.CreateTemp("", "cv-*."+ext)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	path := tmp.Name()

	_, err = io.Copy(tmp, io.MultiReader(bytes.NewReader(head), file))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	return path, nil
}

// formLinks collects job links sent as job_links[] or job_links.
func formLinks(form *multipart.Form) []string {
	if form == nil {
		return nil
	}
	links := append([]string{}, form.Value["job_links[]"]...)
	return append(links, form.Value["job_links"]...)
}
