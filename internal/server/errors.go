// Package server provides the HTTP API for résumé keyword analysis.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/jonathan/cv-keyword-analyzer/internal/analysis"
	"github.com/jonathan/cv-keyword-analyzer/internal/db"
	"github.com/jonathan/cv-keyword-analyzer/internal/extraction"
	"github.com/jonathan/cv-keyword-analyzer/internal/llm"
	"github.com/jonathan/cv-keyword-analyzer/internal/pipeline"
)

// Upload errors.
var (
	ErrNoFile         = errors.New("no file was uploaded")
	ErrFileType       = errors.New("file format not allowed, upload a PDF or DOCX file")
	ErrFileTooLarge   = errors.New("file exceeds the 10 MB limit")
	ErrInvalidContent = errors.New("the uploaded file is not a valid document")
	ErrUnauthorized   = errors.New("authentication required")
	ErrStoreDisabled  = errors.New("analysis storage is not configured")
)

// retryAfterSeconds is sent with 503 responses for rate-limited analyses.
const retryAfterSeconds = "60"

// sentinelErrors maps caller-facing sentinel errors to a status and error type.
var sentinelErrors = []struct {
	err    error
	status int
	kind   string
}{
	{ErrNoFile, http.StatusBadRequest, "missing_file"},
	{ErrFileType, http.StatusBadRequest, "invalid_file_type"},
	{ErrInvalidContent, http.StatusBadRequest, "invalid_content"},
	{ErrFileTooLarge, http.StatusRequestEntityTooLarge, "file_too_large"},
	{ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
	{ErrStoreDisabled, http.StatusServiceUnavailable, "storage_disabled"},
	{extraction.ErrEmptyInput, http.StatusBadRequest, "empty_input"},
	{extraction.ErrUnsupportedFormat, http.StatusBadRequest, "unsupported_format"},
	{extraction.ErrCorruptDocument, http.StatusUnprocessableEntity, "corrupt_document"},
	{pipeline.ErrNoText, http.StatusUnprocessableEntity, "no_text"},
	{analysis.ErrInputTooShort, http.StatusUnprocessableEntity, "input_too_short"},
	{db.ErrNotFound, http.StatusNotFound, "not_found"},
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	status, _ := classify(err)
	return status
}

// errorKind returns the error_type reported to clients.
func errorKind(err error) string {
	_, kind := classify(err)
	return kind
}

func classify(err error) (int, string) {
	for _, s := range sentinelErrors {
		if errors.Is(err, s.err) {
			return s.status, s.kind
		}
	}

	var aerr *analysis.Error
	if errors.As(err, &aerr) {
		return providerStatus(aerr.Kind), string(aerr.Kind)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout, string(llm.KindTimeout)
	}
	return http.StatusInternalServerError, "internal"
}

func providerStatus(kind llm.ErrorKind) int {
	switch kind {
	case llm.KindTimeout:
		return http.StatusGatewayTimeout
	case llm.KindRateLimited:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

// userMessage returns the error text shown to clients. Internal errors are
// not echoed.
func userMessage(err error) string {
	var aerr *analysis.Error
	if errors.As(err, &aerr) {
		return analysis.UserMessage(aerr.Kind)
	}
	for _, s := range sentinelErrors {
		if errors.Is(err, s.err) {
			return s.err.Error()
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return analysis.UserMessage(llm.KindTimeout)
	}
	return "internal server error"
}
