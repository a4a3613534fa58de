package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrorKind is the closed set of provider failure classes.
type ErrorKind string

// Provider failure kinds.
const (
	KindTimeout     ErrorKind = "timeout"
	KindRateLimited ErrorKind = "rate_limited"
	KindConnection  ErrorKind = "connection"
	KindProvider    ErrorKind = "provider"
	KindUnexpected  ErrorKind = "unexpected"
)

// ErrMissingAPIKey is returned when a provider is built without credentials.
var ErrMissingAPIKey = errors.New("API key is required")

// Error is a classified provider failure.
type Error struct {
	Kind ErrorKind
	// Model is the model the failing call targeted.
	Model string
	// StatusCode is the vendor HTTP status when one was reported.
	StatusCode int
	Cause      error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("llm %s error", e.Kind)
	if e.Model != "" {
		msg += " (" + e.Model + ")"
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" status %d", e.StatusCode)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// KindOf returns the kind of a classified error, or KindUnexpected.
func KindOf(err error) ErrorKind {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.Kind
	}
	return KindUnexpected
}

// transportKind recognizes deadline and network failures common to all SDKs.
// It returns "" when err is neither.
func transportKind(err error) ErrorKind {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return KindTimeout
	}
	var opErr *net.OpError
	var dnsErr *net.DNSError
	if errors.As(err, &opErr) || errors.As(err, &dnsErr) {
		return KindConnection
	}
	return ""
}

// kindForStatus maps a vendor HTTP status onto an ErrorKind.
func kindForStatus(code int) ErrorKind {
	switch {
	case code == http.StatusTooManyRequests:
		return KindRateLimited
	case code == http.StatusRequestTimeout || code == http.StatusGatewayTimeout:
		return KindTimeout
	case code >= 400:
		return KindProvider
	default:
		return KindUnexpected
	}
}
