package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Error codes used in API responses and internal error handling.
const (
	ErrCodeBlockedTarget    = "BLOCKED_TARGET"
	ErrCodeRateLimited      = "RATE_LIMITED"
	ErrCodeCircuitOpen      = "CIRCUIT_OPEN"
	ErrCodePoolExhausted    = "POOL_EXHAUSTED"
	ErrCodeBrowserGone      = "BROWSER_UNAVAILABLE"
	ErrCodeConnection       = "BROWSER_CONNECTION"
	ErrCodeNavTimeout       = "NAVIGATION_TIMEOUT"
	ErrCodeNavFailed        = "NAVIGATION_FAILED"
	ErrCodeSelectorTimeout  = "SELECTOR_TIMEOUT"
	ErrCodeSelectorNotFound = "SELECTOR_NOT_FOUND"
	ErrCodeScreenshotFailed = "SCREENSHOT_FAILED"
	ErrCodeExtractionFailed = "CONTENT_EXTRACTION_FAILED"
	ErrCodeInvalidInput     = "INVALID_INPUT"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeInternal         = "INTERNAL_ERROR"
)

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// LoadError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type LoadError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// NewLoadError creates a new LoadError.
func NewLoadError(code, message string, err error) *LoadError {
	return &LoadError{Code: code, Message: message, Err: err}
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *LoadError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message}
}

// CodeOf extracts the LoadError code from an error chain, or
// ErrCodeInternal when the error is not a LoadError.
func CodeOf(err error) string {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Code
	}
	return ErrCodeInternal
}

// AsLoadError coerces any error into a LoadError, wrapping unknown errors
// as INTERNAL_ERROR.
func AsLoadError(err error) *LoadError {
	var le *LoadError
	if errors.As(err, &le) {
		return le
	}
	return NewLoadError(ErrCodeInternal, err.Error(), err)
}

// IsTransient reports whether the error belongs to the class the fetch
// orchestrator retries: pool pressure, failed slot recreation, and
// connection-level faults on the remote browser channel. Content and
// selector errors are terminal for the request.
func IsTransient(err error) bool {
	switch CodeOf(err) {
	case ErrCodePoolExhausted, ErrCodeBrowserGone, ErrCodeConnection:
		return true
	}
	return IsConnectionError(err)
}

// connectionMarkers are substrings that identify a dead or dying CDP
// channel in errors surfaced by rod and its websocket transport.
var connectionMarkers = []string{
	"websocket",
	"use of closed network connection",
	"connection reset by peer",
	"connection refused",
	"broken pipe",
	"browser has been closed",
	"cdp connection closed",
	"target closed",
	"session closed",
	"EOF",
}

// IsConnectionError reports whether err indicates that the remote browser
// channel itself failed, as opposed to the page misbehaving. A slot whose
// session ends with a connection error must not be reused without
// recreation.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if CodeOf(err) == ErrCodeConnection {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range connectionMarkers {
		if strings.Contains(msg, strings.ToLower(marker)) {
			return true
		}
	}
	return false
}

// CategorizeNavError wraps raw navigation errors into typed LoadErrors so
// the orchestrator can tell retryable connection faults apart from
// terminal content errors.
func CategorizeNavError(err error, msg string) *LoadError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return NewLoadError(ErrCodeNavTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return NewLoadError(ErrCodeNavTimeout, "request canceled", err)
	case IsConnectionError(err):
		return NewLoadError(ErrCodeConnection, msg, err)
	default:
		return NewLoadError(ErrCodeNavFailed, msg, err)
	}
}
