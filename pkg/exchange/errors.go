package exchange

import (
	"errors"
	"fmt"
)

// ErrorKind classifies gateway failures for the caller.
type ErrorKind int

const (
	// KindTransient marks failures worth retrying: network errors, HTTP 5xx,
	// rate limiting.
	KindTransient ErrorKind = iota
	// KindFatal marks failures that must surface to the caller: rejected
	// requests, or a retry budget spent on transient errors.
	KindFatal
)

func (k ErrorKind) String() string {
	if k == KindTransient {
		return "transient"
	}
	return "fatal"
}

// APIError wraps a venue failure with its classification. Callers branch on
// the kind instead of parsing messages.
type APIError struct {
	Op       string
	Kind     ErrorKind
	Attempts int
	Err      error
}

func (e *APIError) Error() string {
	if e.Attempts > 1 {
		return fmt.Sprintf("%s: %s after %d attempts: %v", e.Op, e.Kind, e.Attempts, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *APIError) Unwrap() error { return e.Err }

// Transient wraps err as a retryable failure.
func Transient(op string, err error) *APIError {
	return &APIError{Op: op, Kind: KindTransient, Err: err}
}

// Fatal wraps err as a non-retryable failure.
func Fatal(op string, err error) *APIError {
	return &APIError{Op: op, Kind: KindFatal, Err: err}
}

// IsTransient reports whether err is a retryable gateway failure.
func IsTransient(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == KindTransient
}

// IsFatal reports whether err is a gateway failure past the point of retry.
func IsFatal(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == KindFatal
}

// ClassifyHTTP maps an HTTP status and Binance error code to an error kind.
// 5xx and 429 are transient; -1003 is Binance's request-weight ban warning.
func ClassifyHTTP(status int, binanceCode int) ErrorKind {
	if status >= 500 || status == 429 || status == 418 || binanceCode == -1003 {
		return KindTransient
	}
	return KindFatal
}
