package tile

import (
	"errors"
	"fmt"
	"net/http"
)

// Common errors.
var (
	ErrNotFound     = errors.New("tile: not found")
	ErrForbidden    = errors.New("tile: access forbidden")
	ErrUnauthorized = errors.New("tile: unauthorized")
	ErrRateLimited  = errors.New("tile: rate limited")
	ErrServerError  = errors.New("tile: server error")
	ErrEmptyTile    = errors.New("tile: empty payload")
	ErrUnknown      = errors.New("tile: unknown failure")

	// ErrPoolUnavailable is returned by FetchAll when the worker pool cannot
	// be set up. It is the only error that fails a whole batch.
	ErrPoolUnavailable = errors.New("tile: worker pool unavailable")
)

// StatusError is returned when the provider answered with a non-success
// HTTP status.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unable to download %s (HTTP status %d)", e.URL, e.StatusCode)
}

// Unwrap maps the status code onto one of the sentinel errors so callers
// can use errors.Is.
func (e *StatusError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case e.StatusCode == http.StatusForbidden:
		return ErrForbidden
	case e.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case e.StatusCode == http.StatusTooManyRequests:
		return ErrRateLimited
	case e.StatusCode >= 500:
		return ErrServerError
	default:
		return nil
	}
}

// TransportError is returned when no usable response was obtained: the
// request could not be built or sent, timed out, or the body was truncated.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("unable to download %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// PanicError records a downloader that panicked while fetching a tile.
type PanicError struct {
	URL   string
	Value interface{}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("downloader panicked on %s: %v", e.URL, e.Value)
}

// checkStatusCode returns a StatusError for non-success status codes.
func checkStatusCode(url string, code int) error {
	if code >= 200 && code < 300 {
		return nil
	}
	return &StatusError{URL: url, StatusCode: code}
}
