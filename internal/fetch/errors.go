package fetch

import (
	"errors"
	"fmt"
)

// InvalidURLError reports a URL that cannot be parsed or lacks scheme/host.
type InvalidURLError struct {
	URL   string
	Cause error
}

func (e *InvalidURLError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid URL %q: %v", e.URL, e.Cause)
	}
	return fmt.Sprintf("invalid URL %q", e.URL)
}

func (e *InvalidURLError) Unwrap() error {
	return e.Cause
}

// RequestError reports a transport-level failure: request construction,
// connection, or body read.
type RequestError struct {
	URL     string
	Message string
	Cause   error
}

func (e *RequestError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.URL, e.Message)
}

func (e *RequestError) Unwrap() error {
	return e.Cause
}

// StatusError reports a non-2xx HTTP status.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d from %s", e.StatusCode, e.URL)
}

// DecodingError reports a response body whose shape did not match what the
// caller expected.
type DecodingError struct {
	URL     string
	Message string
	Cause   error
}

func (e *DecodingError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("decoding error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("decoding error for %s: %s", e.URL, e.Message)
}

func (e *DecodingError) Unwrap() error {
	return e.Cause
}

// IsNotFound reports whether err is an HTTP 404 status error.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == 404
}
