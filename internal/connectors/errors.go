package connectors

import "fmt"

// NoJobsError reports a well-formed but empty listing from a board expected
// to be non-empty.
type NoJobsError struct {
	BoardURL string
}

func (e *NoJobsError) Error() string {
	return fmt.Sprintf("no jobs returned by %s", e.BoardURL)
}

// APIError reports a vendor-reported application error.
type APIError struct {
	Source  string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error: %s", e.Source, e.Message)
}

// SlugError reports a board URL from which no company slug could be derived.
type SlugError struct {
	BoardURL string
}

func (e *SlugError) Error() string {
	return fmt.Sprintf("cannot derive company slug from %s", e.BoardURL)
}
