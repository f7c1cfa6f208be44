// Package schema defines the per-domain extraction recipes discovered by the
// pipeline and the persisted cache that stores them.
package schema

import "time"

// PaginationType classifies how an API pages its results.
type PaginationType string

const (
	PaginationOffset PaginationType = "offset"
	PaginationPage   PaginationType = "page"
	PaginationCursor PaginationType = "cursor"
	PaginationNone   PaginationType = "none"
)

// DefaultMaxPages bounds how many pages a paginated fetch will walk.
const DefaultMaxPages = 3

// PaginationInfo describes the pagination parameters an endpoint accepts.
type PaginationInfo struct {
	Type          PaginationType `json:"type"`
	PageParam     string         `json:"page_param,omitempty"`
	PageSizeParam string         `json:"page_size_param,omitempty"`
	MaxPages      int            `json:"max_pages,omitempty"`
}

// JobResponseStructure maps a JSON response onto job fields.
// JobsArrayPath is a dot-separated path to the array holding one element per
// posting; the field names index into each element.
type JobResponseStructure struct {
	JobsArrayPath string `json:"jobs_array_path"`
	TitleField    string `json:"title_field"`
	LocationField string `json:"location_field,omitempty"`
	URLField      string `json:"url_field,omitempty"`
	URLTemplate   string `json:"url_template,omitempty"`
	PageParam     string `json:"page_param,omitempty"`
	PageSizeParam string `json:"page_size_param,omitempty"`
}

// SortInfo records a sort parameter discovered on an endpoint, used to request
// newest-first ordering on refetches.
type SortInfo struct {
	Param string `json:"param,omitempty"`
	Value string `json:"value,omitempty"`
}

// DiscoveredAPISchema is one domain's cached extraction recipe, including the
// discovery bookkeeping the retry policy runs on.
type DiscoveredAPISchema struct {
	Domain        string                `json:"domain"`
	Endpoint      string                `json:"endpoint,omitempty"`
	Method        string                `json:"method,omitempty"`
	RequestBody   string                `json:"request_body,omitempty"`
	Headers       map[string]string     `json:"headers,omitempty"`
	Structure     *JobResponseStructure `json:"structure,omitempty"`
	Pagination    *PaginationInfo       `json:"pagination,omitempty"`
	Sort          *SortInfo             `json:"sort,omitempty"`
	DiscoveredAt  time.Time             `json:"discovered_at"`
	LLMAttempted  bool                  `json:"llm_attempted"`
	SchemaFound   bool                  `json:"schema_discovered"`
	LastAttempt   time.Time             `json:"last_attempt"`
	LastFetchedAt *time.Time            `json:"last_fetched_at,omitempty"`

	// HTMLExtractionWorks marks a fast path that needs no model: either raw
	// HTML pattern extraction or plain heuristic JSON extraction succeeded for
	// this domain before.
	HTMLExtractionWorks bool `json:"html_extraction_works"`
}
