// Package jobs defines the shared value types for the extraction pipeline:
// postings, tracked sightings, detection results, and intercepted API calls.
package jobs

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// LocationNotSpecified is the sentinel used when a source reports no location.
const LocationNotSpecified = "Location not specified"

// WorkFlexibility tags a posting's work arrangement when the source reports one.
type WorkFlexibility string

const (
	WorkRemote WorkFlexibility = "remote"
	WorkHybrid WorkFlexibility = "hybrid"
	WorkOnsite WorkFlexibility = "onsite"
)

// Job is one job posting as returned to callers.
type Job struct {
	ID                  string          `json:"id"`
	Title               string          `json:"title"`
	Location            string          `json:"location"`
	PostingDate         *time.Time      `json:"posting_date,omitempty"`
	URL                 string          `json:"url"`
	Description         string          `json:"description,omitempty"`
	WorkFlexibility     WorkFlexibility `json:"work_flexibility,omitempty"`
	Source              Source          `json:"source"`
	CompanyName         string          `json:"company_name,omitempty"`
	Department          string          `json:"department,omitempty"`
	FirstSeenDate       time.Time       `json:"first_seen_date"`
	OriginalPostingDate *time.Time      `json:"original_posting_date,omitempty"`
	WasBumped           bool            `json:"was_bumped"`
}

// ParsedJob is the minimal record produced by the generic extractors before
// tracker stamping and enrichment turn it into a Job.
type ParsedJob struct {
	Title    string `json:"title"`
	Location string `json:"location"`
	URL      string `json:"url"`
	NativeID string `json:"native_id,omitempty"`
}

// JobID builds the stable dedup key for a posting. Native ids keep the
// "<source>-<id>" scheme; anything else falls back to a content hash of
// title and URL so the same posting hashes the same across fetches.
func JobID(source Source, nativeID, title, url string) string {
	if nativeID != "" {
		return fmt.Sprintf("%s-%s", source, nativeID)
	}
	sum := sha256.Sum256([]byte(strings.TrimSpace(title) + "|" + strings.TrimSpace(url)))
	return fmt.Sprintf("%s-%s", source, hex.EncodeToString(sum[:8]))
}

// TrackedJob records when a posting id was first and last observed.
type TrackedJob struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Source    Source    `json:"source"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
}

// DetectedAPICall is one outbound network call observed during a headless
// render. Produced fresh by each render, never persisted.
type DetectedAPICall struct {
	URL     string            `json:"url"`
	Method  string            `json:"method"`
	Body    string            `json:"body,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
}
