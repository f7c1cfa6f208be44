// Package connectors holds the dedicated protocol clients for known ATS
// vendors. Each client speaks one vendor's public listing API and returns
// normalized jobs; the orchestrator invokes them once the detector names a
// vendor.
package connectors

import (
	"context"
	"strings"

	"github.com/jonathan/jobharvest/internal/fetch"
	"github.com/jonathan/jobharvest/internal/jobs"
)

// Connector fetches jobs from one vendor's board URL, applying title and
// location keyword filters vendor-side where possible.
type Connector interface {
	// Source names the vendor this connector speaks to.
	Source() jobs.Source
	// FetchJobs retrieves postings from a normalized board URL.
	FetchJobs(ctx context.Context, boardURL, titleFilter, locationFilter string) ([]jobs.Job, error)
}

// Registry maps sources to connectors.
type Registry struct {
	connectors map[jobs.Source]Connector
	options    *fetch.Options
}

// NewRegistry builds the default registry with every vendor connector.
func NewRegistry(opts *fetch.Options) *Registry {
	if opts == nil {
		opts = fetch.DefaultOptions()
	}
	r := &Registry{connectors: make(map[jobs.Source]Connector), options: opts}
	for _, c := range []Connector{
		&Greenhouse{Options: opts},
		&Lever{Options: opts},
		&Ashby{Options: opts},
		&Workday{Options: opts},
	} {
		r.connectors[c.Source()] = c
	}
	return r
}

// For returns the connector for a source, or nil when none exists.
func (r *Registry) For(source jobs.Source) Connector {
	return r.connectors[source]
}

// Register replaces the connector for a source, for tests.
func (r *Registry) Register(c Connector) {
	r.connectors[c.Source()] = c
}

// workFlexibilityFromLocation tags a posting from its location text.
func workFlexibilityFromLocation(location string) jobs.WorkFlexibility {
	lowered := strings.ToLower(location)
	switch {
	case strings.Contains(lowered, "remote"):
		return jobs.WorkRemote
	case strings.Contains(lowered, "hybrid"):
		return jobs.WorkHybrid
	default:
		return ""
	}
}

// orLocationSentinel substitutes the sentinel for empty locations.
func orLocationSentinel(location string) string {
	if strings.TrimSpace(location) == "" {
		return jobs.LocationNotSpecified
	}
	return strings.TrimSpace(location)
}
