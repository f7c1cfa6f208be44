// Package filter implements the title and location keyword filters applied to
// extracted postings.
package filter

import (
	"strings"

	"github.com/jonathan/jobharvest/internal/jobs"
)

// MatchesTitle reports whether a posting title matches a keyword filter.
// An empty filter matches everything; multiple space-separated keywords must
// all appear.
func MatchesTitle(title, keywords string) bool {
	return containsAll(title, keywords)
}

// MatchesLocation reports whether a posting location matches a keyword filter.
// The remote keyword also matches postings tagged remote via work flexibility.
func MatchesLocation(job jobs.Job, keywords string) bool {
	if strings.TrimSpace(keywords) == "" {
		return true
	}
	if strings.EqualFold(strings.TrimSpace(keywords), "remote") && job.WorkFlexibility == jobs.WorkRemote {
		return true
	}
	return containsAll(job.Location, keywords)
}

// Apply filters a job list by title and location keywords.
func Apply(list []jobs.Job, titleKeywords, locationKeywords string) []jobs.Job {
	if strings.TrimSpace(titleKeywords) == "" && strings.TrimSpace(locationKeywords) == "" {
		return list
	}
	var out []jobs.Job
	for _, j := range list {
		if MatchesTitle(j.Title, titleKeywords) && MatchesLocation(j, locationKeywords) {
			out = append(out, j)
		}
	}
	return out
}

// ApplyNonDestructive filters the list but never turns a non-empty result into
// an empty one: when the filter would remove everything, the original list is
// returned unfiltered.
func ApplyNonDestructive(list []jobs.Job, titleKeywords, locationKeywords string) []jobs.Job {
	if len(list) == 0 {
		return list
	}
	filtered := Apply(list, titleKeywords, locationKeywords)
	if len(filtered) == 0 {
		return list
	}
	return filtered
}

func containsAll(text, keywords string) bool {
	keywords = strings.TrimSpace(keywords)
	if keywords == "" {
		return true
	}
	lowered := strings.ToLower(text)
	for _, kw := range strings.Fields(strings.ToLower(keywords)) {
		if !strings.Contains(lowered, kw) {
			return false
		}
	}
	return true
}
