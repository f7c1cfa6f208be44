// Package ats identifies which applicant tracking system serves a careers
// URL, by URL pattern matching, page-signal scoring, live API probing, and
// embedded-URL scanning.
package ats

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/jonathan/jobharvest/internal/jobs"
)

// greenhouseJobSuffix matches a trailing job-detail segment on a board URL.
var greenhouseJobSuffix = regexp.MustCompile(`/jobs/\d+.*$`)

// NormalizeURL reduces an ATS URL to its canonical job-list root for the
// given vendor. Normalizing an already-normalized URL returns it unchanged.
func NormalizeURL(source jobs.Source, urlStr string) string {
	switch source {
	case jobs.SourceWorkday:
		return normalizeWorkday(urlStr)
	case jobs.SourceLever, jobs.SourceAshby:
		return normalizeSlugHost(urlStr)
	case jobs.SourceGreenhouse:
		return normalizeGreenhouse(urlStr)
	default:
		return strings.TrimSuffix(urlStr, "/")
	}
}

// normalizeWorkday strips job-detail, apply, and login suffixes:
// https://acme.wd5.myworkdayjobs.com/External/job/NYC/Engineer_R123 becomes
// https://acme.wd5.myworkdayjobs.com/External. Locale prefixes like /en-US
// sit before the site name and are kept.
func normalizeWorkday(urlStr string) string {
	parsed, err := url.Parse(urlStr)
	if err != nil || parsed.Host == "" {
		return urlStr
	}
	trimmed := strings.Trim(parsed.Path, "/")
	var segments []string
	if trimmed != "" {
		segments = strings.Split(trimmed, "/")
	}

	cut := len(segments)
	for i := len(segments) - 1; i >= 0; i-- {
		lower := strings.ToLower(segments[i])
		if lower == "apply" || lower == "login" {
			cut = i
			break
		}
		// A job or jobs segment with anything after it starts a detail path.
		// A bare trailing one is kept: tenants name sites that way.
		if (lower == "job" || lower == "jobs") && i < len(segments)-1 {
			cut = i
			break
		}
	}

	path := ""
	if cut > 0 {
		path = "/" + strings.Join(segments[:cut], "/")
	}
	return parsed.Scheme + "://" + parsed.Host + path
}

// normalizeSlugHost reduces a Lever or Ashby URL to scheme://host/company-slug.
func normalizeSlugHost(urlStr string) string {
	parsed, err := url.Parse(urlStr)
	if err != nil || parsed.Host == "" {
		return urlStr
	}
	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(segments) == 0 || segments[0] == "" {
		return parsed.Scheme + "://" + parsed.Host
	}
	return parsed.Scheme + "://" + parsed.Host + "/" + segments[0]
}

// normalizeGreenhouse strips a trailing /jobs/<id> job-detail segment from a
// board URL.
func normalizeGreenhouse(urlStr string) string {
	parsed, err := url.Parse(urlStr)
	if err != nil || parsed.Host == "" {
		return urlStr
	}
	path := greenhouseJobSuffix.ReplaceAllString(strings.TrimSuffix(parsed.Path, "/"), "")
	path = strings.TrimSuffix(path, "/")
	return parsed.Scheme + "://" + parsed.Host + path
}

// CompanySlug guesses the company identifier from an ATS URL: the subdomain
// for Workday, the first path segment otherwise.
func CompanySlug(source jobs.Source, urlStr string) string {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return ""
	}
	if source == jobs.SourceWorkday {
		parts := strings.Split(parsed.Hostname(), ".")
		if len(parts) > 0 {
			return parts[0]
		}
		return ""
	}
	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(segments) > 0 {
		return segments[0]
	}
	return ""
}
