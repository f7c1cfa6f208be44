// Package extract holds the stateless extraction strategies: schema-driven
// JSON extraction, heuristic JSON discovery, raw-HTML pattern extraction, and
// embedded-blob scanning.
package extract

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonathan/jobharvest/internal/jobs"
	"github.com/jonathan/jobharvest/internal/schema"
)

// NavigatePath walks a dot-separated key path into a decoded JSON document.
// It fails closed: any missing or non-object intermediate returns (nil, false).
func NavigatePath(doc interface{}, path string) (interface{}, bool) {
	current := doc
	if path == "" {
		return current, true
	}
	for _, key := range strings.Split(path, ".") {
		obj, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = obj[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// FromJSON extracts job candidates from raw JSON bytes using a discovered
// response structure. A document that does not match the structure yields an
// empty slice, never partial data and never an error.
func FromJSON(data []byte, structure *schema.JobResponseStructure, baseURL string) []jobs.ParsedJob {
	if structure == nil || structure.TitleField == "" {
		return nil
	}
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil
	}
	return FromDocument(doc, structure, baseURL)
}

// FromDocument is FromJSON over an already-decoded document.
func FromDocument(doc interface{}, structure *schema.JobResponseStructure, baseURL string) []jobs.ParsedJob {
	node, ok := NavigatePath(doc, structure.JobsArrayPath)
	if !ok {
		return nil
	}
	arr, ok := node.([]interface{})
	if !ok {
		return nil
	}

	var out []jobs.ParsedJob
	for _, el := range arr {
		obj, ok := el.(map[string]interface{})
		if !ok {
			continue
		}
		title := stringField(obj, structure.TitleField)
		if strings.TrimSpace(title) == "" {
			continue
		}

		location := jobs.LocationNotSpecified
		if structure.LocationField != "" {
			if loc := stringField(obj, structure.LocationField); strings.TrimSpace(loc) != "" {
				location = loc
			}
		}

		pj := jobs.ParsedJob{
			Title:    strings.TrimSpace(title),
			Location: strings.TrimSpace(location),
			URL:      buildJobURL(obj, structure, baseURL),
		}
		if id := stringField(obj, "id"); id != "" {
			pj.NativeID = id
		}
		out = append(out, pj)
	}
	return out
}

// buildJobURL resolves the posting URL for one array element: an absolute URL
// field verbatim, a template with the value substituted, or the value appended
// to the base URL.
func buildJobURL(obj map[string]interface{}, structure *schema.JobResponseStructure, baseURL string) string {
	value := ""
	if structure.URLField != "" {
		value = stringField(obj, structure.URLField)
	}

	if strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://") {
		return value
	}

	if structure.URLTemplate != "" {
		return expandTemplate(structure.URLTemplate, structure.URLField, value)
	}

	if value == "" {
		return baseURL
	}
	base := strings.TrimSuffix(baseURL, "/")
	return base + "/" + strings.TrimPrefix(value, "/")
}

// expandTemplate substitutes the URL field value into a template, trying the
// named placeholder first and then the generic id placeholders many APIs use.
func expandTemplate(template, fieldName, value string) string {
	placeholders := []string{"{" + fieldName + "}", "{id}", "{jobId}", "{job_id}"}
	for _, p := range placeholders {
		if strings.Contains(template, p) {
			return strings.ReplaceAll(template, p, value)
		}
	}
	return template
}

// stringField reads obj[field] tolerating both string and numeric values,
// since APIs commonly report ids as plain integers.
func stringField(obj map[string]interface{}, field string) string {
	v, ok := obj[field]
	if !ok {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case float64:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%v", val)
	default:
		return ""
	}
}
