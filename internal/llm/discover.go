package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/jonathan/jobharvest/internal/jobs"
	"github.com/jonathan/jobharvest/internal/schema"
)

// Sample size bounds keep prompts inside context limits.
const (
	maxJSONSample = 8000
	maxHTMLSample = 20000
)

// discoverySchema validates the model's schema-discovery output before it is
// trusted.
const discoverySchema = `{
	"type": "object",
	"required": ["jobs_array_path", "title_field"],
	"properties": {
		"jobs_array_path": {"type": "string", "minLength": 1},
		"title_field": {"type": "string", "minLength": 1},
		"location_field": {"type": "string"},
		"url_field": {"type": "string"},
		"url_template": {"type": "string"}
	}
}`

// patternSchema validates the model's pattern-detection output.
const patternSchema = `{
	"type": "object",
	"required": ["confidence"],
	"properties": {
		"ats_url": {"type": "string"},
		"ats_type": {"type": "string"},
		"api_endpoint": {"type": "string"},
		"api_type": {"type": "string"},
		"confidence": {"type": "string"}
	}
}`

// extractionSchema validates the model's direct-extraction output.
const extractionSchema = `{
	"type": "array",
	"items": {
		"type": "object",
		"required": ["title"],
		"properties": {
			"title": {"type": "string", "minLength": 1},
			"location": {"type": "string"},
			"url": {"type": "string"}
		}
	}
}`

// PatternResult is the model's opinion about which ATS or API a page uses.
type PatternResult struct {
	ATSURL      string `json:"ats_url,omitempty"`
	ATSType     string `json:"ats_type,omitempty"`
	APIEndpoint string `json:"api_endpoint,omitempty"`
	APIType     string `json:"api_type,omitempty"`
	Confidence  string `json:"confidence"`
}

// DiscoverSchema asks the model where job records live inside a JSON sample.
// The response is schema-validated; anything malformed is an InferenceError.
func DiscoverSchema(ctx context.Context, client Client, jsonSample string) (*schema.JobResponseStructure, error) {
	var sb strings.Builder
	sb.WriteString("You are an expert at reading job-board API responses.\n")
	sb.WriteString("Given the JSON document below, identify where the job records live.\n\n")
	sb.WriteString("Return ONLY valid JSON matching this exact structure:\n")
	sb.WriteString(`{
  "jobs_array_path": "dot.separated.path.to.jobs.array" (required),
  "title_field": "field holding the job title" (required),
  "location_field": "field holding the location" (optional),
  "url_field": "field holding the job URL or id" (optional),
  "url_template": "template like https://site/job/{id} when url_field is only an id" (optional)
}`)
	sb.WriteString("\n\nIMPORTANT:\n")
	sb.WriteString("- The path must point at a JSON array of objects, one per job.\n")
	sb.WriteString("- Use an empty path \"\" only when the document root is the array itself.\n")
	sb.WriteString("- Return ONLY the JSON object, no markdown, no explanation.\n\n")
	sb.WriteString("JSON document:\n\"\"\"\n")
	sb.WriteString(truncate(jsonSample, maxJSONSample))
	sb.WriteString("\n\"\"\"\n")

	raw, err := client.GenerateJSON(ctx, sb.String(), TierStandard)
	if err != nil {
		return nil, err
	}
	if err := validateAgainst(discoverySchema, raw); err != nil {
		return nil, err
	}

	var out schema.JobResponseStructure
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, &InferenceError{Message: "schema discovery response is not valid JSON", Cause: err}
	}
	return &out, nil
}

// DetectPatterns asks the model whether a page embeds a known ATS or hidden
// API, as a last resort after the regex scanners found nothing.
func DetectPatterns(ctx context.Context, client Client, htmlSample, sourceURL string) (*PatternResult, error) {
	var sb strings.Builder
	sb.WriteString("You are an expert at recognizing applicant tracking systems in web pages.\n")
	sb.WriteString(fmt.Sprintf("The HTML below comes from %s.\n", sourceURL))
	sb.WriteString("Look for references to job-board vendors (greenhouse, lever, ashby, workday) or JSON API endpoints serving job data.\n\n")
	sb.WriteString("Return ONLY valid JSON matching this exact structure:\n")
	sb.WriteString(`{
  "ats_url": "full URL of the vendor job board if present" (optional),
  "ats_type": "greenhouse|lever|ashby|workday" (optional),
  "api_endpoint": "URL of a JSON API serving jobs" (optional),
  "api_type": "GET|POST" (optional),
  "confidence": "high|medium|low" (required)
}`)
	sb.WriteString("\n\nHTML:\n\"\"\"\n")
	sb.WriteString(truncate(htmlSample, maxHTMLSample))
	sb.WriteString("\n\"\"\"\n")

	raw, err := client.GenerateJSON(ctx, sb.String(), TierLite)
	if err != nil {
		return nil, err
	}
	if err := validateAgainst(patternSchema, raw); err != nil {
		return nil, err
	}

	var out PatternResult
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, &InferenceError{Message: "pattern detection response is not valid JSON", Cause: err}
	}
	return &out, nil
}

// ExtractJobs asks the model to pull postings straight out of page HTML, the
// final fallback when no structured source exists.
func ExtractJobs(ctx context.Context, client Client, htmlSample, url string) ([]jobs.ParsedJob, error) {
	var sb strings.Builder
	sb.WriteString("You are an expert job posting parser. Extract every job posting from the page HTML below.\n")
	sb.WriteString(fmt.Sprintf("The page URL is %s; resolve relative links against it.\n\n", url))
	sb.WriteString("Return ONLY a valid JSON array matching this exact structure:\n")
	sb.WriteString(`[{"title": "job title" (required), "location": "location text" (optional), "url": "absolute posting URL" (optional)}]`)
	sb.WriteString("\n\nIMPORTANT:\n")
	sb.WriteString("- Extract only real job postings, not navigation or category links.\n")
	sb.WriteString("- Copy titles verbatim, do not invent or summarize.\n")
	sb.WriteString("- Return [] when the page holds no postings.\n\n")
	sb.WriteString("HTML:\n\"\"\"\n")
	sb.WriteString(truncate(htmlSample, maxHTMLSample))
	sb.WriteString("\n\"\"\"\n")

	raw, err := client.GenerateJSON(ctx, sb.String(), TierStandard)
	if err != nil {
		return nil, err
	}
	if err := validateAgainst(extractionSchema, raw); err != nil {
		return nil, err
	}

	var parsed []jobs.ParsedJob
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, &InferenceError{Message: "extraction response is not valid JSON", Cause: err}
	}
	for i := range parsed {
		if strings.TrimSpace(parsed[i].Location) == "" {
			parsed[i].Location = jobs.LocationNotSpecified
		}
	}
	return parsed, nil
}

// validateAgainst checks a raw model response against a JSON Schema.
func validateAgainst(schemaJSON, raw string) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schemaJSON),
		gojsonschema.NewStringLoader(raw),
	)
	if err != nil {
		return &InferenceError{Message: "response is not valid JSON", Cause: err}
	}
	if !result.Valid() {
		var details []string
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return &InferenceError{Message: "response failed schema validation: " + strings.Join(details, "; ")}
	}
	return nil
}
