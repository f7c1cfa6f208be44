package parser

import (
	"context"
	"fmt"
	"net/url"

	"github.com/jonathan/jobharvest/internal/extract"
	"github.com/jonathan/jobharvest/internal/jobs"
	"github.com/jonathan/jobharvest/internal/schema"
)

// recipePageSize is the page size requested when a recipe knows the endpoint
// accepts one.
const recipePageSize = 50

// fetchViaRecipe replays a discovered recipe directly against its endpoint,
// walking pagination when the recipe recorded any. Any page-level failure
// ends the walk with whatever was collected so far.
func (p *SmartParser) fetchViaRecipe(ctx context.Context, req *request, cached *schema.DiscoveredAPISchema) []jobs.Job {
	if cached.Endpoint == "" {
		return nil
	}

	var out []jobs.Job
	seen := make(map[string]bool)
	for page := 1; page <= recipeMaxPages(cached); page++ {
		endpoint := pagedEndpoint(cached, page)
		body, ok := p.fetchCallBody(ctx, jobs.DetectedAPICall{
			URL:     endpoint,
			Method:  cached.Method,
			Body:    cached.RequestBody,
			Headers: cached.Headers,
		})
		if !ok {
			break
		}
		parsed := extract.FromJSON([]byte(body), cached.Structure, req.url)
		if len(parsed) == 0 {
			break
		}
		added := 0
		for _, j := range p.toJobs(parsed, jobs.SourceUnknown) {
			if seen[j.ID] {
				continue
			}
			seen[j.ID] = true
			out = append(out, j)
			added++
		}
		// A page of pure repeats means the endpoint ignores the page param.
		if added == 0 {
			break
		}
	}
	return out
}

// recipeMaxPages returns how many pages the recipe allows walking: one when
// the endpoint has no usable pagination.
func recipeMaxPages(cached *schema.DiscoveredAPISchema) int {
	pageParam := recipePageParam(cached)
	if pageParam == "" {
		return 1
	}
	if cached.Pagination != nil && cached.Pagination.MaxPages > 0 {
		return cached.Pagination.MaxPages
	}
	return schema.DefaultMaxPages
}

func recipePageParam(cached *schema.DiscoveredAPISchema) string {
	if cached.Pagination != nil && cached.Pagination.PageParam != "" {
		return cached.Pagination.PageParam
	}
	if cached.Structure != nil {
		return cached.Structure.PageParam
	}
	return ""
}

// pagedEndpoint sets the recipe's page parameter on the endpoint URL. Offset
// pagination converts the page number into an item offset.
func pagedEndpoint(cached *schema.DiscoveredAPISchema, page int) string {
	pageParam := recipePageParam(cached)
	if pageParam == "" || page == 1 {
		return cached.Endpoint
	}
	u, err := url.Parse(cached.Endpoint)
	if err != nil {
		return cached.Endpoint
	}
	q := u.Query()
	value := page
	if cached.Pagination != nil && cached.Pagination.Type == schema.PaginationOffset {
		value = (page - 1) * recipePageSize
		sizeParam := cached.Pagination.PageSizeParam
		if sizeParam == "" && cached.Structure != nil {
			sizeParam = cached.Structure.PageSizeParam
		}
		if sizeParam != "" {
			q.Set(sizeParam, fmt.Sprintf("%d", recipePageSize))
		}
	}
	q.Set(pageParam, fmt.Sprintf("%d", value))
	u.RawQuery = q.Encode()
	return u.String()
}
