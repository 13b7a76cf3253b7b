package modules

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/agobrik/webtesttool-sub001/internal/model"
	"github.com/agobrik/webtesttool-sub001/internal/pipeline"
)

// API inventories discovered API endpoints and probes a bounded number
// of them for exposure problems.
type API struct {
	// maxProbes bounds how many endpoints are probed over the network.
	maxProbes int
}

// NewAPI creates the API module.
func NewAPI() *API {
	return &API{maxProbes: 10}
}

// Name returns the module name.
func (m *API) Name() string { return "api" }

// Category returns the assessment category.
func (m *API) Category() string { return "api" }

// verboseErrorRegex recognizes stack traces and framework error pages in
// response bodies.
var verboseErrorRegex = regexp.MustCompile(`(?i)(stack trace|traceback \(most recent|at [\w.$]+\([\w.]+\.(java|kt):\d+\)|fatal error:|ORA-\d{5}|syntax error.*line \d+)`)

// Execute inventories endpoints and probes GET endpoints for exposure.
func (m *API) Execute(ctx context.Context, sctx *pipeline.Context) ([]model.Finding, error) {
	findings := make([]model.Finding, 0)

	for _, ep := range sctx.Endpoints {
		findings = append(findings, model.NewFinding(
			"api_endpoint",
			fmt.Sprintf("API endpoint discovered: %s %s", ep.Method, ep.Path),
			fmt.Sprintf("discovered via %s, parameters: %s", ep.DiscoveredVia, strings.Join(ep.Parameters, ", ")),
			ep.Path,
		))
	}

	if sctx.Fetcher == nil {
		return findings, nil
	}

	root, err := url.Parse(sctx.TargetURL)
	if err != nil {
		return findings, nil
	}
	base := root.Scheme + "://" + root.Host

	probed := 0
	for _, ep := range sctx.Endpoints {
		if probed >= m.maxProbes {
			break
		}
		// Only GET endpoints are probed; other methods would mutate
		// state on the target.
		if ep.Method != http.MethodGet {
			continue
		}
		probed++

		endpointURL := base + ep.Path
		resp, err := sctx.Fetcher.Get(ctx, endpointURL)
		if err != nil || resp == nil {
			continue
		}

		if resp.StatusCode == http.StatusOK && looksLikeData(resp.ContentType) {
			findings = append(findings, model.NewFinding(
				"api_unauthenticated",
				"API endpoint answers without authentication",
				fmt.Sprintf("GET %s returned %d with %s", ep.Path, resp.StatusCode, resp.ContentType),
				endpointURL,
			))
		}

		if resp.StatusCode >= 500 && verboseErrorRegex.Match(resp.Body) {
			findings = append(findings, model.NewFinding(
				"api_verbose_error",
				"API endpoint leaks internals in error responses",
				fmt.Sprintf("GET %s returned %d with a stack trace", ep.Path, resp.StatusCode),
				endpointURL,
			))
		}
	}

	return findings, nil
}

// looksLikeData reports whether a content type carries machine-readable
// data rather than a rendered page.
func looksLikeData(contentType string) bool {
	return strings.Contains(contentType, "json") ||
		strings.Contains(contentType, "xml") ||
		strings.Contains(contentType, "protobuf")
}
