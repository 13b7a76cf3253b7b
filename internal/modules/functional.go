package modules

import (
	"context"
	"fmt"
	"net/http"

	"github.com/agobrik/webtesttool-sub001/internal/cache"
	"github.com/agobrik/webtesttool-sub001/internal/model"
	"github.com/agobrik/webtesttool-sub001/internal/pipeline"
)

// Functional inventories forms and reports internal links that resolve
// to failing pages.
type Functional struct{}

// NewFunctional creates the functional module.
func NewFunctional() *Functional {
	return &Functional{}
}

// Name returns the module name.
func (m *Functional) Name() string { return "functional" }

// Category returns the assessment category.
func (m *Functional) Category() string { return "functional" }

// Execute runs the functional checks.
//
// Broken-link detection works entirely from crawl data: a link is broken
// when its target was visited and came back as a client or server error.
// Links outside the crawl budget are not judged.
func (m *Functional) Execute(ctx context.Context, sctx *pipeline.Context) ([]model.Finding, error) {
	findings := make([]model.Finding, 0)

	status := make(map[string]int, len(sctx.Pages))
	fetchFailed := make(map[string]bool)
	for _, page := range sctx.Pages {
		normalized := cache.NormalizeURL(page.URL)
		status[normalized] = page.StatusCode
		if page.FetchError != "" && page.StatusCode == 0 {
			fetchFailed[normalized] = true
		}
	}

	reported := make(map[string]bool)

	for _, page := range sctx.Pages {
		if !page.Succeeded() {
			continue
		}

		for _, form := range page.Forms {
			findings = append(findings, model.NewFinding(
				"form_detected",
				fmt.Sprintf("Form found: %s %s", form.Method, form.Action),
				fmt.Sprintf("%d input field(s)", len(form.Inputs)),
				page.URL,
			))
		}

		for _, link := range page.Links {
			normalized := cache.NormalizeURL(link)
			if reported[normalized] {
				continue
			}

			code, visited := status[normalized]
			broken := (visited && code >= http.StatusBadRequest) || fetchFailed[normalized]
			if !broken {
				continue
			}
			reported[normalized] = true

			evidence := fmt.Sprintf("linked from %s, target returned %d", page.URL, code)
			if fetchFailed[normalized] {
				evidence = fmt.Sprintf("linked from %s, target could not be fetched", page.URL)
			}
			findings = append(findings, model.NewFinding(
				"broken_internal_link",
				"Internal link points at a failing page",
				evidence,
				link,
			))
		}
	}

	return findings, nil
}
