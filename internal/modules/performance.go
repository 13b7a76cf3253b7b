package modules

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/agobrik/webtesttool-sub001/internal/model"
	"github.com/agobrik/webtesttool-sub001/internal/pipeline"
)

// Performance checks compression, cache headers, and page weight.
type Performance struct {
	// largePageBytes is the body size above which a page is flagged.
	largePageBytes int64

	// maxResources is the script plus stylesheet count above which a
	// page is flagged.
	maxResources int
}

// NewPerformance creates the performance module.
func NewPerformance() *Performance {
	return &Performance{
		largePageBytes: 2 * 1024 * 1024, // 2MB
		maxResources:   30,
	}
}

// Name returns the module name.
func (m *Performance) Name() string { return "performance" }

// Category returns the assessment category.
func (m *Performance) Category() string { return "performance" }

// compressibleTypes are content types where missing compression matters.
var compressibleTypes = []string{
	"text/html",
	"text/css",
	"text/plain",
	"application/javascript",
	"application/json",
	"application/xml",
	"image/svg+xml",
}

// Execute runs the performance checks.
func (m *Performance) Execute(ctx context.Context, sctx *pipeline.Context) ([]model.Finding, error) {
	findings := make([]model.Finding, 0)

	for _, page := range sctx.Pages {
		if !page.Succeeded() {
			continue
		}
		// Cached responses carry the headers of the original fetch, so
		// the checks stay valid for them too.

		if m.missingCompression(page) {
			findings = append(findings, model.NewFinding(
				"missing_compression",
				"Response served without compression",
				fmt.Sprintf("%s, %d bytes, no Content-Encoding", page.ContentType, page.Size),
				page.URL,
			))
		}

		if isStaticAsset(page) && page.Header("Cache-Control") == "" && page.Header("Expires") == "" {
			findings = append(findings, model.NewFinding(
				"missing_cache_headers",
				"Static asset served without cache headers",
				page.ContentType,
				page.URL,
			))
		}

		if page.Size > m.largePageBytes {
			findings = append(findings, model.NewFinding(
				"large_page",
				"Page exceeds recommended size",
				fmt.Sprintf("%d bytes", page.Size),
				page.URL,
			))
		}

		if n := countResources(page); n > m.maxResources {
			findings = append(findings, model.NewFinding(
				"excessive_resources",
				"Page references an excessive number of resources",
				fmt.Sprintf("%d scripts and stylesheets", n),
				page.URL,
			))
		}
	}

	return findings, nil
}

// missingCompression reports text responses large enough to benefit from
// compression that were served without a Content-Encoding.
func (m *Performance) missingCompression(page *model.CrawledPage) bool {
	if page.Header("Content-Encoding") != "" || page.Size < 1024 {
		return false
	}
	for _, t := range compressibleTypes {
		if strings.Contains(page.ContentType, t) {
			return true
		}
	}
	return false
}

// isStaticAsset reports whether a response looks like a long-lived asset.
func isStaticAsset(page *model.CrawledPage) bool {
	ct := page.ContentType
	return strings.HasPrefix(ct, "image/") ||
		strings.HasPrefix(ct, "font/") ||
		strings.Contains(ct, "text/css") ||
		strings.Contains(ct, "javascript")
}

// countResources counts script and stylesheet references on a page.
func countResources(page *model.CrawledPage) int {
	doc := parsePage(page)
	if doc == nil {
		return 0
	}

	count := 0
	walkElements(doc, func(n *html.Node) {
		switch n.Data {
		case "script":
			if _, ok := attr(n, "src"); ok {
				count++
			}
		case "link":
			if rel, _ := attr(n, "rel"); rel == "stylesheet" {
				count++
			}
		}
	})
	return count
}
