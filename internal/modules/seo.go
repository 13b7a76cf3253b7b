package modules

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/agobrik/webtesttool-sub001/internal/model"
	"github.com/agobrik/webtesttool-sub001/internal/pipeline"
)

// SEO checks titles, meta descriptions, canonical links, robots.txt,
// and sitemap presence.
type SEO struct{}

// NewSEO creates the SEO module.
func NewSEO() *SEO {
	return &SEO{}
}

// Name returns the module name.
func (m *SEO) Name() string { return "seo" }

// Category returns the assessment category.
func (m *SEO) Category() string { return "seo" }

// Execute runs the SEO checks.
func (m *SEO) Execute(ctx context.Context, sctx *pipeline.Context) ([]model.Finding, error) {
	findings := make([]model.Finding, 0)

	titleOwners := make(map[string]string) // title -> first URL seen with it

	for _, page := range sctx.Pages {
		if !page.IsHTML() || !page.Succeeded() {
			continue
		}
		doc := parsePage(page)
		if doc == nil {
			continue
		}

		if page.Title == "" {
			findings = append(findings, model.NewFinding(
				"missing_title",
				"Page has no title",
				"",
				page.URL,
			))
		} else if first, seen := titleOwners[page.Title]; seen {
			findings = append(findings, model.NewFinding(
				"duplicate_title",
				"Page title duplicates another page",
				fmt.Sprintf("title %q also used by %s", page.Title, first),
				page.URL,
			))
		} else {
			titleOwners[page.Title] = page.URL
		}

		if !hasMetaDescription(doc) {
			findings = append(findings, model.NewFinding(
				"missing_meta_description",
				"Page has no meta description",
				"",
				page.URL,
			))
		}
		if !hasCanonicalLink(doc) {
			findings = append(findings, model.NewFinding(
				"missing_canonical",
				"Page has no canonical link",
				"",
				page.URL,
			))
		}
	}

	findings = append(findings, m.checkWellKnown(ctx, sctx)...)

	return findings, nil
}

// checkWellKnown probes robots.txt and the sitemap at the site root.
// Probe failures are treated as absence; this is advisory, not fatal.
func (m *SEO) checkWellKnown(ctx context.Context, sctx *pipeline.Context) []model.Finding {
	findings := make([]model.Finding, 0)

	root, err := url.Parse(sctx.TargetURL)
	if err != nil || sctx.Fetcher == nil {
		return findings
	}
	base := root.Scheme + "://" + root.Host

	robotsURL := base + "/robots.txt"
	robots, err := sctx.Fetcher.Get(ctx, robotsURL)
	if err != nil || robots.StatusCode != http.StatusOK {
		findings = append(findings, model.NewFinding(
			"missing_robots_txt",
			"robots.txt not found",
			robotsURL,
			base+"/",
		))
	}

	// A Sitemap directive in robots.txt counts as a sitemap.
	if err == nil && robots.StatusCode == http.StatusOK &&
		strings.Contains(strings.ToLower(string(robots.Body)), "sitemap:") {
		return findings
	}

	sitemapURL := base + "/sitemap.xml"
	sitemap, err := sctx.Fetcher.Get(ctx, sitemapURL)
	if err != nil || sitemap.StatusCode != http.StatusOK {
		findings = append(findings, model.NewFinding(
			"missing_sitemap",
			"No sitemap found",
			sitemapURL,
			base+"/",
		))
	}

	return findings
}

// hasMetaDescription reports whether the document carries a non-empty
// meta description.
func hasMetaDescription(doc *html.Node) bool {
	found := false
	walkElements(doc, func(n *html.Node) {
		if n.Data != "meta" {
			return
		}
		name, _ := attr(n, "name")
		content, _ := attr(n, "content")
		if strings.EqualFold(name, "description") && strings.TrimSpace(content) != "" {
			found = true
		}
	})
	return found
}

// hasCanonicalLink reports whether the document declares a canonical URL.
func hasCanonicalLink(doc *html.Node) bool {
	found := false
	walkElements(doc, func(n *html.Node) {
		if n.Data != "link" {
			return
		}
		rel, _ := attr(n, "rel")
		href, _ := attr(n, "href")
		if strings.EqualFold(rel, "canonical") && href != "" {
			found = true
		}
	})
	return found
}
