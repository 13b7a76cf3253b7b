package modules

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/agobrik/webtesttool-sub001/internal/model"
	"github.com/agobrik/webtesttool-sub001/internal/pipeline"
)

// Security checks response headers, cookies, forms, and common
// information leaks across the crawled pages.
type Security struct{}

// NewSecurity creates the security module.
func NewSecurity() *Security {
	return &Security{}
}

// Name returns the module name.
func (m *Security) Name() string { return "security" }

// Category returns the assessment category.
func (m *Security) Category() string { return "security" }

// securityHeaders maps required response headers to the finding type
// reported when one is missing.
var securityHeaders = []struct {
	header      string
	findingType string
	httpsOnly   bool
}{
	{"Content-Security-Policy", "missing_csp", false},
	{"X-Frame-Options", "missing_x_frame_options", false},
	{"X-Content-Type-Options", "missing_x_content_type_options", false},
	{"Strict-Transport-Security", "missing_hsts", true},
}

// serverVersionRegex matches Server header values that include a version
// number, e.g. "nginx/1.18.0".
var serverVersionRegex = regexp.MustCompile(`/[0-9]+(\.[0-9]+)*`)

// csrfTokenRegex matches hidden input names that look like CSRF tokens.
var csrfTokenRegex = regexp.MustCompile(`(?i)(csrf|xsrf|token|authenticity|nonce)`)

// mixedContentRegex finds http:// sub-resource references in HTML served
// over HTTPS.
var mixedContentRegex = regexp.MustCompile(`(?i)(?:src|href)\s*=\s*["'](http://[^"']+\.(?:js|css|png|jpg|jpeg|gif|svg|webp|ico|woff2?))["']`)

// Execute runs the security checks.
func (m *Security) Execute(ctx context.Context, sctx *pipeline.Context) ([]model.Finding, error) {
	findings := make([]model.Finding, 0)

	// Header checks run against the entry page only; the same server
	// configuration applies site-wide and per-page repeats drown reports.
	if seed := firstHTMLPage(sctx.Pages); seed != nil {
		findings = append(findings, m.checkHeaders(seed)...)
	}

	for _, page := range sctx.Pages {
		if !page.Succeeded() {
			continue
		}
		findings = append(findings, m.checkCookies(page)...)
		findings = append(findings, m.checkBody(page)...)
	}

	return findings, nil
}

// checkHeaders reports missing or leaky response headers on one page.
func (m *Security) checkHeaders(page *model.CrawledPage) []model.Finding {
	findings := make([]model.Finding, 0)
	https := strings.HasPrefix(page.URL, "https://")

	for _, check := range securityHeaders {
		if check.httpsOnly && !https {
			continue
		}
		if page.Header(check.header) == "" {
			findings = append(findings, model.NewFinding(
				check.findingType,
				fmt.Sprintf("Missing %s header", check.header),
				fmt.Sprintf("the %s header is absent from the response", check.header),
				page.URL,
			))
		}
	}

	if server := page.Header("Server"); serverVersionRegex.MatchString(server) {
		findings = append(findings, model.NewFinding(
			"server_version",
			"Server header discloses software version",
			"Server: "+server,
			page.URL,
		))
	}
	if powered := page.Header("X-Powered-By"); powered != "" {
		findings = append(findings, model.NewFinding(
			"x_powered_by",
			"X-Powered-By header discloses technology stack",
			"X-Powered-By: "+powered,
			page.URL,
		))
	}
	if origin := page.Header("Access-Control-Allow-Origin"); origin == "*" {
		findings = append(findings, model.NewFinding(
			"cors_wildcard",
			"CORS allows any origin",
			"Access-Control-Allow-Origin: *",
			page.URL,
		))
	}

	return findings
}

// checkCookies inspects Set-Cookie headers for missing security flags.
func (m *Security) checkCookies(page *model.CrawledPage) []model.Finding {
	findings := make([]model.Finding, 0)
	https := strings.HasPrefix(page.URL, "https://")

	for _, raw := range http.Header(page.Headers).Values("Set-Cookie") {
		name := cookieName(raw)
		lower := strings.ToLower(raw)

		if https && !strings.Contains(lower, "secure") {
			findings = append(findings, model.NewFinding(
				"cookie_missing_secure",
				fmt.Sprintf("Cookie %q lacks the Secure flag", name),
				raw,
				page.URL,
			))
		}
		if !strings.Contains(lower, "httponly") {
			findings = append(findings, model.NewFinding(
				"cookie_missing_httponly",
				fmt.Sprintf("Cookie %q lacks the HttpOnly flag", name),
				raw,
				page.URL,
			))
		}
	}

	return findings
}

// checkBody inspects page content for insecure forms, mixed content, and
// directory listings.
func (m *Security) checkBody(page *model.CrawledPage) []model.Finding {
	findings := make([]model.Finding, 0)
	https := strings.HasPrefix(page.URL, "https://")

	if https {
		for _, match := range mixedContentRegex.FindAllStringSubmatch(string(page.Body), 5) {
			findings = append(findings, model.NewFinding(
				"mixed_content",
				"HTTPS page loads resource over HTTP",
				match[1],
				page.URL,
			))
		}
	}

	if isDirectoryListing(page) {
		findings = append(findings, model.NewFinding(
			"directory_listing",
			"Directory listing is enabled",
			page.Title,
			page.URL,
		))
	}

	doc := parsePage(page)
	if doc == nil {
		return findings
	}

	walkElements(doc, func(n *html.Node) {
		if n.Data != "form" {
			return
		}
		if !https && formHasPasswordField(n) {
			findings = append(findings, model.NewFinding(
				"password_form_over_http",
				"Password form served over plain HTTP",
				formAction(n, page.URL),
				page.URL,
			))
		}
		method, _ := attr(n, "method")
		if strings.EqualFold(method, "post") && !formHasCSRFToken(n) {
			findings = append(findings, model.NewFinding(
				"form_missing_csrf",
				"POST form without a CSRF token",
				formAction(n, page.URL),
				page.URL,
			))
		}
	})

	return findings
}

// firstHTMLPage returns the first successfully fetched HTML page,
// preferring the shallowest (the entry page is depth 0).
func firstHTMLPage(pages []*model.CrawledPage) *model.CrawledPage {
	var best *model.CrawledPage
	for _, p := range pages {
		if !p.IsHTML() || !p.Succeeded() {
			continue
		}
		if best == nil || p.Depth < best.Depth {
			best = p
		}
	}
	return best
}

// cookieName extracts the cookie name from a Set-Cookie value.
func cookieName(raw string) string {
	if i := strings.IndexByte(raw, '='); i > 0 {
		return strings.TrimSpace(raw[:i])
	}
	return raw
}

// isDirectoryListing recognizes auto-generated directory index pages.
func isDirectoryListing(page *model.CrawledPage) bool {
	if strings.HasPrefix(page.Title, "Index of /") {
		return true
	}
	return strings.Contains(string(page.Body), "<title>Index of /")
}

// formHasPasswordField reports whether a form contains a password input.
func formHasPasswordField(form *html.Node) bool {
	found := false
	walkElements(form, func(n *html.Node) {
		if n.Data == "input" {
			if t, _ := attr(n, "type"); strings.EqualFold(t, "password") {
				found = true
			}
		}
	})
	return found
}

// formHasCSRFToken reports whether a form carries a hidden token field.
func formHasCSRFToken(form *html.Node) bool {
	found := false
	walkElements(form, func(n *html.Node) {
		if n.Data != "input" {
			return
		}
		t, _ := attr(n, "type")
		name, _ := attr(n, "name")
		if strings.EqualFold(t, "hidden") && csrfTokenRegex.MatchString(name) {
			found = true
		}
	})
	return found
}

// formAction returns the form's action, falling back to the page URL.
func formAction(form *html.Node, pageURL string) string {
	if action, ok := attr(form, "action"); ok && action != "" {
		return action
	}
	return pageURL
}
