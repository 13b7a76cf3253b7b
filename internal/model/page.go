package model

import (
	"strings"
	"time"
)

// MaxStoredBodySize is the maximum size of a page body kept in memory for
// module analysis. Larger bodies are truncated to this size.
const MaxStoredBodySize = 5 * 1024 * 1024 // 5 MB

// CrawledPage represents a single page discovered during crawling.
// A page is created on the first (and only) fetch of its URL and is
// immutable once appended to the crawl output.
//
// Design decision: Failed fetches are also recorded as CrawledPage values
// with FetchError set rather than being dropped, because:
//  1. Reporting layers must be able to surface every failure
//  2. Modules can flag links pointing at failing pages
//  3. Dropping failures would make crawl budgets unobservable
type CrawledPage struct {
	// URL is the URL the page was fetched from, as discovered.
	// Deduplication compares normalized forms before fetching.
	URL string `json:"url"`

	// StatusCode is the HTTP response status code.
	// Zero when the fetch failed before receiving a response.
	StatusCode int `json:"status_code"`

	// ContentType is the MIME type of the response.
	ContentType string `json:"content_type,omitempty"`

	// Title is the page title extracted from the title element.
	// Empty for non-HTML content.
	Title string `json:"title,omitempty"`

	// Links contains the same-host links discovered on the page,
	// already normalized to absolute URLs.
	Links []string `json:"links,omitempty"`

	// Forms contains all HTML forms found on the page.
	Forms []Form `json:"forms,omitempty"`

	// Depth is the link distance from the seed URL (seed = 0).
	Depth int `json:"depth"`

	// FetchedAt is when the page was fetched (or when the fetch failed).
	FetchedAt time.Time `json:"fetched_at"`

	// FromCache is true when the response was served by the cache
	// without a network operation.
	FromCache bool `json:"from_cache,omitempty"`

	// FetchError holds the error message for pages that failed to fetch.
	// Empty for pages with a received HTTP response, including non-2xx.
	FetchError string `json:"fetch_error,omitempty"`

	// Size is the response body size in bytes.
	Size int64 `json:"size,omitempty"`

	// Headers contains the HTTP response headers.
	// Keys are canonicalized header names.
	Headers map[string][]string `json:"-"` // Excluded from JSON to reduce report size

	// Body contains the response body, truncated to MaxStoredBodySize.
	// Modules parse it on demand; it is never serialized.
	Body []byte `json:"-"`
}

// Header returns the first value of the named response header,
// or the empty string if the header is absent.
func (p *CrawledPage) Header(name string) string {
	if p.Headers == nil {
		return ""
	}
	if vs, ok := p.Headers[name]; ok && len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// IsHTML reports whether the page content type is HTML.
func (p *CrawledPage) IsHTML() bool {
	ct := strings.ToLower(p.ContentType)
	return strings.Contains(ct, "text/html") ||
		strings.Contains(ct, "application/xhtml")
}

// Succeeded reports whether the page was fetched with a 2xx status.
func (p *CrawledPage) Succeeded() bool {
	return p.StatusCode >= 200 && p.StatusCode < 300
}

// Form represents an HTML form element found on a page.
type Form struct {
	// Action is the form's action URL resolved against the page URL.
	Action string `json:"action"`

	// Method is the HTTP method (GET, POST, ...). Defaults to GET.
	Method string `json:"method"`

	// Inputs contains the form's input fields.
	Inputs []FormInput `json:"inputs,omitempty"`
}

// FormInput represents an input field in a form.
type FormInput struct {
	// Type is the input type (text, password, hidden, ...).
	Type string `json:"type"`

	// Name is the input's name attribute.
	Name string `json:"name"`

	// Value is the input's default value.
	Value string `json:"value,omitempty"`
}

// APIEndpoint describes an API endpoint discovered as a byproduct of page
// parsing. Endpoints are consumed by API-oriented modules.
type APIEndpoint struct {
	// Method is the HTTP method the endpoint is expected to accept.
	Method string `json:"method"`

	// Path is the endpoint path relative to the site root.
	Path string `json:"path"`

	// Parameters lists known parameter names for the endpoint.
	Parameters []string `json:"parameters,omitempty"`

	// DiscoveredVia records how the endpoint was found: "form", "link",
	// or "script".
	DiscoveredVia string `json:"discovered_via"`
}

