package crawler

import (
	"io"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"

	"github.com/agobrik/webtesttool-sub001/internal/model"
)

// HTML element name constants for form field detection.
const (
	htmlElementInput    = "input"
	htmlElementSelect   = "select"
	htmlElementTextarea = "textarea"
)

// Parser extracts information from HTML content.
//
// Design decision: We use golang.org/x/net/html for parsing rather than
// regex because:
//  1. It correctly handles malformed HTML common on the web
//  2. Provides a proper DOM-like structure
//  3. More maintainable than complex regex patterns
type Parser struct {
	// baseURL is the URL of the page being parsed, used for resolving
	// relative URLs.
	baseURL *url.URL
}

// ParseResult contains all information extracted from an HTML page.
//
// Design decision: We return a comprehensive result struct rather than
// multiple methods because a single parsing pass is cheaper and the caller
// can pick what it needs.
type ParseResult struct {
	// Title is the page title from the <title> tag.
	Title string

	// Links contains all discovered URLs, resolved to absolute form.
	Links []string

	// InternalLinks are links on the same host as the base URL.
	InternalLinks []string

	// Forms contains the HTML forms found on the page.
	Forms []model.Form

	// Images contains image sources, resolved to absolute form.
	Images []string

	// Endpoints are API endpoints hinted at by forms, links, and inline
	// scripts.
	Endpoints []model.APIEndpoint
}

// NewParser creates a parser that resolves relative URLs against baseURL.
func NewParser(baseURL string) (*Parser, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	return &Parser{baseURL: u}, nil
}

// Parse parses HTML content and extracts links, forms, images, and API
// endpoint hints. The contentType is used to decode non-UTF-8 documents.
func (p *Parser) Parse(content io.Reader, contentType string) (*ParseResult, error) {
	reader, err := charset.NewReader(content, contentType)
	if err != nil {
		return nil, err
	}

	doc, err := html.Parse(reader)
	if err != nil {
		return nil, err
	}

	result := &ParseResult{
		Links:         make([]string, 0),
		InternalLinks: make([]string, 0),
		Forms:         make([]model.Form, 0),
		Images:        make([]string, 0),
		Endpoints:     make([]model.APIEndpoint, 0),
	}

	var scriptText strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			p.processElement(n, result, &scriptText)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	p.extractScriptEndpoints(scriptText.String(), result)
	result.Endpoints = dedupeEndpoints(result.Endpoints)

	return result, nil
}

// processElement handles a single HTML element node.
func (p *Parser) processElement(n *html.Node, result *ParseResult, scriptText *strings.Builder) {
	switch n.Data {
	case "title":
		if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
			result.Title = strings.TrimSpace(n.FirstChild.Data)
		}

	case "a":
		if href := getAttr(n, "href"); href != "" {
			resolved := p.resolveURL(href)
			if resolved == "" {
				return
			}
			result.Links = append(result.Links, resolved)
			if p.isInternal(resolved) {
				result.InternalLinks = append(result.InternalLinks, resolved)
				p.extractLinkEndpoint(resolved, result)
			}
		}

	case "form":
		form := model.Form{
			Action: p.resolveURL(getAttr(n, "action")),
			Method: strings.ToUpper(getAttr(n, "method")),
			Inputs: make([]model.FormInput, 0),
		}
		if form.Method == "" {
			form.Method = "GET"
		}
		if form.Action == "" {
			form.Action = p.baseURL.String()
		}
		p.extractFormInputs(n, &form)
		result.Forms = append(result.Forms, form)
		p.extractFormEndpoint(form, result)

	case "img":
		if src := getAttr(n, "src"); src != "" {
			if resolved := p.resolveURL(src); resolved != "" {
				result.Images = append(result.Images, resolved)
			}
		}

	case "script":
		if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
			scriptText.WriteString(n.FirstChild.Data)
			scriptText.WriteString("\n")
		}
	}
}

// extractFormInputs recursively collects input fields from a form element.
func (p *Parser) extractFormInputs(n *html.Node, form *model.Form) {
	if n.Type == html.ElementNode &&
		(n.Data == htmlElementInput || n.Data == htmlElementSelect || n.Data == htmlElementTextarea) {
		input := model.FormInput{
			Name:  getAttr(n, "name"),
			Type:  getAttr(n, "type"),
			Value: getAttr(n, "value"),
		}
		if input.Type == "" {
			switch n.Data {
			case htmlElementTextarea:
				input.Type = htmlElementTextarea
			case htmlElementSelect:
				input.Type = htmlElementSelect
			default:
				input.Type = "text"
			}
		}
		if input.Name != "" {
			form.Inputs = append(form.Inputs, input)
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.extractFormInputs(c, form)
	}
}

// apiPathRegex recognizes URL paths that look like API endpoints.
var apiPathRegex = regexp.MustCompile(`(?i)(^|/)(api|graphql|rest|v[0-9]+)(/|$)`)

// scriptEndpointRegex finds quoted absolute paths inside inline scripts,
// typically fetch() or XHR targets.
var scriptEndpointRegex = regexp.MustCompile(`["'](/[A-Za-z0-9_./\-]*(?:api|graphql|v[0-9]+)[A-Za-z0-9_./\-]*)["']`)

// extractFormEndpoint records a form whose action looks like an API call.
func (p *Parser) extractFormEndpoint(form model.Form, result *ParseResult) {
	u, err := url.Parse(form.Action)
	if err != nil || !apiPathRegex.MatchString(u.Path) {
		return
	}

	params := make([]string, 0, len(form.Inputs))
	for _, input := range form.Inputs {
		params = append(params, input.Name)
	}

	result.Endpoints = append(result.Endpoints, model.APIEndpoint{
		Method:        form.Method,
		Path:          u.Path,
		Parameters:    params,
		DiscoveredVia: "form",
	})
}

// extractLinkEndpoint records a link whose path looks like an API call.
func (p *Parser) extractLinkEndpoint(link string, result *ParseResult) {
	u, err := url.Parse(link)
	if err != nil || !apiPathRegex.MatchString(u.Path) {
		return
	}

	params := make([]string, 0)
	for name := range u.Query() {
		params = append(params, name)
	}

	result.Endpoints = append(result.Endpoints, model.APIEndpoint{
		Method:        "GET",
		Path:          u.Path,
		Parameters:    params,
		DiscoveredVia: "link",
	})
}

// extractScriptEndpoints scans inline script text for API-looking paths.
func (p *Parser) extractScriptEndpoints(text string, result *ParseResult) {
	for _, match := range scriptEndpointRegex.FindAllStringSubmatch(text, -1) {
		result.Endpoints = append(result.Endpoints, model.APIEndpoint{
			Method:        "GET",
			Path:          match[1],
			DiscoveredVia: "script",
		})
	}
}

// dedupeEndpoints removes duplicate endpoints, keeping first occurrences.
func dedupeEndpoints(endpoints []model.APIEndpoint) []model.APIEndpoint {
	seen := make(map[string]bool, len(endpoints))
	unique := endpoints[:0]
	for _, ep := range endpoints {
		key := ep.Method + " " + ep.Path
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, ep)
	}
	return unique
}

// resolveURL resolves a relative URL against the base URL. Non-navigable
// schemes (javascript:, mailto:, data:) resolve to the empty string.
func (p *Parser) resolveURL(href string) string {
	href = strings.TrimSpace(href)
	if href == "" ||
		strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:") ||
		href == "#" {
		return ""
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return p.baseURL.ResolveReference(u).String()
}

// isInternal reports whether the link points at the base URL's host.
func (p *Parser) isInternal(link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return strings.EqualFold(u.Host, p.baseURL.Host) ||
		strings.EqualFold(u.Hostname(), p.baseURL.Hostname())
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
