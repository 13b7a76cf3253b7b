package model

import "strings"

// Severity represents the risk level of a finding.
// This allows categorizing findings by their potential impact on the
// assessed site.
//
// Design decision: We use iota-based constants rather than string constants
// for efficiency in comparisons and sorting. The String() method provides
// human-readable output when needed.
type Severity int

const (
	// SeverityInfo indicates informational findings with no direct impact.
	// Examples: discovered API endpoints, a missing sitemap.
	SeverityInfo Severity = iota

	// SeverityLow indicates minor issues with limited impact.
	// Examples: missing cache headers, images without alt text.
	SeverityLow

	// SeverityMedium indicates moderate issues that warrant attention.
	// Examples: missing security headers, forms without CSRF tokens.
	SeverityMedium

	// SeverityHigh indicates serious issues that should be fixed promptly.
	// Examples: directory listings, cookies without the Secure flag on HTTPS.
	SeverityHigh

	// SeverityCritical indicates severe issues requiring immediate action.
	// Examples: password forms submitted over plain HTTP.
	SeverityCritical
)

// String returns a human-readable representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// ParseSeverity converts a severity name (case-insensitive) to a Severity.
// Unknown names map to SeverityInfo, the lowest level, so that a typo in
// configuration never silently raises the reported risk.
func ParseSeverity(name string) Severity {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "CRITICAL":
		return SeverityCritical
	case "HIGH":
		return SeverityHigh
	case "MEDIUM":
		return SeverityMedium
	case "LOW":
		return SeverityLow
	default:
		return SeverityInfo
	}
}

// FindingInfo contains metadata about a finding type including severity,
// impact description, and remediation recommendation.
type FindingInfo struct {
	Severity       Severity
	Impact         string
	Recommendation string
}

// findingInfoMapping maps finding types to their metadata.
// This centralized mapping ensures consistent risk assessment across all
// test modules.
//
// Design decision: We use a map rather than embedding severity in each
// module because:
//  1. It allows updating risk assessments without modifying module logic
//  2. It provides a single source of truth for risk levels
//  3. It makes it easy to generate severity documentation
var findingInfoMapping = map[string]FindingInfo{
	// CRITICAL
	"password_form_over_http": {
		Severity:       SeverityCritical,
		Impact:         "Credentials submitted through this form travel in cleartext and can be intercepted by anyone on the network path.",
		Recommendation: "Serve the page and the form action over HTTPS and redirect all HTTP traffic.",
	},

	// HIGH
	"directory_listing": {
		Severity:       SeverityHigh,
		Impact:         "Directory listings expose file names and internal structure, often including backups and configuration files.",
		Recommendation: "Disable automatic directory indexing in the web server configuration.",
	},
	"cookie_missing_secure": {
		Severity:       SeverityHigh,
		Impact:         "Cookies without the Secure flag are sent over plain HTTP and can be stolen by network attackers.",
		Recommendation: "Set the Secure attribute on all cookies served over HTTPS.",
	},
	"mixed_content": {
		Severity:       SeverityHigh,
		Impact:         "Resources loaded over HTTP on an HTTPS page can be tampered with, undermining the page's transport security.",
		Recommendation: "Load all sub-resources over HTTPS or protocol-relative URLs.",
	},
	"exif_gps": {
		Severity:       SeverityHigh,
		Impact:         "An image published on the site contains GPS coordinates in its EXIF metadata, revealing where it was taken.",
		Recommendation: "Strip EXIF metadata from all images before publishing.",
	},
	"exif_author": {
		Severity:       SeverityHigh,
		Impact:         "An image contains author or copyright EXIF fields that can identify the person who created it.",
		Recommendation: "Strip EXIF metadata from all images before publishing.",
	},

	// MEDIUM
	"missing_csp": {
		Severity:       SeverityMedium,
		Impact:         "Without a Content-Security-Policy header, injected scripts execute without restriction.",
		Recommendation: "Define a restrictive Content-Security-Policy header.",
	},
	"missing_x_frame_options": {
		Severity:       SeverityMedium,
		Impact:         "Missing X-Frame-Options allows the page to be framed, enabling clickjacking attacks.",
		Recommendation: "Add X-Frame-Options: DENY or SAMEORIGIN, or use the frame-ancestors CSP directive.",
	},
	"missing_hsts": {
		Severity:       SeverityMedium,
		Impact:         "Without Strict-Transport-Security, browsers may be downgraded to plain HTTP on subsequent visits.",
		Recommendation: "Add a Strict-Transport-Security header with a long max-age.",
	},
	"missing_x_content_type_options": {
		Severity:       SeverityMedium,
		Impact:         "Without X-Content-Type-Options, browsers may MIME-sniff responses into executable types.",
		Recommendation: "Add X-Content-Type-Options: nosniff.",
	},
	"cookie_missing_httponly": {
		Severity:       SeverityMedium,
		Impact:         "Cookies readable from JavaScript can be exfiltrated by cross-site scripting.",
		Recommendation: "Set the HttpOnly attribute on session cookies.",
	},
	"server_version": {
		Severity:       SeverityMedium,
		Impact:         "Server version disclosure helps attackers identify vulnerable software.",
		Recommendation: "Configure the server to hide version information in headers.",
	},
	"x_powered_by": {
		Severity:       SeverityMedium,
		Impact:         "X-Powered-By reveals the technology stack, enabling targeted attacks.",
		Recommendation: "Remove or suppress the X-Powered-By header.",
	},
	"form_missing_csrf": {
		Severity:       SeverityMedium,
		Impact:         "State-changing forms without an anti-CSRF token can be submitted by attacker-controlled pages.",
		Recommendation: "Include a per-session CSRF token in every state-changing form.",
	},
	"api_unauthenticated": {
		Severity:       SeverityMedium,
		Impact:         "An API endpoint responded with data to an unauthenticated request.",
		Recommendation: "Require authentication on all non-public API endpoints.",
	},
	"api_verbose_error": {
		Severity:       SeverityMedium,
		Impact:         "Verbose error bodies expose stack traces or internal paths useful to attackers.",
		Recommendation: "Return generic error messages and log details server-side only.",
	},
	"cors_wildcard": {
		Severity:       SeverityMedium,
		Impact:         "Access-Control-Allow-Origin: * allows any site to read this response from a visitor's browser.",
		Recommendation: "Restrict CORS to an explicit allow-list of origins.",
	},
	"broken_internal_link": {
		Severity:       SeverityMedium,
		Impact:         "Internal links resolving to error pages degrade user experience and crawlability.",
		Recommendation: "Fix or remove links that point to failing pages.",
	},

	// LOW
	"missing_compression": {
		Severity:       SeverityLow,
		Impact:         "Uncompressed text responses waste bandwidth and slow page loads.",
		Recommendation: "Enable gzip or brotli compression for text content types.",
	},
	"missing_cache_headers": {
		Severity:       SeverityLow,
		Impact:         "Static assets without cache headers are re-downloaded on every visit.",
		Recommendation: "Add Cache-Control headers with a long max-age for static assets.",
	},
	"large_page": {
		Severity:       SeverityLow,
		Impact:         "Very large pages load slowly, especially on mobile connections.",
		Recommendation: "Reduce page weight by optimizing images and deferring non-critical resources.",
	},
	"excessive_resources": {
		Severity:       SeverityLow,
		Impact:         "A high number of scripts and stylesheets increases load time and attack surface.",
		Recommendation: "Bundle or remove unnecessary script and stylesheet references.",
	},
	"image_missing_alt": {
		Severity:       SeverityLow,
		Impact:         "Images without alt text are invisible to screen reader users.",
		Recommendation: "Add descriptive alt attributes to all meaningful images.",
	},
	"missing_lang_attribute": {
		Severity:       SeverityLow,
		Impact:         "Without a lang attribute, assistive technology cannot select the correct pronunciation rules.",
		Recommendation: "Set the lang attribute on the html element.",
	},
	"form_input_missing_label": {
		Severity:       SeverityLow,
		Impact:         "Form inputs without labels are difficult to use with assistive technology.",
		Recommendation: "Associate every visible input with a label element or aria-label.",
	},
	"heading_structure": {
		Severity:       SeverityLow,
		Impact:         "Skipped heading levels make the document outline confusing for screen reader navigation.",
		Recommendation: "Use heading levels in order without skipping.",
	},
	"missing_title": {
		Severity:       SeverityLow,
		Impact:         "Pages without a title are poorly ranked and hard to identify in search results and tabs.",
		Recommendation: "Add a unique, descriptive title element to every page.",
	},
	"duplicate_title": {
		Severity:       SeverityLow,
		Impact:         "Multiple pages sharing one title compete with each other in search rankings.",
		Recommendation: "Give each page a unique title describing its content.",
	},
	"missing_meta_description": {
		Severity:       SeverityLow,
		Impact:         "Without a meta description, search engines generate their own snippet, often poorly.",
		Recommendation: "Add a meta description summarizing the page in under 160 characters.",
	},
	"missing_canonical": {
		Severity:       SeverityLow,
		Impact:         "Without a canonical link, duplicate URLs split ranking signals between variants.",
		Recommendation: "Add a rel=canonical link pointing at the preferred URL.",
	},
	"exif_serial": {
		Severity:       SeverityLow,
		Impact:         "A device serial number in image EXIF data uniquely identifies the camera across photos.",
		Recommendation: "Strip EXIF metadata from all images before publishing.",
	},

	// INFO
	"api_endpoint": {
		Severity:       SeverityInfo,
		Impact:         "An API endpoint was discovered on the site. Endpoints enlarge the attack surface.",
		Recommendation: "Review whether the endpoint should be publicly reachable.",
	},
	"missing_robots_txt": {
		Severity:       SeverityInfo,
		Impact:         "Without robots.txt, crawlers receive no crawl guidance for the site.",
		Recommendation: "Provide a robots.txt describing crawlable paths.",
	},
	"missing_sitemap": {
		Severity:       SeverityInfo,
		Impact:         "Without a sitemap, search engines may miss deeper pages.",
		Recommendation: "Publish a sitemap.xml and reference it from robots.txt.",
	},
	"form_detected": {
		Severity:       SeverityInfo,
		Impact:         "A form accepts user input. Input should be validated server-side.",
		Recommendation: "Ensure server-side validation and CSRF protection for this form.",
	},
}

// GetSeverity returns the severity level for a finding type.
// Returns SeverityInfo if the finding type is not in the mapping.
func GetSeverity(findingType string) Severity {
	if info, ok := findingInfoMapping[findingType]; ok {
		return info.Severity
	}
	return SeverityInfo
}

// GetFindingInfo returns the full finding information for a finding type.
// Returns a default FindingInfo with SeverityInfo if the type is unknown.
func GetFindingInfo(findingType string) FindingInfo {
	if info, ok := findingInfoMapping[findingType]; ok {
		return info
	}
	return FindingInfo{
		Severity:       SeverityInfo,
		Impact:         "No impact information is available for this finding type.",
		Recommendation: "Review the finding manually.",
	}
}
