package model

import (
	"testing"
	"time"
)

// TestNewScanResult tests scan result initialization.
func TestNewScanResult(t *testing.T) {
	t.Parallel()

	r := NewScanResult("https://example.com")

	if r.ID == "" {
		t.Error("expected non-empty scan ID")
	}
	if r.Status != ScanStatusRunning {
		t.Errorf("expected status running, got %q", r.Status)
	}
	if r.TargetURL != "https://example.com" {
		t.Errorf("unexpected target URL %q", r.TargetURL)
	}
	if r.StartedAt.IsZero() {
		t.Error("expected StartedAt to be set")
	}

	// Two results must never share an ID.
	other := NewScanResult("https://example.com")
	if other.ID == r.ID {
		t.Error("expected unique scan IDs")
	}
}

// TestScanResultFinalize tests summary computation on finalization.
func TestScanResultFinalize(t *testing.T) {
	t.Parallel()

	r := NewScanResult("https://example.com")
	r.CrawledPages = []*CrawledPage{
		{URL: "https://example.com/", StatusCode: 200, Forms: []Form{{Action: "/login", Method: "POST"}}},
		{URL: "https://example.com/about", StatusCode: 404},
	}
	r.Endpoints = []APIEndpoint{{Method: "GET", Path: "/api/users", DiscoveredVia: "link"}}
	r.ModuleResults = []ModuleResult{
		{
			ModuleName: "security",
			Status:     ModuleStatusCompleted,
			Findings: []Finding{
				NewFinding("missing_csp", "Missing Content-Security-Policy", "", "https://example.com/"),
				NewFinding("directory_listing", "Directory listing enabled", "Index of /", "https://example.com/files/"),
			},
		},
		{ModuleName: "seo", Status: ModuleStatusFailed, ErrorMessage: "boom"},
		{ModuleName: "api", Status: ModuleStatusSkipped},
	}

	r.Finalize(ScanStatusCompleted)

	if r.Status != ScanStatusCompleted {
		t.Errorf("expected status completed, got %q", r.Status)
	}
	if r.Duration <= 0 {
		t.Error("expected positive duration")
	}

	s := r.Summary
	if s.TotalFindings != 2 {
		t.Errorf("expected 2 total findings, got %d", s.TotalFindings)
	}
	if s.PagesCrawled != 2 {
		t.Errorf("expected 2 pages crawled, got %d", s.PagesCrawled)
	}
	if s.FormsFound != 1 {
		t.Errorf("expected 1 form, got %d", s.FormsFound)
	}
	if s.EndpointsFound != 1 {
		t.Errorf("expected 1 endpoint, got %d", s.EndpointsFound)
	}
	if s.ModulesCompleted != 1 || s.ModulesFailed != 1 || s.ModulesSkipped != 1 {
		t.Errorf("unexpected module counts: %+v", s)
	}
	if s.BySeverity["MEDIUM"] != 1 || s.BySeverity["HIGH"] != 1 {
		t.Errorf("unexpected severity counts: %v", s.BySeverity)
	}

	// The summary total must equal the sum of per-module finding counts.
	sum := 0
	for _, mr := range r.ModuleResults {
		sum += len(mr.Findings)
	}
	if s.TotalFindings != sum {
		t.Errorf("summary total %d does not match per-module sum %d", s.TotalFindings, sum)
	}
}

// TestNewFinding tests that findings pick up central metadata.
func TestNewFinding(t *testing.T) {
	t.Parallel()

	f := NewFinding("mixed_content", "Mixed content", "http://example.com/app.js", "https://example.com/")

	if f.Severity != SeverityHigh {
		t.Errorf("expected HIGH severity, got %v", f.Severity)
	}
	if f.SeverityText != "HIGH" {
		t.Errorf("expected severity text HIGH, got %q", f.SeverityText)
	}
	if f.Description == "" || f.Remediation == "" {
		t.Error("expected description and remediation from finding metadata")
	}
}

// TestCrawledPageHelpers tests the page convenience methods.
func TestCrawledPageHelpers(t *testing.T) {
	t.Parallel()

	p := &CrawledPage{
		URL:         "https://example.com/",
		StatusCode:  200,
		ContentType: "text/html; charset=utf-8",
		FetchedAt:   time.Now(),
		Headers:     map[string][]string{"Server": {"nginx/1.24"}},
	}

	if !p.IsHTML() {
		t.Error("expected IsHTML to be true")
	}
	if !p.Succeeded() {
		t.Error("expected Succeeded to be true")
	}
	if got := p.Header("Server"); got != "nginx/1.24" {
		t.Errorf("Header(Server) = %q", got)
	}
	if got := p.Header("X-Missing"); got != "" {
		t.Errorf("expected empty value for missing header, got %q", got)
	}

	failed := &CrawledPage{URL: "https://example.com/broken", FetchError: "connection refused"}
	if failed.Succeeded() {
		t.Error("expected Succeeded to be false for failed fetch")
	}
	if failed.IsHTML() {
		t.Error("expected IsHTML to be false without content type")
	}
}
