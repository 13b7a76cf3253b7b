package model

import (
	"time"

	"github.com/google/uuid"
)

// ScanStatus represents the lifecycle state of a scan.
type ScanStatus string

const (
	// ScanStatusRunning indicates the scan is in progress.
	ScanStatusRunning ScanStatus = "running"

	// ScanStatusCompleted indicates the scan finished without a fatal error.
	// Individual pages or modules may still have failed.
	ScanStatusCompleted ScanStatus = "completed"

	// ScanStatusFailed indicates a fatal error aborted the scan.
	ScanStatusFailed ScanStatus = "failed"

	// ScanStatusCancelled indicates the scan was cancelled by the user.
	ScanStatusCancelled ScanStatus = "cancelled"
)

// ModuleStatus represents the outcome of a single module execution.
type ModuleStatus string

const (
	// ModuleStatusCompleted indicates the module ran to completion.
	ModuleStatusCompleted ModuleStatus = "completed"

	// ModuleStatusFailed indicates the module raised an unexpected error.
	// A failed module never aborts the scan or its sibling modules.
	ModuleStatusFailed ModuleStatus = "failed"

	// ModuleStatusSkipped indicates the module did not run, either because
	// it was disabled or because the scan was cancelled before it started.
	ModuleStatusSkipped ModuleStatus = "skipped"
)

// Finding is a single reported issue with severity and evidence.
// Findings are immutable once emitted by a module.
type Finding struct {
	// Type is the machine-readable finding type (e.g. "missing_csp").
	Type string `json:"type"`

	// Category is the module category that produced the finding
	// (security, performance, seo, accessibility, api, functional, metadata).
	Category string `json:"category"`

	// Title is a short human-readable summary.
	Title string `json:"title"`

	// Description explains the issue and its impact.
	Description string `json:"description"`

	// Severity is the classified risk level.
	Severity Severity `json:"severity"`

	// SeverityText is the string form of Severity for serialization.
	SeverityText string `json:"severity_text"`

	// Evidence is the concrete observation supporting the finding
	// (header value, HTML fragment, EXIF tag, ...).
	Evidence string `json:"evidence,omitempty"`

	// AffectedURL is the URL the finding applies to.
	AffectedURL string `json:"affected_url"`

	// Remediation is the recommended fix.
	Remediation string `json:"remediation,omitempty"`
}

// NewFinding creates a Finding of the given type, filling severity,
// description, and remediation from the central finding metadata.
// Callers set Category before or after; modules typically stamp it
// once for all of their findings.
func NewFinding(findingType, title, evidence, affectedURL string) Finding {
	info := GetFindingInfo(findingType)
	return Finding{
		Type:         findingType,
		Title:        title,
		Description:  info.Impact,
		Severity:     info.Severity,
		SeverityText: info.Severity.String(),
		Evidence:     evidence,
		AffectedURL:  affectedURL,
		Remediation:  info.Recommendation,
	}
}

// ModuleResult holds the outcome of one executed module.
// It is created when the module starts and finalized when it ends;
// after handoff to the orchestrator it is never mutated.
type ModuleResult struct {
	// ModuleName is the registered module name.
	ModuleName string `json:"module_name"`

	// Category is the module category.
	Category string `json:"category"`

	// Status is the execution outcome.
	Status ModuleStatus `json:"status"`

	// Findings contains the findings the module emitted.
	// Empty for failed and skipped modules.
	Findings []Finding `json:"findings"`

	// Duration is the module's wall-clock execution time.
	Duration time.Duration `json:"duration"`

	// ErrorMessage describes why a failed module failed.
	ErrorMessage string `json:"error,omitempty"`
}

// Summary holds aggregate counts for a completed scan.
// The orchestrator guarantees TotalFindings equals the sum of the
// per-module finding counts before the result is returned.
type Summary struct {
	// TotalFindings is the number of findings across all modules.
	TotalFindings int `json:"total_findings"`

	// BySeverity maps severity names (CRITICAL, HIGH, ...) to counts.
	BySeverity map[string]int `json:"by_severity"`

	// PagesCrawled is the number of pages recorded during the crawl,
	// including pages that failed to fetch.
	PagesCrawled int `json:"pages_crawled"`

	// FormsFound is the number of forms discovered across all pages.
	FormsFound int `json:"forms_found"`

	// EndpointsFound is the number of API endpoints discovered.
	EndpointsFound int `json:"endpoints_found"`

	// ModulesCompleted, ModulesFailed, and ModulesSkipped count module
	// outcomes by status.
	ModulesCompleted int `json:"modules_completed"`
	ModulesFailed    int `json:"modules_failed"`
	ModulesSkipped   int `json:"modules_skipped"`
}

// ScanResult is the final result of a scan.
// It is owned and mutated exclusively by the orchestrator for the
// duration of the scan; modules hand their results over and never
// touch them again.
type ScanResult struct {
	// ID uniquely identifies this scan run.
	ID string `json:"id"`

	// TargetURL is the seed URL the scan was started with.
	TargetURL string `json:"target_url"`

	// Status is the scan lifecycle state.
	Status ScanStatus `json:"status"`

	// CrawledPages contains every page recorded during the crawl.
	CrawledPages []*CrawledPage `json:"crawled_pages"`

	// Endpoints contains the API endpoints discovered during the crawl.
	Endpoints []APIEndpoint `json:"endpoints,omitempty"`

	// ModuleResults contains one entry per executed module, in
	// registration order.
	ModuleResults []ModuleResult `json:"module_results"`

	// Summary holds aggregate counts, populated on finalization.
	Summary Summary `json:"summary"`

	// StartedAt is when the scan began.
	StartedAt time.Time `json:"started_at"`

	// Duration is the total scan wall-clock time, set on finalization.
	Duration time.Duration `json:"duration"`

	// ErrorMessage describes the fatal error for failed scans.
	ErrorMessage string `json:"error,omitempty"`
}

// NewScanResult creates a ScanResult in the running state.
func NewScanResult(targetURL string) *ScanResult {
	return &ScanResult{
		ID:            uuid.NewString(),
		TargetURL:     targetURL,
		Status:        ScanStatusRunning,
		CrawledPages:  make([]*CrawledPage, 0),
		ModuleResults: make([]ModuleResult, 0),
		StartedAt:     time.Now(),
	}
}

// Finalize sets the terminal status, computes the duration, and fills
// the summary from the accumulated pages and module results.
func (r *ScanResult) Finalize(status ScanStatus) {
	r.Status = status
	r.Duration = time.Since(r.StartedAt)
	r.Summary = r.computeSummary()
}

// computeSummary derives the aggregate counts from the result contents.
// It is recomputed from scratch rather than maintained incrementally so
// the invariant "summary equals the sum of its parts" holds by construction.
func (r *ScanResult) computeSummary() Summary {
	s := Summary{
		BySeverity:     make(map[string]int),
		PagesCrawled:   len(r.CrawledPages),
		EndpointsFound: len(r.Endpoints),
	}
	for _, p := range r.CrawledPages {
		s.FormsFound += len(p.Forms)
	}
	for _, mr := range r.ModuleResults {
		switch mr.Status {
		case ModuleStatusCompleted:
			s.ModulesCompleted++
		case ModuleStatusFailed:
			s.ModulesFailed++
		case ModuleStatusSkipped:
			s.ModulesSkipped++
		}
		s.TotalFindings += len(mr.Findings)
		for _, f := range mr.Findings {
			s.BySeverity[f.Severity.String()]++
		}
	}
	return s
}
