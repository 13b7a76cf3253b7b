// Package model defines the core data structures shared across the scanner:
// crawled pages, findings, module results, and the final scan result.
//
// Design decision: All result types live in one package rather than next to
// the components that produce them because:
//  1. Every component and every reporter needs these types
//  2. It prevents import cycles between crawler, pipeline, and orchestrator
//  3. It keeps serialization concerns (JSON tags) in one place
//
// Values in this package are plain data. Once a Finding is emitted or a
// CrawledPage is appended to a scan result, it is never mutated again;
// aggregate state (counters, summaries) is computed by the orchestrator.
package model
