// Package scan orchestrates a full website assessment.
//
// The Scanner wires the pieces together: it validates the configuration,
// opens the response cache, crawls the target, collects discovered API
// endpoints, runs the assessment modules, and assembles the final
// ScanResult. Progress flows into an optional Tracker so callers can
// render live status.
package scan
