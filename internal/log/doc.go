// Package log provides a sanitizing slog handler for the scanner.
//
// Scans may carry credentials (basic auth, bearer tokens, session cookies)
// in their configuration and requests. The SanitizingHandler masks such
// values before they reach the underlying handler, so debug logging can be
// enabled safely during authenticated scans.
package log
