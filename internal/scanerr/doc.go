// Package scanerr defines the closed error taxonomy used across the
// scanner core.
//
// Design decision: We represent failures as a single structured Error type
// tagged with a Kind rather than a hierarchy of distinct error types
// because:
//  1. Callers dispatch on the failure class, not on concrete types
//  2. errors.As against one type plus a Kind check is simpler than a
//     type switch over many
//  3. New failure details can be added without new types
//
// Propagation policy: configuration errors are fatal before the scan
// starts; a network error is fatal only when it prevents reaching the seed
// URL; rate-limit errors trigger backoff, never abort; module errors are
// isolated to the failing module. Everything non-fatal is captured as data
// (a page's error status, a failed module result) so no failure is ever
// silently dropped.
package scanerr
