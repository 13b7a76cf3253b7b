// Package fetch provides the cached, rate-limited HTTP client used by the
// crawler and the assessment modules.
//
// The Fetcher is the single path to the network: it injects authentication
// and the configured User-Agent, consults the response cache before going
// out, throttles requests per host, bounds response body sizes, and
// classifies transport failures into the error taxonomy so callers can
// branch on error kind instead of string matching.
package fetch
