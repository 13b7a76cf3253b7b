// Package config defines the validated configuration object consumed by
// the scan orchestrator, along with defaults and the optional per-site
// overrides file.
//
// The core treats the Config as already resolved: CLI parsing and any
// templating happen outside, in cmd or in an embedding application.
// Validate() is the boundary check that turns a malformed Config into a
// configuration error before any scanning begins.
package config
