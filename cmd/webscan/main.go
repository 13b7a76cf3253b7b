// Package main provides the entry point for the webscan CLI.
//
// webscan crawls a website and assesses it for security, performance,
// SEO, accessibility, and API exposure problems.
//
// Usage:
//
//	webscan scan https://example.com
//	webscan cache clear
//
// See --help for all available options.
package main

// main is the entry point for webscan.
func main() {
	Execute()
}
