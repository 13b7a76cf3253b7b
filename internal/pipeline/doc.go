// Package pipeline executes assessment modules against crawled site data.
//
// A Module inspects the crawl output and produces findings. The Runner
// executes registered modules with bounded concurrency, isolates failures
// (an error or panic in one module never affects the others), and returns
// one result per module in registration order so reports are stable
// between runs.
package pipeline
