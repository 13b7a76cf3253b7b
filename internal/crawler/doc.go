// Package crawler discovers the structure of a target website.
//
// The Crawler performs a bounded breadth-first traversal starting from the
// target URL, staying on the target's host and honoring depth, page-count,
// and URL-pattern limits. Every visited URL produces a page record, even
// when the fetch fails, so downstream modules can reason about broken
// pages too. HTML parsing (links, forms, API endpoint hints) lives in the
// Parser so assessment modules can reuse it on cached page bodies.
package crawler
