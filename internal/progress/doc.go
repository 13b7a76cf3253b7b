// Package progress aggregates live scan progress for display.
//
// The Tracker is updated concurrently by the crawler and the module
// runner and read by whoever renders progress. Snapshot returns a
// consistent value copy; Subscribe delivers snapshots on a channel with
// a non-blocking send, so a slow consumer can never stall the scan.
package progress
