// Package cache provides the two-tier response cache that makes repeated
// scanning cheap.
//
// # Architecture
//
//   - Fingerprint: a normalized request identity used as the cache key
//   - MemoryCache: a bounded in-process tier with oldest-created eviction
//   - SQLiteCache: an optional persistent tier that survives restarts
//   - Manager: composes the tiers behind one Get/Set/Clear/Stats contract
//
// Lookup order is memory first, then the persistent tier; a persistent hit
// is promoted into memory. Writes go to memory synchronously and to the
// persistent tier best-effort: any persistent-tier failure degrades the
// cache to in-memory operation without failing the caller.
//
// Design decision: Eviction in the bounded tier removes the single
// oldest-created entry rather than tracking recency of access, because:
//  1. Entries are typically re-fetched within their TTL rather than
//     re-read many times, so LRU bookkeeping buys little
//  2. A creation-time scan keeps reads free of any write locking
//  3. The tier is small, so the O(n) scan on insert is negligible
package cache
