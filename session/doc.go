// Package session provides the persisted credential slot used by goAuthClient.
//
// A [Store] holds at most one bearer token for one API origin. Backends are an
// in-memory slot ([MemoryStore]), a JSON file per origin ([FileStore]) and a Redis key
// per origin ([RedisStore]). All backends are last-write-wins and Clear is idempotent.
//
// # Architecture boundaries
//
// This package owns token persistence only. It does NOT inspect token contents, track
// expiry, or decide when a token must be discarded. Those decisions belong to the
// Client (401 handling) and the guard package (validation probes).
//
// # What this package must NOT do
//
//   - Import goAuthClient or guard (no upward imports).
//   - Validate token shape or attach a TTL to a stored token.
//   - Share a slot between different origins.
package session
