// Package store provides the key-value backends records are persisted in.
//
// Every backend implements Store: Get, Put with a TTL, and Delete, keyed by
// the canonical identity string. Writes replace prior values and reset
// their expiry; expired keys read as absent.
//
// Backends:
//
//   - MemoryStore: process-local map, lazy expiry plus DeleteExpired
//   - RedisStore: Redis with native key expiry
//   - PostgresStore: one row per key with an expires_at column, lazy expiry
//     plus DeleteExpired
//   - S3Store: one object per key, logical expiry from object metadata
package store
