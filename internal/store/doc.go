// Package store is the SQLite run log.
//
// A recorded run is a circuit description, the stimulus applied to it and
// every event the engine processed, together with the final net values and
// a digest of the trace. Runs are written by a Recorder in one transaction
// when the run finishes and are never updated afterwards, so a run can be
// replayed later and its digest compared.
//
// # Ordering
//
// Runs are listed by their logical sequence number (runs.seq); events are
// read by their queue sequence number. Wall clock time is never stored.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Digests are canonical JSON hashed with SHA-256 under a domain prefix; see
// internal/canonical.
package store
