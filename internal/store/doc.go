// Package store persists invocation traces in SQLite.
//
// Two tables:
//   - invocations: one row per Invoke call (group, spec hash, resolved
//     order, status)
//   - steps: every body entering and leaving, keyed by (invocation_id, seq)
//
// # Ordering
//
// All ordering uses seq INTEGER (logical clock), never timestamps. Every
// query includes ORDER BY seq ASC, id COLLATE BINARY ASC (or the step
// equivalent), so identical databases list identically.
//
// # Idempotency
//
// Writing an invocation whose id already exists is a no-op, steps
// included. A trace can be re-imported safely.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Steps must reference an invocation
package store
