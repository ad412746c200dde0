// Package store provides a SQLite-backed journal of harness runs.
//
// The journal is append-only and holds what scenario runs observed:
//   - Runs: one row per scenario execution
//   - Observations: each value a listener received, in delivery order
//
// The engine never reads the journal back. It exists for tracing and for
// comparing runs after the fact.
//
// # Ordering
//
// Observations carry a per-run seq assigned by the harness. All reads use
// ORDER BY seq ASC; wall-clock time is never stored or used.
//
// # Idempotency
//
// UNIQUE(run_id, seq) makes observation writes safe to retry.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
