// Package store provides SQLite-backed history for rpnmath sessions.
//
// The store is an append-only log with:
//   - Sessions: one row per REPL or eval session, with its variable policy
//   - Evaluations: one row per evaluated program, success or failure
//
// # Ordering
//
// Evaluations are ordered by their logical seq within a session
// (ORDER BY seq ASC, id ASC COLLATE BINARY), never by timestamps.
//
// # Identity
//
// Evaluation ids are content-addressed (ir.EvaluationID) from the session,
// seq and program hash, so writing the same evaluation twice is a no-op.
//
// # Filters
//
// QueryEvaluations takes a sealed Predicate (Equals, And) compiled to a
// WHERE clause over a fixed set of field names; values are always bound
// as parameters.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
