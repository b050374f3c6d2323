// Package store provides SQLite-backed durable storage for condition state.
//
// The store holds two tables:
//   - conditions: one row per condition name (activation counter, activation
//     limit, version baseline)
//   - journal: append-only history of state changes, ordered by seq
//
// # Write Discipline
//
// Every mutating call is scoped to a single condition name. The row upsert
// and its journal entry are written in one transaction, so a failed write
// leaves neither behind. There are no multi-name transactions.
//
// # Single Writer
//
// The database file sits next to a lock file. Open takes a non-blocking
// exclusive lock on it; a second process opening the same directory fails
// instead of interleaving writes.
//
// # Database Configuration
//
//   - WAL mode
//   - synchronous=FULL: a successful Save survives power loss
//   - busy_timeout=5000
//   - foreign_keys=ON
package store
