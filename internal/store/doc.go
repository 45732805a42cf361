// Package store provides the durable key/value backends behind the chart
// collection and the chart configuration.
//
// Each key holds one JSON document that is replaced wholesale on every
// write; durable state is last-writer-wins across processes.
//
// # Backends
//
//   - SQLite (default): single-file database in WAL mode
//   - Postgres: shared database for server deployments
//   - Memory: process-local map with an optional byte quota, used by tests
//     and to reproduce quota-exceeded write failures
//
// # SQLite Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
package store
