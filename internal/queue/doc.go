// Package queue persists deferred workout mutations in SQLite and exposes
// helpers for driving their lifecycle.
//
// The Store manages database connections, schema initialization, FIFO
// selection for drain passes, status transitions, retry accounting, and the
// client → server ID map built as creation mutations succeed. The in-memory
// syncing flag serializes drain passes process-wide; it is never persisted,
// so a restart always begins idle.
//
// Treat this package as the single source of truth for queue semantics; when
// you add new mutation types or columns, update schema.sql and bump
// schemaVersion.
package queue
