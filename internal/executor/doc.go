// Package executor dispatches queued mutations to their remote operations.
//
// Each mutation type maps to exactly one Operations call. Before invoking it,
// the executor resolves any client-generated IDs in the payload through the
// store's ID map; for creation operations it records the returned server ID
// back into the map so later mutations in the same offline session resolve
// correctly. Set logging is guarded by a remote existence check because the
// insert is not naturally idempotent.
package executor
