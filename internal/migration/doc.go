// Package migration provides the client that migration scripts use to
// rewrite live document collections, and a runner that executes registered
// migrations in order while blocking startup. Every write through the client
// clears the touched documents' content hashes so the indexing pipeline knows
// to revisit them. IMPORTANT: migrations _must_ be written to be idempotent,
// and we should prefer non-destructive updates in order to allow rollbacks.
package migration
