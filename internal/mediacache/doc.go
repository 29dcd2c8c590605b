// Package mediacache keeps downloaded source media on disk between passes
// so a reprocess or a retried item skips the gateway fetch. The index lives
// in SQLite; eviction is least-recently-used down to the configured size
// budget.
package mediacache
