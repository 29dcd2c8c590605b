// Package progress maintains the per-item completion ledger. Every write is
// an idempotent upsert keyed by (author, permlink): $set refreshes the
// volatile fields, $setOnInsert pins the immutable ones, so re-recording a
// finished sub-task converges instead of duplicating.
//
// The ledger doubles as the cursor source: the legacy backlog bound is the
// maximum video_created_at ever recorded, so restarts resume from durable
// state with no separate checkpoint document.
package progress
