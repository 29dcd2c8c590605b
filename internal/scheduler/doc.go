// Package scheduler drives the processing loop: drain the priority lane,
// scan the merged backlog from the durable cursor, and run each candidate
// through the per-language pipeline, recording every finished track
// immediately so a crash costs at most one language of work.
package scheduler
