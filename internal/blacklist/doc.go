// Package blacklist answers the exclusion question for the scheduler and
// exposes the admin mutations behind it. A store failure degrades to "not
// blocked" so the pipeline keeps moving; at worst an item is processed that
// an operator wanted skipped, which is recoverable.
package blacklist
