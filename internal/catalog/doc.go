// Package catalog merges the three heterogeneous backlog collections into
// one time-ordered candidate stream for the scheduler.
//
// Lookup failures never propagate: a degraded store yields an empty batch
// (logged) and the scheduler simply finds work on a later pass.
package catalog
