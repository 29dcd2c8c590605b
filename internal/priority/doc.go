// Package priority implements the administrative override lane: a strict
// FIFO queue whose pop is a single atomic find-and-delete, so a concurrent
// administrative cancel can never race a dequeue into double delivery.
package priority
