// Package daemon ties the scheduler, the store, and the admin API into a
// single lifecycle with flock-based locking to prevent multiple instances
// from sharing one work directory.
package daemon
