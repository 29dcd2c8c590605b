// Package services defines the error taxonomy shared by every component that
// talks to an external collaborator (document store, inference tools, IPFS).
//
// Errors are tagged with sentinel markers so the scheduler and the admin API
// can classify them without string matching: transient store faults degrade to
// empty results, validation failures skip the candidate without retry, and
// conflict/not-found surface verbatim to administrative callers.
package services
