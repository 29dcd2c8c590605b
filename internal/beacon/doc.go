// Package beacon publishes the singleton "currently processing" document
// that external dashboards poll. Set replaces whatever is there; Clear
// deletes everything. Both operations converge the collection to at most
// one document even if a previous run crashed mid-item.
package beacon
