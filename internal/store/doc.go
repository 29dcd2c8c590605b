// Package store manages the MongoDB connection and the named collection
// handles the capability packages build on.
//
// No cross-collection transactions are used anywhere; cross-process
// coordination relies on atomic single-document operations (FindOneAndDelete
// for the priority pop, ReplaceOne-with-upsert for the status beacon).
package store
