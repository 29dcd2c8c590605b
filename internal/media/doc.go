// Package media defines the normalized WorkItem and the adapters that build
// it from the three raw source document shapes.
//
// The three source collections name the same concepts differently (legacy
// uses filename/created, embed uses manifest_cid/createdAt, audio uses
// audio_cid/createdAt). Adapters normalize at the aggregation boundary so
// nothing downstream branches on raw field names.
package media
