// Package pipeline turns one WorkItem into per-language subtitle artifacts.
// Prepare does the expensive shared work once (fetch, transcribe, tag);
// Execute renders and publishes a single language track from that shared
// state; Cleanup releases the scratch space.
package pipeline
