// Package subtitle renders timed cues to SRT, validates the result, and
// applies the operator correction lexicon to cue text.
package subtitle
