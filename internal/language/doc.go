// Package language enumerates the language codes subtitle sub-tasks may be
// keyed by. Progress records map language code to artifact, so the set of
// valid keys is closed here rather than accepting arbitrary strings.
package language
