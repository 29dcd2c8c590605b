// Package transcribe runs the external speech recognizer over downloaded
// media and parses its JSON output into timed segments.
package transcribe
