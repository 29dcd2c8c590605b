// Package tagging is the client for the zero-shot topic classifier. Tagging
// is decorative: failures fall back to a default label set and never fail
// the item.
package tagging
