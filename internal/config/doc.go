// Package config loads and validates the TOML configuration.
//
// Load applies three passes: decode over Default(), Normalize (path
// expansion, trimming, defaulting), then Validate. Collection names are
// configurable but default to the platform's established names; changing
// them on a live deployment orphans the cursor and resume state, so the
// defaults should stand outside of tests.
package config
