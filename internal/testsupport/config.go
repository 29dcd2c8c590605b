// Package testsupport provides test configuration and in-memory doubles for
// the store-backed collaborators.
package testsupport

import (
	"path/filepath"
	"testing"

	"subgen/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.WorkDir = filepath.Join(base, "work")
	cfg.Paths.SubtitleDir = filepath.Join(base, "subtitles")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Workflow.ItemDelaySeconds = 0
	cfg.Workflow.PollIntervalSeconds = 1
	cfg.Cache.Enabled = false
	cfg.Cache.Dir = filepath.Join(base, "cache")

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithLanguages overrides the target language list.
func WithLanguages(codes ...string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Languages = cfg.Languages[:0]
		for _, code := range codes {
			cfg.Languages = append(cfg.Languages, config.Language{Code: code})
		}
	}
}

// WithProcessOnly restricts processing to a single owner/permlink pair.
func WithProcessOnly(key string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Workflow.ProcessOnly = key
	}
}
