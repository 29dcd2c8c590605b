package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"subgen/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func minimalConfig(t *testing.T) string {
	t.Helper()
	return writeConfig(t, `
[mongo]
uri = "mongodb://localhost:27017"

[[languages]]
code = "en"
`)
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := config.Load(minimalConfig(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Mongo.Database != "threespeak" {
		t.Fatalf("expected default database, got %q", cfg.Mongo.Database)
	}
	if cfg.Mongo.Collections.Priority != "subtitles-priority" {
		t.Fatalf("expected default priority collection, got %q", cfg.Mongo.Collections.Priority)
	}
	if cfg.Workflow.PollIntervalSeconds != 300 {
		t.Fatalf("expected default poll interval, got %d", cfg.Workflow.PollIntervalSeconds)
	}
	if _, ok := cfg.StartDate(); ok {
		t.Fatal("start date should be unset by default")
	}
}

func TestLoadRejectsMissingURI(t *testing.T) {
	path := writeConfig(t, `
[[languages]]
code = "en"
`)
	_, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "mongo.uri") {
		t.Fatalf("expected mongo.uri error, got %v", err)
	}
}

func TestLoadRejectsUnknownLanguage(t *testing.T) {
	path := writeConfig(t, `
[mongo]
uri = "mongodb://localhost:27017"

[[languages]]
code = "xx"
`)
	_, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "unsupported code") {
		t.Fatalf("expected unsupported language error, got %v", err)
	}
}

func TestStartDateParsing(t *testing.T) {
	path := writeConfig(t, `
[mongo]
uri = "mongodb://localhost:27017"

[[languages]]
code = "en"

[workflow]
start_date = "2024-06-01"
`)
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	start, ok := cfg.StartDate()
	if !ok {
		t.Fatal("expected start date to be set")
	}
	want := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	if !start.Equal(want) {
		t.Fatalf("start date = %v, want %v", start, want)
	}
}

func TestStartDateRejectsBadFormat(t *testing.T) {
	path := writeConfig(t, `
[mongo]
uri = "mongodb://localhost:27017"

[[languages]]
code = "en"

[workflow]
start_date = "June 1 2024"
`)
	if _, err := config.Load(path); err == nil {
		t.Fatal("expected parse error for malformed start_date")
	}
}

func TestEligibleLanguagesHonorsDurationCeiling(t *testing.T) {
	cfg := config.Default()
	cfg.Languages = []config.Language{
		{Code: "en"},
		{Code: "es", MaxDurationMinutes: 30},
		{Code: "de", MaxDurationMinutes: 90},
	}

	got := cfg.EligibleLanguages(45 * time.Minute)
	want := []string{"en", "de"}
	if len(got) != len(want) {
		t.Fatalf("eligible = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("eligible = %v, want %v", got, want)
		}
	}
}

func TestGatewayNormalization(t *testing.T) {
	path := writeConfig(t, `
[mongo]
uri = "mongodb://localhost:27017"

[[languages]]
code = "en"

[ipfs]
gateways = ["https://gw.example.com", "  "]
`)
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.IPFS.Gateways) != 1 {
		t.Fatalf("expected blank gateways dropped, got %v", cfg.IPFS.Gateways)
	}
	if cfg.IPFS.Gateways[0] != "https://gw.example.com/" {
		t.Fatalf("expected trailing slash, got %q", cfg.IPFS.Gateways[0])
	}
}

func TestRemotePinRequiresPinning(t *testing.T) {
	path := writeConfig(t, `
[mongo]
uri = "mongodb://localhost:27017"

[[languages]]
code = "en"

[workflow]
remote_pin = true
pin_subtitles = false
`)
	_, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "remote_pin requires pin_subtitles") {
		t.Fatalf("expected remote_pin validation error, got %v", err)
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := config.WriteSample(path); err != nil {
		t.Fatalf("WriteSample: %v", err)
	}
	if err := config.WriteSample(path); err == nil {
		t.Fatal("expected refusal to overwrite existing config")
	}
}
