package subtitle_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"subgen/internal/subtitle"
)

func TestWriteAndParseRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "en.srt")
	cues := []subtitle.Cue{
		{Start: 0, End: 1.5, Text: "Hello there"},
		{Start: 1.5, End: 4.25, Text: "General greeting"},
	}
	if err := subtitle.WriteSRT(path, cues); err != nil {
		t.Fatalf("WriteSRT: %v", err)
	}

	parsed, err := subtitle.ParseSRT(path)
	if err != nil {
		t.Fatalf("ParseSRT: %v", err)
	}
	if len(parsed) != 2 {
		t.Fatalf("parsed %d cues", len(parsed))
	}
	if parsed[1].Text != "General greeting" {
		t.Fatalf("cue text = %q", parsed[1].Text)
	}
	if parsed[1].Start != 1.5 || parsed[1].End != 4.25 {
		t.Fatalf("cue timing = %v-%v", parsed[1].Start, parsed[1].End)
	}
}

func TestWriteSRTFormatsTimestamps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "en.srt")
	cues := []subtitle.Cue{{Start: 3661.5, End: 3662, Text: "over an hour in"}}
	if err := subtitle.WriteSRT(path, cues); err != nil {
		t.Fatalf("WriteSRT: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), "01:01:01,500 --> 01:01:02,000") {
		t.Fatalf("timestamp formatting wrong:\n%s", data)
	}
}

func TestWriteSRTRejectsEmpty(t *testing.T) {
	if err := subtitle.WriteSRT(filepath.Join(t.TempDir(), "en.srt"), nil); err == nil {
		t.Fatal("expected error for empty cue list")
	}
}

func TestValidateFlagsDurationMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "en.srt")
	cues := []subtitle.Cue{{Start: 0, End: 500, Text: "way past the end"}}
	if err := subtitle.WriteSRT(path, cues); err != nil {
		t.Fatalf("WriteSRT: %v", err)
	}
	issues := subtitle.Validate(path, 60)
	if len(issues) == 0 {
		t.Fatal("expected duration mismatch issue")
	}
}

func TestValidateCleanFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "en.srt")
	cues := []subtitle.Cue{{Start: 0, End: 2, Text: "fine"}}
	if err := subtitle.WriteSRT(path, cues); err != nil {
		t.Fatalf("WriteSRT: %v", err)
	}
	if issues := subtitle.Validate(path, 60); len(issues) != 0 {
		t.Fatalf("unexpected issues: %v", issues)
	}
}

func TestApplyCorrections(t *testing.T) {
	cues := []subtitle.Cue{
		{Start: 0, End: 1, Text: "Welcome to the hyve community."},
		{Start: 1, End: 2, Text: "Hyve is growing!"},
	}
	rules := []subtitle.Replacement{{From: "hyve", To: "hive"}}
	got := subtitle.ApplyCorrections(cues, rules)
	if got[0].Text != "Welcome to the hive community." {
		t.Fatalf("cue 0 = %q", got[0].Text)
	}
	if got[1].Text != "Hive is growing!" {
		t.Fatalf("cue 1 = %q", got[1].Text)
	}
}
