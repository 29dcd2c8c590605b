package subtitle

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"subgen/internal/textutil"
)

// Cue is one subtitle entry.
type Cue struct {
	Start float64
	End   float64
	Text  string
}

// PathFor returns the canonical artifact path for an item's language track.
// Owner and permlink come from upstream documents, so both are sanitized
// before use as path segments.
func PathFor(dir, owner, permlink, lang string) string {
	return filepath.Join(dir,
		textutil.SanitizeToken(owner),
		textutil.SanitizeToken(permlink),
		textutil.SanitizeToken(lang)+".srt",
	)
}

// WriteSRT renders cues to path in SRT format, creating parent directories.
func WriteSRT(path string, cues []Cue) error {
	if len(cues) == 0 {
		return fmt.Errorf("write srt: no cues")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("write srt: ensure dir: %w", err)
	}

	var b strings.Builder
	for i, cue := range cues {
		fmt.Fprintf(&b, "%d\n", i+1)
		fmt.Fprintf(&b, "%s --> %s\n", formatTimestamp(cue.Start), formatTimestamp(cue.End))
		b.WriteString(strings.TrimSpace(cue.Text))
		b.WriteString("\n\n")
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write srt: %w", err)
	}
	return nil
}

// ParseSRT reads cues back from an SRT file.
func ParseSRT(path string) ([]Cue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read srt: %w", err)
	}
	blocks := strings.Split(strings.ReplaceAll(strings.TrimSpace(string(data)), "\r\n", "\n"), "\n\n")

	var cues []Cue
	for _, block := range blocks {
		lines := strings.Split(strings.TrimSpace(block), "\n")
		if len(lines) < 2 {
			continue
		}
		// lines[0] is the index; the timing line may follow it.
		timing := lines[1]
		textStart := 2
		if !strings.Contains(timing, "-->") {
			timing = lines[0]
			textStart = 1
		}
		parts := strings.Split(timing, "-->")
		if len(parts) != 2 {
			continue
		}
		start, errStart := parseTimestamp(parts[0])
		end, errEnd := parseTimestamp(parts[1])
		if errStart != nil || errEnd != nil {
			continue
		}
		if textStart > len(lines) {
			continue
		}
		cues = append(cues, Cue{
			Start: start,
			End:   end,
			Text:  strings.TrimSpace(strings.Join(lines[textStart:], "\n")),
		})
	}
	return cues, nil
}

func formatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	millis := int(seconds*1000 + 0.5)
	h := millis / 3600000
	millis %= 3600000
	m := millis / 60000
	millis %= 60000
	s := millis / 1000
	ms := millis % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

func parseTimestamp(value string) (float64, error) {
	value = strings.TrimSpace(value)
	value = strings.ReplaceAll(value, ".", ",")
	timeParts := strings.Split(value, ",")
	if len(timeParts) != 2 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(timeParts[0], ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	seconds, errS := strconv.Atoi(hms[2])
	millis, errMS := strconv.Atoi(timeParts[1])
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	return float64(hours*3600+minutes*60+seconds) + float64(millis)/1000, nil
}

// Validate checks an SRT file for format issues. Returns the issues found;
// an empty slice means the file passed.
func Validate(path string, videoSeconds float64) []string {
	var issues []string

	cues, err := ParseSRT(path)
	if err != nil {
		issues = append(issues, fmt.Sprintf("read_error: %v", err))
		return issues
	}
	if len(cues) == 0 {
		issues = append(issues, "empty_subtitle_file")
		return issues
	}

	var last float64
	for _, cue := range cues {
		if cue.End > last {
			last = cue.End
		}
		if cue.End < cue.Start {
			issues = append(issues, fmt.Sprintf("negative_cue_duration: start=%.1fs", cue.Start))
		}
	}
	if videoSeconds > 0 && last > videoSeconds+30 {
		issues = append(issues, fmt.Sprintf("duration_mismatch: last_cue=%.1fs video=%.1fs", last, videoSeconds))
	}
	return issues
}
