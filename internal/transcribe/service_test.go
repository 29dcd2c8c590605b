package transcribe_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"subgen/internal/config"
	"subgen/internal/transcribe"
)

func writePayload(t *testing.T, dir, base, lang string, texts ...string) {
	t.Helper()
	type seg struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	}
	payload := struct {
		Language string `json:"language"`
		Segments []seg  `json:"segments"`
	}{Language: lang}
	for i, text := range texts {
		payload.Segments = append(payload.Segments, seg{Start: float64(i), End: float64(i) + 1, Text: text})
	}
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, base+".json"), data, 0o644); err != nil {
		t.Fatalf("write payload: %v", err)
	}
}

func TestTranscribeParsesRecognizerOutput(t *testing.T) {
	dir := t.TempDir()
	svc := transcribe.NewService(config.Whisper{Binary: "whisper-ctranslate2", Model: "base"})
	svc.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		writePayload(t, dir, "clip", "es", " Hola ", "mundo")
		return nil
	})

	result, err := svc.Transcribe(context.Background(), filepath.Join(dir, "clip.mp4"), dir, nil)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if result.Language != "es" {
		t.Fatalf("detected language = %q, want es", result.Language)
	}
	if got := result.Text(); got != "Hola mundo" {
		t.Fatalf("text = %q", got)
	}
}

func TestTranscribeRerunsUnsupportedLanguageAsEnglish(t *testing.T) {
	dir := t.TempDir()
	svc := transcribe.NewService(config.Whisper{Binary: "whisper-ctranslate2", Model: "base"})

	var calls [][]string
	svc.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		calls = append(calls, args)
		lang := "xx"
		if len(calls) > 1 {
			lang = "en"
		}
		writePayload(t, dir, "clip", lang, "hello")
		return nil
	})

	result, err := svc.Transcribe(context.Background(), filepath.Join(dir, "clip.mp4"), dir, nil)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if len(calls) != 2 {
		t.Fatalf("recognizer invoked %d times, want 2", len(calls))
	}
	forced := strings.Join(calls[1], " ")
	if !strings.Contains(forced, "--language en") {
		t.Fatalf("second run not forced to English: %v", calls[1])
	}
	if result.Language != "en" {
		t.Fatalf("language = %q, want en", result.Language)
	}
}

func TestTranscribePassesHotwordPrompt(t *testing.T) {
	dir := t.TempDir()
	svc := transcribe.NewService(config.Whisper{Binary: "whisper-ctranslate2", Model: "base"})

	var captured []string
	svc.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		captured = args
		writePayload(t, dir, "clip", "en", "hello")
		return nil
	})

	_, err := svc.Transcribe(context.Background(), filepath.Join(dir, "clip.mp4"), dir, []string{"Hive", "3Speak"})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	joined := strings.Join(captured, "|")
	if !strings.Contains(joined, "--initial_prompt|Hive, 3Speak") {
		t.Fatalf("hotword prompt missing from args: %v", captured)
	}
}

func TestTranscribeFailsOnEmptyOutput(t *testing.T) {
	dir := t.TempDir()
	svc := transcribe.NewService(config.Whisper{Binary: "whisper-ctranslate2", Model: "base"})
	svc.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		writePayload(t, dir, "clip", "en")
		return nil
	})

	if _, err := svc.Transcribe(context.Background(), filepath.Join(dir, "clip.mp4"), dir, nil); err == nil {
		t.Fatal("expected error for empty segment list")
	}
}
