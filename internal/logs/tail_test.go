package logs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeLog(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
}

func appendLog(t *testing.T, path, content string) {
	t.Helper()
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	defer file.Close()
	if _, err := file.WriteString(content); err != nil {
		t.Fatalf("append log: %v", err)
	}
}

func TestTailReturnsTrailingLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subgen.log")
	writeLog(t, path, "one\ntwo\nthree\nfour\nfive\n")

	result, err := Tail(context.Background(), path, TailOptions{Offset: -1, Limit: 3})
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}
	want := []string{"three", "four", "five"}
	if len(result.Lines) != len(want) {
		t.Fatalf("expected %d lines, got %v", len(want), result.Lines)
	}
	for i, line := range want {
		if result.Lines[i] != line {
			t.Fatalf("line %d: expected %q, got %q", i, line, result.Lines[i])
		}
	}
	if result.Offset == 0 {
		t.Fatal("expected non-zero resume offset")
	}
}

func TestTailResumesFromOffset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subgen.log")
	writeLog(t, path, "one\ntwo\n")

	first, err := Tail(context.Background(), path, TailOptions{Offset: -1, Limit: 10})
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}
	appendLog(t, path, "three\n")

	second, err := Tail(context.Background(), path, TailOptions{Offset: first.Offset})
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}
	if len(second.Lines) != 1 || second.Lines[0] != "three" {
		t.Fatalf("expected only the appended line, got %v", second.Lines)
	}
	if second.Offset <= first.Offset {
		t.Fatal("expected offset to advance")
	}
}

func TestTailMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subgen.log")

	result, err := Tail(context.Background(), path, TailOptions{Offset: -1, Limit: 5})
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}
	if len(result.Lines) != 0 || result.Offset != 0 {
		t.Fatalf("expected empty result, got %+v", result)
	}
}

func TestTailWaitsForNewLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subgen.log")
	writeLog(t, path, "old\n")

	initial, err := Tail(context.Background(), path, TailOptions{Offset: -1})
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}

	go func() {
		time.Sleep(300 * time.Millisecond)
		appendLog(t, path, "fresh\n")
	}()

	result, err := Tail(context.Background(), path, TailOptions{Offset: initial.Offset, Wait: 3 * time.Second})
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}
	if len(result.Lines) != 1 || result.Lines[0] != "fresh" {
		t.Fatalf("expected the appended line, got %v", result.Lines)
	}
}

func TestTailOffsetPastEnd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subgen.log")
	writeLog(t, path, "one\n")

	result, err := Tail(context.Background(), path, TailOptions{Offset: 4096})
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}
	if len(result.Lines) != 0 {
		t.Fatalf("expected no lines past truncated end, got %v", result.Lines)
	}
	if result.Offset != 4 {
		t.Fatalf("expected offset clamped to file size, got %d", result.Offset)
	}
}
