package pipeline_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"subgen/internal/config"
	"subgen/internal/lexicon"
	"subgen/internal/logging"
	"subgen/internal/media"
	"subgen/internal/pipeline"
	"subgen/internal/subtitle"
	"subgen/internal/transcribe"
)

type fakeFetcher struct {
	fetches int
}

func (f *fakeFetcher) FetchMedia(ctx context.Context, item media.Item, workDir string) (string, error) {
	f.fetches++
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(workDir, "source.mp4")
	return path, os.WriteFile(path, []byte("media"), 0o644)
}

func (f *fakeFetcher) Duration(ctx context.Context, path string) (time.Duration, error) {
	return 90 * time.Second, nil
}

type fakeTranscriber struct{ result transcribe.Result }

func (f *fakeTranscriber) Transcribe(ctx context.Context, source, outputDir string, hotwords []string) (transcribe.Result, error) {
	return f.result, nil
}

type fakeTranslator struct{ calls int }

func (f *fakeTranslator) Translate(ctx context.Context, texts []string, sourceLang, targetLang string) ([]string, error) {
	f.calls++
	out := make([]string, len(texts))
	for i, text := range texts {
		out[i] = targetLang + ":" + text
	}
	return out, nil
}

type fakeTagger struct{}

func (fakeTagger) Tags(ctx context.Context, transcript string) []string {
	return []string{"music"}
}

type fakePublisher struct{ added []string }

func (f *fakePublisher) Add(ctx context.Context, path string) (string, error) {
	f.added = append(f.added, path)
	return "QmArtifact", nil
}

type fakeVocabulary struct{ rules []lexicon.Correction }

func (fakeVocabulary) Hotwords(ctx context.Context) []string { return nil }
func (f fakeVocabulary) Corrections(ctx context.Context) []lexicon.Correction {
	return f.rules
}

type fakeCache struct {
	entries map[string]string
}

func (f *fakeCache) Lookup(ctx context.Context, cid string) (string, bool) {
	path, ok := f.entries[cid]
	return path, ok
}

func (f *fakeCache) Store(ctx context.Context, cid, sourcePath string) error {
	if f.entries == nil {
		f.entries = make(map[string]string)
	}
	f.entries[cid] = sourcePath
	return nil
}

func newExecutor(t *testing.T, fetcher *fakeFetcher, translator *fakeTranslator, publisher *fakePublisher, cache *fakeCache) *pipeline.Executor {
	t.Helper()
	cfg := config.Default()
	base := t.TempDir()
	cfg.Paths.WorkDir = filepath.Join(base, "work")
	cfg.Paths.SubtitleDir = filepath.Join(base, "subtitles")
	cfg.Workflow.KeepLocalSubtitles = true
	transcriber := &fakeTranscriber{result: transcribe.Result{
		Language: "en",
		Segments: []transcribe.Segment{
			{Start: 0, End: 1, Text: "hello world"},
			{Start: 1, End: 2, Text: "good bye"},
		},
	}}
	return pipeline.NewExecutor(&cfg, fetcher, transcriber, translator, fakeTagger{}, publisher, fakeVocabulary{}, cache, logging.NewNop())
}

func testItem() media.Item {
	return media.Item{
		Owner:      "alice",
		Permlink:   "my-video",
		Source:     media.SourceLegacy,
		ContentRef: "QmSource",
		CreatedAt:  time.Now().UTC(),
	}
}

func TestExecuteDetectedLanguageSkipsTranslation(t *testing.T) {
	fetcher := &fakeFetcher{}
	translator := &fakeTranslator{}
	publisher := &fakePublisher{}
	exec := newExecutor(t, fetcher, translator, publisher, &fakeCache{})

	job, err := exec.Prepare(context.Background(), testItem())
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if job.DetectedLanguage() != "en" {
		t.Fatalf("detected = %q", job.DetectedLanguage())
	}

	ref, err := exec.Execute(context.Background(), job, "en")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if ref != "QmArtifact" {
		t.Fatalf("ref = %q", ref)
	}
	if translator.calls != 0 {
		t.Fatalf("translator called %d times for detected language", translator.calls)
	}
}

func TestExecuteTranslatesOtherLanguages(t *testing.T) {
	fetcher := &fakeFetcher{}
	translator := &fakeTranslator{}
	publisher := &fakePublisher{}
	exec := newExecutor(t, fetcher, translator, publisher, &fakeCache{})

	job, err := exec.Prepare(context.Background(), testItem())
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if _, err := exec.Execute(context.Background(), job, "es"); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if translator.calls != 1 {
		t.Fatalf("translator calls = %d", translator.calls)
	}

	cues, err := subtitle.ParseSRT(publisher.added[0])
	if err != nil {
		t.Fatalf("parse artifact: %v", err)
	}
	if cues[0].Text != "es:hello world" {
		t.Fatalf("translated cue = %q", cues[0].Text)
	}
}

func TestPrepareUsesMediaCache(t *testing.T) {
	fetcher := &fakeFetcher{}
	cache := &fakeCache{}
	exec := newExecutor(t, fetcher, &fakeTranslator{}, &fakePublisher{}, cache)
	ctx := context.Background()

	if _, err := exec.Prepare(ctx, testItem()); err != nil {
		t.Fatalf("first Prepare: %v", err)
	}
	if _, err := exec.Prepare(ctx, testItem()); err != nil {
		t.Fatalf("second Prepare: %v", err)
	}
	if fetcher.fetches != 1 {
		t.Fatalf("fetches = %d, want 1 (second run should hit cache)", fetcher.fetches)
	}
}

func TestPrepareCollectsTags(t *testing.T) {
	exec := newExecutor(t, &fakeFetcher{}, &fakeTranslator{}, &fakePublisher{}, &fakeCache{})
	job, err := exec.Prepare(context.Background(), testItem())
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if tags := job.Tags(); len(tags) != 1 || tags[0] != "music" {
		t.Fatalf("tags = %v", tags)
	}
}
