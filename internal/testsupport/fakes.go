package testsupport

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"subgen/internal/media"
	"subgen/internal/priority"
	"subgen/internal/scheduler"
	"subgen/internal/services"
)

// FakeCatalog serves a fixed item set.
type FakeCatalog struct {
	mu    sync.Mutex
	Items []media.Item
}

func (f *FakeCatalog) ItemsSince(ctx context.Context, legacySince, embedSince time.Time) []media.Item {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []media.Item
	for _, item := range f.Items {
		since := legacySince
		if item.IsEmbed() {
			since = embedSince
		}
		if since.IsZero() || !item.CreatedAt.Before(since) {
			out = append(out, item)
		}
	}
	return out
}

func (f *FakeCatalog) Find(ctx context.Context, owner, permlink string) (*media.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, item := range f.Items {
		if item.Owner == owner && item.Permlink == permlink {
			found := item
			return &found, nil
		}
	}
	return nil, services.Wrap(services.ErrNotFound, "catalog", "find", owner+"/"+permlink+" not in any source", nil)
}

// FakeLane is a strict in-memory FIFO.
type FakeLane struct {
	mu       sync.Mutex
	requests []priority.Request
}

func (f *FakeLane) Push(author, permlink string, reprocess bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, priority.Request{
		ID:          primitive.NewObjectID(),
		Author:      author,
		Permlink:    permlink,
		RequestedAt: time.Now().UTC(),
		Reprocess:   reprocess,
	})
}

func (f *FakeLane) DequeueNext(ctx context.Context) (*priority.Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return nil, nil
	}
	req := f.requests[0]
	f.requests = f.requests[1:]
	return &req, nil
}

func (f *FakeLane) Size() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

// FakeGuard blocks an explicit set of keys.
type FakeGuard struct {
	mu      sync.Mutex
	Blocked map[string]bool
}

func (f *FakeGuard) Block(owner, permlink string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Blocked == nil {
		f.Blocked = make(map[string]bool)
	}
	f.Blocked[owner+"/"+permlink] = true
}

func (f *FakeGuard) IsBlocked(ctx context.Context, author, permlink string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Blocked[author+"/"+permlink]
}

// FakeBeacon keeps at most one status, like the singleton collection.
type FakeBeacon struct {
	mu      sync.Mutex
	current *media.Item
	Sets    int
	Clears  int
}

func (f *FakeBeacon) Set(ctx context.Context, item media.Item) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := item
	f.current = &copied
	f.Sets++
	return nil
}

func (f *FakeBeacon) Clear(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = nil
	f.Clears++
	return nil
}

func (f *FakeBeacon) Current() *media.Item {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

type ledgerEntry struct {
	item      media.Item
	subtitles map[string]string
	tags      []string
}

// FakeLedger mirrors the upsert semantics of the progress store: recording
// a sub-task creates the entry on first write and only ever adds language
// slots after that.
type FakeLedger struct {
	mu      sync.Mutex
	entries map[string]*ledgerEntry
}

func (f *FakeLedger) entry(item media.Item) *ledgerEntry {
	if f.entries == nil {
		f.entries = make(map[string]*ledgerEntry)
	}
	key := item.Key()
	entry, ok := f.entries[key]
	if !ok {
		entry = &ledgerEntry{item: item, subtitles: make(map[string]string)}
		f.entries[key] = entry
	}
	return entry
}

func (f *FakeLedger) Completed(ctx context.Context, owner, permlink string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry, ok := f.entries[owner+"/"+permlink]
	if !ok {
		return nil, nil
	}
	codes := make([]string, 0, len(entry.subtitles))
	for code := range entry.subtitles {
		codes = append(codes, code)
	}
	return codes, nil
}

func (f *FakeLedger) RecordSubTask(ctx context.Context, item media.Item, lang, artifactRef string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entry(item).subtitles[lang] = artifactRef
	return nil
}

func (f *FakeLedger) RecordDuration(ctx context.Context, owner, permlink string, processing, videoDuration time.Duration, detectedLang string) error {
	return nil
}

func (f *FakeLedger) SaveTags(ctx context.Context, owner, permlink string, tags []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if entry, ok := f.entries[owner+"/"+permlink]; ok {
		entry.tags = tags
	} else {
		f.entry(media.Item{Owner: owner, Permlink: permlink}).tags = tags
	}
	return nil
}

func (f *FakeLedger) LastSourceCreatedAt(ctx context.Context) (time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest time.Time
	for _, entry := range f.entries {
		if entry.item.CreatedAt.After(latest) {
			latest = entry.item.CreatedAt
		}
	}
	return latest, nil
}

func (f *FakeLedger) Forget(ctx context.Context, owner, permlink string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, owner+"/"+permlink)
	return nil
}

// Subtitles returns the recorded language map for an item.
func (f *FakeLedger) Subtitles(owner, permlink string) map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry, ok := f.entries[owner+"/"+permlink]
	if !ok {
		return nil
	}
	out := make(map[string]string, len(entry.subtitles))
	for code, ref := range entry.subtitles {
		out[code] = ref
	}
	return out
}

// Tags returns the saved tags for an item.
func (f *FakeLedger) Tags(owner, permlink string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if entry, ok := f.entries[owner+"/"+permlink]; ok {
		return append([]string(nil), entry.tags...)
	}
	return nil
}

// FakeJob is a minimal scheduler.Job.
type FakeJob struct {
	Lang     string
	Duration time.Duration
	TagList  []string
}

func (j FakeJob) DetectedLanguage() string     { return j.Lang }
func (j FakeJob) MediaDuration() time.Duration { return j.Duration }
func (j FakeJob) Tags() []string               { return j.TagList }

// FakeExecutor records calls and can be told to fail.
type FakeExecutor struct {
	mu          sync.Mutex
	Job         FakeJob
	PrepareErr  error
	ExecuteErr  map[string]error
	Prepares    []string
	Executes    []string
	Cleanups    int
	ExecuteHook func(lang string)
}

func (f *FakeExecutor) Prepare(ctx context.Context, item media.Item) (scheduler.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Prepares = append(f.Prepares, item.Key())
	if f.PrepareErr != nil {
		return nil, f.PrepareErr
	}
	return f.Job, nil
}

func (f *FakeExecutor) Execute(ctx context.Context, job scheduler.Job, lang string) (string, error) {
	f.mu.Lock()
	hook := f.ExecuteHook
	f.Executes = append(f.Executes, lang)
	err := f.ExecuteErr[lang]
	f.mu.Unlock()
	if hook != nil {
		hook(lang)
	}
	if err != nil {
		return "", err
	}
	return "Qm" + lang, nil
}

func (f *FakeExecutor) Cleanup(job scheduler.Job) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Cleanups++
}

// ExecutedLanguages returns the Execute call order.
func (f *FakeExecutor) ExecutedLanguages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.Executes...)
}

// PrepareCount returns how many items were prepared.
func (f *FakeExecutor) PrepareCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Prepares)
}
