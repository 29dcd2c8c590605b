package scheduler

import (
	"context"
	"time"

	"subgen/internal/media"
	"subgen/internal/priority"
)

// Catalog supplies backlog candidates and resolves individual items.
type Catalog interface {
	ItemsSince(ctx context.Context, legacySince, embedSince time.Time) []media.Item
	Find(ctx context.Context, owner, permlink string) (*media.Item, error)
}

// Lane hands out priority requests in FIFO order.
type Lane interface {
	DequeueNext(ctx context.Context) (*priority.Request, error)
}

// Guard answers the exclusion question.
type Guard interface {
	IsBlocked(ctx context.Context, author, permlink string) bool
}

// Beacon publishes the currently-processing item.
type Beacon interface {
	Set(ctx context.Context, item media.Item) error
	Clear(ctx context.Context) error
}

// Progress is the per-item completion ledger.
type Progress interface {
	Completed(ctx context.Context, owner, permlink string) ([]string, error)
	RecordSubTask(ctx context.Context, item media.Item, lang, artifactRef string) error
	RecordDuration(ctx context.Context, owner, permlink string, processing, videoDuration time.Duration, detectedLang string) error
	SaveTags(ctx context.Context, owner, permlink string, tags []string) error
	LastSourceCreatedAt(ctx context.Context) (time.Time, error)
	Forget(ctx context.Context, owner, permlink string) error
}

// Job is the shared state an Executor carries between Prepare and the
// per-language Execute calls.
type Job interface {
	DetectedLanguage() string
	MediaDuration() time.Duration
	Tags() []string
}

// Executor runs the media pipeline for one item.
type Executor interface {
	Prepare(ctx context.Context, item media.Item) (Job, error)
	Execute(ctx context.Context, job Job, lang string) (string, error)
	Cleanup(job Job)
}

// Notifier receives best-effort milestone notifications.
type Notifier interface {
	NotifyItemCompleted(ctx context.Context, author, permlink string, subtitles int) error
	NotifyItemFailed(ctx context.Context, author, permlink string, cause error) error
}

// Stats counts what the loop has done since start.
type Stats struct {
	PassesCompleted int64     `json:"passes_completed"`
	ItemsProcessed  int64     `json:"items_processed"`
	ItemsSkipped    int64     `json:"items_skipped"`
	ItemsFailed     int64     `json:"items_failed"`
	SubTasksDone    int64     `json:"sub_tasks_done"`
	PriorityServed  int64     `json:"priority_served"`
	LastPassAt      time.Time `json:"last_pass_at"`
}

// BatchResult summarizes a single pass.
type BatchResult struct {
	Candidates int
	Processed  int
	Skipped    int
	Failed     int
}
