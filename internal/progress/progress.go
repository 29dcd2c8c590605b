package progress

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"subgen/internal/logging"
	"subgen/internal/media"
	"subgen/internal/services"
	"subgen/internal/store"
)

// Record is one item's ledger entry.
type Record struct {
	Owner          string            `bson:"author" json:"owner"`
	Permlink       string            `bson:"permlink" json:"permlink"`
	VideoCID       string            `bson:"video_cid" json:"video_cid"`
	Subtitles      map[string]string `bson:"subtitles" json:"subtitles"`
	IsEmbed        bool              `bson:"isEmbed" json:"isEmbed"`
	IsAudio        bool              `bson:"isAudio" json:"isAudio"`
	CreatedAt      time.Time         `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time         `bson:"updated_at" json:"updated_at"`
	VideoCreatedAt time.Time         `bson:"video_created_at" json:"video_created_at"`
	ProcessingSecs float64           `bson:"processing_seconds,omitempty" json:"processing_seconds,omitempty"`
	VideoDuration  float64           `bson:"video_duration_seconds,omitempty" json:"video_duration_seconds,omitempty"`
	DetectedLang   string            `bson:"detected_language,omitempty" json:"detected_language,omitempty"`
}

// TagRecord holds the zero-shot topic tags for one item.
type TagRecord struct {
	Owner    string    `bson:"author" json:"owner"`
	Permlink string    `bson:"permlink" json:"permlink"`
	Tags     []string  `bson:"tags" json:"tags"`
	SavedAt  time.Time `bson:"saved_at" json:"saved_at"`
}

// Stats summarizes the ledger for the monitoring surface.
type Stats struct {
	Items        int64            `json:"items"`
	Subtitles    int64            `json:"subtitles"`
	ByLanguage   map[string]int64 `json:"by_language"`
	EmbedItems   int64            `json:"embed_items"`
	AudioItems   int64            `json:"audio_items"`
	LatestUpdate time.Time        `json:"latest_update"`
}

// Ledger is the Mongo-backed progress store.
type Ledger struct {
	coll   *mongo.Collection
	tags   *mongo.Collection
	logger *slog.Logger
}

// NewLedger builds a Ledger on the configured progress and tags collections.
func NewLedger(st *store.Store, logger *slog.Logger) *Ledger {
	return &Ledger{
		coll:   st.Progress(),
		tags:   st.Tags(),
		logger: logging.WithComponent(logger, "progress"),
	}
}

func key(owner, permlink string) bson.M {
	return bson.M{"author": owner, "permlink": permlink}
}

// Completed returns the language codes already finished for the item. A
// missing record means nothing is finished.
func (l *Ledger) Completed(ctx context.Context, owner, permlink string) ([]string, error) {
	opCtx, cancel := store.WithOpTimeout(ctx)
	defer cancel()

	var record Record
	err := l.coll.FindOne(opCtx, key(owner, permlink)).Decode(&record)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil, nil
	case err != nil:
		return nil, services.Wrap(services.ErrTransient, "progress", "completed", "lookup", err)
	}

	codes := make([]string, 0, len(record.Subtitles))
	for code := range record.Subtitles {
		codes = append(codes, code)
	}
	return codes, nil
}

// Get returns the full ledger entry, or ErrNotFound.
func (l *Ledger) Get(ctx context.Context, owner, permlink string) (*Record, error) {
	opCtx, cancel := store.WithOpTimeout(ctx)
	defer cancel()

	var record Record
	err := l.coll.FindOne(opCtx, key(owner, permlink)).Decode(&record)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil, services.Wrap(services.ErrNotFound, "progress", "get", owner+"/"+permlink+" has no record", nil)
	case err != nil:
		return nil, services.Wrap(services.ErrTransient, "progress", "get", "lookup", err)
	}
	return &record, nil
}

// RecordSubTask marks one language finished for the item, storing the
// artifact reference. The upsert is idempotent: re-recording overwrites the
// same subtitles.LANG slot and refreshes updated_at, nothing else.
func (l *Ledger) RecordSubTask(ctx context.Context, item media.Item, lang, artifactRef string) error {
	opCtx, cancel := store.WithOpTimeout(ctx)
	defer cancel()

	update := bson.M{
		"$set": bson.M{
			"video_cid":         item.ContentRef,
			"subtitles." + lang: artifactRef,
			"updated_at":        time.Now().UTC(),
		},
		"$setOnInsert": bson.M{
			"author":           item.Owner,
			"permlink":         item.Permlink,
			"isEmbed":          item.IsEmbed(),
			"isAudio":          item.IsAudio(),
			"created_at":       time.Now().UTC(),
			"video_created_at": item.CreatedAt,
		},
	}
	_, err := l.coll.UpdateOne(opCtx, key(item.Owner, item.Permlink), update, options.Update().SetUpsert(true))
	if err != nil {
		return services.Wrap(services.ErrTransient, "progress", "record sub-task", "upsert", err)
	}
	l.logger.Info("sub-task recorded",
		logging.String(logging.FieldOwner, item.Owner),
		logging.String(logging.FieldPermlink, item.Permlink),
		logging.String(logging.FieldLanguage, lang),
	)
	return nil
}

// RecordDuration stores wall-clock and media durations plus the detected
// source language after an item finishes.
func (l *Ledger) RecordDuration(ctx context.Context, owner, permlink string, processing, videoDuration time.Duration, detectedLang string) error {
	opCtx, cancel := store.WithOpTimeout(ctx)
	defer cancel()

	set := bson.M{
		"processing_seconds":     processing.Seconds(),
		"video_duration_seconds": videoDuration.Seconds(),
		"updated_at":             time.Now().UTC(),
	}
	if detectedLang != "" {
		set["detected_language"] = detectedLang
	}
	_, err := l.coll.UpdateOne(opCtx, key(owner, permlink), bson.M{"$set": set})
	if err != nil {
		return services.Wrap(services.ErrTransient, "progress", "record duration", "update", err)
	}
	return nil
}

// SaveTags upserts the item's topic tags.
func (l *Ledger) SaveTags(ctx context.Context, owner, permlink string, tags []string) error {
	opCtx, cancel := store.WithOpTimeout(ctx)
	defer cancel()

	update := bson.M{
		"$set":         bson.M{"tags": tags, "saved_at": time.Now().UTC()},
		"$setOnInsert": bson.M{"author": owner, "permlink": permlink},
	}
	_, err := l.tags.UpdateOne(opCtx, key(owner, permlink), update, options.Update().SetUpsert(true))
	if err != nil {
		return services.Wrap(services.ErrTransient, "progress", "save tags", "upsert", err)
	}
	return nil
}

// Forget deletes the item's ledger entry and tags so the scheduler treats it
// as fresh work. Used by the reprocess path.
func (l *Ledger) Forget(ctx context.Context, owner, permlink string) error {
	opCtx, cancel := store.WithOpTimeout(ctx)
	defer cancel()

	if _, err := l.coll.DeleteOne(opCtx, key(owner, permlink)); err != nil {
		return services.Wrap(services.ErrTransient, "progress", "forget", "delete record", err)
	}
	if _, err := l.tags.DeleteOne(opCtx, key(owner, permlink)); err != nil {
		return services.Wrap(services.ErrTransient, "progress", "forget", "delete tags", err)
	}
	return nil
}

// LastSourceCreatedAt derives the backlog cursor: the newest
// video_created_at across every record, embed and audio included. Zero time
// when the ledger has none.
func (l *Ledger) LastSourceCreatedAt(ctx context.Context) (time.Time, error) {
	opCtx, cancel := store.WithOpTimeout(ctx)
	defer cancel()

	opts := options.FindOne().
		SetSort(bson.D{{Key: "video_created_at", Value: -1}}).
		SetProjection(bson.M{"video_created_at": 1})
	var record Record
	err := l.coll.FindOne(opCtx, bson.M{}, opts).Decode(&record)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return time.Time{}, nil
	case err != nil:
		return time.Time{}, services.Wrap(services.ErrTransient, "progress", "cursor", "lookup", err)
	}
	return record.VideoCreatedAt, nil
}

// Recent returns the most recently updated ledger entries.
func (l *Ledger) Recent(ctx context.Context, limit int64) ([]Record, error) {
	opCtx, cancel := store.WithOpTimeout(ctx)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}}).SetLimit(limit)
	cursor, err := l.coll.Find(opCtx, bson.M{}, opts)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "progress", "recent", "query", err)
	}
	defer cursor.Close(opCtx)

	var records []Record
	if err := cursor.All(opCtx, &records); err != nil {
		return nil, services.Wrap(services.ErrTransient, "progress", "recent", "decode", err)
	}
	return records, nil
}

// Stats aggregates ledger totals for the monitoring surface.
func (l *Ledger) Stats(ctx context.Context) (Stats, error) {
	opCtx, cancel := store.WithOpTimeout(ctx)
	defer cancel()

	stats := Stats{ByLanguage: make(map[string]int64)}
	var err error
	if stats.Items, err = l.coll.CountDocuments(opCtx, bson.M{}); err != nil {
		return stats, services.Wrap(services.ErrTransient, "progress", "stats", "count items", err)
	}
	if stats.EmbedItems, err = l.coll.CountDocuments(opCtx, bson.M{"isEmbed": true, "isAudio": false}); err != nil {
		return stats, services.Wrap(services.ErrTransient, "progress", "stats", "count embed", err)
	}
	if stats.AudioItems, err = l.coll.CountDocuments(opCtx, bson.M{"isAudio": true}); err != nil {
		return stats, services.Wrap(services.ErrTransient, "progress", "stats", "count audio", err)
	}

	cursor, err := l.coll.Find(opCtx, bson.M{},
		options.Find().SetProjection(bson.M{"subtitles": 1, "updated_at": 1}))
	if err != nil {
		return stats, services.Wrap(services.ErrTransient, "progress", "stats", "scan", err)
	}
	defer cursor.Close(opCtx)

	for cursor.Next(opCtx) {
		var record Record
		if err := cursor.Decode(&record); err != nil {
			continue
		}
		for code := range record.Subtitles {
			stats.Subtitles++
			stats.ByLanguage[code]++
		}
		if record.UpdatedAt.After(stats.LatestUpdate) {
			stats.LatestUpdate = record.UpdatedAt
		}
	}
	if err := cursor.Err(); err != nil {
		return stats, services.Wrap(services.ErrTransient, "progress", "stats", "scan", err)
	}
	return stats, nil
}
