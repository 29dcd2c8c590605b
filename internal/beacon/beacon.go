package beacon

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

// Status is the published processing document.
type Status struct {
	Author    string    `bson:"author" json:"author"`
	Permlink  string    `bson:"permlink" json:"permlink"`
	IsEmbed   bool      `bson:"isEmbed" json:"isEmbed"`
	IsAudio   bool      `bson:"isAudio" json:"isAudio"`
	StartedAt time.Time `bson:"started_at" json:"started_at"`
}

// Beacon writes to the singleton status collection.
type Beacon struct {
	coll   *mongo.Collection
	logger *slog.Logger
}

// New builds a Beacon on the configured status collection.
func New(st *store.Store, logger *slog.Logger) *Beacon {
	return &Beacon{
		coll:   st.Status(),
		logger: logging.WithComponent(logger, "beacon"),
	}
}

// Set publishes the item as currently processing, replacing any stale
// document left behind by a crash. The empty-filter replace with upsert is a
// single atomic write.
func (b *Beacon) Set(ctx context.Context, item media.Item) error {
	opCtx, cancel := store.WithOpTimeout(ctx)
	defer cancel()

	doc := Status{
		Author:    item.Owner,
		Permlink:  item.Permlink,
		IsEmbed:   item.IsEmbed(),
		IsAudio:   item.IsAudio(),
		StartedAt: time.Now().UTC(),
	}
	_, err := b.coll.ReplaceOne(opCtx, bson.M{}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return services.Wrap(services.ErrTransient, "beacon", "set", "replace", err)
	}
	return nil
}

// Clear removes the processing document. Clearing an already empty
// collection is a no-op.
func (b *Beacon) Clear(ctx context.Context) error {
	opCtx, cancel := store.WithOpTimeout(ctx)
	defer cancel()

	if _, err := b.coll.DeleteMany(opCtx, bson.M{}); err != nil {
		return services.Wrap(services.ErrTransient, "beacon", "clear", "delete", err)
	}
	return nil
}

// Current returns the published status, or nil when idle.
func (b *Beacon) Current(ctx context.Context) (*Status, error) {
	opCtx, cancel := store.WithOpTimeout(ctx)
	defer cancel()

	var status Status
	err := b.coll.FindOne(opCtx, bson.M{}).Decode(&status)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil, nil
	case err != nil:
		return nil, services.Wrap(services.ErrTransient, "beacon", "current", "lookup", err)
	}
	return &status, nil
}
