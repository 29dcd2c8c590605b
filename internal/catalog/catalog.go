package catalog

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"subgen/internal/logging"
	"subgen/internal/media"
	"subgen/internal/services"
	"subgen/internal/store"
)

// Catalog aggregates the legacy, embed, and audio source collections.
type Catalog struct {
	store           *store.Store
	logger          *slog.Logger
	prioritiseEmbed bool
}

// Counts summarizes eligible backlog sizes per source type.
type Counts struct {
	Legacy int64 `json:"legacy"`
	Embed  int64 `json:"embed"`
	Audio  int64 `json:"audio"`
}

// Total returns the combined backlog size.
func (c Counts) Total() int64 { return c.Legacy + c.Embed + c.Audio }

// New builds a Catalog. prioritiseEmbed stable-sorts embed/audio candidates
// ahead of legacy ones within the merged stream.
func New(st *store.Store, logger *slog.Logger, prioritiseEmbed bool) *Catalog {
	return &Catalog{
		store:           st,
		logger:          logging.WithComponent(logger, "catalog"),
		prioritiseEmbed: prioritiseEmbed,
	}
}

// legacyHasCID matches legacy documents whose filename is a retrievable
// ipfs:// reference.
func legacyHasCID() bson.M {
	return bson.M{"$exists": true, "$nin": bson.A{nil, ""}, "$regex": "^ipfs://"}
}

func cidPresent() bson.M {
	return bson.M{"$exists": true, "$nin": bson.A{nil, ""}}
}

func (c *Catalog) legacyFilter(since time.Time) bson.M {
	published := bson.M{
		"filename": legacyHasCID(),
		"status":   string(media.StatusPublished),
	}
	if !since.IsZero() {
		published["created"] = bson.M{"$gte": since}
	}
	// Future-scheduled videos are picked up early so subtitles are ready
	// at publish time.
	scheduled := bson.M{
		"filename":     legacyHasCID(),
		"status":       string(media.StatusScheduled),
		"publish_data": bson.M{"$gt": time.Now()},
	}
	return bson.M{"$or": bson.A{published, scheduled}}
}

func embedFilter(cidField string, since time.Time) bson.M {
	filter := bson.M{
		cidField: cidPresent(),
		"status": string(media.StatusPublished),
	}
	if !since.IsZero() {
		filter["createdAt"] = bson.M{"$gte": since}
	}
	return filter
}

// ItemsSince returns every eligible WorkItem across the three sources,
// merged ascending by creation time. legacySince bounds the legacy
// collection; embedSince bounds embed and audio independently so the legacy
// cursor advancing never starves later-discovered embed/audio items. Zero
// bounds mean unbounded.
func (c *Catalog) ItemsSince(ctx context.Context, legacySince, embedSince time.Time) []media.Item {
	legacy := c.queryLegacy(ctx, legacySince)
	embed := c.queryEmbed(ctx, embedSince)
	audio := c.queryAudio(ctx, embedSince)

	items := make([]media.Item, 0, len(legacy)+len(embed)+len(audio))
	items = append(items, legacy...)
	items = append(items, embed...)
	items = append(items, audio...)

	sort.SliceStable(items, func(a, b int) bool {
		return items[a].CreatedAt.Before(items[b].CreatedAt)
	})
	if c.prioritiseEmbed {
		sort.SliceStable(items, func(a, b int) bool {
			return items[a].IsEmbed() && !items[b].IsEmbed()
		})
	}

	c.logger.Info("backlog scan",
		logging.Int("legacy", len(legacy)),
		logging.Int("embed", len(embed)),
		logging.Int("audio", len(audio)),
		logging.Time("legacy_since", legacySince),
		logging.Time("embed_since", embedSince),
	)
	return items
}

func (c *Catalog) queryLegacy(ctx context.Context, since time.Time) []media.Item {
	return queryItems(ctx, c, c.store.Legacy(), c.legacyFilter(since), "created",
		func(doc media.LegacyDocument) (media.Item, error) { return doc.Normalize() })
}

func (c *Catalog) queryEmbed(ctx context.Context, since time.Time) []media.Item {
	return queryItems(ctx, c, c.store.Embed(), embedFilter("manifest_cid", since), "createdAt",
		func(doc media.EmbedDocument) (media.Item, error) { return doc.Normalize() })
}

func (c *Catalog) queryAudio(ctx context.Context, since time.Time) []media.Item {
	return queryItems(ctx, c, c.store.Audio(), embedFilter("audio_cid", since), "createdAt",
		func(doc media.AudioDocument) (media.Item, error) { return doc.Normalize() })
}

func queryItems[D any](ctx context.Context, c *Catalog, coll *mongo.Collection, filter bson.M, sortField string, normalize func(D) (media.Item, error)) []media.Item {
	opCtx, cancel := store.WithOpTimeout(ctx)
	defer cancel()

	cursor, err := coll.Find(opCtx, filter, options.Find().SetSort(bson.D{{Key: sortField, Value: 1}}))
	if err != nil {
		c.logger.Error("backlog query failed; returning empty batch",
			logging.String("collection", coll.Name()),
			logging.Error(err),
		)
		return nil
	}
	defer cursor.Close(opCtx)

	var items []media.Item
	for cursor.Next(opCtx) {
		var doc D
		if err := cursor.Decode(&doc); err != nil {
			c.logger.Warn("skipping undecodable source document",
				logging.String("collection", coll.Name()),
				logging.Error(err),
			)
			continue
		}
		item, err := normalize(doc)
		if err != nil {
			c.logger.Warn("skipping malformed source document",
				logging.String("collection", coll.Name()),
				logging.Error(err),
			)
			continue
		}
		items = append(items, item)
	}
	if err := cursor.Err(); err != nil {
		c.logger.Error("backlog cursor failed; batch may be partial",
			logging.String("collection", coll.Name()),
			logging.Error(err),
		)
	}
	return items
}

// Find resolves (owner, permlink) across all three collections, regardless
// of eligibility bounds. Used for priority resolution and admin validation.
func (c *Catalog) Find(ctx context.Context, owner, permlink string) (*media.Item, error) {
	opCtx, cancel := store.WithOpTimeout(ctx)
	defer cancel()

	key := bson.M{"owner": owner, "permlink": permlink}

	var legacy media.LegacyDocument
	err := c.store.Legacy().FindOne(opCtx, key).Decode(&legacy)
	switch {
	case err == nil:
		item, normErr := legacy.Normalize()
		if normErr != nil {
			return nil, normErr
		}
		return &item, nil
	case !errors.Is(err, mongo.ErrNoDocuments):
		return nil, services.Wrap(services.ErrTransient, "catalog", "find", "legacy lookup", err)
	}

	var embed media.EmbedDocument
	err = c.store.Embed().FindOne(opCtx, key).Decode(&embed)
	switch {
	case err == nil:
		item, normErr := embed.Normalize()
		if normErr != nil {
			return nil, normErr
		}
		return &item, nil
	case !errors.Is(err, mongo.ErrNoDocuments):
		return nil, services.Wrap(services.ErrTransient, "catalog", "find", "embed lookup", err)
	}

	var audio media.AudioDocument
	err = c.store.Audio().FindOne(opCtx, key).Decode(&audio)
	switch {
	case err == nil:
		item, normErr := audio.Normalize()
		if normErr != nil {
			return nil, normErr
		}
		return &item, nil
	case !errors.Is(err, mongo.ErrNoDocuments):
		return nil, services.Wrap(services.ErrTransient, "catalog", "find", "audio lookup", err)
	}

	return nil, services.Wrap(services.ErrNotFound, "catalog", "find", owner+"/"+permlink+" not in any source", nil)
}

// EligibleCounts reports per-source eligible backlog sizes since the given
// bound, for the monitoring surface.
func (c *Catalog) EligibleCounts(ctx context.Context, since time.Time) (Counts, error) {
	opCtx, cancel := store.WithOpTimeout(ctx)
	defer cancel()

	var counts Counts
	var err error
	if counts.Legacy, err = c.store.Legacy().CountDocuments(opCtx, c.legacyFilter(since)); err != nil {
		return counts, services.Wrap(services.ErrTransient, "catalog", "count", "legacy", err)
	}
	if counts.Embed, err = c.store.Embed().CountDocuments(opCtx, embedFilter("manifest_cid", since)); err != nil {
		return counts, services.Wrap(services.ErrTransient, "catalog", "count", "embed", err)
	}
	if counts.Audio, err = c.store.Audio().CountDocuments(opCtx, embedFilter("audio_cid", since)); err != nil {
		return counts, services.Wrap(services.ErrTransient, "catalog", "count", "audio", err)
	}
	return counts, nil
}
