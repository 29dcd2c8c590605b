package blacklist

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"subgen/internal/logging"
	"subgen/internal/services"
	"subgen/internal/store"
)

// ItemEntry blocks a single (author, permlink) pair.
type ItemEntry struct {
	Author   string    `bson:"author" json:"author"`
	Permlink string    `bson:"permlink" json:"permlink"`
	AddedAt  time.Time `bson:"added_at" json:"added_at"`
	Reason   string    `bson:"reason,omitempty" json:"reason,omitempty"`
}

// AuthorEntry blocks every item by an author.
type AuthorEntry struct {
	Author  string    `bson:"author" json:"author"`
	AddedAt time.Time `bson:"added_at" json:"added_at"`
	Reason  string    `bson:"reason,omitempty" json:"reason,omitempty"`
}

// Guard is the Mongo-backed exclusion check.
type Guard struct {
	items   *mongo.Collection
	authors *mongo.Collection
	logger  *slog.Logger
}

// NewGuard builds a Guard on the configured blacklist collections.
func NewGuard(st *store.Store, logger *slog.Logger) *Guard {
	return &Guard{
		items:   st.Blacklist(),
		authors: st.BlacklistAuthors(),
		logger:  logging.WithComponent(logger, "blacklist"),
	}
}

// IsBlocked reports whether the pair is excluded, either directly or through
// an author-wide block. Errors degrade to false.
func (g *Guard) IsBlocked(ctx context.Context, author, permlink string) bool {
	opCtx, cancel := store.WithOpTimeout(ctx)
	defer cancel()

	count, err := g.authors.CountDocuments(opCtx, bson.M{"author": author})
	if err != nil {
		g.logger.Warn("author blacklist check failed; treating as not blocked",
			logging.String(logging.FieldOwner, author),
			logging.Error(err),
		)
		return false
	}
	if count > 0 {
		return true
	}

	count, err = g.items.CountDocuments(opCtx, bson.M{"author": author, "permlink": permlink})
	if err != nil {
		g.logger.Warn("item blacklist check failed; treating as not blocked",
			logging.String(logging.FieldOwner, author),
			logging.String(logging.FieldPermlink, permlink),
			logging.Error(err),
		)
		return false
	}
	return count > 0
}

// AddItem blocks a single pair. Adding an already blocked pair fails with
// ErrConflict.
func (g *Guard) AddItem(ctx context.Context, author, permlink, reason string) error {
	if author == "" || permlink == "" {
		return services.Wrap(services.ErrValidation, "blacklist", "add item", "author and permlink are required", nil)
	}
	opCtx, cancel := store.WithOpTimeout(ctx)
	defer cancel()

	key := bson.M{"author": author, "permlink": permlink}
	count, err := g.items.CountDocuments(opCtx, key)
	if err != nil {
		return services.Wrap(services.ErrTransient, "blacklist", "add item", "duplicate check", err)
	}
	if count > 0 {
		return services.Wrap(services.ErrConflict, "blacklist", "add item", author+"/"+permlink+" already blacklisted", nil)
	}

	_, err = g.items.InsertOne(opCtx, ItemEntry{
		Author:   author,
		Permlink: permlink,
		AddedAt:  time.Now().UTC(),
		Reason:   reason,
	})
	if err != nil {
		return services.Wrap(services.ErrTransient, "blacklist", "add item", "insert", err)
	}
	return nil
}

// AddAuthor blocks every item by the author. Adding an already blocked
// author fails with ErrConflict.
func (g *Guard) AddAuthor(ctx context.Context, author, reason string) error {
	if author == "" {
		return services.Wrap(services.ErrValidation, "blacklist", "add author", "author is required", nil)
	}
	opCtx, cancel := store.WithOpTimeout(ctx)
	defer cancel()

	count, err := g.authors.CountDocuments(opCtx, bson.M{"author": author})
	if err != nil {
		return services.Wrap(services.ErrTransient, "blacklist", "add author", "duplicate check", err)
	}
	if count > 0 {
		return services.Wrap(services.ErrConflict, "blacklist", "add author", author+" already blacklisted", nil)
	}

	_, err = g.authors.InsertOne(opCtx, AuthorEntry{
		Author:  author,
		AddedAt: time.Now().UTC(),
		Reason:  reason,
	})
	if err != nil {
		return services.Wrap(services.ErrTransient, "blacklist", "add author", "insert", err)
	}
	return nil
}

// RemoveItem unblocks a single pair.
func (g *Guard) RemoveItem(ctx context.Context, author, permlink string) error {
	opCtx, cancel := store.WithOpTimeout(ctx)
	defer cancel()

	result, err := g.items.DeleteOne(opCtx, bson.M{"author": author, "permlink": permlink})
	if err != nil {
		return services.Wrap(services.ErrTransient, "blacklist", "remove item", "delete", err)
	}
	if result.DeletedCount == 0 {
		return services.Wrap(services.ErrNotFound, "blacklist", "remove item", author+"/"+permlink+" not blacklisted", nil)
	}
	return nil
}

// RemoveAuthor unblocks an author.
func (g *Guard) RemoveAuthor(ctx context.Context, author string) error {
	opCtx, cancel := store.WithOpTimeout(ctx)
	defer cancel()

	result, err := g.authors.DeleteOne(opCtx, bson.M{"author": author})
	if err != nil {
		return services.Wrap(services.ErrTransient, "blacklist", "remove author", "delete", err)
	}
	if result.DeletedCount == 0 {
		return services.Wrap(services.ErrNotFound, "blacklist", "remove author", author+" not blacklisted", nil)
	}
	return nil
}

// ListItems returns every blocked pair, newest first.
func (g *Guard) ListItems(ctx context.Context) ([]ItemEntry, error) {
	opCtx, cancel := store.WithOpTimeout(ctx)
	defer cancel()

	cursor, err := g.items.Find(opCtx, bson.M{}, options.Find().SetSort(bson.D{{Key: "added_at", Value: -1}}))
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "blacklist", "list items", "query", err)
	}
	defer cursor.Close(opCtx)

	var entries []ItemEntry
	if err := cursor.All(opCtx, &entries); err != nil {
		return nil, services.Wrap(services.ErrTransient, "blacklist", "list items", "decode", err)
	}
	return entries, nil
}

// ListAuthors returns every blocked author, newest first.
func (g *Guard) ListAuthors(ctx context.Context) ([]AuthorEntry, error) {
	opCtx, cancel := store.WithOpTimeout(ctx)
	defer cancel()

	cursor, err := g.authors.Find(opCtx, bson.M{}, options.Find().SetSort(bson.D{{Key: "added_at", Value: -1}}))
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "blacklist", "list authors", "query", err)
	}
	defer cursor.Close(opCtx)

	var entries []AuthorEntry
	if err := cursor.All(opCtx, &entries); err != nil {
		return nil, services.Wrap(services.ErrTransient, "blacklist", "list authors", "decode", err)
	}
	return entries, nil
}
