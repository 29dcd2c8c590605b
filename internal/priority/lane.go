package priority

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"subgen/internal/logging"
	"subgen/internal/media"
	"subgen/internal/services"
	"subgen/internal/store"
)

// Request is one queued priority entry. Entries are created by the admin
// surface and consumed exactly once by DequeueNext.
type Request struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Author      string             `bson:"author" json:"author"`
	Permlink    string             `bson:"permlink" json:"permlink"`
	RequestedAt time.Time          `bson:"requested_at" json:"requested_at"`
	Reprocess   bool               `bson:"reprocess,omitempty" json:"reprocess,omitempty"`
}

// Resolver locates a WorkItem across the source collections.
type Resolver interface {
	Find(ctx context.Context, owner, permlink string) (*media.Item, error)
}

// Lane is the Mongo-backed priority queue.
type Lane struct {
	coll     *mongo.Collection
	resolver Resolver
	logger   *slog.Logger
}

// NewLane builds a Lane on the configured priority collection.
func NewLane(st *store.Store, resolver Resolver, logger *slog.Logger) *Lane {
	return &Lane{
		coll:     st.Priority(),
		resolver: resolver,
		logger:   logging.WithComponent(logger, "priority"),
	}
}

// Enqueue appends a request. It fails with ErrConflict when the pair is
// already queued and ErrNotFound when no source collection knows the item.
func (l *Lane) Enqueue(ctx context.Context, author, permlink string) error {
	return l.enqueue(ctx, author, permlink, false)
}

// EnqueueReprocess appends a request flagged as an explicit reprocess.
func (l *Lane) EnqueueReprocess(ctx context.Context, author, permlink string) error {
	return l.enqueue(ctx, author, permlink, true)
}

func (l *Lane) enqueue(ctx context.Context, author, permlink string, reprocess bool) error {
	if author == "" || permlink == "" {
		return services.Wrap(services.ErrValidation, "priority", "enqueue", "author and permlink are required", nil)
	}
	if _, err := l.resolver.Find(ctx, author, permlink); err != nil {
		return err
	}

	opCtx, cancel := store.WithOpTimeout(ctx)
	defer cancel()

	key := bson.M{"author": author, "permlink": permlink}
	count, err := l.coll.CountDocuments(opCtx, key)
	if err != nil {
		return services.Wrap(services.ErrTransient, "priority", "enqueue", "duplicate check", err)
	}
	if count > 0 {
		return services.Wrap(services.ErrConflict, "priority", "enqueue", author+"/"+permlink+" already queued", nil)
	}

	_, err = l.coll.InsertOne(opCtx, Request{
		Author:      author,
		Permlink:    permlink,
		RequestedAt: time.Now().UTC(),
		Reprocess:   reprocess,
	})
	if err != nil {
		return services.Wrap(services.ErrTransient, "priority", "enqueue", "insert", err)
	}
	l.logger.Info("priority request queued",
		logging.String(logging.FieldOwner, author),
		logging.String(logging.FieldPermlink, permlink),
		logging.Bool("reprocess", reprocess),
	)
	return nil
}

// DequeueNext atomically removes and returns the oldest entry, or nil when
// the lane is empty. The removal is a single find-and-delete; there is no
// read-then-delete window for an administrative cancel to race into.
func (l *Lane) DequeueNext(ctx context.Context) (*Request, error) {
	opCtx, cancel := store.WithOpTimeout(ctx)
	defer cancel()

	opts := options.FindOneAndDelete().SetSort(bson.D{{Key: "requested_at", Value: 1}})
	var req Request
	err := l.coll.FindOneAndDelete(opCtx, bson.M{}, opts).Decode(&req)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil, nil
	case err != nil:
		return nil, services.Wrap(services.ErrTransient, "priority", "dequeue", "find and delete", err)
	}
	return &req, nil
}

// List returns the queued entries in FIFO order.
func (l *Lane) List(ctx context.Context) ([]Request, error) {
	opCtx, cancel := store.WithOpTimeout(ctx)
	defer cancel()

	cursor, err := l.coll.Find(opCtx, bson.M{}, options.Find().SetSort(bson.D{{Key: "requested_at", Value: 1}}))
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "priority", "list", "query", err)
	}
	defer cursor.Close(opCtx)

	var requests []Request
	if err := cursor.All(opCtx, &requests); err != nil {
		return nil, services.Wrap(services.ErrTransient, "priority", "list", "decode", err)
	}
	return requests, nil
}

// Cancel removes one queued entry by id.
func (l *Lane) Cancel(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return services.Wrap(services.ErrValidation, "priority", "cancel", "malformed id "+id, err)
	}

	opCtx, cancel := store.WithOpTimeout(ctx)
	defer cancel()

	result, err := l.coll.DeleteOne(opCtx, bson.M{"_id": objectID})
	if err != nil {
		return services.Wrap(services.ErrTransient, "priority", "cancel", "delete", err)
	}
	if result.DeletedCount == 0 {
		return services.Wrap(services.ErrNotFound, "priority", "cancel", "no entry with id "+id, nil)
	}
	return nil
}

// Size returns the number of queued entries.
func (l *Lane) Size(ctx context.Context) (int64, error) {
	opCtx, cancel := store.WithOpTimeout(ctx)
	defer cancel()
	count, err := l.coll.CountDocuments(opCtx, bson.M{})
	if err != nil {
		return 0, services.Wrap(services.ErrTransient, "priority", "size", "count", err)
	}
	return count, nil
}
