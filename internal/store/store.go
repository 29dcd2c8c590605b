package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"subgen/internal/config"
)

const (
	serverSelectionTimeout = 5 * time.Second
	connectTimeout         = 10 * time.Second

	// OpTimeout bounds every individual store operation so a wedged
	// connection fails one candidate instead of hanging the loop.
	OpTimeout = 15 * time.Second
)

// Store holds the document store connection and named collection handles.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	names  config.Collections
}

// Connect establishes and verifies the document store connection. This is the
// only fatal failure path in the system; nothing can proceed without it.
func Connect(ctx context.Context, cfg *config.Config) (*Store, error) {
	opts := options.Client().
		ApplyURI(cfg.Mongo.URI).
		SetServerSelectionTimeout(serverSelectionTimeout).
		SetConnectTimeout(connectTimeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect document store: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, serverSelectionTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping document store: %w", err)
	}

	return &Store{
		client: client,
		db:     client.Database(cfg.Mongo.Database),
		names:  cfg.Mongo.Collections,
	}, nil
}

// Close releases the client connection.
func (s *Store) Close(ctx context.Context) error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

// WithOpTimeout derives a context bounded by the per-operation timeout.
func WithOpTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, OpTimeout)
}

func (s *Store) Legacy() *mongo.Collection    { return s.db.Collection(s.names.Legacy) }
func (s *Store) Embed() *mongo.Collection     { return s.db.Collection(s.names.Embed) }
func (s *Store) Audio() *mongo.Collection     { return s.db.Collection(s.names.Audio) }
func (s *Store) Progress() *mongo.Collection  { return s.db.Collection(s.names.Progress) }
func (s *Store) Tags() *mongo.Collection      { return s.db.Collection(s.names.Tags) }
func (s *Store) Priority() *mongo.Collection  { return s.db.Collection(s.names.Priority) }
func (s *Store) Status() *mongo.Collection    { return s.db.Collection(s.names.Status) }
func (s *Store) Blacklist() *mongo.Collection { return s.db.Collection(s.names.Blacklist) }
func (s *Store) BlacklistAuthors() *mongo.Collection {
	return s.db.Collection(s.names.BlacklistAuthors)
}
func (s *Store) Hotwords() *mongo.Collection    { return s.db.Collection(s.names.Hotwords) }
func (s *Store) Corrections() *mongo.Collection { return s.db.Collection(s.names.Corrections) }
