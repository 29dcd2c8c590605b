package lexicon

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"subgen/internal/logging"
	"subgen/internal/services"
	"subgen/internal/store"
)

// Hotword is a term the recognizer should bias toward.
type Hotword struct {
	Word    string    `bson:"word" json:"word"`
	AddedAt time.Time `bson:"added_at" json:"added_at"`
}

// Correction rewrites a recurring misrecognition.
type Correction struct {
	From    string    `bson:"from_text" json:"from"`
	To      string    `bson:"to_text" json:"to"`
	AddedAt time.Time `bson:"added_at" json:"added_at"`
}

// Store is the Mongo-backed vocabulary store.
type Store struct {
	hotwords    *mongo.Collection
	corrections *mongo.Collection
	logger      *slog.Logger
}

// NewStore builds a Store on the configured vocabulary collections.
func NewStore(st *store.Store, logger *slog.Logger) *Store {
	return &Store{
		hotwords:    st.Hotwords(),
		corrections: st.Corrections(),
		logger:      logging.WithComponent(logger, "lexicon"),
	}
}

// AddHotword records a term. Re-adding a stored term fails with ErrConflict.
func (s *Store) AddHotword(ctx context.Context, word string) error {
	word = strings.TrimSpace(word)
	if word == "" {
		return services.Wrap(services.ErrValidation, "lexicon", "add hotword", "word is required", nil)
	}
	opCtx, cancel := store.WithOpTimeout(ctx)
	defer cancel()

	count, err := s.hotwords.CountDocuments(opCtx, bson.M{"word": word})
	if err != nil {
		return services.Wrap(services.ErrTransient, "lexicon", "add hotword", "duplicate check", err)
	}
	if count > 0 {
		return services.Wrap(services.ErrConflict, "lexicon", "add hotword", word+" already stored", nil)
	}

	_, err = s.hotwords.InsertOne(opCtx, Hotword{Word: word, AddedAt: time.Now().UTC()})
	if err != nil {
		return services.Wrap(services.ErrTransient, "lexicon", "add hotword", "insert", err)
	}
	return nil
}

// RemoveHotword deletes a term.
func (s *Store) RemoveHotword(ctx context.Context, word string) error {
	opCtx, cancel := store.WithOpTimeout(ctx)
	defer cancel()

	result, err := s.hotwords.DeleteOne(opCtx, bson.M{"word": strings.TrimSpace(word)})
	if err != nil {
		return services.Wrap(services.ErrTransient, "lexicon", "remove hotword", "delete", err)
	}
	if result.DeletedCount == 0 {
		return services.Wrap(services.ErrNotFound, "lexicon", "remove hotword", word+" not stored", nil)
	}
	return nil
}

// Hotwords returns every stored term. Errors degrade to an empty list so a
// store hiccup never blocks transcription.
func (s *Store) Hotwords(ctx context.Context) []string {
	opCtx, cancel := store.WithOpTimeout(ctx)
	defer cancel()

	cursor, err := s.hotwords.Find(opCtx, bson.M{}, options.Find().SetSort(bson.D{{Key: "word", Value: 1}}))
	if err != nil {
		s.logger.Warn("hotword lookup failed; transcribing without prompt", logging.Error(err))
		return nil
	}
	defer cursor.Close(opCtx)

	var entries []Hotword
	if err := cursor.All(opCtx, &entries); err != nil {
		s.logger.Warn("hotword decode failed; transcribing without prompt", logging.Error(err))
		return nil
	}
	words := make([]string, 0, len(entries))
	for _, entry := range entries {
		words = append(words, entry.Word)
	}
	return words
}

// ListHotwords returns the full entries for the admin surface.
func (s *Store) ListHotwords(ctx context.Context) ([]Hotword, error) {
	opCtx, cancel := store.WithOpTimeout(ctx)
	defer cancel()

	cursor, err := s.hotwords.Find(opCtx, bson.M{}, options.Find().SetSort(bson.D{{Key: "word", Value: 1}}))
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "lexicon", "list hotwords", "query", err)
	}
	defer cursor.Close(opCtx)

	var entries []Hotword
	if err := cursor.All(opCtx, &entries); err != nil {
		return nil, services.Wrap(services.ErrTransient, "lexicon", "list hotwords", "decode", err)
	}
	return entries, nil
}

// AddCorrection records a rewrite rule. Re-adding a rule with the same
// source text fails with ErrConflict; remove it first to change the target.
func (s *Store) AddCorrection(ctx context.Context, from, to string) error {
	from = strings.TrimSpace(from)
	to = strings.TrimSpace(to)
	if from == "" || to == "" {
		return services.Wrap(services.ErrValidation, "lexicon", "add correction", "both sides are required", nil)
	}
	opCtx, cancel := store.WithOpTimeout(ctx)
	defer cancel()

	count, err := s.corrections.CountDocuments(opCtx, bson.M{"from_text": from})
	if err != nil {
		return services.Wrap(services.ErrTransient, "lexicon", "add correction", "duplicate check", err)
	}
	if count > 0 {
		return services.Wrap(services.ErrConflict, "lexicon", "add correction", from+" already stored", nil)
	}

	_, err = s.corrections.InsertOne(opCtx, Correction{From: from, To: to, AddedAt: time.Now().UTC()})
	if err != nil {
		return services.Wrap(services.ErrTransient, "lexicon", "add correction", "insert", err)
	}
	return nil
}

// RemoveCorrection deletes a rewrite rule by its source text.
func (s *Store) RemoveCorrection(ctx context.Context, from string) error {
	opCtx, cancel := store.WithOpTimeout(ctx)
	defer cancel()

	result, err := s.corrections.DeleteOne(opCtx, bson.M{"from_text": strings.TrimSpace(from)})
	if err != nil {
		return services.Wrap(services.ErrTransient, "lexicon", "remove correction", "delete", err)
	}
	if result.DeletedCount == 0 {
		return services.Wrap(services.ErrNotFound, "lexicon", "remove correction", from+" not stored", nil)
	}
	return nil
}

// Corrections returns every rewrite rule. Errors degrade to an empty list.
func (s *Store) Corrections(ctx context.Context) []Correction {
	opCtx, cancel := store.WithOpTimeout(ctx)
	defer cancel()

	cursor, err := s.corrections.Find(opCtx, bson.M{}, options.Find().SetSort(bson.D{{Key: "from_text", Value: 1}}))
	if err != nil {
		s.logger.Warn("correction lookup failed; skipping rewrites", logging.Error(err))
		return nil
	}
	defer cursor.Close(opCtx)

	var entries []Correction
	if err := cursor.All(opCtx, &entries); err != nil {
		s.logger.Warn("correction decode failed; skipping rewrites", logging.Error(err))
		return nil
	}
	return entries
}
