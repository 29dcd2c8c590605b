package media

import (
	"strings"
	"time"

	"subgen/internal/services"
)

// SourceType discriminates the three backlog collections.
type SourceType string

const (
	SourceLegacy SourceType = "legacy"
	SourceEmbed  SourceType = "embed"
	SourceAudio  SourceType = "audio"
)

// StatusHint is the publication status carried by the source document.
type StatusHint string

const (
	StatusPublished StatusHint = "published"
	StatusScheduled StatusHint = "scheduled"
)

// Item is one media asset eligible for subtitle generation. Identity is
// (Owner, Permlink); the struct is immutable once built by an adapter.
type Item struct {
	Owner       string
	Permlink    string
	Source      SourceType
	ContentRef  string
	CreatedAt   time.Time
	Status      StatusHint
	Title       string
	Description string
}

// Key returns the canonical owner/permlink identity string.
func (i Item) Key() string {
	return i.Owner + "/" + i.Permlink
}

// IsEmbed reports whether the item came from an HLS-manifest source.
// Audio items count: they share the embed collection family and flags.
func (i Item) IsEmbed() bool {
	return i.Source == SourceEmbed || i.Source == SourceAudio
}

// IsAudio reports whether the item is audio-only.
func (i Item) IsAudio() bool {
	return i.Source == SourceAudio
}

// SplitKey parses an owner/permlink identity string.
func SplitKey(key string) (owner, permlink string, err error) {
	owner, permlink, ok := strings.Cut(strings.TrimSpace(key), "/")
	if !ok || owner == "" || permlink == "" {
		return "", "", services.Wrap(services.ErrValidation, "media", "split key", "expected owner/permlink", nil)
	}
	return owner, permlink, nil
}

func (i Item) validate() error {
	if strings.TrimSpace(i.Owner) == "" || strings.TrimSpace(i.Permlink) == "" {
		return services.Wrap(services.ErrValidation, "media", "normalize", "missing owner or permlink", nil)
	}
	if strings.TrimSpace(i.ContentRef) == "" {
		return services.Wrap(services.ErrValidation, "media", "normalize", "missing content ref for "+i.Key(), nil)
	}
	return nil
}
