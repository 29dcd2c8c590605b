package media

import (
	"strings"
	"time"
)

const ipfsPrefix = "ipfs://"

// LegacyDocument is the raw shape of the legacy video collection.
type LegacyDocument struct {
	Owner       string    `bson:"owner"`
	Permlink    string    `bson:"permlink"`
	Filename    string    `bson:"filename"`
	Created     time.Time `bson:"created"`
	Status      string    `bson:"status"`
	PublishData time.Time `bson:"publish_data"`
	Title       string    `bson:"title"`
	Description string    `bson:"description"`
}

// EmbedDocument is the raw shape of the embed (HLS) video collection.
type EmbedDocument struct {
	Owner       string    `bson:"owner"`
	Permlink    string    `bson:"permlink"`
	ManifestCID string    `bson:"manifest_cid"`
	CreatedAt   time.Time `bson:"createdAt"`
	Status      string    `bson:"status"`
	Title       string    `bson:"title"`
	Description string    `bson:"description"`
}

// AudioDocument is the raw shape of the audio-only collection.
type AudioDocument struct {
	Owner       string    `bson:"owner"`
	Permlink    string    `bson:"permlink"`
	AudioCID    string    `bson:"audio_cid"`
	CreatedAt   time.Time `bson:"createdAt"`
	Status      string    `bson:"status"`
	Title       string    `bson:"title"`
	Description string    `bson:"description"`
}

// Normalize converts a legacy document into a WorkItem. The legacy content
// ref is a filename carrying an ipfs:// prefix which is stripped here.
func (d LegacyDocument) Normalize() (Item, error) {
	item := Item{
		Owner:       strings.TrimSpace(d.Owner),
		Permlink:    strings.TrimSpace(d.Permlink),
		Source:      SourceLegacy,
		ContentRef:  strings.TrimPrefix(strings.TrimSpace(d.Filename), ipfsPrefix),
		CreatedAt:   d.Created,
		Status:      statusHint(d.Status),
		Title:       d.Title,
		Description: d.Description,
	}
	// A filename without the prefix is not a retrievable CID.
	if !strings.HasPrefix(strings.TrimSpace(d.Filename), ipfsPrefix) {
		item.ContentRef = ""
	}
	return item, item.validate()
}

// Normalize converts an embed document into a WorkItem.
func (d EmbedDocument) Normalize() (Item, error) {
	item := Item{
		Owner:       strings.TrimSpace(d.Owner),
		Permlink:    strings.TrimSpace(d.Permlink),
		Source:      SourceEmbed,
		ContentRef:  strings.TrimSpace(d.ManifestCID),
		CreatedAt:   d.CreatedAt,
		Status:      statusHint(d.Status),
		Title:       d.Title,
		Description: d.Description,
	}
	return item, item.validate()
}

// Normalize converts an audio document into a WorkItem.
func (d AudioDocument) Normalize() (Item, error) {
	item := Item{
		Owner:       strings.TrimSpace(d.Owner),
		Permlink:    strings.TrimSpace(d.Permlink),
		Source:      SourceAudio,
		ContentRef:  strings.TrimSpace(d.AudioCID),
		CreatedAt:   d.CreatedAt,
		Status:      statusHint(d.Status),
		Title:       d.Title,
		Description: d.Description,
	}
	return item, item.validate()
}

func statusHint(raw string) StatusHint {
	if strings.EqualFold(strings.TrimSpace(raw), string(StatusScheduled)) {
		return StatusScheduled
	}
	return StatusPublished
}
