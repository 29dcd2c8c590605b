package progress_test

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"subgen/internal/progress"
)

// The ledger shares its collection with earlier deployments; these field
// names are what cursor derivation and resume find on disk.
func TestRecordPersistedFieldNames(t *testing.T) {
	data, err := bson.Marshal(progress.Record{
		Owner:          "alice",
		Permlink:       "video-1",
		VideoCID:       "QmVideo",
		Subtitles:      map[string]string{"en": "QmSub"},
		VideoCreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	raw := bson.Raw(data)
	for _, field := range []string{"author", "permlink", "video_cid", "subtitles", "video_created_at"} {
		if _, err := raw.LookupErr(field); err != nil {
			t.Fatalf("missing persisted field %q", field)
		}
	}
	if got := raw.Lookup("author").StringValue(); got != "alice" {
		t.Fatalf("author = %q", got)
	}
	if _, err := raw.LookupErr("owner"); err == nil {
		t.Fatal("record persists under owner")
	}
}

func TestTagRecordPersistedFieldNames(t *testing.T) {
	data, err := bson.Marshal(progress.TagRecord{
		Owner:    "alice",
		Permlink: "video-1",
		Tags:     []string{"music"},
		SavedAt:  time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	raw := bson.Raw(data)
	if got := raw.Lookup("author").StringValue(); got != "alice" {
		t.Fatalf("author = %q", got)
	}
	if _, err := raw.LookupErr("owner"); err == nil {
		t.Fatal("tag record persists under owner")
	}
}
