package lexicon_test

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"subgen/internal/lexicon"
)

// Corrections live in a collection shared with earlier deployments; the
// rewrite rules are only found under these field names.
func TestCorrectionPersistedFieldNames(t *testing.T) {
	data, err := bson.Marshal(lexicon.Correction{
		From:    "Hyve",
		To:      "Hive",
		AddedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	raw := bson.Raw(data)
	if got := raw.Lookup("from_text").StringValue(); got != "Hyve" {
		t.Fatalf("from_text = %q", got)
	}
	if got := raw.Lookup("to_text").StringValue(); got != "Hive" {
		t.Fatalf("to_text = %q", got)
	}
	if _, err := raw.LookupErr("from"); err == nil {
		t.Fatal("correction persists under from")
	}
}
