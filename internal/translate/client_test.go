package translate_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"subgen/internal/config"
	"subgen/internal/translate"
)

func TestTranslateBatchesAndPreservesOrder(t *testing.T) {
	var batches [][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Texts  []string `json:"texts"`
			Source string   `json:"source"`
			Target string   `json:"target"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Source != "eng_Latn" || req.Target != "spa_Latn" {
			t.Errorf("language tags = %q -> %q", req.Source, req.Target)
		}
		batches = append(batches, req.Texts)
		out := make([]string, len(req.Texts))
		for i, text := range req.Texts {
			out[i] = "es:" + text
		}
		json.NewEncoder(w).Encode(map[string][]string{"translations": out})
	}))
	defer server.Close()

	client := translate.NewClient(config.Translator{BaseURL: server.URL, BatchSize: 2})
	texts := []string{"one", "two", "three", "four", "five"}
	got, err := client.Translate(context.Background(), texts, "en", "es")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if len(got) != len(texts) {
		t.Fatalf("got %d translations", len(got))
	}
	for i, text := range texts {
		if got[i] != "es:"+text {
			t.Fatalf("translation[%d] = %q", i, got[i])
		}
	}
	if len(batches) != 3 {
		t.Fatalf("server saw %d batches, want 3", len(batches))
	}
}

func TestTranslateRejectsLengthMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string][]string{"translations": {"only-one"}})
	}))
	defer server.Close()

	client := translate.NewClient(config.Translator{BaseURL: server.URL})
	_, err := client.Translate(context.Background(), []string{"a", "b"}, "en", "es")
	if err == nil {
		t.Fatal("expected error on length mismatch")
	}
}

func TestTranslateEmptyInput(t *testing.T) {
	client := translate.NewClient(config.Translator{BaseURL: "http://127.0.0.1:1"})
	got, err := client.Translate(context.Background(), nil, "en", "es")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if got != nil {
		t.Fatalf("got %v, want nil", got)
	}
}
