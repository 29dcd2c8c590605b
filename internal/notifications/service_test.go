package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"subgen/internal/config"
	"subgen/internal/notifications"
)

type captured struct {
	title    string
	tags     string
	priority string
	body     string
}

func newNtfyServer(t *testing.T) (*httptest.Server, *[]captured) {
	t.Helper()
	var requests []captured
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		requests = append(requests, captured{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		})
	}))
	t.Cleanup(server.Close)
	return server, &requests
}

func serviceFor(topic string) notifications.Service {
	cfg := config.Default()
	cfg.Ntfy.Topic = topic
	return notifications.NewService(&cfg)
}

func TestNotifyItemCompleted(t *testing.T) {
	server, requests := newNtfyServer(t)
	svc := serviceFor(server.URL)

	if err := svc.NotifyItemCompleted(context.Background(), "alice", "video-1", 4); err != nil {
		t.Fatalf("NotifyItemCompleted: %v", err)
	}
	if len(*requests) != 1 {
		t.Fatalf("expected one request, got %d", len(*requests))
	}
	got := (*requests)[0]
	if got.title != "Subgen - Item Complete" {
		t.Fatalf("title = %q", got.title)
	}
	if got.body != "Generated 4 subtitle files for alice/video-1" {
		t.Fatalf("body = %q", got.body)
	}
}

func TestNotifyItemFailedUsesHighPriority(t *testing.T) {
	server, requests := newNtfyServer(t)
	svc := serviceFor(server.URL)

	if err := svc.NotifyItemFailed(context.Background(), "alice", "video-1", errors.New("fetch timed out")); err != nil {
		t.Fatalf("NotifyItemFailed: %v", err)
	}
	got := (*requests)[0]
	if got.priority != "high" {
		t.Fatalf("priority = %q", got.priority)
	}
	if got.body != "Processing failed for alice/video-1: fetch timed out" {
		t.Fatalf("body = %q", got.body)
	}
}

func TestServerErrorSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic rejected", http.StatusForbidden)
	}))
	defer server.Close()

	svc := serviceFor(server.URL)
	if err := svc.TestNotification(context.Background()); err == nil {
		t.Fatal("expected error from rejected notification")
	}
}

func TestEmptyTopicIsNoop(t *testing.T) {
	svc := serviceFor("")
	if err := svc.NotifyError(context.Background(), errors.New("boom"), "scheduler"); err != nil {
		t.Fatalf("noop NotifyError: %v", err)
	}
}
