package services_test

import (
	"errors"
	"net/http"
	"testing"

	"subgen/internal/services"
)

func TestWrapTagsMarker(t *testing.T) {
	base := errors.New("socket closed")
	err := services.Wrap(services.ErrTransient, "priority", "dequeue", "pop failed", base)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "catalog", "query", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("nil marker should default to transient, got %v", err)
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{services.Wrap(services.ErrConflict, "blacklist", "add", "duplicate", nil), http.StatusConflict},
		{services.Wrap(services.ErrNotFound, "priority", "cancel", "missing", nil), http.StatusNotFound},
		{services.Wrap(services.ErrValidation, "api", "decode", "bad identifier", nil), http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := services.HTTPStatus(tc.err); got != tc.want {
			t.Fatalf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestRetryable(t *testing.T) {
	if services.Retryable(services.Wrap(services.ErrValidation, "media", "normalize", "no content ref", nil)) {
		t.Fatal("validation errors must not be retryable")
	}
	if !services.Retryable(services.Wrap(services.ErrExternalTool, "transcribe", "run", "exit 1", nil)) {
		t.Fatal("external tool errors retry on the next pass")
	}
}
