package mediacache_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"subgen/internal/logging"
	"subgen/internal/mediacache"
)

func writeSource(t *testing.T, dir, name string, size int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	return path
}

func TestCacheStoreAndLookup(t *testing.T) {
	cache, err := mediacache.Open(t.TempDir(), 1, logging.NewNop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer cache.Close()
	ctx := context.Background()

	src := writeSource(t, t.TempDir(), "clip.mp4", 128)
	if err := cache.Store(ctx, "QmClip", src); err != nil {
		t.Fatalf("Store: %v", err)
	}

	path, ok := cache.Lookup(ctx, "QmClip")
	if !ok {
		t.Fatal("expected cache hit")
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat cached file: %v", err)
	}
	if info.Size() != 128 {
		t.Fatalf("cached size = %d", info.Size())
	}
}

func TestCacheMissOnUnknownCID(t *testing.T) {
	cache, err := mediacache.Open(t.TempDir(), 1, logging.NewNop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer cache.Close()

	if _, ok := cache.Lookup(context.Background(), "QmUnknown"); ok {
		t.Fatal("unexpected hit")
	}
}

func TestCacheDropsEntryWhoseFileVanished(t *testing.T) {
	cache, err := mediacache.Open(t.TempDir(), 1, logging.NewNop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer cache.Close()
	ctx := context.Background()

	src := writeSource(t, t.TempDir(), "clip.mp4", 16)
	if err := cache.Store(ctx, "QmClip", src); err != nil {
		t.Fatalf("Store: %v", err)
	}
	path, ok := cache.Lookup(ctx, "QmClip")
	if !ok {
		t.Fatal("expected hit")
	}
	os.Remove(path)

	if _, ok := cache.Lookup(ctx, "QmClip"); ok {
		t.Fatal("expected miss after file removal")
	}
}

func TestCacheEvict(t *testing.T) {
	cache, err := mediacache.Open(t.TempDir(), 1, logging.NewNop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer cache.Close()
	ctx := context.Background()

	src := writeSource(t, t.TempDir(), "clip.mp4", 16)
	if err := cache.Store(ctx, "QmClip", src); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := cache.Evict(ctx, "QmClip"); err != nil {
		t.Fatalf("Evict: %v", err)
	}
	if _, ok := cache.Lookup(ctx, "QmClip"); ok {
		t.Fatal("expected miss after evict")
	}
	size, err := cache.Size(ctx)
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if size != 0 {
		t.Fatalf("size after evict = %d", size)
	}
}

func TestNilCacheIsNoOp(t *testing.T) {
	var cache *mediacache.Cache
	ctx := context.Background()

	if _, ok := cache.Lookup(ctx, "QmClip"); ok {
		t.Fatal("nil cache returned a hit")
	}
	if err := cache.Store(ctx, "QmClip", "/nonexistent"); err != nil {
		t.Fatalf("nil Store: %v", err)
	}
	if err := cache.Close(); err != nil {
		t.Fatalf("nil Close: %v", err)
	}
}
