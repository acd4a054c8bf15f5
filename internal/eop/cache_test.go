package eop

import (
	"os"
	"strings"
	"testing"
	"time"
)

// TestCacheWriteAndLoadLatest verifies the round trip and that the newest
// file wins.
func TestCacheWriteAndLoadLatest(t *testing.T) {
	cache := NewCache(t.TempDir(), 5)

	older := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(6 * time.Hour)
	if err := cache.Write(CacheProductFinals, []byte("old product"), older); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := cache.Write(CacheProductFinals, []byte("new product"), newer); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, ts, err := cache.LoadLatest(CacheProductFinals)
	if err != nil {
		t.Fatalf("LoadLatest failed: %v", err)
	}
	if string(data) != "new product" {
		t.Errorf("LoadLatest data = %q, want \"new product\"", data)
	}
	if !ts.Equal(newer) {
		t.Errorf("LoadLatest ts = %v, want %v", ts, newer)
	}
}

// TestCacheProductsAreSeparate verifies that the two products coexist in
// one directory without shadowing each other.
func TestCacheProductsAreSeparate(t *testing.T) {
	cache := NewCache(t.TempDir(), 5)
	ts := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	if err := cache.Write(CacheProductC04, []byte("c04 bytes"), ts); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := cache.Write(CacheProductFinals, []byte("finals bytes"), ts.Add(time.Hour)); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, _, err := cache.LoadLatest(CacheProductC04)
	if err != nil {
		t.Fatalf("LoadLatest(c04) failed: %v", err)
	}
	if string(data) != "c04 bytes" {
		t.Errorf("LoadLatest(c04) = %q, want \"c04 bytes\"", data)
	}

	data, _, err = cache.LoadLatest(CacheProductFinals)
	if err != nil {
		t.Fatalf("LoadLatest(finals) failed: %v", err)
	}
	if string(data) != "finals bytes" {
		t.Errorf("LoadLatest(finals) = %q, want \"finals bytes\"", data)
	}
}

// TestCacheEmpty verifies that LoadLatest on a missing or empty directory
// reports an error rather than empty data.
func TestCacheEmpty(t *testing.T) {
	cache := NewCache(t.TempDir(), 5)
	if _, _, err := cache.LoadLatest(CacheProductC04); err == nil {
		t.Fatal("expected error for empty cache, got nil")
	}

	cache = NewCache("/nonexistent/eopgo-cache", 5)
	if _, _, err := cache.LoadLatest(CacheProductC04); err == nil {
		t.Fatal("expected error for missing cache dir, got nil")
	}
}

// TestCachePrune verifies that old files are removed beyond maxFiles, per
// product.
func TestCachePrune(t *testing.T) {
	dir := t.TempDir()
	cache := NewCache(dir, 2)

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	if err := cache.Write(CacheProductC04, []byte("c04"), base); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		if err := cache.Write(CacheProductFinals, []byte("finals"), base.Add(time.Duration(i)*time.Hour)); err != nil {
			t.Fatalf("Write %d failed: %v", i, err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	var c04Files, finalsFiles int
	for _, e := range entries {
		switch {
		case strings.HasPrefix(e.Name(), "c04_"):
			c04Files++
		case strings.HasPrefix(e.Name(), "finals_"):
			finalsFiles++
		}
	}
	if finalsFiles != 2 {
		t.Errorf("got %d finals cache files after prune, want 2", finalsFiles)
	}
	// Pruning finals must leave the other product alone.
	if c04Files != 1 {
		t.Errorf("got %d c04 cache files, want 1", c04Files)
	}

	// The newest file survives pruning.
	_, ts, err := cache.LoadLatest(CacheProductFinals)
	if err != nil {
		t.Fatalf("LoadLatest failed: %v", err)
	}
	if want := base.Add(4 * time.Hour); !ts.Equal(want) {
		t.Errorf("LoadLatest ts = %v, want %v", ts, want)
	}
}

// TestCacheIgnoresForeignFiles verifies that unrelated files in the cache
// directory are not treated as cached products.
func TestCacheIgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(dir+"/README.txt", []byte("not a product"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	// A finals file must not satisfy a c04 lookup either.
	if err := os.WriteFile(dir+"/finals_1754006400.txt", []byte("finals"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cache := NewCache(dir, 5)
	if _, _, err := cache.LoadLatest(CacheProductC04); err == nil {
		t.Fatal("expected error when only foreign files exist, got nil")
	}
}
