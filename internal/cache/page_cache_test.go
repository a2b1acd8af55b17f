package cache

import (
	"fmt"
	"testing"
	"time"
)

func TestPageCacheSetGet(t *testing.T) {
	pc := NewPageCache(10, time.Minute)
	defer pc.Stop()

	pc.Set("index_page:/", []byte("<html>hello</html>"), "text/html")

	entry, ok := pc.Get("index_page:/")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if string(entry.Body) != "<html>hello</html>" {
		t.Errorf("unexpected body: %s", entry.Body)
	}
	if entry.ContentType != "text/html" {
		t.Errorf("unexpected content type: %s", entry.ContentType)
	}
}

func TestPageCacheMiss(t *testing.T) {
	pc := NewPageCache(10, time.Minute)
	defer pc.Stop()

	if _, ok := pc.Get("nope"); ok {
		t.Fatal("expected cache miss")
	}

	stats := pc.GetStats()
	if stats["misses"].(int64) != 1 {
		t.Errorf("expected 1 miss, got %v", stats["misses"])
	}
}

func TestPageCacheExpiry(t *testing.T) {
	pc := NewPageCache(10, 50*time.Millisecond)
	defer pc.Stop()

	pc.Set("key", []byte("body"), "text/html")
	if _, ok := pc.Get("key"); !ok {
		t.Fatal("expected hit before expiry")
	}

	time.Sleep(80 * time.Millisecond)

	if _, ok := pc.Get("key"); ok {
		t.Fatal("expected miss after expiry")
	}
}

func TestPageCacheClear(t *testing.T) {
	pc := NewPageCache(10, time.Minute)
	defer pc.Stop()

	pc.Set("a", []byte("1"), "text/html")
	pc.Set("b", []byte("2"), "text/html")
	pc.Clear()

	if _, ok := pc.Get("a"); ok {
		t.Fatal("expected miss after clear")
	}
	if pc.GetCachedSize() != 0 {
		t.Errorf("expected zero size after clear, got %d", pc.GetCachedSize())
	}
}

func TestPageCacheEviction(t *testing.T) {
	pc := NewPageCache(3, time.Minute)
	defer pc.Stop()

	for i := 0; i < 5; i++ {
		pc.Set(fmt.Sprintf("key%d", i), []byte("body"), "text/html")
	}

	stats := pc.GetStats()
	if stats["entries"].(int) > 3 {
		t.Errorf("expected at most 3 entries, got %v", stats["entries"])
	}
}

func TestPageCacheOverwrite(t *testing.T) {
	pc := NewPageCache(10, time.Minute)
	defer pc.Stop()

	pc.Set("key", []byte("first"), "text/html")
	pc.Set("key", []byte("second"), "text/html")

	entry, ok := pc.Get("key")
	if !ok {
		t.Fatal("expected hit")
	}
	if string(entry.Body) != "second" {
		t.Errorf("expected overwritten body, got %s", entry.Body)
	}
}
