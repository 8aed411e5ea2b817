package metadata

import (
	"testing"
	"time"

	"github.com/filmscout/filmscout/internal/movie"
)

// newClockedCache returns a cache whose clock the test advances by hand.
func newClockedCache(ttl time.Duration, maxItems int) (*Cache, *time.Time) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	cache := NewCache(CacheConfig{TTL: ttl, MaxItems: maxItems})
	cache.now = func() time.Time { return now }
	return cache, &now
}

func TestCache_SetGet(t *testing.T) {
	cache := NewCache(CacheConfig{TTL: time.Minute, MaxItems: 100})

	cache.Set("key1", "value1")

	val, ok := cache.Get("key1")
	if !ok {
		t.Error("expected key1 to exist")
	}
	if val != "value1" {
		t.Errorf("expected value1, got %v", val)
	}
}

func TestCache_GetMissing(t *testing.T) {
	cache := NewCache(CacheConfig{TTL: time.Minute, MaxItems: 100})

	_, ok := cache.Get("nonexistent")
	if ok {
		t.Error("expected key to not exist")
	}
}

func TestCache_Expiration(t *testing.T) {
	cache, now := newClockedCache(time.Minute, 100)

	cache.Set("key1", "value1")

	if _, ok := cache.Get("key1"); !ok {
		t.Error("expected key1 to exist immediately")
	}

	*now = now.Add(61 * time.Second)

	if _, ok := cache.Get("key1"); ok {
		t.Error("expected key1 to be expired")
	}
}

func TestCache_SetWithTTL(t *testing.T) {
	cache, now := newClockedCache(time.Hour, 100)

	cache.SetWithTTL("key1", "value1", time.Second)

	if _, ok := cache.Get("key1"); !ok {
		t.Error("expected key1 to exist immediately")
	}

	*now = now.Add(2 * time.Second)

	if _, ok := cache.Get("key1"); ok {
		t.Error("expected key1 to be expired with custom TTL")
	}
}

func TestCache_Delete(t *testing.T) {
	cache := NewCache(CacheConfig{TTL: time.Minute, MaxItems: 100})

	cache.Set("key1", "value1")
	cache.Delete("key1")

	if _, ok := cache.Get("key1"); ok {
		t.Error("expected key1 to be deleted")
	}
}

func TestCache_Clear(t *testing.T) {
	cache := NewCache(CacheConfig{TTL: time.Minute, MaxItems: 100})

	cache.Set("key1", "value1")
	cache.Set("key2", "value2")
	cache.Clear()

	if cache.Len() != 0 {
		t.Errorf("expected cache to be empty, got %d items", cache.Len())
	}
}

func TestCache_Purge(t *testing.T) {
	cache, now := newClockedCache(time.Minute, 100)

	cache.Set("old", 1)
	*now = now.Add(30 * time.Second)
	cache.Set("new", 2)
	*now = now.Add(45 * time.Second)

	if removed := cache.Purge(); removed != 1 {
		t.Errorf("Purge() = %d, want 1", removed)
	}
	if cache.Len() != 1 {
		t.Errorf("expected 1 item, got %d", cache.Len())
	}
	if _, ok := cache.Get("new"); !ok {
		t.Error("expected unexpired key to survive purge")
	}
}

func TestCache_Eviction(t *testing.T) {
	cache := NewCache(CacheConfig{TTL: time.Minute, MaxItems: 5})

	for i := 0; i < 10; i++ {
		cache.Set(string(rune('a'+i)), i)
	}

	if cache.Len() > 5 {
		t.Errorf("expected at most 5 items, got %d", cache.Len())
	}
}

func TestCache_EvictionPrefersExpired(t *testing.T) {
	cache, now := newClockedCache(time.Minute, 3)

	cache.SetWithTTL("stale", 0, time.Second)
	cache.Set("a", 1)
	cache.Set("b", 2)
	*now = now.Add(2 * time.Second)

	cache.Set("c", 3)

	for _, key := range []string{"a", "b", "c"} {
		if _, ok := cache.Get(key); !ok {
			t.Errorf("expected %q to survive eviction", key)
		}
	}
	if cache.Len() != 3 {
		t.Errorf("expected 3 items, got %d", cache.Len())
	}
}

func TestCache_GetRecords(t *testing.T) {
	cache := NewCache(CacheConfig{TTL: time.Minute, MaxItems: 100})

	records := []movie.Record{{Title: "Movie 1"}, {Title: "Movie 2"}}
	cache.Set("movie:search:test", records)

	got, ok := cache.GetRecords("movie:search:test")
	if !ok {
		t.Fatal("expected records to exist")
	}
	if len(got) != 2 || got[1].Title != "Movie 2" {
		t.Errorf("unexpected records %+v", got)
	}
}

func TestCache_TypeMismatch(t *testing.T) {
	cache := NewCache(CacheConfig{TTL: time.Minute, MaxItems: 100})

	cache.Set("key", "not records")

	if _, ok := cache.GetRecords("key"); ok {
		t.Error("expected GetRecords to reject a string value")
	}
}
