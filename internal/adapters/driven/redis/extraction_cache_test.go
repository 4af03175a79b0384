package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/carbonledger/verify-core/internal/core/domain"
)

// setupTestCache creates a test Redis client and ExtractionCache
func setupTestCache(t *testing.T, ttl time.Duration) (*ExtractionCache, *miniredis.Miniredis, func()) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	cache := NewExtractionCache(client, ttl)

	return cache, mr, func() {
		client.Close()
		mr.Close()
	}
}

func testSnippets() []domain.EvidenceSnippet {
	return []domain.EvidenceSnippet{
		{
			ID:         "snip-1",
			Text:       "The project commenced on 2022-01-15.",
			Confidence: 0.9,
			Source:     domain.SourceRef{DocumentID: "pdd", Page: 3},
			StructuredFields: map[string]domain.TypedValue{
				"project_start_date": domain.NewDateValue(
					"project_start_date",
					time.Date(2022, 1, 15, 0, 0, 0, 0, time.UTC),
					"The project commenced on 2022-01-15.", 0.9),
			},
		},
	}
}

func TestExtractionCache_SetAndGet(t *testing.T) {
	cache, _, cleanup := setupTestCache(t, 0)
	defer cleanup()

	ctx := context.Background()
	key := domain.CacheKey(domain.ContentHash("doc body"), "req-1", domain.StrategyTypedField)

	if err := cache.Set(ctx, key, testSnippets()); err != nil {
		t.Fatalf("unexpected error setting cache: %v", err)
	}

	got, ok, err := cache.Get(ctx, key)
	if err != nil {
		t.Fatalf("unexpected error getting cache: %v", err)
	}
	if !ok {
		t.Fatal("expected cache hit")
	}
	if len(got) != 1 || got[0].ID != "snip-1" {
		t.Errorf("unexpected cached snippets: %+v", got)
	}

	value, found := got[0].StructuredFields["project_start_date"]
	if !found {
		t.Fatal("expected structured field to survive the round trip")
	}
	if value.Date == nil || !value.Date.Equal(time.Date(2022, 1, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected date value: %+v", value)
	}
}

func TestExtractionCache_MissIsNotAnError(t *testing.T) {
	cache, _, cleanup := setupTestCache(t, 0)
	defer cleanup()

	_, ok, err := cache.Get(context.Background(), "no-such-key")
	if err != nil {
		t.Fatalf("unexpected error on miss: %v", err)
	}
	if ok {
		t.Error("expected cache miss")
	}
}

func TestExtractionCache_EntriesExpire(t *testing.T) {
	cache, mr, cleanup := setupTestCache(t, time.Minute)
	defer cleanup()

	ctx := context.Background()
	if err := cache.Set(ctx, "key-1", testSnippets()); err != nil {
		t.Fatalf("unexpected error setting cache: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	_, ok, err := cache.Get(ctx, "key-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected entry to have expired")
	}
}

func TestExtractionCache_StrategyKeysAreDistinct(t *testing.T) {
	cache, _, cleanup := setupTestCache(t, 0)
	defer cleanup()

	ctx := context.Background()
	hash := domain.ContentHash("doc body")

	typedKey := domain.CacheKey(hash, "req-1", domain.StrategyTypedField)
	crossKey := domain.CacheKey(hash, "req-1", domain.StrategyCrossDocument)

	if err := cache.Set(ctx, typedKey, testSnippets()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, ok, err := cache.Get(ctx, crossKey)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected miss for the same requirement under a different strategy")
	}
}

func TestExtractionCache_Ping(t *testing.T) {
	cache, _, cleanup := setupTestCache(t, 0)
	defer cleanup()

	if err := cache.Ping(context.Background()); err != nil {
		t.Errorf("expected ping to succeed, got %v", err)
	}
}
