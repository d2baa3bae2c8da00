package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

type doc struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func TestFetch_MissThenHit(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	loads := 0
	load := func(ctx context.Context) (doc, error) {
		loads++
		return doc{ID: "e1", Title: "Hackathon"}, nil
	}

	for i := 0; i < 3; i++ {
		got, err := Fetch(ctx, c, Key("event", "e1"), time.Minute, false, load)
		if err != nil {
			t.Fatalf("Fetch: %v", err)
		}
		if got.Title != "Hackathon" {
			t.Errorf("Title = %q", got.Title)
		}
	}
	if loads != 1 {
		t.Errorf("loads = %d, want 1", loads)
	}
}

func TestFetch_ForceRefreshBypassesCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	key := Key("event", "e1")
	if err := c.Set(ctx, key, doc{ID: "e1", Title: "stale"}, time.Minute); err != nil {
		t.Fatal(err)
	}

	got, err := Fetch(ctx, c, key, time.Minute, true, func(ctx context.Context) (doc, error) {
		return doc{ID: "e1", Title: "fresh"}, nil
	})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got.Title != "fresh" {
		t.Errorf("Title = %q, want fresh", got.Title)
	}

	var cached doc
	if ok, _ := c.Get(ctx, key, &cached); !ok || cached.Title != "fresh" {
		t.Errorf("cache not refreshed: %+v", cached)
	}
}

func TestFetch_LoadErrorNotCached(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	boom := errors.New("unavailable")

	_, err := Fetch(ctx, c, "k", time.Minute, false, func(ctx context.Context) (doc, error) {
		return doc{}, boom
	})
	if err != boom {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if c.Len() != 0 {
		t.Errorf("failed load was cached")
	}
}

type brokenCache struct{}

func (brokenCache) Get(context.Context, string, any) (bool, error) {
	return false, errors.New("redis down")
}
func (brokenCache) Set(context.Context, string, any, time.Duration) error {
	return errors.New("redis down")
}
func (brokenCache) Delete(context.Context, ...string) error { return errors.New("redis down") }

func TestFetch_CacheFailureFallsThrough(t *testing.T) {
	got, err := Fetch(context.Background(), brokenCache{}, "k", time.Minute, false,
		func(ctx context.Context) (doc, error) {
			return doc{ID: "x"}, nil
		})
	if err != nil || got.ID != "x" {
		t.Fatalf("Fetch() = %+v, %v", got, err)
	}
}

func TestMemory_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	now := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	if err := c.Set(ctx, "k", doc{ID: "a"}, time.Second); err != nil {
		t.Fatal(err)
	}
	var d doc
	if ok, _ := c.Get(ctx, "k", &d); !ok {
		t.Fatal("expected hit before expiry")
	}

	now = now.Add(2 * time.Second)
	if ok, _ := c.Get(ctx, "k", &d); ok {
		t.Error("expected miss after expiry")
	}
}
