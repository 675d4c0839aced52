package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T) LeaderboardCache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewLeaderboardCache(client)
}

func TestLeaderboardRanking(t *testing.T) {
	ctx := context.Background()
	lb := newTestCache(t)

	if err := lb.UpdateScore(ctx, "ABC123", "ada", 3); err != nil {
		t.Fatalf("UpdateScore: %v", err)
	}
	if err := lb.UpdateScore(ctx, "ABC123", "grace", 5); err != nil {
		t.Fatalf("UpdateScore: %v", err)
	}
	if err := lb.UpdateScore(ctx, "ABC123", "edsger", 1); err != nil {
		t.Fatalf("UpdateScore: %v", err)
	}

	entries, err := lb.GetTop(ctx, "ABC123", 10)
	if err != nil {
		t.Fatalf("GetTop: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	if entries[0].Name != "grace" || entries[0].Score != 5 || entries[0].Rank != 1 {
		t.Errorf("top entry = %+v", entries[0])
	}
	if entries[2].Name != "edsger" || entries[2].Rank != 3 {
		t.Errorf("bottom entry = %+v", entries[2])
	}
}

func TestLeaderboardUpdateReplacesScore(t *testing.T) {
	ctx := context.Background()
	lb := newTestCache(t)

	lb.UpdateScore(ctx, "ABC123", "ada", 1)
	lb.UpdateScore(ctx, "ABC123", "ada", 4)

	entries, err := lb.GetTop(ctx, "ABC123", 10)
	if err != nil {
		t.Fatalf("GetTop: %v", err)
	}
	if len(entries) != 1 || entries[0].Score != 4 {
		t.Errorf("entries = %+v, want one entry with score 4", entries)
	}
}

func TestLeaderboardRoomsAreIsolated(t *testing.T) {
	ctx := context.Background()
	lb := newTestCache(t)

	lb.UpdateScore(ctx, "ROOM01", "ada", 2)
	lb.UpdateScore(ctx, "ROOM02", "grace", 7)

	entries, err := lb.GetTop(ctx, "ROOM01", 10)
	if err != nil {
		t.Fatalf("GetTop: %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "ada" {
		t.Errorf("entries = %+v, want ada only", entries)
	}
}

func TestLeaderboardClear(t *testing.T) {
	ctx := context.Background()
	lb := newTestCache(t)

	lb.UpdateScore(ctx, "ABC123", "ada", 2)
	if err := lb.Clear(ctx, "ABC123"); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	entries, err := lb.GetTop(ctx, "ABC123", 10)
	if err != nil {
		t.Fatalf("GetTop: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("entries = %+v, want empty after clear", entries)
	}
}
