package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// LeaderboardCache mirrors compete-mode scores into a Redis ZSET so the REST
// surface can serve leaderboards without touching live room state. The
// in-memory session stays authoritative; this is a best-effort projection.
type LeaderboardCache interface {
	UpdateScore(ctx context.Context, roomCode, name string, score int) error
	GetTop(ctx context.Context, roomCode string, limit int) ([]LeaderboardEntry, error)
	Clear(ctx context.Context, roomCode string) error
}

// LeaderboardEntry represents a single leaderboard entry
type LeaderboardEntry struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
	Rank  int    `json:"rank"`
}

type leaderboardCache struct {
	client *redis.Client
}

// NewLeaderboardCache creates a new leaderboard cache
func NewLeaderboardCache(client *redis.Client) LeaderboardCache {
	return &leaderboardCache{
		client: client,
	}
}

func (c *leaderboardCache) key(roomCode string) string {
	return fmt.Sprintf("room:%s:lb", roomCode)
}

func (c *leaderboardCache) UpdateScore(ctx context.Context, roomCode, name string, score int) error {
	return c.client.ZAdd(ctx, c.key(roomCode), redis.Z{
		Score:  float64(score),
		Member: name,
	}).Err()
}

func (c *leaderboardCache) GetTop(ctx context.Context, roomCode string, limit int) ([]LeaderboardEntry, error) {
	results, err := c.client.ZRevRangeWithScores(ctx, c.key(roomCode), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, len(results))
	for i, z := range results {
		entries[i] = LeaderboardEntry{
			Name:  z.Member.(string),
			Score: int(z.Score),
			Rank:  i + 1,
		}
	}
	return entries, nil
}

func (c *leaderboardCache) Clear(ctx context.Context, roomCode string) error {
	return c.client.Del(ctx, c.key(roomCode)).Err()
}
