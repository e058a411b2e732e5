package cache

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const StatsKey = "demo:stats"

// Stats keeps demo counters in a single redis hash.
type Stats struct {
	client *redis.Client
}

func NewStats(client *redis.Client) *Stats {
	return &Stats{client: client}
}

func (s *Stats) Incr(ctx context.Context, field string, by int64) error {
	return s.client.HIncrBy(ctx, StatsKey, field, by).Err()
}

func (s *Stats) All(ctx context.Context) (map[string]int64, error) {
	raw, err := s.client.HGetAll(ctx, StatsKey).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(raw))
	for field, value := range raw {
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			continue
		}
		out[field] = n
	}
	return out, nil
}
