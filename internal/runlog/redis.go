package runlog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the newest runs in a capped list.
type RedisStore struct {
	client redis.Cmdable
	key    string
	max    int64
}

func NewRedisStore(client redis.Cmdable, key string) *RedisStore {
	if key == "" {
		key = "profileai:runs"
	}
	return &RedisStore{client: client, key: key, max: MaxLimit}
}

func (s *RedisStore) Record(ctx context.Context, run Run) error {
	payload, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("runlog: encode run: %w", err)
	}
	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, s.key, payload)
	pipe.LTrim(ctx, s.key, 0, s.max-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("runlog: push run: %w", err)
	}
	return nil
}

func (s *RedisStore) Recent(ctx context.Context, limit int) ([]Run, error) {
	items, err := s.client.LRange(ctx, s.key, 0, int64(ClampLimit(limit))-1).Result()
	if err != nil {
		return nil, fmt.Errorf("runlog: read runs: %w", err)
	}
	runs := make([]Run, 0, len(items))
	for _, item := range items {
		var run Run
		if err := json.Unmarshal([]byte(item), &run); err != nil {
			continue
		}
		runs = append(runs, run)
	}
	return runs, nil
}

var _ Store = (*RedisStore)(nil)
