package stream

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisSink appends records to a Redis stream with approximate MAXLEN
// trimming so the retained length stays bounded per stream key.
type RedisSink struct {
	redisClient *redis.Client
	streamKey   string
	maxLen      int64
}

func NewRedisSink(redisClient *redis.Client, streamKey string, maxLen int64) *RedisSink {
	return &RedisSink{
		redisClient: redisClient,
		streamKey:   streamKey,
		maxLen:      maxLen,
	}
}

func (s *RedisSink) Publish(ctx context.Context, records []Record) error {
	for _, record := range records {
		err := s.redisClient.XAdd(ctx, &redis.XAddArgs{
			Stream: s.streamKey,
			MaxLen: s.maxLen,
			Approx: true,
			Values: map[string]interface{}{
				"partKey": record.PartitionKey,
				"payload": record.Data,
			},
		}).Err()
		if err != nil {
			return fmt.Errorf("failed to append to Redis stream %s: %w", s.streamKey, err)
		}
	}
	return nil
}

func (s *RedisSink) Name() string {
	return "redis-stream:" + s.streamKey
}
