package state

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/crashteamdev/ke-data-scrapper/internal/domain"

	"github.com/redis/go-redis/v9"
)

// CursorStore persists crawl progress per category id. Only offset and
// totalProcessed cross a process restart.
type CursorStore interface {
	Load(ctx context.Context, categoryID int64) (offset int64, totalProcessed int64, err error)
	Save(ctx context.Context, cursor *domain.PageCursor) error
	Clear(ctx context.Context, categoryID int64) error
}

// SeenSet is the dedup gate for product emission within one crawl epoch.
// Add is atomic: the first caller for an id wins, concurrent duplicates lose.
type SeenSet interface {
	Add(ctx context.Context, productID int64) (bool, error)
	Reset(ctx context.Context) error
}

const (
	cursorKeyPrefix = "ke:progress:cursor:"
	seenProductsKey = "ke:product:seen"
)

type redisCursorStore struct {
	redisClient *redis.Client
	keyPrefix   string
}

func NewRedisCursorStore(redisClient *redis.Client) CursorStore {
	return &redisCursorStore{
		redisClient: redisClient,
		keyPrefix:   cursorKeyPrefix,
	}
}

type persistedCursor struct {
	Offset         int64 `json:"offset"`
	TotalProcessed int64 `json:"totalProcessed"`
}

func (s *redisCursorStore) Load(ctx context.Context, categoryID int64) (int64, int64, error) {
	key := s.keyPrefix + strconv.FormatInt(categoryID, 10)
	val, err := s.redisClient.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, 0, nil // no progress saved yet
		}
		return 0, 0, fmt.Errorf("failed to load cursor for category %d: %w", categoryID, err)
	}

	var cursor persistedCursor
	if err := json.Unmarshal([]byte(val), &cursor); err != nil {
		return 0, 0, fmt.Errorf("failed to decode cursor for category %d: %w", categoryID, err)
	}

	return cursor.Offset, cursor.TotalProcessed, nil
}

func (s *redisCursorStore) Save(ctx context.Context, cursor *domain.PageCursor) error {
	key := s.keyPrefix + strconv.FormatInt(cursor.CategoryID, 10)
	data, err := json.Marshal(persistedCursor{
		Offset:         cursor.Offset,
		TotalProcessed: cursor.TotalProcessed,
	})
	if err != nil {
		return fmt.Errorf("failed to encode cursor for category %d: %w", cursor.CategoryID, err)
	}
	if err := s.redisClient.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save cursor for category %d: %w", cursor.CategoryID, err)
	}
	return nil
}

func (s *redisCursorStore) Clear(ctx context.Context, categoryID int64) error {
	key := s.keyPrefix + strconv.FormatInt(categoryID, 10)
	if err := s.redisClient.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to clear cursor for category %d: %w", categoryID, err)
	}
	return nil
}

type redisSeenSet struct {
	redisClient *redis.Client
	key         string
}

func NewRedisSeenSet(redisClient *redis.Client) SeenSet {
	return &redisSeenSet{
		redisClient: redisClient,
		key:         seenProductsKey,
	}
}

func (s *redisSeenSet) Add(ctx context.Context, productID int64) (bool, error) {
	field := strconv.FormatInt(productID, 10)
	first, err := s.redisClient.HSetNX(ctx, s.key, field, time.Now().UnixMilli()).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark product %d as seen: %w", productID, err)
	}
	return first, nil
}

func (s *redisSeenSet) Reset(ctx context.Context) error {
	if err := s.redisClient.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("failed to reset seen products: %w", err)
	}
	return nil
}
