package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"adaptive-dice-backend/internal/config"
	"adaptive-dice-backend/internal/models"

	"github.com/redis/go-redis/v9"
)

var ErrRateLimited = errors.New("rate limit exceeded")

// RedisService keeps the short-lived, shared bookkeeping around tables:
// request rate limits and each table's recent activity feed. Engine state
// never lives here.
type RedisService struct {
	client *redis.Client
}

func NewRedisService(ctx context.Context, cfg *config.Config) (*RedisService, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})

	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisService{client: client}, nil
}

func (s *RedisService) Close() error {
	return s.client.Close()
}

// RecordEvent pushes event onto its table's feed, keeping the newest
// MaxFeedEntries entries.
func (s *RedisService) RecordEvent(ctx context.Context, event *models.RollEvent) error {
	key := fmt.Sprintf(KeyTableRolls, event.TableID)

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal roll event: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, MaxFeedEntries-1)
	pipe.Expire(ctx, key, TTLTableRolls)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record roll event: %w", err)
	}
	return nil
}

// RecentEvents returns up to limit events for a table, newest first.
func (s *RedisService) RecentEvents(ctx context.Context, tableID string, limit int64) ([]*models.RollEvent, error) {
	if limit <= 0 || limit > MaxFeedEntries {
		limit = 50
	}

	key := fmt.Sprintf(KeyTableRolls, tableID)
	items, err := s.client.LRange(ctx, key, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get roll events: %w", err)
	}

	events := make([]*models.RollEvent, 0, len(items))
	for _, item := range items {
		var event models.RollEvent
		if err := json.Unmarshal([]byte(item), &event); err != nil {
			continue
		}
		events = append(events, &event)
	}
	return events, nil
}

// DeleteEvents drops a table's feed.
func (s *RedisService) DeleteEvents(ctx context.Context, tableID string) error {
	key := fmt.Sprintf(KeyTableRolls, tableID)
	return s.client.Del(ctx, key).Err()
}

// CheckRateLimit counts one request for subject/action in a fixed window
// and reports whether it is within limit.
func (s *RedisService) CheckRateLimit(ctx context.Context, subject, action string, limit int, window time.Duration) (bool, error) {
	key := fmt.Sprintf(KeyRateLimit, subject, action)

	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit: %w", err)
	}

	if count == 1 {
		s.client.Expire(ctx, key, window)
	}

	return count <= int64(limit), nil
}

func (s *RedisService) ClearRateLimit(ctx context.Context, subject, action string) error {
	key := fmt.Sprintf(KeyRateLimit, subject, action)
	return s.client.Del(ctx, key).Err()
}
