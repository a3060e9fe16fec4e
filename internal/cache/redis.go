package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"detection-dashboard/internal/models"

	"github.com/go-redis/redis/v8"
)

const (
	usersKey          = "dashboard:users"
	recentActionsKey  = "dashboard:actions:recent"
	defaultMaxActions = 1000
)

type RedisClient struct {
	client     *redis.Client
	maxActions int64
}

func NewRedisClient(opts *redis.Options, maxActions int64) (*RedisClient, error) {
	if opts.PoolSize == 0 {
		opts.PoolSize = 20
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	if maxActions <= 0 {
		maxActions = defaultMaxActions
	}
	return &RedisClient{
		client:     client,
		maxActions: maxActions,
	}, nil
}

// StoreUsers caches the user directory for ttl.
func (r *RedisClient) StoreUsers(ctx context.Context, users []models.UserProfile, ttl time.Duration) error {
	data, err := json.Marshal(users)
	if err != nil {
		return fmt.Errorf("failed to marshal users: %w", err)
	}

	if err := r.client.Set(ctx, usersKey, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store users in Redis: %w", err)
	}
	return nil
}

// GetUsers returns the cached user directory. ok is false on a cache miss.
func (r *RedisClient) GetUsers(ctx context.Context) (users []models.UserProfile, ok bool, err error) {
	data, err := r.client.Get(ctx, usersKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get users from Redis: %w", err)
	}

	if err := json.Unmarshal(data, &users); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cached users: %w", err)
	}
	return users, true, nil
}

// StoreAction pushes an action onto the recent list, keeping the newest
// maxActions entries.
func (r *RedisClient) StoreAction(ctx context.Context, action models.Action) error {
	data, err := json.Marshal(action)
	if err != nil {
		return fmt.Errorf("failed to marshal action: %w", err)
	}

	if err := r.client.LPush(ctx, recentActionsKey, data).Err(); err != nil {
		return fmt.Errorf("failed to update recent actions list: %w", err)
	}

	return r.client.LTrim(ctx, recentActionsKey, 0, r.maxActions-1).Err()
}

// GetRecentActions returns up to count actions, newest first.
func (r *RedisClient) GetRecentActions(ctx context.Context, count int64) ([]models.Action, error) {
	if count <= 0 {
		count = 10
	}
	items, err := r.client.LRange(ctx, recentActionsKey, 0, count-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get recent actions: %w", err)
	}

	actions := make([]models.Action, 0, len(items))
	for _, item := range items {
		var action models.Action
		if err := json.Unmarshal([]byte(item), &action); err != nil {
			continue
		}
		actions = append(actions, action)
	}

	return actions, nil
}

func (r *RedisClient) Close() error {
	return r.client.Close()
}
