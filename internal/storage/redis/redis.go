// Package redis provides a Redis-backed implementation of the storage.Store
// interface. Shares are stored as JSON under a prefixed key and expire
// through native key TTLs.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mmynk/warikan/internal/models"
	"github.com/mmynk/warikan/internal/storage"
)

const keyPrefix = "warikan:share:"

var _ storage.Store = (*Store)(nil)

// Store implements storage.Store on top of a Redis client.
type Store struct {
	client  *redis.Client
	now     func() time.Time
	newCode func() string
}

// New connects to the Redis server at url (redis://...) and pings it.
func New(ctx context.Context, url string) (*Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return NewFromClient(client), nil
}

// NewFromClient wraps an existing client. The store takes ownership and
// closes it on Close.
func NewFromClient(client *redis.Client) *Store {
	return &Store{client: client, now: time.Now, newCode: storage.NewCode}
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

// CreateShare stores the share with SETNX so an existing code is never
// overwritten. The key TTL follows share.ExpiresAt.
func (s *Store) CreateShare(ctx context.Context, share *models.Share) error {
	now := s.now()
	if share.CreatedAt == 0 {
		share.CreatedAt = now.Unix()
	}

	var ttl time.Duration
	if share.ExpiresAt != 0 {
		ttl = time.Unix(share.ExpiresAt, 0).Sub(now)
		if ttl <= 0 {
			return fmt.Errorf("share already expired at %d", share.ExpiresAt)
		}
	}

	explicit := share.Code != ""
	for i := 0; i < storage.MaxCodeAttempts; i++ {
		if !explicit {
			share.Code = s.newCode()
		}
		payload, err := json.Marshal(share)
		if err != nil {
			return fmt.Errorf("failed to encode share: %w", err)
		}
		ok, err := s.client.SetNX(ctx, keyPrefix+share.Code, payload, ttl).Result()
		if err != nil {
			return fmt.Errorf("failed to store share: %w", err)
		}
		if ok {
			return nil
		}
		if explicit {
			return fmt.Errorf("share code already in use: %s", share.Code)
		}
	}
	share.Code = ""
	return storage.ErrCodeExhausted
}

// GetShare loads a share by code.
func (s *Store) GetShare(ctx context.Context, code string) (*models.Share, error) {
	raw, err := s.client.Get(ctx, keyPrefix+code).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, code)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get share: %w", err)
	}

	share := &models.Share{}
	if err := json.Unmarshal(raw, share); err != nil {
		return nil, fmt.Errorf("failed to decode share: %w", err)
	}
	return share, nil
}

// DeleteExpired is a no-op; Redis drops expired keys on its own.
func (s *Store) DeleteExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}
