package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"restopos/internal/domain"
)

// RedisDrafts черновики сессий в Redis с TTL, чтобы касса пережила рестарт
type RedisDrafts struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ DraftStore = (*RedisDrafts)(nil)

func NewRedisDrafts(addr, prefix string, ttl time.Duration) *RedisDrafts {
	return NewRedisDraftsFromClient(redis.NewClient(&redis.Options{Addr: addr}), prefix, ttl)
}

func NewRedisDraftsFromClient(client *redis.Client, prefix string, ttl time.Duration) *RedisDrafts {
	return &RedisDrafts{client: client, prefix: prefix, ttl: ttl}
}

func (r *RedisDrafts) key(sessionID string) string {
	return fmt.Sprintf("%s:draft:%s", r.prefix, sessionID)
}

func (r *RedisDrafts) SaveDraft(ctx context.Context, sessionID string, o domain.Order) error {
	body, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("failed to encode draft: %w", err)
	}
	return r.client.Set(ctx, r.key(sessionID), body, r.ttl).Err()
}

func (r *RedisDrafts) LoadDraft(ctx context.Context, sessionID string) (*domain.Order, error) {
	body, err := r.client.Get(ctx, r.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var o domain.Order
	if err := json.Unmarshal(body, &o); err != nil {
		return nil, fmt.Errorf("failed to decode draft %s: %w", sessionID, err)
	}
	return &o, nil
}

func (r *RedisDrafts) DeleteDraft(ctx context.Context, sessionID string) error {
	return r.client.Del(ctx, r.key(sessionID)).Err()
}

func (r *RedisDrafts) Ping(ctx context.Context) error { return r.client.Ping(ctx).Err() }

func (r *RedisDrafts) Close() error { return r.client.Close() }
