// Package store provides session storage backends for fishshop-bot.
//
// This file implements a Redis-backed store. Sessions are stored as opaque
// JSON blobs, one key per user; Redis is never inspected beyond get/set/del.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"fishshop-bot/internal/models"
)

const sessionKeyPrefix = "fishshop:session:"

// RedisStore keeps sessions in Redis so they survive process restarts.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis store from a redis:// DSN and verifies the
// connection with a ping.
func NewRedisStore(opts ...Option) (*RedisStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewRedisStore invoked", "DSN_set", cfg.DSN != "")
	if cfg.DSN == "" {
		return nil, fmt.Errorf("redis DSN not set")
	}

	redisOpts, err := redis.ParseURL(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse redis DSN: %w", err)
	}

	client := redis.NewClient(redisOpts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	slog.Debug("Redis connection established")

	return &RedisStore{client: client}, nil
}

func sessionKey(userID int64) string {
	return fmt.Sprintf("%s%d", sessionKeyPrefix, userID)
}

// GetSession returns the session for a user, or (nil, nil) if absent.
func (s *RedisStore) GetSession(ctx context.Context, userID int64) (*models.Session, error) {
	raw, err := s.client.Get(ctx, sessionKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session %d: %w", userID, err)
	}

	var session models.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("decode session %d: %w", userID, err)
	}
	return &session, nil
}

// SaveSession stores or replaces the session for its user.
func (s *RedisStore) SaveSession(ctx context.Context, session models.Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session %d: %w", session.UserID, err)
	}
	if err := s.client.Set(ctx, sessionKey(session.UserID), raw, 0).Err(); err != nil {
		return fmt.Errorf("save session %d: %w", session.UserID, err)
	}
	return nil
}

// DeleteSession removes a user's session.
func (s *RedisStore) DeleteSession(ctx context.Context, userID int64) error {
	if err := s.client.Del(ctx, sessionKey(userID)).Err(); err != nil {
		return fmt.Errorf("delete session %d: %w", userID, err)
	}
	return nil
}

// Close releases the Redis connection.
func (s *RedisStore) Close() error { return s.client.Close() }
