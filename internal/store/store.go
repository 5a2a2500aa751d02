// Package store provides session storage backends for fishshop-bot.
//
// It includes an in-memory store for single-process runs and Redis, SQLite
// and PostgreSQL backends behind one interface, selected by DSN shape.
package store

import (
	"context"
	"strings"

	"fishshop-bot/internal/models"
)

// Store persists per-user conversation sessions. GetSession returns
// (nil, nil) when no session exists for the user.
type Store interface {
	GetSession(ctx context.Context, userID int64) (*models.Session, error)
	SaveSession(ctx context.Context, session models.Session) error
	DeleteSession(ctx context.Context, userID int64) error
	Close() error
}

// Opts holds store configuration options.
type Opts struct {
	DSN string
}

// Option configures store creation.
type Option func(*Opts)

// WithDSN sets the backend connection string.
func WithDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// Backend names returned by backendForDSN.
const (
	backendMemory   = "memory"
	backendRedis    = "redis"
	backendPostgres = "postgres"
	backendSQLite   = "sqlite"
)

// backendForDSN classifies a DSN string. An empty DSN selects the in-memory
// store; redis:// and postgres:// URLs select their engines; anything else is
// treated as an SQLite file path.
func backendForDSN(dsn string) string {
	switch {
	case dsn == "":
		return backendMemory
	case strings.HasPrefix(dsn, "redis://"), strings.HasPrefix(dsn, "rediss://"):
		return backendRedis
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return backendPostgres
	default:
		return backendSQLite
	}
}

// NewFromDSN creates the store backend matching the DSN shape.
func NewFromDSN(dsn string) (Store, error) {
	switch backendForDSN(dsn) {
	case backendMemory:
		return NewInMemoryStore(), nil
	case backendRedis:
		return NewRedisStore(WithDSN(dsn))
	case backendPostgres:
		return NewPostgresStore(WithDSN(dsn))
	default:
		return NewSQLiteStore(WithDSN(dsn))
	}
}
