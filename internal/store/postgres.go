// Package store provides session storage backends for fishshop-bot.
//
// This file implements a PostgreSQL-backed store for sessions.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	_ "github.com/lib/pq"

	"fishshop-bot/internal/models"
)

// Database connection pool configuration constants.
const (
	// DefaultMaxOpenConns is the maximum number of open connections to the database.
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the maximum number of idle connections in the pool.
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the maximum amount of time a connection may be reused.
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

// PostgresStore keeps sessions in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewPostgresStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open Postgres connection: %w", err)
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}

	if _, err := db.Exec(postgresMigrations); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied")

	return &PostgresStore{db: db}, nil
}

// GetSession returns the session for a user, or (nil, nil) if absent.
func (s *PostgresStore) GetSession(ctx context.Context, userID int64) (*models.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT user_id, state, cart_id, updated_at FROM sessions WHERE user_id = $1`, userID)
	return scanSession(row, userID)
}

// SaveSession stores or replaces the session for its user.
func (s *PostgresStore) SaveSession(ctx context.Context, session models.Session) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (user_id, state, cart_id, updated_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id) DO UPDATE SET
		   state = excluded.state, cart_id = excluded.cart_id, updated_at = excluded.updated_at`,
		session.UserID, string(session.State), session.CartID, session.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save session %d: %w", session.UserID, err)
	}
	return nil
}

// DeleteSession removes a user's session.
func (s *PostgresStore) DeleteSession(ctx context.Context, userID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete session %d: %w", userID, err)
	}
	return nil
}

// Close releases the database handle.
func (s *PostgresStore) Close() error { return s.db.Close() }
