// Package store provides session storage backends for fishshop-bot.
//
// This file implements an SQLite-backed store for sessions.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "embed"

	_ "github.com/mattn/go-sqlite3"

	"fishshop-bot/internal/models"
)

// DefaultDirPermissions defines the permissions for created database directories.
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

// SQLiteStore keeps sessions in a local SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given DSN. The DSN is a
// file path; the containing directory is created if missing.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("sqlite ping failed: %w", err)
	}

	if _, err := db.Exec(sqliteMigrations); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied")

	return &SQLiteStore{db: db}, nil
}

// GetSession returns the session for a user, or (nil, nil) if absent.
func (s *SQLiteStore) GetSession(ctx context.Context, userID int64) (*models.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT user_id, state, cart_id, updated_at FROM sessions WHERE user_id = ?`, userID)
	return scanSession(row, userID)
}

// SaveSession stores or replaces the session for its user.
func (s *SQLiteStore) SaveSession(ctx context.Context, session models.Session) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (user_id, state, cart_id, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
		   state = excluded.state, cart_id = excluded.cart_id, updated_at = excluded.updated_at`,
		session.UserID, string(session.State), session.CartID, session.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save session %d: %w", session.UserID, err)
	}
	return nil
}

// DeleteSession removes a user's session.
func (s *SQLiteStore) DeleteSession(ctx context.Context, userID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to delete session %d: %w", userID, err)
	}
	return nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }
