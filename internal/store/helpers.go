package store

import (
	"database/sql"
	"errors"
	"fmt"

	"fishshop-bot/internal/models"
)

// scanSession scans one session row. A missing row maps to (nil, nil), the
// interface's "no session" result.
func scanSession(row *sql.Row, userID int64) (*models.Session, error) {
	var session models.Session
	var state string
	err := row.Scan(&session.UserID, &state, &session.CartID, &session.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan session %d: %w", userID, err)
	}
	session.State = models.State(state)
	return &session, nil
}
