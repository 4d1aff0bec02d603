package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sadopc/sheetr/internal/timer"
)

// LoadTimer returns the running session for userID, or nil.
func (s *Store) LoadTimer(ctx context.Context, userID string) (*timer.Session, error) {
	var startedAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT started_at FROM timer_sessions WHERE user_id = ?`, userID,
	).Scan(&startedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load timer: %w", err)
	}
	return &timer.Session{UserID: userID, StartedAt: parseTime(startedAt)}, nil
}

// SaveTimer persists a session. A second session for the same user is
// refused with timer.ErrAlreadyRunning.
func (s *Store) SaveTimer(ctx context.Context, sess timer.Session) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO timer_sessions (user_id, started_at) VALUES (?, ?) ON CONFLICT(user_id) DO NOTHING`,
		sess.UserID, formatTime(sess.StartedAt),
	)
	if err != nil {
		return fmt.Errorf("save timer: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return timer.ErrAlreadyRunning
	}
	return nil
}

func (s *Store) ClearTimer(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM timer_sessions WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("clear timer: %w", err)
	}
	return nil
}
