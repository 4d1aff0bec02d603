package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/sadopc/sheetr/internal/timesheet"
)

const (
	settingAllowFuture = "allow_future_timesheets"
	settingRootLevel   = "root_level_users"
)

func (s *Store) getSetting(ctx context.Context, q querier, key string) (string, error) {
	var value string
	err := q.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, nil
}

func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	return s.getSetting(ctx, s.db, key)
}

func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set setting %q: %w", key, err)
	}
	return nil
}

func (s *Store) GetAllSettings(ctx context.Context) ([]Setting, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	var settings []Setting
	for rows.Next() {
		var s Setting
		if err := rows.Scan(&s.Key, &s.Value); err != nil {
			return nil, err
		}
		settings = append(settings, s)
	}
	return settings, rows.Err()
}

func (s *Store) futureDatePolicy(ctx context.Context, q querier) (bool, error) {
	v, err := s.getSetting(ctx, q, settingAllowFuture)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	allow, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("setting %q: %w", settingAllowFuture, err)
	}
	return allow, nil
}

// FutureDatePolicy reports whether entries may be dated after today.
func (s *Store) FutureDatePolicy(ctx context.Context) (bool, error) {
	return s.futureDatePolicy(ctx, s.db)
}

func (s *Store) SetFutureDatePolicy(ctx context.Context, allow bool) error {
	return s.SetSetting(ctx, settingAllowFuture, strconv.FormatBool(allow))
}

func (s *Store) rootLevelUsers(ctx context.Context, q querier) ([]string, error) {
	v, err := s.getSetting(ctx, q, settingRootLevel)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var users []string
	for _, u := range strings.Split(v, ",") {
		if u = strings.TrimSpace(u); u != "" {
			users = append(users, u)
		}
	}
	return users, nil
}

// RootLevelUsers lists the users allowed to auto-approve their own entries.
func (s *Store) RootLevelUsers(ctx context.Context) ([]string, error) {
	return s.rootLevelUsers(ctx, s.db)
}

func (s *Store) isRootLevel(ctx context.Context, q querier, userID string) (bool, error) {
	users, err := s.rootLevelUsers(ctx, q)
	if err != nil {
		return false, err
	}
	return slices.Contains(users, userID), nil
}

// SetRootLevel grants or revokes root-level privilege for userID.
func (s *Store) SetRootLevel(ctx context.Context, userID string, enabled bool) error {
	userID = strings.TrimSpace(userID)
	if userID == "" || strings.Contains(userID, ",") {
		return fmt.Errorf("invalid user id %q", userID)
	}

	users, err := s.RootLevelUsers(ctx)
	if err != nil {
		return err
	}
	users = slices.DeleteFunc(users, func(u string) bool { return u == userID })
	if enabled {
		users = append(users, userID)
	}
	slices.Sort(users)
	return s.SetSetting(ctx, settingRootLevel, strings.Join(users, ","))
}

// RootLevelStatus returns userID's eligibility and SUBMITTED entry count.
func (s *Store) RootLevelStatus(ctx context.Context, userID string) (timesheet.RootLevelStatus, error) {
	var st timesheet.RootLevelStatus

	eligible, err := s.isRootLevel(ctx, s.db, userID)
	if err != nil {
		return st, err
	}
	st.Eligible = eligible

	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM timesheet_entries WHERE user_id = ? AND status = 'SUBMITTED'`, userID,
	).Scan(&st.PendingCount)
	if err != nil {
		return st, fmt.Errorf("count pending: %w", err)
	}
	return st, nil
}
