package queue

import (
	"context"
	"database/sql"
	"fmt"
)

// GetSetting returns the value for key, or (false) if unset.
func (s *Store) GetSetting(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, true, nil
}

// SetSetting upserts a key/value pair.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("set setting %q: %w", key, err)
	}
	return nil
}

// ActiveModeKey is the settings key for the operator-facing active-mode flag.
const ActiveModeKey = "active_mode"

// GetActiveMode returns the active_mode setting, defaulting to true when unset.
func (s *Store) GetActiveMode(ctx context.Context) (bool, error) {
	value, ok, err := s.GetSetting(ctx, ActiveModeKey)
	if err != nil {
		return false, err
	}
	if !ok {
		return true, nil
	}
	return value == "true", nil
}

// SetActiveMode persists the active_mode setting.
func (s *Store) SetActiveMode(ctx context.Context, active bool) error {
	value := "false"
	if active {
		value = "true"
	}
	return s.SetSetting(ctx, ActiveModeKey, value)
}
