package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Scheduler checkpoint keys. The runner persists window bounds here so the
// half-open window sequence stays contiguous across restarts.
const (
	KeySchedulerWindowEnd = "scheduler.window_end"
	KeyReminderWindowEnd  = "reminders.window_end"
	KeyOverdueLastFire    = "reminders.overdue_last_fire"
)

type SettingsStore struct {
	db *sql.DB
}

func NewSettingsStore(db *sql.DB) *SettingsStore {
	return &SettingsStore{db: db}
}

func (s *SettingsStore) Get(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, nil
}

func (s *SettingsStore) Set(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set setting %q: %w", key, err)
	}
	return nil
}

// GetTime reads an RFC3339 timestamp setting; the zero time and false when
// unset.
func (s *SettingsStore) GetTime(key string) (time.Time, bool, error) {
	value, err := s.Get(key)
	if err != nil || value == "" {
		return time.Time{}, false, err
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse setting %q: %w", key, err)
	}
	return t, true, nil
}

func (s *SettingsStore) SetTime(key string, t time.Time) error {
	return s.Set(key, t.UTC().Format(time.RFC3339Nano))
}
