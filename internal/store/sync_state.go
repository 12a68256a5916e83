package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Sync state keys
const (
	KeyLastActivitySync = "last_activity_sync" // RFC3339
	KeyLastPlanSport    = "last_plan_sport"
)

// GetSyncState returns the value stored under key, or "" when unset
func (db *DB) GetSyncState(ctx context.Context, key string) (string, error) {
	var value string
	err := db.QueryRowContext(ctx, `SELECT value FROM sync_state WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

// SetSyncState sets a sync state value
func (db *DB) SetSyncState(ctx context.Context, key, value string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO sync_state (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP
	`, key, value)
	return err
}

// LastSync returns the time of the last completed activity sync, zero if never
func (db *DB) LastSync(ctx context.Context) (time.Time, error) {
	v, err := db.GetSyncState(ctx, KeyLastActivitySync)
	if err != nil || v == "" {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339, v)
}
