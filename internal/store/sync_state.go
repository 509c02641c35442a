package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// KeyLastRefresh records when remote activities were last fetched
const KeyLastRefresh = "last_refresh"

// GetSyncState retrieves a sync state value by key
// Returns empty string if key doesn't exist
func (db *DB) GetSyncState(ctx context.Context, key string) (string, error) {
	var value string
	err := db.QueryRowContext(ctx, `
		SELECT value FROM sync_state WHERE key = ?
	`, key).Scan(&value)

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

// LastRefresh returns the time of the last successful remote refresh,
// or the zero time if none happened yet
func (db *DB) LastRefresh(ctx context.Context) (time.Time, error) {
	value, err := db.GetSyncState(ctx, KeyLastRefresh)
	if err != nil || value == "" {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339, value)
}

// MarkRefreshed stores t as the last refresh time
func (db *DB) MarkRefreshed(ctx context.Context, t time.Time) error {
	return db.SetSyncState(ctx, KeyLastRefresh, t.UTC().Format(time.RFC3339))
}
