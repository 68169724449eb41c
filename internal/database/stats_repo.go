package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// StatLastCheck is the stat name holding the last poll timestamp
const StatLastCheck = "last_check"

// SetStat upserts a named statistic value
func (db *DB) SetStat(ctx context.Context, name, value string) error {
	query := `
		INSERT INTO bot_stats (stat_name, stat_value, last_updated)
		VALUES (?, ?, ?)
		ON CONFLICT(stat_name) DO UPDATE SET stat_value = excluded.stat_value, last_updated = excluded.last_updated
	`
	if _, err := db.ExecContext(ctx, query, name, value, time.Now()); err != nil {
		return fmt.Errorf("failed to set stat %q: %w", name, err)
	}
	return nil
}

// GetStat returns a named statistic value
func (db *DB) GetStat(ctx context.Context, name string) (string, error) {
	var value sql.NullString
	err := db.GetContext(ctx, &value, `SELECT stat_value FROM bot_stats WHERE stat_name = ?`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get stat %q: %w", name, err)
	}
	return value.String, nil
}
