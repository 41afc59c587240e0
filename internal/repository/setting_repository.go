package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// SettingRepository handles the key/value settings table holding
// process-wide flags such as registration_open.
type SettingRepository struct {
	db *sqlx.DB
}

// NewSettingRepository constructs the repository.
func NewSettingRepository(db *sqlx.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

// Get returns the value for a key. The second return reports whether the
// key exists.
func (r *SettingRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	if err := r.db.GetContext(ctx, &value, `SELECT value FROM settings WHERE key = $1`, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get setting %s: %w", key, err)
	}
	return value, true, nil
}

// Set inserts or updates a setting.
func (r *SettingRepository) Set(ctx context.Context, key, value string) error {
	const query = `INSERT INTO settings (key, value) VALUES ($1, $2)
        ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`
	if _, err := r.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}
