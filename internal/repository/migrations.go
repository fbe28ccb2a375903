package repository

import (
	"context"
	"fmt"
)

// Схема: ссылки и append-only лог кликов с каскадным удалением
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS links (
		id BIGSERIAL PRIMARY KEY,
		short_code TEXT NOT NULL UNIQUE,
		original_url TEXT NOT NULL,
		user_id TEXT NOT NULL DEFAULT '',
		expires_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS clicks (
		id BIGSERIAL PRIMARY KEY,
		link_id BIGINT NOT NULL REFERENCES links(id) ON DELETE CASCADE,
		ip_address TEXT NOT NULL DEFAULT 'unknown',
		referrer TEXT NOT NULL DEFAULT '',
		user_agent TEXT NOT NULL DEFAULT '',
		country TEXT NOT NULL DEFAULT 'Unknown',
		city TEXT NOT NULL DEFAULT 'Unknown',
		device_type TEXT NOT NULL DEFAULT 'Unknown',
		browser TEXT NOT NULL DEFAULT 'Unknown',
		os TEXT NOT NULL DEFAULT 'Unknown',
		clicked_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_links_user_id ON links(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_clicks_link_id ON clicks(link_id)`,
	`CREATE INDEX IF NOT EXISTS idx_clicks_clicked_at ON clicks(clicked_at)`,
}

// Migrate применяет схему при старте сервиса
func (db *PostgresDB) Migrate(ctx context.Context) error {
	for i, stmt := range migrations {
		if _, err := db.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}
	return nil
}
