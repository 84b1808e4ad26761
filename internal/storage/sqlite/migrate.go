package sqlite

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS articles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		account_name TEXT NOT NULL,
		title TEXT NOT NULL,
		url TEXT UNIQUE NOT NULL,
		digest TEXT NOT NULL DEFAULT '',
		publish_time TEXT NOT NULL DEFAULT '',
		publish_timestamp INTEGER NOT NULL,
		content TEXT NOT NULL DEFAULT '',
		batch_id TEXT NOT NULL,
		created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
	)`,
	`CREATE INDEX IF NOT EXISTS idx_articles_account_time ON articles(account_name, publish_timestamp)`,
	`CREATE INDEX IF NOT EXISTS idx_articles_time ON articles(publish_timestamp)`,
	`CREATE INDEX IF NOT EXISTS idx_articles_batch ON articles(batch_id)`,
	`CREATE TABLE IF NOT EXISTS batch_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		batch_id TEXT UNIQUE NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		accounts TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'running',
		total_articles INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		completed_at INTEGER NOT NULL DEFAULT 0
	)`,
}

// Migrate creates the schema if it does not exist yet. Safe to run on every
// startup.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
