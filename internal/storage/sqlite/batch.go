package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"mp_scraper/internal/domain"
)

type BatchRunStore struct {
	db *sqlx.DB
}

func NewBatchRunStore(db *sqlx.DB) *BatchRunStore {
	return &BatchRunStore{db: db}
}

// Create records a new run in status running. Re-running with the same
// batch_id resets the existing row.
func (s *BatchRunStore) Create(ctx context.Context, batchID, startDate, endDate string, accounts []string) error {
	accountsJSON, err := json.Marshal(accounts)
	if err != nil {
		return fmt.Errorf("marshal accounts: %w", err)
	}

	query := `
		INSERT INTO batch_runs (batch_id, start_date, end_date, accounts, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (batch_id) DO UPDATE SET
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			accounts = excluded.accounts,
			status = excluded.status,
			total_articles = 0,
			completed_at = 0`

	_, err = s.db.ExecContext(ctx, query,
		batchID, startDate, endDate, string(accountsJSON),
		domain.BatchRunning, time.Now().Unix(),
	)
	return err
}

// Finish moves a run to a terminal status and records the final article
// count.
func (s *BatchRunStore) Finish(ctx context.Context, batchID string, status domain.BatchStatus, totalArticles int) error {
	query := `
		UPDATE batch_runs
		SET status = ?, total_articles = ?, completed_at = ?
		WHERE batch_id = ?`

	_, err := s.db.ExecContext(ctx, query, status, totalArticles, time.Now().Unix(), batchID)
	return err
}

// Get returns one run by batch_id, or nil when it does not exist.
func (s *BatchRunStore) Get(ctx context.Context, batchID string) (*domain.BatchRun, error) {
	var run domain.BatchRun
	query := `
		SELECT id, batch_id, start_date, end_date, accounts, status,
		       total_articles, created_at, completed_at
		FROM batch_runs
		WHERE batch_id = ?`

	err := s.db.GetContext(ctx, &run, query, batchID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}
