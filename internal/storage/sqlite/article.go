package sqlite

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"mp_scraper/internal/domain"
)

type ArticleStore struct {
	db *sqlx.DB
}

func NewArticleStore(db *sqlx.DB) *ArticleStore {
	return &ArticleStore{db: db}
}

// Upsert inserts or updates an article keyed by its url. Last writer wins
// for title, digest and batch_id; content is only overwritten by a non-empty
// value so a later run without enrichment cannot erase an enriched body.
// created_at is set once on first insert.
func (s *ArticleStore) Upsert(ctx context.Context, article *domain.Article) error {
	query := `
		INSERT INTO articles (
			account_name, title, url, digest, publish_time,
			publish_timestamp, content, batch_id, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (url) DO UPDATE SET
			account_name = excluded.account_name,
			title = excluded.title,
			digest = excluded.digest,
			publish_time = excluded.publish_time,
			publish_timestamp = excluded.publish_timestamp,
			content = CASE WHEN excluded.content != '' THEN excluded.content ELSE articles.content END,
			batch_id = excluded.batch_id`

	createdAt := article.CreatedAt
	if createdAt == 0 {
		createdAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx, query,
		article.AccountName,
		article.Title,
		article.URL,
		article.Digest,
		article.PublishTime,
		article.PublishTimestamp,
		article.Content,
		article.BatchID,
		createdAt,
	)
	if err != nil {
		return &domain.PersistError{URL: article.URL, Err: err}
	}

	return nil
}

// ListByAccountAndRange returns stored articles for one account inside an
// inclusive timestamp range, newest first.
func (s *ArticleStore) ListByAccountAndRange(ctx context.Context, accountName string, from, to int64) ([]domain.Article, error) {
	query := `
		SELECT id, account_name, title, url, digest, publish_time,
		       publish_timestamp, content, batch_id, created_at
		FROM articles
		WHERE account_name = ? AND publish_timestamp BETWEEN ? AND ?
		ORDER BY publish_timestamp DESC`

	var articles []domain.Article
	err := s.db.SelectContext(ctx, &articles, query, accountName, from, to)
	return articles, err
}

// CountByBatch returns how many stored rows a batch produced or last touched.
func (s *ArticleStore) CountByBatch(ctx context.Context, batchID string) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM articles WHERE batch_id = ?", batchID)
	return count, err
}
