package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"mp_scraper/internal/domain"
)

// AccountResolver turns an account display name into the internal identifier
// the listing endpoint requires.
type AccountResolver interface {
	Resolve(ctx context.Context, displayName string) (domain.AccountHandle, error)
}

// PageFetcher fetches one listing page at a cursor offset. PageSize reports
// how many items a full page carries; a shorter page means the feed is
// exhausted.
type PageFetcher interface {
	PageSize() int
	FetchPage(ctx context.Context, handle domain.AccountHandle, offset int) (domain.Page, error)
}

// Enricher fetches full body text for an article URL. Best-effort by
// contract: failures yield "" and are never surfaced.
type Enricher interface {
	Extract(ctx context.Context, url string) string
}

type ArticleStore interface {
	Upsert(ctx context.Context, article *domain.Article) error
}

type BatchRunStore interface {
	Create(ctx context.Context, batchID, startDate, endDate string, accounts []string) error
	Finish(ctx context.Context, batchID string, status domain.BatchStatus, totalArticles int) error
}

type Exporter interface {
	Export(articles []domain.Article, startDate, endDate string) (string, error)
}

// EventSink consumes the batch event stream. Implementations must not block
// the scrape for long; delivery failures are their own problem to log.
type EventSink interface {
	Publish(event domain.Event)
}
