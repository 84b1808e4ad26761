package service

import (
	"context"
	"errors"
	"log/slog"

	"mp_scraper/internal/domain"
)

// AccountWorker drives the full pipeline for a single account: resolve, then
// a paginated fetch/filter loop, enriching and persisting in-window articles
// as they are found. One worker type serves both scheduling modes; the
// orchestrator only decides how many run at once.
type AccountWorker struct {
	resolver AccountResolver
	fetcher  PageFetcher
	enricher Enricher     // nil disables enrichment
	articles ArticleStore // nil disables persistence
	delay    DelayPolicy
	events   *Emitter
	logger   *slog.Logger
	maxPages int
}

func NewAccountWorker(
	resolver AccountResolver,
	fetcher PageFetcher,
	enricher Enricher,
	articles ArticleStore,
	delay DelayPolicy,
	events *Emitter,
	logger *slog.Logger,
	maxPages int,
) *AccountWorker {
	return &AccountWorker{
		resolver: resolver,
		fetcher:  fetcher,
		enricher: enricher,
		articles: articles,
		delay:    delay,
		events:   events,
		logger:   logger.With("component", "worker"),
		maxPages: maxPages,
	}
}

// AccountResult is what one worker run hands back to the orchestrator.
type AccountResult struct {
	Outcome     domain.AccountOutcome
	Articles    []domain.Article
	SinkErrors  int
	Interrupted bool // cancelled mid-scan; articles found so far are kept
}

// Run scrapes one account over the given window. Account-level failures are
// reported in the outcome, never returned; the orchestrator inspects
// Outcome.Err for the one error class (AuthError) that must stop the batch.
func (w *AccountWorker) Run(ctx context.Context, batchID, accountName string, window domain.DateWindow) AccountResult {
	logger := w.logger.With("account", accountName, "batch_id", batchID)

	result := AccountResult{
		Outcome: domain.AccountOutcome{
			AccountName: accountName,
			Status:      domain.AccountProcessing,
		},
	}
	w.events.AccountStatus(batchID, result.Outcome)

	handle, err := w.resolver.Resolve(ctx, accountName)
	if err != nil {
		logger.Error("resolve failed", "error", err)
		return w.fail(batchID, result, err)
	}

	logger.Info("account resolved", "internal_id", handle.InternalID)

	pageSize := w.fetcher.PageSize()
	offset := 0

	for page := 1; page <= w.maxPages; page++ {
		if ctx.Err() != nil {
			result.Interrupted = true
			break
		}

		result.Outcome.CurrentPage = page
		w.events.AccountStatus(batchID, result.Outcome)

		fetched, err := w.fetcher.FetchPage(ctx, handle, offset)
		if err != nil {
			// A fetch that failed because the batch was cancelled is an
			// interruption, not an account error.
			if ctx.Err() != nil {
				result.Interrupted = true
				break
			}
			logger.Error("page fetch failed", "page", page, "error", err)
			return w.fail(batchID, result, err)
		}

		if page == 1 && fetched.TotalCount > 0 {
			logger.Info("account feed size", "total_articles", fetched.TotalCount)
		}

		// A fetched page is processed and persisted in full even when
		// cancellation arrives while it is being worked through.
		windowDone := w.processPage(context.WithoutCancel(ctx), batchID, accountName, window, fetched, &result, logger)
		if windowDone {
			logger.Info("reached window start, stopping scan", "page", page)
			break
		}

		// A short or empty page means the feed is exhausted.
		if len(fetched.Items) < pageSize {
			break
		}

		offset += pageSize

		if err := sleep(ctx, w.delay.RequestDelay()); err != nil {
			result.Interrupted = true
			break
		}
	}

	if result.Interrupted {
		logger.Info("scan interrupted", "articles_found", result.Outcome.ArticlesFound)
		return result
	}

	result.Outcome.Status = domain.AccountCompleted
	w.events.AccountStatus(batchID, result.Outcome)
	logger.Info("account completed", "articles_found", result.Outcome.ArticlesFound)

	return result
}

// processPage filters one page against the window and sinks the matches.
// Returns true when an item older than the window start was seen: the feed
// is reverse-chronological, so everything past that point is older still.
func (w *AccountWorker) processPage(
	ctx context.Context,
	batchID, accountName string,
	window domain.DateWindow,
	page domain.Page,
	result *AccountResult,
	logger *slog.Logger,
) bool {
	for _, item := range page.Items {
		article := domain.Article{
			AccountName:      accountName,
			Title:            item.Title,
			URL:              item.URL,
			Digest:           item.Digest,
			PublishTime:      domain.FormatTimestamp(item.PublishTimestamp),
			PublishTimestamp: item.PublishTimestamp,
			BatchID:          batchID,
		}

		date := article.PublishDate()
		if date.Before(window.Start) {
			return true
		}
		if !window.Contains(date) {
			// Newer than the window end; older in-window items may still
			// follow, keep scanning.
			continue
		}

		if w.enricher != nil {
			article.Content = w.enricher.Extract(ctx, article.URL)
		}

		if w.articles != nil {
			if err := w.articles.Upsert(ctx, &article); err != nil {
				result.SinkErrors++
				logger.Warn("article persist failed", "url", article.URL, "error", err)
			}
		}

		result.Articles = append(result.Articles, article)
		result.Outcome.ArticlesFound++
	}

	return false
}

func (w *AccountWorker) fail(batchID string, result AccountResult, err error) AccountResult {
	result.Outcome.Status = domain.AccountError
	result.Outcome.Err = err
	w.events.AccountStatus(batchID, result.Outcome)

	var authErr *domain.AuthError
	if errors.As(err, &authErr) {
		w.events.Error(batchID, result.Outcome.AccountName, err.Error())
	}

	return result
}
