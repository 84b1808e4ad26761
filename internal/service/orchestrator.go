package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"mp_scraper/internal/domain"
)

// RunConfig is everything one batch invocation needs. Immutable once Run is
// called.
type RunConfig struct {
	BatchID            string
	Accounts           []string
	StartDate          string // YYYY-MM-DD, inclusive
	EndDate            string // YYYY-MM-DD, inclusive
	Concurrent         bool
	MaxWorkers         int
	SinkErrorThreshold int
	TitleKeywords      []string // OR-matched filter on exported titles; empty exports all
}

// Orchestrator fans AccountWorkers out over the account list, aggregates
// their results, and finalizes the batch record and export. Scheduling mode
// changes only who runs when; the per-account pipeline is identical.
type Orchestrator struct {
	worker    *AccountWorker
	batchRuns BatchRunStore // nil disables run persistence
	exporter  Exporter      // nil disables the flat export
	delay     DelayPolicy
	events    *Emitter
	logger    *slog.Logger
}

func NewOrchestrator(
	worker *AccountWorker,
	batchRuns BatchRunStore,
	exporter Exporter,
	delay DelayPolicy,
	events *Emitter,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		worker:    worker,
		batchRuns: batchRuns,
		exporter:  exporter,
		delay:     delay,
		events:    events,
		logger:    logger.With("component", "orchestrator"),
	}
}

// Run executes one batch. It fails fast with ConfigError before any I/O;
// after work has started every outcome, including auth failure and
// cancellation, is reported through the returned BatchOutcome rather than an
// error.
func (o *Orchestrator) Run(ctx context.Context, cfg RunConfig) (*domain.BatchOutcome, error) {
	window, err := validate(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.BatchID == "" {
		cfg.BatchID = "batch_" + uuid.NewString()[:8]
	}

	started := time.Now()
	logger := o.logger.With("batch_id", cfg.BatchID)
	logger.Info("starting batch",
		"accounts", len(cfg.Accounts),
		"start_date", cfg.StartDate,
		"end_date", cfg.EndDate,
		"concurrent", cfg.Concurrent,
	)

	if o.batchRuns != nil {
		if err := o.batchRuns.Create(ctx, cfg.BatchID, cfg.StartDate, cfg.EndDate, cfg.Accounts); err != nil {
			return nil, fmt.Errorf("create batch run: %w", err)
		}
	}

	results := make([]AccountResult, len(cfg.Accounts))
	for i, name := range cfg.Accounts {
		results[i] = AccountResult{
			Outcome: domain.AccountOutcome{AccountName: name, Status: domain.AccountPending},
		}
	}

	var authErr error
	if cfg.Concurrent && len(cfg.Accounts) > 1 {
		authErr = o.runPool(ctx, cfg, window, results)
	} else {
		authErr = o.runSequential(ctx, cfg, window, results)
	}

	// Credentials are shared, so once they are rejected every account that
	// never started is dead for the same reason.
	if authErr != nil {
		for i := range results {
			if !results[i].Outcome.Status.Terminal() {
				results[i].Outcome.Status = domain.AccountError
				results[i].Outcome.Err = authErr
				o.events.AccountStatus(cfg.BatchID, results[i].Outcome)
			}
		}
	}

	outcome := o.finalize(ctx, cfg, results, authErr, started)
	return outcome, nil
}

func validate(cfg RunConfig) (domain.DateWindow, error) {
	if len(cfg.Accounts) == 0 {
		return domain.DateWindow{}, &domain.ConfigError{Reason: "account list is empty"}
	}
	start, err := time.ParseInLocation("2006-01-02", cfg.StartDate, time.Local)
	if err != nil {
		return domain.DateWindow{}, &domain.ConfigError{Reason: "parse start_date: " + err.Error()}
	}
	end, err := time.ParseInLocation("2006-01-02", cfg.EndDate, time.Local)
	if err != nil {
		return domain.DateWindow{}, &domain.ConfigError{Reason: "parse end_date: " + err.Error()}
	}
	if start.After(end) {
		return domain.DateWindow{}, &domain.ConfigError{
			Reason: fmt.Sprintf("start_date %s is after end_date %s", cfg.StartDate, cfg.EndDate),
		}
	}
	return domain.DateWindow{Start: start, End: end}, nil
}

func (o *Orchestrator) runSequential(ctx context.Context, cfg RunConfig, window domain.DateWindow, results []AccountResult) error {
	var authErr error
	completed := 0

	for i, name := range cfg.Accounts {
		if ctx.Err() != nil || authErr != nil {
			break
		}

		results[i] = o.worker.Run(ctx, cfg.BatchID, name, window)

		if isAuthError(results[i].Outcome.Err) {
			authErr = results[i].Outcome.Err
		}

		completed++
		o.events.Progress(cfg.BatchID, completed, len(cfg.Accounts))

		if i < len(cfg.Accounts)-1 && authErr == nil {
			if err := sleep(ctx, o.delay.AccountDelay()); err != nil {
				break
			}
		}
	}

	return authErr
}

func (o *Orchestrator) runPool(ctx context.Context, cfg RunConfig, window domain.DateWindow, results []AccountResult) error {
	poolCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		authErr   error
		completed int
	)

	jobs := make(chan int)
	workers := min(cfg.MaxWorkers, len(cfg.Accounts))

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				mu.Lock()
				dead := authErr != nil
				mu.Unlock()
				if dead || poolCtx.Err() != nil {
					// Never started; stays pending and is resolved after the
					// join.
					continue
				}

				res := o.worker.Run(poolCtx, cfg.BatchID, cfg.Accounts[idx], window)

				mu.Lock()
				results[idx] = res
				if authErr == nil && isAuthError(res.Outcome.Err) {
					authErr = res.Outcome.Err
					cancel()
				}
				completed++
				done := completed
				mu.Unlock()

				o.events.Progress(cfg.BatchID, done, len(cfg.Accounts))
			}
		}()
	}

	for idx := range cfg.Accounts {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()

	return authErr
}

func (o *Orchestrator) finalize(ctx context.Context, cfg RunConfig, results []AccountResult, authErr error, started time.Time) *domain.BatchOutcome {
	outcome := &domain.BatchOutcome{
		BatchID: cfg.BatchID,
	}

	sinkErrors := 0
	for _, res := range results {
		outcome.Accounts = append(outcome.Accounts, res.Outcome)
		outcome.Articles = append(outcome.Articles, res.Articles...)
		sinkErrors += res.SinkErrors
	}

	switch {
	case ctx.Err() != nil:
		outcome.Status = domain.BatchCancelled
	case authErr != nil:
		outcome.Status = domain.BatchFailed
		o.events.Error(cfg.BatchID, "batch", authErr.Error())
	case sinkErrors > cfg.SinkErrorThreshold:
		outcome.Status = domain.BatchFailed
		o.events.Error(cfg.BatchID, "batch", fmt.Sprintf("storage failures exceeded threshold: %d", sinkErrors))
	default:
		outcome.Status = domain.BatchCompleted
	}

	// Partial results survive cancellation and failure; whatever was
	// collected gets exported.
	exported := filterByTitle(outcome.Articles, cfg.TitleKeywords)
	if o.exporter != nil && len(exported) > 0 {
		path, err := o.exporter.Export(exported, cfg.StartDate, cfg.EndDate)
		if err != nil {
			o.logger.Error("export failed", "batch_id", cfg.BatchID, "error", err)
			o.events.Error(cfg.BatchID, "batch", "export failed: "+err.Error())
			if outcome.Status == domain.BatchCompleted {
				outcome.Status = domain.BatchFailed
			}
		} else {
			outcome.ExportPath = path
		}
	}

	if o.batchRuns != nil {
		// The run row must reach a terminal state even when the caller's
		// context is already cancelled.
		finishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := o.batchRuns.Finish(finishCtx, cfg.BatchID, outcome.Status, len(outcome.Articles)); err != nil {
			o.logger.Error("finish batch run failed", "batch_id", cfg.BatchID, "error", err)
		}
	}

	if outcome.Status == domain.BatchCompleted {
		o.events.BatchCompleted(cfg.BatchID, len(outcome.Articles))
	}

	outcome.Duration = time.Since(started)

	o.logger.Info("batch finished",
		"batch_id", cfg.BatchID,
		"status", outcome.Status,
		"total_articles", len(outcome.Articles),
		"sink_errors", sinkErrors,
		"duration", outcome.Duration,
	)

	return outcome
}

// filterByTitle keeps articles whose title contains at least one of the
// keywords. An empty keyword list keeps everything.
func filterByTitle(articles []domain.Article, keywords []string) []domain.Article {
	if len(keywords) == 0 {
		return articles
	}
	var out []domain.Article
	for _, a := range articles {
		for _, kw := range keywords {
			if kw != "" && strings.Contains(a.Title, kw) {
				out = append(out, a)
				break
			}
		}
	}
	return out
}

func isAuthError(err error) bool {
	var authErr *domain.AuthError
	return errors.As(err, &authErr)
}
