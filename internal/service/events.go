package service

import (
	"log/slog"

	"mp_scraper/internal/domain"
)

// Emitter fans batch events out to every registered sink. Nil sinks are
// skipped so optional subscribers (e.g. the message broker) wire in cleanly.
type Emitter struct {
	sinks []EventSink
}

func NewEmitter(sinks ...EventSink) *Emitter {
	e := &Emitter{}
	for _, s := range sinks {
		if s != nil {
			e.sinks = append(e.sinks, s)
		}
	}
	return e
}

func (e *Emitter) publish(event domain.Event) {
	if e == nil {
		return
	}
	for _, s := range e.sinks {
		s.Publish(event)
	}
}

func (e *Emitter) Progress(batchID string, completed, total int) {
	e.publish(domain.Event{
		Type:              domain.EventProgress,
		BatchID:           batchID,
		CompletedAccounts: completed,
		TotalAccounts:     total,
	})
}

func (e *Emitter) AccountStatus(batchID string, outcome domain.AccountOutcome) {
	event := domain.Event{
		Type:          domain.EventAccountStatus,
		BatchID:       batchID,
		AccountName:   outcome.AccountName,
		Status:        outcome.Status,
		ArticlesFound: outcome.ArticlesFound,
		CurrentPage:   outcome.CurrentPage,
	}
	if outcome.Err != nil {
		event.Message = outcome.Err.Error()
	}
	e.publish(event)
}

func (e *Emitter) BatchCompleted(batchID string, totalArticles int) {
	e.publish(domain.Event{
		Type:          domain.EventBatchCompleted,
		BatchID:       batchID,
		TotalArticles: totalArticles,
	})
}

func (e *Emitter) Error(batchID, accountName, message string) {
	e.publish(domain.Event{
		Type:        domain.EventError,
		BatchID:     batchID,
		AccountName: accountName,
		Message:     message,
	})
}

// LogSink writes every event to the structured log, so a batch is observable
// with no other subscriber attached.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger.With("component", "events")}
}

func (s *LogSink) Publish(event domain.Event) {
	switch event.Type {
	case domain.EventProgress:
		s.logger.Info("progress",
			"batch_id", event.BatchID,
			"completed_accounts", event.CompletedAccounts,
			"total_accounts", event.TotalAccounts,
		)
	case domain.EventAccountStatus:
		s.logger.Info("account status",
			"batch_id", event.BatchID,
			"account", event.AccountName,
			"status", event.Status,
			"articles_found", event.ArticlesFound,
			"current_page", event.CurrentPage,
			"message", event.Message,
		)
	case domain.EventBatchCompleted:
		s.logger.Info("batch completed",
			"batch_id", event.BatchID,
			"total_articles", event.TotalArticles,
		)
	case domain.EventError:
		s.logger.Error("batch error",
			"batch_id", event.BatchID,
			"account", event.AccountName,
			"message", event.Message,
		)
	}
}
