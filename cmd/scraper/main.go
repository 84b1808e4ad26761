package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"mp_scraper/internal/config"
	"mp_scraper/internal/domain"
	"mp_scraper/internal/enrich"
	"mp_scraper/internal/export"
	"mp_scraper/internal/publisher"
	"mp_scraper/internal/service"
	"mp_scraper/internal/source/mp"
	"mp_scraper/internal/storage/sqlite"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := setupLogger("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal, finishing current page", "signal", sig)
		cancel()
	}()

	// Stores are optional: without a database the batch still scrapes and
	// exports, it just keeps nothing between runs.
	var articleStore service.ArticleStore
	var batchRunStore service.BatchRunStore
	var store *sqlite.ArticleStore
	if cfg.Database.Enabled {
		db, err := sqlx.Connect("sqlite", cfg.Database.Path)
		if err != nil {
			logger.Error("failed to open database", "path", cfg.Database.Path, "error", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := sqlite.Migrate(ctx, db); err != nil {
			logger.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}
		logger.Info("database ready", "path", cfg.Database.Path)

		store = sqlite.NewArticleStore(db)
		articleStore = store
		batchRunStore = sqlite.NewBatchRunStore(db)
	}

	sinks := []service.EventSink{service.NewLogSink(logger)}
	if cfg.RabbitMQ.Enabled {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			logger.Error("failed to connect to rabbitmq", "error", err)
			os.Exit(1)
		}
		defer rabbitMQ.Close()
		sinks = append(sinks, rabbitMQ)
	}
	events := service.NewEmitter(sinks...)

	client := mp.New(mp.Config{
		BaseURL:     cfg.API.BaseURL,
		PageSize:    cfg.API.PageSize,
		Timeout:     cfg.API.Timeout,
		MaxAttempts: cfg.API.Retry.MaxAttempts,
		RetryDelay:  cfg.API.Retry.Delay,
	}, mp.Credentials{
		Token:  cfg.Credentials.Token,
		Cookie: cfg.Credentials.Cookie,
	}, logger)

	var enricher service.Enricher
	if cfg.Batch.EnrichContent {
		enricher = enrich.New(enrich.Config{
			Timeout:       cfg.Enrich.Timeout,
			MaxContentLen: cfg.Enrich.MaxContentLen,
		}, logger)
	}

	delay := service.NewDelayPolicy(cfg.Delay)

	worker := service.NewAccountWorker(
		client,
		client,
		enricher,
		articleStore,
		delay,
		events,
		logger,
		cfg.Batch.MaxPagesPerAccount,
	)

	exporter := export.NewCSVExporter(cfg.Export.Dir, cfg.Batch.EnrichContent)

	orchestrator := service.NewOrchestrator(worker, batchRunStore, exporter, delay, events, logger)

	outcome, err := orchestrator.Run(ctx, service.RunConfig{
		Accounts:           cfg.Batch.Accounts,
		StartDate:          cfg.Batch.StartDate,
		EndDate:            cfg.Batch.EndDate,
		Concurrent:         cfg.Workers.Concurrent,
		MaxWorkers:         cfg.Workers.MaxWorkers,
		SinkErrorThreshold: cfg.Batch.SinkErrorThreshold,
		TitleKeywords:      cfg.Batch.TitleKeywords,
	})
	if err != nil {
		logger.Error("batch failed to start", "error", err)
		os.Exit(1)
	}

	logger.Info("done",
		"batch_id", outcome.BatchID,
		"status", outcome.Status,
		"total_articles", len(outcome.Articles),
		"export", outcome.ExportPath,
	)

	// Cross-check the run against what actually landed in the store.
	if store != nil {
		if stored, err := store.CountByBatch(context.Background(), outcome.BatchID); err != nil {
			logger.Warn("failed to count stored articles", "batch_id", outcome.BatchID, "error", err)
		} else if stored != len(outcome.Articles) {
			logger.Warn("stored article count differs from batch result",
				"batch_id", outcome.BatchID,
				"stored", stored,
				"collected", len(outcome.Articles),
			)
		}
	}

	if outcome.Status == domain.BatchFailed {
		os.Exit(1)
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
