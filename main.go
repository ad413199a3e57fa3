package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	api "report-intake/cmd/api"
	dedupdomain "report-intake/internal/dedup/domain"
	dedupRepo "report-intake/internal/dedup/repository"
	extractionUsecase "report-intake/internal/extraction/usecase"
	reportdomain "report-intake/internal/report/domain"
	reportUsecase "report-intake/internal/report/usecase"
	"report-intake/pkg/config"
	"report-intake/pkg/database"
	"report-intake/pkg/fetcher"
	"report-intake/pkg/imap"
	"report-intake/pkg/intake"
	"report-intake/pkg/logger"
	"report-intake/pkg/ner"
	"report-intake/pkg/pdftext"

	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration: ", err)
	}

	zlog, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatal("Failed to build logger: ", err)
	}
	defer zlog.Sync()

	pollCfg, err := config.LoadPoll(cfg.ConfigPath)
	if err != nil {
		zlog.Fatal("failed to load poll config", zap.String("path", cfg.ConfigPath), zap.Error(err))
	}

	// Dedup store: database when configured, JSON files otherwise
	var store dedupRepo.DedupRepository
	if cfg.DatabaseURL != "" {
		db, err := database.Open(cfg.DatabaseURL)
		if err != nil {
			zlog.Fatal("failed to connect to database", zap.Error(err))
		}
		if err := db.AutoMigrate(&dedupdomain.DedupRecord{}); err != nil {
			zlog.Fatal("failed to migrate database", zap.Error(err))
		}
		store = dedupRepo.NewGormDedupRepository(db)
	} else {
		store = dedupRepo.NewFileDedupRepository(pollCfg.StateFile, pollCfg.FailedStateFile)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := store.Load(ctx); err != nil {
		zlog.Fatal("failed to load dedup state", zap.Error(err))
	}
	if counts, err := store.Stats(ctx); err == nil {
		zlog.Info("dedup state loaded", zap.Int("succeeded", counts.Succeeded), zap.Int("failed", counts.Failed))
	}

	// Extraction pipeline
	extractor := extractionUsecase.NewExtractor(pdftext.NewReader(), ner.NewRecognizer(), zlog)

	// Outbound collaborators
	uploader := intake.NewClient(intake.Options{
		URL:         cfg.UploadURL,
		MaxAttempts: cfg.UploadMaxAttempts,
		RetryDelay:  cfg.UploadRetryDelay,
		Timeout:     cfg.UploadTimeout,
		JWTSecret:   cfg.UploadJWTSecret,
	}, zlog)

	var reportFetcher reportUsecase.Fetcher
	if cfg.FetchServiceURL != "" {
		reportFetcher = fetcher.NewClient(cfg.FetchServiceURL, cfg.TempDir, cfg.FetchTimeout)
	} else {
		zlog.Warn("FETCH_SERVICE_URL not set, linked reports are ignored")
	}

	imapService := imap.NewService(cfg.IMAPDialTimeout, cfg.IMAPCommandTimeout)
	connector := reportUsecase.ConnectorFunc(func(ctx context.Context, account reportdomain.Account) (reportUsecase.Mailbox, error) {
		conn, err := imapService.Connect(ctx, account)
		if err != nil {
			return nil, err
		}
		return conn, nil
	})

	session := reportUsecase.NewSession(connector, store, extractor, uploader, reportFetcher, reportUsecase.SessionOptions{}, zlog)
	orchestrator := reportUsecase.NewOrchestrator(
		func() (*config.PollConfig, error) { return config.LoadPoll(cfg.ConfigPath) },
		pollCfg,
		session,
		store,
		cfg.BatchPause,
		cfg.TempDir,
		zlog,
	)

	// HTTP surface runs next to the poller when a port is set
	if cfg.Port != "" {
		handler := api.NewHandler(extractor, orchestrator, cfg.APIJWTSecret, zlog)
		go func() {
			if err := handler.Start(ctx, ":"+cfg.Port); err != nil {
				zlog.Error("server stopped", zap.Error(err))
			}
		}()
	}

	if err := orchestrator.Run(ctx); err != nil {
		zlog.Error("final persist failed", zap.Error(err))
		os.Exit(1)
	}
	zlog.Info("stopped")
}
