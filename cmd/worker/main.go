package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ledgerly/compliance-api/internal/cache"
	"github.com/ledgerly/compliance-api/internal/config"
	"github.com/ledgerly/compliance-api/internal/database"
	"github.com/ledgerly/compliance-api/internal/logger"
	"github.com/ledgerly/compliance-api/internal/middleware"
	"github.com/ledgerly/compliance-api/internal/queue"
	"github.com/ledgerly/compliance-api/internal/services/ai"
	"github.com/ledgerly/compliance-api/internal/services/mail"
	"github.com/ledgerly/compliance-api/internal/workers"
)

const (
	gcInterval  = time.Hour
	gcRetention = 7 * 24 * time.Hour
)

func main() {
	if err := run(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "worker error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.RabbitMQURL == "" {
		return fmt.Errorf("RABBITMQ_URL is required for the worker")
	}

	log, err := logger.New(cfg.Environment, cfg.Debug)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		_ = db.Close()
	}()

	rabbit, err := queue.NewRabbitMQQueue(cfg.RabbitMQURL)
	if err != nil {
		return fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}
	defer func() {
		_ = rabbit.Close()
	}()

	var cacheClient *cache.Cache
	if limiter, err := middleware.NewRedisRateLimiter(cfg.RedisURL); err != nil {
		log.Warn("redis_unavailable", zap.Error(err))
	} else {
		cacheClient = cache.New(limiter.Client())
		defer func() {
			_ = limiter.Close()
		}()
	}

	var mailer *mail.Mailer
	if cfg.MailConfigured() {
		mailer = mail.New(cfg.MailServer, cfg.MailPort, cfg.MailUsername, cfg.MailPassword, cfg.MailFrom, log)
	} else {
		log.Info("mail_disabled")
	}

	documents := database.NewDocumentRepository(db)
	compliances := database.NewComplianceRepository(db)
	clients := database.NewClientRepository(db)

	provider := ai.NewOpenAIProviderWithLogger(cfg.OpenAIKey, cfg.AIBaseURL, cfg.AIModel, log, cfg.Debug)

	monitor := workers.NewDeadlineMonitor(compliances, clients, provider, cacheClient, mailer, workers.DefaultScanInterval, log)
	processor := workers.NewDocumentProcessor(documents, provider, rabbit, monitor, log)
	gc := queue.NewGarbageCollector(rabbit, gcInterval, gcRetention, log)

	errCh := make(chan error, 3)
	go func() {
		errCh <- processor.Run(ctx, cfg.Prefetch)
	}()
	go func() {
		errCh <- monitor.Start(ctx)
	}()
	go func() {
		errCh <- gc.Start(ctx)
	}()

	log.Info("worker_started", zap.Int("prefetch", cfg.Prefetch))

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
	case <-ctx.Done():
	}

	log.Info("worker_stopped")
	return nil
}
