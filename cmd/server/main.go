package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/ledgerly/compliance-api/internal/auth"
	"github.com/ledgerly/compliance-api/internal/cache"
	"github.com/ledgerly/compliance-api/internal/config"
	"github.com/ledgerly/compliance-api/internal/database"
	"github.com/ledgerly/compliance-api/internal/handlers"
	"github.com/ledgerly/compliance-api/internal/logger"
	"github.com/ledgerly/compliance-api/internal/middleware"
	"github.com/ledgerly/compliance-api/internal/queue"
	"github.com/ledgerly/compliance-api/internal/services/ai"
	"github.com/ledgerly/compliance-api/internal/telemetry"
)

const (
	defaultOpenAPIPath = "api/openapi/openapi.yaml"
	settingsReload     = 30 * time.Second
	shutdownGrace      = 15 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
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

	if cfg.OTELEnabled && cfg.OTELEndpoint != "" {
		tp, err := telemetry.Setup(ctx, "ca-compliance-api", cfg.Version, cfg.Environment, cfg.OTELEndpoint)
		if err != nil {
			log.Warn("telemetry_setup_failed", zap.Error(err))
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
					log.Warn("telemetry_shutdown_failed", zap.Error(err))
				}
			}()
		}
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	log.Info("database_ready")

	redisLimiter, err := middleware.NewRedisRateLimiter(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer func() {
		_ = redisLimiter.Close()
	}()

	cacheClient := cache.New(redisLimiter.Client())

	var jobs queue.JobQueue
	if cfg.RabbitMQURL != "" {
		rabbit, err := queue.NewRabbitMQQueue(cfg.RabbitMQURL)
		if err != nil {
			log.Warn("rabbitmq_unavailable", zap.Error(err))
		} else {
			jobs = rabbit
			defer func() {
				_ = rabbit.Close()
			}()
		}
	}

	users := database.NewUserRepository(db)
	audit := database.NewAuditLogRepository(db)
	clients := database.NewClientRepository(db)
	invoices := database.NewInvoiceRepository(db)
	payments := database.NewPaymentRepository(db)
	accounts := database.NewAccountRepository(db)
	projects := database.NewProjectRepository(db)
	tasks := database.NewTaskRepository(db)
	compliances := database.NewComplianceRepository(db)
	returns := database.NewReturnRepository(db)
	documents := database.NewDocumentRepository(db)
	timeEntries := database.NewTimeEntryRepository(db)
	settings := database.NewSettingsRepository(db)

	tokens, err := auth.NewTokenService(cfg.SecretKey, cfg.Algorithm, time.Duration(cfg.AccessTokenExpires)*time.Minute)
	if err != nil {
		return fmt.Errorf("failed to create token service: %w", err)
	}

	provider := ai.NewOpenAIProviderWithLogger(cfg.OpenAIKey, cfg.AIBaseURL, cfg.AIModel, log, cfg.Debug)

	corsReloader := middleware.NewCORSReloader(settings, cfg.AllowedOrigins, log, settingsReload)
	rateReloader := middleware.NewRateLimitReloader(redisLimiter.Client(), settings, middleware.DefaultRatelimitRate, log, settingsReload)

	router := buildRouter(cfg, log, routerDeps{
		db:           db,
		cacheClient:  cacheClient,
		jobs:         jobs,
		tokens:       tokens,
		provider:     provider,
		corsReloader: corsReloader,
		rateReloader: rateReloader,
		users:        users,
		audit:        audit,
		clients:      clients,
		invoices:     invoices,
		payments:     payments,
		accounts:     accounts,
		projects:     projects,
		tasks:        tasks,
		compliances:  compliances,
		returns:      returns,
		documents:    documents,
		timeEntries:  timeEntries,
	})

	// Reload loops swap middleware internals; start them only once the
	// router has installed the wrapped handlers.
	go corsReloader.Start(ctx)
	go rateReloader.Start(ctx)

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server_started", zap.String("port", cfg.ServerPort), zap.String("environment", cfg.Environment))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info("server_shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	log.Info("server_stopped")
	return nil
}

type routerDeps struct {
	db           *database.DB
	cacheClient  *cache.Cache
	jobs         queue.JobQueue
	tokens       *auth.TokenService
	provider     ai.Provider
	corsReloader *middleware.CORSReloader
	rateReloader *middleware.RateLimitReloader

	users       *database.UserRepository
	audit       *database.AuditLogRepository
	clients     *database.ClientRepository
	invoices    *database.InvoiceRepository
	payments    *database.PaymentRepository
	accounts    *database.AccountRepository
	projects    *database.ProjectRepository
	tasks       *database.TaskRepository
	compliances *database.ComplianceRepository
	returns     *database.ReturnRepository
	documents   *database.DocumentRepository
	timeEntries *database.TimeEntryRepository
}

func buildRouter(cfg *config.Config, log *zap.Logger, deps routerDeps) *mux.Router {
	router := mux.NewRouter()

	if cfg.OTELEnabled {
		router.Use(telemetry.Middleware("ca-compliance-api"))
	}
	router.Use(middleware.SecurityHeaders(cfg.EnableHSTS))
	router.Use(deps.corsReloader.Middleware())
	router.Use(middleware.ErrorHandler(log))
	router.Use(middleware.Logging(log))
	router.Use(middleware.Audit(log))

	// Public surface: health, docs and the OpenAPI document.
	health := handlers.NewHealthChecker(deps.db, deps.cacheClient, deps.jobs, cfg.Version)
	router.HandleFunc("/health", health.HealthCheck).Methods("GET")

	docs := handlers.NewDocsHandler(defaultOpenAPIPath, log)
	docs.RegisterRoutes(router)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(deps.rateReloader.Middleware())
	api.Use(middleware.Timeout(middleware.DefaultRequestTimeout))
	api.Use(middleware.ContentType)

	authHandler := handlers.NewAuthHandler(deps.tokens, deps.users, deps.audit, log)

	// Login and registration are the only unauthenticated API routes.
	authPublic := api.PathPrefix("/auth").Subrouter()
	authPublic.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))
	authHandler.RegisterRoutes(authPublic)

	authed := api.NewRoute().Subrouter()
	authed.Use(middleware.Auth(deps.tokens, deps.users, log))

	authPrivate := authed.PathPrefix("/auth").Subrouter()
	authPrivate.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))
	authHandler.RegisterProtectedRoutes(authPrivate)

	standard := authed.NewRoute().Subrouter()
	standard.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))

	usersHandler := handlers.NewUsersHandler(deps.users, deps.audit, log)
	usersHandler.RegisterRoutes(standard.PathPrefix("/users").Subrouter())

	clientsHandler := handlers.NewClientsHandler(deps.clients, deps.projects, deps.invoices, log)
	clientsHandler.RegisterRoutes(standard.PathPrefix("/clients").Subrouter())

	financialHandler := handlers.NewFinancialHandler(deps.invoices, deps.payments, deps.accounts, deps.clients, log)
	financialHandler.RegisterRoutes(standard)

	complianceHandler := handlers.NewComplianceHandler(deps.projects, deps.tasks, deps.compliances, deps.returns, deps.timeEntries, deps.clients, log)
	complianceHandler.RegisterRoutes(standard)

	// AI routes take multipart uploads, so they get the larger cap.
	aiRoutes := authed.PathPrefix("/ai").Subrouter()
	aiRoutes.Use(middleware.MaxRequestSize(middleware.MaxUploadSize))
	aiHandler := handlers.NewAIHandler(deps.provider, deps.documents, deps.returns, deps.compliances, deps.accounts, deps.cacheClient, deps.jobs, cfg.UploadDir, cfg.MaxFileSize, log)
	aiHandler.RegisterRoutes(aiRoutes)

	return router
}
