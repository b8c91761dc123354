package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/devotionsim/proposal-api/docs"
	"github.com/devotionsim/proposal-api/internal/ai"
	"github.com/devotionsim/proposal-api/internal/auth"
	"github.com/devotionsim/proposal-api/internal/config"
	"github.com/devotionsim/proposal-api/internal/http/handler"
	"github.com/devotionsim/proposal-api/internal/http/middleware"
	"github.com/devotionsim/proposal-api/internal/http/router"
	"github.com/devotionsim/proposal-api/internal/jobs"
	"github.com/devotionsim/proposal-api/internal/kvstore"
	"github.com/devotionsim/proposal-api/internal/logger"
	"github.com/devotionsim/proposal-api/internal/metrics"
	"github.com/devotionsim/proposal-api/internal/notify"
	"github.com/devotionsim/proposal-api/internal/payment"
	"github.com/devotionsim/proposal-api/internal/repository"
	"github.com/devotionsim/proposal-api/internal/service"
	"github.com/devotionsim/proposal-api/internal/storage"
)

// @title DevotionSim Proposal API
// @version 1.0
// @description Rental and purchase proposals for racing simulators: pricing, client acceptance and payment tracking

// @contact.name API Support
// @contact.email support@devotionsim.com

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Operator session token

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name x-api-key
// @description API key for operator automation

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Load basic configuration first (for logging setup)
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)

	if basicCfg.App.Environment == "development" || basicCfg.App.Environment == "" {
		docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", basicCfg.App.Port)
	}

	// In staging/production secrets may come from Azure Key Vault
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	rawStore, err := kvstore.NewStore(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() {
		if err := rawStore.Close(); err != nil {
			log.Warn("Error closing store", zap.Error(err))
		}
	}()
	store := kvstore.WithTimeout(rawStore, cfg.Store.TimeoutDuration())

	fileStorage, err := storage.NewStorage(ctx, &cfg.Storage, log)
	if err != nil {
		// uploads are optional; everything else keeps working
		log.Warn("Storage unavailable, uploads disabled", zap.Error(err))
		fileStorage = nil
	} else {
		log.Info("Storage initialized", zap.String("mode", cfg.Storage.Mode))
	}

	m := metrics.New()

	// Repositories
	proposalRepo := repository.NewProposalRepository(store, cfg.Store.CreateTimeoutDuration(), int64(cfg.Store.RecentListSize))
	paymentRepo := repository.NewPaymentRepository(store)
	acceptanceRepo := repository.NewAcceptanceRepository(store)
	settingsRepo := repository.NewSettingsRepository(store)
	loginAttempts := repository.NewCounterRepository(store, "ratelimit:")
	phraseSessions := repository.NewCounterRepository(store, "ai:session:")

	// Collaborators
	processor := payment.NewProcessor(&cfg.Payment, log)
	notifier := notify.New(&cfg.Notification, log)
	generator := ai.NewOpenAIGenerator(&cfg.AI)

	tokens := auth.NewTokenIssuer(cfg.Admin.JWTSecret, cfg.Admin.TokenTTL())
	credentials := auth.NewCredentialChecker(cfg.Admin.PasswordHash, devPassword(cfg), cfg.Admin.TOTPSecret)
	authMiddleware := auth.NewMiddleware(tokens, cfg.Admin.APIKey, cfg.Admin.CookieName, log)

	// Services
	settingsService := service.NewSettingsService(settingsRepo, log)
	proposalService := service.NewProposalService(proposalRepo, paymentRepo, acceptanceRepo, settingsService, m, int64(cfg.Store.RecentListLimit), log)
	paymentService := service.NewPaymentService(paymentRepo, processor, notifier, m, cfg.App.PublicBaseURL, cfg.Payment.Currency, cfg.Notification.TimeoutDuration(), log)
	lifecycleService := service.NewLifecycleService(proposalService, paymentService, settingsService, acceptanceRepo, notifier, m, cfg.Notification.TimeoutDuration(), log)
	adminService := service.NewAdminService(credentials, tokens, loginAttempts, m, cfg.Admin.MaxAttempts, cfg.Admin.LockoutDuration(), log)
	phraseService := service.NewPhraseService(generator, phraseSessions, m, cfg.AI.SessionCap, cfg.AI.TimeoutDuration(), log)
	uploadService := service.NewUploadService(fileStorage, cfg.Storage.MaxUploadSizeMB*1024*1024, log)
	pdfService := service.NewPDFService(proposalService, log)

	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	rt := router.NewRouter(cfg, log, store, fileStorage, m, authMiddleware, rateLimiter, router.Handlers{
		Proposal:  handler.NewProposalHandler(proposalService, pdfService, log),
		Lifecycle: handler.NewLifecycleHandler(lifecycleService, log),
		Payment:   handler.NewPaymentHandler(paymentService, log),
		Settings:  handler.NewSettingsHandler(settingsService, log),
		Admin:     handler.NewAdminHandler(adminService, authMiddleware.CookieName(), cfg.App.Environment != "development", log),
		Upload:    handler.NewUploadHandler(uploadService, log),
		Phrase:    handler.NewPhraseHandler(phraseService, log),
	})

	// Background maintenance
	var scheduler *jobs.Scheduler
	if cfg.Jobs.Enabled {
		scheduler = jobs.NewScheduler(log)

		// the reaper needs the unwrapped store to see its DeleteExpired method
		registered, err := jobs.RegisterKVReaperJob(scheduler, rawStore, cfg.Jobs.KVReaperSchedule, m.KVReaped, log, cfg.Jobs.TimeoutDuration())
		if err != nil {
			log.Error("Failed to register KV reaper job", zap.Error(err))
		} else if !registered {
			log.Info("Store expires keys natively, KV reaper not scheduled", zap.String("driver", cfg.Store.Driver))
		}

		scheduler.Start()
		log.Info("Scheduler started", zap.Strings("jobs", scheduler.JobNames()))
	} else {
		log.Info("Background jobs disabled")
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		if scheduler != nil {
			<-scheduler.Stop().Done()
			log.Info("Scheduler stopped")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}

// devPassword returns the plaintext operator password, which is only honoured in development
func devPassword(cfg *config.Config) string {
	if cfg.App.Environment != "development" {
		return ""
	}
	return cfg.Admin.Password
}
