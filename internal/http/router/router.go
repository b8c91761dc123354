package router

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"

	"github.com/devotionsim/proposal-api/internal/auth"
	"github.com/devotionsim/proposal-api/internal/config"
	"github.com/devotionsim/proposal-api/internal/http/handler"
	"github.com/devotionsim/proposal-api/internal/http/middleware"
	"github.com/devotionsim/proposal-api/internal/metrics"
	"github.com/devotionsim/proposal-api/internal/storage"

	_ "github.com/devotionsim/proposal-api/docs" // Import generated swagger docs
)

// Pinger reports whether a dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers groups the HTTP handlers mounted by the router
type Handlers struct {
	Proposal  *handler.ProposalHandler
	Lifecycle *handler.LifecycleHandler
	Payment   *handler.PaymentHandler
	Settings  *handler.SettingsHandler
	Admin     *handler.AdminHandler
	Upload    *handler.UploadHandler
	Phrase    *handler.PhraseHandler
}

type Router struct {
	cfg            *config.Config
	logger         *zap.Logger
	store          Pinger
	files          storage.Storage
	metrics        *metrics.Metrics
	authMiddleware *auth.Middleware
	rateLimiter    *middleware.RateLimiter
	handlers       Handlers
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	store Pinger,
	files storage.Storage,
	m *metrics.Metrics,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	handlers Handlers,
) *Router {
	return &Router{
		cfg:            cfg,
		logger:         logger,
		store:          store,
		files:          files,
		metrics:        m,
		authMiddleware: authMiddleware,
		rateLimiter:    rateLimiter,
		handlers:       handlers,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	if rt.cfg.Metrics.Enabled {
		r.Use(middleware.Metrics(rt.metrics))
	}
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP)

	// Liveness
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Readiness checks the key-value store
	r.Get("/health/ready", rt.ready)

	if rt.cfg.Metrics.Enabled {
		r.Handle(rt.cfg.Metrics.Path, rt.metrics.Handler())
	}

	// Swagger documentation
	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	// Locally stored uploads are served by the API itself
	if local, ok := rt.files.(*storage.LocalStorage); ok {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(local.BasePath()))))
	}

	h := rt.handlers
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(chimw.Timeout(rt.cfg.Server.RequestTimeoutDuration()))

		// Client-facing proposal routes
		r.Route("/proposals/{id}", func(r chi.Router) {
			r.Get("/", h.Proposal.GetPublic)
			r.Post("/quote", h.Lifecycle.Quote)
			r.Post("/accept", h.Lifecycle.Accept)
			r.Post("/checkout", h.Lifecycle.Checkout)
		})

		// Processor callbacks are authenticated by signature
		r.With(rt.rateLimiter.LimitWebhook).Post("/payments/webhook", h.Payment.Webhook)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", h.Admin.Login)
			r.Post("/logout", h.Admin.Logout)

			// Protected routes
			r.Group(func(r chi.Router) {
				r.Use(rt.authMiddleware.Authenticate)

				r.Get("/verify", h.Admin.Verify)

				r.Get("/settings", h.Settings.Get)
				r.Post("/settings", h.Settings.Update)

				r.Route("/proposals", func(r chi.Router) {
					r.Get("/", h.Proposal.List)
					r.Post("/", h.Proposal.Create)
					r.Get("/{id}", h.Proposal.Get)
					r.Delete("/{id}", h.Proposal.Delete)
					r.Get("/{id}/pdf", h.Proposal.PDF)
				})

				r.Post("/uploads/logo", h.Upload.UploadLogo)
				r.Post("/ai/phrase", h.Phrase.Generate)
			})
		})
	})

	return r
}

func (rt *Router) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := make(map[string]interface{})
	status := http.StatusOK

	if err := rt.store.Ping(ctx); err != nil {
		rt.logger.Error("Store health check failed", zap.Error(err))
		checks["store"] = map[string]interface{}{
			"status": "unhealthy",
			"error":  err.Error(),
		}
		status = http.StatusServiceUnavailable
	} else {
		checks["store"] = map[string]interface{}{
			"status": "healthy",
			"driver": rt.cfg.Store.Driver,
		}
	}

	overall := "healthy"
	if status != http.StatusOK {
		overall = "unhealthy"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status": overall,
		"checks": checks,
	})
}
