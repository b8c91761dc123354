package router_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/devotionsim/proposal-api/internal/ai"
	"github.com/devotionsim/proposal-api/internal/auth"
	"github.com/devotionsim/proposal-api/internal/config"
	"github.com/devotionsim/proposal-api/internal/http/handler"
	"github.com/devotionsim/proposal-api/internal/http/middleware"
	"github.com/devotionsim/proposal-api/internal/http/router"
	"github.com/devotionsim/proposal-api/internal/kvstore"
	"github.com/devotionsim/proposal-api/internal/metrics"
	"github.com/devotionsim/proposal-api/internal/notify"
	"github.com/devotionsim/proposal-api/internal/payment"
	"github.com/devotionsim/proposal-api/internal/repository"
	"github.com/devotionsim/proposal-api/internal/service"
	"github.com/devotionsim/proposal-api/internal/storage"
)

type downStore struct{ kvstore.Store }

func (downStore) Ping(context.Context) error { return errors.New("connection refused") }

func newRouter(t *testing.T, store kvstore.Store) http.Handler {
	t.Helper()
	log := zap.NewNop()
	m := metrics.New()

	cfg := &config.Config{}
	cfg.App.Environment = "test"
	cfg.Store.Driver = "memory"
	cfg.Metrics.Enabled = true
	cfg.Metrics.Path = "/metrics"

	proposalRepo := repository.NewProposalRepository(store, time.Second, 50)
	paymentRepo := repository.NewPaymentRepository(store)
	acceptanceRepo := repository.NewAcceptanceRepository(store)
	settings := service.NewSettingsService(repository.NewSettingsRepository(store), log)
	proposals := service.NewProposalService(proposalRepo, paymentRepo, acceptanceRepo, settings, m, 10, log)
	payments := service.NewPaymentService(paymentRepo, payment.Unconfigured{}, notify.NewLoggingNotifier(log), m, "https://proposals.example", "EUR", time.Second, log)
	lifecycle := service.NewLifecycleService(proposals, payments, settings, acceptanceRepo, notify.NewLoggingNotifier(log), m, time.Second, log)

	tokens := auth.NewTokenIssuer("router-test-secret-long-enough", time.Hour)
	admin := service.NewAdminService(auth.NewCredentialChecker("", "", ""), tokens,
		repository.NewCounterRepository(store, "ratelimit:"), m, 5, time.Minute, log)
	authMW := auth.NewMiddleware(tokens, "", "", log)

	local, err := storage.NewLocalStorage(t.TempDir(), "http://localhost/uploads")
	require.NoError(t, err)

	var generator *ai.OpenAIGenerator
	rt := router.NewRouter(cfg, log, store, local, m, authMW,
		middleware.NewRateLimiter(&config.RateLimitConfig{Enabled: false}, log),
		router.Handlers{
			Proposal:  handler.NewProposalHandler(proposals, service.NewPDFService(proposals, log), log),
			Lifecycle: handler.NewLifecycleHandler(lifecycle, log),
			Payment:   handler.NewPaymentHandler(payments, log),
			Settings:  handler.NewSettingsHandler(settings, log),
			Admin:     handler.NewAdminHandler(admin, authMW.CookieName(), false, log),
			Upload:    handler.NewUploadHandler(service.NewUploadService(local, storage.DefaultMaxUploadBytes, log), log),
			Phrase:    handler.NewPhraseHandler(service.NewPhraseService(generator, repository.NewCounterRepository(store, "ai:session:"), m, 5, time.Second, log), log),
		})
	return rt.Setup()
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestRouter_Health(t *testing.T) {
	h := newRouter(t, kvstore.NewMemoryStore())

	assert.Equal(t, http.StatusOK, get(h, "/health").Code)

	w := get(h, "/health/ready")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"healthy"`)

	down := newRouter(t, downStore{Store: kvstore.NewMemoryStore()})
	w = get(down, "/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "unhealthy")
}

func TestRouter_Routes(t *testing.T) {
	h := newRouter(t, kvstore.NewMemoryStore())

	assert.Equal(t, http.StatusUnauthorized, get(h, "/api/v1/admin/proposals").Code)
	assert.Equal(t, http.StatusUnauthorized, get(h, "/api/v1/admin/verify").Code)
	assert.Equal(t, http.StatusNotFound, get(h, "/api/v1/proposals/unknown").Code)

	w := get(h, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}

func TestRouter_WebhookAlwaysAcknowledged(t *testing.T) {
	h := newRouter(t, kvstore.NewMemoryStore())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"received":true}`, w.Body.String())
}
