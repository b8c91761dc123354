package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/devotionsim/proposal-api/internal/auth"
	"github.com/devotionsim/proposal-api/internal/domain"
	"github.com/devotionsim/proposal-api/internal/metrics"
	"github.com/devotionsim/proposal-api/internal/repository"
)

// AdminSubject is the JWT subject of the single operator account
const AdminSubject = "admin"

// AdminService authenticates the operator and rate limits failed logins per client IP
type AdminService struct {
	credentials *auth.CredentialChecker
	tokens      *auth.TokenIssuer
	attempts    *repository.CounterRepository
	metrics     *metrics.Metrics
	logger      *zap.Logger
	maxAttempts int
	lockout     time.Duration
	now         func() time.Time
}

// NewAdminService creates a new admin service
func NewAdminService(
	credentials *auth.CredentialChecker,
	tokens *auth.TokenIssuer,
	attempts *repository.CounterRepository,
	m *metrics.Metrics,
	maxAttempts int,
	lockout time.Duration,
	logger *zap.Logger,
) *AdminService {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if lockout <= 0 {
		lockout = time.Minute
	}
	return &AdminService{
		credentials: credentials,
		tokens:      tokens,
		attempts:    attempts,
		metrics:     m,
		logger:      logger,
		maxAttempts: maxAttempts,
		lockout:     lockout,
		now:         time.Now,
	}
}

// counterTTL keeps failed-attempt counters around longer than the lockout itself
func (s *AdminService) counterTTL() time.Duration {
	if ttl := 5 * s.lockout; ttl > 5*time.Minute {
		return ttl
	}
	return 5 * time.Minute
}

// Login checks the credentials and issues a session token.
// Returns *LoginLockedError while the client is locked out and *LoginFailedError on bad credentials.
func (s *AdminService) Login(ctx context.Context, clientIP string, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	now := s.now()
	log := s.logger.With(zap.String("client_ip", clientIP))

	counter, err := s.attempts.Get(ctx, clientIP)
	if err != nil {
		// an unavailable store must not lock the operator out
		log.Warn("failed to read login attempts", zap.Error(err))
		counter = repository.Counter{}
	}

	if counter.Count >= s.maxAttempts && now.Before(counter.ResetAt) {
		s.metrics.LoginAttempts.WithLabelValues("locked").Inc()
		return nil, &LoginLockedError{RetryAfter: counter.ResetAt.Sub(now)}
	}

	if err := s.credentials.Check(req.Password, req.TOTPCode); err != nil {
		if errors.Is(err, auth.ErrNoCredentials) {
			log.Error("admin login attempted without configured credentials")
			return nil, fmt.Errorf("admin login: %w", err)
		}

		counter.Count++
		counter.ResetAt = now.Add(s.lockout)
		if saveErr := s.attempts.Save(ctx, clientIP, counter, s.counterTTL()); saveErr != nil {
			log.Warn("failed to record login attempt", zap.Error(saveErr))
		}

		s.metrics.LoginAttempts.WithLabelValues("failed").Inc()
		log.Warn("admin login failed", zap.Int("attempts", counter.Count), zap.Error(err))

		remaining := s.maxAttempts - counter.Count
		if remaining < 0 {
			remaining = 0
		}
		return nil, &LoginFailedError{AttemptsRemaining: remaining}
	}

	if err := s.attempts.Reset(ctx, clientIP); err != nil {
		log.Warn("failed to reset login attempts", zap.Error(err))
	}

	token, expiresAt, err := s.tokens.Issue(AdminSubject)
	if err != nil {
		return nil, fmt.Errorf("failed to issue admin token: %w", err)
	}

	s.metrics.LoginAttempts.WithLabelValues("success").Inc()
	log.Info("admin logged in")

	return &domain.LoginResponse{Success: true, Token: token, ExpiresAt: expiresAt}, nil
}

// TokenTTL is the lifetime of issued session tokens
func (s *AdminService) TokenTTL() time.Duration {
	return s.tokens.TTL()
}
