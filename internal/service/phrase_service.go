package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/devotionsim/proposal-api/internal/ai"
	"github.com/devotionsim/proposal-api/internal/domain"
	"github.com/devotionsim/proposal-api/internal/metrics"
	"github.com/devotionsim/proposal-api/internal/repository"
)

// PhraseSessionTTL is how long a suggestion session keeps its count
const PhraseSessionTTL = 24 * time.Hour

// PhraseService produces greeting suggestions for the proposal editor, capped per session
type PhraseService struct {
	generator ai.Generator
	sessions  *repository.CounterRepository
	metrics   *metrics.Metrics
	logger    *zap.Logger
	cap       int
	timeout   time.Duration
}

// NewPhraseService creates a new phrase service
func NewPhraseService(
	generator ai.Generator,
	sessions *repository.CounterRepository,
	m *metrics.Metrics,
	sessionCap int,
	timeout time.Duration,
	logger *zap.Logger,
) *PhraseService {
	if sessionCap <= 0 {
		sessionCap = 5
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &PhraseService{
		generator: generator,
		sessions:  sessions,
		metrics:   m,
		logger:    logger,
		cap:       sessionCap,
		timeout:   timeout,
	}
}

// Generate returns a phrase and how many suggestions the session has left.
// An empty session id starts a fresh session.
func (s *PhraseService) Generate(ctx context.Context, req *domain.GeneratePhraseRequest) (*domain.GeneratePhraseResponse, string, error) {
	clientName := strings.TrimSpace(req.ClientName)
	if clientName == "" {
		return nil, "", domain.NewValidationError("clientName", "clientName is required")
	}

	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	counter, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, sessionID, fmt.Errorf("failed to read phrase session: %w", err)
	}
	if counter.Count >= s.cap {
		s.metrics.PhrasesGenerated.WithLabelValues("limited").Inc()
		return nil, sessionID, ErrSessionLimit
	}

	genCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	phrase, err := s.generator.GeneratePhrase(genCtx, clientName, req.Locale)
	if err != nil {
		s.metrics.PhrasesGenerated.WithLabelValues(phraseOutcome(err)).Inc()
		s.logger.Warn("phrase generation failed",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		return nil, sessionID, err
	}

	counter.Count++
	if err := s.sessions.Save(ctx, sessionID, counter, PhraseSessionTTL); err != nil {
		s.logger.Warn("failed to update phrase session", zap.String("session_id", sessionID), zap.Error(err))
	}

	s.metrics.PhrasesGenerated.WithLabelValues("success").Inc()
	return &domain.GeneratePhraseResponse{
		Phrase:    phrase,
		Remaining: s.cap - counter.Count,
	}, sessionID, nil
}

func phraseOutcome(err error) string {
	switch {
	case errors.Is(err, ai.ErrAIQuota):
		return "quota"
	case errors.Is(err, ai.ErrNotConfigured):
		return "unconfigured"
	default:
		return "error"
	}
}
