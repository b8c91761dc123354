package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/devotionsim/proposal-api/internal/domain"
	"github.com/devotionsim/proposal-api/internal/logger"
	"github.com/devotionsim/proposal-api/internal/metrics"
	"github.com/devotionsim/proposal-api/internal/notify"
	"github.com/devotionsim/proposal-api/internal/pricing"
	"github.com/devotionsim/proposal-api/internal/repository"
)

// LifecycleService handles what a client does with a shared proposal:
// re-pricing for dates, acceptance and checkout
type LifecycleService struct {
	proposals      *ProposalService
	payments       *PaymentService
	settings       *SettingsService
	acceptanceRepo *repository.AcceptanceRepository
	notifier       notify.Notifier
	metrics        *metrics.Metrics
	logger         *zap.Logger
	notifyTimeout  time.Duration
	now            func() time.Time
}

// NewLifecycleService creates a new lifecycle service
func NewLifecycleService(
	proposals *ProposalService,
	payments *PaymentService,
	settings *SettingsService,
	acceptanceRepo *repository.AcceptanceRepository,
	notifier notify.Notifier,
	m *metrics.Metrics,
	notifyTimeout time.Duration,
	logger *zap.Logger,
) *LifecycleService {
	return &LifecycleService{
		proposals:      proposals,
		payments:       payments,
		settings:       settings,
		acceptanceRepo: acceptanceRepo,
		notifier:       notifier,
		metrics:        m,
		logger:         logger,
		notifyTimeout:  notifyTimeout,
		now:            time.Now,
	}
}

// Quote re-prices a rental for the selected dates without touching the stored proposal
func (s *LifecycleService) Quote(ctx context.Context, id string, req *domain.QuoteRequest) (*domain.QuoteResponse, error) {
	snap, err := s.proposals.snapshot(ctx, id)
	if err != nil {
		return nil, err
	}
	if snap.state == domain.ProposalStateExpired {
		return nil, &domain.ExpiredError{ID: id}
	}
	p := snap.proposal
	if p.ProposalType != domain.ProposalTypeRental {
		return nil, ErrNotRental
	}
	if p.RentalDetails == nil {
		return nil, domain.ErrMissingDetails
	}

	details := pricing.Reprice(p.RentalDetails, *req.SelectedDates.ToDomain())

	resp := &domain.QuoteResponse{
		RentalDetails: details,
		Days:          details.Days(),
		Total:         details.Total,
	}
	if details.RequireDownPayment && details.DownPaymentPercentage > 0 {
		resp.DownPaymentAmount = pricing.DownPaymentAmount(details.Total, details.DownPaymentPercentage)
	}
	return resp, nil
}

// Accept records the client's contact details and tells the operator
func (s *LifecycleService) Accept(ctx context.Context, id string, req *domain.AcceptProposalRequest) (*domain.AcceptProposalResponse, error) {
	snap, err := s.proposals.snapshot(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := domain.CheckAcceptance(snap.proposal, snap.state); err != nil {
		return nil, err
	}

	if err := s.recordAcceptance(ctx, snap.proposal, req); err != nil {
		return nil, err
	}
	return &domain.AcceptProposalResponse{Success: true, State: domain.ProposalStateAccepted}, nil
}

func (s *LifecycleService) recordAcceptance(ctx context.Context, p *domain.Proposal, req *domain.AcceptProposalRequest) error {
	rec := &domain.AcceptanceRecord{
		ProposalID:    p.ID,
		Contact:       req.Contact(),
		Comments:      strings.TrimSpace(req.Comments),
		SelectedDates: req.SelectedDates.ToDomain(),
		AcceptedAt:    s.now().UTC(),
	}
	if err := s.acceptanceRepo.Save(ctx, rec); err != nil {
		return fmt.Errorf("failed to record acceptance: %w", err)
	}

	s.metrics.Acceptances.WithLabelValues(string(p.ProposalType)).Inc()
	logger.WithProposal(s.logger, p.ID).Info("proposal accepted",
		zap.String("type", string(p.ProposalType)),
		zap.Bool("selected_dates", rec.SelectedDates != nil),
	)

	s.notifyAccepted(ctx, p, rec)
	return nil
}

func (s *LifecycleService) notifyAccepted(ctx context.Context, p *domain.Proposal, rec *domain.AcceptanceRecord) {
	ctx, cancel := context.WithTimeout(ctx, s.notifyTimeout)
	defer cancel()

	fields := map[string]string{
		"proposalId":   p.ID,
		"clientName":   p.ClientName,
		"proposalType": string(p.ProposalType),
		"fullName":     rec.Contact.FullName,
		"email":        rec.Contact.Email,
		"phone":        rec.Contact.Phone,
	}
	if rec.Comments != "" {
		fields["comments"] = rec.Comments
	}
	if d := rec.SelectedDates; d != nil {
		fields["selectedDates"] = d.Start.Format("2006-01-02") + " - " + d.End.Format("2006-01-02")
	}

	msg := notify.Message{
		Subject: fmt.Sprintf("Proposal Acceptance: %s (%s)", p.ClientName, p.ProposalType),
		ReplyTo: rec.Contact.Email,
		Fields:  fields,
	}
	if err := s.notifier.Notify(ctx, msg); err != nil {
		s.metrics.NotificationFailures.Inc()
		logger.WithProposal(s.logger, p.ID).Warn("failed to send acceptance notification", zap.Error(err))
	}
}

// Checkout accepts a proposal and opens a payment link in one step.
// A repeated idempotency token within CheckoutTokenTTL returns the earlier link.
func (s *LifecycleService) Checkout(ctx context.Context, id string, req *domain.CheckoutRequest) (*domain.CheckoutResponse, error) {
	snap, err := s.proposals.snapshot(ctx, id)
	if err != nil {
		return nil, err
	}
	p := snap.proposal
	if err := domain.CheckAcceptance(p, snap.state); err != nil {
		return nil, err
	}

	// the cache is consulted only once the proposal may still be checked out
	token := strings.TrimSpace(req.IdempotencyToken)
	if token != "" {
		prev, err := s.acceptanceRepo.GetCheckoutByToken(ctx, id, token)
		if err != nil {
			s.logger.Warn("failed to look up checkout token", zap.String("proposal_id", id), zap.Error(err))
		} else if prev != nil {
			return prev, nil
		}
	}

	opts := CheckoutOptions{
		Contact: req.Contact(),
		Package: req.Package,
		Lang:    req.Lang,
	}
	if p.ProposalType == domain.ProposalTypeRental {
		if p.RentalDetails == nil {
			return nil, domain.ErrMissingDetails
		}
		if req.SelectedDates != nil {
			opts.Rental = pricing.Reprice(p.RentalDetails, *req.SelectedDates.ToDomain())
		}
	} else if req.DownPayment {
		opts.DownPayment = true
		opts.DownPaymentPercentage = s.settings.Get(ctx).DownPaymentPercentage
	}

	// validate the order before recording anything
	if _, _, err := BuildLineItems(p, opts); err != nil {
		return nil, err
	}

	if err := s.recordAcceptance(ctx, p, &req.AcceptProposalRequest); err != nil {
		return nil, err
	}

	resp, err := s.payments.CreateCheckout(ctx, p, opts)
	if err != nil {
		return nil, err
	}

	if token != "" {
		if err := s.acceptanceRepo.SaveCheckoutToken(ctx, id, token, resp); err != nil {
			s.logger.Warn("failed to store checkout token", zap.String("proposal_id", id), zap.Error(err))
		}
	}
	return resp, nil
}
