package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/devotionsim/proposal-api/internal/domain"
	"github.com/devotionsim/proposal-api/internal/logger"
	"github.com/devotionsim/proposal-api/internal/metrics"
	"github.com/devotionsim/proposal-api/internal/pricing"
	"github.com/devotionsim/proposal-api/internal/repository"
)

// DefaultListLimit is how many recent proposals the operator list shows
const DefaultListLimit = 10

// ProposalService creates, reads, lists and deletes proposals
type ProposalService struct {
	proposalRepo   *repository.ProposalRepository
	paymentRepo    *repository.PaymentRepository
	acceptanceRepo *repository.AcceptanceRepository
	settings       *SettingsService
	metrics        *metrics.Metrics
	logger         *zap.Logger
	listLimit      int64
	now            func() time.Time
}

// NewProposalService creates a new proposal service
func NewProposalService(
	proposalRepo *repository.ProposalRepository,
	paymentRepo *repository.PaymentRepository,
	acceptanceRepo *repository.AcceptanceRepository,
	settings *SettingsService,
	m *metrics.Metrics,
	listLimit int64,
	logger *zap.Logger,
) *ProposalService {
	if listLimit <= 0 {
		listLimit = DefaultListLimit
	}
	return &ProposalService{
		proposalRepo:   proposalRepo,
		paymentRepo:    paymentRepo,
		acceptanceRepo: acceptanceRepo,
		settings:       settings,
		metrics:        m,
		logger:         logger,
		listLimit:      listLimit,
		now:            time.Now,
	}
}

// newProposalID returns an 11-character id that is short enough for links
func newProposalID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:11]
}

// Create validates the request, snapshots the current settings into it and stores it
func (s *ProposalService) Create(ctx context.Context, req *domain.CreateProposalRequest) (*domain.Proposal, error) {
	settings := s.settings.Get(ctx)

	in := domain.ProposalInput{
		ProposalType:    req.ProposalType,
		ClientName:      req.ClientName,
		ClientLogoURL:   req.ClientLogoURL,
		PersonalMessage: req.PersonalMessage,
		Notes:           req.Notes,
		RentalDetails:   req.RentalDetails,
		PurchaseDetails: req.PurchaseDetails,
	}

	if req.Rental != nil {
		if req.ProposalType != domain.ProposalTypeRental {
			return nil, domain.NewValidationError("rental", "Rental quantities are only allowed on rental proposals")
		}
		if req.RentalDetails != nil {
			return nil, domain.NewValidationError("rental", "Send either rentalDetails or rental quantities, not both")
		}
		details, err := quoteRental(req.Rental, settings)
		if err != nil {
			return nil, err
		}
		in.RentalDetails = details
	} else if in.RentalDetails != nil {
		in.RentalDetails = snapshotRental(in.RentalDetails, settings)
	}

	if in.PurchaseDetails != nil {
		in.PurchaseDetails = snapshotPurchase(in.PurchaseDetails, settings)
	}

	p, err := domain.NewProposal(in, s.now(), newProposalID)
	if err != nil {
		return nil, err
	}

	if err := s.proposalRepo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to store proposal: %w", err)
	}

	s.metrics.ProposalsCreated.WithLabelValues(string(p.ProposalType)).Inc()
	logger.WithProposal(s.logger, p.ID).Info("proposal created",
		zap.String("type", string(p.ProposalType)),
		zap.String("client", p.ClientName),
		zap.Time("expires_at", p.ExpiresAt),
	)
	return p, nil
}

// quoteRental prices rental quantities with the current settings
func quoteRental(q *domain.RentalQuoteRequest, settings domain.AdminSettings) (*domain.RentalDetails, error) {
	basePrice := q.BasePrice
	if basePrice == 0 {
		basePrice = settings.SimulatorPrice
		if q.IsVIP {
			basePrice = settings.SimulatorPriceVIP
		}
	}

	inputs := pricing.Inputs{
		BasePrice:           basePrice,
		NumberOfSimulators:  q.NumberOfSimulators,
		TransportKm:         q.TransportKm,
		TransportMultiplier: settings.TransportMultiplier,
		NumberOfStaff:       q.NumberOfStaff,
		NumberOfDays:        q.NumberOfDays,
		StaffMultiplier:     settings.StaffMultiplier,
		StaffTravel:         q.StaffTravel,
		StaffHotel:          q.StaffHotel,
	}
	if err := pricing.ValidateInputs(inputs); err != nil {
		return nil, err
	}

	details := pricing.BuildRentalDetails(inputs, q.NumberOfDays, q.IsVIP)
	if q.RequireDownPayment {
		details.RequireDownPayment = true
		details.DownPaymentPercentage = q.DownPaymentPercentage
		if details.DownPaymentPercentage == 0 {
			details.DownPaymentPercentage = settings.DownPaymentPercentage
		}
	}
	return details, nil
}

// snapshotRental fills rates the operator left out from the current settings
func snapshotRental(d *domain.RentalDetails, settings domain.AdminSettings) *domain.RentalDetails {
	out := d.Clone()

	if out.BasePrice == 0 {
		out.BasePrice = settings.SimulatorPrice
		if out.IsVIP {
			out.BasePrice = settings.SimulatorPriceVIP
		}
		if out.Subtotal == 0 {
			out.Subtotal = out.BasePrice * float64(out.SimulatorCount()) * float64(out.Days())
		}
	}

	if t := out.Transport; t != nil {
		if t.PricePerKm == 0 {
			t.PricePerKm = settings.TransportMultiplier
		}
		if t.TotalCost == 0 && t.Kilometers > 0 {
			t.TotalCost = t.Kilometers * t.PricePerKm
		}
	}

	if st := out.Staff; st != nil {
		if st.PricePerStaffDay == 0 {
			st.PricePerStaffDay = settings.StaffMultiplier
		}
		if st.TotalCost == 0 {
			st.Recompute()
		}
	}

	if out.RequireDownPayment && out.DownPaymentPercentage == 0 {
		out.DownPaymentPercentage = settings.DownPaymentPercentage
	}
	return out
}

// snapshotPurchase writes the current list prices into packages left blank
func snapshotPurchase(d *domain.PurchaseDetails, settings domain.AdminSettings) *domain.PurchaseDetails {
	out := *d
	if out.Packages.Basic == "" {
		out.Packages.Basic = pricing.FormatPackagePrice(settings.PurchasePriceTimeAttack)
	}
	if out.Packages.Professional == "" {
		out.Packages.Professional = pricing.FormatPackagePrice(settings.PurchasePriceSlady)
	}
	if out.Packages.Complete == "" {
		out.Packages.Complete = pricing.FormatPackagePrice(settings.PurchasePriceTopGun)
	}
	return &out
}

// load fetches and decodes a proposal, migrating legacy records on the fly
func (s *ProposalService) load(ctx context.Context, id string) (*domain.Proposal, bool, error) {
	raw, err := s.proposalRepo.GetRaw(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, false, &domain.NotFoundError{Resource: "proposal", ID: id}
		}
		return nil, false, fmt.Errorf("failed to get proposal: %w", err)
	}

	p, isLegacy, err := domain.DecodeStoredProposal(raw)
	if err != nil {
		return nil, false, fmt.Errorf("failed to decode proposal %s: %w", id, err)
	}
	if p.ID == "" {
		p.ID = id
	}
	return p, isLegacy, nil
}

// snapshot is a proposal together with its side records at one instant
type snapshot struct {
	proposal   *domain.Proposal
	isLegacy   bool
	acceptance *domain.AcceptanceRecord
	payment    *domain.PaymentRecord
	settlement *domain.SettlementRecord
	state      domain.ProposalState
}

func (s *ProposalService) snapshot(ctx context.Context, id string) (*snapshot, error) {
	p, isLegacy, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	acceptance, err := s.acceptanceRepo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get acceptance: %w", err)
	}
	payment, err := s.paymentRepo.GetPaymentRecord(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment record: %w", err)
	}
	settlement, err := s.paymentRepo.GetSettlement(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get settlement: %w", err)
	}

	return &snapshot{
		proposal:   p,
		isLegacy:   isLegacy,
		acceptance: acceptance,
		payment:    payment,
		settlement: settlement,
		state:      domain.StateAt(p, acceptance, payment, settlement, s.now()),
	}, nil
}

// Get returns a proposal view regardless of its state; used by the operator
func (s *ProposalService) Get(ctx context.Context, id string) (*domain.ProposalView, error) {
	snap, err := s.snapshot(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toView(snap)
}

// GetPublic returns a proposal view for the client link; expired proposals are gone
func (s *ProposalService) GetPublic(ctx context.Context, id string) (*domain.ProposalView, error) {
	snap, err := s.snapshot(ctx, id)
	if err != nil {
		return nil, err
	}
	if snap.state == domain.ProposalStateExpired {
		return nil, &domain.ExpiredError{ID: id}
	}
	return s.toView(snap)
}

// toView joins a snapshot into a reader response. Package prices that do not parse
// (free text on old records) leave the total out instead of failing the read.
func (s *ProposalService) toView(snap *snapshot) (*domain.ProposalView, error) {
	view := &domain.ProposalView{
		Proposal: snap.proposal,
		IsLegacy: snap.isLegacy,
		State:    snap.state,
		Payment: domain.PaymentStatusDTO{
			CheckoutCreated: snap.payment != nil,
		},
	}

	total, err := domain.GetProposalTotal(snap.proposal)
	switch {
	case err == nil:
		view.Total = &total
	case errors.Is(err, domain.ErrMissingDetails):
		return nil, fmt.Errorf("proposal %s: %w", snap.proposal.ID, err)
	default:
		logger.WithProposal(s.logger, snap.proposal.ID).Warn("proposal total unavailable", zap.Error(err))
	}
	if snap.settlement != nil && snap.settlement.Paid {
		paidAt := snap.settlement.PaidAt
		view.Payment.Paid = true
		view.Payment.PaidAt = &paidAt
	}
	return view, nil
}

// List returns the most recent proposals, skipping ids whose record has expired from the store
func (s *ProposalService) List(ctx context.Context) ([]domain.ProposalListItem, error) {
	ids, err := s.proposalRepo.RecentIDs(ctx, s.listLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list proposals: %w", err)
	}

	now := s.now()
	items := make([]domain.ProposalListItem, 0, len(ids))
	for _, id := range ids {
		p, _, err := s.load(ctx, id)
		if err != nil {
			if domain.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		items = append(items, domain.ProposalListItem{
			ID:           p.ID,
			ProposalType: p.ProposalType,
			ClientName:   p.ClientName,
			CreatedAt:    p.CreatedAt,
			ExpiresAt:    p.ExpiresAt,
			IsExpired:    p.IsExpiredAt(now),
		})
	}
	return items, nil
}

// Delete removes a proposal along with its side records and cached checkouts
func (s *ProposalService) Delete(ctx context.Context, id string) error {
	if _, err := s.proposalRepo.GetRaw(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &domain.NotFoundError{Resource: "proposal", ID: id}
		}
		return fmt.Errorf("failed to get proposal: %w", err)
	}

	if err := s.proposalRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete proposal: %w", err)
	}
	if err := s.acceptanceRepo.ClearCheckoutTokens(ctx, id); err != nil {
		return fmt.Errorf("failed to clear checkout tokens: %w", err)
	}

	s.metrics.ProposalsDeleted.Inc()
	logger.WithProposal(s.logger, id).Info("proposal deleted")
	return nil
}
