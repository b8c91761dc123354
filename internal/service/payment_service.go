package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/devotionsim/proposal-api/internal/domain"
	"github.com/devotionsim/proposal-api/internal/logger"
	"github.com/devotionsim/proposal-api/internal/metrics"
	"github.com/devotionsim/proposal-api/internal/notify"
	"github.com/devotionsim/proposal-api/internal/payment"
	"github.com/devotionsim/proposal-api/internal/pricing"
	"github.com/devotionsim/proposal-api/internal/repository"
)

// CheckoutOptions selects what a checkout charges for
type CheckoutOptions struct {
	Contact domain.Contact
	// Package limits a purchase checkout to one tier; empty charges all three
	Package string
	// DownPayment asks for a reservation payment on a purchase; rentals use their own flag
	DownPayment           bool
	DownPaymentPercentage float64
	Lang                  string
	// Rental overrides the stored rental details, e.g. after re-pricing for selected dates
	Rental *domain.RentalDetails
}

// PaymentService correlates proposals with processor payment links and settlements
type PaymentService struct {
	paymentRepo   *repository.PaymentRepository
	processor     payment.Processor
	notifier      notify.Notifier
	metrics       *metrics.Metrics
	logger        *zap.Logger
	baseURL       string
	currency      string
	notifyTimeout time.Duration
	now           func() time.Time
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	paymentRepo *repository.PaymentRepository,
	processor payment.Processor,
	notifier notify.Notifier,
	m *metrics.Metrics,
	baseURL, currency string,
	notifyTimeout time.Duration,
	logger *zap.Logger,
) *PaymentService {
	if currency == "" {
		currency = "EUR"
	}
	return &PaymentService{
		paymentRepo:   paymentRepo,
		processor:     processor,
		notifier:      notifier,
		metrics:       m,
		logger:        logger,
		baseURL:       strings.TrimRight(baseURL, "/"),
		currency:      strings.ToUpper(currency),
		notifyTimeout: notifyTimeout,
		now:           time.Now,
	}
}

// BuildLineItems returns the ordered line items of a checkout and whether they were
// collapsed into a single down-payment item
func BuildLineItems(p *domain.Proposal, opts CheckoutOptions) ([]pricing.LineItem, bool, error) {
	var (
		items []pricing.LineItem
		total float64
		down  bool
		pct   float64
	)

	switch p.ProposalType {
	case domain.ProposalTypeRental:
		details := opts.Rental
		if details == nil {
			details = p.RentalDetails
		}
		if details == nil {
			return nil, false, domain.ErrMissingDetails
		}
		items = pricing.RentalLineItems(details)
		total = details.Total
		down = details.RequireDownPayment
		pct = details.DownPaymentPercentage
	case domain.ProposalTypePurchase:
		if p.PurchaseDetails == nil {
			return nil, false, domain.ErrMissingDetails
		}
		var err error
		items, err = pricing.PurchaseLineItems(p.PurchaseDetails, opts.Package)
		if err != nil {
			return nil, false, err
		}
		total = pricing.SumLineItems(items)
		down = opts.DownPayment
		pct = opts.DownPaymentPercentage
	default:
		return nil, false, domain.NewValidationError("proposalType", "Invalid proposal type")
	}

	if down && pct > 0 {
		return []pricing.LineItem{pricing.ReservationItem(p.ClientName, total, pct)}, true, nil
	}
	return items, false, nil
}

func (s *PaymentService) redirectURL(proposalID string, isDownPayment bool, lang string) string {
	if isDownPayment {
		u := s.baseURL + "/payment-success"
		if lang != "" {
			u += "?lang=" + lang
		}
		return u
	}
	return s.baseURL + "/proposal/" + proposalID + "?payment=success"
}

// CreateCheckout creates a hosted payment link for a proposal and remembers it.
// Failing to remember the link does not fail the checkout.
func (s *PaymentService) CreateCheckout(ctx context.Context, p *domain.Proposal, opts CheckoutOptions) (*domain.CheckoutResponse, error) {
	log := logger.WithProposal(logger.FromContext(ctx, s.logger), p.ID)

	items, isDownPayment, err := BuildLineItems(p, opts)
	if err != nil {
		return nil, err
	}

	order := payment.Order{
		ProposalID:     p.ID,
		ClientName:     p.ClientName,
		ProposalType:   p.ProposalType,
		Currency:       s.currency,
		Customer:       opts.Contact,
		RedirectURL:    s.redirectURL(p.ID, isDownPayment, opts.Lang),
		IdempotencyKey: uuid.NewString(),
		Note:           fmt.Sprintf("Proposal %s - %s (%s)", p.ID, p.ClientName, p.ProposalType),
	}
	for _, li := range items {
		order.LineItems = append(order.LineItems, payment.LineItem{
			Name:       li.Name,
			Quantity:   li.Quantity,
			UnitAmount: pricing.ToMinorUnits(li.UnitPrice),
		})
	}

	link, err := s.processor.CreatePaymentLink(ctx, order)
	if err != nil {
		s.metrics.CheckoutFailures.WithLabelValues(failureReason(err)).Inc()
		log.Error("failed to create payment link",
			zap.String("processor", s.processor.Name()),
			zap.Error(err))
		return nil, err
	}

	rec := &domain.PaymentRecord{
		PaymentLinkID: link.ID,
		OrderID:       link.OrderID,
		URL:           link.URL,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.paymentRepo.SavePaymentRecord(ctx, p.ID, rec); err != nil {
		log.Error("failed to store payment record", zap.String("payment_link_id", link.ID), zap.Error(err))
	}

	s.metrics.CheckoutsCreated.WithLabelValues(string(p.ProposalType), strconv.FormatBool(isDownPayment)).Inc()
	log.Info("payment link created",
		zap.String("payment_link_id", link.ID),
		zap.Int64("amount", order.Amount()),
		zap.Bool("down_payment", isDownPayment),
	)

	amount, _ := decimal.New(order.Amount(), -2).Float64()
	return &domain.CheckoutResponse{
		URL:           link.URL,
		PaymentLinkID: link.ID,
		OrderID:       link.OrderID,
		Amount:        amount,
		Currency:      order.Currency,
		IsDownPayment: isDownPayment,
	}, nil
}

func failureReason(err error) string {
	var timeout *domain.UpstreamTimeoutError
	var rejected *domain.UpstreamRejectedError
	switch {
	case errors.As(err, &timeout):
		return "timeout"
	case errors.As(err, &rejected):
		return "rejected"
	case domain.IsValidationError(err):
		return "validation"
	default:
		return "error"
	}
}

// HandleSettlementEvent records a confirmed payment against its proposal.
// Only a bad signature is returned as an error; everything else is logged so the
// processor always gets an acknowledgement.
func (s *PaymentService) HandleSettlementEvent(ctx context.Context, body []byte, signature string) error {
	if s.processor.SignatureRequired() && !s.processor.VerifySignature(body, signature) {
		s.metrics.SignatureFailures.Inc()
		s.logger.Warn("webhook signature rejected", zap.String("processor", s.processor.Name()))
		return &domain.SignatureError{Reason: "invalid signature"}
	}

	event, err := s.processor.ParseEvent(body)
	if err != nil {
		s.metrics.WebhookEvents.WithLabelValues("unparseable").Inc()
		s.logger.Warn("ignoring unparseable webhook", zap.Error(err))
		return nil
	}
	if !event.Completed() {
		s.metrics.WebhookEvents.WithLabelValues("ignored").Inc()
		s.logger.Info("ignoring webhook event", zap.String("type", event.Type))
		return nil
	}
	if event.OrderID == "" {
		s.metrics.WebhookEvents.WithLabelValues("unmatched").Inc()
		s.logger.Warn("completed payment without order id", zap.String("payment_id", event.PaymentID))
		return nil
	}

	proposalID, err := s.paymentRepo.FindProposalIDByOrderID(ctx, event.OrderID)
	if err != nil {
		s.metrics.WebhookEvents.WithLabelValues("unmatched").Inc()
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("no proposal for paid order", zap.String("order_id", event.OrderID))
		} else {
			s.logger.Error("failed to correlate payment", zap.String("order_id", event.OrderID), zap.Error(err))
		}
		return nil
	}

	log := logger.WithProposal(s.logger, proposalID)

	// processors redeliver; the first settlement of a payment is final
	existing, err := s.paymentRepo.GetSettlement(ctx, proposalID)
	if err != nil {
		log.Warn("failed to read settlement", zap.Error(err))
	} else if existing != nil && existing.Paid && existing.PaymentID == event.PaymentID {
		s.metrics.WebhookEvents.WithLabelValues("duplicate").Inc()
		log.Info("payment already recorded", zap.String("payment_id", event.PaymentID))
		return nil
	}

	settlement := &domain.SettlementRecord{
		Paid:      true,
		PaymentID: event.PaymentID,
		Amount:    event.Amount,
		PaidAt:    s.now().UTC(),
	}
	if err := s.paymentRepo.SaveSettlement(ctx, proposalID, settlement); err != nil {
		s.metrics.WebhookEvents.WithLabelValues("error").Inc()
		log.Error("failed to store settlement", zap.String("payment_id", event.PaymentID), zap.Error(err))
		return nil
	}

	s.metrics.WebhookEvents.WithLabelValues("settled").Inc()
	s.metrics.SettlementsRecorded.Inc()
	log.Info("payment confirmed",
		zap.String("payment_id", event.PaymentID),
		zap.Int64("amount", event.Amount.Amount),
		zap.String("currency", event.Amount.Currency),
	)

	s.notifyPaid(ctx, proposalID, event)
	return nil
}

func (s *PaymentService) notifyPaid(ctx context.Context, proposalID string, event *payment.SettlementEvent) {
	ctx, cancel := context.WithTimeout(ctx, s.notifyTimeout)
	defer cancel()

	msg := notify.Message{
		Subject: fmt.Sprintf("Payment Confirmed: Proposal %s", proposalID),
		Fields: map[string]string{
			"proposalId": proposalID,
			"paymentId":  event.PaymentID,
			"amount":     FormatMoney(event.Amount),
			"status":     event.Status,
		},
	}
	if err := s.notifier.Notify(ctx, msg); err != nil {
		s.metrics.NotificationFailures.Inc()
		s.logger.Warn("failed to send payment notification", zap.String("proposal_id", proposalID), zap.Error(err))
	}
}

// FormatMoney renders minor units in currency units, e.g. 30000 EUR -> "300€"
func FormatMoney(m domain.Money) string {
	major := decimal.New(m.Amount, -2).String()
	if m.Currency == "" || strings.EqualFold(m.Currency, "EUR") {
		return major + "€"
	}
	return major + " " + strings.ToUpper(m.Currency)
}
