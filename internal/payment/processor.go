package payment

import (
	"context"
	"errors"

	"github.com/devotionsim/proposal-api/internal/domain"
)

// EventPaymentCompleted is the normalized type of a settled payment
const EventPaymentCompleted = "payment.completed"

// ErrUnknownEvent is returned by ParseEvent for bodies that are not processor events
var ErrUnknownEvent = errors.New("unrecognised webhook payload")

// LineItem is a named charge in minor currency units
type LineItem struct {
	Name       string
	Quantity   int
	UnitAmount int64
}

// Order is everything a processor needs to create a hosted payment page
type Order struct {
	ProposalID     string
	ClientName     string
	ProposalType   domain.ProposalType
	LineItems      []LineItem
	Currency       string
	Customer       domain.Contact
	RedirectURL    string
	IdempotencyKey string
	Note           string
}

// Amount sums the line items
func (o Order) Amount() int64 {
	var total int64
	for _, li := range o.LineItems {
		total += li.UnitAmount * int64(li.Quantity)
	}
	return total
}

// PaymentLink is the processor's answer to a checkout request
type PaymentLink struct {
	ID      string
	OrderID string
	URL     string
}

// SettlementEvent is a processor webhook normalized to what correlation needs
type SettlementEvent struct {
	Type      string
	OrderID   string
	PaymentID string
	Status    string
	Amount    domain.Money
}

// Completed reports whether the event confirms a payment
func (e *SettlementEvent) Completed() bool {
	return e != nil && e.Type == EventPaymentCompleted
}

// Processor creates payment links and interprets settlement webhooks
type Processor interface {
	Name() string
	CreatePaymentLink(ctx context.Context, order Order) (*PaymentLink, error)
	// SignatureRequired reports whether webhooks must carry a valid signature
	SignatureRequired() bool
	VerifySignature(body []byte, signature string) bool
	ParseEvent(body []byte) (*SettlementEvent, error)
}

// Unconfigured is used when no processor credentials are present.
// Checkouts fail with an upstream rejection; webhooks are parsed as unknown.
type Unconfigured struct{}

func (Unconfigured) Name() string { return "unconfigured" }

func (Unconfigured) CreatePaymentLink(context.Context, Order) (*PaymentLink, error) {
	return nil, &domain.UpstreamRejectedError{Service: "payment", Detail: "payment processor not configured"}
}

func (Unconfigured) SignatureRequired() bool { return false }

func (Unconfigured) VerifySignature([]byte, string) bool { return false }

func (Unconfigured) ParseEvent([]byte) (*SettlementEvent, error) {
	return nil, ErrUnknownEvent
}
