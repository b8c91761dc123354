package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	razorpay "github.com/razorpay/razorpay-go"
	"github.com/razorpay/razorpay-go/utils"
	"go.uber.org/zap"

	"github.com/devotionsim/proposal-api/internal/config"
	"github.com/devotionsim/proposal-api/internal/domain"
)

const razorpayLinkPaid = "payment_link.paid"

// paymentLinkAPI is the part of the razorpay client used here
type paymentLinkAPI interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// RazorpayProcessor creates Razorpay payment links and parses their webhooks
type RazorpayProcessor struct {
	links         paymentLinkAPI
	webhookSecret string
	currency      string
	timeout       time.Duration
	logger        *zap.Logger
}

// NewRazorpayProcessor creates a processor from payment config
func NewRazorpayProcessor(cfg *config.PaymentConfig, logger *zap.Logger) *RazorpayProcessor {
	client := razorpay.NewClient(cfg.KeyID, cfg.KeySecret)
	return newRazorpayProcessor(client.PaymentLink, cfg, logger)
}

func newRazorpayProcessor(links paymentLinkAPI, cfg *config.PaymentConfig, logger *zap.Logger) *RazorpayProcessor {
	currency := strings.ToUpper(cfg.Currency)
	if currency == "" {
		currency = "EUR"
	}
	return &RazorpayProcessor{
		links:         links,
		webhookSecret: cfg.WebhookSecret,
		currency:      currency,
		timeout:       cfg.TimeoutDuration(),
		logger:        logger,
	}
}

func (p *RazorpayProcessor) Name() string { return "razorpay" }

// referenceID must be unique per link at Razorpay, so each attempt gets a suffix
func referenceID(proposalID, idempotencyKey string) string {
	suffix := strings.ReplaceAll(idempotencyKey, "-", "")
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	ref := proposalID + "-" + suffix
	if len(ref) > 40 {
		ref = ref[:40]
	}
	return ref
}

func describe(order Order) string {
	names := make([]string, 0, len(order.LineItems))
	for _, li := range order.LineItems {
		if li.Quantity > 1 {
			names = append(names, fmt.Sprintf("%d x %s", li.Quantity, li.Name))
		} else {
			names = append(names, li.Name)
		}
	}
	desc := strings.Join(names, ", ")
	if len(desc) > 2048 {
		desc = desc[:2048]
	}
	return desc
}

// CreatePaymentLink creates a hosted payment link for the order.
// The razorpay client has no context support, so the call is raced against ctx.
func (p *RazorpayProcessor) CreatePaymentLink(ctx context.Context, order Order) (*PaymentLink, error) {
	amount := order.Amount()
	if amount <= 0 {
		return nil, domain.NewValidationError("amount", "checkout amount must be positive")
	}

	currency := order.Currency
	if currency == "" {
		currency = p.currency
	}

	data := map[string]interface{}{
		"amount":          amount,
		"currency":        currency,
		"accept_partial":  false,
		"reference_id":    referenceID(order.ProposalID, order.IdempotencyKey),
		"description":     describe(order),
		"callback_url":    order.RedirectURL,
		"callback_method": "get",
		"customer": map[string]interface{}{
			"name":    order.Customer.FullName,
			"email":   order.Customer.Email,
			"contact": order.Customer.Phone,
		},
		"notify": map[string]interface{}{
			"sms":   false,
			"email": false,
		},
		"notes": map[string]interface{}{
			"proposal_id":   order.ProposalID,
			"client_name":   order.ClientName,
			"proposal_type": string(order.ProposalType),
			"note":          order.Note,
		},
	}
	headers := map[string]string{"X-Idempotency-Key": order.IdempotencyKey}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	type result struct {
		body map[string]interface{}
		err  error
	}
	done := make(chan result, 1)
	go func() {
		body, err := p.links.Create(data, headers)
		done <- result{body: body, err: err}
	}()

	var res result
	select {
	case <-ctx.Done():
		return nil, &domain.UpstreamTimeoutError{Service: "payment", Err: ctx.Err()}
	case res = <-done:
	}

	if res.err != nil {
		p.logger.Error("razorpay payment link rejected",
			zap.String("proposal_id", order.ProposalID),
			zap.Error(res.err))
		return nil, &domain.UpstreamRejectedError{Service: "payment", Detail: res.err.Error(), Err: res.err}
	}

	id, _ := res.body["id"].(string)
	url, _ := res.body["short_url"].(string)
	if id == "" || url == "" {
		return nil, &domain.UpstreamRejectedError{Service: "payment", Detail: "processor did not return a payment link"}
	}

	// webhooks identify the payment link, so it doubles as the order id
	return &PaymentLink{ID: id, OrderID: id, URL: url}, nil
}

func (p *RazorpayProcessor) SignatureRequired() bool {
	return p.webhookSecret != ""
}

// VerifySignature checks the X-Razorpay-Signature header: hex HMAC-SHA256 of the body
func (p *RazorpayProcessor) VerifySignature(body []byte, signature string) bool {
	if p.webhookSecret == "" || signature == "" {
		return false
	}
	return utils.VerifyWebhookSignature(string(body), signature, p.webhookSecret)
}

type razorpayWebhook struct {
	Event   string `json:"event"`
	Payload struct {
		PaymentLink struct {
			Entity struct {
				ID     string `json:"id"`
				Status string `json:"status"`
			} `json:"entity"`
		} `json:"payment_link"`
		Payment struct {
			Entity struct {
				ID       string `json:"id"`
				Amount   int64  `json:"amount"`
				Currency string `json:"currency"`
				Status   string `json:"status"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// ParseEvent normalizes a Razorpay webhook. Events other than payment_link.paid
// come back with their raw type and are ignored by correlation.
func (p *RazorpayProcessor) ParseEvent(body []byte) (*SettlementEvent, error) {
	var wh razorpayWebhook
	if err := json.Unmarshal(body, &wh); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownEvent, err)
	}
	if wh.Event == "" {
		return nil, ErrUnknownEvent
	}

	ev := &SettlementEvent{
		Type:      wh.Event,
		OrderID:   wh.Payload.PaymentLink.Entity.ID,
		PaymentID: wh.Payload.Payment.Entity.ID,
		Status:    wh.Payload.Payment.Entity.Status,
		Amount: domain.Money{
			Amount:   wh.Payload.Payment.Entity.Amount,
			Currency: wh.Payload.Payment.Entity.Currency,
		},
	}
	if wh.Event == razorpayLinkPaid {
		ev.Type = EventPaymentCompleted
	}
	return ev, nil
}
