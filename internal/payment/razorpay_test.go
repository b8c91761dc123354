package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/devotionsim/proposal-api/internal/config"
	"github.com/devotionsim/proposal-api/internal/domain"
)

type fakeLinks struct {
	data    map[string]interface{}
	headers map[string]string
	resp    map[string]interface{}
	err     error
	delay   time.Duration
}

func (f *fakeLinks) Create(data map[string]interface{}, headers map[string]string) (map[string]interface{}, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.data = data
	f.headers = headers
	return f.resp, f.err
}

func testOrder() Order {
	return Order{
		ProposalID:     "abc123",
		ClientName:     "Acme",
		ProposalType:   domain.ProposalTypeRental,
		LineItems:      []LineItem{{Name: "Reserva Acme (30% del total)", Quantity: 1, UnitAmount: 30000}},
		Customer:       domain.Contact{FullName: "Ana", Email: "ana@example.com", Phone: "+34600000000"},
		RedirectURL:    "https://example.com/payment-success?lang=es",
		IdempotencyKey: "0f8fad5b-d9cb-469f-a165-70867728950e",
	}
}

func sign(secret string, body []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

func TestRazorpayProcessor_CreatePaymentLink(t *testing.T) {
	links := &fakeLinks{resp: map[string]interface{}{"id": "plink_1", "short_url": "https://rzp.io/i/x"}}
	p := newRazorpayProcessor(links, &config.PaymentConfig{Currency: "eur", Timeout: 5}, zap.NewNop())

	link, err := p.CreatePaymentLink(context.Background(), testOrder())
	require.NoError(t, err)
	assert.Equal(t, &PaymentLink{ID: "plink_1", OrderID: "plink_1", URL: "https://rzp.io/i/x"}, link)

	assert.Equal(t, int64(30000), links.data["amount"])
	assert.Equal(t, "EUR", links.data["currency"])
	assert.Equal(t, "abc123-0f8fad5b", links.data["reference_id"])
	assert.Equal(t, "https://example.com/payment-success?lang=es", links.data["callback_url"])
	assert.Equal(t, "0f8fad5b-d9cb-469f-a165-70867728950e", links.headers["X-Idempotency-Key"])
}

func TestRazorpayProcessor_CreatePaymentLinkErrors(t *testing.T) {
	t.Run("rejection", func(t *testing.T) {
		links := &fakeLinks{err: errors.New("BAD_REQUEST_ERROR")}
		p := newRazorpayProcessor(links, &config.PaymentConfig{}, zap.NewNop())

		_, err := p.CreatePaymentLink(context.Background(), testOrder())
		var rejected *domain.UpstreamRejectedError
		require.ErrorAs(t, err, &rejected)
		assert.Contains(t, rejected.Detail, "BAD_REQUEST_ERROR")
	})

	t.Run("missing link in response", func(t *testing.T) {
		links := &fakeLinks{resp: map[string]interface{}{}}
		p := newRazorpayProcessor(links, &config.PaymentConfig{}, zap.NewNop())

		_, err := p.CreatePaymentLink(context.Background(), testOrder())
		var rejected *domain.UpstreamRejectedError
		assert.ErrorAs(t, err, &rejected)
	})

	t.Run("timeout", func(t *testing.T) {
		links := &fakeLinks{delay: 200 * time.Millisecond}
		p := newRazorpayProcessor(links, &config.PaymentConfig{}, zap.NewNop())

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		_, err := p.CreatePaymentLink(ctx, testOrder())
		var timeout *domain.UpstreamTimeoutError
		assert.ErrorAs(t, err, &timeout)
	})

	t.Run("zero amount", func(t *testing.T) {
		p := newRazorpayProcessor(&fakeLinks{}, &config.PaymentConfig{}, zap.NewNop())
		order := testOrder()
		order.LineItems = nil

		_, err := p.CreatePaymentLink(context.Background(), order)
		assert.True(t, domain.IsValidationError(err))
	})
}

func TestRazorpayProcessor_VerifySignature(t *testing.T) {
	body := []byte(`{"event":"payment_link.paid"}`)

	p := newRazorpayProcessor(&fakeLinks{}, &config.PaymentConfig{WebhookSecret: "whsec"}, zap.NewNop())
	assert.True(t, p.SignatureRequired())
	assert.True(t, p.VerifySignature(body, sign("whsec", body)))
	assert.False(t, p.VerifySignature(body, sign("other", body)))
	assert.False(t, p.VerifySignature(body, ""))
	assert.False(t, p.VerifySignature([]byte(`{"event":"payment_link.cancelled"}`), sign("whsec", body)), "tampered body")

	open := newRazorpayProcessor(&fakeLinks{}, &config.PaymentConfig{}, zap.NewNop())
	assert.False(t, open.SignatureRequired())
}

func TestRazorpayProcessor_ParseEvent(t *testing.T) {
	p := newRazorpayProcessor(&fakeLinks{}, &config.PaymentConfig{}, zap.NewNop())

	body := []byte(`{
		"event": "payment_link.paid",
		"payload": {
			"payment_link": {"entity": {"id": "plink_1", "status": "paid"}},
			"payment": {"entity": {"id": "pay_9", "amount": 30000, "currency": "EUR", "status": "captured"}}
		}
	}`)

	ev, err := p.ParseEvent(body)
	require.NoError(t, err)
	assert.True(t, ev.Completed())
	assert.Equal(t, "plink_1", ev.OrderID)
	assert.Equal(t, "pay_9", ev.PaymentID)
	assert.Equal(t, domain.Money{Amount: 30000, Currency: "EUR"}, ev.Amount)

	other, err := p.ParseEvent([]byte(`{"event":"payment.failed","payload":{}}`))
	require.NoError(t, err)
	assert.False(t, other.Completed())

	_, err = p.ParseEvent([]byte(`not json`))
	assert.ErrorIs(t, err, ErrUnknownEvent)

	_, err = p.ParseEvent([]byte(`{}`))
	assert.ErrorIs(t, err, ErrUnknownEvent)
}

func TestNewProcessor(t *testing.T) {
	assert.IsType(t, Unconfigured{}, NewProcessor(&config.PaymentConfig{Provider: "razorpay"}, zap.NewNop()))
	assert.IsType(t, Unconfigured{}, NewProcessor(&config.PaymentConfig{Provider: "stripe", KeyID: "k", KeySecret: "s"}, zap.NewNop()))
	assert.IsType(t, &RazorpayProcessor{}, NewProcessor(&config.PaymentConfig{Provider: "razorpay", KeyID: "k", KeySecret: "s"}, zap.NewNop()))

	_, err := Unconfigured{}.CreatePaymentLink(context.Background(), testOrder())
	var rejected *domain.UpstreamRejectedError
	assert.ErrorAs(t, err, &rejected)
}
