package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devotionsim/proposal-api/internal/domain"
	"github.com/devotionsim/proposal-api/internal/payment"
	"github.com/devotionsim/proposal-api/internal/service"
)

func TestBuildLineItems(t *testing.T) {
	rental := &domain.Proposal{
		ProposalType: domain.ProposalTypeRental,
		ClientName:   "Acme",
		RentalDetails: &domain.RentalDetails{
			BasePrice: 750, NumberOfSimulators: 1, NumberOfDays: 2,
			Subtotal: 1500, Total: 1500,
			RequireDownPayment: true, DownPaymentPercentage: 25,
		},
	}
	purchase := &domain.Proposal{
		ProposalType: domain.ProposalTypePurchase,
		ClientName:   "Acme",
		PurchaseDetails: &domain.PurchaseDetails{
			Packages: domain.Packages{Basic: "1.000€", Professional: "2.000€", Complete: "3.000€"},
		},
	}

	tests := []struct {
		name      string
		proposal  *domain.Proposal
		opts      service.CheckoutOptions
		wantItems int
		wantTotal float64
		wantDown  bool
	}{
		{"rental down payment from details", rental, service.CheckoutOptions{}, 1, 375, true},
		{"purchase all packages", purchase, service.CheckoutOptions{}, 3, 6000, false},
		{"purchase single package", purchase, service.CheckoutOptions{Package: "complete"}, 1, 3000, false},
		{"purchase down payment", purchase, service.CheckoutOptions{DownPayment: true, DownPaymentPercentage: 30}, 1, 1800, true},
		{"purchase down payment without percentage", purchase, service.CheckoutOptions{DownPayment: true}, 3, 6000, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, down, err := service.BuildLineItems(tt.proposal, tt.opts)
			require.NoError(t, err)
			assert.Len(t, items, tt.wantItems)
			assert.Equal(t, tt.wantDown, down)

			var total float64
			for _, li := range items {
				total += li.Amount()
			}
			assert.Equal(t, tt.wantTotal, total)
		})
	}

	t.Run("unknown package", func(t *testing.T) {
		_, _, err := service.BuildLineItems(purchase, service.CheckoutOptions{Package: "platinum"})
		assert.True(t, domain.IsValidationError(err))
	})

	t.Run("missing details", func(t *testing.T) {
		_, _, err := service.BuildLineItems(&domain.Proposal{ProposalType: domain.ProposalTypeRental}, service.CheckoutOptions{})
		assert.ErrorIs(t, err, domain.ErrMissingDetails)
	})
}

func TestPaymentService_HandleSettlementEvent(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*testEnv, string) {
		env := newTestEnv(t)
		env.processor.validSig = "good"
		p, err := env.proposals.Create(ctx, purchaseRequest())
		require.NoError(t, err)
		_, err = env.lifecycle.Checkout(ctx, p.ID, &domain.CheckoutRequest{AcceptProposalRequest: acceptRequest()})
		require.NoError(t, err)
		return env, p.ID
	}

	completed := &payment.SettlementEvent{
		Type:      payment.EventPaymentCompleted,
		OrderID:   "plink_test",
		PaymentID: "pay_123",
		Status:    "paid",
		Amount:    domain.Money{Amount: 30000, Currency: "EUR"},
	}

	t.Run("completed payment marks the proposal paid", func(t *testing.T) {
		env, id := setup(t)
		env.processor.event = completed

		require.NoError(t, env.payments.HandleSettlementEvent(ctx, []byte(`{}`), "good"))

		view, err := env.proposals.GetPublic(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, domain.ProposalStatePaid, view.State)
		assert.True(t, view.Payment.Paid)
		require.NotNil(t, view.Payment.PaidAt)

		msgs := env.notifier.sent()
		last := msgs[len(msgs)-1]
		assert.Equal(t, "Payment Confirmed: Proposal "+id, last.Subject)
		assert.Equal(t, "300€", last.Fields["amount"])
		assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.SettlementsRecorded))
	})

	t.Run("redelivery leaves the same settlement", func(t *testing.T) {
		env, id := setup(t)
		env.processor.event = completed

		require.NoError(t, env.payments.HandleSettlementEvent(ctx, []byte(`{}`), "good"))
		first, err := env.paymentRepo.GetSettlement(ctx, id)
		require.NoError(t, err)
		sentAfterFirst := len(env.notifier.sent())

		time.Sleep(5 * time.Millisecond)
		require.NoError(t, env.payments.HandleSettlementEvent(ctx, []byte(`{}`), "good"))
		second, err := env.paymentRepo.GetSettlement(ctx, id)
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Len(t, env.notifier.sent(), sentAfterFirst, "no second confirmation mail")
		assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.SettlementsRecorded))
	})

	t.Run("bad signature is rejected", func(t *testing.T) {
		env, id := setup(t)
		env.processor.event = completed

		err := env.payments.HandleSettlementEvent(ctx, []byte(`{}`), "forged")
		var sigErr *domain.SignatureError
		require.ErrorAs(t, err, &sigErr)
		assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.SignatureFailures))

		view, err := env.proposals.GetPublic(ctx, id)
		require.NoError(t, err)
		assert.False(t, view.Payment.Paid)
	})

	t.Run("unknown order is acknowledged", func(t *testing.T) {
		env, id := setup(t)
		ev := *completed
		ev.OrderID = "plink_other"
		env.processor.event = &ev

		require.NoError(t, env.payments.HandleSettlementEvent(ctx, []byte(`{}`), "good"))

		view, err := env.proposals.GetPublic(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, domain.ProposalStateAccepted, view.State)
	})

	t.Run("other events are ignored", func(t *testing.T) {
		env, id := setup(t)
		env.processor.event = &payment.SettlementEvent{Type: "payment_link.cancelled", OrderID: "plink_test"}

		require.NoError(t, env.payments.HandleSettlementEvent(ctx, []byte(`{}`), "good"))

		view, err := env.proposals.GetPublic(ctx, id)
		require.NoError(t, err)
		assert.False(t, view.Payment.Paid)
	})

	t.Run("unparseable body is acknowledged", func(t *testing.T) {
		env, _ := setup(t)
		assert.NoError(t, env.payments.HandleSettlementEvent(ctx, []byte(`garbage`), "good"))
	})
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "300€", service.FormatMoney(domain.Money{Amount: 30000, Currency: "EUR"}))
	assert.Equal(t, "12.5€", service.FormatMoney(domain.Money{Amount: 1250}))
	assert.Equal(t, "99.99 USD", service.FormatMoney(domain.Money{Amount: 9999, Currency: "usd"}))
}
