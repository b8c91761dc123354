package service_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/devotionsim/proposal-api/internal/domain"
	"github.com/devotionsim/proposal-api/internal/service"
)

func TestPDFService_Render(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := service.NewPDFService(env.proposals, zap.NewNop())

	for name, req := range map[string]*domain.CreateProposalRequest{
		"rental":   rentalRequest(),
		"purchase": purchaseRequest(),
	} {
		t.Run(name, func(t *testing.T) {
			req.PersonalMessage = "Gracias por confiar en nosotros"
			p, err := env.proposals.Create(ctx, req)
			require.NoError(t, err)

			out, err := svc.Render(ctx, p.ID)
			require.NoError(t, err)
			assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
		})
	}

	t.Run("expired proposals still render", func(t *testing.T) {
		env.storeExpired(t, "expired-pdf")
		out, err := svc.Render(ctx, "expired-pdf")
		require.NoError(t, err)
		assert.NotEmpty(t, out)
	})

	t.Run("unknown proposal", func(t *testing.T) {
		_, err := svc.Render(ctx, "missing")
		assert.True(t, domain.IsNotFound(err))
	})
}

func TestRenderProposalPDF_Paid(t *testing.T) {
	paidAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	total := 750.0
	view := &domain.ProposalView{
		Proposal: &domain.Proposal{
			ID:           "abc",
			ProposalType: domain.ProposalTypeRental,
			ClientName:   "Acme",
			RentalDetails: &domain.RentalDetails{
				BasePrice: 750, Subtotal: 750, Total: 750,
				RequireDownPayment: true, DownPaymentPercentage: 30,
			},
		},
		State:   domain.ProposalStatePaid,
		Total:   &total,
		Payment: domain.PaymentStatusDTO{Paid: true, PaidAt: &paidAt},
	}
	out, err := service.RenderProposalPDF(view, paidAt)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}
