package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devotionsim/proposal-api/internal/domain"
)

var fixedNow = time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

func fixedID() string { return "abc12345-de" }

func validRentalInput() domain.ProposalInput {
	return domain.ProposalInput{
		ProposalType:  domain.ProposalTypeRental,
		ClientName:    "  Acme Events  ",
		ClientLogoURL: "https://cdn.example.com/acme.png",
		RentalDetails: &domain.RentalDetails{
			BasePrice:          750,
			NumberOfSimulators: 2,
			NumberOfDays:       1,
			Subtotal:           1500,
			Transport:          &domain.TransportDetails{Kilometers: 100, PricePerKm: 1.6, TotalCost: 160},
			Total:              99999,
		},
	}
}

func validPurchaseInput() domain.ProposalInput {
	return domain.ProposalInput{
		ProposalType:  domain.ProposalTypePurchase,
		ClientName:    "Racing Club",
		ClientLogoURL: "https://cdn.example.com/rc.png",
		PurchaseDetails: &domain.PurchaseDetails{
			Packages: domain.Packages{Basic: "23.000€", Professional: "26.000€", Complete: "30.000€"},
		},
	}
}

func TestNewProposal_Rental(t *testing.T) {
	p, err := domain.NewProposal(validRentalInput(), fixedNow, fixedID)
	require.NoError(t, err)

	assert.Equal(t, "abc12345-de", p.ID)
	assert.Equal(t, "Acme Events", p.ClientName)
	assert.Equal(t, fixedNow, p.CreatedAt)
	assert.Equal(t, fixedNow.Add(15*24*time.Hour), p.ExpiresAt)
	assert.Nil(t, p.PurchaseDetails)
	require.NotNil(t, p.RentalDetails)
	// total is recomputed, never taken from input
	assert.Equal(t, 1660.0, p.RentalDetails.Total)
}

func TestNewProposal_TrimsOptionalText(t *testing.T) {
	in := validPurchaseInput()
	in.PersonalMessage = "   "
	in.Notes = "  call after 5pm "

	p, err := domain.NewProposal(in, fixedNow, fixedID)
	require.NoError(t, err)

	assert.Empty(t, p.PersonalMessage)
	assert.Equal(t, "call after 5pm", p.Notes)
}

func TestNewProposal_Validation(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*domain.ProposalInput)
		wantField string
	}{
		{
			name:      "unknown type",
			mutate:    func(in *domain.ProposalInput) { in.ProposalType = "lease" },
			wantField: "proposalType",
		},
		{
			name:      "blank client name",
			mutate:    func(in *domain.ProposalInput) { in.ClientName = "   " },
			wantField: "clientName",
		},
		{
			name:      "missing logo",
			mutate:    func(in *domain.ProposalInput) { in.ClientLogoURL = "" },
			wantField: "clientLogoUrl",
		},
		{
			name:      "rental without details",
			mutate:    func(in *domain.ProposalInput) { in.RentalDetails = nil },
			wantField: "rentalDetails",
		},
		{
			name: "rental with purchase details",
			mutate: func(in *domain.ProposalInput) {
				in.PurchaseDetails = &domain.PurchaseDetails{}
			},
			wantField: "purchaseDetails",
		},
		{
			name:      "negative transport",
			mutate:    func(in *domain.ProposalInput) { in.RentalDetails.Transport.TotalCost = -1 },
			wantField: "rentalDetails.transport",
		},
		{
			name: "down payment without percentage",
			mutate: func(in *domain.ProposalInput) {
				in.RentalDetails.RequireDownPayment = true
			},
			wantField: "rentalDetails.downPaymentPercentage",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validRentalInput()
			tt.mutate(&in)

			p, err := domain.NewProposal(in, fixedNow, fixedID)

			assert.Nil(t, p)
			var ve *domain.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.wantField, ve.Field)
		})
	}
}

func TestNewProposal_PurchaseRejectsRentalDetails(t *testing.T) {
	in := validPurchaseInput()
	in.RentalDetails = &domain.RentalDetails{BasePrice: 750}

	p, err := domain.NewProposal(in, fixedNow, fixedID)

	assert.Nil(t, p)
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "rentalDetails", ve.Field)
}

func TestNewProposal_PurchaseRejectsUnparseablePrice(t *testing.T) {
	in := validPurchaseInput()
	in.PurchaseDetails.Packages.Complete = "ask us"

	_, err := domain.NewProposal(in, fixedNow, fixedID)

	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "purchaseDetails.packages.complete", ve.Field)
}

func TestGetProposalTotal(t *testing.T) {
	t.Run("rental uses stored total", func(t *testing.T) {
		p, err := domain.NewProposal(validRentalInput(), fixedNow, fixedID)
		require.NoError(t, err)

		total, err := domain.GetProposalTotal(p)
		require.NoError(t, err)
		assert.Equal(t, 1660.0, total)
	})

	t.Run("purchase sums packages", func(t *testing.T) {
		p, err := domain.NewProposal(validPurchaseInput(), fixedNow, fixedID)
		require.NoError(t, err)

		total, err := domain.GetProposalTotal(p)
		require.NoError(t, err)
		assert.Equal(t, 79000.0, total)
	})

	t.Run("missing details is an error, not zero", func(t *testing.T) {
		_, err := domain.GetProposalTotal(&domain.Proposal{ProposalType: domain.ProposalTypeRental})
		assert.ErrorIs(t, err, domain.ErrMissingDetails)

		_, err = domain.GetProposalTotal(&domain.Proposal{ProposalType: domain.ProposalTypePurchase})
		assert.ErrorIs(t, err, domain.ErrMissingDetails)
	})
}

func TestParsePackagePrice(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"23.000€", 23000},
		{"26,000 EUR", 26000},
		{"100€", 100},
		{"99,90€", 99.90},
		{"1.234,56 €", 1234.56},
		{"1,234.56", 1234.56},
		{"1.250.000€", 1250000},
		{"€ 7.5", 7.5},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := domain.ParsePackagePrice(tt.in)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}

	_, err := domain.ParsePackagePrice("on request")
	assert.Error(t, err)
}
