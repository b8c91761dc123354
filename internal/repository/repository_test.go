package repository_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devotionsim/proposal-api/internal/domain"
	"github.com/devotionsim/proposal-api/internal/kvstore"
	"github.com/devotionsim/proposal-api/internal/repository"
)

func newProposal(id string) *domain.Proposal {
	now := time.Now().UTC()
	return &domain.Proposal{
		ID:           id,
		ProposalType: domain.ProposalTypePurchase,
		ClientName:   "Acme",
		PurchaseDetails: &domain.PurchaseDetails{
			Packages: domain.Packages{Basic: "100", Professional: "200", Complete: "300"},
		},
		CreatedAt: now,
		ExpiresAt: now.Add(domain.ProposalValidity),
	}
}

func TestProposalRepository_CreateAndGet(t *testing.T) {
	store := kvstore.NewMemoryStore()
	repo := repository.NewProposalRepository(store, time.Second, 50)
	ctx := context.Background()

	p := newProposal("p1")
	require.NoError(t, repo.Create(ctx, p))

	raw, err := repo.GetRaw(ctx, "p1")
	require.NoError(t, err)

	var decoded domain.Proposal
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "Acme", decoded.ClientName)

	_, err = repo.GetRaw(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestProposalRepository_RecentListIsCapped(t *testing.T) {
	store := kvstore.NewMemoryStore()
	repo := repository.NewProposalRepository(store, time.Second, 3)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		require.NoError(t, repo.Create(ctx, newProposal(fmt.Sprintf("p%d", i))))
	}

	ids, err := repo.RecentIDs(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"p5", "p4", "p3"}, ids)

	ids, err = repo.RecentIDs(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"p5", "p4"}, ids)

	ids, err = repo.RecentIDs(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestProposalRepository_DeleteRemovesSideRecords(t *testing.T) {
	store := kvstore.NewMemoryStore()
	proposals := repository.NewProposalRepository(store, time.Second, 50)
	payments := repository.NewPaymentRepository(store)
	acceptances := repository.NewAcceptanceRepository(store)
	ctx := context.Background()

	require.NoError(t, proposals.Create(ctx, newProposal("p1")))
	require.NoError(t, payments.SavePaymentRecord(ctx, "p1", &domain.PaymentRecord{OrderID: "o1"}))
	require.NoError(t, payments.SaveSettlement(ctx, "p1", &domain.SettlementRecord{Paid: true}))
	require.NoError(t, acceptances.Save(ctx, &domain.AcceptanceRecord{ProposalID: "p1"}))

	require.NoError(t, proposals.Delete(ctx, "p1"))

	_, err := proposals.GetRaw(ctx, "p1")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	rec, err := payments.GetPaymentRecord(ctx, "p1")
	require.NoError(t, err)
	assert.Nil(t, rec)

	settled, err := payments.GetSettlement(ctx, "p1")
	require.NoError(t, err)
	assert.Nil(t, settled)

	acc, err := acceptances.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Nil(t, acc)

	ids, err := proposals.RecentIDs(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestPaymentRepository_FindProposalIDByOrderID(t *testing.T) {
	store := kvstore.NewMemoryStore()
	repo := repository.NewPaymentRepository(store)
	ctx := context.Background()

	require.NoError(t, repo.SavePaymentRecord(ctx, "p1", &domain.PaymentRecord{PaymentLinkID: "plink_1", OrderID: "plink_1"}))
	require.NoError(t, repo.SavePaymentRecord(ctx, "p2", &domain.PaymentRecord{PaymentLinkID: "plink_2", OrderID: "plink_2"}))

	id, err := repo.FindProposalIDByOrderID(ctx, "plink_2")
	require.NoError(t, err)
	assert.Equal(t, "p2", id)

	_, err = repo.FindProposalIDByOrderID(ctx, "plink_9")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestPaymentRepository_LastCheckoutWins(t *testing.T) {
	store := kvstore.NewMemoryStore()
	repo := repository.NewPaymentRepository(store)
	ctx := context.Background()

	require.NoError(t, repo.SavePaymentRecord(ctx, "p1", &domain.PaymentRecord{OrderID: "first"}))
	require.NoError(t, repo.SavePaymentRecord(ctx, "p1", &domain.PaymentRecord{OrderID: "second"}))

	rec, err := repo.GetPaymentRecord(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "second", rec.OrderID)

	_, err = repo.FindProposalIDByOrderID(ctx, "first")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestAcceptanceRepository_CheckoutTokens(t *testing.T) {
	store := kvstore.NewMemoryStore()
	repo := repository.NewAcceptanceRepository(store)
	ctx := context.Background()

	got, err := repo.GetCheckoutByToken(ctx, "p1", "tok")
	require.NoError(t, err)
	assert.Nil(t, got)

	resp := &domain.CheckoutResponse{URL: "https://rzp.io/l/abc", PaymentLinkID: "plink_1", Amount: 30000, Currency: "EUR"}
	require.NoError(t, repo.SaveCheckoutToken(ctx, "p1", "tok", resp))
	require.NoError(t, repo.SaveCheckoutToken(ctx, "p2", "tok", resp))

	got, err = repo.GetCheckoutByToken(ctx, "p1", "tok")
	require.NoError(t, err)
	assert.Equal(t, resp, got)

	require.NoError(t, repo.ClearCheckoutTokens(ctx, "p1"))

	got, err = repo.GetCheckoutByToken(ctx, "p1", "tok")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = repo.GetCheckoutByToken(ctx, "p2", "tok")
	require.NoError(t, err)
	assert.NotNil(t, got, "tokens of other proposals are kept")
}

func TestSettingsRepository(t *testing.T) {
	store := kvstore.NewMemoryStore()
	repo := repository.NewSettingsRepository(store)
	ctx := context.Background()

	_, err := repo.Get(ctx)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	s := domain.DefaultAdminSettings()
	s.SimulatorPrice = 900
	require.NoError(t, repo.Save(ctx, &s))

	fields, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, "900", string(fields["simulatorPrice"]))
}

func TestCounterRepository(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store := kvstore.NewMemoryStore().WithClock(func() time.Time { return now })
	repo := repository.NewCounterRepository(store, "ratelimit:")
	ctx := context.Background()

	c, err := repo.Get(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.Zero(t, c.Count)

	require.NoError(t, repo.Save(ctx, "1.2.3.4", repository.Counter{Count: 2, ResetAt: now.Add(time.Minute)}, 5*time.Minute))
	c, err = repo.Get(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, 2, c.Count)

	require.NoError(t, repo.Reset(ctx, "1.2.3.4"))
	c, err = repo.Get(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.Zero(t, c.Count)

	require.NoError(t, repo.Save(ctx, "5.6.7.8", repository.Counter{Count: 1}, time.Minute))
	now = now.Add(2 * time.Minute)
	c, err = repo.Get(ctx, "5.6.7.8")
	require.NoError(t, err)
	assert.Zero(t, c.Count, "counter expires with its TTL")
}
