package repository

import (
	"context"
	"errors"

	"github.com/devotionsim/proposal-api/internal/domain"
	"github.com/devotionsim/proposal-api/internal/kvstore"
)

type AcceptanceRepository struct {
	store kvstore.Store
}

func NewAcceptanceRepository(store kvstore.Store) *AcceptanceRepository {
	return &AcceptanceRepository{store: store}
}

// Save overwrites the latest acceptance of a proposal
func (r *AcceptanceRepository) Save(ctx context.Context, rec *domain.AcceptanceRecord) error {
	return setJSON(ctx, r.store, acceptanceKey(rec.ProposalID), rec, AcceptanceRecordTTL)
}

// Get returns the latest acceptance, or nil when the proposal was never accepted
func (r *AcceptanceRepository) Get(ctx context.Context, proposalID string) (*domain.AcceptanceRecord, error) {
	var rec domain.AcceptanceRecord
	if err := getJSON(ctx, r.store, acceptanceKey(proposalID), &rec); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// GetCheckoutByToken returns a checkout created earlier for the proposal with the same client token, or nil
func (r *AcceptanceRepository) GetCheckoutByToken(ctx context.Context, proposalID, token string) (*domain.CheckoutResponse, error) {
	var resp domain.CheckoutResponse
	if err := getJSON(ctx, r.store, checkoutTokenKey(proposalID, token), &resp); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &resp, nil
}

// SaveCheckoutToken remembers a checkout for CheckoutTokenTTL
func (r *AcceptanceRepository) SaveCheckoutToken(ctx context.Context, proposalID, token string, resp *domain.CheckoutResponse) error {
	return setJSON(ctx, r.store, checkoutTokenKey(proposalID, token), resp, CheckoutTokenTTL)
}

// ClearCheckoutTokens forgets every cached checkout of a proposal
func (r *AcceptanceRepository) ClearCheckoutTokens(ctx context.Context, proposalID string) error {
	keys, err := r.store.Keys(ctx, checkoutTokenPattern(proposalID))
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return r.store.Delete(ctx, keys...)
}
