package repository

import (
	"context"
	"errors"

	"github.com/devotionsim/proposal-api/internal/domain"
	"github.com/devotionsim/proposal-api/internal/kvstore"
)

type PaymentRepository struct {
	store kvstore.Store
}

func NewPaymentRepository(store kvstore.Store) *PaymentRepository {
	return &PaymentRepository{store: store}
}

// SavePaymentRecord overwrites the checkout record of a proposal (last writer wins)
func (r *PaymentRepository) SavePaymentRecord(ctx context.Context, proposalID string, rec *domain.PaymentRecord) error {
	return setJSON(ctx, r.store, paymentKey(proposalID), rec, PaymentRecordTTL)
}

// GetPaymentRecord returns the checkout record, or nil when none exists
func (r *PaymentRepository) GetPaymentRecord(ctx context.Context, proposalID string) (*domain.PaymentRecord, error) {
	var rec domain.PaymentRecord
	if err := getJSON(ctx, r.store, paymentKey(proposalID), &rec); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// FindProposalIDByOrderID scans checkout records for one carrying orderID.
// Returns ErrNotFound when no record matches.
func (r *PaymentRepository) FindProposalIDByOrderID(ctx context.Context, orderID string) (string, error) {
	keys, err := r.store.Keys(ctx, paymentKeyPattern)
	if err != nil {
		return "", err
	}

	for _, key := range keys {
		var rec domain.PaymentRecord
		if err := getJSON(ctx, r.store, key, &rec); err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return "", err
		}
		if rec.OrderID == orderID {
			if id := proposalIDFromPaymentKey(key); id != "" {
				return id, nil
			}
		}
	}
	return "", ErrNotFound
}

// SaveSettlement records a confirmed payment; re-delivery overwrites with the same data
func (r *PaymentRepository) SaveSettlement(ctx context.Context, proposalID string, rec *domain.SettlementRecord) error {
	return setJSON(ctx, r.store, settlementKey(proposalID), rec, SettlementRecordTTL)
}

// GetSettlement returns the settlement record, or nil when unpaid
func (r *PaymentRepository) GetSettlement(ctx context.Context, proposalID string) (*domain.SettlementRecord, error) {
	var rec domain.SettlementRecord
	if err := getJSON(ctx, r.store, settlementKey(proposalID), &rec); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}
