package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/devotionsim/proposal-api/internal/domain"
	"github.com/devotionsim/proposal-api/internal/kvstore"
)

type ProposalRepository struct {
	store         kvstore.Store
	createTimeout time.Duration
	listSize      int64
}

func NewProposalRepository(store kvstore.Store, createTimeout time.Duration, listSize int64) *ProposalRepository {
	if listSize <= 0 {
		listSize = 50
	}
	return &ProposalRepository{store: store, createTimeout: createTimeout, listSize: listSize}
}

// Create stores the proposal with a TTL matching its validity and records it as recent
func (r *ProposalRepository) Create(ctx context.Context, p *domain.Proposal) error {
	if r.createTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.createTimeout)
		defer cancel()
	}

	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode proposal: %w", err)
	}

	ttl := time.Until(p.ExpiresAt)
	if ttl <= 0 {
		ttl = domain.ProposalValidity
	}
	if err := r.store.Set(ctx, proposalKey(p.ID), raw, ttl); err != nil {
		return err
	}
	return r.store.PushAndTrim(ctx, RecentProposalsKey, p.ID, r.listSize)
}

// GetRaw returns the stored bytes of a proposal, or ErrNotFound
func (r *ProposalRepository) GetRaw(ctx context.Context, id string) ([]byte, error) {
	raw, err := r.store.Get(ctx, proposalKey(id))
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, ErrNotFound
	}
	return raw, nil
}

// RecentIDs returns up to limit proposal ids, newest first
func (r *ProposalRepository) RecentIDs(ctx context.Context, limit int64) ([]string, error) {
	if limit <= 0 {
		return []string{}, nil
	}
	return r.store.Range(ctx, RecentProposalsKey, 0, limit-1)
}

// Delete removes a proposal, its side records and its recent-list entry
func (r *ProposalRepository) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx,
		proposalKey(id),
		paymentKey(id),
		settlementKey(id),
		acceptanceKey(id),
	); err != nil {
		return err
	}
	return r.store.RemoveFromList(ctx, RecentProposalsKey, id)
}

// Ping checks the backing store
func (r *ProposalRepository) Ping(ctx context.Context) error {
	return r.store.Ping(ctx)
}
