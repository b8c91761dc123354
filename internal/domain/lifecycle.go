package domain

import (
	"fmt"
	"time"
)

// ProposalState is the lifecycle state of a proposal, derived at read time
type ProposalState string

const (
	ProposalStateActive   ProposalState = "active"
	ProposalStateExpired  ProposalState = "expired"
	ProposalStateAccepted ProposalState = "accepted"
	ProposalStatePaid     ProposalState = "paid"
)

// IsExpiredAt reports whether the proposal is expired at now.
// The expiry instant itself counts as expired.
func (p *Proposal) IsExpiredAt(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}

// StateAt derives the proposal state from its side records and the clock.
// Nothing here is persisted; every reader evaluates it independently.
// acceptance and settlement may be nil; a checkout record alone also counts as accepted.
func StateAt(p *Proposal, acceptance *AcceptanceRecord, payment *PaymentRecord, settlement *SettlementRecord, now time.Time) ProposalState {
	if p.IsExpiredAt(now) {
		return ProposalStateExpired
	}
	if settlement != nil && settlement.Paid {
		return ProposalStatePaid
	}
	if acceptance != nil || payment != nil {
		return ProposalStateAccepted
	}
	return ProposalStateActive
}

var allowedTransitions = map[ProposalState][]ProposalState{
	ProposalStateActive:   {ProposalStateAccepted, ProposalStateExpired},
	ProposalStateAccepted: {ProposalStateAccepted, ProposalStatePaid, ProposalStateExpired},
	ProposalStatePaid:     {ProposalStatePaid},
	ProposalStateExpired:  {},
}

// CanTransition reports whether a proposal may move from one state to another
func CanTransition(from, to ProposalState) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// CheckAcceptance returns the error a client acceptance should fail with in the given state, or nil
func CheckAcceptance(p *Proposal, state ProposalState) error {
	switch state {
	case ProposalStateExpired:
		return &ExpiredError{ID: p.ID}
	case ProposalStatePaid:
		return ErrAlreadyPaid
	}
	if !CanTransition(state, ProposalStateAccepted) {
		return fmt.Errorf("proposal %s cannot be accepted in state %s", p.ID, state)
	}
	return nil
}
