package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// legacyProposal is the flat schema stored before proposals carried a type.
// Those records were always purchase quotes with a single pricing block.
type legacyProposal struct {
	ID              string    `json:"id"`
	ClientName      string    `json:"clientName"`
	ClientLogoURL   string    `json:"clientLogoUrl"`
	PersonalMessage string    `json:"personalMessage,omitempty"`
	Pricing         Packages  `json:"pricing"`
	Notes           string    `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	ExpiresAt       time.Time `json:"expiresAt"`
}

type typeProbe struct {
	ProposalType *ProposalType `json:"proposalType"`
}

// DecodeStoredProposal decodes a stored proposal, migrating the legacy flat schema on the fly.
// The returned flag reports whether the record was legacy. Stored bytes are never rewritten.
func DecodeStoredProposal(raw []byte) (*Proposal, bool, error) {
	var probe typeProbe
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, false, fmt.Errorf("failed to decode stored proposal: %w", err)
	}

	if probe.ProposalType == nil || *probe.ProposalType == "" {
		var legacy legacyProposal
		if err := json.Unmarshal(raw, &legacy); err != nil {
			return nil, true, fmt.Errorf("failed to decode legacy proposal: %w", err)
		}
		return migrateLegacy(&legacy), true, nil
	}

	var p Proposal
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, false, fmt.Errorf("failed to decode stored proposal: %w", err)
	}
	return &p, false, nil
}

func migrateLegacy(l *legacyProposal) *Proposal {
	return &Proposal{
		ID:              l.ID,
		ProposalType:    ProposalTypePurchase,
		ClientName:      l.ClientName,
		ClientLogoURL:   l.ClientLogoURL,
		PersonalMessage: l.PersonalMessage,
		PurchaseDetails: &PurchaseDetails{
			Packages: Packages{
				Basic:        l.Pricing.Basic,
				Professional: l.Pricing.Professional,
				Complete:     l.Pricing.Complete,
			},
		},
		Notes:     l.Notes,
		CreatedAt: l.CreatedAt,
		ExpiresAt: l.ExpiresAt,
	}
}
