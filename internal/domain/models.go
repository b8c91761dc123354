package domain

import (
	"time"
)

// ProposalValidity is how long a proposal link stays usable after creation
const ProposalValidity = 15 * 24 * time.Hour

// ProposalType discriminates which detail variant a proposal carries
type ProposalType string

const (
	ProposalTypeRental   ProposalType = "rental"
	ProposalTypePurchase ProposalType = "purchase"
)

// IsValid reports whether t is one of the known proposal types
func (t ProposalType) IsValid() bool {
	return t == ProposalTypeRental || t == ProposalTypePurchase
}

// TransportDetails holds the costed transport leg of a rental
type TransportDetails struct {
	Kilometers float64 `json:"kilometers,omitempty"`
	PricePerKm float64 `json:"pricePerKm"`
	TotalCost  float64 `json:"totalCost"`
}

// StaffDetails holds on-site staff costs of a rental
type StaffDetails struct {
	NumberOfStaff    int     `json:"numberOfStaff,omitempty"`
	NumberOfDays     int     `json:"numberOfDays,omitempty"`
	PricePerStaffDay float64 `json:"pricePerStaffDay"`
	TravelExpenses   float64 `json:"travelExpenses,omitempty"`
	HotelExpenses    float64 `json:"hotelExpenses,omitempty"`
	TotalCost        float64 `json:"totalCost"`
}

// DailyCost returns the day-rate part of the staff cost
func (s *StaffDetails) DailyCost() float64 {
	return float64(s.NumberOfStaff) * float64(s.NumberOfDays) * s.PricePerStaffDay
}

// Recompute sets TotalCost from the day rate plus fixed travel and hotel expenses
func (s *StaffDetails) Recompute() {
	s.TotalCost = s.DailyCost() + s.TravelExpenses + s.HotelExpenses
}

// RentalDetails is the rental variant of a proposal.
// Subtotal covers simulators only; Total always equals Subtotal plus transport and staff costs.
type RentalDetails struct {
	BasePrice             float64           `json:"basePrice"`
	IsVIP                 bool              `json:"isVIP"`
	NumberOfDays          int               `json:"numberOfDays,omitempty"`
	NumberOfSimulators    int               `json:"numberOfSimulators,omitempty"`
	Transport             *TransportDetails `json:"transport,omitempty"`
	Staff                 *StaffDetails     `json:"staff,omitempty"`
	RequireDownPayment    bool              `json:"requireDownPayment,omitempty"`
	DownPaymentPercentage float64           `json:"downPaymentPercentage,omitempty"`
	Subtotal              float64           `json:"subtotal"`
	Total                 float64           `json:"total"`
}

// SimulatorCount returns the number of simulators, defaulting to one
func (d *RentalDetails) SimulatorCount() int {
	if d.NumberOfSimulators <= 0 {
		return 1
	}
	return d.NumberOfSimulators
}

// Days returns the quoted number of days, defaulting to one
func (d *RentalDetails) Days() int {
	if d.NumberOfDays <= 0 {
		return 1
	}
	return d.NumberOfDays
}

// Recompute derives Total from Subtotal and the optional cost components
func (d *RentalDetails) Recompute() {
	total := d.Subtotal
	if d.Transport != nil {
		total += d.Transport.TotalCost
	}
	if d.Staff != nil {
		total += d.Staff.TotalCost
	}
	d.Total = total
}

// Clone returns a deep copy so derived views never alias the stored proposal
func (d *RentalDetails) Clone() *RentalDetails {
	if d == nil {
		return nil
	}
	out := *d
	if d.Transport != nil {
		t := *d.Transport
		out.Transport = &t
	}
	if d.Staff != nil {
		s := *d.Staff
		out.Staff = &s
	}
	return &out
}

// Packages are the three fixed purchase tiers, priced as display text (e.g. "23.000€")
type Packages struct {
	Basic        string `json:"basic"`
	Professional string `json:"professional"`
	Complete     string `json:"complete"`
}

// PurchaseDetails is the purchase variant of a proposal
type PurchaseDetails struct {
	Packages     Packages `json:"packages"`
	PaymentTerms string   `json:"paymentTerms,omitempty"`
}

// Proposal is the aggregate root shared with a client through a link
type Proposal struct {
	ID              string           `json:"id"`
	ProposalType    ProposalType     `json:"proposalType"`
	ClientName      string           `json:"clientName"`
	ClientLogoURL   string           `json:"clientLogoUrl"`
	PersonalMessage string           `json:"personalMessage,omitempty"`
	RentalDetails   *RentalDetails   `json:"rentalDetails,omitempty"`
	PurchaseDetails *PurchaseDetails `json:"purchaseDetails,omitempty"`
	Notes           string           `json:"notes,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
	ExpiresAt       time.Time        `json:"expiresAt"`
}

// ProposalListItem is a compact view used by the operator's recent list
type ProposalListItem struct {
	ID           string       `json:"id"`
	ProposalType ProposalType `json:"proposalType"`
	ClientName   string       `json:"clientName"`
	CreatedAt    time.Time    `json:"createdAt"`
	ExpiresAt    time.Time    `json:"expiresAt"`
	IsExpired    bool         `json:"isExpired"`
}

// AdminSettings is the single global pricing configuration.
// Last writer wins; values are snapshotted into proposals at creation.
type AdminSettings struct {
	TransportMultiplier     float64 `json:"transportMultiplier"`
	StaffMultiplier         float64 `json:"staffMultiplier"`
	SimulatorPrice          float64 `json:"simulatorPrice"`
	SimulatorPriceVIP       float64 `json:"simulatorPriceVIP"`
	PurchasePriceTimeAttack float64 `json:"purchasePriceTimeAttack"`
	PurchasePriceSlady      float64 `json:"purchasePriceSlady"`
	PurchasePriceTopGun     float64 `json:"purchasePriceTopGun"`
	DownPaymentPercentage   float64 `json:"downPaymentPercentage"`
}

// DefaultAdminSettings returns the settings used when nothing has been stored yet
func DefaultAdminSettings() AdminSettings {
	return AdminSettings{
		TransportMultiplier:     1.6,
		StaffMultiplier:         280,
		SimulatorPrice:          750,
		SimulatorPriceVIP:       550,
		PurchasePriceTimeAttack: 23000,
		PurchasePriceSlady:      26000,
		PurchasePriceTopGun:     30000,
		DownPaymentPercentage:   30,
	}
}

// PaymentRecord links a proposal to the checkout session created for it
type PaymentRecord struct {
	PaymentLinkID string    `json:"paymentLinkId"`
	OrderID       string    `json:"orderId"`
	URL           string    `json:"url"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Money is an amount in minor currency units
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// Major returns the amount in currency units
func (m Money) Major() float64 {
	return float64(m.Amount) / 100
}

// SettlementRecord is written once the processor confirms payment
type SettlementRecord struct {
	Paid      bool      `json:"paid"`
	PaymentID string    `json:"paymentId"`
	Amount    Money     `json:"amount"`
	PaidAt    time.Time `json:"paidAt"`
}

// DateRange is an inclusive client-selected rental period
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contact is the client contact captured on acceptance
type Contact struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

// AcceptanceRecord captures the latest client acceptance of a proposal
type AcceptanceRecord struct {
	ProposalID    string     `json:"proposalId"`
	Contact       Contact    `json:"contact"`
	Comments      string     `json:"comments,omitempty"`
	SelectedDates *DateRange `json:"selectedDates,omitempty"`
	AcceptedAt    time.Time  `json:"acceptedAt"`
}
