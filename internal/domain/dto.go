package domain

import "time"

// ============================================================================
// Proposals
// ============================================================================

// RentalQuoteRequest carries rental quantities; the server prices them with the current settings
type RentalQuoteRequest struct {
	NumberOfSimulators    int     `json:"numberOfSimulators" validate:"gte=0,lte=100"`
	NumberOfDays          int     `json:"numberOfDays" validate:"gte=0,lte=365"`
	IsVIP                 bool    `json:"isVIP"`
	BasePrice             float64 `json:"basePrice,omitempty" validate:"gte=0"`
	TransportKm           float64 `json:"transportKm,omitempty" validate:"gte=0"`
	NumberOfStaff         int     `json:"numberOfStaff,omitempty" validate:"gte=0,lte=50"`
	StaffTravel           float64 `json:"staffTravel,omitempty" validate:"gte=0"`
	StaffHotel            float64 `json:"staffHotel,omitempty" validate:"gte=0"`
	RequireDownPayment    bool    `json:"requireDownPayment,omitempty"`
	DownPaymentPercentage float64 `json:"downPaymentPercentage,omitempty" validate:"gte=0,lte=100"`
}

// CreateProposalRequest is the operator payload for a new proposal.
// Rental proposals carry either precomputed rentalDetails or rental quantities.
type CreateProposalRequest struct {
	ProposalType    ProposalType        `json:"proposalType"`
	ClientName      string              `json:"clientName"`
	ClientLogoURL   string              `json:"clientLogoUrl"`
	PersonalMessage string              `json:"personalMessage,omitempty"`
	Notes           string              `json:"notes,omitempty"`
	RentalDetails   *RentalDetails      `json:"rentalDetails,omitempty"`
	PurchaseDetails *PurchaseDetails    `json:"purchaseDetails,omitempty"`
	Rental          *RentalQuoteRequest `json:"rental,omitempty" validate:"omitempty"`
}

// ProposalSummary is returned after creation
type ProposalSummary struct {
	ID           string       `json:"id"`
	ProposalType ProposalType `json:"proposalType"`
	ClientName   string       `json:"clientName"`
	ExpiresAt    time.Time    `json:"expiresAt"`
}

// CreateProposalResponse wraps a created proposal summary
type CreateProposalResponse struct {
	Success  bool            `json:"success"`
	Proposal ProposalSummary `json:"proposal"`
}

// PaymentStatusDTO is the payment state joined onto a proposal at read time
type PaymentStatusDTO struct {
	CheckoutCreated bool       `json:"checkoutCreated"`
	Paid            bool       `json:"paid"`
	PaidAt          *time.Time `json:"paidAt,omitempty"`
}

// ProposalView is a proposal as served to readers
type ProposalView struct {
	Proposal *Proposal        `json:"proposal"`
	IsLegacy bool             `json:"isLegacy"`
	State    ProposalState    `json:"state"`
	Total    *float64         `json:"total,omitempty"`
	Payment  PaymentStatusDTO `json:"payment"`
}

// ProposalListResponse lists recent proposals
type ProposalListResponse struct {
	Proposals []ProposalListItem `json:"proposals"`
}

// ============================================================================
// Client flows
// ============================================================================

// DateRangeDTO is a client-selected rental period (inclusive)
type DateRangeDTO struct {
	Start time.Time `json:"start" validate:"required"`
	End   time.Time `json:"end" validate:"required"`
}

// ToDomain converts the DTO into a DateRange
func (d *DateRangeDTO) ToDomain() *DateRange {
	if d == nil {
		return nil
	}
	return &DateRange{Start: d.Start, End: d.End}
}

// QuoteRequest asks for a re-priced rental for a date range
type QuoteRequest struct {
	SelectedDates DateRangeDTO `json:"selectedDates" validate:"required"`
}

// QuoteResponse is a re-priced rental; the stored proposal is unchanged
type QuoteResponse struct {
	RentalDetails     *RentalDetails `json:"rentalDetails"`
	Days              int            `json:"days"`
	Total             float64        `json:"total"`
	DownPaymentAmount float64        `json:"downPaymentAmount,omitempty"`
}

// AcceptProposalRequest captures client contact details
type AcceptProposalRequest struct {
	FullName      string        `json:"fullName" validate:"required,max=200"`
	Email         string        `json:"email" validate:"required,email,max=254"`
	Phone         string        `json:"phone" validate:"required,max=50"`
	Comments      string        `json:"comments,omitempty" validate:"max=2000"`
	SelectedDates *DateRangeDTO `json:"selectedDates,omitempty"`
}

// Contact returns the trimmed-down contact of the request
func (r *AcceptProposalRequest) Contact() Contact {
	return Contact{FullName: r.FullName, Email: r.Email, Phone: r.Phone}
}

// AcceptProposalResponse confirms an acceptance
type AcceptProposalResponse struct {
	Success bool          `json:"success"`
	State   ProposalState `json:"state"`
}

// CheckoutRequest accepts a proposal and opens a payment session in one call
type CheckoutRequest struct {
	AcceptProposalRequest
	Package          string `json:"package,omitempty" validate:"omitempty,oneof=basic professional complete"`
	DownPayment      bool   `json:"downPayment,omitempty"`
	Lang             string `json:"lang,omitempty" validate:"omitempty,oneof=es en"`
	IdempotencyToken string `json:"idempotencyToken,omitempty" validate:"omitempty,max=100"`
}

// CheckoutResponse points the client at the processor's hosted page
type CheckoutResponse struct {
	URL           string  `json:"url"`
	PaymentLinkID string  `json:"paymentLinkId"`
	OrderID       string  `json:"orderId"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	IsDownPayment bool    `json:"isDownPayment"`
}

// WebhookAck is always returned to the payment processor
type WebhookAck struct {
	Received bool `json:"received"`
}

// ============================================================================
// Admin
// ============================================================================

// UpdateSettingsRequest replaces the pricing settings; omitted optional values keep their stored value
type UpdateSettingsRequest struct {
	TransportMultiplier     float64  `json:"transportMultiplier" validate:"gt=0"`
	StaffMultiplier         float64  `json:"staffMultiplier" validate:"gt=0"`
	SimulatorPrice          float64  `json:"simulatorPrice" validate:"gt=0"`
	SimulatorPriceVIP       float64  `json:"simulatorPriceVIP" validate:"gt=0"`
	PurchasePriceTimeAttack *float64 `json:"purchasePriceTimeAttack,omitempty" validate:"omitempty,gt=0"`
	PurchasePriceSlady      *float64 `json:"purchasePriceSlady,omitempty" validate:"omitempty,gt=0"`
	PurchasePriceTopGun     *float64 `json:"purchasePriceTopGun,omitempty" validate:"omitempty,gt=0"`
	DownPaymentPercentage   *float64 `json:"downPaymentPercentage,omitempty" validate:"omitempty,gt=0,lte=100"`
}

// SettingsResponse wraps the effective settings
type SettingsResponse struct {
	Settings AdminSettings `json:"settings"`
}

// LoginRequest authenticates the operator
type LoginRequest struct {
	Password string `json:"password" validate:"required,max=200"`
	TOTPCode string `json:"totpCode,omitempty" validate:"omitempty,len=6,numeric"`
}

// LoginResponse carries the issued session token
type LoginResponse struct {
	Success   bool      `json:"success"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// LoginFailedResponse reports how many attempts are left before lockout
type LoginFailedResponse struct {
	Error             string `json:"error"`
	Code              string `json:"code"`
	AttemptsRemaining int    `json:"attemptsRemaining"`
}

// VerifyResponse reports the operator session state
type VerifyResponse struct {
	Authenticated bool   `json:"authenticated"`
	Subject       string `json:"subject,omitempty"`
	Method        string `json:"method,omitempty"`
}

// GeneratePhraseRequest asks for a personalised greeting
type GeneratePhraseRequest struct {
	ClientName string `json:"clientName" validate:"required,max=200"`
	Locale     string `json:"locale,omitempty" validate:"max=10"`
	SessionID  string `json:"sessionId,omitempty" validate:"max=100"`
}

// GeneratePhraseResponse returns a suggestion and the remaining allowance
type GeneratePhraseResponse struct {
	Phrase    string `json:"phrase"`
	Remaining int    `json:"remaining"`
}

// UploadResponse returns the durable URL of an uploaded asset
type UploadResponse struct {
	URL  string `json:"url"`
	Size int64  `json:"size"`
}

// SuccessResponse is a bare acknowledgement
type SuccessResponse struct {
	Success bool `json:"success"`
}
