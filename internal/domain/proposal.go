package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ProposalInput is the operator-supplied content of a new proposal
type ProposalInput struct {
	ProposalType    ProposalType
	ClientName      string
	ClientLogoURL   string
	PersonalMessage string
	Notes           string
	RentalDetails   *RentalDetails
	PurchaseDetails *PurchaseDetails
}

// NewProposal validates input and builds a proposal valid for ProposalValidity from now.
// It never returns a partially valid proposal: any violation yields a *ValidationError.
func NewProposal(in ProposalInput, now time.Time, idGen func() string) (*Proposal, error) {
	if !in.ProposalType.IsValid() {
		return nil, NewValidationError("proposalType", "Invalid proposal type")
	}

	clientName := strings.TrimSpace(in.ClientName)
	if clientName == "" {
		return nil, NewValidationError("clientName", "Client name is required")
	}

	logoURL := strings.TrimSpace(in.ClientLogoURL)
	if logoURL == "" {
		return nil, NewValidationError("clientLogoUrl", "Client logo is required")
	}

	p := &Proposal{
		ProposalType:    in.ProposalType,
		ClientName:      clientName,
		ClientLogoURL:   logoURL,
		PersonalMessage: strings.TrimSpace(in.PersonalMessage),
		Notes:           strings.TrimSpace(in.Notes),
	}

	switch in.ProposalType {
	case ProposalTypeRental:
		if in.RentalDetails == nil {
			return nil, NewValidationError("rentalDetails", "Rental details are required for rental proposals")
		}
		if in.PurchaseDetails != nil {
			return nil, NewValidationError("purchaseDetails", "Purchase details are not allowed on rental proposals")
		}
		if err := validateRentalDetails(in.RentalDetails); err != nil {
			return nil, err
		}
		details := in.RentalDetails.Clone()
		details.Recompute()
		p.RentalDetails = details
	case ProposalTypePurchase:
		if in.PurchaseDetails == nil {
			return nil, NewValidationError("purchaseDetails", "Purchase details are required for purchase proposals")
		}
		if in.RentalDetails != nil {
			return nil, NewValidationError("rentalDetails", "Rental details are not allowed on purchase proposals")
		}
		if err := validatePurchaseDetails(in.PurchaseDetails); err != nil {
			return nil, err
		}
		details := *in.PurchaseDetails
		details.PaymentTerms = strings.TrimSpace(details.PaymentTerms)
		p.PurchaseDetails = &details
	}

	p.ID = idGen()
	p.CreatedAt = now.UTC()
	p.ExpiresAt = p.CreatedAt.Add(ProposalValidity)
	return p, nil
}

func validateRentalDetails(d *RentalDetails) error {
	if d.BasePrice <= 0 {
		return NewValidationError("rentalDetails.basePrice", "Must be greater than 0")
	}
	if d.NumberOfSimulators < 0 {
		return NewValidationError("rentalDetails.numberOfSimulators", "Must not be negative")
	}
	if d.NumberOfDays < 0 {
		return NewValidationError("rentalDetails.numberOfDays", "Must not be negative")
	}
	if d.Subtotal < 0 {
		return NewValidationError("rentalDetails.subtotal", "Must not be negative")
	}
	if d.RequireDownPayment && (d.DownPaymentPercentage <= 0 || d.DownPaymentPercentage > 100) {
		return NewValidationError("rentalDetails.downPaymentPercentage", "Must be between 0 and 100")
	}
	if t := d.Transport; t != nil {
		if t.Kilometers < 0 || t.PricePerKm < 0 || t.TotalCost < 0 {
			return NewValidationError("rentalDetails.transport", "Transport values must not be negative")
		}
	}
	if s := d.Staff; s != nil {
		if s.NumberOfStaff < 0 || s.NumberOfDays < 0 || s.PricePerStaffDay < 0 ||
			s.TravelExpenses < 0 || s.HotelExpenses < 0 || s.TotalCost < 0 {
			return NewValidationError("rentalDetails.staff", "Staff values must not be negative")
		}
	}
	return nil
}

func validatePurchaseDetails(d *PurchaseDetails) error {
	fields := []struct {
		name  string
		value string
	}{
		{"purchaseDetails.packages.basic", d.Packages.Basic},
		{"purchaseDetails.packages.professional", d.Packages.Professional},
		{"purchaseDetails.packages.complete", d.Packages.Complete},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return NewValidationError(f.name, "Package price is required")
		}
		if _, err := ParsePackagePrice(f.value); err != nil {
			return NewValidationError(f.name, "Package price must be a number")
		}
	}
	return nil
}

// GetProposalTotal returns the amount due for a proposal.
// Rentals use the stored total; purchases sum the three package prices.
func GetProposalTotal(p *Proposal) (float64, error) {
	switch p.ProposalType {
	case ProposalTypeRental:
		if p.RentalDetails == nil {
			return 0, ErrMissingDetails
		}
		return p.RentalDetails.Total, nil
	case ProposalTypePurchase:
		if p.PurchaseDetails == nil {
			return 0, ErrMissingDetails
		}
		var total float64
		for _, price := range []string{
			p.PurchaseDetails.Packages.Basic,
			p.PurchaseDetails.Packages.Professional,
			p.PurchaseDetails.Packages.Complete,
		} {
			v, err := ParsePackagePrice(price)
			if err != nil {
				return 0, err
			}
			total += v
		}
		return total, nil
	default:
		return 0, fmt.Errorf("unknown proposal type %q", p.ProposalType)
	}
}

// ParsePackagePrice parses a display price such as "23.000€", "26,000 EUR" or "99,90€".
// A single separator followed by exactly three digits is a thousands separator;
// when both '.' and ',' appear, the last one is the decimal separator.
func ParsePackagePrice(s string) (float64, error) {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' {
			b.WriteRune(r)
		}
	}
	cleaned := strings.Trim(b.String(), ".,")
	if cleaned == "" {
		return 0, fmt.Errorf("no digits in price %q", s)
	}

	lastDot := strings.LastIndex(cleaned, ".")
	lastComma := strings.LastIndex(cleaned, ",")

	var normalized string
	switch {
	case lastDot >= 0 && lastComma >= 0:
		decimalSep, thousandSep := ".", ","
		if lastComma > lastDot {
			decimalSep, thousandSep = ",", "."
		}
		normalized = strings.ReplaceAll(cleaned, thousandSep, "")
		normalized = strings.Replace(normalized, decimalSep, ".", 1)
	case lastDot >= 0 || lastComma >= 0:
		sep := "."
		if lastComma >= 0 {
			sep = ","
		}
		parts := strings.Split(cleaned, sep)
		if len(parts) > 2 || len(parts[len(parts)-1]) == 3 {
			normalized = strings.Join(parts, "")
		} else {
			normalized = strings.Join(parts, ".")
		}
	default:
		normalized = cleaned
	}

	v, err := strconv.ParseFloat(normalized, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q: %w", s, err)
	}
	return v, nil
}
