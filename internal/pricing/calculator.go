// Package pricing computes rental quotes, date-based re-pricing and checkout line items.
package pricing

import (
	"github.com/devotionsim/proposal-api/internal/domain"
)

// Inputs are the operator-entered quantities of a rental quote. Absent values are zero.
type Inputs struct {
	BasePrice           float64 `json:"basePrice"`
	NumberOfSimulators  int     `json:"numberOfSimulators"`
	TransportKm         float64 `json:"transportKm"`
	TransportMultiplier float64 `json:"transportMultiplier"`
	NumberOfStaff       int     `json:"numberOfStaff"`
	NumberOfDays        int     `json:"numberOfDays"`
	StaffMultiplier     float64 `json:"staffMultiplier"`
	StaffTravel         float64 `json:"staffTravel"`
	StaffHotel          float64 `json:"staffHotel"`
}

// Result is the breakdown produced by Calculate. Values are unrounded currency units.
type Result struct {
	SimulatorSubtotal float64 `json:"simulatorSubtotal"`
	TransportCost     float64 `json:"transportCost"`
	StaffDailyCost    float64 `json:"staffDailyCost"`
	StaffTotalCost    float64 `json:"staffTotalCost"`
	GrandTotal        float64 `json:"grandTotal"`
	HasOptionalFields bool    `json:"hasOptionalFields"`
}

// Calculate prices a single use of the simulators plus optional transport and staff.
// Callers that price several days multiply the simulator subtotal themselves.
func Calculate(in Inputs) Result {
	simCount := in.NumberOfSimulators
	if simCount == 0 {
		simCount = 1
	}

	simulatorSubtotal := in.BasePrice * float64(simCount)

	var transportCost float64
	if in.TransportKm != 0 {
		transportCost = in.TransportKm * in.TransportMultiplier
	}

	staffDailyCost := float64(in.NumberOfStaff) * float64(in.NumberOfDays) * in.StaffMultiplier
	staffTotalCost := staffDailyCost + in.StaffTravel + in.StaffHotel

	return Result{
		SimulatorSubtotal: simulatorSubtotal,
		TransportCost:     transportCost,
		StaffDailyCost:    staffDailyCost,
		StaffTotalCost:    staffTotalCost,
		GrandTotal:        simulatorSubtotal + transportCost + staffTotalCost,
		HasOptionalFields: in.TransportKm != 0 || in.NumberOfStaff != 0 || in.StaffTravel != 0 || in.StaffHotel != 0,
	}
}

// ValidateInputs rejects negative quantities before they reach Calculate
func ValidateInputs(in Inputs) error {
	checks := []struct {
		field string
		value float64
	}{
		{"basePrice", in.BasePrice},
		{"numberOfSimulators", float64(in.NumberOfSimulators)},
		{"transportKm", in.TransportKm},
		{"transportMultiplier", in.TransportMultiplier},
		{"numberOfStaff", float64(in.NumberOfStaff)},
		{"numberOfDays", float64(in.NumberOfDays)},
		{"staffMultiplier", in.StaffMultiplier},
		{"staffTravel", in.StaffTravel},
		{"staffHotel", in.StaffHotel},
	}
	for _, c := range checks {
		if c.value < 0 {
			return domain.NewValidationError(c.field, "Must not be negative")
		}
	}
	if in.BasePrice == 0 {
		return domain.NewValidationError("basePrice", "Must be greater than 0")
	}
	return nil
}
