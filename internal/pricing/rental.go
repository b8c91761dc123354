package pricing

import (
	"time"

	"github.com/devotionsim/proposal-api/internal/domain"
)

// BuildRentalDetails turns calculator inputs into stored rental details for a quote of days days.
// Transport and staff are only attached when they were actually costed.
func BuildRentalDetails(in Inputs, days int, isVIP bool) *domain.RentalDetails {
	if days < 1 {
		days = 1
	}

	staffIn := in
	staffIn.NumberOfDays = days
	res := Calculate(staffIn)

	details := &domain.RentalDetails{
		BasePrice:          in.BasePrice,
		IsVIP:              isVIP,
		NumberOfDays:       days,
		NumberOfSimulators: in.NumberOfSimulators,
		Subtotal:           res.SimulatorSubtotal * float64(days),
	}
	if details.NumberOfSimulators == 0 {
		details.NumberOfSimulators = 1
	}

	if in.TransportKm != 0 {
		details.Transport = &domain.TransportDetails{
			Kilometers: in.TransportKm,
			PricePerKm: in.TransportMultiplier,
			TotalCost:  res.TransportCost,
		}
	}

	if in.NumberOfStaff != 0 || in.StaffTravel != 0 || in.StaffHotel != 0 {
		details.Staff = &domain.StaffDetails{
			NumberOfStaff:    in.NumberOfStaff,
			NumberOfDays:     days,
			PricePerStaffDay: in.StaffMultiplier,
			TravelExpenses:   in.StaffTravel,
			HotelExpenses:    in.StaffHotel,
			TotalCost:        res.StaffTotalCost,
		}
	}

	details.Recompute()
	return details
}

// DaysInclusive counts calendar days from start to end, both included.
// A reversed range counts as a single day.
func DaysInclusive(start, end time.Time) int {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	diff := int(e.Sub(s).Hours() / 24)
	if diff < 0 {
		return 1
	}
	return diff + 1
}

// Reprice returns a copy of details priced for the selected date range.
// Only day rates scale; transport, staff travel and hotel stay fixed.
// The input is never modified.
func Reprice(details *domain.RentalDetails, dates domain.DateRange) *domain.RentalDetails {
	days := DaysInclusive(dates.Start, dates.End)

	out := details.Clone()
	out.NumberOfSimulators = details.SimulatorCount()
	out.NumberOfDays = days
	out.Subtotal = details.BasePrice * float64(out.NumberOfSimulators) * float64(days)

	if out.Staff != nil {
		out.Staff.NumberOfDays = days
		out.Staff.Recompute()
	}

	out.Recompute()
	return out
}
