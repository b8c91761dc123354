package pricing

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/devotionsim/proposal-api/internal/domain"
)

// Purchase package tiers as shown to clients
const (
	PackageBasic        = "basic"
	PackageProfessional = "professional"
	PackageComplete     = "complete"
)

var packageNames = map[string]string{
	PackageBasic:        "Time Attack",
	PackageProfessional: "Slady",
	PackageComplete:     "Top Gun",
}

// PackageDisplayName returns the commercial name of a purchase tier
func PackageDisplayName(tier string) string {
	if name, ok := packageNames[tier]; ok {
		return name
	}
	return tier
}

// LineItem is one named entry of a checkout order, in currency units
type LineItem struct {
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
}

// Amount returns quantity times unit price
func (li LineItem) Amount() float64 {
	return float64(li.Quantity) * li.UnitPrice
}

// SumLineItems totals a list of line items
func SumLineItems(items []LineItem) float64 {
	var total float64
	for _, li := range items {
		total += li.Amount()
	}
	return total
}

// RentalLineItems lists the cost components of a rental in a fixed order:
// simulators, transport, staff. Components that were not costed are left out.
func RentalLineItems(d *domain.RentalDetails) []LineItem {
	items := []LineItem{{
		Name:      fmt.Sprintf("Alquiler de simuladores (%d x %d días)", d.SimulatorCount(), d.Days()),
		Quantity:  1,
		UnitPrice: d.Subtotal,
	}}

	if t := d.Transport; t != nil && t.TotalCost > 0 {
		name := "Transporte"
		if t.Kilometers > 0 {
			name = fmt.Sprintf("Transporte (%s km)", formatNumber(t.Kilometers))
		}
		items = append(items, LineItem{Name: name, Quantity: 1, UnitPrice: t.TotalCost})
	}

	if s := d.Staff; s != nil && s.TotalCost > 0 {
		name := "Personal técnico"
		if s.NumberOfStaff > 0 {
			name = fmt.Sprintf("Personal técnico (%d x %d días)", s.NumberOfStaff, s.NumberOfDays)
		}
		items = append(items, LineItem{Name: name, Quantity: 1, UnitPrice: s.TotalCost})
	}

	return items
}

// PurchaseLineItems lists the selected package, or all three when tier is empty
func PurchaseLineItems(d *domain.PurchaseDetails, tier string) ([]LineItem, error) {
	prices := map[string]string{
		PackageBasic:        d.Packages.Basic,
		PackageProfessional: d.Packages.Professional,
		PackageComplete:     d.Packages.Complete,
	}

	tiers := []string{PackageBasic, PackageProfessional, PackageComplete}
	if tier != "" {
		if _, ok := prices[tier]; !ok {
			return nil, domain.NewValidationError("package", "Unknown package")
		}
		tiers = []string{tier}
	}

	items := make([]LineItem, 0, len(tiers))
	for _, t := range tiers {
		price, err := domain.ParsePackagePrice(prices[t])
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s package price: %w", t, err)
		}
		items = append(items, LineItem{Name: PackageDisplayName(t), Quantity: 1, UnitPrice: price})
	}
	return items, nil
}

// DownPaymentAmount returns total*pct/100 rounded to whole currency units
func DownPaymentAmount(total, pct float64) float64 {
	amount := decimal.NewFromFloat(total).
		Mul(decimal.NewFromFloat(pct)).
		Div(decimal.NewFromInt(100)).
		Round(0)
	f, _ := amount.Float64()
	return f
}

// ReservationItem collapses a whole order into a single down-payment line
func ReservationItem(clientName string, total, pct float64) LineItem {
	return LineItem{
		Name:      fmt.Sprintf("Reserva %s (%s%% del total)", strings.TrimSpace(clientName), formatNumber(pct)),
		Quantity:  1,
		UnitPrice: DownPaymentAmount(total, pct),
	}
}

// ToMinorUnits converts currency units to cents, rounding half away from zero.
// This is the only place money is quantised.
func ToMinorUnits(amount float64) int64 {
	return decimal.NewFromFloat(amount).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatPackagePrice renders a price the way package prices are written, e.g. 23000 -> "23.000€"
func FormatPackagePrice(v float64) string {
	d := decimal.NewFromFloat(v).Round(2)
	whole := d.Truncate(0)
	cents := d.Sub(whole).Mul(decimal.NewFromInt(100)).Abs().IntPart()

	digits := whole.Abs().String()
	var b strings.Builder
	if d.IsNegative() {
		b.WriteByte('-')
	}
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	if cents != 0 {
		fmt.Fprintf(&b, ",%02d", cents)
	}
	b.WriteString("€")
	return b.String()
}
