package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf/v2"
	"go.uber.org/zap"

	"github.com/devotionsim/proposal-api/internal/domain"
	"github.com/devotionsim/proposal-api/internal/pricing"
)

// PDFService renders a printable summary of a proposal for the operator
type PDFService struct {
	proposals *ProposalService
	logger    *zap.Logger
}

// NewPDFService creates a new PDF service
func NewPDFService(proposals *ProposalService, logger *zap.Logger) *PDFService {
	return &PDFService{proposals: proposals, logger: logger}
}

// Render returns the PDF bytes of a proposal in any state
func (s *PDFService) Render(ctx context.Context, id string) ([]byte, error) {
	view, err := s.proposals.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	out, err := RenderProposalPDF(view, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to render proposal %s: %w", id, err)
	}
	s.logger.Debug("proposal pdf rendered", zap.String("proposal_id", id), zap.Int("bytes", len(out)))
	return out, nil
}

// RenderProposalPDF lays out header, client, cost table and state of a proposal
func RenderProposalPDF(view *domain.ProposalView, generatedAt time.Time) ([]byte, error) {
	p := view.Proposal

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(15, 15, 15)
	pdf.SetTitle(tr("Propuesta "+p.ClientName), false)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.CellFormat(180, 10, "DevotionSim", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(180, 6, fmt.Sprintf("Generated: %s", generatedAt.Format("02-Jan-2006 15:04")), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(180, 8, "Proposal", "1", 1, "L", true, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(90, 7, tr("Client: "+p.ClientName), "LB", 0, "L", false, 0, "")
	pdf.CellFormat(90, 7, "Type: "+string(p.ProposalType), "RB", 1, "L", false, 0, "")
	pdf.CellFormat(90, 7, "Created: "+p.CreatedAt.Format("02-Jan-2006"), "LB", 0, "L", false, 0, "")
	pdf.CellFormat(90, 7, "Expires: "+p.ExpiresAt.Format("02-Jan-2006"), "RB", 1, "L", false, 0, "")
	pdf.CellFormat(90, 7, "Reference: "+p.ID, "LB", 0, "L", false, 0, "")
	pdf.CellFormat(90, 7, "State: "+string(view.State), "RB", 1, "L", false, 0, "")
	if p.PersonalMessage != "" {
		pdf.Ln(3)
		pdf.SetFont("Arial", "I", 10)
		pdf.MultiCell(180, 5, tr(p.PersonalMessage), "", "L", false)
	}
	pdf.Ln(5)

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(180, 8, "Costs", "1", 1, "L", true, 0, "")

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(200, 200, 200)
	pdf.CellFormat(120, 7, "Item", "1", 0, "C", true, 0, "")
	pdf.CellFormat(20, 7, "Qty", "1", 0, "C", true, 0, "")
	pdf.CellFormat(40, 7, "Amount", "1", 1, "C", true, 0, "")

	items, err := pdfLineItems(p)
	if err != nil {
		return nil, err
	}
	pdf.SetFont("Arial", "", 10)
	for _, li := range items {
		pdf.CellFormat(120, 6, tr(li.Name), "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 6, fmt.Sprintf("%d", li.Quantity), "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 6, tr(pricing.FormatPackagePrice(li.Amount())), "1", 1, "R", false, 0, "")
	}

	pdf.SetFont("Arial", "B", 12)
	pdf.SetFillColor(220, 235, 255)
	label := "Total"
	if p.ProposalType == domain.ProposalTypePurchase {
		label = "Total (all packages)"
	}
	pdf.CellFormat(140, 9, label, "1", 0, "L", true, 0, "")
	total := "-"
	if view.Total != nil {
		total = pricing.FormatPackagePrice(*view.Total)
	}
	pdf.CellFormat(40, 9, tr(total), "1", 1, "R", true, 0, "")

	if d := p.RentalDetails; d != nil && d.RequireDownPayment && d.DownPaymentPercentage > 0 {
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(140, 7, fmt.Sprintf("Down payment (%.0f%%)", d.DownPaymentPercentage), "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 7, tr(pricing.FormatPackagePrice(pricing.DownPaymentAmount(d.Total, d.DownPaymentPercentage))), "1", 1, "R", false, 0, "")
	}
	if pd := p.PurchaseDetails; pd != nil && pd.PaymentTerms != "" {
		pdf.Ln(4)
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(180, 6, "Payment terms", "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(180, 5, tr(pd.PaymentTerms), "", "L", false)
	}

	if view.Payment.Paid && view.Payment.PaidAt != nil {
		pdf.Ln(4)
		pdf.SetFillColor(200, 255, 200)
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(180, 9, "Paid on "+view.Payment.PaidAt.Format("02-Jan-2006"), "1", 1, "C", true, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func pdfLineItems(p *domain.Proposal) ([]pricing.LineItem, error) {
	switch p.ProposalType {
	case domain.ProposalTypeRental:
		if p.RentalDetails == nil {
			return nil, domain.ErrMissingDetails
		}
		return pricing.RentalLineItems(p.RentalDetails), nil
	case domain.ProposalTypePurchase:
		if p.PurchaseDetails == nil {
			return nil, domain.ErrMissingDetails
		}
		return pricing.PurchaseLineItems(p.PurchaseDetails, "")
	}
	return nil, fmt.Errorf("unknown proposal type %q", p.ProposalType)
}
