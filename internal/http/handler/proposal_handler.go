package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/devotionsim/proposal-api/internal/domain"
	"github.com/devotionsim/proposal-api/internal/service"
)

// ProposalHandler serves proposal creation, listing and reads
type ProposalHandler struct {
	proposalService *service.ProposalService
	pdfService      *service.PDFService
	logger          *zap.Logger
}

// NewProposalHandler creates a new proposal handler instance
func NewProposalHandler(
	proposalService *service.ProposalService,
	pdfService *service.PDFService,
	logger *zap.Logger,
) *ProposalHandler {
	return &ProposalHandler{
		proposalService: proposalService,
		pdfService:      pdfService,
		logger:          logger,
	}
}

// Create godoc
// @Summary Create proposal
// @Description Create a rental or purchase proposal. Current pricing settings are captured into the proposal.
// @Tags Admin Proposals
// @Accept json
// @Produce json
// @Param request body domain.CreateProposalRequest true "Proposal data"
// @Success 201 {object} domain.CreateProposalResponse
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 504 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /admin/proposals [post]
func (h *ProposalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateProposalRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.proposalService.Create(r.Context(), &req)
	if err != nil {
		handleOperatorError(w, r, h.logger, err, "Failed to create proposal")
		return
	}

	respondJSON(w, http.StatusCreated, domain.CreateProposalResponse{
		Success: true,
		Proposal: domain.ProposalSummary{
			ID:           p.ID,
			ProposalType: p.ProposalType,
			ClientName:   p.ClientName,
			ExpiresAt:    p.ExpiresAt,
		},
	})
}

// List godoc
// @Summary List recent proposals
// @Description Most recent proposals first; ids whose record expired from the store are skipped
// @Tags Admin Proposals
// @Produce json
// @Success 200 {object} domain.ProposalListResponse
// @Failure 401 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /admin/proposals [get]
func (h *ProposalHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.proposalService.List(r.Context())
	if err != nil {
		handleOperatorError(w, r, h.logger, err, "Failed to list proposals")
		return
	}
	respondJSON(w, http.StatusOK, domain.ProposalListResponse{Proposals: items})
}

// Get godoc
// @Summary Get proposal (operator)
// @Description Returns the proposal in any state, including expired ones
// @Tags Admin Proposals
// @Produce json
// @Param id path string true "Proposal ID"
// @Success 200 {object} domain.ProposalView
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /admin/proposals/{id} [get]
func (h *ProposalHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.proposalService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleOperatorError(w, r, h.logger, err, "Failed to get proposal")
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// GetPublic godoc
// @Summary Get proposal
// @Description Client view of a proposal with its state and payment status joined at read time
// @Tags Proposals
// @Produce json
// @Param id path string true "Proposal ID"
// @Success 200 {object} domain.ProposalView
// @Failure 404 {object} domain.APIError
// @Failure 410 {object} domain.APIError
// @Router /proposals/{id} [get]
func (h *ProposalHandler) GetPublic(w http.ResponseWriter, r *http.Request) {
	view, err := h.proposalService.GetPublic(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, h.logger, err, "Failed to get proposal")
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// Delete godoc
// @Summary Delete proposal
// @Description Remove a proposal with its payment, settlement and acceptance records
// @Tags Admin Proposals
// @Produce json
// @Param id path string true "Proposal ID"
// @Success 200 {object} domain.SuccessResponse
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /admin/proposals/{id} [delete]
func (h *ProposalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.proposalService.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleOperatorError(w, r, h.logger, err, "Failed to delete proposal")
		return
	}
	respondJSON(w, http.StatusOK, domain.SuccessResponse{Success: true})
}

// PDF godoc
// @Summary Export proposal as PDF
// @Tags Admin Proposals
// @Produce application/pdf
// @Param id path string true "Proposal ID"
// @Success 200 {file} binary
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /admin/proposals/{id}/pdf [get]
func (h *ProposalHandler) PDF(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	doc, err := h.pdfService.Render(r.Context(), id)
	if err != nil {
		handleOperatorError(w, r, h.logger, err, "Failed to render proposal")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="proposal-%s.pdf"`, id))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}
