package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/devotionsim/proposal-api/internal/domain"
	"github.com/devotionsim/proposal-api/internal/service"
)

// LifecycleHandler serves the client side of a proposal: quote, accept, checkout
type LifecycleHandler struct {
	lifecycleService *service.LifecycleService
	logger           *zap.Logger
}

// NewLifecycleHandler creates a new lifecycle handler instance
func NewLifecycleHandler(lifecycleService *service.LifecycleService, logger *zap.Logger) *LifecycleHandler {
	return &LifecycleHandler{
		lifecycleService: lifecycleService,
		logger:           logger,
	}
}

// Quote godoc
// @Summary Re-price a rental for selected dates
// @Description Preview only; the stored proposal is not changed
// @Tags Proposals
// @Accept json
// @Produce json
// @Param id path string true "Proposal ID"
// @Param request body domain.QuoteRequest true "Selected dates"
// @Success 200 {object} domain.QuoteResponse
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 410 {object} domain.APIError
// @Router /proposals/{id}/quote [post]
func (h *LifecycleHandler) Quote(w http.ResponseWriter, r *http.Request) {
	var req domain.QuoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	quote, err := h.lifecycleService.Quote(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(w, r, h.logger, err, "Failed to quote proposal")
		return
	}
	respondJSON(w, http.StatusOK, quote)
}

// Accept godoc
// @Summary Accept proposal
// @Description Record the client's contact details and notify the operator
// @Tags Proposals
// @Accept json
// @Produce json
// @Param id path string true "Proposal ID"
// @Param request body domain.AcceptProposalRequest true "Contact details"
// @Success 200 {object} domain.AcceptProposalResponse
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Failure 410 {object} domain.APIError
// @Router /proposals/{id}/accept [post]
func (h *LifecycleHandler) Accept(w http.ResponseWriter, r *http.Request) {
	var req domain.AcceptProposalRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.lifecycleService.Accept(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(w, r, h.logger, err, "Failed to accept proposal")
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// Checkout godoc
// @Summary Accept proposal and open a payment link
// @Description Repeating a request with the same idempotencyToken within 30 minutes returns the same link
// @Tags Proposals
// @Accept json
// @Produce json
// @Param id path string true "Proposal ID"
// @Param request body domain.CheckoutRequest true "Checkout data"
// @Success 200 {object} domain.CheckoutResponse
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Failure 410 {object} domain.APIError
// @Failure 502 {object} domain.APIError
// @Failure 504 {object} domain.APIError
// @Router /proposals/{id}/checkout [post]
func (h *LifecycleHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req domain.CheckoutRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.lifecycleService.Checkout(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(w, r, h.logger, err, "Failed to create checkout")
		return
	}
	respondJSON(w, http.StatusOK, resp)
}
