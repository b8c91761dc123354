package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/devotionsim/proposal-api/internal/domain"
	"github.com/devotionsim/proposal-api/internal/service"
)

// SettingsHandler reads and updates pricing settings
type SettingsHandler struct {
	settingsService *service.SettingsService
	logger          *zap.Logger
}

// NewSettingsHandler creates a new settings handler instance
func NewSettingsHandler(settingsService *service.SettingsService, logger *zap.Logger) *SettingsHandler {
	return &SettingsHandler{
		settingsService: settingsService,
		logger:          logger,
	}
}

// Get godoc
// @Summary Get pricing settings
// @Description Stored values merged over defaults; defaults are served when the store is unavailable
// @Tags Admin Settings
// @Produce json
// @Success 200 {object} domain.SettingsResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /admin/settings [get]
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, domain.SettingsResponse{Settings: h.settingsService.Get(r.Context())})
}

// Update godoc
// @Summary Update pricing settings
// @Description Omitted optional values keep their stored value. Existing proposals are not re-priced.
// @Tags Admin Settings
// @Accept json
// @Produce json
// @Param request body domain.UpdateSettingsRequest true "Settings"
// @Success 200 {object} domain.SettingsResponse
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /admin/settings [post]
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateSettingsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	settings, err := h.settingsService.Update(r.Context(), &req)
	if err != nil {
		handleOperatorError(w, r, h.logger, err, "Failed to save settings")
		return
	}
	respondJSON(w, http.StatusOK, domain.SettingsResponse{Settings: settings})
}
