package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/devotionsim/proposal-api/internal/auth"
	"github.com/devotionsim/proposal-api/internal/domain"
	"github.com/devotionsim/proposal-api/internal/http/middleware"
	"github.com/devotionsim/proposal-api/internal/service"
)

// AdminHandler handles operator login and session checks
type AdminHandler struct {
	adminService *service.AdminService
	cookieName   string
	secureCookie bool
	logger       *zap.Logger
}

// NewAdminHandler creates a new admin handler instance.
// secureCookie marks the session cookie Secure; set it outside development.
func NewAdminHandler(adminService *service.AdminService, cookieName string, secureCookie bool, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
		cookieName:   cookieName,
		secureCookie: secureCookie,
		logger:       logger,
	}
}

func (h *AdminHandler) sessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     h.cookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
	}
}

// Login godoc
// @Summary Operator login
// @Description Checks the password (and TOTP code when enabled). Repeated failures from one address are locked out.
// @Tags Admin
// @Accept json
// @Produce json
// @Param request body domain.LoginRequest true "Credentials"
// @Success 200 {object} domain.LoginResponse
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.LoginFailedResponse
// @Failure 429 {object} map[string]interface{}
// @Router /admin/login [post]
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.adminService.Login(r.Context(), middleware.ClientIP(r), &req)
	if err != nil {
		handleServiceError(w, r, h.logger, err, "Failed to log in")
		return
	}

	http.SetCookie(w, h.sessionCookie(resp.Token, int(h.adminService.TokenTTL().Seconds())))
	respondJSON(w, http.StatusOK, resp)
}

// Logout godoc
// @Summary Operator logout
// @Description Clears the session cookie
// @Tags Admin
// @Produce json
// @Success 200 {object} domain.SuccessResponse
// @Router /admin/logout [post]
func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, h.sessionCookie("", -1))
	respondJSON(w, http.StatusOK, domain.SuccessResponse{Success: true})
}

// Verify godoc
// @Summary Verify operator session
// @Tags Admin
// @Produce json
// @Success 200 {object} domain.VerifyResponse
// @Failure 401 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /admin/verify [get]
func (h *AdminHandler) Verify(w http.ResponseWriter, r *http.Request) {
	admin, ok := auth.FromContext(r.Context())
	if !ok || admin == nil {
		respondWithError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	respondJSON(w, http.StatusOK, domain.VerifyResponse{
		Authenticated: true,
		Subject:       admin.Subject,
		Method:        string(admin.AuthType),
	})
}
