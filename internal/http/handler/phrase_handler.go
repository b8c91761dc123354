package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/devotionsim/proposal-api/internal/domain"
	"github.com/devotionsim/proposal-api/internal/service"
)

// SessionHeader carries the AI suggestion session between requests
const SessionHeader = "X-Session-ID"

// PhraseHandler suggests personalised hook phrases
type PhraseHandler struct {
	phraseService *service.PhraseService
	logger        *zap.Logger
}

// NewPhraseHandler creates a new phrase handler instance
func NewPhraseHandler(phraseService *service.PhraseService, logger *zap.Logger) *PhraseHandler {
	return &PhraseHandler{
		phraseService: phraseService,
		logger:        logger,
	}
}

// Generate godoc
// @Summary Suggest a hook phrase
// @Description Each session gets a limited number of suggestions; the session id is returned in X-Session-ID
// @Tags Admin AI
// @Accept json
// @Produce json
// @Param X-Session-ID header string false "Suggestion session"
// @Param request body domain.GeneratePhraseRequest true "Client"
// @Success 200 {object} domain.GeneratePhraseResponse
// @Failure 400 {object} domain.APIError
// @Failure 429 {object} domain.APIError
// @Failure 502 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /admin/ai/phrase [post]
func (h *PhraseHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req domain.GeneratePhraseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.SessionID == "" {
		req.SessionID = r.Header.Get(SessionHeader)
	}

	resp, sessionID, err := h.phraseService.Generate(r.Context(), &req)
	if sessionID != "" {
		w.Header().Set(SessionHeader, sessionID)
	}
	if err != nil {
		handleOperatorError(w, r, h.logger, err, "Failed to generate phrase")
		return
	}
	respondJSON(w, http.StatusOK, resp)
}
