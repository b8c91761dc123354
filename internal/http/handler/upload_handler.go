package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/devotionsim/proposal-api/internal/service"
)

// multipart overhead allowed on top of the file limit
const multipartSlack = 64 << 10

// UploadHandler accepts operator asset uploads
type UploadHandler struct {
	uploadService *service.UploadService
	logger        *zap.Logger
}

// NewUploadHandler creates a new upload handler instance
func NewUploadHandler(uploadService *service.UploadService, logger *zap.Logger) *UploadHandler {
	return &UploadHandler{
		uploadService: uploadService,
		logger:        logger,
	}
}

// UploadLogo godoc
// @Summary Upload client logo
// @Description JPEG, PNG or WebP up to 5 MB. Returns a durable URL for the proposal.
// @Tags Admin Uploads
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Logo image"
// @Success 201 {object} domain.UploadResponse
// @Failure 400 {object} domain.APIError
// @Failure 413 {object} domain.APIError
// @Failure 503 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /admin/uploads/logo [post]
func (h *UploadHandler) UploadLogo(w http.ResponseWriter, r *http.Request) {
	maxBytes := h.uploadService.MaxBytes()
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartSlack)

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondWithError(w, http.StatusRequestEntityTooLarge, "File exceeds the upload limit")
			return
		}
		respondWithError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Missing file field")
		return
	}
	defer file.Close()

	resp, err := h.uploadService.UploadLogo(r.Context(), header.Filename, header.Size, file)
	if err != nil {
		handleOperatorError(w, r, h.logger, err, "Failed to upload file")
		return
	}
	respondJSON(w, http.StatusCreated, resp)
}
