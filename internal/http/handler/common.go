package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/devotionsim/proposal-api/internal/ai"
	"github.com/devotionsim/proposal-api/internal/domain"
	"github.com/devotionsim/proposal-api/internal/logger"
	"github.com/devotionsim/proposal-api/internal/service"
)

var validate = validator.New()

// maxJSONBody bounds JSON request bodies
const maxJSONBody = 1 << 20

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// decodeJSON reads and validates a JSON body into target, writing the error response itself.
// It reports whether the handler should continue.
func decodeJSON(w http.ResponseWriter, r *http.Request, target interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := validate.Struct(target); err != nil {
		respondValidationError(w, err)
		return false
	}
	return true
}

// respondValidationError sends a standardized validation error response with specific field messages
func respondValidationError(w http.ResponseWriter, err error) {
	errs := make(map[string]string)
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			errs[toJSONFieldName(fe.Field())] = formatValidationError(fe)
		}
	}

	respondJSON(w, http.StatusBadRequest, domain.APIError{
		Type:   domain.ErrorTypeValidation,
		Title:  "Validation Error",
		Status: http.StatusBadRequest,
		Detail: "One or more fields failed validation",
		Errors: errs,
	})
}

// formatValidationError creates a human-readable validation error message
func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", toJSONFieldName(fe.Field()))
	case "email":
		return "Must be a valid email address"
	case "max":
		return fmt.Sprintf("Must be at most %s", fe.Param())
	case "gte":
		return fmt.Sprintf("Must be greater than or equal to %s", fe.Param())
	case "gt":
		return fmt.Sprintf("Must be greater than %s", fe.Param())
	case "lte":
		return fmt.Sprintf("Must be less than or equal to %s", fe.Param())
	case "len":
		return fmt.Sprintf("Must be exactly %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", fe.Param())
	default:
		return domain.GetValidationMessage(fe.Tag())
	}
}

// toJSONFieldName converts a Go struct field name to its JSON equivalent (camelCase)
func toJSONFieldName(field string) string {
	if len(field) == 0 {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}

// respondWithError sends a standardized JSON error response
func respondWithError(w http.ResponseWriter, status int, message string) {
	respondProblem(w, status, "", message)
}

// respondProblem sends an error response carrying a machine-readable code
func respondProblem(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, domain.APIError{
		Type:   getErrorType(status),
		Title:  http.StatusText(status),
		Status: status,
		Detail: message,
		Code:   code,
	})
}

// getErrorType returns the appropriate error type for an HTTP status code
func getErrorType(status int) string {
	switch status {
	case http.StatusBadRequest:
		return domain.ErrorTypeBadRequest
	case http.StatusUnauthorized:
		return domain.ErrorTypeUnauthorized
	case http.StatusForbidden:
		return domain.ErrorTypeForbidden
	case http.StatusNotFound:
		return domain.ErrorTypeNotFound
	case http.StatusConflict:
		return domain.ErrorTypeConflict
	case http.StatusGone:
		return domain.ErrorTypeGone
	case http.StatusTooManyRequests:
		return domain.ErrorTypeTooManyRequests
	case http.StatusBadGateway, http.StatusGatewayTimeout, http.StatusServiceUnavailable:
		return domain.ErrorTypeUpstream
	default:
		return domain.ErrorTypeInternal
	}
}

// handleServiceError maps service and domain errors to HTTP responses for public callers.
// Anything unrecognised is logged and reported as a 500 carrying fallback.
func handleServiceError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error, fallback string) {
	writeServiceError(w, r, log, err, fallback, false)
}

// handleOperatorError is handleServiceError for authenticated operator routes,
// which also see what an upstream service said when it rejected a call.
func handleOperatorError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error, fallback string) {
	writeServiceError(w, r, log, err, fallback, true)
}

func writeServiceError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error, fallback string, operator bool) {
	var (
		validationErr *domain.ValidationError
		notFoundErr   *domain.NotFoundError
		expiredErr    *domain.ExpiredError
		timeoutErr    *domain.UpstreamTimeoutError
		rejectedErr   *domain.UpstreamRejectedError
		signatureErr  *domain.SignatureError
		loginFailed   *service.LoginFailedError
		loginLocked   *service.LoginLockedError
	)

	switch {
	case errors.As(err, &validationErr):
		respondJSON(w, http.StatusBadRequest, domain.APIError{
			Type:   domain.ErrorTypeValidation,
			Title:  "Validation Error",
			Status: http.StatusBadRequest,
			Detail: validationErr.Error(),
			Errors: map[string]string{validationErr.Field: validationErr.Message},
		})
	case errors.Is(err, service.ErrNotRental):
		respondWithError(w, http.StatusBadRequest, "Only rental proposals can be re-priced")
	case errors.As(err, &notFoundErr):
		respondProblem(w, http.StatusNotFound, domain.CodeNotFound, "Proposal not found")
	case errors.As(err, &expiredErr):
		respondProblem(w, http.StatusGone, domain.CodeExpired, "This proposal has expired")
	case errors.Is(err, domain.ErrAlreadyPaid):
		respondProblem(w, http.StatusConflict, domain.CodeAlreadyPaid, "This proposal has already been paid")
	case errors.As(err, &signatureErr):
		respondWithError(w, http.StatusForbidden, "Invalid signature")
	case errors.As(err, &loginFailed):
		respondJSON(w, http.StatusUnauthorized, domain.LoginFailedResponse{
			Error:             "Invalid password",
			Code:              "INVALID_PASSWORD",
			AttemptsRemaining: loginFailed.AttemptsRemaining,
		})
	case errors.As(err, &loginLocked):
		secs := loginLocked.RetryAfterSeconds()
		w.Header().Set("Retry-After", strconv.Itoa(secs))
		respondJSON(w, http.StatusTooManyRequests, map[string]interface{}{
			"error":      "Too many login attempts",
			"code":       "LOGIN_LOCKED",
			"retryAfter": secs,
		})
	case errors.Is(err, service.ErrSessionLimit):
		respondProblem(w, http.StatusTooManyRequests, domain.CodeSessionLimit, "Suggestion limit reached for this session")
	case errors.Is(err, ai.ErrAIQuota):
		respondProblem(w, http.StatusTooManyRequests, domain.CodeQuotaExceeded, "AI provider quota exceeded, try again later")
	case errors.Is(err, ai.ErrNotConfigured), errors.Is(err, service.ErrStorageUnavailable):
		respondWithError(w, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &timeoutErr):
		logger.FromContext(r.Context(), log).Warn("upstream timeout", zap.String("service", timeoutErr.Service), zap.Error(err))
		respondProblem(w, http.StatusGatewayTimeout, domain.CodeUpstreamTimeout, timeoutErr.Service+" did not respond in time")
	case errors.As(err, &rejectedErr):
		logger.FromContext(r.Context(), log).Warn("upstream rejected request", zap.String("service", rejectedErr.Service), zap.Error(err))
		msg := rejectedErr.Service + " rejected the request"
		if operator && rejectedErr.Detail != "" {
			msg = rejectedErr.Detail
		}
		respondProblem(w, http.StatusBadGateway, domain.CodeUpstreamFailed, msg)
	default:
		logger.FromContext(r.Context(), log).Error(fallback, zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, fallback)
	}
}
