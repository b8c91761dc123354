package handler

import (
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/devotionsim/proposal-api/internal/domain"
	"github.com/devotionsim/proposal-api/internal/service"
)

// SignatureHeader carries the processor's HMAC of the webhook body
const SignatureHeader = "X-Razorpay-Signature"

const maxWebhookBody = 256 << 10

// PaymentHandler receives payment processor webhooks
type PaymentHandler struct {
	paymentService *service.PaymentService
	logger         *zap.Logger
}

// NewPaymentHandler creates a new payment handler instance
func NewPaymentHandler(paymentService *service.PaymentService, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		logger:         logger,
	}
}

// Webhook godoc
// @Summary Payment processor webhook
// @Description Records completed payments. Any authentic event is acknowledged, even when it cannot be matched.
// @Tags Payments
// @Accept json
// @Produce json
// @Param X-Razorpay-Signature header string false "HMAC-SHA256 of the raw body"
// @Success 200 {object} domain.WebhookAck
// @Failure 403 {object} domain.APIError
// @Router /payments/webhook [post]
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		h.logger.Warn("failed to read webhook body", zap.Error(err))
		respondJSON(w, http.StatusOK, domain.WebhookAck{Received: true})
		return
	}

	err = h.paymentService.HandleSettlementEvent(r.Context(), body, r.Header.Get(SignatureHeader))
	var sigErr *domain.SignatureError
	if errors.As(err, &sigErr) {
		handleServiceError(w, r, h.logger, err, "Invalid signature")
		return
	}
	if err != nil {
		h.logger.Error("webhook processing failed", zap.Error(err))
	}
	respondJSON(w, http.StatusOK, domain.WebhookAck{Received: true})
}
