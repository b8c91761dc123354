package payment

import (
	"go.uber.org/zap"

	"github.com/devotionsim/proposal-api/internal/config"
)

// NewProcessor picks the processor named in config.
// Missing credentials yield Unconfigured so the rest of the service still starts.
func NewProcessor(cfg *config.PaymentConfig, logger *zap.Logger) Processor {
	switch cfg.Provider {
	case "razorpay", "":
		if cfg.KeyID == "" || cfg.KeySecret == "" {
			logger.Warn("payment processor credentials missing, checkout disabled")
			return Unconfigured{}
		}
		if cfg.WebhookSecret == "" {
			logger.Warn("payment webhook secret not set, webhook signatures will not be verified")
		}
		return NewRazorpayProcessor(cfg, logger)
	default:
		logger.Warn("unknown payment provider, checkout disabled", zap.String("provider", cfg.Provider))
		return Unconfigured{}
	}
}
