package notify

import (
	"go.uber.org/zap"

	"github.com/devotionsim/proposal-api/internal/config"
)

// New builds the configured notifiers. Without any, messages are only logged.
func New(cfg *config.NotificationConfig, logger *zap.Logger) Notifier {
	c := NewComposite()
	if cfg.FormspreeEndpoint != "" {
		c.Add(NewFormspreeNotifier(cfg.FormspreeEndpoint, cfg.TimeoutDuration()))
	}
	if cfg.SendGridAPIKey != "" && cfg.ToEmail != "" {
		c.Add(NewSendGridNotifier(cfg.SendGridAPIKey, cfg.FromEmail, cfg.FromName, cfg.ToEmail))
	}
	if c.Len() == 0 {
		return NewLoggingNotifier(logger)
	}
	return c
}
