package notify

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridNotifier emails messages to the operator mailbox
type SendGridNotifier struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
	toEmail   string
}

func NewSendGridNotifier(apiKey, fromEmail, fromName, toEmail string) *SendGridNotifier {
	return &SendGridNotifier{
		client:    sendgrid.NewSendClient(apiKey),
		fromEmail: fromEmail,
		fromName:  fromName,
		toEmail:   toEmail,
	}
}

func (s *SendGridNotifier) Notify(ctx context.Context, msg Message) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail("", s.toEmail)

	text := msg.Text()
	htmlContent := "<pre>" + html.EscapeString(strings.TrimSpace(text)) + "</pre>"

	message := mail.NewSingleEmail(from, msg.Subject, to, text, htmlContent)
	if msg.ReplyTo != "" {
		message.SetReplyTo(mail.NewEmail("", msg.ReplyTo))
	}

	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error: status %d, body: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
