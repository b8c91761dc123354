package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// FormspreeNotifier posts messages to a Formspree form endpoint
type FormspreeNotifier struct {
	endpoint string
	client   *http.Client
}

func NewFormspreeNotifier(endpoint string, timeout time.Duration) *FormspreeNotifier {
	return &FormspreeNotifier{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

func (f *FormspreeNotifier) Notify(ctx context.Context, msg Message) error {
	payload := make(map[string]string, len(msg.Fields)+3)
	for k, v := range msg.Fields {
		payload[k] = v
	}
	payload["subject"] = msg.Subject
	payload["_subject"] = msg.Subject
	if msg.ReplyTo != "" {
		payload["_replyto"] = msg.ReplyTo
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode formspree payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build formspree request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("formspree request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("formspree error: status %d, body: %s", resp.StatusCode, detail)
	}
	return nil
}
