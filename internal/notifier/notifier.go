package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"umbfest-ticketing/internal/models"
)

// Dispatcher posts issued tickets to the external email webhook. Delivery is
// fire-and-forget with a hard timeout: a failure is reported to the caller
// for logging but never rolls back the verification decision.
type Dispatcher struct {
	webhookURL string
	client     *http.Client
}

func NewDispatcher(webhookURL string, timeout time.Duration) *Dispatcher {
	return &Dispatcher{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: timeout},
	}
}

// SendTickets submits the notification payload. When no webhook is
// configured the dispatch is skipped.
func (d *Dispatcher) SendTickets(ctx context.Context, payload models.TicketNotification) error {
	if d.webhookURL == "" {
		return nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach notification webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notification webhook returned status %d", resp.StatusCode)
	}
	return nil
}
