package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/amaumene/gotrackarr/internal/models"
	"github.com/sirupsen/logrus"
)

// WebhookDispatcher POSTs each notification as JSON to a configured
// endpoint, typically a push-gateway that relays to the user's device.
type WebhookDispatcher struct {
	url        string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewWebhookDispatcher creates a webhook dispatcher
func NewWebhookDispatcher(url string, logger *logrus.Logger) *WebhookDispatcher {
	return &WebhookDispatcher{
		url:        url,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger,
	}
}

type webhookPayload struct {
	Title string                    `json:"title"`
	Body  string                    `json:"body"`
	Event *models.NotificationEvent `json:"event"`
}

// Dispatch sends the notification to the webhook endpoint
func (d *WebhookDispatcher) Dispatch(ctx context.Context, event *models.NotificationEvent) error {
	payload := webhookPayload{
		Title: event.Title,
		Body:  bodyFor(event),
		Event: event,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewBuffer(data))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	d.logger.WithField("title_id", event.TitleID).Debug("Webhook notification delivered")
	return nil
}
