package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// URLFunc returns the webhook endpoint configured for a hotel, empty when
// none is set
type URLFunc func(ctx context.Context, hotelID string) string

// WebhookChannel delivers notifications by POSTing JSON to a per-hotel
// endpoint
type WebhookChannel struct {
	client *http.Client
	urlFor URLFunc
}

// NewWebhookChannel creates a webhook delivery channel
func NewWebhookChannel(urlFor URLFunc) *WebhookChannel {
	return &WebhookChannel{
		client: &http.Client{},
		urlFor: urlFor,
	}
}

// Name implements Channel
func (c *WebhookChannel) Name() string {
	return "webhook"
}

type webhookPayload struct {
	NotificationID string  `json:"notification_id"`
	HotelID        string  `json:"hotel_id"`
	DepartmentID   *string `json:"department_id,omitempty"`
	BatchID        *string `json:"batch_id,omitempty"`
	Type           string  `json:"type"`
	Message        string  `json:"message"`
	SentAt         string  `json:"sent_at"`
}

// Send implements Channel
func (c *WebhookChannel) Send(ctx context.Context, msg Message) Result {
	now := time.Now().UTC()

	url := c.urlFor(ctx, msg.HotelID)
	if url == "" {
		return Result{Channel: c.Name(), Success: false, Detail: "no webhook url configured", SentAt: now}
	}

	body, err := json.Marshal(webhookPayload{
		NotificationID: msg.NotificationID,
		HotelID:        msg.HotelID,
		DepartmentID:   msg.DepartmentID,
		BatchID:        msg.BatchID,
		Type:           msg.Type,
		Message:        msg.Body,
		SentAt:         now.Format(time.RFC3339),
	})
	if err != nil {
		return Result{Channel: c.Name(), Success: false, Detail: err.Error(), SentAt: now}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Result{Channel: c.Name(), Success: false, Detail: err.Error(), SentAt: now}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return Result{Channel: c.Name(), Success: false, Detail: err.Error(), SentAt: now}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{
			Channel: c.Name(),
			Success: false,
			Detail:  fmt.Sprintf("unexpected status %d", resp.StatusCode),
			SentAt:  now,
		}
	}

	return Result{Channel: c.Name(), Success: true, SentAt: now}
}
