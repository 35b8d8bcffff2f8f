package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// WebhookNotifier posts events as JSON to a fixed URL.
type WebhookNotifier struct {
	url    string
	client *resty.Client
}

func NewWebhookNotifier(url string) *WebhookNotifier {
	client := resty.New().
		SetTimeout(5*time.Second).
		SetHeader("Content-Type", "application/json")
	return &WebhookNotifier{url: url, client: client}
}

func (w *WebhookNotifier) EnrollmentCreated(ctx context.Context, ev EnrollmentEvent) error {
	resp, err := w.client.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"event": "enrollment.created",
			"data":  ev,
		}).
		Post(w.url)
	if err != nil {
		return fmt.Errorf("webhook post: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("webhook responded %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}
