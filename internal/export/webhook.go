package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Webhook delivers finished reports to an HTTP endpoint
type Webhook struct {
	URL    string
	APIKey string

	client *retryablehttp.Client
}

// webhookEnvelope wraps a report for delivery. ID stays the same across
// retries so receivers can drop duplicates.
type webhookEnvelope struct {
	ID         string      `json:"id"`
	Report     interface{} `json:"report"`
	ExportTime string      `json:"export_time"`
}

// NewWebhook creates a webhook exporter. An empty url yields a nil Webhook,
// on which Post is a no-op.
func NewWebhook(url, apiKey string) *Webhook {
	if url == "" {
		return nil
	}

	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.RetryWaitMin = 500 * time.Millisecond
	client.RetryWaitMax = 5 * time.Second
	client.HTTPClient.Timeout = 10 * time.Second
	client.HTTPClient.Transport = otelhttp.NewTransport(client.HTTPClient.Transport)
	client.Logger = nil

	return &Webhook{URL: url, APIKey: apiKey, client: client}
}

// Post sends v to the webhook as JSON
func (w *Webhook) Post(ctx context.Context, v interface{}) error {
	if w == nil {
		return nil
	}

	id := uuid.NewString()
	body, err := json.Marshal(webhookEnvelope{
		ID:         id,
		Report:     v,
		ExportTime: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Delivery-ID", id)
	if w.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+w.APIKey)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned error status: %d", resp.StatusCode)
	}

	logrus.WithFields(logrus.Fields{
		"url":         w.URL,
		"delivery_id": id,
	}).Info("Report delivered to webhook")
	return nil
}
