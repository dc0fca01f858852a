package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/BearBump/ParcelDesk/internal/services/notifier"
	"github.com/pkg/errors"
)

// Client posts notifications to an external delivery service (mail/SMS gateway).
type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
}

func New(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:9000"
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpc: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type reqBody struct {
	ParcelID       string    `json:"parcel_id"`
	TrackingNumber string    `json:"tracking_number"`
	Recipient      string    `json:"recipient"`
	Title          string    `json:"title"`
	Text           string    `json:"text"`
	At             time.Time `json:"at"`
}

// Deliver implements notifier.Sink. Any non-2xx answer is an error, so the notifier retries it.
func (c *Client) Deliver(ctx context.Context, n notifier.Notification) error {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return errors.Wrap(err, "parse base url")
	}
	u.Path = "/v1/notifications"

	body, err := json.Marshal(reqBody{
		ParcelID:       n.ParcelID,
		TrackingNumber: n.TrackingNumber,
		Recipient:      n.Recipient,
		Title:          n.Title,
		Text:           n.Text,
		At:             n.At,
	})
	if err != nil {
		return errors.Wrap(err, "marshal notification")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "new request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return errors.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("notification webhook rate limit (429)")
	}
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("notification webhook http %d", resp.StatusCode)
	}
	return nil
}
