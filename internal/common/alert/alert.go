package alert

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// WebhookMessage is the Discord-compatible webhook payload.
type WebhookMessage struct {
	Content string  `json:"content"`
	Embeds  []Embed `json:"embeds,omitempty"`
}

type Embed struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Color       int       `json:"color"`
	Timestamp   time.Time `json:"timestamp"`
	Fields      []Field   `json:"fields,omitempty"`
}

type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

const (
	colorWarning  = 0xFFA500
	colorCritical = 0xFF0000
)

// Client posts operator alerts to a webhook. A client with an empty
// URL is valid and sends nothing.
type Client struct {
	webhookURL string
	httpClient *http.Client
}

func NewClient(webhookURL string) *Client {
	return &Client{
		webhookURL: webhookURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) SendMessage(msg WebhookMessage) error {
	if c.webhookURL == "" {
		return nil
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook message: %w", err)
	}

	req, err := http.NewRequest("POST", c.webhookURL, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook request failed with status: %d", resp.StatusCode)
	}

	return nil
}

// SendPollFailure reports that the location poll has failed the given
// number of consecutive times.
func (c *Client) SendPollFailure(consecutive int, lastErr error) error {
	color := colorWarning
	if consecutive >= 10 {
		color = colorCritical
	}

	embed := Embed{
		Title:       "Trolley location poll failing",
		Description: fmt.Sprintf("%d consecutive poll failures", consecutive),
		Color:       color,
		Timestamp:   time.Now(),
		Fields: []Field{
			{Name: "last_error", Value: lastErr.Error(), Inline: false},
		},
	}

	return c.SendMessage(WebhookMessage{Embeds: []Embed{embed}})
}
