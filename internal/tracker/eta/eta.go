package eta

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/trolley-tracker/internal/catalog"
	"github.com/trolley-tracker/internal/common/logger"
)

const UserAgent = "trolley-tracker/1.0"

// FallbackText is displayed when the service answers with neither an
// error nor a usable ETA.
const FallbackText = "ETA not available."

// Client fetches ETA display strings from the remote tracking service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     logger.Logger
}

func NewClient(baseURL string, timeout time.Duration, log logger.Logger) *Client {
	client := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 5,
			IdleConnTimeout:     30 * time.Second,
		},
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: client,
		logger:     log,
	}
}

type etaRequest struct {
	Stop  string `json:"stop"`
	Route string `json:"route"`
}

// etaResponse covers every shape the service may answer with. Pointers
// distinguish absent or null fields from zero values.
type etaResponse struct {
	Error  *string  `json:"error"`
	ETAMin *float64 `json:"eta_min"`
	ETASec *float64 `json:"eta_sec"`
}

// Fetch resolves the display string for the stop and direction:
// a server-supplied error string takes precedence, then a formatted
// "<min> min <sec> sec" value, then the fallback text. A non-nil error
// is returned only when the request itself fails or the body is not JSON.
func (c *Client) Fetch(ctx context.Context, stop string, route catalog.Direction) (string, error) {
	requestID := uuid.NewString()
	c.logger.Debug("fetching ETA", "request_id", requestID, "stop", stop, "route", route)

	payload, err := json.Marshal(etaRequest{Stop: stop, Route: string(route)})
	if err != nil {
		return "", fmt.Errorf("failed to marshal ETA request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/eta", bytes.NewBuffer(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("X-Request-ID", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch ETA: %w", err)
	}
	defer resp.Body.Close()

	// The service reports domain problems as an error field in the
	// body, sometimes alongside a non-2xx status. Decode regardless of
	// status so the server's own message wins over a generic one.
	var body etaResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode ETA response: %w", err)
	}

	text := interpret(body)
	c.logger.Debug("ETA resolved", "request_id", requestID, "stop", stop, "text", text)
	return text, nil
}

// interpret maps a decoded response to its display string.
func interpret(body etaResponse) string {
	if body.Error != nil && *body.Error != "" {
		return *body.Error
	}
	if body.ETAMin != nil && body.ETASec != nil {
		return fmt.Sprintf("%d min %d sec", int(*body.ETAMin), int(*body.ETASec))
	}
	return FallbackText
}
