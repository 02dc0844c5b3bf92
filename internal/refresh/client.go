package refresh

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTriggerURL is where the CLI asks the server to refresh.
const DefaultTriggerURL = "http://localhost:3000/api/refresh"

// TriggerResponse is the JSON body of POST /api/refresh.
type TriggerResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	RunID        string `json:"run_id,omitempty"`
	Holders      int    `json:"holders,omitempty"`
	Transactions int    `json:"transactions,omitempty"`
	Error        string `json:"error,omitempty"`

	// Raw is the body as received.
	Raw string `json:"-"`
}

// StatusError is returned when the server answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%d %s", e.StatusCode, e.Body)
}

// Client triggers refreshes over HTTP.
type Client struct {
	url    string
	client *http.Client
}

// NewClient creates a trigger client for url.
func NewClient(url string, client *http.Client) *Client {
	if url == "" {
		url = DefaultTriggerURL
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Minute}
	}
	return &Client{url: url, client: client}
}

// Trigger posts a refresh request and waits for the run to finish.
func (c *Client) Trigger(ctx context.Context) (*TriggerResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", c.url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	out := &TriggerResponse{Raw: string(body)}
	if err := json.Unmarshal(body, out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}
