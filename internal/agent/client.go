// Package agent triggers runs on the external investigation agent. The
// trigger is fire-and-forget: the investigation row is already persisted
// when the trigger goes out, and a delivery failure never rolls it back.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type RunInput struct {
	InvestigationID string `json:"investigation_id"`
	UserID          string `json:"user_id"`
	SessionID       string `json:"session_id"`
	Brief           string `json:"brief"`
	Mode            string `json:"mode"`
}

// TriggerRun asks the agent to start researching an investigation. The
// response body is drained and discarded; only transport-level and
// non-2xx failures are reported, and the caller just logs them.
func (c *Client) TriggerRun(ctx context.Context, in RunInput) error {
	if c.baseURL == "" {
		return fmt.Errorf("agent base URL not configured")
	}

	body, err := json.Marshal(in)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/run", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("agent trigger returned %s", resp.Status)
	}
	return nil
}
