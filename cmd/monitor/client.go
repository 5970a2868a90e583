// Package monitor implements the `monitor` CLI subcommand: a termui
// terminal dashboard that polls a running broker's debug snapshot endpoint
// and renders live session/flag state. Grounded on the teacher's
// gizak/termui dependency (declared in go.mod for exactly this kind of
// operator tooling, never itself exercised in the retrieved source) and
// marmos91-dittofs's dfsctl-style CLI-against-a-running-server pattern.
package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Snapshot mirrors internal/handler/http's debug response shape.
type Snapshot struct {
	Sessions []SessionSnapshot `json:"sessions"`
}

// SessionSnapshot is one session's live status and flag table.
type SessionSnapshot struct {
	SessionID string         `json:"session_id"`
	Status    int            `json:"status"`
	Flags     map[string]int `json:"flags"`
}

// Client polls a broker's /debug/snapshots endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a Client against baseURL (e.g. "http://localhost:8080").
func NewClient(baseURL string) *Client {
	return &Client{baseURL: baseURL, httpClient: &http.Client{Timeout: 5 * time.Second}}
}

// Fetch retrieves the last n recorded ticks, most recent last.
func (c *Client) Fetch(ctx context.Context, n int) ([]Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/debug/snapshots?n=%d", c.baseURL, n), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("monitor: broker responded %d", resp.StatusCode)
	}

	var out []Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("monitor: decode snapshots: %w", err)
	}
	return out, nil
}
