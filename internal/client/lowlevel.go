// Package client implements the Client Protocol (§4.7): a low-level HTTP
// client mirroring the RPC Surface one call per endpoint, and a high-level
// layer of retry/poll helpers built on top of it. Grounded on
// src/clients/cyberwater/low_level_api.py and high_level_api.py from the
// Python original, re-expressed as idiomatic Go with a persistent
// *http.Client and (per the example corpus's resilience idiom) a circuit
// breaker around the transport.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/dantte-lp/dataexchange-broker/internal/codec"
	"github.com/dantte-lp/dataexchange-broker/internal/domain/session"
)

// ErrTransport wraps every failure that is not a well-formed broker
// response: connection refused, timeout, malformed body. In highlevel.go,
// JoinWithRetries and the flag probes of the polling wrappers retry on it;
// a failed send_data or receive_data call is not retried (§7).
type ErrTransport struct{ Err error }

func (e *ErrTransport) Error() string { return fmt.Sprintf("client: transport error: %v", e.Err) }
func (e *ErrTransport) Unwrap() error { return e.Err }

// StatusError is a well-formed non-2xx broker response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("client: broker responded %d: %s", e.StatusCode, e.Body)
}

// LowLevel is a thin, one-call-per-endpoint client for the RPC Surface
// (§4.5/§6).
type LowLevel struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*http.Response]
}

// NewLowLevel builds a LowLevel client against baseURL. The circuit breaker
// opens after 5 consecutive transport failures and probes again after 30s,
// shielding a caller in a tight retry loop from hammering a broker that is
// simply down.
func NewLowLevel(baseURL string, httpClient *http.Client) *LowLevel {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	cb := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:    "dataexchange-broker-client",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &LowLevel{baseURL: baseURL, httpClient: httpClient, breaker: cb}
}

func (c *LowLevel) do(req *http.Request) (*http.Response, error) {
	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		return c.httpClient.Do(req)
	})
	if err != nil {
		return nil, &ErrTransport{Err: err}
	}
	return resp, nil
}

func (c *LowLevel) jsonRequest(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, &ErrTransport{Err: err}
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, &ErrTransport{Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req)
}

func decodeJSON(resp *http.Response, into any) error {
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &StatusError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if into == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		return &ErrTransport{Err: err}
	}
	return nil
}

// CreateSession posts create_session and returns the minted SessionID.
func (c *LowLevel) CreateSession(ctx context.Context, params session.CreateParams) (session.ID, error) {
	resp, err := c.jsonRequest(ctx, http.MethodPost, "/create_session", map[string]any{
		"source_model_id":       params.SourceModelID,
		"destination_model_id":  params.DestinationModelID,
		"initiator_id":          params.InitiatorID,
		"invitee_id":            params.InviteeID,
		"input_variables_id":    params.InputVariablesID,
		"input_variables_size":  params.InputVariablesSize,
		"output_variables_id":   params.OutputVariablesID,
		"output_variables_size": params.OutputVariablesSize,
	})
	if err != nil {
		return session.ID{}, err
	}

	var out struct {
		Status    int        `json:"status"`
		SessionID session.ID `json:"session_id"`
	}
	if err := decodeJSON(resp, &out); err != nil {
		return session.ID{}, err
	}
	return out.SessionID, nil
}

// GetSessionStatus gets get_session_status.
func (c *LowLevel) GetSessionStatus(ctx context.Context, id session.ID) (session.Status, error) {
	resp, err := c.jsonRequest(ctx, http.MethodGet, "/get_session_status", map[string]any{"session_id": id})
	if err != nil {
		return session.StatusUnknown, err
	}
	var status int
	if err := decodeJSON(resp, &status); err != nil {
		return session.StatusUnknown, err
	}
	return session.Status(status), nil
}

// JoinSession posts join_session.
func (c *LowLevel) JoinSession(ctx context.Context, id session.ID, inviteeID int) error {
	resp, err := c.jsonRequest(ctx, http.MethodPost, "/join_session", map[string]any{
		"session_id": id,
		"invitee_id": inviteeID,
	})
	if err != nil {
		return err
	}
	return decodeJSON(resp, nil)
}

// GetVariableFlag gets get_variable_flag.
func (c *LowLevel) GetVariableFlag(ctx context.Context, id session.ID, varID int) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/get_variable_flag?session_id=%s&var_id=%d", c.baseURL, id.String(), varID), nil)
	if err != nil {
		return 0, &ErrTransport{Err: err}
	}
	resp, err := c.do(req)
	if err != nil {
		return 0, err
	}
	var out struct {
		FlagStatus int `json:"flag_status"`
	}
	if err := decodeJSON(resp, &out); err != nil {
		return 0, err
	}
	return out.FlagStatus, nil
}

// GetVariableSize gets get_variable_size.
func (c *LowLevel) GetVariableSize(ctx context.Context, id session.ID, varID int) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/get_variable_size?session_id=%s&var_id=%d", c.baseURL, id.String(), varID), nil)
	if err != nil {
		return 0, &ErrTransport{Err: err}
	}
	resp, err := c.do(req)
	if err != nil {
		return 0, err
	}
	var out struct {
		Size int `json:"size"`
	}
	if err := decodeJSON(resp, &out); err != nil {
		return 0, err
	}
	return out.Size, nil
}

// SendData posts send_data with the Session-ID/Var-ID headers and the
// little-endian float payload as the raw body.
func (c *LowLevel) SendData(ctx context.Context, id session.ID, varID int, xs []float64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/send_data", bytes.NewReader(codec.Encode(xs)))
	if err != nil {
		return &ErrTransport{Err: err}
	}
	req.Header.Set("Session-ID", id.String())
	req.Header.Set("Var-ID", fmt.Sprintf("%d", varID))
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	return decodeJSON(resp, nil)
}

// ReceiveData gets receive_data and decodes the octet-stream body.
func (c *LowLevel) ReceiveData(ctx context.Context, id session.ID, varID int) ([]float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/receive_data?session_id=%s&var_id=%d", c.baseURL, id.String(), varID), nil)
	if err != nil {
		return nil, &ErrTransport{Err: err}
	}
	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ErrTransport{Err: err}
	}
	xs, err := codec.Decode(body)
	if err != nil {
		return nil, &ErrTransport{Err: err}
	}
	return xs, nil
}

// EndSession posts end_session.
func (c *LowLevel) EndSession(ctx context.Context, id session.ID) (session.Status, error) {
	resp, err := c.jsonRequest(ctx, http.MethodPost, "/end_session", map[string]any{"session_id": id})
	if err != nil {
		return session.StatusUnknown, err
	}
	var out struct {
		Status int `json:"status"`
	}
	if err := decodeJSON(resp, &out); err != nil {
		return session.StatusUnknown, err
	}
	return session.Status(out.Status), nil
}
