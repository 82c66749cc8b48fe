package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/samaysahu/Vox-GPT/pkg/device"
)

// Client talks to a running relay server.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the server at baseURL. A bare host:port
// gets an http:// scheme.
func NewClient(baseURL string, timeout time.Duration) *Client {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if strings.HasPrefix(base, ":") {
		base = "localhost" + base
	}
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	return &Client{baseURL: base, http: &http.Client{Timeout: timeout}}
}

// BaseURL returns the normalized server URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Chat sends a message and returns the reply text. Replies to empty
// messages are returned without error.
func (c *Client) Chat(ctx context.Context, message string) (string, error) {
	var resp ChatResponse
	status, err := c.do(ctx, http.MethodPost, "/chat", ChatRequest{Message: message}, &resp)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK && status != http.StatusBadRequest {
		return "", fmt.Errorf("chat: unexpected status %d", status)
	}
	return resp.Response, nil
}

// Telemetry asks the server to resync from the device.
func (c *Client) Telemetry(ctx context.Context) (device.Telemetry, error) {
	var raw json.RawMessage
	status, err := c.do(ctx, http.MethodGet, "/telemetry", nil, &raw)
	if err != nil {
		return device.Telemetry{}, err
	}
	if status != http.StatusOK {
		var sr StatusResponse
		_ = json.Unmarshal(raw, &sr)
		return device.Telemetry{}, fmt.Errorf("telemetry: %s", sr.Message)
	}
	var t device.Telemetry
	if err := json.Unmarshal(raw, &t); err != nil {
		return device.Telemetry{}, fmt.Errorf("decode telemetry: %w", err)
	}
	return t, nil
}

// State returns the tracked arm state.
func (c *Client) State(ctx context.Context) (StateResponse, error) {
	var resp StateResponse
	status, err := c.do(ctx, http.MethodGet, "/api/arm/state", nil, &resp)
	if err != nil {
		return StateResponse{}, err
	}
	if status != http.StatusOK {
		return StateResponse{}, fmt.Errorf("state: unexpected status %d", status)
	}
	return resp, nil
}

// Command sends one manual jog command.
func (c *Client) Command(ctx context.Context, cmd device.Command) (CommandResponse, error) {
	var raw json.RawMessage
	status, err := c.do(ctx, http.MethodPost, "/api/arm/command", CommandRequest{Command: string(cmd)}, &raw)
	if err != nil {
		return CommandResponse{}, err
	}
	var resp CommandResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return CommandResponse{}, fmt.Errorf("decode command response: %w", err)
	}
	if resp.Response == "" && status != http.StatusOK {
		return resp, fmt.Errorf("command %s: %s", cmd, resp.Status)
	}
	return resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) (int, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode %s response: %w", path, err)
	}
	return resp.StatusCode, nil
}
