// Package device talks to the arm's ESP32 controller over its HTTP API.
package device

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	commandPath   = "/api/arm/command"
	telemetryPath = "/api/arm/telemetry"

	// maxBodySize bounds how much of a device response is read.
	maxBodySize = 64 << 10

	DefaultTimeout          = 2 * time.Second
	DefaultTelemetryTimeout = 5 * time.Second
)

// Config holds the settings for a device client.
type Config struct {
	// URL is the controller's base URL, e.g. http://192.168.29.247.
	// A bare host gets an http:// scheme.
	URL              string
	Timeout          time.Duration
	TelemetryTimeout time.Duration

	// HTTPClient overrides the default client. Per-call timeouts are still
	// applied through the request context.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client sends commands to the controller. Every call is a single HTTP round
// trip; nothing is retried.
type Client struct {
	baseURL          string
	timeout          time.Duration
	telemetryTimeout time.Duration
	http             *http.Client
	logger           *slog.Logger
}

// NewClient creates a device client.
func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if base == "" {
		return nil, fmt.Errorf("device url is empty")
	}
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.TelemetryTimeout <= 0 {
		cfg.TelemetryTimeout = DefaultTelemetryTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Client{
		baseURL:          base,
		timeout:          cfg.Timeout,
		telemetryTimeout: cfg.TelemetryTimeout,
		http:             cfg.HTTPClient,
		logger:           cfg.Logger,
	}, nil
}

// BaseURL returns the normalized controller URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type commandRequest struct {
	Command Command `json:"command"`
}

// Send delivers one command. A non-nil error is always a *Error, except for
// commands outside the wire vocabulary, which fail with ErrUnknownCommand
// before any I/O.
func (c *Client) Send(ctx context.Context, cmd Command) error {
	if !cmd.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownCommand, cmd)
	}

	body, err := json.Marshal(commandRequest{Command: cmd})
	if err != nil {
		return &Error{Kind: KindOther, Command: cmd, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+commandPath, bytes.NewReader(body))
	if err != nil {
		return &Error{Kind: KindOther, Command: cmd, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		de := classify(cmd, err)
		c.logger.Debug("device command failed", "command", cmd, "kind", de.Kind, "error", err)
		return de
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return classify(cmd, err)
	}
	if resp.StatusCode != http.StatusOK {
		return &Error{
			Kind:    KindRejected,
			Command: cmd,
			Status:  resp.StatusCode,
			Body:    strings.TrimSpace(string(respBody)),
		}
	}

	c.logger.Debug("device command sent", "command", cmd, "duration_ms", time.Since(start).Milliseconds())
	return nil
}

// Telemetry reads the controller's own view of the joint positions.
func (c *Client) Telemetry(ctx context.Context) (Telemetry, error) {
	ctx, cancel := context.WithTimeout(ctx, c.telemetryTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+telemetryPath, nil)
	if err != nil {
		return Telemetry{}, &Error{Kind: KindOther, Err: err}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Telemetry{}, classify("", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return Telemetry{}, classify("", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Telemetry{}, &Error{
			Kind:   KindRejected,
			Status: resp.StatusCode,
			Body:   strings.TrimSpace(string(body)),
		}
	}

	var t Telemetry
	if err := json.Unmarshal(body, &t); err != nil {
		return Telemetry{}, &Error{Kind: KindOther, Err: fmt.Errorf("decode telemetry: %w", err)}
	}
	return t, nil
}
