package device

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
)

// ErrorKind classifies a failed device call.
type ErrorKind string

const (
	KindTimeout     ErrorKind = "timeout"
	KindUnreachable ErrorKind = "unreachable"
	KindRejected    ErrorKind = "rejected"
	KindOther       ErrorKind = "other"
)

// Error is a failed round trip to the device.
type Error struct {
	Kind    ErrorKind
	Command Command // empty for telemetry reads
	Status  int     // HTTP status, set for KindRejected
	Body    string  // response body, set for KindRejected
	Err     error
}

func (e *Error) Error() string {
	target := "telemetry"
	if e.Command != "" {
		target = string(e.Command)
	}
	if e.Kind == KindRejected {
		return fmt.Sprintf("device %s: status %d: %s", target, e.Status, e.Body)
	}
	return fmt.Sprintf("device %s: %s: %v", target, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Message returns the human-readable cause shown to chat users.
func (e *Error) Message() string {
	switch e.Kind {
	case KindTimeout:
		return "ESP32 connection timeout - check if device is powered on and connected to WiFi"
	case KindUnreachable:
		return "Cannot connect to ESP32 - check IP address and network connection"
	case KindRejected:
		return fmt.Sprintf("ESP32 returned error: %s", e.Body)
	default:
		return fmt.Sprintf("Communication error: %v", e.Err)
	}
}

// KindOf returns the kind of a device error, or "" if err is not one.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// classify wraps a transport error from the HTTP client.
func classify(cmd Command, err error) *Error {
	return &Error{Kind: transportKind(err), Command: cmd, Err: err}
}

func transportKind(err error) ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH) ||
		errors.Is(err, syscall.ECONNRESET) {
		return KindUnreachable
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return KindUnreachable
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return KindUnreachable
	}
	return KindOther
}
