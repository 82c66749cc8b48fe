// Package teleop provides terminal teleoperation of the arm through a running
// relay: a telemetry polling loop plus single-step jog commands.
package teleop

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/samaysahu/Vox-GPT/pkg/arm"
	"github.com/samaysahu/Vox-GPT/pkg/device"
	"github.com/samaysahu/Vox-GPT/pkg/server"
)

// State represents the last telemetry reading.
type State struct {
	Angles map[arm.JointName]int
	// Positions are the angles normalized to [-100, 100] within each
	// joint's limits.
	Positions map[arm.JointName]float64
	Gripper   arm.GripperState
	Timestamp time.Time
	Error     error
}

// Remote is the relay server the controller talks to.
type Remote interface {
	Telemetry(ctx context.Context) (device.Telemetry, error)
	Command(ctx context.Context, cmd device.Command) (server.CommandResponse, error)
}

// Controller manages the polling loop.
type Controller struct {
	remote Remote
	limits map[arm.JointName]arm.Limits
	hz     int

	mu      sync.RWMutex
	running bool
	stateCh chan State
	logCh   chan string
}

// Config holds configuration for the controller.
type Config struct {
	Remote Remote
	// Limits normalizes positions; nil means arm.DefaultLimits.
	Limits map[arm.JointName]arm.Limits
	Hz     int
}

// NewController creates a new teleoperation controller.
func NewController(cfg Config) (*Controller, error) {
	if cfg.Remote == nil {
		return nil, errors.New("teleop: remote is required")
	}
	if cfg.Limits == nil {
		cfg.Limits = arm.DefaultLimits()
	}
	if cfg.Hz <= 0 {
		cfg.Hz = 2
	}

	return &Controller{
		remote:  cfg.Remote,
		limits:  cfg.Limits,
		hz:      cfg.Hz,
		stateCh: make(chan State, 1),
		logCh:   make(chan string, 10),
	}, nil
}

// States returns a channel that receives state updates.
func (c *Controller) States() <-chan State {
	return c.stateCh
}

// Logs returns a channel that receives log messages.
func (c *Controller) Logs() <-chan string {
	return c.logCh
}

// Hz returns the polling frequency.
func (c *Controller) Hz() int {
	return c.hz
}

func (c *Controller) log(format string, args ...any) {
	msg := fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), fmt.Sprintf(format, args...))
	select {
	case c.logCh <- msg:
	default:
		// Drop if channel full
	}
}

// Start runs the polling loop until ctx is cancelled.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return fmt.Errorf("already running")
	}
	c.running = true
	c.mu.Unlock()

	c.log("Polling telemetry at %d Hz", c.hz)

	ticker := time.NewTicker(time.Second / time.Duration(c.hz))
	defer ticker.Stop()

	c.step(ctx)
	for {
		select {
		case <-ctx.Done():
			c.mu.Lock()
			c.running = false
			c.mu.Unlock()
			return ctx.Err()
		case <-ticker.C:
			c.step(ctx)
		}
	}
}

// Jog sends one device command and logs the relay's reply.
func (c *Controller) Jog(ctx context.Context, cmd device.Command) {
	resp, err := c.remote.Command(ctx, cmd)
	if err != nil {
		c.log("%s: %v", cmd, err)
		return
	}
	c.log("%s: %s", cmd, resp.Response)
}

func (c *Controller) step(ctx context.Context) {
	t, err := c.remote.Telemetry(ctx)
	if err != nil {
		if ctx.Err() == nil {
			c.log("Telemetry error: %v", err)
		}
		c.sendState(State{Error: err, Timestamp: time.Now()})
		return
	}
	c.sendState(c.stateFrom(t))
}

func (c *Controller) stateFrom(t device.Telemetry) State {
	s := State{
		Angles:    t.Angles(),
		Positions: make(map[arm.JointName]float64, 4),
		Timestamp: time.Now(),
	}
	for j, a := range s.Angles {
		if l, ok := c.limits[j]; ok {
			s.Positions[j] = l.Normalize(a)
		}
	}
	if g, ok := t.Gripper(); ok {
		s.Gripper = g
	}
	return s
}

func (c *Controller) sendState(s State) {
	select {
	case c.stateCh <- s:
	default:
		// Drop old state if channel full, replace with new
		select {
		case <-c.stateCh:
		default:
		}
		c.stateCh <- s
	}
}
