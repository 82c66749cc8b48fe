// Package sim is an in-process stand-in for the arm controller. It serves the
// same HTTP API as the firmware: one step per command, angles constrained to
// the servo ranges, a toggling gripper and a telemetry report.
package sim

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/samaysahu/Vox-GPT/pkg/arm"
	"github.com/samaysahu/Vox-GPT/pkg/device"
)

// Simulator is an http.Handler emulating the controller.
type Simulator struct {
	mu       sync.Mutex
	limits   map[arm.JointName]arm.Limits
	angles   map[arm.JointName]int
	closed   bool
	received []device.Command
	logger   *slog.Logger
}

// New creates a simulator at the home position with the controller's
// built-in ranges.
func New(logger *slog.Logger) *Simulator {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Simulator{
		limits: arm.DefaultLimits(),
		angles: make(map[arm.JointName]int, 4),
		logger: logger,
	}
	s.home()
	return s
}

func (s *Simulator) home() {
	for _, j := range arm.AngleJoints() {
		s.angles[j] = arm.HomeAngle
	}
	s.closed = false
}

// Received returns every valid command handled so far.
func (s *Simulator) Received() []device.Command {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]device.Command(nil), s.received...)
}

// Telemetry returns the simulated controller state.
func (s *Simulator) Telemetry() device.Telemetry {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := arm.Snapshot{Angles: make(map[arm.JointName]int, len(s.angles)), Gripper: arm.Open}
	for j, a := range s.angles {
		snap.Angles[j] = a
	}
	if s.closed {
		snap.Gripper = arm.Closed
	}
	t := device.TelemetryFromSnapshot(snap)
	t.SystemStatus = "Operational"
	t.BoardType = "Simulator"
	return t
}

func (s *Simulator) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/api/arm/command" && r.Method == http.MethodPost:
		s.handleCommand(w, r)
	case r.URL.Path == "/api/arm/telemetry" && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, s.Telemetry())
	default:
		http.NotFound(w, r)
	}
}

func (s *Simulator) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Command *string `json:"command"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "Invalid JSON"})
		return
	}
	if req.Command == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "No command provided"})
		return
	}
	cmd, err := device.ParseCommand(*req.Command)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "Invalid command"})
		return
	}

	s.mu.Lock()
	s.apply(cmd)
	s.received = append(s.received, cmd)
	s.mu.Unlock()

	s.logger.Debug("simulator command", "command", cmd)
	writeJSON(w, http.StatusOK, map[string]string{"status": "Command executed: " + string(cmd)})
}

func (s *Simulator) apply(cmd device.Command) {
	step := func(j arm.JointName, delta int) {
		s.angles[j] = s.limits[j].Clamp(s.angles[j] + delta)
	}
	switch cmd {
	case device.WaistLeft:
		step(arm.Base, -device.StepDegrees)
	case device.WaistRight:
		step(arm.Base, device.StepDegrees)
	case device.ShoulderUp:
		step(arm.Shoulder, device.StepDegrees)
	case device.ShoulderDown:
		step(arm.Shoulder, -device.StepDegrees)
	case device.ElbowUp:
		step(arm.Elbow, device.StepDegrees)
	case device.ElbowDown:
		step(arm.Elbow, -device.StepDegrees)
	case device.WristLeft:
		step(arm.Wrist, -device.StepDegrees)
	case device.WristRight:
		step(arm.Wrist, device.StepDegrees)
	case device.GripperToggle:
		s.closed = !s.closed
	case device.EmergencyStop:
		s.home()
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
