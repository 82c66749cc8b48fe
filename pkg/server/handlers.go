package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/samaysahu/Vox-GPT/pkg/arm"
	"github.com/samaysahu/Vox-GPT/pkg/device"
	"github.com/samaysahu/Vox-GPT/pkg/plan"
	"github.com/samaysahu/Vox-GPT/pkg/relay"
)

const maxRequestBody = 64 << 10

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the reply to POST /chat.
type ChatResponse struct {
	Response string `json:"response"`
}

// StatusResponse reports a failed telemetry read or a rejected command.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// CommandRequest is the body of POST /api/arm/command.
type CommandRequest struct {
	Command string `json:"command"`
}

// CommandResponse is the reply to a manual jog.
type CommandResponse struct {
	Status   string `json:"status"`
	Response string `json:"response"`
}

// StateResponse is the tracked arm state.
type StateResponse struct {
	Angles  map[arm.JointName]int        `json:"angles"`
	Gripper arm.GripperState             `json:"gripper"`
	Limits  map[arm.JointName]arm.Limits `json:"limits"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	// A missing or malformed body is handled as an empty message.
	_ = json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req)

	reply := s.relay.Submit(r.Context(), req.Message)

	status := http.StatusOK
	if reply.Status == relay.StatusEmpty {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, ChatResponse{Response: reply.Text})
}

func (s *Server) handleTelemetry(w http.ResponseWriter, r *http.Request) {
	t, err := s.relay.Telemetry(r.Context())
	if err != nil {
		msg := "Failed to communicate with ESP32: " + err.Error()
		var derr *device.Error
		if errors.As(err, &derr) {
			msg = "Failed to communicate with ESP32: " + derr.Message()
			if derr.Kind == device.KindRejected {
				msg = "Failed to fetch telemetry"
			}
		}
		writeJSON(w, http.StatusInternalServerError, StatusResponse{Status: "error", Message: msg})
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	reg := s.relay.Registry()
	snap := reg.Snapshot()
	limits := make(map[arm.JointName]arm.Limits, len(snap.Angles))
	for _, j := range arm.AngleJoints() {
		if l, err := reg.Limits(j); err == nil {
			limits[j] = l
		}
	}
	writeJSON(w, http.StatusOK, StateResponse{Angles: snap.Angles, Gripper: snap.Gripper, Limits: limits})
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req CommandRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, StatusResponse{Status: "Invalid JSON"})
		return
	}
	if req.Command == "" {
		writeJSON(w, http.StatusBadRequest, StatusResponse{Status: "No command provided"})
		return
	}
	cmd, err := device.ParseCommand(req.Command)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, StatusResponse{Status: "Invalid command"})
		return
	}

	reply := s.relay.Jog(r.Context(), cmd)

	status := http.StatusOK
	var verr *plan.ValidationError
	switch {
	case reply.Status == relay.StatusOK:
	case errors.As(reply.Err, &verr):
		status = http.StatusBadRequest
	default:
		status = http.StatusBadGateway
	}
	writeJSON(w, status, CommandResponse{Status: string(reply.Status), Response: reply.Text})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
