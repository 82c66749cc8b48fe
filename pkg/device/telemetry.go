package device

import (
	"strings"

	"github.com/samaysahu/Vox-GPT/pkg/arm"
)

// Telemetry is the controller's report of its joint positions. Fields the
// controller omits are nil or empty.
type Telemetry struct {
	BaseAngle     *int   `json:"baseAngle,omitempty"`
	ShoulderAngle *int   `json:"shoulderAngle,omitempty"`
	ElbowAngle    *int   `json:"elbowAngle,omitempty"`
	WristAngle    *int   `json:"wristAngle,omitempty"`
	GripperState  string `json:"gripperState,omitempty"` // "Open" or "Closed"
	SystemStatus  string `json:"systemStatus,omitempty"`
	BoardType     string `json:"boardType,omitempty"`
}

// Angles returns the reported angles keyed by joint.
func (t Telemetry) Angles() map[arm.JointName]int {
	out := make(map[arm.JointName]int, 4)
	for j, v := range map[arm.JointName]*int{
		arm.Base:     t.BaseAngle,
		arm.Shoulder: t.ShoulderAngle,
		arm.Elbow:    t.ElbowAngle,
		arm.Wrist:    t.WristAngle,
	} {
		if v != nil {
			out[j] = *v
		}
	}
	return out
}

// Gripper returns the reported gripper state, if any.
func (t Telemetry) Gripper() (arm.GripperState, bool) {
	if strings.TrimSpace(t.GripperState) == "" {
		return "", false
	}
	s, err := arm.ParseGripperState(t.GripperState)
	if err != nil {
		return "", false
	}
	return s, true
}

// TelemetryFromSnapshot renders a registry snapshot in the controller's
// telemetry format.
func TelemetryFromSnapshot(s arm.Snapshot) Telemetry {
	angle := func(j arm.JointName) *int {
		v, ok := s.Angles[j]
		if !ok {
			return nil
		}
		return &v
	}
	gripper := "Open"
	if s.Gripper == arm.Closed {
		gripper = "Closed"
	}
	return Telemetry{
		BaseAngle:     angle(arm.Base),
		ShoulderAngle: angle(arm.Shoulder),
		ElbowAngle:    angle(arm.Elbow),
		WristAngle:    angle(arm.Wrist),
		GripperState:  gripper,
	}
}
