package device

import (
	"errors"
	"fmt"
)

// Command is one atomic instruction in the firmware's wire vocabulary. Each
// angle command moves its joint by one step.
type Command string

const (
	WaistLeft     Command = "WAIST_LEFT"
	WaistRight    Command = "WAIST_RIGHT"
	ShoulderUp    Command = "SHOULDER_UP"
	ShoulderDown  Command = "SHOULDER_DOWN"
	ElbowUp       Command = "ELBOW_UP"
	ElbowDown     Command = "ELBOW_DOWN"
	WristLeft     Command = "WRIST_LEFT"
	WristRight    Command = "WRIST_RIGHT"
	GripperToggle Command = "GRIPPER_TOGGLE"
	EmergencyStop Command = "EMERGENCY_STOP"
)

// StepDegrees is how far one angle command moves its joint.
const StepDegrees = 5

// ErrUnknownCommand is returned for strings outside the wire vocabulary.
var ErrUnknownCommand = errors.New("unknown command")

// AllCommands returns the complete wire vocabulary.
func AllCommands() []Command {
	return []Command{
		WaistLeft, WaistRight,
		ShoulderUp, ShoulderDown,
		ElbowUp, ElbowDown,
		WristLeft, WristRight,
		GripperToggle,
		EmergencyStop,
	}
}

// Valid reports whether c is part of the wire vocabulary. Matching is
// case-sensitive, as on the device.
func (c Command) Valid() bool {
	switch c {
	case WaistLeft, WaistRight, ShoulderUp, ShoulderDown, ElbowUp, ElbowDown,
		WristLeft, WristRight, GripperToggle, EmergencyStop:
		return true
	}
	return false
}

// ParseCommand validates s against the wire vocabulary.
func ParseCommand(s string) (Command, error) {
	c := Command(s)
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCommand, s)
	}
	return c, nil
}
