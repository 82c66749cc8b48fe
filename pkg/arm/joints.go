// Package arm tracks the joint state of a five-axis desktop robot arm.
package arm

import (
	"errors"
	"fmt"
	"strings"
)

// JointName identifies a joint in the arm.
type JointName string

// Joint names, in base-to-tip order.
const (
	Base     JointName = "base"
	Shoulder JointName = "shoulder"
	Elbow    JointName = "elbow"
	Wrist    JointName = "wrist"
	Gripper  JointName = "gripper"
)

// HomeAngle is the position every angle joint starts from and returns to on
// emergency stop.
const HomeAngle = 90

// AngleJoints returns the joints that are positioned by angle, in the order
// the keyword matcher checks them.
func AngleJoints() []JointName {
	return []JointName{
		Base,
		Shoulder,
		Elbow,
		Wrist,
	}
}

// AllJoints returns every joint including the gripper.
func AllJoints() []JointName {
	return append(AngleJoints(), Gripper)
}

// IsAngleJoint reports whether j is positioned by angle.
func (j JointName) IsAngleJoint() bool {
	switch j {
	case Base, Shoulder, Elbow, Wrist:
		return true
	}
	return false
}

// Title returns the joint name with an upper-case first letter.
func (j JointName) Title() string {
	if j == "" {
		return ""
	}
	return strings.ToUpper(string(j[:1])) + string(j[1:])
}

// ParseJoint returns the joint with the given (case-insensitive) name.
func ParseJoint(s string) (JointName, error) {
	j := JointName(strings.ToLower(strings.TrimSpace(s)))
	if j == Gripper || j.IsAngleJoint() {
		return j, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownJoint, s)
}

// GripperState is the binary state of the gripper.
type GripperState string

const (
	Open   GripperState = "open"
	Closed GripperState = "closed"
)

// ParseGripperState accepts "open" or "closed" in any case.
func ParseGripperState(s string) (GripperState, error) {
	switch GripperState(strings.ToLower(strings.TrimSpace(s))) {
	case Open:
		return Open, nil
	case Closed:
		return Closed, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidGripperState, s)
}

var (
	// ErrUnknownJoint is returned for names outside the joint vocabulary.
	ErrUnknownJoint = errors.New("unknown joint")

	// ErrInvalidGripperState is returned for gripper states other than open/closed.
	ErrInvalidGripperState = errors.New("invalid gripper state")

	// ErrNotAngleJoint is returned when an angle operation targets the gripper.
	ErrNotAngleJoint = errors.New("joint has no angle")
)
