// Package intent turns free-text arm instructions into structured intents.
//
// Parsing is a two-stage strategy: an external language model (the oracle)
// is consulted first, and a deterministic keyword matcher takes over whenever
// the oracle is absent, fails, or answers with something unusable. Both
// stages produce the same Intent shape.
package intent

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/samaysahu/Vox-GPT/pkg/arm"
)

// Target is what an intent acts on: a joint name, TargetEmergencyStop or
// TargetError.
type Target string

const (
	TargetEmergencyStop Target = "emergency_stop"
	TargetError         Target = "error"
)

// Source records which parsing stage produced an intent.
type Source string

const (
	SourceOracle   Source = "oracle"
	SourceKeywords Source = "keywords"
)

// HelpHint is the message carried by intents that match nothing.
const HelpHint = "This chatbot is for controlling the robotic arm. Try commands like: move base to 45 degrees, close gripper, or emergency stop."

// ErrNotNumeric is returned when an angle intent carries a non-integer value.
var ErrNotNumeric = errors.New("value is not an integer")

// Intent is a parsed instruction. Value holds an angle or a Delta for angle
// joints, a gripper state string for the gripper, nil for an emergency stop
// and a message for TargetError. Oracle answers may carry any JSON value, which is
// validated later by the translator.
type Intent struct {
	Joint  Target `json:"joint"`
	Value  any    `json:"value"`
	Source Source `json:"source,omitempty"`
}

// Delta is a relative angle change. It is resolved against the tracked angle
// when the intent is translated, not when it is parsed.
type Delta int

func (d Delta) String() string {
	return fmt.Sprintf("%+d", int(d))
}

// Move returns an intent to move an angle joint.
func Move(j arm.JointName, angle int) Intent {
	return Intent{Joint: Target(j), Value: angle}
}

// Nudge returns an intent to move an angle joint by delta degrees from its
// tracked angle.
func Nudge(j arm.JointName, delta int) Intent {
	return Intent{Joint: Target(j), Value: Delta(delta)}
}

// SetGripper returns an intent to open or close the gripper.
func SetGripper(s arm.GripperState) Intent {
	return Intent{Joint: Target(arm.Gripper), Value: string(s)}
}

// Stop returns an emergency-stop intent.
func Stop() Intent {
	return Intent{Joint: TargetEmergencyStop}
}

// Unrecognized returns an error intent carrying msg.
func Unrecognized(msg string) Intent {
	return Intent{Joint: TargetError, Value: msg}
}

// IsError reports whether the intent signals unrecognized input.
func (i Intent) IsError() bool {
	return i.Joint == TargetError
}

// Message returns the text of an error intent.
func (i Intent) Message() string {
	if s, ok := i.Value.(string); ok && s != "" {
		return s
	}
	return HelpHint
}

// AngleValue interprets Value as an integer angle. Floats are truncated and
// numeric strings are accepted.
func (i Intent) AngleValue() (int, error) {
	switch v := i.Value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n), nil
		}
		if f, err := v.Float64(); err == nil {
			return int(f), nil
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n, nil
		}
	}
	return 0, fmt.Errorf("%w: %v", ErrNotNumeric, i.Value)
}

// RelativeValue returns the delta of a relative move.
func (i Intent) RelativeValue() (int, bool) {
	d, ok := i.Value.(Delta)
	return int(d), ok
}

// GripperValue returns Value as a string, if it is one.
func (i Intent) GripperValue() (string, bool) {
	s, ok := i.Value.(string)
	return s, ok
}

func (i Intent) String() string {
	if i.Value == nil {
		return string(i.Joint)
	}
	return fmt.Sprintf("%s=%v", i.Joint, i.Value)
}
