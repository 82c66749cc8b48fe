// Package plan turns intents into device command sequences and runs them.
//
// A Plan is computed against the registry without side effects. Execute
// sends its commands one at a time and stops at the first failure; Apply
// commits the plan's outcome to the registry and is only called once every
// step has succeeded.
package plan

import (
	"fmt"

	"github.com/samaysahu/Vox-GPT/pkg/arm"
	"github.com/samaysahu/Vox-GPT/pkg/device"
	"github.com/samaysahu/Vox-GPT/pkg/intent"
)

// Kind is the registry change a plan commits.
type Kind string

const (
	KindMove    Kind = "move"
	KindGripper Kind = "gripper"
	KindReset   Kind = "reset"
)

// Plan is the ordered device commands for one intent plus the registry
// state to commit after they all succeed.
type Plan struct {
	Intent   intent.Intent
	Kind     Kind
	Commands []device.Command

	// Joint and FinalAngle are set for KindMove.
	Joint      arm.JointName
	FinalAngle int

	// Gripper is set for KindGripper.
	Gripper arm.GripperState

	// Message is the user-facing result once the plan has run.
	Message string
}

// Empty reports whether the plan needs no device call.
func (p Plan) Empty() bool {
	return len(p.Commands) == 0
}

// Apply commits the plan to reg.
func (p Plan) Apply(reg *arm.Registry) error {
	switch p.Kind {
	case KindReset:
		reg.Reset()
		return nil
	case KindGripper:
		if err := reg.TrySetGripperState(p.Gripper); err != nil {
			return fmt.Errorf("commit gripper: %w", err)
		}
		return nil
	case KindMove:
		if err := reg.TrySetAngle(p.Joint, p.FinalAngle); err != nil {
			return fmt.Errorf("commit %s: %w", p.Joint, err)
		}
		return nil
	}
	return fmt.Errorf("commit: unknown plan kind %q", p.Kind)
}

// ValidationError is an intent the translator refuses. Message is shown to
// the user verbatim and no device call is made.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}
