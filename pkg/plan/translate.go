package plan

import (
	"fmt"

	"github.com/samaysahu/Vox-GPT/pkg/arm"
	"github.com/samaysahu/Vox-GPT/pkg/device"
	"github.com/samaysahu/Vox-GPT/pkg/intent"
)

// EmergencyMessage is the result of a completed emergency stop.
const EmergencyMessage = "Emergency stop executed - all joints reset to 90 degrees, gripper open"

// stepCommands maps each angle joint to the commands that move it one step
// up and down.
var stepCommands = map[arm.JointName][2]device.Command{
	arm.Base:     {device.WaistRight, device.WaistLeft},
	arm.Shoulder: {device.ShoulderUp, device.ShoulderDown},
	arm.Elbow:    {device.ElbowUp, device.ElbowDown},
	arm.Wrist:    {device.WristRight, device.WristLeft},
}

// Translator builds plans against the tracked joint state.
type Translator struct {
	reg *arm.Registry
}

func NewTranslator(reg *arm.Registry) *Translator {
	return &Translator{reg: reg}
}

// Translate validates in and returns its plan. Errors are *ValidationError.
func (t *Translator) Translate(in intent.Intent) (Plan, error) {
	switch in.Joint {
	case intent.TargetEmergencyStop:
		return resetPlan(in), nil
	case intent.TargetError:
		return Plan{}, invalid("%s", in.Message())
	case intent.Target(arm.Gripper):
		return t.gripper(in)
	}

	j := arm.JointName(in.Joint)
	if !j.IsAngleJoint() {
		return Plan{}, invalid("Invalid joint")
	}
	return t.move(in, j)
}

func resetPlan(in intent.Intent) Plan {
	return Plan{
		Intent:   in,
		Kind:     KindReset,
		Commands: []device.Command{device.EmergencyStop},
		Message:  EmergencyMessage,
	}
}

func (t *Translator) gripper(in intent.Intent) (Plan, error) {
	raw, _ := in.GripperValue()
	want, err := arm.ParseGripperState(raw)
	if err != nil {
		return Plan{}, invalid("Invalid gripper state (must be 'open' or 'closed')")
	}

	p := Plan{Intent: in, Kind: KindGripper, Gripper: want}
	if t.reg.GripperState() == want {
		p.Message = fmt.Sprintf("Gripper is already %s", want)
		return p, nil
	}
	p.Commands = []device.Command{device.GripperToggle}
	p.Message = fmt.Sprintf("Gripper is now %s", want)
	return p, nil
}

// move plans an angle change. Relative intents are resolved against the
// tracked angle here, so callers holding the dispatch lock see a consistent
// current angle.
func (t *Translator) move(in intent.Intent, j arm.JointName) (Plan, error) {
	limits, err := t.reg.Limits(j)
	if err != nil {
		return Plan{}, invalid("Invalid joint")
	}
	current, err := t.reg.Angle(j)
	if err != nil {
		return Plan{}, invalid("Invalid joint")
	}

	var target int
	if delta, ok := in.RelativeValue(); ok {
		target = current + delta
	} else if target, err = in.AngleValue(); err != nil {
		return Plan{}, invalid("Invalid angle value")
	}
	if !limits.Contains(target) {
		return Plan{}, invalid("Angle out of range (%s)", limits)
	}

	p := Plan{Intent: in, Kind: KindMove, Joint: j, FinalAngle: current}

	diff := target - current
	steps := abs(diff) / device.StepDegrees
	if steps == 0 {
		p.Message = fmt.Sprintf("%s already at %d degrees", j.Title(), target)
		return p, nil
	}

	cmd, sign := stepCommands[j][1], -1
	if diff > 0 {
		cmd, sign = stepCommands[j][0], 1
	}
	p.Commands = make([]device.Command, steps)
	for i := range p.Commands {
		p.Commands[i] = cmd
	}
	p.FinalAngle = limits.Clamp(current + sign*steps*device.StepDegrees)
	p.Message = fmt.Sprintf("Moved %s to %d degrees", j, target)
	return p, nil
}

// ForCommand builds the single-step plan for one raw device command, as sent
// by a manual jog. The commit mirrors what the controller does with it.
func (t *Translator) ForCommand(cmd device.Command) (Plan, error) {
	if !cmd.Valid() {
		return Plan{}, invalid("Invalid command")
	}

	switch cmd {
	case device.EmergencyStop:
		return resetPlan(intent.Stop()), nil
	case device.GripperToggle:
		want := arm.Closed
		if t.reg.GripperState() == arm.Closed {
			want = arm.Open
		}
		return Plan{
			Intent:   intent.SetGripper(want),
			Kind:     KindGripper,
			Commands: []device.Command{cmd},
			Gripper:  want,
			Message:  fmt.Sprintf("Gripper is now %s", want),
		}, nil
	}

	for j, cmds := range stepCommands {
		delta := 0
		switch cmd {
		case cmds[0]:
			delta = device.StepDegrees
		case cmds[1]:
			delta = -device.StepDegrees
		default:
			continue
		}
		limits, _ := t.reg.Limits(j)
		current, _ := t.reg.Angle(j)
		final := limits.Clamp(current + delta)
		return Plan{
			Intent:     intent.Move(j, final),
			Kind:       KindMove,
			Commands:   []device.Command{cmd},
			Joint:      j,
			FinalAngle: final,
			Message:    fmt.Sprintf("Moved %s to %d degrees", j, final),
		}, nil
	}
	return Plan{}, invalid("Invalid command")
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
