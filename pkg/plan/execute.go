package plan

import (
	"context"
	"fmt"

	"github.com/samaysahu/Vox-GPT/pkg/device"
)

// Sender delivers one atomic command to the device.
type Sender interface {
	Send(ctx context.Context, cmd device.Command) error
}

// StepError is the first failed step of a plan.
type StepError struct {
	// Step is the 1-based index of the failed command.
	Step    int
	Total   int
	Command device.Command
	Err     error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d of %d (%s): %v", e.Step, e.Total, e.Command, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Execute sends the plan's commands in order and returns how many were
// applied. The first failure stops the plan and is returned as a *StepError.
// Nothing is retried.
func Execute(ctx context.Context, s Sender, p Plan) (int, error) {
	total := len(p.Commands)
	for i, cmd := range p.Commands {
		if err := s.Send(ctx, cmd); err != nil {
			return i, &StepError{Step: i + 1, Total: total, Command: cmd, Err: err}
		}
	}
	return total, nil
}
