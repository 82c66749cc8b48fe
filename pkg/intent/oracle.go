package intent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/samaysahu/Vox-GPT/pkg/arm"
)

// Oracle is an external natural-language classifier. Implementations may be
// slow, fail, or return free text; callers must be ready to fall back.
type Oracle interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// OracleFunc adapts a function to the Oracle interface.
type OracleFunc func(ctx context.Context, prompt string) (string, error)

func (f OracleFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

var (
	// ErrNoObject is returned when an oracle answer contains no JSON object.
	ErrNoObject = errors.New("no JSON object in answer")

	// ErrMissingJoint is returned when the decoded object has no joint key.
	ErrMissingJoint = errors.New("answer has no joint")
)

// LimitSource supplies the configured range of each angle joint.
type LimitSource interface {
	Limits(j arm.JointName) (arm.Limits, error)
}

// BuildPrompt renders the instruction sent to the oracle for one message.
func BuildPrompt(text string, limits LimitSource) string {
	var sb strings.Builder

	sb.WriteString("You translate instructions for a desktop robotic arm into JSON.\n")
	sb.WriteString("The arm has a base, shoulder, elbow and wrist positioned in degrees, and a gripper that is either open or closed.\n")
	for _, j := range arm.AngleJoints() {
		if l, err := limits.Limits(j); err == nil {
			fmt.Fprintf(&sb, "- %s: %d to %d degrees\n", j, l.Min, l.Max)
		}
	}
	sb.WriteString("An emergency stop returns every joint to 90 degrees and opens the gripper.\n\n")

	sb.WriteString(`Answer with a single JSON object with the keys "joint" and "value".`)
	sb.WriteString("\n\"joint\" is one of base, shoulder, elbow, wrist, gripper, emergency_stop or error.\n")
	sb.WriteString("\"value\" is the target angle as an integer, \"open\" or \"closed\" for the gripper, or null for emergency_stop.\n")
	fmt.Fprintf(&sb, "If the instruction is ambiguous or not about the arm, answer {\"joint\": \"error\", \"value\": %q}.\n\n", HelpHint)

	sb.WriteString("Examples:\n")
	sb.WriteString(`"move base to 40 degrees" -> {"joint": "base", "value": 40}` + "\n")
	sb.WriteString(`"close gripper" -> {"joint": "gripper", "value": "closed"}` + "\n")
	sb.WriteString(`"emergency stop" -> {"joint": "emergency_stop", "value": null}` + "\n")
	fmt.Fprintf(&sb, "\"what is my name\" -> {\"joint\": \"error\", \"value\": %q}\n\n", HelpHint)

	fmt.Fprintf(&sb, "Instruction: %q\n", text)
	sb.WriteString("Return only the JSON object.\n")
	return sb.String()
}

// DecodeAnswer extracts an intent from an oracle answer. It takes the first
// balanced {...} object in the text; single-quoted objects are accepted.
func DecodeAnswer(answer string) (Intent, error) {
	obj, ok := extractObject(answer)
	if !ok {
		return Intent{}, ErrNoObject
	}

	fields, err := decodeObject(obj)
	if err != nil {
		return Intent{}, err
	}

	raw, ok := fields["joint"]
	if !ok {
		return Intent{}, ErrMissingJoint
	}
	joint, ok := raw.(string)
	if !ok || strings.TrimSpace(joint) == "" {
		return Intent{}, fmt.Errorf("%w: joint is %v", ErrMissingJoint, raw)
	}

	return Intent{
		Joint:  Target(strings.ToLower(strings.TrimSpace(joint))),
		Value:  fields["value"],
		Source: SourceOracle,
	}, nil
}

func decodeObject(obj string) (map[string]any, error) {
	var fields map[string]any
	err := json.Unmarshal([]byte(obj), &fields)
	if err == nil {
		return fields, nil
	}
	// Some models answer with single-quoted keys and strings.
	if err2 := json.Unmarshal([]byte(strings.ReplaceAll(obj, "'", `"`)), &fields); err2 == nil {
		return fields, nil
	}
	return nil, fmt.Errorf("decode answer: %w", err)
}

// extractObject returns the first balanced brace-delimited object in s,
// ignoring braces inside quoted strings.
func extractObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	var quote byte
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if quote != 0 {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == quote:
				quote = 0
			}
			continue
		}
		switch ch {
		case '"', '\'':
			quote = ch
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
