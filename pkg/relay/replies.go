package relay

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/samaysahu/Vox-GPT/pkg/arm"
)

// EmptyMessage is the reply to blank input.
const EmptyMessage = "Please provide a command or type 'help' for examples."

var greetings = map[string]string{
	"hello":       "Hello! I'm here to control your robotic arm. Try a command like 'move base to 45 degrees' or type 'help' for more examples.",
	"hi":          "Hi there! Ready to move the robotic arm? Try 'close gripper' or 'move shoulder to 90 degrees' to get started!",
	"how are you": "I'm doing great, thanks for asking! I'm all set to control your robotic arm. Try 'open gripper' or 'emergency stop' to see me in action!",
}

// helpPattern matches the help phrases as whole words, so "show to" or
// "helpful" do not count.
var helpPattern = regexp.MustCompile(`\b(help|what can i do|how to)\b`)

var exampleCommands = []string{
	"move base to 45 degrees",
	"move shoulder to 90 degrees",
	"move elbow to 120 degrees",
	"move wrist to -30 degrees",
	"open gripper",
	"close gripper",
	"emergency stop",
}

// greeting returns the canned reply for an exact greeting.
func greeting(lower string) (string, bool) {
	reply, ok := greetings[lower]
	return reply, ok
}

func isHelpRequest(lower string) bool {
	return helpPattern.MatchString(lower)
}

// helpText lists the example commands and the configured joint ranges.
func helpText(reg *arm.Registry) string {
	var sb strings.Builder
	sb.WriteString("This chatbot is designed to control a robotic arm. Try these example commands:\n")
	for i, cmd := range exampleCommands {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "- %s", cmd)
	}
	sb.WriteString("\n\n")

	limit := func(j arm.JointName) arm.Limits {
		l, _ := reg.Limits(j)
		return l
	}
	base, shoulder := limit(arm.Base), limit(arm.Shoulder)
	if base == limit(arm.Wrist) && shoulder == limit(arm.Elbow) {
		fmt.Fprintf(&sb, "Joints (base, wrist) range: %s degrees. Shoulder, elbow range: %s degrees.", base, shoulder)
		return sb.String()
	}
	for i, j := range arm.AngleJoints() {
		if i > 0 {
			sb.WriteString(" ")
		}
		fmt.Fprintf(&sb, "%s range: %s degrees.", j.Title(), limit(j))
	}
	return sb.String()
}

func success(msg string) string {
	return "✅ " + msg
}

func failure(msg string) string {
	return "❌ " + msg
}
