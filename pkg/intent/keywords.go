package intent

import (
	"errors"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/samaysahu/Vox-GPT/pkg/arm"
)

// RelativeStep is how far "up"/"down" style instructions move a joint.
const RelativeStep = 30

var (
	degreesPattern = regexp.MustCompile(`(-?\d+)\s*degrees?\b`)
	wordPattern    = regexp.MustCompile(`[a-z]+`)

	stopWords     = []string{"emergency", "stop"}
	openWords     = []string{"open", "release"}
	closeWords    = []string{"close", "grip", "grab"}
	increaseWords = []string{"up", "increase", "raise"}
	decreaseWords = []string{"down", "decrease", "lower"}
)

// AngleSource supplies current joint angles.
type AngleSource interface {
	Angle(j arm.JointName) (int, error)
}

// MatchKeywords is the deterministic parser. It never fails: text that
// matches no rule yields an error intent carrying HelpHint. "Up"/"down"
// instructions yield relative intents that are resolved against the tracked
// angle at translation time.
func MatchKeywords(text string) Intent {
	in := matchKeywords(strings.ToLower(text))
	in.Source = SourceKeywords
	return in
}

func matchKeywords(text string) Intent {
	words := wordPattern.FindAllString(text, -1)
	has := func(candidates ...string) bool {
		for _, c := range candidates {
			if slices.Contains(words, c) {
				return true
			}
		}
		return false
	}

	if has(stopWords...) {
		return Stop()
	}

	if has(string(arm.Gripper)) {
		switch {
		case has(openWords...):
			return SetGripper(arm.Open)
		case has(closeWords...):
			return SetGripper(arm.Closed)
		}
	}

	for _, j := range arm.AngleJoints() {
		if !has(string(j)) {
			continue
		}
		if m := degreesPattern.FindStringSubmatch(text); m != nil {
			// Literals beyond int saturate so the translator reports them
			// out of range.
			angle, err := strconv.Atoi(m[1])
			if err == nil || errors.Is(err, strconv.ErrRange) {
				return Move(j, angle)
			}
		}
		switch {
		case has(increaseWords...):
			return Nudge(j, RelativeStep)
		case has(decreaseWords...):
			return Nudge(j, -RelativeStep)
		}
	}

	return Unrecognized(HelpHint)
}
