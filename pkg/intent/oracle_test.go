package intent

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samaysahu/Vox-GPT/pkg/arm"
)

func TestExtractObject(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{name: "bare object", input: `{"joint": "base"}`, want: `{"joint": "base"}`, wantOK: true},
		{name: "surrounding prose", input: "Sure! {\"joint\": \"elbow\", \"value\": 10} Done.", want: `{"joint": "elbow", "value": 10}`, wantOK: true},
		{name: "markdown fence", input: "```json\n{\"joint\": \"wrist\"}\n```", want: `{"joint": "wrist"}`, wantOK: true},
		{name: "first of two", input: `{"a": 1} {"b": 2}`, want: `{"a": 1}`, wantOK: true},
		{name: "nested", input: `x {"a": {"b": 1}} y`, want: `{"a": {"b": 1}}`, wantOK: true},
		{name: "brace in string", input: `{"value": "a } b"}`, want: `{"value": "a } b"}`, wantOK: true},
		{name: "unbalanced", input: `{"joint": "base"`, wantOK: false},
		{name: "none", input: "I cannot help with that.", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractObject(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeAnswer(t *testing.T) {
	tests := []struct {
		name      string
		answer    string
		wantJoint Target
		wantValue any
	}{
		{name: "angle", answer: `{"joint": "base", "value": 40}`, wantJoint: "base", wantValue: 40.0},
		{name: "gripper", answer: `{"joint": "gripper", "value": "closed"}`, wantJoint: "gripper", wantValue: "closed"},
		{name: "emergency", answer: `{"joint": "emergency_stop", "value": null}`, wantJoint: TargetEmergencyStop, wantValue: nil},
		{name: "single quotes", answer: `{'joint': 'elbow', 'value': 120}`, wantJoint: "elbow", wantValue: 120.0},
		{name: "upper case joint", answer: `{"joint": " Wrist ", "value": -30}`, wantJoint: "wrist", wantValue: -30.0},
		{name: "missing value", answer: `{"joint": "emergency_stop"}`, wantJoint: TargetEmergencyStop, wantValue: nil},
		{name: "error", answer: `{"joint": "error", "value": "not about the arm"}`, wantJoint: TargetError, wantValue: "not about the arm"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeAnswer(tt.answer)
			require.NoError(t, err)
			assert.Equal(t, tt.wantJoint, got.Joint)
			assert.Equal(t, tt.wantValue, got.Value)
			assert.Equal(t, SourceOracle, got.Source)
		})
	}
}

func TestDecodeAnswer_Failures(t *testing.T) {
	_, err := DecodeAnswer("no json here")
	assert.ErrorIs(t, err, ErrNoObject)

	_, err = DecodeAnswer(`{"value": 10}`)
	assert.ErrorIs(t, err, ErrMissingJoint)

	_, err = DecodeAnswer(`{"joint": 7}`)
	assert.ErrorIs(t, err, ErrMissingJoint)

	_, err = DecodeAnswer(`{joint: base}`)
	assert.Error(t, err)
}

func TestBuildPrompt(t *testing.T) {
	limits := arm.DefaultLimits()
	limits[arm.Elbow] = arm.Limits{Min: 10, Max: 150}
	reg, err := arm.NewRegistry(limits)
	require.NoError(t, err)

	prompt := BuildPrompt("move elbow to 45 degrees", reg)

	assert.Contains(t, prompt, "- elbow: 10 to 150 degrees")
	assert.Contains(t, prompt, "- base: -180 to 180 degrees")
	assert.Contains(t, prompt, `Instruction: "move elbow to 45 degrees"`)
	assert.True(t, strings.HasSuffix(prompt, "Return only the JSON object.\n"))
}
