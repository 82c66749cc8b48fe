package main

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samaysahu/Vox-GPT/pkg/arm"
	"github.com/samaysahu/Vox-GPT/pkg/device"
	"github.com/samaysahu/Vox-GPT/pkg/journal"
	"github.com/samaysahu/Vox-GPT/pkg/server"
	"github.com/samaysahu/Vox-GPT/pkg/teleop"
)

type fakeChat struct {
	reply string
	err   error
	got   []string
}

func (f *fakeChat) Chat(_ context.Context, message string) (string, error) {
	f.got = append(f.got, message)
	return f.reply, f.err
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// firstReply runs cmd and returns the first replyMsg it produces.
func firstReply(t *testing.T, cmd tea.Cmd) replyMsg {
	t.Helper()
	require.NotNil(t, cmd)
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			if c == nil {
				continue
			}
			if r, ok := c().(replyMsg); ok {
				return r
			}
		}
	}
	r, ok := msg.(replyMsg)
	require.True(t, ok, "no reply in %T", msg)
	return r
}

func TestChatModel_SendAndReply(t *testing.T) {
	client := &fakeChat{reply: "✅ Gripper is now open"}
	m := newChatModel(context.Background(), client, "http://localhost:5000")

	m.input.SetValue("open the gripper")
	next, cmd := m.Update(keyMsg("enter"))
	m = next.(chatModel)
	assert.True(t, m.waiting)
	assert.Empty(t, m.input.Value())

	next, _ = m.Update(firstReply(t, cmd))
	m = next.(chatModel)
	assert.False(t, m.waiting)
	assert.Equal(t, []string{"open the gripper"}, client.got)
	assert.Contains(t, m.lines[len(m.lines)-1], "✅ Gripper is now open")
	assert.Contains(t, m.View(), "voxgpt Chat")
}

func TestChatModel_ErrorAndQuit(t *testing.T) {
	m := newChatModel(context.Background(), &fakeChat{}, "srv")

	next, _ := m.Update(replyMsg{err: errors.New("connection refused")})
	m = next.(chatModel)
	assert.Contains(t, m.lines[len(m.lines)-1], "Relay error: connection refused")

	_, cmd := m.Update(keyMsg("esc"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

type fakeRemote struct {
	commands chan device.Command
}

func (f *fakeRemote) Telemetry(context.Context) (device.Telemetry, error) {
	return device.Telemetry{}, nil
}

func (f *fakeRemote) Command(_ context.Context, cmd device.Command) (server.CommandResponse, error) {
	f.commands <- cmd
	return server.CommandResponse{Status: "ok", Response: "done"}, nil
}

func TestKeyCommands_CoverEveryCommand(t *testing.T) {
	seen := make(map[device.Command]bool)
	for _, cmd := range keyCommands {
		seen[cmd] = true
	}
	for _, cmd := range device.AllCommands() {
		assert.True(t, seen[cmd], "no key for %s", cmd)
	}
}

func TestMonitorModel(t *testing.T) {
	remote := &fakeRemote{commands: make(chan device.Command, 1)}
	ctrl, err := teleop.NewController(teleop.Config{Remote: remote})
	require.NoError(t, err)
	m := initialMonitorModel(context.Background(), ctrl, "http://localhost:5000")

	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	m = next.(monitorModel)

	state := teleop.State{
		Angles:    map[arm.JointName]int{arm.Base: 45},
		Positions: map[arm.JointName]float64{arm.Base: 25},
		Gripper:   arm.Closed,
		Timestamp: time.Now(),
	}
	next, _ = m.Update(stateMsg(state))
	m = next.(monitorModel)
	assert.Equal(t, 45, m.lastAngles[arm.Base])
	assert.False(t, m.hasMovement(state))
	assert.Contains(t, m.View(), "base 45°")
	assert.Contains(t, m.View(), "gripper closed")

	_, cmd := m.Update(keyMsg("a"))
	require.NotNil(t, cmd)
	cmd()
	assert.Equal(t, device.WaistLeft, <-remote.commands)

	_, cmd = m.Update(keyMsg("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestRenderHistory(t *testing.T) {
	out := renderHistory([]journal.Entry{
		{Time: time.Now(), Message: "move base to 100", Kind: "command", Target: "base", Value: "100", Source: "keywords", Planned: 2, Applied: 2, Status: "ok", Reply: "✅ Moved base to 100 degrees"},
		{Time: time.Now(), Message: "hello", Kind: "greeting", Status: "ok", Reply: "✅ Hello!\nHow can I help?"},
	})
	assert.Contains(t, out, "base=100 (keywords)")
	assert.Contains(t, out, "2/2")
	assert.Contains(t, out, "greeting")
	assert.NotContains(t, out, "Hello!\n")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
	assert.Equal(t, 5, len([]rune(truncate(strings.Repeat("é", 9), 5))))
}

func TestValidateURL(t *testing.T) {
	for _, ok := range []string{"http://192.168.29.247", "192.168.29.247", "localhost:8081"} {
		assert.NoError(t, validateURL(ok), ok)
	}
	for _, bad := range []string{"", "   ", "http://"} {
		assert.Error(t, validateURL(bad), bad)
	}
}

func TestRenderTelemetry(t *testing.T) {
	base := 45
	out := renderTelemetry(device.Telemetry{BaseAngle: &base, GripperState: "Open", BoardType: "ESP32"}, arm.DefaultLimits())
	assert.Contains(t, out, "45")
	assert.Contains(t, out, "-180 to 180")
	assert.Contains(t, out, "open")
	assert.Contains(t, out, "ESP32")
}
