package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/NimbleMarkets/ntcharts/canvas/runes"
	"github.com/NimbleMarkets/ntcharts/linechart/streamlinechart"

	"github.com/samaysahu/Vox-GPT/pkg/arm"
	"github.com/samaysahu/Vox-GPT/pkg/device"
	"github.com/samaysahu/Vox-GPT/pkg/teleop"
)

type MonitorCommand struct {
	RemoteOptions
	Hz int `long:"hz" default:"2" description:"Telemetry polling frequency"`
}

const (
	headerHeight = 2 // title + blank line
	legendHeight = 3 // legend row + key help + blank
	footerHeight = 7 // log box height
	maxLogs      = 5 // number of log messages to show
	borderSize   = 2 // chart border
)

// Joint colors - distinct colors for each joint
var jointColors = map[arm.JointName]string{
	arm.Base:     "196", // red
	arm.Shoulder: "208", // orange
	arm.Elbow:    "226", // yellow
	arm.Wrist:    "46",  // green
	arm.Gripper:  "201", // magenta
}

// keyCommands maps keys to single-step jog commands.
var keyCommands = map[string]device.Command{
	"a": device.WaistLeft,
	"d": device.WaistRight,
	"w": device.ShoulderUp,
	"s": device.ShoulderDown,
	"i": device.ElbowUp,
	"k": device.ElbowDown,
	"j": device.WristLeft,
	"l": device.WristRight,
	"g": device.GripperToggle,
	"x": device.EmergencyStop,
}

const keyHelp = "a/d base  w/s shoulder  i/k elbow  j/l wrist  g gripper  x emergency stop  q quit"

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	chartStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type monitorModel struct {
	ctx        context.Context
	ctrl       *teleop.Controller
	server     string
	chart      *streamlinechart.Model
	width      int      // terminal width
	height     int      // terminal height
	logs       []string // last N log messages
	quitting   bool
	last       teleop.State
	lastAngles map[arm.JointName]int
	lastGrip   arm.GripperState
}

func (m *monitorModel) addLog(msg string) {
	m.logs = append(m.logs, msg)
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

// hasMovement checks if any joint has changed since the last state.
func (m *monitorModel) hasMovement(s teleop.State) bool {
	if m.lastAngles == nil {
		return true
	}
	if s.Gripper != m.lastGrip {
		return true
	}
	for name, a := range s.Angles {
		if last, ok := m.lastAngles[name]; !ok || a != last {
			return true
		}
	}
	return false
}

// Messages from the controller
type stateMsg teleop.State
type logMsg string

func waitForState(ctrl *teleop.Controller) tea.Cmd {
	return func() tea.Msg {
		return stateMsg(<-ctrl.States())
	}
}

func waitForLog(ctrl *teleop.Controller) tea.Cmd {
	return func() tea.Msg {
		return logMsg(<-ctrl.Logs())
	}
}

func jog(ctx context.Context, ctrl *teleop.Controller, cmd device.Command) tea.Cmd {
	return func() tea.Msg {
		ctrl.Jog(ctx, cmd)
		return nil
	}
}

// chartSize calculates the size of the chart based on terminal dimensions
func (m *monitorModel) chartSize() (width, height int) {
	if m.width == 0 || m.height == 0 {
		return 80, 20 // default size before we know terminal size
	}
	width = max(m.width-borderSize-2, 40)
	height = max(m.height-headerHeight-legendHeight-footerHeight-borderSize, 10)
	return width, height
}

func (m *monitorModel) resizeChart() {
	w, h := m.chartSize()
	m.chart.Resize(w, h)
}

func initialMonitorModel(ctx context.Context, ctrl *teleop.Controller, server string) monitorModel {
	chart := streamlinechart.New(80, 20,
		streamlinechart.WithYRange(-100, 100),
	)

	for _, name := range arm.AllJoints() {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(jointColors[name]))
		chart.SetDataSetStyles(string(name), runes.ThinLineStyle, style)
	}

	return monitorModel{
		ctx:    ctx,
		ctrl:   ctrl,
		server: server,
		chart:  &chart,
	}
}

func (m monitorModel) Init() tea.Cmd {
	return tea.Batch(
		waitForState(m.ctrl),
		waitForLog(m.ctrl),
	)
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeChart()
		return m, nil

	case tea.KeyMsg:
		key := msg.String()
		switch key {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}
		if cmd, ok := keyCommands[key]; ok {
			return m, jog(m.ctx, m.ctrl, cmd)
		}

	case stateMsg:
		state := teleop.State(msg)
		m.last = state
		if state.Error == nil && m.hasMovement(state) {
			for name, pos := range state.Positions {
				m.chart.PushDataSet(string(name), pos)
			}
			m.chart.PushDataSet(string(arm.Gripper), gripperPosition(state.Gripper))
			m.chart.DrawAll()
			m.lastAngles = state.Angles
			m.lastGrip = state.Gripper
		}
		return m, waitForState(m.ctrl)

	case logMsg:
		m.addLog(string(msg))
		return m, waitForLog(m.ctrl)
	}

	return m, nil
}

// gripperPosition charts closed at the top and open at the bottom.
func gripperPosition(g arm.GripperState) float64 {
	if g == arm.Closed {
		return 100
	}
	return -100
}

func (m monitorModel) View() string {
	if m.quitting {
		return "Monitor stopped.\n"
	}

	var sb strings.Builder

	// Header
	sb.WriteString(titleStyle.Render("voxgpt Monitor"))
	sb.WriteString(fmt.Sprintf(" - %s @ %d Hz", m.server, m.ctrl.Hz()))
	if m.width > 0 {
		sb.WriteString(statusStyle.Render(fmt.Sprintf("  [%dx%d]", m.width, m.height)))
	}
	if m.last.Error != nil {
		sb.WriteString("  " + errorStyle.Render("telemetry unavailable"))
	}
	sb.WriteString("\n\n")

	// Chart
	sb.WriteString(chartStyle.Render(m.chart.View()))
	sb.WriteString("\n")

	// Legend
	sb.WriteString(renderLegend(m.lastAngles, m.lastGrip))
	sb.WriteString("\n")
	sb.WriteString(statusStyle.Render(keyHelp))
	sb.WriteString("\n")

	// Log box
	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Width(max(m.width-4, 20))

	var logLines string
	if len(m.logs) == 0 {
		logLines = statusStyle.Render("Waiting for telemetry...")
	} else {
		logLines = strings.Join(m.logs, "\n")
	}
	sb.WriteString(logStyle.Render(logLines))
	sb.WriteString("\n")

	return sb.String()
}

// renderLegend shows each joint's color and its latest reading.
func renderLegend(angles map[arm.JointName]int, gripper arm.GripperState) string {
	var items []string
	for _, name := range arm.AllJoints() {
		colorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(jointColors[name])).Bold(true)
		label := string(name)
		if name == arm.Gripper {
			if gripper != "" {
				label += " " + string(gripper)
			}
		} else if a, ok := angles[name]; ok {
			label += fmt.Sprintf(" %d°", a)
		}
		items = append(items, colorStyle.Render("━━")+" "+label)
	}
	return strings.Join(items, "  ")
}

func (c *MonitorCommand) Execute(args []string) error {
	client, err := c.client()
	if err != nil {
		return err
	}

	// The relay knows its configured ranges; nil falls back to the factory ones.
	var limits map[arm.JointName]arm.Limits
	if state, err := client.State(context.Background()); err == nil {
		limits = state.Limits
	} else {
		fmt.Fprintf(os.Stderr, "%s\n", errorStyle.Render(fmt.Sprintf("relay not reachable: %v", err)))
	}

	ctrl, err := teleop.NewController(teleop.Config{
		Remote: client,
		Limits: limits,
		Hz:     c.Hz,
	})
	if err != nil {
		return fmt.Errorf("create controller: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := ctrl.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "Controller error: %v\n", err)
		}
	}()

	p := tea.NewProgram(initialMonitorModel(ctx, ctrl, client.BaseURL()), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run monitor: %w", err)
	}
	return nil
}
