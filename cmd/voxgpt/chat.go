package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type ChatCommand struct {
	RemoteOptions
}

func (c *ChatCommand) Execute(args []string) error {
	client, err := c.client()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := tea.NewProgram(newChatModel(ctx, client, client.BaseURL()), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run chat: %w", err)
	}
	return nil
}

type chatClient interface {
	Chat(ctx context.Context, message string) (string, error)
}

var (
	youStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	robotStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)
)

type chatModel struct {
	ctx     context.Context
	client  chatClient
	server  string
	input   textinput.Model
	vp      viewport.Model
	spin    spinner.Model
	waiting bool
	lines   []string
	width   int
	height  int
}

type replyMsg struct {
	text string
	err  error
}

func newChatModel(ctx context.Context, client chatClient, server string) chatModel {
	in := textinput.New()
	in.Placeholder = "move base to 45 degrees, open gripper, help..."
	in.Prompt = "› "
	in.CharLimit = 500
	in.Focus()

	vp := viewport.New(80, 20)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := chatModel{
		ctx:    ctx,
		client: client,
		server: server,
		input:  in,
		vp:     vp,
		spin:   sp,
	}
	m.appendLine(dimStyle.Render("Type 'help' for examples. Esc to quit."))
	return m
}

func (m *chatModel) appendLine(s string) {
	m.lines = append(m.lines, s)
	m.vp.SetContent(strings.Join(m.lines, "\n"))
	m.vp.GotoBottom()
}

func (m chatModel) send(message string) tea.Cmd {
	return func() tea.Msg {
		text, err := m.client.Chat(m.ctx, message)
		return replyMsg{text: text, err: err}
	}
}

func (m chatModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		// header 2 lines, input box 3, help 1, box borders 2
		m.vp.Width = max(msg.Width-4, 20)
		m.vp.Height = max(msg.Height-8, 5)
		m.input.Width = max(msg.Width-8, 20)
		m.vp.SetContent(strings.Join(m.lines, "\n"))
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "pgup":
			m.vp.LineUp(10)
			return m, nil
		case "pgdown":
			m.vp.LineDown(10)
			return m, nil
		case "enter":
			if m.waiting {
				return m, nil
			}
			message := m.input.Value()
			m.input.Reset()
			m.waiting = true
			m.appendLine(dimStyle.Render(time.Now().Format("15:04:05")) + " " + youStyle.Render("You:") + " " + message)
			return m, tea.Batch(m.send(message), m.spin.Tick)
		}

	case replyMsg:
		m.waiting = false
		if msg.err != nil {
			m.appendLine(errorStyle.Render("Relay error: " + msg.err.Error()))
			return m, nil
		}
		m.appendLine(robotStyle.Render("Arm:") + " " + msg.text)
		return m, nil

	case spinner.TickMsg:
		if m.waiting {
			var cmd tea.Cmd
			m.spin, cmd = m.spin.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m chatModel) View() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("voxgpt Chat"))
	sb.WriteString(statusStyle.Render(" - " + m.server))
	if m.waiting {
		sb.WriteString(" " + m.spin.View() + " moving…")
	}
	sb.WriteString("\n")

	sb.WriteString(boxStyle.Render(m.vp.View()))
	sb.WriteString("\n")
	sb.WriteString(boxStyle.Render(m.input.View()))
	sb.WriteString("\n")
	sb.WriteString(statusStyle.Render("Enter = send • PgUp/PgDn = scroll • Esc = quit"))
	return sb.String()
}
