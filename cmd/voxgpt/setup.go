package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/samaysahu/Vox-GPT/pkg/arm"
	"github.com/samaysahu/Vox-GPT/pkg/config"
	"github.com/samaysahu/Vox-GPT/pkg/device"
)

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	subHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	successStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type SetupCommand struct{}

func (c *SetupCommand) Execute(args []string) error {
	fmt.Println(headerStyle.Render("voxgpt Setup"))
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━"))
	fmt.Println()

	path := configPath()
	cfg, err := loadConfig()
	if err != nil {
		fmt.Println(errorStyle.Render(fmt.Sprintf("Ignoring unreadable config: %v", err)))
		cfg = config.Default()
	} else if config.Exists(path) {
		fmt.Printf("Editing %s\n\n", path)
	}

	// Step 1: Connection settings
	if err := configForm(cfg).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println()
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := cfg.SaveTo(path); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	fmt.Println(successStyle.Render("Configuration saved to " + path))

	// Step 2: Optional controller check
	var check bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Check the arm controller now?").
				Description(cfg.Device.URL).
				Affirmative("Yes").
				Negative("No").
				Value(&check),
		),
	)
	if err := form.Run(); err == nil && check {
		fmt.Println()
		fmt.Println(subHeaderStyle.Render("━━━ Controller telemetry ━━━"))
		fmt.Println()
		if err := checkDevice(context.Background(), cfg); err != nil {
			fmt.Println(errorStyle.Render(err.Error()))
		}
	}

	fmt.Println()
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"))
	fmt.Println(successStyle.Render("Setup complete!"))
	fmt.Println("Start the relay with: " + headerStyle.Render("voxgpt serve"))
	return nil
}

func configForm(cfg *config.Config) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Arm controller URL").
				Description("Base URL of the ESP32 controller").
				Value(&cfg.Device.URL).
				Validate(validateURL),
			huh.NewInput().
				Title("Listen address").
				Description("Where the relay serves its HTTP API").
				Value(&cfg.ListenAddr).
				Validate(notEmpty("listen address")),
			huh.NewInput().
				Title("Journal path").
				Description("SQLite command history; leave empty to disable").
				Value(&cfg.Journal.Path),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Language model").
				Description("Used to interpret messages before the keyword matcher").
				Options(
					huh.NewOption("Gemini", config.ProviderGemini),
					huh.NewOption("None (keywords only)", config.ProviderNone),
				).
				Value(&cfg.Oracle.Provider),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Gemini model").
				Value(&cfg.Oracle.Model).
				Validate(notEmpty("model")),
			huh.NewInput().
				Title("Gemini API key").
				Description("Leave empty to read GEMINI_API_KEY from the environment").
				EchoMode(huh.EchoModePassword).
				Value(&cfg.Oracle.APIKey),
		).WithHideFunc(func() bool {
			return cfg.Oracle.Provider != config.ProviderGemini
		}),
	)
}

func validateURL(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errors.New("URL is required")
	}
	if !strings.Contains(s, "://") {
		s = "http://" + s
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return fmt.Errorf("invalid URL %q", s)
	}
	return nil
}

func notEmpty(what string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", what)
		}
		return nil
	}
}

func checkDevice(ctx context.Context, cfg *config.Config) error {
	dev, err := device.NewClient(device.Config{
		URL:              cfg.Device.URL,
		Timeout:          cfg.Device.Timeout,
		TelemetryTimeout: cfg.Device.TelemetryTimeout,
	})
	if err != nil {
		return err
	}
	t, err := dev.Telemetry(ctx)
	if err != nil {
		var devErr *device.Error
		if errors.As(err, &devErr) {
			return errors.New(devErr.Message())
		}
		return err
	}
	limits, err := cfg.JointLimits()
	if err != nil {
		return err
	}
	fmt.Println(renderTelemetry(t, limits))
	return nil
}

func renderTelemetry(t device.Telemetry, limits map[arm.JointName]arm.Limits) string {
	tableHeaderStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	tableJointStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Padding(0, 1)
	tableCellStyle := lipgloss.NewStyle().Padding(0, 1)
	tableInRangeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Padding(0, 1)
	tableOutOfRangeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Padding(0, 1)

	angles := t.Angles()
	joints := arm.AngleJoints()
	rows := make([][]string, 0, len(joints)+1)
	inRange := make([]bool, 0, len(joints)+1)
	for _, j := range joints {
		l := limits[j]
		a, ok := angles[j]
		angle := "-"
		if ok {
			angle = fmt.Sprintf("%d", a)
		}
		rows = append(rows, []string{string(j), angle, l.String()})
		inRange = append(inRange, ok && l.Contains(a))
	}
	gripper := "-"
	if g, ok := t.Gripper(); ok {
		gripper = string(g)
	}
	rows = append(rows, []string{string(arm.Gripper), gripper, "open/closed"})
	inRange = append(inRange, gripper != "-")

	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("Joint", "Reported", "Range").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			switch col {
			case 0:
				return tableJointStyle
			case 1:
				if row >= 0 && row < len(inRange) && inRange[row] {
					return tableInRangeStyle
				}
				return tableOutOfRangeStyle
			default:
				return tableCellStyle
			}
		})

	var sb strings.Builder
	sb.WriteString(tbl.Render())
	if t.BoardType != "" || t.SystemStatus != "" {
		sb.WriteString("\n")
		sb.WriteString(dimStyle.Render(strings.TrimSpace(t.BoardType + " " + t.SystemStatus)))
	}
	return sb.String()
}
