package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/samaysahu/Vox-GPT/pkg/journal"
)

type HistoryCommand struct {
	Limit int  `short:"n" long:"limit" default:"20" description:"Number of entries to show"`
	JSON  bool `long:"json" description:"Print entries as JSON lines"`
}

func (c *HistoryCommand) Execute(args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Journal.Path == "" {
		return errors.New("journal is disabled (journal.path is empty)")
	}
	if cfg.Journal.Path != ":memory:" {
		if _, err := os.Stat(cfg.Journal.Path); err != nil {
			return fmt.Errorf("no history at %s: run 'voxgpt serve' first", cfg.Journal.Path)
		}
	}

	j, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		return err
	}
	defer j.Close()

	entries, err := j.Recent(context.Background(), c.Limit)
	if err != nil {
		return err
	}

	if c.JSON {
		enc := json.NewEncoder(os.Stdout)
		for _, e := range entries {
			if err := enc.Encode(e); err != nil {
				return err
			}
		}
		return nil
	}

	if len(entries) == 0 {
		fmt.Println(dimStyle.Render("No commands recorded yet."))
		return nil
	}
	fmt.Println(renderHistory(entries))
	return nil
}

const maxReplyWidth = 48

func renderHistory(entries []journal.Entry) string {
	tableHeaderStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	tableTimeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Padding(0, 1)
	tableCellStyle := lipgloss.NewStyle().Padding(0, 1)
	tableOKStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Padding(0, 1)
	tableErrorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Padding(0, 1)

	rows := make([][]string, 0, len(entries))
	statuses := make([]string, 0, len(entries))
	for _, e := range entries {
		statuses = append(statuses, e.Status)
		rows = append(rows, []string{
			e.Time.Local().Format("01-02 15:04:05"),
			e.Kind,
			truncate(e.Message, maxReplyWidth),
			intentLabel(e),
			fmt.Sprintf("%d/%d", e.Applied, e.Planned),
			e.Status,
			truncate(strings.ReplaceAll(e.Reply, "\n", " "), maxReplyWidth),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("Time", "Kind", "Message", "Intent", "Steps", "Status", "Reply").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			switch col {
			case 0:
				return tableTimeStyle
			case 5:
				if row >= 0 && row < len(statuses) && statuses[row] == "error" {
					return tableErrorStyle
				}
				return tableOKStyle
			default:
				return tableCellStyle
			}
		})

	return t.Render()
}

func intentLabel(e journal.Entry) string {
	if e.Target == "" {
		return "-"
	}
	label := e.Target
	if e.Value != "" {
		label += "=" + e.Value
	}
	if e.Source != "" {
		label += " (" + e.Source + ")"
	}
	return label
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
