package controller

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	m "labtest.dev/pkg/labtest/internal/model"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")).Padding(0, 1)
	passedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	skippedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Padding(0, 1)
)

// TUI implements UI with an interactive Bubble Tea report browser. The
// table methods fall through to SimpleUI; only DisplayReport is
// interactive.
type TUI struct {
	*SimpleUI

	output io.Writer
}

// NewTUI creates a new TUI writing to the command's output stream.
func NewTUI(cmd *cobra.Command) *TUI {
	return &TUI{
		SimpleUI: NewSimpleUI(cmd),
		output:   cmd.OutOrStdout(),
	}
}

// DisplayReport shows the report in a scrollable viewport. Reports short
// enough to fit a default screen are printed directly.
func (t *TUI) DisplayReport(ctx context.Context, report m.TestReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	model := newReportModel(report)

	if len(model.lines) <= defaultPageSize {
		_, err := fmt.Fprint(t.output, model.plainView())
		return err
	}

	program := tea.NewProgram(model, tea.WithOutput(t.output), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return err
	}

	return nil
}

const defaultPageSize = 20

// reportModel is the Bubble Tea model for browsing a test report.
type reportModel struct {
	report   m.TestReport
	lines    []string
	viewport viewport.Model
	ready    bool
}

func newReportModel(report m.TestReport) reportModel {
	return reportModel{
		report: report,
		lines:  buildReportLines(report),
	}
}

func buildReportLines(report m.TestReport) []string {
	lines := make([]string, 0, len(report.Results)+len(report.Categories)+4)

	for _, stats := range report.Categories {
		lines = append(lines, fmt.Sprintf("%s: %d total, %s, %s, %s",
			stats.Category, stats.Total,
			passedStyle.Render(fmt.Sprintf("%d passed", stats.Passed)),
			failedStyle.Render(fmt.Sprintf("%d failed", stats.Failed)),
			skippedStyle.Render(fmt.Sprintf("%d skipped", stats.Skipped))))
	}

	lines = append(lines, "")

	for _, result := range report.Results {
		lines = append(lines, formatResultLine(result))
	}

	return lines
}

func formatResultLine(result m.TestResult) string {
	var (
		marker string
		detail string
	)

	switch result.Status() {
	case m.StatusPassed:
		marker = passedStyle.Render("✓")
	case m.StatusFailed:
		marker = failedStyle.Render("✗")
		detail = result.Error
	case m.StatusSkipped:
		marker = skippedStyle.Render("-")
		detail = result.SkipReason
	}

	line := fmt.Sprintf("%s %s (%s) passed=%d failed=%d %dms",
		marker, result.TestFile, result.Category,
		result.Passed, result.Failed, result.DurationMS)

	if detail != "" {
		line += " " + skippedStyle.Render(detail)
	}

	return line
}

func (rm reportModel) headerView() string {
	return titleStyle.Render(fmt.Sprintf("labtest report — %d executed, %d passed, %d failed, %d skipped (%.1f%%)",
		rm.report.Total, rm.report.Passed, rm.report.Failed, rm.report.Skipped, rm.report.PassRate*100))
}

func (rm reportModel) footerView() string {
	return helpStyle.Render("↑/k: up | ↓/j: down | pgup/pgdn | q: quit")
}

func (rm reportModel) plainView() string {
	var b strings.Builder

	b.WriteString(rm.headerView())
	b.WriteString("\n\n")
	b.WriteString(strings.Join(rm.lines, "\n"))
	b.WriteString("\n")

	return b.String()
}

func (rm reportModel) Init() tea.Cmd {
	return nil
}

func (rm reportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		chrome := lipgloss.Height(rm.headerView()) + lipgloss.Height(rm.footerView())

		if !rm.ready {
			rm.viewport = viewport.New(msg.Width, msg.Height-chrome)
			rm.viewport.SetContent(strings.Join(rm.lines, "\n"))
			rm.ready = true
		} else {
			rm.viewport.Width = msg.Width
			rm.viewport.Height = msg.Height - chrome
		}

		return rm, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return rm, tea.Quit
		}
	}

	var cmd tea.Cmd
	rm.viewport, cmd = rm.viewport.Update(msg)

	return rm, cmd
}

func (rm reportModel) View() string {
	if !rm.ready {
		return "loading report..."
	}

	return fmt.Sprintf("%s\n%s\n%s", rm.headerView(), rm.viewport.View(), rm.footerView())
}
