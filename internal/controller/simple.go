package controller

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	m "labtest.dev/pkg/labtest/internal/model"
)

// SimpleUI implements UI using cobra Command's output stream.
type SimpleUI struct {
	cmd *cobra.Command
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{cmd: cmd}
}

// Start initializes the UI.
func (s *SimpleUI) Start(ctx context.Context, _ ...StartOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return nil
}

// Close finalizes the UI.
func (s *SimpleUI) Close(ctx context.Context) {
	if err := ctx.Err(); err != nil {
		return
	}
}

// Wait blocks until the UI is closed (no-op for SimpleUI).
func (s *SimpleUI) Wait(ctx context.Context) {
	if err := ctx.Err(); err != nil {
		return
	}
	// SimpleUI doesn't block - it just prints and continues
}

// DisplayGeneration prints one line per processed script plus any diffs
// produced by forced regeneration.
func (s *SimpleUI) DisplayGeneration(ctx context.Context, records []m.GenerationRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if len(records) == 0 {
		s.printf("No scripts processed.\n")
		return nil
	}

	s.printf("\n%s", renderGenerationTable(records))

	for _, record := range records {
		if record.Diff == "" {
			continue
		}

		s.printf("\nDiff for %s:\n%s\n", record.TestFile, record.Diff)
	}

	return nil
}

func renderGenerationTable(records []m.GenerationRecord) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Script", "Category", "Platform", "Test File", "Outcome"})
	table.SetBorder(false)
	table.SetCenterSeparator("")

	created := 0

	for _, record := range records {
		table.Append([]string{
			string(record.Script),
			string(record.Category),
			string(record.Platform),
			string(record.TestFile),
			record.Outcome,
		})

		if record.Outcome == "created" || record.Outcome == "overwritten" {
			created++
		}
	}

	table.SetFooter([]string{
		fmt.Sprintf("Total %d", len(records)), "", "",
		fmt.Sprintf("Written %d", created), "",
	})

	table.Render()

	return tableBuffer.String()
}

// DisplayScriptList prints the classification table for discovered scripts.
func (s *SimpleUI) DisplayScriptList(ctx context.Context, analyses []m.ScriptAnalysis) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if len(analyses) == 0 {
		s.printf("No scripts found.\n")
		return nil
	}

	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Script", "Category", "Platform", "Admin", "Functions", "Flag"})
	table.SetBorder(false)
	table.SetCenterSeparator("")

	for _, analysis := range analyses {
		admin := ""
		if analysis.RequiresAdmin {
			admin = "yes"
		}

		table.Append([]string{
			string(analysis.Script),
			string(analysis.Category),
			string(analysis.Platform),
			admin,
			strconv.Itoa(len(analysis.Functions)),
			analysis.EnabledProperty,
		})
	}

	table.SetFooter([]string{
		fmt.Sprintf("Total %d", len(analyses)), "", "", "", "", "",
	})

	table.Render()

	s.printf("\n%s", tableBuffer.String())

	return nil
}

// DisplayRunSummary prints the per-category table and the overall pass
// rate after a run.
func (s *SimpleUI) DisplayRunSummary(ctx context.Context, report m.TestReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("\n%s", renderCategoryTable(report))

	for _, result := range report.Results {
		if result.Status() != m.StatusFailed {
			continue
		}

		s.printf("Failed: %s", result.TestFile)

		if result.Error != "" {
			s.printf(" (%s)", result.Error)
		}

		s.printf("\n")
	}

	s.printf("Pass rate: %.1f%% (%d/%d executed, %d skipped, %d ms)\n",
		report.PassRate*100, report.Passed, report.Total, report.Skipped, report.DurationMS)

	return nil
}

func renderCategoryTable(report m.TestReport) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Category", "Total", "Passed", "Failed", "Skipped"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_CENTER, tablewriter.ALIGN_CENTER,
		tablewriter.ALIGN_CENTER, tablewriter.ALIGN_CENTER,
	})

	for _, stats := range report.Categories {
		table.Append([]string{
			string(stats.Category),
			strconv.Itoa(stats.Total),
			strconv.Itoa(stats.Passed),
			strconv.Itoa(stats.Failed),
			strconv.Itoa(stats.Skipped),
		})
	}

	table.SetFooter([]string{
		"Total",
		strconv.Itoa(report.Total),
		strconv.Itoa(report.Passed),
		strconv.Itoa(report.Failed),
		strconv.Itoa(report.Skipped),
	})

	table.Render()

	return tableBuffer.String()
}

// DisplayReport prints the full per-file result listing.
func (s *SimpleUI) DisplayReport(ctx context.Context, report m.TestReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("Report generated %s\n\n", report.GeneratedAt.Format("2006-01-02 15:04:05 MST"))

	for _, result := range report.Results {
		detail := result.Error
		if result.SkipReason != "" {
			detail = result.SkipReason
		}

		line := fmt.Sprintf("[%s] %s (%s) passed=%d failed=%d %dms",
			strings.ToUpper(result.Status().String()), result.TestFile,
			result.Category, result.Passed, result.Failed, result.DurationMS)

		if detail != "" {
			line += " - " + detail
		}

		s.printf("%s\n", line)
	}

	s.printf("\n%s", renderCategoryTable(report))
	s.printf("Pass rate: %.1f%%\n", report.PassRate*100)

	return nil
}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}
