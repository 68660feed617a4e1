package controller

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "labtest.dev/pkg/labtest/internal/model"
)

func newCapturedUI() (*SimpleUI, *bytes.Buffer) {
	out := &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(out)

	return NewSimpleUI(cmd), out
}

func TestSimpleUI_DisplayGeneration(t *testing.T) {
	ui, out := newCapturedUI()

	err := ui.DisplayGeneration(context.Background(), []m.GenerationRecord{
		{
			Script:   "scripts/install-docker.ps1",
			TestFile: "scripts/install-docker.Tests.ps1",
			Category: m.CategoryInstaller,
			Platform: m.PlatformWindows,
			Outcome:  "created",
		},
		{
			Script:   "scripts/enable-ssh.ps1",
			TestFile: "scripts/enable-ssh.Tests.ps1",
			Category: m.CategoryService,
			Platform: m.PlatformLinux,
			Outcome:  "exists",
		},
	})
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "install-docker.ps1")
	assert.Contains(t, text, "created")
	assert.Contains(t, text, "exists")
	assert.Contains(t, text, "Written 1")
}

func TestSimpleUI_DisplayGenerationPrintsDiff(t *testing.T) {
	ui, out := newCapturedUI()

	err := ui.DisplayGeneration(context.Background(), []m.GenerationRecord{
		{
			Script:   "a.ps1",
			TestFile: "a.Tests.ps1",
			Outcome:  "overwritten",
			Diff:     "-old line\n+new line\n",
		},
	})
	require.NoError(t, err)

	assert.Contains(t, out.String(), "-old line")
	assert.Contains(t, out.String(), "Diff for a.Tests.ps1")
}

func TestSimpleUI_DisplayGenerationEmpty(t *testing.T) {
	ui, out := newCapturedUI()

	require.NoError(t, ui.DisplayGeneration(context.Background(), nil))

	assert.Contains(t, out.String(), "No scripts processed.")
}

func TestSimpleUI_DisplayScriptList(t *testing.T) {
	ui, out := newCapturedUI()

	err := ui.DisplayScriptList(context.Background(), []m.ScriptAnalysis{
		{
			Script:          "install-docker.ps1",
			Category:        m.CategoryInstaller,
			Platform:        m.PlatformWindows,
			RequiresAdmin:   true,
			EnabledProperty: "InstallDocker",
		},
	})
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "install-docker.ps1")
	assert.Contains(t, text, "installer")
	assert.Contains(t, text, "InstallDocker")
	assert.Contains(t, text, "yes")
}

func TestSimpleUI_DisplayRunSummary(t *testing.T) {
	ui, out := newCapturedUI()

	err := ui.DisplayRunSummary(context.Background(), m.TestReport{
		Total:    2,
		Passed:   1,
		Failed:   1,
		PassRate: 0.5,
		Categories: []m.CategoryStats{
			{Category: m.CategoryInstaller, Total: 2, Passed: 1, Failed: 1, PassRate: 0.5},
		},
		Results: []m.TestResult{
			{TestFile: "a.Tests.ps1", Category: m.CategoryInstaller, Success: true, Passed: 3},
			{TestFile: "b.Tests.ps1", Category: m.CategoryInstaller, Failed: 1, Error: "boom"},
		},
	})
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "Pass rate: 50.0%")
	assert.Contains(t, text, "Failed: b.Tests.ps1 (boom)")
	assert.Contains(t, text, "installer")
}

func TestSimpleUI_DisplayReport(t *testing.T) {
	ui, out := newCapturedUI()

	err := ui.DisplayReport(context.Background(), m.TestReport{
		Results: []m.TestResult{
			{TestFile: "a.Tests.ps1", Category: m.CategoryService, Success: true, Passed: 2},
			{TestFile: "b.Tests.ps1", Category: m.CategoryService, SkipReason: "requires platform linux"},
		},
	})
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "[PASSED] a.Tests.ps1")
	assert.Contains(t, text, "[SKIPPED] b.Tests.ps1")
	assert.Contains(t, text, "requires platform linux")
}

func TestSimpleUI_CancelledContext(t *testing.T) {
	ui, out := newCapturedUI()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, ui.DisplayRunSummary(ctx, m.TestReport{}))
	assert.Empty(t, out.String())
}

func TestNewUI_SelectsImplementation(t *testing.T) {
	cmd := &cobra.Command{}

	assert.IsType(t, &TUI{}, NewUI(cmd, true))
	assert.IsType(t, &SimpleUI{}, NewUI(cmd, false))
}
