// Package controller provides output adapters for displaying generation
// and test-run results.
package controller

import (
	"context"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	m "labtest.dev/pkg/labtest/internal/model"
)

// StartMode defines the mode of operation for the UI.
type StartMode int

// Available StartMode values.
const (
	ModeSummary StartMode = iota
	ModeBrowse
)

// StartOption is a functional option for the Start method.
type StartOption func(*StartConfig)

// StartConfig holds configuration for starting the UI.
type StartConfig struct {
	mode StartMode
}

// WithSummaryMode sets the UI to print-and-exit summary mode.
func WithSummaryMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeSummary
	}
}

// WithBrowseMode sets the UI to interactive report browsing mode.
func WithBrowseMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeBrowse
	}
}

// UI defines the interface for displaying generation and run output.
// Implementations can use different output methods (simple text, TUI, etc).
type UI interface {
	Start(ctx context.Context, options ...StartOption) error
	Close(ctx context.Context)
	Wait(ctx context.Context) // Wait for UI to finish (user closes it)
	DisplayGeneration(ctx context.Context, records []m.GenerationRecord) error
	DisplayScriptList(ctx context.Context, analyses []m.ScriptAnalysis) error
	DisplayRunSummary(ctx context.Context, report m.TestReport) error
	DisplayReport(ctx context.Context, report m.TestReport) error
}

// NewUI selects the interactive TUI when attached to a terminal and the
// plain SimpleUI otherwise.
func NewUI(cmd *cobra.Command, interactive bool) UI {
	if interactive {
		return NewTUI(cmd)
	}

	return NewSimpleUI(cmd)
}

// IsTTY reports whether the writer is an interactive terminal. The view
// command uses this to decide between the TUI browser and plain text.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
