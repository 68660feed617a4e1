package adapter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

// PesterRunOptions controls optional artifacts for one test execution.
type PesterRunOptions struct {
	// ResultsPath, when set, makes Pester write its native NUnit result
	// XML to this path.
	ResultsPath string
	// CoveragePath, when set, enables code coverage with output at this
	// path.
	CoveragePath string
}

// PesterRun is the raw outcome of executing one test file.
type PesterRun struct {
	Output   string
	Passed   int
	Failed   int
	Skipped  int
	ExitCode int
}

// TestRunnerAdapter abstracts test execution for generated Pester files.
// The engine itself (Pester under pwsh) is consumed, never reimplemented.
type TestRunnerAdapter interface {
	// RunPesterFile runs one test file and returns the parsed outcome.
	// The error is non-nil only for execution-level failures (missing
	// pwsh, timeout, unparsable output); assertion failures are reported
	// through the Failed count.
	RunPesterFile(ctx context.Context, workDir, testFile string, opts PesterRunOptions) (PesterRun, error)
}

// LocalPesterAdapter provides a concrete implementation using os/exec.
type LocalPesterAdapter struct {
	shell string
}

// NewLocalPesterAdapter constructs a LocalPesterAdapter invoking pwsh.
func NewLocalPesterAdapter() *LocalPesterAdapter {
	return &LocalPesterAdapter{shell: "pwsh"}
}

// summaryPattern matches the Pester console summary line, e.g.
// "Tests Passed: 4, Failed: 1, Skipped: 2 NotRun: 0".
var summaryPattern = regexp.MustCompile(`Tests Passed:\s*(\d+),\s*Failed:\s*(\d+)(?:,\s*Skipped:\s*(\d+))?`)

// RunPesterFile runs Invoke-Pester on a single test file. Cancellation and
// timeout come from the context; a timed-out run kills the pwsh process
// and returns the context error.
func (a *LocalPesterAdapter) RunPesterFile(ctx context.Context, workDir, testFile string, opts PesterRunOptions) (PesterRun, error) {
	cmd := exec.CommandContext(ctx, a.shell,
		"-NoProfile", "-NonInteractive", "-Command", buildInvocation(testFile, opts))
	cmd.Dir = workDir

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	output := stdout.String() + stderr.String()

	if ctxErr := ctx.Err(); ctxErr != nil {
		return PesterRun{Output: output}, fmt.Errorf("pester run: %w", ctxErr)
	}

	run, parseErr := ParsePesterOutput(output)
	run.Output = output

	var exitErr *exec.ExitError

	switch {
	case runErr == nil:
		return run, nil
	case errors.As(runErr, &exitErr):
		run.ExitCode = exitErr.ExitCode()

		if parseErr != nil {
			// Non-zero exit without a summary means Pester never ran the
			// file (syntax error in the test, missing module, crash).
			return run, fmt.Errorf("pester exited %d without a result summary: %s",
				run.ExitCode, firstLine(output))
		}

		return run, nil
	default:
		return run, fmt.Errorf("start %s: %w", a.shell, runErr)
	}
}

// ParsePesterOutput extracts pass/fail/skip counts from the Pester
// console summary.
func ParsePesterOutput(output string) (PesterRun, error) {
	match := summaryPattern.FindStringSubmatch(output)
	if match == nil {
		return PesterRun{}, errors.New("no pester summary line found")
	}

	passed, _ := strconv.Atoi(match[1])
	failed, _ := strconv.Atoi(match[2])

	skipped := 0
	if match[3] != "" {
		skipped, _ = strconv.Atoi(match[3])
	}

	return PesterRun{Passed: passed, Failed: failed, Skipped: skipped}, nil
}

func buildInvocation(testFile string, opts PesterRunOptions) string {
	var b strings.Builder

	b.WriteString("$cfg = New-PesterConfiguration; ")
	fmt.Fprintf(&b, "$cfg.Run.Path = '%s'; ", escapeSingleQuotes(testFile))
	b.WriteString("$cfg.Run.Exit = $true; ")
	b.WriteString("$cfg.Output.Verbosity = 'Normal'; ")

	if opts.ResultsPath != "" {
		b.WriteString("$cfg.TestResult.Enabled = $true; ")
		fmt.Fprintf(&b, "$cfg.TestResult.OutputPath = '%s'; ", escapeSingleQuotes(opts.ResultsPath))
	}

	if opts.CoveragePath != "" {
		b.WriteString("$cfg.CodeCoverage.Enabled = $true; ")
		fmt.Fprintf(&b, "$cfg.CodeCoverage.OutputPath = '%s'; ", escapeSingleQuotes(opts.CoveragePath))
	}

	b.WriteString("Invoke-Pester -Configuration $cfg")

	return b.String()
}

func escapeSingleQuotes(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}

	return s
}
