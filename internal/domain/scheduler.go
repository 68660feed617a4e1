package domain

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"labtest.dev/pkg/labtest/internal/adapter"
	m "labtest.dev/pkg/labtest/internal/model"
)

// DefaultTestTimeout bounds one test-file execution. A hung worker is
// killed and reported failed instead of stalling the collect phase.
const DefaultTestTimeout = 5 * time.Minute

// TestUnit is one discovered test file with the classification of its
// source script.
type TestUnit struct {
	TestFile m.Path
	Script   m.Path
	Category m.Category
	Platform m.Platform
}

// RunFilters narrows the discovered test set. Zero values mean no
// filtering on that axis.
type RunFilters struct {
	Category m.Category
	// Platform is the platform tests are dispatched for; empty means
	// the host platform.
	Platform m.Platform
	// NameGlob matches against the test file base name.
	NameGlob string
}

// RunOptions controls one runner invocation.
type RunOptions struct {
	Parallel bool
	MaxJobs  int
	Timeout  time.Duration
	Coverage bool
	// Platform is the platform tests are dispatched for; empty means
	// the host platform. Compatibility is re-checked here, at dispatch
	// time, independent of any discovery filtering.
	Platform m.Platform
	// ArtifactDir receives Pester-native result/coverage XML files.
	ArtifactDir m.Path
}

// Scheduler discovers generated tests and fans them out to workers.
type Scheduler interface {
	// Discover walks root for generated test files, classifies each via
	// its source script, and applies the category and name filters.
	// Unreadable entries are logged and skipped, never fatal.
	Discover(root m.Path, filters RunFilters) ([]TestUnit, error)

	// Run executes the units and collects their results: simple
	// fan-out/fan-in, no streaming. Ordering across workers is
	// non-deterministic; callers sort after collection. A failing,
	// crashed or timed-out worker yields a failed result and never
	// aborts siblings.
	Run(ctx context.Context, units []TestUnit, opts RunOptions) []m.TestResult
}

type scheduler struct {
	fs       adapter.ScriptFSAdapter
	runner   adapter.TestRunnerAdapter
	analyzer Analyzer
}

// NewScheduler constructs a Scheduler over the given adapters.
func NewScheduler(fs adapter.ScriptFSAdapter, runner adapter.TestRunnerAdapter, analyzer Analyzer) Scheduler {
	return &scheduler{fs: fs, runner: runner, analyzer: analyzer}
}

// HostPlatform maps the runtime OS to the model platform.
func HostPlatform() m.Platform {
	switch runtime.GOOS {
	case "windows":
		return m.PlatformWindows
	case "darwin":
		return m.PlatformMacOS
	case "linux":
		return m.PlatformLinux
	default:
		return m.PlatformCrossPlatform
	}
}

func (s *scheduler) Discover(root m.Path, filters RunFilters) ([]TestUnit, error) {
	var units []TestUnit

	walkErr := s.fs.Walk(root, true, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			slog.Warn("skipping unreadable entry", "path", path, "error", err)
			return nil
		}

		if info.IsDir() || !adapter.IsTestFile(path) {
			return nil
		}

		unit := s.classify(m.Path(path))

		if filters.Category != "" && unit.Category != filters.Category {
			return nil
		}

		if filters.NameGlob != "" {
			matched, matchErr := filepath.Match(filters.NameGlob, filepath.Base(path))
			if matchErr != nil {
				return fmt.Errorf("invalid name glob %q: %w", filters.NameGlob, matchErr)
			}

			if !matched {
				return nil
			}
		}

		units = append(units, unit)

		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("discover tests under %s: %w", root, walkErr)
	}

	return units, nil
}

// classify resolves a test file back to its source script and re-runs
// analysis for category/platform tags. A missing or unreadable script
// degrades to Unknown/cross-platform rather than failing discovery.
func (s *scheduler) classify(testFile m.Path) TestUnit {
	unit := TestUnit{
		TestFile: testFile,
		Category: m.CategoryUnknown,
		Platform: m.PlatformCrossPlatform,
	}

	base := filepath.Base(string(testFile))
	scriptName := base[:len(base)-len(".Tests.ps1")] + ".ps1"
	script := s.fs.JoinPath(filepath.Dir(string(testFile)), scriptName)

	analysis, err := s.analyzer.Analyze(script)
	if err != nil {
		slog.Warn("cannot analyze source script for test",
			"test", testFile, "script", script, "error", err)

		return unit
	}

	unit.Script = script
	unit.Category = analysis.Category
	unit.Platform = analysis.Platform

	return unit
}

func (s *scheduler) Run(ctx context.Context, units []TestUnit, opts RunOptions) []m.TestResult {
	current := opts.Platform
	if current == "" {
		current = HostPlatform()
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTestTimeout
	}

	jobs := 1
	if opts.Parallel {
		jobs = opts.MaxJobs
		if jobs <= 0 {
			jobs = runtime.NumCPU()
		}
	}

	slog.Info("running tests",
		"count", len(units), "jobs", jobs, "platform", current, "timeout", timeout)

	var (
		mu      sync.Mutex
		results []m.TestResult
	)

	group := errgroup.Group{}
	group.SetLimit(jobs)

	for _, unit := range units {
		// Platform compatibility is re-checked at dispatch time;
		// incompatible tests are recorded as skipped, never executed.
		if !unit.Platform.Matches(current) {
			reason := fmt.Sprintf("requires platform %s, running as %s", unit.Platform, current)
			slog.Info("skipping test", "test", unit.TestFile, "reason", reason)

			mu.Lock()
			results = append(results, m.TestResult{
				TestFile:   unit.TestFile,
				Script:     unit.Script,
				Category:   unit.Category,
				Platform:   unit.Platform,
				SkipReason: reason,
			})
			mu.Unlock()

			continue
		}

		group.Go(func() error {
			result := s.runOne(ctx, unit, timeout, opts)

			mu.Lock()
			results = append(results, result)
			mu.Unlock()

			// Worker failures are carried in the result; returning nil
			// keeps siblings running.
			return nil
		})
	}

	_ = group.Wait()

	return results
}

func (s *scheduler) runOne(parent context.Context, unit TestUnit, timeout time.Duration, opts RunOptions) m.TestResult {
	result := m.TestResult{
		TestFile: unit.TestFile,
		Script:   unit.Script,
		Category: unit.Category,
		Platform: unit.Platform,
	}

	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	runOpts := adapter.PesterRunOptions{}
	if opts.ArtifactDir != "" {
		runOpts.ResultsPath = s.artifactPath(unit, opts.ArtifactDir, ".results.xml")

		if opts.Coverage {
			runOpts.CoveragePath = s.artifactPath(unit, opts.ArtifactDir, ".coverage.xml")
		}
	}

	start := time.Now()
	run, err := s.runner.RunPesterFile(ctx, filepath.Dir(string(unit.TestFile)), string(unit.TestFile), runOpts)
	result.Duration = time.Since(start)
	result.DurationMS = result.Duration.Milliseconds()
	result.Passed = run.Passed
	result.Failed = run.Failed
	result.Skipped = run.Skipped

	if err != nil {
		result.Error = err.Error()
		slog.Error("test execution failed", "test", unit.TestFile, "error", err)

		return result
	}

	result.Success = run.Failed == 0
	slog.Debug("test completed",
		"test", unit.TestFile,
		"passed", run.Passed, "failed", run.Failed, "skipped", run.Skipped,
		"duration", result.Duration)

	return result
}

func (s *scheduler) artifactPath(unit TestUnit, dir m.Path, suffix string) string {
	base := filepath.Base(string(unit.TestFile))
	base = strings.TrimSuffix(base, ".Tests.ps1")

	return string(s.fs.JoinPath(string(dir), base+suffix))
}
