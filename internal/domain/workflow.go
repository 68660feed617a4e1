package domain

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"labtest.dev/pkg/labtest/internal/adapter"
	"labtest.dev/pkg/labtest/internal/controller"
	m "labtest.dev/pkg/labtest/internal/model"
)

// GenerateArgs drives the generate command.
type GenerateArgs struct {
	// Source is a single script or a directory of scripts.
	Source    m.Path
	OutputDir m.Path
	// Reports is the directory holding the test index.
	Reports m.Path
	Force   bool
	Watch   bool
	// PollInterval switches watch mode to polling when positive.
	PollInterval time.Duration
}

// RunArgs drives the run command.
type RunArgs struct {
	Root     m.Path
	Category m.Category
	Platform m.Platform
	NameGlob string
	Parallel bool
	MaxJobs  int
	Timeout  time.Duration
	Coverage bool
	// Report enables HTML/JSON report rendering into Reports.
	Report  bool
	Reports m.Path
}

// ListArgs drives the list command.
type ListArgs struct {
	Root m.Path
}

// ViewArgs drives the view command.
type ViewArgs struct {
	Reports m.Path
}

// Workflow is the use-case layer behind the CLI commands.
type Workflow interface {
	Generate(ctx context.Context, args GenerateArgs) error
	Run(ctx context.Context, args RunArgs) error
	List(ctx context.Context, args ListArgs) error
	View(ctx context.Context, args ViewArgs) error
}

// WatcherFactory builds the watcher used by generate --watch. Injected
// so tests can substitute a synchronous fake.
type WatcherFactory func(dir string, handler func(path string), poll time.Duration) adapter.ScriptWatcher

// DefaultWatcherFactory picks fsnotify, or polling when an explicit
// interval is requested.
func DefaultWatcherFactory(dir string, handler func(path string), poll time.Duration) adapter.ScriptWatcher {
	if poll > 0 {
		return adapter.NewPollingWatcher(dir, handler, poll)
	}

	return adapter.NewFSNotifyWatcher(dir, handler)
}

type workflow struct {
	adapter.ScriptFSAdapter
	adapter.ReportStore
	controller.UI
	Analyzer
	Generator
	Scheduler

	newWatcher WatcherFactory
}

// NewWorkflow creates a Workflow with the provided dependencies.
func NewWorkflow(
	fs adapter.ScriptFSAdapter,
	store adapter.ReportStore,
	ui controller.UI,
	analyzer Analyzer,
	generator Generator,
	scheduler Scheduler,
	newWatcher WatcherFactory,
) Workflow {
	return &workflow{
		ScriptFSAdapter: fs,
		ReportStore:     store,
		UI:              ui,
		Analyzer:        analyzer,
		Generator:       generator,
		Scheduler:       scheduler,
		newWatcher:      newWatcher,
	}
}

func (w *workflow) Generate(ctx context.Context, args GenerateArgs) error {
	info, err := w.FileInfo(args.Source)
	if err != nil {
		// Fatal for the explicit single invocation; there is nothing to
		// fall back to.
		return fmt.Errorf("source %s: %w", args.Source, err)
	}

	opts := GenerateOptions{OutputDir: args.OutputDir, Force: args.Force}

	var records []m.GenerationRecord

	if info.IsDir() {
		records = w.generateDir(args.Source, opts, args.Reports)
	} else {
		result, genErr := w.Generator.Generate(args.Source, opts)
		if genErr != nil {
			return genErr
		}

		w.recordIndex(args.Reports, []GenerateResult{result})
		records = append(records, toRecord(result))
	}

	if err := w.DisplayGeneration(ctx, records); err != nil {
		return err
	}

	if !args.Watch {
		return nil
	}

	return w.watch(ctx, args)
}

func (w *workflow) generateDir(dir m.Path, opts GenerateOptions, reports m.Path) []m.GenerationRecord {
	var (
		records []m.GenerationRecord
		written []GenerateResult
	)

	walkErr := w.Walk(dir, true, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			// Batch mode: record and continue.
			slog.Warn("skipping unreadable entry", "path", path, "error", err)
			return nil
		}

		if info.IsDir() || !adapter.IsScriptFile(path) {
			return nil
		}

		result, genErr := w.Generator.Generate(m.Path(path), opts)
		if genErr != nil {
			slog.Warn("generation failed, skipping script", "script", path, "error", genErr)
			return nil
		}

		records = append(records, toRecord(result))
		written = append(written, result)

		return nil
	})
	if walkErr != nil {
		slog.Warn("directory walk ended early", "dir", dir, "error", walkErr)
	}

	w.recordIndex(reports, written)

	return records
}

// recordIndex appends created/overwritten generations to the test index.
func (w *workflow) recordIndex(reports m.Path, results []GenerateResult) {
	if reports == "" {
		return
	}

	var entries []m.IndexEntry

	for _, result := range results {
		if result.Outcome != OutcomeCreated && result.Outcome != OutcomeOverwritten {
			continue
		}

		entries = append(entries, m.IndexEntry{
			Script:      result.Script,
			TestFile:    result.TestFile,
			Category:    result.Analysis.Category,
			Platform:    result.Analysis.Platform,
			GeneratedAt: time.Now().UTC(),
			Forced:      result.Outcome == OutcomeOverwritten,
		})
	}

	if err := w.AppendIndex(reports, entries); err != nil {
		slog.Error("failed to update test index", "reports", reports, "error", err)
	}
}

func (w *workflow) watch(ctx context.Context, args GenerateArgs) error {
	dir := string(args.Source)

	handler := func(path string) {
		// A change event supersedes the no-overwrite guard: the source
		// moved on, so the skeleton is regenerated in place.
		result, err := w.Generator.Generate(m.Path(path), GenerateOptions{
			OutputDir: args.OutputDir,
			Force:     true,
		})
		if err != nil {
			slog.Warn("watch regeneration failed", "script", path, "error", err)
			return
		}

		w.recordIndex(args.Reports, []GenerateResult{result})

		_ = w.DisplayGeneration(ctx, []m.GenerationRecord{toRecord(result)})
	}

	slog.Info("watching for script changes", "dir", dir, "poll", args.PollInterval)

	return w.newWatcher(dir, handler, args.PollInterval).Run(ctx)
}

func (w *workflow) Run(ctx context.Context, args RunArgs) error {
	units, err := w.Discover(args.Root, RunFilters{
		Category: args.Category,
		NameGlob: args.NameGlob,
	})
	if err != nil {
		return err
	}

	start := time.Now()

	results := w.Scheduler.Run(ctx, units, RunOptions{
		Parallel:    args.Parallel,
		MaxJobs:     args.MaxJobs,
		Timeout:     args.Timeout,
		Coverage:    args.Coverage,
		Platform:    args.Platform,
		ArtifactDir: args.Reports,
	})

	report := BuildReport(results, time.Since(start))

	if err := w.DisplayRunSummary(ctx, report); err != nil {
		return err
	}

	if args.Report {
		html, renderErr := RenderHTML(report)
		if renderErr != nil {
			return renderErr
		}

		// Report-write failures surface directly, no retry.
		if err := w.SaveReport(args.Reports, report, html); err != nil {
			return err
		}

		slog.Info("report written",
			"json", filepath.Join(string(args.Reports), adapter.ReportJSONName),
			"html", filepath.Join(string(args.Reports), adapter.ReportHTMLName))
	}

	if report.Failed > 0 {
		return fmt.Errorf("%d of %d test files failed", report.Failed, report.Total)
	}

	return nil
}

func (w *workflow) List(ctx context.Context, args ListArgs) error {
	var analyses []m.ScriptAnalysis

	walkErr := w.Walk(args.Root, true, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			slog.Warn("skipping unreadable entry", "path", path, "error", err)
			return nil
		}

		if info.IsDir() || !adapter.IsScriptFile(path) {
			return nil
		}

		analysis, analyzeErr := w.Analyze(m.Path(path))
		if analyzeErr != nil {
			slog.Warn("analysis failed, skipping script", "script", path, "error", analyzeErr)
			return nil
		}

		analyses = append(analyses, analysis)

		return nil
	})
	if walkErr != nil {
		return fmt.Errorf("list scripts under %s: %w", args.Root, walkErr)
	}

	return w.DisplayScriptList(ctx, analyses)
}

func (w *workflow) View(ctx context.Context, args ViewArgs) error {
	report, err := w.LoadReport(args.Reports)
	if err != nil {
		return err
	}

	if err := w.Start(ctx); err != nil {
		return err
	}

	defer w.Close(ctx)

	if err := w.DisplayReport(ctx, report); err != nil {
		return err
	}

	w.UI.Wait(ctx)

	return nil
}

func toRecord(result GenerateResult) m.GenerationRecord {
	return m.GenerationRecord{
		Script:   result.Script,
		TestFile: result.TestFile,
		Category: result.Analysis.Category,
		Platform: result.Analysis.Platform,
		Outcome:  result.Outcome.String(),
		Diff:     result.Diff,
	}
}
